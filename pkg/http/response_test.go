package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "tablebook/pkg/errors"
)

func TestWriteError_AppError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, apperrors.Validation("missing fields", map[string]any{"fields": []string{"email"}}))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != "missing fields" || resp.Code != apperrors.CodeValidation {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Details["fields"] == nil {
		t.Errorf("expected details.fields to be set")
	}
}

func TestWriteError_PlainErrorIsHidden(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, errors.New("connection refused to 10.0.0.3"))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var resp ErrorResponse
	_ = json.NewDecoder(w.Body).Decode(&resp)
	if resp.Error != "Internal server error" {
		t.Errorf("internal error text leaked: %q", resp.Error)
	}
}

func TestWriteCreated(t *testing.T) {
	w := httptest.NewRecorder()
	WriteCreated(w, map[string]string{"id": "abc"})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type %q", ct)
	}
	var resp struct {
		Data map[string]string `json:"data"`
	}
	_ = json.NewDecoder(w.Body).Decode(&resp)
	if resp.Data["id"] != "abc" {
		t.Errorf("expected wrapped data, got %+v", resp)
	}
}

func TestWriteAttachment(t *testing.T) {
	w := httptest.NewRecorder()
	WriteAttachment(w, "text/csv", "bookings.csv", []byte("a,b\n"))

	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="bookings.csv"` {
		t.Errorf("unexpected disposition %q", got)
	}
	if w.Body.String() != "a,b\n" {
		t.Errorf("unexpected body %q", w.Body.String())
	}
}

func TestQueryValues(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/bookings?date=2024-05-01&email=%20+&phone=555", nil)
	got := QueryValues(r, "date", "email", "phone", "missing")

	if got["date"] != "2024-05-01" || got["phone"] != "555" {
		t.Errorf("unexpected values %v", got)
	}
	if _, ok := got["email"]; ok {
		t.Errorf("blank email should be dropped")
	}
	if len(got) != 2 {
		t.Errorf("expected 2 values, got %d", len(got))
	}
}
