package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"tablebook/internal/bookings/export"
	"tablebook/internal/bookings/service"
	apperrors "tablebook/pkg/errors"
	httputil "tablebook/pkg/http"
	"tablebook/pkg/logger"
	"tablebook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const (
	queryDate  = "date"
	queryEmail = "email"
	queryPhone = "phone"
)

type DeleteResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var booking model.Booking
	if err := decodeBody(r, &booking); err != nil {
		h.log.Warn("Rejected booking request body", "handler", "Create", "error", err)
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Create(r.Context(), &booking); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, booking)
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := httputil.QueryValues(r, queryDate, queryEmail, queryPhone)

	bookings, err := h.service.List(r.Context(), model.BookingFilter{
		Date:  query[queryDate],
		Email: query[queryEmail],
		Phone: query[queryPhone],
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, bookings)
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	booking, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, booking)
}

// Update serves both PUT and PATCH. Fields missing from the body are kept.
func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	var updates model.BookingUpdate
	if err := decodeBody(r, &updates); err != nil {
		h.log.Warn("Rejected booking request body", "handler", "Update", "id", id, "error", err)
		httputil.WriteError(w, err)
		return
	}

	updated, err := h.service.Update(r.Context(), id, &updates)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, updated)
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, DeleteResponse{
		Message: "Booking deleted",
		ID:      id,
	})
}

func (h *BookingHandler) ExportCSV(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	data, err := h.service.ExportCSV(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteAttachment(w, export.CSVContentType, export.CSVFilename, data)
}

func (h *BookingHandler) ExportXLSX(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	data, err := h.service.ExportXLSX(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteAttachment(w, export.XLSXContentType, export.XLSXFilename, data)
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings", h.List)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.PUT("/api/v1/bookings/id/:id", h.Update)
	router.PATCH("/api/v1/bookings/id/:id", h.Update)
	router.DELETE("/api/v1/bookings/id/:id", h.Delete)
	router.GET("/api/v1/bookings/export/csv", h.ExportCSV)
	router.GET("/api/v1/bookings/export/xlsx", h.ExportXLSX)
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return apperrors.InvalidInput("Request body too large")
		}
		return apperrors.InvalidInput("Invalid request body")
	}
	return nil
}
