package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"tablebook/pkg/model"
)

const (
	bookingsPath = "/api/v1/bookings"
	loginPath    = "/api/v1/admin/login"
)

// APIError is a non-2xx answer from the bookings API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bookings api: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

type LoginResult struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(baseUrl string) *BookingClient {
	return &BookingClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

// HTTP exposes the underlying client for raw requests.
func (c *BookingClient) HTTP() *HttpClient {
	return c.httpClient
}

func (c *BookingClient) Create(ctx context.Context, booking *model.Booking) (*model.Booking, error) {
	resp, err := c.httpClient.POST(ctx, bookingsPath, booking)
	if err != nil {
		return nil, err
	}
	return decodeBooking(resp, http.StatusCreated)
}

// CreateIdempotent sends key in the Idempotency-Key header so a retry replays
// the first outcome.
func (c *BookingClient) CreateIdempotent(ctx context.Context, booking *model.Booking, key string) (*model.Booking, error) {
	resp, err := c.httpClient.POSTWithHeaders(ctx, bookingsPath, booking, map[string]string{"Idempotency-Key": key})
	if err != nil {
		return nil, err
	}
	return decodeBooking(resp, http.StatusCreated)
}

func (c *BookingClient) List(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error) {
	q := url.Values{}
	if filter.Date != "" {
		q.Set("date", filter.Date)
	}
	if filter.Email != "" {
		q.Set("email", filter.Email)
	}
	if filter.Phone != "" {
		q.Set("phone", filter.Phone)
	}

	path := bookingsPath
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := c.httpClient.GET(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}

	var wrapper struct {
		Data []*model.Booking `json:"data"`
	}
	if err := resp.DecodeJSON(&wrapper); err != nil {
		return nil, fmt.Errorf("could not decode booking list: %s: %w", resp, err)
	}
	return wrapper.Data, nil
}

func (c *BookingClient) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	resp, err := c.httpClient.GET(ctx, bookingPath(id))
	if err != nil {
		return nil, err
	}
	return decodeBooking(resp, http.StatusOK)
}

// Update sends a partial update. PUT and PATCH behave the same server-side.
func (c *BookingClient) Update(ctx context.Context, id string, updates *model.BookingUpdate) (*model.Booking, error) {
	resp, err := c.httpClient.PATCH(ctx, bookingPath(id), updates)
	if err != nil {
		return nil, err
	}
	return decodeBooking(resp, http.StatusOK)
}

func (c *BookingClient) Delete(ctx context.Context, id string) error {
	resp, err := c.httpClient.DELETE(ctx, bookingPath(id))
	if err != nil {
		return err
	}
	return expectStatus(resp, http.StatusOK)
}

// Export downloads the full booking list; format is "csv" or "xlsx".
func (c *BookingClient) Export(ctx context.Context, format string) ([]byte, error) {
	resp, err := c.httpClient.GET(ctx, bookingsPath+"/export/"+url.PathEscape(format))
	if err != nil {
		return nil, err
	}
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Login authenticates as the admin and attaches the token to later requests.
func (c *BookingClient) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	resp, err := c.httpClient.POST(ctx, loginPath, map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}

	var result LoginResult
	if err := resp.DecodeJSON(&result); err != nil {
		return nil, fmt.Errorf("could not decode login response: %s: %w", resp, err)
	}
	c.httpClient.Headers["Authorization"] = "Bearer " + result.Token
	return &result, nil
}

func bookingPath(id string) string {
	return bookingsPath + "/id/" + url.PathEscape(id)
}

func decodeBooking(resp *Response, wantStatus int) (*model.Booking, error) {
	if err := expectStatus(resp, wantStatus); err != nil {
		return nil, err
	}

	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := resp.DecodeJSON(&wrapper); err != nil {
		return nil, fmt.Errorf("could not decode booking wrapper: %s: %w", resp, err)
	}

	var booking model.Booking
	if err := json.Unmarshal(wrapper.Data, &booking); err != nil {
		return nil, fmt.Errorf("could not decode booking json: %s: %w", resp, err)
	}
	return &booking, nil
}

func expectStatus(resp *Response, want int) error {
	if resp.StatusCode == want {
		return nil
	}

	var errResp struct {
		Code string `json:"code"`
	}
	_ = resp.DecodeJSON(&errResp)
	return &APIError{
		StatusCode: resp.StatusCode,
		Code:       errResp.Code,
		Message:    GetErrorMessage(resp),
	}
}
