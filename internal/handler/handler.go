// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/auth"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/repository"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/service"
)

const maxJSONBytes = 1 << 20 // 1 MB

var errUploadTooLarge = errors.New("upload exceeds the size limit")

// EventHandler holds all HTTP handlers for events and registrations.
type EventHandler struct {
	svc            *service.EventService
	log            *slog.Logger
	maxUploadBytes int64
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc *service.EventService, log *slog.Logger, maxUploadBytes int64) *EventHandler {
	return &EventHandler{svc: svc, log: log, maxUploadBytes: maxUploadBytes}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("body must contain a single JSON object")
	}
	return nil
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header, or returns "" when there is none.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, tok, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(tok)
}

func isMultipart(r *http.Request) bool {
	ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && ct == "multipart/form-data"
}

// readUpload parses a multipart body and returns the named file, or nil when
// the field is absent.
func readUpload(w http.ResponseWriter, r *http.Request, field string, maxBytes int64) (*model.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+maxJSONBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return nil, err
	}
	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, errUploadTooLarge
	}
	return &model.Upload{Filename: hdr.Filename, Data: data}, nil
}

// formValue returns the trimmed form value and whether the key was sent.
func formValue(r *http.Request, key string) (string, bool) {
	vs, ok := r.MultipartForm.Value[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return strings.TrimSpace(vs[0]), true
}

// writeBodyError reports a request body that could not be read or decoded.
func writeBodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || errors.Is(err, errUploadTooLarge) || errors.Is(err, multipart.ErrMessageTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
}

// parsePrice accepts finite numbers only.
func parsePrice(v string) (float64, error) {
	p, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsInf(p, 0) || math.IsNaN(p) {
		return 0, errors.New("price must be a number")
	}
	return p, nil
}

// writeServiceError maps service and repository errors onto HTTP statuses.
// what names the resource for 404 messages.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error, what string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, auth.ErrExpired):
		writeError(w, http.StatusUnauthorized, "token expired")
	case errors.Is(err, auth.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, repository.ErrForbidden):
		writeError(w, http.StatusForbidden, "not authorized to modify this event")
	case errors.Is(err, service.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "account not found")
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, repository.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email already registered")
	case errors.Is(err, repository.ErrAlreadyRegistered):
		writeError(w, http.StatusConflict, "you are already registered for this event")
	case errors.Is(err, repository.ErrSoldOut):
		writeError(w, http.StatusConflict, "event is sold out")
	default:
		log.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"err", err,
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// ─── Event handlers ───────────────────────────────────────────────────────────

// CreateEvent handles POST /api/events
// Accepts JSON, or multipart with an optional "banner" image.
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var (
		req    model.CreateEventRequest
		banner *model.Upload
		err    error
	)
	if isMultipart(r) {
		banner, err = readUpload(w, r, "banner", h.maxUploadBytes)
		if err == nil {
			err = createEventFromForm(r, &req)
		}
	} else {
		err = decodeJSON(w, r, &req)
	}
	if err != nil {
		writeBodyError(w, err)
		return
	}

	event, err := h.svc.CreateEvent(r.Context(), bearerToken(r), req, banner)
	if err != nil {
		writeServiceError(w, r, h.log, err, "organizer")
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// ListEvents handles GET /api/events
// Returns a JSON array of all events.
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.ListEvents(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err, "event")
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /api/events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err, "event")
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// UpdateEvent handles PUT /api/events/{id}
// Only the fields present in the body are changed.
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var (
		req    model.UpdateEventRequest
		banner *model.Upload
		err    error
	)
	if isMultipart(r) {
		banner, err = readUpload(w, r, "banner", h.maxUploadBytes)
		if err == nil {
			err = updateEventFromForm(r, &req)
		}
	} else {
		err = decodeJSON(w, r, &req)
	}
	if err != nil {
		writeBodyError(w, err)
		return
	}

	event, err := h.svc.UpdateEvent(r.Context(), bearerToken(r), chi.URLParam(r, "id"), req, banner)
	if err != nil {
		writeServiceError(w, r, h.log, err, "event")
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// DeleteEvent handles DELETE /api/events/{id}
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteEvent(r.Context(), bearerToken(r), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, h.log, err, "event")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Event deleted successfully"})
}

// Register handles POST /api/events/{id}/register
// Claims one ticket for the calling attendee.
func (h *EventHandler) Register(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Register(r.Context(), bearerToken(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err, "event")
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Ticket handles GET /api/attendees/registrations/{eventId}/ticket
// Returns the QR code PNG for the caller's registration.
func (h *EventHandler) Ticket(w http.ResponseWriter, r *http.Request) {
	png, err := h.svc.Ticket(r.Context(), bearerToken(r), chi.URLParam(r, "eventId"))
	if err != nil {
		writeServiceError(w, r, h.log, err, "registration")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// ─── Multipart form mapping ───────────────────────────────────────────────────

func createEventFromForm(r *http.Request, req *model.CreateEventRequest) error {
	req.Title, _ = formValue(r, "title")
	req.Description, _ = formValue(r, "description")
	req.Venue, _ = formValue(r, "venue")
	req.Category, _ = formValue(r, "category")

	if v, ok := formValue(r, "date"); ok {
		d, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return errors.New("date must be RFC 3339")
		}
		req.Date = d
	}
	if v, ok := formValue(r, "price"); ok {
		p, err := parsePrice(v)
		if err != nil {
			return err
		}
		req.Price = &p
	}
	if v, ok := formValue(r, "ticketsAvailable"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("ticketsAvailable must be an integer")
		}
		req.TicketsAvailable = &n
	}
	return nil
}

func updateEventFromForm(r *http.Request, req *model.UpdateEventRequest) error {
	str := func(key string) *string {
		if v, ok := formValue(r, key); ok {
			return &v
		}
		return nil
	}
	req.Title = str("title")
	req.Description = str("description")
	req.Venue = str("venue")
	req.Category = str("category")

	if v, ok := formValue(r, "date"); ok {
		d, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return errors.New("date must be RFC 3339")
		}
		req.Date = &d
	}
	if v, ok := formValue(r, "price"); ok {
		p, err := parsePrice(v)
		if err != nil {
			return err
		}
		req.Price = &p
	}
	if v, ok := formValue(r, "ticketsAvailable"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("ticketsAvailable must be an integer")
		}
		req.TicketsAvailable = &n
	}
	return nil
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
