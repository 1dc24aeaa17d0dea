package handler

import (
	"log/slog"
	"net/http"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/service"
)

// AccountHandler serves sign-up, login and profile endpoints for organizers
// and attendees.
type AccountHandler struct {
	svc            *service.AccountService
	log            *slog.Logger
	maxUploadBytes int64
}

// NewAccountHandler constructs an AccountHandler.
func NewAccountHandler(svc *service.AccountService, log *slog.Logger, maxUploadBytes int64) *AccountHandler {
	return &AccountHandler{svc: svc, log: log, maxUploadBytes: maxUploadBytes}
}

// RegisterOrganizer handles POST /api/organizers/register
func (h *AccountHandler) RegisterOrganizer(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterOrganizerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	res, err := h.svc.RegisterOrganizer(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "organizer")
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// LoginOrganizer handles POST /api/organizers/login
func (h *AccountHandler) LoginOrganizer(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	res, err := h.svc.LoginOrganizer(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "organizer")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// OrganizerProfile handles GET /api/organizers/profile
func (h *AccountHandler) OrganizerProfile(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.OrganizerProfile(r.Context(), bearerToken(r))
	if err != nil {
		writeServiceError(w, r, h.log, err, "organizer")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// Dashboard handles GET /api/organizers/dashboard
func (h *AccountHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Dashboard(r.Context(), bearerToken(r))
	if err != nil {
		writeServiceError(w, r, h.log, err, "organizer")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// UpdateOrganizerProfile handles PATCH /api/organizers/profile
// Accepts JSON, or multipart with an optional "logo" image.
func (h *AccountHandler) UpdateOrganizerProfile(w http.ResponseWriter, r *http.Request) {
	var (
		req  model.UpdateOrganizerRequest
		logo *model.Upload
		err  error
	)
	if isMultipart(r) {
		logo, err = readUpload(w, r, "logo", h.maxUploadBytes)
		if err == nil {
			str := func(key string) *string {
				if v, ok := formValue(r, key); ok {
					return &v
				}
				return nil
			}
			req.Name = str("name")
			req.OrgName = str("orgName")
			req.Bio = str("bio")
			req.Twitter = str("twitter")
			req.Instagram = str("instagram")
		}
	} else {
		err = decodeJSON(w, r, &req)
	}
	if err != nil {
		writeBodyError(w, err)
		return
	}

	o, err := h.svc.UpdateOrganizerProfile(r.Context(), bearerToken(r), req, logo)
	if err != nil {
		writeServiceError(w, r, h.log, err, "organizer")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// RegisterAttendee handles POST /api/attendees/register
func (h *AccountHandler) RegisterAttendee(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterAttendeeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	res, err := h.svc.RegisterAttendee(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "attendee")
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// LoginAttendee handles POST /api/attendees/login
func (h *AccountHandler) LoginAttendee(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	res, err := h.svc.LoginAttendee(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "attendee")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// AttendeeProfile handles GET /api/attendees/profile
func (h *AccountHandler) AttendeeProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.AttendeeProfile(r.Context(), bearerToken(r))
	if err != nil {
		writeServiceError(w, r, h.log, err, "attendee")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdateAttendeeProfile handles PATCH /api/attendees/profile
func (h *AccountHandler) UpdateAttendeeProfile(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateAttendeeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	a, err := h.svc.UpdateAttendeeProfile(r.Context(), bearerToken(r), req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "attendee")
		return
	}
	writeJSON(w, http.StatusOK, a)
}
