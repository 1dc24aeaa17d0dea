// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/auth"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/repository"
)

// AccountStore persists organizers, attendees and attendee registrations.
type AccountStore interface {
	CreateOrganizer(ctx context.Context, o *model.Organizer) error
	FindOrganizerByEmail(ctx context.Context, email string) (*model.Organizer, error)
	GetOrganizer(ctx context.Context, id string) (*model.Organizer, error)
	UpdateOrganizer(ctx context.Context, id string, patch model.OrganizerPatch) (*model.Organizer, error)

	CreateAttendee(ctx context.Context, a *model.Attendee) error
	FindAttendeeByEmail(ctx context.Context, email string) (*model.Attendee, error)
	GetAttendee(ctx context.Context, id string) (*model.Attendee, error)
	UpdateAttendee(ctx context.Context, id string, patch model.AttendeePatch) (*model.Attendee, error)
	AppendRegistration(ctx context.Context, attendeeID string, reg *model.Registration) error
}

// EventStore persists events. DecrementTickets must be atomic with respect
// to concurrent callers.
type EventStore interface {
	CreateEvent(ctx context.Context, e *model.Event) error
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	ListEventsByOrganizer(ctx context.Context, organizerID string) ([]model.Event, error)
	UpdateEvent(ctx context.Context, id string, patch model.EventPatch, requesterID string) (*model.Event, error)
	DeleteEvent(ctx context.Context, id, requesterID string) error
	DecrementTickets(ctx context.Context, id string) (*model.Event, error)
	RestoreTicket(ctx context.Context, id string) error
}

// ImageStore saves uploaded images and deletes replaced ones.
type ImageStore interface {
	Save(ctx context.Context, up model.Upload) (string, error)
	Delete(ctx context.Context, path string) error
}

// Publisher sends domain notifications.
type Publisher interface {
	Publish(ctx context.Context, key string, v any) error
}

// EventService orchestrates event-related business operations.
type EventService struct {
	events   EventStore
	accounts AccountStore
	issuer   *auth.Issuer
	images   ImageStore
	pub      Publisher
	log      *slog.Logger
	now      func() time.Time
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(
	events EventStore,
	accounts AccountStore,
	issuer *auth.Issuer,
	images ImageStore,
	pub Publisher,
	log *slog.Logger,
) *EventService {
	return &EventService{
		events:   events,
		accounts: accounts,
		issuer:   issuer,
		images:   images,
		pub:      pub,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateEvent validates the request and stores a new event owned by the
// calling organizer. banner may be nil.
func (s *EventService) CreateEvent(ctx context.Context, token string, req model.CreateEventRequest, banner *model.Upload) (*model.Event, error) {
	p, err := authorize(s.issuer, token, model.RoleOrganizer)
	if err != nil {
		return nil, err
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Category = strings.TrimSpace(req.Category)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := finite("price", req.Price); err != nil {
		return nil, err
	}
	if req.Category == "" {
		req.Category = model.DefaultCategory
	}

	e := &model.Event{
		Title:            req.Title,
		Description:      strings.TrimSpace(req.Description),
		Date:             req.Date.UTC(),
		Venue:            strings.TrimSpace(req.Venue),
		Price:            *req.Price,
		TicketsAvailable: *req.TicketsAvailable,
		Category:         req.Category,
		OrganizerID:      p.ID,
	}

	if banner != nil {
		path, err := s.saveImage(ctx, "banner", *banner)
		if err != nil {
			return nil, err
		}
		e.Banner = &path
	}

	if err := s.events.CreateEvent(ctx, e); err != nil {
		if e.Banner != nil {
			s.discardImage(ctx, *e.Banner)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("create event: %w", err)
	}
	return e, nil
}

// ListEvents returns all events sorted by date.
func (s *EventService) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.events.ListEvents(ctx)
}

// GetEvent returns a single event by ID.
func (s *EventService) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	if id == "" {
		return nil, repository.ErrNotFound
	}
	event, err := s.events.GetEvent(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// UpdateEvent applies a partial edit on behalf of the owning organizer.
// A new banner replaces the old one, which is then deleted best-effort.
func (s *EventService) UpdateEvent(ctx context.Context, token, id string, req model.UpdateEventRequest, banner *model.Upload) (*model.Event, error) {
	p, err := authorize(s.issuer, token, model.RoleOrganizer)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		t := strings.TrimSpace(*req.Title)
		req.Title = &t
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := finite("price", req.Price); err != nil {
		return nil, err
	}

	current, err := s.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.OrganizerID != p.ID {
		return nil, repository.ErrForbidden
	}

	patch := model.EventPatch{
		Title:            req.Title,
		Description:      req.Description,
		Venue:            req.Venue,
		Price:            req.Price,
		TicketsAvailable: req.TicketsAvailable,
		Category:         req.Category,
	}
	if req.Date != nil {
		d := req.Date.UTC()
		patch.Date = &d
	}
	if banner != nil {
		path, err := s.saveImage(ctx, "banner", *banner)
		if err != nil {
			return nil, err
		}
		patch.Banner = &path
	}

	updated, err := s.events.UpdateEvent(ctx, id, patch, p.ID)
	if err != nil {
		if patch.Banner != nil {
			s.discardImage(ctx, *patch.Banner)
		}
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrForbidden) {
			return nil, err
		}
		return nil, fmt.Errorf("update event: %w", err)
	}

	if patch.Banner != nil && current.Banner != nil && *current.Banner != *patch.Banner {
		s.discardImage(ctx, *current.Banner)
	}
	return updated, nil
}

// DeleteEvent removes an event on behalf of the owning organizer.
func (s *EventService) DeleteEvent(ctx context.Context, token, id string) error {
	p, err := authorize(s.issuer, token, model.RoleOrganizer)
	if err != nil {
		return err
	}
	current, err := s.GetEvent(ctx, id)
	if err != nil {
		return err
	}

	if err := s.events.DeleteEvent(ctx, id, p.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrForbidden) {
			return err
		}
		return fmt.Errorf("delete event: %w", err)
	}
	if current.Banner != nil {
		s.discardImage(ctx, *current.Banner)
	}
	return nil
}

// saveImage stores an upload, reporting undecodable files as invalid input
// on field.
func (s *EventService) saveImage(ctx context.Context, field string, up model.Upload) (string, error) {
	return saveImage(ctx, s.images, field, up)
}

func (s *EventService) discardImage(ctx context.Context, path string) {
	discardImage(ctx, s.images, s.log, path)
}
