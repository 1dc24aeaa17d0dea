// Package memstore is an in-process implementation of the account and event
// stores. It backs STORE_DRIVER=memory and the service and handler tests.
package memstore

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/repository"
)

// Store holds every record behind a single mutex. All reads return copies.
type Store struct {
	mu         sync.Mutex
	organizers map[string]*model.Organizer
	attendees  map[string]*model.Attendee
	events     map[string]*model.Event
	now        func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		organizers: make(map[string]*model.Organizer),
		attendees:  make(map[string]*model.Attendee),
		events:     make(map[string]*model.Event),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func cloneOrganizer(o *model.Organizer) *model.Organizer {
	c := *o
	if o.Logo != nil {
		logo := *o.Logo
		c.Logo = &logo
	}
	return &c
}

func cloneAttendee(a *model.Attendee) *model.Attendee {
	c := *a
	c.Preferences.Categories = slices.Clone(a.Preferences.Categories)
	if c.Preferences.Categories == nil {
		c.Preferences.Categories = []string{}
	}
	c.Registrations = slices.Clone(a.Registrations)
	if c.Registrations == nil {
		c.Registrations = []model.Registration{}
	}
	return &c
}

// cloneEvent copies e and refreshes the owner's organization name.
func (s *Store) cloneEvent(e *model.Event) *model.Event {
	c := *e
	if e.Banner != nil {
		b := *e.Banner
		c.Banner = &b
	}
	if o, ok := s.organizers[e.OrganizerID]; ok {
		c.OrganizerName = o.OrgName
	}
	return &c
}

// ─── Accounts ─────────────────────────────────────────────────────────────────

// CreateOrganizer stores o, assigning its id, or returns repository.ErrEmailTaken.
func (s *Store) CreateOrganizer(_ context.Context, o *model.Organizer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := normalizeEmail(o.Email)
	for _, existing := range s.organizers {
		if existing.Email == email {
			return repository.ErrEmailTaken
		}
	}
	now := s.now()
	o.ID = uuid.New().String()
	o.Email = email
	o.CreatedAt, o.UpdatedAt = now, now
	s.organizers[o.ID] = cloneOrganizer(o)
	return nil
}

// FindOrganizerByEmail looks an organizer up by case-insensitive email.
func (s *Store) FindOrganizerByEmail(_ context.Context, email string) (*model.Organizer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = normalizeEmail(email)
	for _, o := range s.organizers {
		if o.Email == email {
			return cloneOrganizer(o), nil
		}
	}
	return nil, repository.ErrNotFound
}

// GetOrganizer returns the organizer with the given id.
func (s *Store) GetOrganizer(_ context.Context, id string) (*model.Organizer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.organizers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneOrganizer(o), nil
}

// UpdateOrganizer applies the non-nil fields of patch.
func (s *Store) UpdateOrganizer(_ context.Context, id string, patch model.OrganizerPatch) (*model.Organizer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.organizers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	setIf(&o.Name, patch.Name)
	setIf(&o.OrgName, patch.OrgName)
	setIf(&o.Bio, patch.Bio)
	setIf(&o.Twitter, patch.Twitter)
	setIf(&o.Instagram, patch.Instagram)
	if patch.Logo != nil {
		logo := *patch.Logo
		o.Logo = &logo
	}
	o.UpdatedAt = s.now()
	return cloneOrganizer(o), nil
}

// CreateAttendee stores a, assigning its id, or returns repository.ErrEmailTaken.
func (s *Store) CreateAttendee(_ context.Context, a *model.Attendee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := normalizeEmail(a.Email)
	for _, existing := range s.attendees {
		if existing.Email == email {
			return repository.ErrEmailTaken
		}
	}
	now := s.now()
	a.ID = uuid.New().String()
	a.Email = email
	a.CreatedAt, a.UpdatedAt = now, now
	if a.Preferences.Categories == nil {
		a.Preferences.Categories = []string{}
	}
	a.Registrations = []model.Registration{}
	s.attendees[a.ID] = cloneAttendee(a)
	return nil
}

// FindAttendeeByEmail looks an attendee up by case-insensitive email.
func (s *Store) FindAttendeeByEmail(_ context.Context, email string) (*model.Attendee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = normalizeEmail(email)
	for _, a := range s.attendees {
		if a.Email == email {
			return cloneAttendee(a), nil
		}
	}
	return nil, repository.ErrNotFound
}

// GetAttendee returns the attendee with the given id and its registrations.
func (s *Store) GetAttendee(_ context.Context, id string) (*model.Attendee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.attendees[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneAttendee(a), nil
}

// UpdateAttendee applies the non-nil fields of patch.
func (s *Store) UpdateAttendee(_ context.Context, id string, patch model.AttendeePatch) (*model.Attendee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.attendees[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	setIf(&a.Name, patch.Name)
	setIf(&a.Phone, patch.Phone)
	if patch.Preferences != nil {
		a.Preferences = *patch.Preferences
		a.Preferences.Categories = slices.Clone(patch.Preferences.Categories)
		if a.Preferences.Categories == nil {
			a.Preferences.Categories = []string{}
		}
	}
	a.UpdatedAt = s.now()
	return cloneAttendee(a), nil
}

// AppendRegistration records reg for the attendee, rejecting a second live
// registration for the same event.
func (s *Store) AppendRegistration(_ context.Context, attendeeID string, reg *model.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.attendees[attendeeID]
	if !ok {
		return repository.ErrNotFound
	}
	if _, ok := s.events[reg.EventID]; !ok {
		return repository.ErrNotFound
	}
	if _, dup := a.ActiveRegistration(reg.EventID); dup {
		return repository.ErrAlreadyRegistered
	}
	if reg.ID == "" {
		reg.ID = uuid.New().String()
	}
	a.Registrations = append(a.Registrations, *reg)
	return nil
}

// ─── Events ───────────────────────────────────────────────────────────────────

// CreateEvent stores e for an existing organizer.
func (s *Store) CreateEvent(_ context.Context, e *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.organizers[e.OrganizerID]; !ok {
		return repository.ErrNotFound
	}
	now := s.now()
	e.ID = uuid.New().String()
	e.CreatedAt, e.UpdatedAt = now, now
	if e.Category == "" {
		e.Category = model.DefaultCategory
	}
	s.events[e.ID] = s.cloneEvent(e)
	e.OrganizerName = s.events[e.ID].OrganizerName
	return nil
}

// GetEvent returns the event with the given id.
func (s *Store) GetEvent(_ context.Context, id string) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.cloneEvent(e), nil
}

// ListEvents returns every event ordered by date.
func (s *Store) ListEvents(_ context.Context) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sortedEvents(func(*model.Event) bool { return true }), nil
}

// ListEventsByOrganizer returns the organizer's events ordered by date.
func (s *Store) ListEventsByOrganizer(_ context.Context, organizerID string) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sortedEvents(func(e *model.Event) bool { return e.OrganizerID == organizerID }), nil
}

func (s *Store) sortedEvents(keep func(*model.Event) bool) []model.Event {
	var out []model.Event
	for _, e := range s.events {
		if keep(e) {
			out = append(out, *s.cloneEvent(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// UpdateEvent applies patch when requesterID owns the event.
func (s *Store) UpdateEvent(_ context.Context, id string, patch model.EventPatch, requesterID string) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if e.OrganizerID != requesterID {
		return nil, repository.ErrForbidden
	}
	setIf(&e.Title, patch.Title)
	setIf(&e.Description, patch.Description)
	setIf(&e.Date, patch.Date)
	setIf(&e.Venue, patch.Venue)
	setIf(&e.Price, patch.Price)
	setIf(&e.TicketsAvailable, patch.TicketsAvailable)
	setIf(&e.Category, patch.Category)
	if patch.Banner != nil {
		b := *patch.Banner
		e.Banner = &b
	}
	e.UpdatedAt = s.now()
	return s.cloneEvent(e), nil
}

// DeleteEvent removes the event and every registration that references it.
func (s *Store) DeleteEvent(_ context.Context, id, requesterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok {
		return repository.ErrNotFound
	}
	if e.OrganizerID != requesterID {
		return repository.ErrForbidden
	}
	delete(s.events, id)
	for _, a := range s.attendees {
		a.Registrations = slices.DeleteFunc(a.Registrations, func(r model.Registration) bool {
			return r.EventID == id
		})
	}
	return nil
}

// DecrementTickets checks and takes one ticket inside the store's critical
// section.
func (s *Store) DecrementTickets(_ context.Context, id string) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if e.TicketsAvailable <= 0 {
		return nil, repository.ErrSoldOut
	}
	e.TicketsAvailable--
	e.UpdatedAt = s.now()
	return s.cloneEvent(e), nil
}

// RestoreTicket gives back one ticket.
func (s *Store) RestoreTicket(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok {
		return repository.ErrNotFound
	}
	e.TicketsAvailable++
	e.UpdatedAt = s.now()
	return nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
