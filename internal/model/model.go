// Package model defines the core domain types for the event ticketing system.
package model

import "time"

// Role identifies which kind of account a bearer token was issued for.
type Role string

const (
	RoleOrganizer Role = "organizer"
	RoleAttendee  Role = "attendee"
)

// DefaultCategory is assigned to events created without a category.
const DefaultCategory = "general"

// Organizer is an account that creates and manages events.
type Organizer struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	OrgName      string    `json:"orgName"`
	Bio          string    `json:"bio"`
	Logo         *string   `json:"logo"`
	Twitter      string    `json:"twitter,omitempty"`
	Instagram    string    `json:"instagram,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NotificationPrefs are the channels an attendee wants to be notified on.
type NotificationPrefs struct {
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
}

// Preferences holds an attendee's category interests and notification flags.
type Preferences struct {
	Categories    []string          `json:"categories"`
	Notifications NotificationPrefs `json:"notifications"`
}

// DefaultPreferences mirrors the defaults applied to new attendees.
func DefaultPreferences() Preferences {
	return Preferences{
		Categories:    []string{},
		Notifications: NotificationPrefs{Email: true, SMS: false},
	}
}

// Attendee is an account that registers for events.
type Attendee struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Email         string         `json:"email"`
	PasswordHash  string         `json:"-"`
	Phone         string         `json:"phone,omitempty"`
	Preferences   Preferences    `json:"preferences"`
	Registrations []Registration `json:"registeredEvents"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// ActiveRegistration returns the attendee's non-cancelled registration for
// eventID, if any.
func (a *Attendee) ActiveRegistration(eventID string) (*Registration, bool) {
	for i := range a.Registrations {
		r := &a.Registrations[i]
		if r.EventID == eventID && r.Status.Active() {
			return r, true
		}
	}
	return nil, false
}

// RegistrationStatus is the lifecycle state of a registration.
type RegistrationStatus string

const (
	StatusRegistered RegistrationStatus = "registered"
	StatusAttended   RegistrationStatus = "attended"
	StatusCancelled  RegistrationStatus = "cancelled"
)

// Active reports whether the registration still holds a ticket.
func (s RegistrationStatus) Active() bool {
	return s != StatusCancelled
}

// Registration is an attendee's claim on one ticket for one event.
type Registration struct {
	ID               string             `json:"id"`
	EventID          string             `json:"event"`
	RegistrationDate time.Time          `json:"registrationDate"`
	Status           RegistrationStatus `json:"status"`
}

// Event represents a ticketed event owned by an organizer.
type Event struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Date             time.Time `json:"date"`
	Venue            string    `json:"venue"`
	Price            float64   `json:"price"`
	TicketsAvailable int       `json:"ticketsAvailable"`
	Category         string    `json:"category"`
	Banner           *string   `json:"banner"`
	OrganizerID      string    `json:"organizer"`
	OrganizerName    string    `json:"orgName,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// SoldOut returns true when no tickets remain.
func (e *Event) SoldOut() bool {
	return e.TicketsAvailable <= 0
}

// Summary returns the public subset of the event used in registration
// responses and profile listings.
func (e *Event) Summary() EventSummary {
	return EventSummary{
		ID:    e.ID,
		Title: e.Title,
		Date:  e.Date,
		Venue: e.Venue,
		Price: e.Price,
	}
}

// EventSummary is a compact view of an event.
type EventSummary struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Date  time.Time `json:"date"`
	Venue string    `json:"venue"`
	Price float64   `json:"price"`
}

// EventPatch carries a partial event update; nil fields are left unchanged.
type EventPatch struct {
	Title            *string
	Description      *string
	Date             *time.Time
	Venue            *string
	Price            *float64
	TicketsAvailable *int
	Category         *string
	Banner           *string
}

// OrganizerPatch carries a partial organizer profile update.
type OrganizerPatch struct {
	Name      *string
	OrgName   *string
	Bio       *string
	Twitter   *string
	Instagram *string
	Logo      *string
}

// AttendeePatch carries a partial attendee profile update.
type AttendeePatch struct {
	Name        *string
	Phone       *string
	Preferences *Preferences
}

// ─── Request / response contracts ─────────────────────────────────────────────

// RegisterOrganizerRequest is the payload for creating an organizer account.
type RegisterOrganizerRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	OrgName  string `json:"orgName" validate:"max=160"`
	Bio      string `json:"bio" validate:"max=2000"`
}

// RegisterAttendeeRequest is the payload for creating an attendee account.
type RegisterAttendeeRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Phone    string `json:"phone" validate:"max=32"`
}

// LoginRequest is the payload for both login endpoints.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token   string `json:"token"`
	Account any    `json:"account"`
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Title            string    `json:"title" validate:"required,max=200"`
	Description      string    `json:"description" validate:"max=5000"`
	Date             time.Time `json:"date" validate:"required"`
	Venue            string    `json:"venue" validate:"max=300"`
	Price            *float64  `json:"price" validate:"required,gte=0"`
	TicketsAvailable *int      `json:"ticketsAvailable" validate:"required,gte=0,max=2147483647"`
	Category         string    `json:"category" validate:"max=60"`
}

// UpdateEventRequest is the payload for editing an event; absent fields are
// left unchanged.
type UpdateEventRequest struct {
	Title            *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description      *string    `json:"description" validate:"omitempty,max=5000"`
	Date             *time.Time `json:"date"`
	Venue            *string    `json:"venue" validate:"omitempty,max=300"`
	Price            *float64   `json:"price" validate:"omitempty,gte=0"`
	TicketsAvailable *int       `json:"ticketsAvailable" validate:"omitempty,gte=0,max=2147483647"`
	Category         *string    `json:"category" validate:"omitempty,max=60"`
}

// UpdateOrganizerRequest is the payload for PATCH /organizers/profile.
type UpdateOrganizerRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=1,max=120"`
	OrgName   *string `json:"orgName" validate:"omitempty,max=160"`
	Bio       *string `json:"bio" validate:"omitempty,max=2000"`
	Twitter   *string `json:"twitter" validate:"omitempty,max=64"`
	Instagram *string `json:"instagram" validate:"omitempty,max=64"`
}

// NotificationPrefsPatch toggles individual notification channels.
type NotificationPrefsPatch struct {
	Email *bool `json:"email"`
	SMS   *bool `json:"sms"`
}

// PreferencesPatch is the partial preferences payload of an attendee update.
type PreferencesPatch struct {
	Categories    []string                `json:"categories" validate:"omitempty,dive,min=1,max=60"`
	Notifications *NotificationPrefsPatch `json:"notifications"`
}

// UpdateAttendeeRequest is the payload for PATCH /attendees/profile.
type UpdateAttendeeRequest struct {
	Name        *string           `json:"name" validate:"omitempty,min=1,max=120"`
	Phone       *string           `json:"phone" validate:"omitempty,max=32"`
	Preferences *PreferencesPatch `json:"preferences"`
}

// RegistrationResult is returned after a successful event registration.
type RegistrationResult struct {
	Message        string       `json:"message"`
	RegistrationID string       `json:"registrationId"`
	Event          EventSummary `json:"event"`
}

// RegisteredEvent pairs a registration with a summary of its event.
type RegisteredEvent struct {
	Registration
	Event EventSummary `json:"eventDetails"`
}

// AttendeeProfile is the attendee's own view of their account.
type AttendeeProfile struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Email            string            `json:"email"`
	Phone            string            `json:"phone,omitempty"`
	Preferences      Preferences       `json:"preferences"`
	RegisteredEvents []RegisteredEvent `json:"registeredEvents"`
}

// Dashboard is the organizer's own profile plus the events they own.
type Dashboard struct {
	Organizer *Organizer `json:"organizer"`
	Events    []Event    `json:"events"`
}

// Upload is an image file attached to a multipart request.
type Upload struct {
	Filename string
	Data     []byte
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// BookingResult summarises the outcome of a single registration attempt.
// Used in the concurrent test harness.
type BookingResult struct {
	AttendeeID string
	Success    bool
	Error      error
}
