package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

// AccountRepository handles persistence for organizers and attendees,
// including the attendee's registration list.
type AccountRepository struct {
	db *pgxpool.Pool
}

// NewAccountRepository constructs an AccountRepository.
func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: db}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ─── Organizers ───────────────────────────────────────────────────────────────

const organizerColumns = `id::text, name, email, password_hash, org_name, bio, logo,
	twitter, instagram, created_at, updated_at`

func scanOrganizer(row pgx.Row) (*model.Organizer, error) {
	var o model.Organizer
	err := row.Scan(&o.ID, &o.Name, &o.Email, &o.PasswordHash, &o.OrgName, &o.Bio, &o.Logo,
		&o.Twitter, &o.Instagram, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOrganizer inserts o, or returns ErrEmailTaken when another organizer
// already uses the email.
func (r *AccountRepository) CreateOrganizer(ctx context.Context, o *model.Organizer) error {
	now := time.Now().UTC()
	o.ID = uuid.New().String()
	o.Email = normalizeEmail(o.Email)
	o.CreatedAt, o.UpdatedAt = now, now

	_, err := r.db.Exec(ctx,
		`INSERT INTO organizers (id, name, email, password_hash, org_name, bio, logo,
			twitter, instagram, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		o.ID, o.Name, o.Email, o.PasswordHash, o.OrgName, o.Bio, o.Logo,
		o.Twitter, o.Instagram, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert organizer: %w", err)
	}
	return nil
}

// FindOrganizerByEmail looks an organizer up by case-insensitive email.
func (r *AccountRepository) FindOrganizerByEmail(ctx context.Context, email string) (*model.Organizer, error) {
	o, err := scanOrganizer(r.db.QueryRow(ctx,
		`SELECT `+organizerColumns+` FROM organizers WHERE lower(email) = $1`,
		normalizeEmail(email),
	))
	if err != nil {
		return nil, notFoundOr(err, "find organizer")
	}
	return o, nil
}

// GetOrganizer returns the organizer with the given id or ErrNotFound.
func (r *AccountRepository) GetOrganizer(ctx context.Context, id string) (*model.Organizer, error) {
	o, err := scanOrganizer(r.db.QueryRow(ctx,
		`SELECT `+organizerColumns+` FROM organizers WHERE id = $1`, id,
	))
	if err != nil {
		return nil, notFoundOr(err, "get organizer")
	}
	return o, nil
}

// UpdateOrganizer applies the non-nil fields of patch.
func (r *AccountRepository) UpdateOrganizer(ctx context.Context, id string, patch model.OrganizerPatch) (*model.Organizer, error) {
	o, err := scanOrganizer(r.db.QueryRow(ctx,
		`UPDATE organizers SET
			name       = COALESCE($2, name),
			org_name   = COALESCE($3, org_name),
			bio        = COALESCE($4, bio),
			twitter    = COALESCE($5, twitter),
			instagram  = COALESCE($6, instagram),
			logo       = COALESCE($7, logo),
			updated_at = $8
		 WHERE id = $1
		 RETURNING `+organizerColumns,
		id, patch.Name, patch.OrgName, patch.Bio, patch.Twitter, patch.Instagram, patch.Logo,
		time.Now().UTC(),
	))
	if err != nil {
		return nil, notFoundOr(err, "update organizer")
	}
	return o, nil
}

// ─── Attendees ────────────────────────────────────────────────────────────────

const attendeeColumns = `id::text, name, email, password_hash, phone, categories,
	notify_email, notify_sms, created_at, updated_at`

func scanAttendee(row pgx.Row) (*model.Attendee, error) {
	var a model.Attendee
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Phone,
		&a.Preferences.Categories, &a.Preferences.Notifications.Email,
		&a.Preferences.Notifications.SMS, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if a.Preferences.Categories == nil {
		a.Preferences.Categories = []string{}
	}
	return &a, nil
}

// loadRegistrations fills a.Registrations in registration order.
func (r *AccountRepository) loadRegistrations(ctx context.Context, a *model.Attendee) error {
	rows, err := r.db.Query(ctx,
		`SELECT id::text, event_id::text, registered_at, status
		 FROM registrations
		 WHERE attendee_id = $1
		 ORDER BY registered_at ASC`,
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	a.Registrations = []model.Registration{}
	for rows.Next() {
		var reg model.Registration
		if err := rows.Scan(&reg.ID, &reg.EventID, &reg.RegistrationDate, &reg.Status); err != nil {
			return fmt.Errorf("scan registration: %w", err)
		}
		a.Registrations = append(a.Registrations, reg)
	}
	return rows.Err()
}

// CreateAttendee inserts a, or returns ErrEmailTaken when another attendee
// already uses the email.
func (r *AccountRepository) CreateAttendee(ctx context.Context, a *model.Attendee) error {
	now := time.Now().UTC()
	a.ID = uuid.New().String()
	a.Email = normalizeEmail(a.Email)
	a.CreatedAt, a.UpdatedAt = now, now
	if a.Preferences.Categories == nil {
		a.Preferences.Categories = []string{}
	}
	a.Registrations = []model.Registration{}

	_, err := r.db.Exec(ctx,
		`INSERT INTO attendees (id, name, email, password_hash, phone, categories,
			notify_email, notify_sms, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.Name, a.Email, a.PasswordHash, a.Phone, a.Preferences.Categories,
		a.Preferences.Notifications.Email, a.Preferences.Notifications.SMS,
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert attendee: %w", err)
	}
	return nil
}

// FindAttendeeByEmail looks an attendee up by case-insensitive email.
func (r *AccountRepository) FindAttendeeByEmail(ctx context.Context, email string) (*model.Attendee, error) {
	a, err := scanAttendee(r.db.QueryRow(ctx,
		`SELECT `+attendeeColumns+` FROM attendees WHERE lower(email) = $1`,
		normalizeEmail(email),
	))
	if err != nil {
		return nil, notFoundOr(err, "find attendee")
	}
	if err := r.loadRegistrations(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// GetAttendee returns the attendee, with registrations, or ErrNotFound.
func (r *AccountRepository) GetAttendee(ctx context.Context, id string) (*model.Attendee, error) {
	a, err := scanAttendee(r.db.QueryRow(ctx,
		`SELECT `+attendeeColumns+` FROM attendees WHERE id = $1`, id,
	))
	if err != nil {
		return nil, notFoundOr(err, "get attendee")
	}
	if err := r.loadRegistrations(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// UpdateAttendee applies the non-nil fields of patch. A non-nil
// Preferences replaces the stored preferences wholesale.
func (r *AccountRepository) UpdateAttendee(ctx context.Context, id string, patch model.AttendeePatch) (*model.Attendee, error) {
	var (
		categories             []string
		notifyEmail, notifySMS *bool
	)
	if p := patch.Preferences; p != nil {
		categories = p.Categories
		if categories == nil {
			categories = []string{}
		}
		notifyEmail, notifySMS = &p.Notifications.Email, &p.Notifications.SMS
	}

	a, err := scanAttendee(r.db.QueryRow(ctx,
		`UPDATE attendees SET
			name         = COALESCE($2, name),
			phone        = COALESCE($3, phone),
			categories   = COALESCE($4, categories),
			notify_email = COALESCE($5, notify_email),
			notify_sms   = COALESCE($6, notify_sms),
			updated_at   = $7
		 WHERE id = $1
		 RETURNING `+attendeeColumns,
		id, patch.Name, patch.Phone, categories, notifyEmail, notifySMS, time.Now().UTC(),
	))
	if err != nil {
		return nil, notFoundOr(err, "update attendee")
	}
	if err := r.loadRegistrations(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// AppendRegistration records reg for the attendee. The partial unique index
// on live registrations turns a concurrent duplicate into ErrAlreadyRegistered.
func (r *AccountRepository) AppendRegistration(ctx context.Context, attendeeID string, reg *model.Registration) error {
	if reg.ID == "" {
		reg.ID = uuid.New().String()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO registrations (id, attendee_id, event_id, registered_at, status)
		 VALUES ($1, $2, $3, $4, $5)`,
		reg.ID, attendeeID, reg.EventID, reg.RegistrationDate, reg.Status,
	)
	if err != nil {
		switch pgCode(err) {
		case pgUniqueViolation:
			return ErrAlreadyRegistered
		case pgForeignKeyViolation, pgInvalidText:
			return ErrNotFound
		}
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}
