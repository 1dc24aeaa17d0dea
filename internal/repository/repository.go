// Package repository implements all database queries for the event ticketing system.
// It uses pgx directly (no ORM) for transparency and performance.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrSoldOut is returned when an event has no tickets left.
var ErrSoldOut = errors.New("event is sold out")

// ErrAlreadyRegistered is returned when an attendee already holds a live
// registration for the event.
var ErrAlreadyRegistered = errors.New("already registered for this event")

// ErrEmailTaken is returned when an account of the same kind already uses the email.
var ErrEmailTaken = errors.New("email already registered")

// ErrForbidden is returned when the requester does not own the event.
var ErrForbidden = errors.New("not the owner of this event")

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgInvalidText         = "22P02"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// notFoundOr maps "no row" and malformed ids to ErrNotFound and wraps
// everything else with op.
func notFoundOr(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) || pgCode(err) == pgInvalidText {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// EventRepository handles persistence for events.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `e.id::text, e.title, e.description, e.date, e.venue, e.price,
	e.tickets_available, e.category, e.banner, e.organizer_id::text, o.org_name,
	e.created_at, e.updated_at`

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Venue, &e.Price,
		&e.TicketsAvailable, &e.Category, &e.Banner, &e.OrganizerID, &e.OrganizerName,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func collectEvents(rows pgx.Rows) ([]model.Event, error) {
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// CreateEvent inserts a new event owned by e.OrganizerID and fills in its
// generated id and timestamps.
func (r *EventRepository) CreateEvent(ctx context.Context, e *model.Event) error {
	now := time.Now().UTC()
	e.ID = uuid.New().String()
	e.CreatedAt, e.UpdatedAt = now, now
	if e.Category == "" {
		e.Category = model.DefaultCategory
	}

	err := r.db.QueryRow(ctx,
		`WITH e AS (
			INSERT INTO events (id, title, description, date, venue, price,
				tickets_available, category, banner, organizer_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING organizer_id
		 )
		 SELECT o.org_name FROM e JOIN organizers o ON o.id = e.organizer_id`,
		e.ID, e.Title, e.Description, e.Date, e.Venue, e.Price,
		e.TicketsAvailable, e.Category, e.Banner, e.OrganizerID, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.OrganizerName)
	if err != nil {
		if c := pgCode(err); c == pgForeignKeyViolation || c == pgInvalidText {
			return ErrNotFound
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetEvent returns a single event or ErrNotFound.
func (r *EventRepository) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx,
		`SELECT `+eventColumns+`
		 FROM events e JOIN organizers o ON o.id = e.organizer_id
		 WHERE e.id = $1`,
		id,
	))
	if err != nil {
		return nil, notFoundOr(err, "get event")
	}
	return e, nil
}

// ListEvents returns all events ordered by date ascending.
func (r *EventRepository) ListEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+`
		 FROM events e JOIN organizers o ON o.id = e.organizer_id
		 ORDER BY e.date ASC, e.created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return collectEvents(rows)
}

// ListEventsByOrganizer returns the events owned by organizerID.
func (r *EventRepository) ListEventsByOrganizer(ctx context.Context, organizerID string) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+`
		 FROM events e JOIN organizers o ON o.id = e.organizer_id
		 WHERE e.organizer_id = $1
		 ORDER BY e.date ASC, e.created_at ASC`,
		organizerID,
	)
	if err != nil {
		if pgCode(err) == pgInvalidText {
			return nil, nil
		}
		return nil, fmt.Errorf("list organizer events: %w", err)
	}
	return collectEvents(rows)
}

// lockOwner takes a row lock on the event and checks that requesterID owns it.
func lockOwner(ctx context.Context, tx pgx.Tx, id, requesterID string) error {
	var owner string
	err := tx.QueryRow(ctx,
		`SELECT organizer_id::text FROM events WHERE id = $1 FOR UPDATE`,
		id,
	).Scan(&owner)
	if err != nil {
		return notFoundOr(err, "lock event row")
	}
	if owner != requesterID {
		return ErrForbidden
	}
	return nil
}

// UpdateEvent applies patch to the event if requesterID owns it. Nil patch
// fields keep their stored value.
func (r *EventRepository) UpdateEvent(ctx context.Context, id string, patch model.EventPatch, requesterID string) (*model.Event, error) {
	var updated *model.Event
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockOwner(ctx, tx, id, requesterID); err != nil {
			return err
		}

		var err error
		updated, err = scanEvent(tx.QueryRow(ctx,
			`WITH e AS (
				UPDATE events SET
					title             = COALESCE($2, title),
					description       = COALESCE($3, description),
					date              = COALESCE($4, date),
					venue             = COALESCE($5, venue),
					price             = COALESCE($6, price),
					tickets_available = COALESCE($7, tickets_available),
					category          = COALESCE($8, category),
					banner            = COALESCE($9, banner),
					updated_at        = $10
				WHERE id = $1
				RETURNING *
			 )
			 SELECT `+eventColumns+` FROM e JOIN organizers o ON o.id = e.organizer_id`,
			id, patch.Title, patch.Description, patch.Date, patch.Venue, patch.Price,
			patch.TicketsAvailable, patch.Category, patch.Banner, time.Now().UTC(),
		))
		if err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteEvent removes the event if requesterID owns it. Registrations that
// reference the event are removed by the foreign key cascade.
func (r *EventRepository) DeleteEvent(ctx context.Context, id, requesterID string) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockOwner(ctx, tx, id, requesterID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM events WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete event: %w", err)
		}
		return nil
	})
}

// DecrementTickets takes one ticket from the event.
//
// The check and the decrement are a single conditional UPDATE, so two
// concurrent callers racing for the last ticket cannot both succeed: the
// second one's WHERE clause re-evaluates against the committed row and
// matches nothing.
func (r *EventRepository) DecrementTickets(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx,
		`WITH e AS (
			UPDATE events
			SET tickets_available = tickets_available - 1, updated_at = $2
			WHERE id = $1 AND tickets_available > 0
			RETURNING *
		 )
		 SELECT `+eventColumns+` FROM e JOIN organizers o ON o.id = e.organizer_id`,
		id, time.Now().UTC(),
	))
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, notFoundOr(err, "decrement tickets")
	}

	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check event exists: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}
	return nil, ErrSoldOut
}

// RestoreTicket gives back one ticket taken by DecrementTickets.
func (r *EventRepository) RestoreTicket(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE events SET tickets_available = tickets_available + 1, updated_at = $2
		 WHERE id = $1`,
		id, time.Now().UTC(),
	)
	if err != nil {
		return notFoundOr(err, "restore ticket")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
