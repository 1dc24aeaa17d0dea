package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/notify"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/repository"
)

// Register claims one ticket of eventID for the attendee holding token.
//
// The ticket is taken with the store's atomic DecrementTickets and only then
// is the registration appended. If the append fails the ticket is given
// back, so a failed registration never consumes inventory. The append is
// also the final duplicate guard: a concurrent double-submit by the same
// attendee that slipped past the early check is rejected there.
func (s *EventService) Register(ctx context.Context, token, eventID string) (*model.RegistrationResult, error) {
	p, err := authorize(s.issuer, token, model.RoleAttendee)
	if err != nil {
		return nil, err
	}

	if _, err := s.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}

	attendee, err := s.accounts.GetAttendee(ctx, p.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("load attendee: %w", err)
	}
	if _, ok := attendee.ActiveRegistration(eventID); ok {
		return nil, repository.ErrAlreadyRegistered
	}

	event, err := s.events.DecrementTickets(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrSoldOut) || errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("take ticket: %w", err)
	}

	reg := &model.Registration{
		ID:               uuid.New().String(),
		EventID:          eventID,
		RegistrationDate: s.now(),
		Status:           model.StatusRegistered,
	}
	if err := s.accounts.AppendRegistration(ctx, attendee.ID, reg); err != nil {
		s.restoreTicket(ctx, eventID)
		if errors.Is(err, repository.ErrAlreadyRegistered) || errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("record registration: %w", err)
	}

	s.log.Info("attendee registered",
		"event_id", eventID,
		"attendee_id", attendee.ID,
		"registration_id", reg.ID,
		"tickets_left", event.TicketsAvailable,
	)

	if attendee.Preferences.Notifications.Email {
		msg := notify.RegistrationCreated{
			RegistrationID: reg.ID,
			AttendeeID:     attendee.ID,
			AttendeeEmail:  attendee.Email,
			AttendeeName:   attendee.Name,
			Event:          event.Summary(),
			RegisteredAt:   reg.RegistrationDate,
		}
		if err := s.pub.Publish(ctx, notify.KeyRegistrationCreated, msg); err != nil {
			s.log.Warn("publish registration notification failed", "registration_id", reg.ID, "err", err)
		}
	}

	return &model.RegistrationResult{
		Message:        "Successfully registered for event",
		RegistrationID: reg.ID,
		Event:          event.Summary(),
	}, nil
}

// restoreTicket compensates a DecrementTickets whose registration could not
// be recorded. It runs even if the request context is already cancelled.
func (s *EventService) restoreTicket(ctx context.Context, eventID string) {
	if err := s.events.RestoreTicket(context.WithoutCancel(ctx), eventID); err != nil {
		s.log.Error("restore ticket failed; inventory is one short",
			"event_id", eventID, "err", err)
	}
}

// Ticket renders a QR code PNG for the attendee's live registration to
// eventID.
func (s *EventService) Ticket(ctx context.Context, token, eventID string) ([]byte, error) {
	p, err := authorize(s.issuer, token, model.RoleAttendee)
	if err != nil {
		return nil, err
	}
	attendee, err := s.accounts.GetAttendee(ctx, p.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("load attendee: %w", err)
	}
	reg, ok := attendee.ActiveRegistration(eventID)
	if !ok {
		return nil, repository.ErrNotFound
	}

	png, err := qrcode.Encode(TicketPayload(reg.ID, eventID, attendee.ID), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("render ticket qr: %w", err)
	}
	return png, nil
}

// TicketPayload is the text encoded in a ticket's QR code.
func TicketPayload(registrationID, eventID, attendeeID string) string {
	return fmt.Sprintf("ticket:%s:%s:%s", registrationID, eventID, attendeeID)
}
