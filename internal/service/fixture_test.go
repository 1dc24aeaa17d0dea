package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/auth"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/blob"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/repository/memstore"
)

// fakeImages stores nothing; uploads whose data is "not-an-image" are rejected.
type fakeImages struct {
	mu      sync.Mutex
	n       int
	deleted []string
}

func (f *fakeImages) Save(_ context.Context, up model.Upload) (string, error) {
	if string(up.Data) == "not-an-image" {
		return "", blob.ErrNotImage
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	return fmt.Sprintf("/uploads/%d.png", f.n), nil
}

func (f *fakeImages) Delete(_ context.Context, p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, p)
	return nil
}

type published struct {
	key string
	msg any
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []published
}

func (p *recordingPublisher) Publish(_ context.Context, key string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{key: key, msg: v})
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.msgs)
}

type fixture struct {
	store    *memstore.Store
	issuer   *auth.Issuer
	images   *fakeImages
	pub      *recordingPublisher
	accounts *AccountService
	events   *EventService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	hasher, err := auth.NewHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	f := &fixture{
		store:  memstore.New(),
		issuer: auth.NewIssuer("service-test-secret-0123"),
		images: &fakeImages{},
		pub:    &recordingPublisher{},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ttl := TokenTTLs{Default: 7 * 24 * time.Hour, OrganizerLogin: 24 * time.Hour}
	f.accounts = NewAccountService(f.store, f.store, f.issuer, hasher, f.images, ttl, log)
	f.events = NewEventService(f.store, f.store, f.issuer, f.images, f.pub, log)
	return f
}

// organizer registers an organizer and returns its token and id.
func (f *fixture) organizer(t *testing.T, email string) (string, string) {
	t.Helper()
	res, err := f.accounts.RegisterOrganizer(context.Background(), model.RegisterOrganizerRequest{
		Name: "Olivia", Email: email, Password: "secret123", OrgName: "Olivia Events",
	})
	if err != nil {
		t.Fatalf("RegisterOrganizer(%s): %v", email, err)
	}
	return res.Token, res.Account.(*model.Organizer).ID
}

// attendee registers an attendee and returns its token and id.
func (f *fixture) attendee(t *testing.T, email string) (string, string) {
	t.Helper()
	res, err := f.accounts.RegisterAttendee(context.Background(), model.RegisterAttendeeRequest{
		Name: "Sam", Email: email, Password: "secret123",
	})
	if err != nil {
		t.Fatalf("RegisterAttendee(%s): %v", email, err)
	}
	return res.Token, res.Account.(*model.Attendee).ID
}

func (f *fixture) event(t *testing.T, orgToken string, tickets int) *model.Event {
	t.Helper()
	price := 25.0
	e, err := f.events.CreateEvent(context.Background(), orgToken, model.CreateEventRequest{
		Title:            "Go Meetup",
		Date:             time.Now().Add(72 * time.Hour),
		Venue:            "Hall A",
		Price:            &price,
		TicketsAvailable: &tickets,
	}, nil)
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	return e
}

func (f *fixture) ticketsLeft(t *testing.T, eventID string) int {
	t.Helper()
	e, err := f.store.GetEvent(context.Background(), eventID)
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	return e.TicketsAvailable
}
