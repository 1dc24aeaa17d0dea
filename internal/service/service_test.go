package service

import (
	"context"
	"errors"
	"math"
	"slices"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/auth"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/repository"
)

func ptr[T any](v T) *T { return &v }

// tooManyTickets is one more than the tickets column can hold.
func tooManyTickets() int {
	n := int64(math.MaxInt32) + 1
	return int(n)
}

func TestCreateEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tok, orgID := f.organizer(t, "org@example.com")

	e, err := f.events.CreateEvent(ctx, tok, model.CreateEventRequest{
		Title:            "  Go Meetup  ",
		Date:             time.Date(2027, 3, 1, 18, 0, 0, 0, time.UTC),
		Price:            ptr(0.0),
		TicketsAvailable: ptr(0),
	}, &model.Upload{Filename: "banner.jpg", Data: []byte("jpg")})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if e.ID == "" || e.Title != "Go Meetup" || e.OrganizerID != orgID {
		t.Fatalf("event = %+v", e)
	}
	if e.Category != model.DefaultCategory {
		t.Fatalf("category = %q, want %q", e.Category, model.DefaultCategory)
	}
	if e.Banner == nil {
		t.Fatal("banner not stored")
	}
	if e.OrganizerName != "Olivia Events" {
		t.Fatalf("organizer name = %q", e.OrganizerName)
	}
}

func TestCreateEventValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tok, _ := f.organizer(t, "org@example.com")
	date := time.Now().Add(time.Hour)

	cases := []struct {
		name string
		req  model.CreateEventRequest
	}{
		{"missing title", model.CreateEventRequest{Date: date, Price: ptr(1.0), TicketsAvailable: ptr(1)}},
		{"blank title", model.CreateEventRequest{Title: "   ", Date: date, Price: ptr(1.0), TicketsAvailable: ptr(1)}},
		{"missing date", model.CreateEventRequest{Title: "T", Price: ptr(1.0), TicketsAvailable: ptr(1)}},
		{"missing price", model.CreateEventRequest{Title: "T", Date: date, TicketsAvailable: ptr(1)}},
		{"negative price", model.CreateEventRequest{Title: "T", Date: date, Price: ptr(-1.0), TicketsAvailable: ptr(1)}},
		{"missing tickets", model.CreateEventRequest{Title: "T", Date: date, Price: ptr(1.0)}},
		{"negative tickets", model.CreateEventRequest{Title: "T", Date: date, Price: ptr(1.0), TicketsAvailable: ptr(-1)}},
		{"infinite price", model.CreateEventRequest{Title: "T", Date: date, Price: ptr(math.Inf(1)), TicketsAvailable: ptr(1)}},
		{"NaN price", model.CreateEventRequest{Title: "T", Date: date, Price: ptr(math.NaN()), TicketsAvailable: ptr(1)}},
		{"tickets above int32", model.CreateEventRequest{Title: "T", Date: date, Price: ptr(1.0), TicketsAvailable: ptr(tooManyTickets())}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.events.CreateEvent(ctx, tok, tc.req, nil)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}

	events, err := f.events.ListEvents(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Fatalf("stored %d events after failed creates", len(events))
	}
}

func TestCreateEventRequiresOrganizer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	attTok, _ := f.attendee(t, "a@example.com")
	req := model.CreateEventRequest{Title: "T", Date: time.Now(), Price: ptr(1.0), TicketsAvailable: ptr(1)}

	if _, err := f.events.CreateEvent(ctx, attTok, req, nil); !errors.Is(err, ErrForbidden) {
		t.Fatalf("attendee err = %v, want ErrForbidden", err)
	}
	if _, err := f.events.CreateEvent(ctx, "not-a-token", req, nil); !errors.Is(err, auth.ErrUnauthorized) {
		t.Fatalf("bad token err = %v, want ErrUnauthorized", err)
	}
}

func TestCreateEventRejectsNonImageBanner(t *testing.T) {
	f := newFixture(t)
	tok, _ := f.organizer(t, "org@example.com")
	req := model.CreateEventRequest{Title: "T", Date: time.Now(), Price: ptr(1.0), TicketsAvailable: ptr(1)}

	_, err := f.events.CreateEvent(context.Background(), tok, req, &model.Upload{Data: []byte("not-an-image")})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestListEventsSortedByDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tok, _ := f.organizer(t, "org@example.com")
	base := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, days := range []int{10, 2, 5} {
		_, err := f.events.CreateEvent(ctx, tok, model.CreateEventRequest{
			Title: "E", Date: base.AddDate(0, 0, days), Price: ptr(1.0), TicketsAvailable: ptr(1),
		}, nil)
		if err != nil {
			t.Fatal(err)
		}
	}

	events, err := f.events.ListEvents(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 {
		t.Fatalf("len = %d, want 3", len(events))
	}
	if !slices.IsSortedFunc(events, func(a, b model.Event) int { return a.Date.Compare(b.Date) }) {
		t.Fatalf("events not sorted by date: %+v", events)
	}
}

func TestUpdateEventOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ownerTok, _ := f.organizer(t, "owner@example.com")
	otherTok, _ := f.organizer(t, "other@example.com")
	e := f.event(t, ownerTok, 5)

	if _, err := f.events.UpdateEvent(ctx, otherTok, e.ID, model.UpdateEventRequest{Title: ptr("Hijacked")}, nil); !errors.Is(err, repository.ErrForbidden) {
		t.Fatalf("update by other err = %v, want ErrForbidden", err)
	}
	if err := f.events.DeleteEvent(ctx, otherTok, e.ID); !errors.Is(err, repository.ErrForbidden) {
		t.Fatalf("delete by other err = %v, want ErrForbidden", err)
	}

	got, err := f.events.GetEvent(ctx, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Go Meetup" {
		t.Fatalf("title = %q after rejected update", got.Title)
	}

	updated, err := f.events.UpdateEvent(ctx, ownerTok, e.ID, model.UpdateEventRequest{
		Title:            ptr("Go Meetup II"),
		TicketsAvailable: ptr(9),
	}, nil)
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.Title != "Go Meetup II" || updated.TicketsAvailable != 9 || updated.Venue != "Hall A" {
		t.Fatalf("updated = %+v", updated)
	}

	if err := f.events.DeleteEvent(ctx, ownerTok, e.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, err := f.events.GetEvent(ctx, e.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("get after delete err = %v, want ErrNotFound", err)
	}
	if err := f.events.DeleteEvent(ctx, ownerTok, e.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestUpdateEventValidation(t *testing.T) {
	f := newFixture(t)
	tok, _ := f.organizer(t, "org@example.com")
	e := f.event(t, tok, 5)

	cases := map[string]model.UpdateEventRequest{
		"blank title":      {Title: ptr("  ")},
		"negative price":   {Price: ptr(-0.5)},
		"negative tickets": {TicketsAvailable: ptr(-3)},
		"infinite price":   {Price: ptr(math.Inf(-1))},
		"NaN price":        {Price: ptr(math.NaN())},
		"too many tickets": {TicketsAvailable: ptr(tooManyTickets())},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := f.events.UpdateEvent(context.Background(), tok, e.ID, req, nil); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestUpdateEventReplacesBanner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tok, _ := f.organizer(t, "org@example.com")
	e := f.event(t, tok, 5)

	first, err := f.events.UpdateEvent(ctx, tok, e.ID, model.UpdateEventRequest{}, &model.Upload{Data: []byte("png")})
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.events.UpdateEvent(ctx, tok, e.ID, model.UpdateEventRequest{}, &model.Upload{Data: []byte("png")})
	if err != nil {
		t.Fatal(err)
	}
	if first.Banner == nil || second.Banner == nil || *first.Banner == *second.Banner {
		t.Fatalf("banners = %v, %v", first.Banner, second.Banner)
	}
	if !slices.Equal(f.images.deleted, []string{*first.Banner}) {
		t.Fatalf("deleted = %v", f.images.deleted)
	}

	if err := f.events.DeleteEvent(ctx, tok, e.ID); err != nil {
		t.Fatal(err)
	}
	if !slices.Contains(f.images.deleted, *second.Banner) {
		t.Fatalf("banner %s not deleted with event", *second.Banner)
	}
}

func TestGetEventNotFound(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"", "missing"} {
		if _, err := f.events.GetEvent(context.Background(), id); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("GetEvent(%q) err = %v, want ErrNotFound", id, err)
		}
	}
}
