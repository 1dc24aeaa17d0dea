package notify

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

func TestDiscard(t *testing.T) {
	if err := (Discard{}).Publish(context.Background(), KeyRegistrationCreated, struct{}{}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
}

func TestNewPublisherRejectsBadURL(t *testing.T) {
	if _, err := NewPublisher("http://localhost:5672", "ticketing.events"); err == nil {
		t.Fatal("expected an error for a non-AMQP url")
	}
}

func TestRegistrationCreatedJSON(t *testing.T) {
	msg := RegistrationCreated{
		RegistrationID: "r1",
		AttendeeID:     "a1",
		AttendeeEmail:  "a@example.com",
		Event:          model.EventSummary{ID: "e1", Title: "Conf"},
		RegisteredAt:   time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	b, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"registrationId":"r1"`, `"attendeeEmail":"a@example.com"`, `"event":{"id":"e1"`} {
		if !strings.Contains(string(b), want) {
			t.Errorf("%s missing %s", b, want)
		}
	}
}

func TestPublishToBroker(t *testing.T) {
	url := os.Getenv("TEST_AMQP_URL")
	if url == "" {
		t.Skip("TEST_AMQP_URL not set")
	}
	p, err := NewPublisher(url, "ticketing.test")
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Publish(ctx, KeyRegistrationCreated, RegistrationCreated{RegistrationID: "r1"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
}
