package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

const testSecret = "test-secret-0123456789"

func TestIssueValidateRoundTrip(t *testing.T) {
	iss := NewIssuer(testSecret)

	tok, err := iss.Issue("att-1", model.RoleAttendee, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	p, err := iss.Validate(tok)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if p.ID != "att-1" || p.Role != model.RoleAttendee {
		t.Fatalf("principal = %+v", p)
	}
}

func TestValidateExpired(t *testing.T) {
	iss := NewIssuer(testSecret)
	past := time.Now().Add(-48 * time.Hour)
	iss.now = func() time.Time { return past }

	tok, err := iss.Issue("org-1", model.RoleOrganizer, 24*time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	iss.now = time.Now
	if _, err := iss.Validate(tok); !errors.Is(err, ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}
}

func TestValidateRejects(t *testing.T) {
	iss := NewIssuer(testSecret)
	good, err := iss.Issue("org-1", model.RoleOrganizer, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	other, err := NewIssuer("another-secret-0123456").Issue("org-1", model.RoleOrganizer, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	badRole, err := iss.Issue("x", model.Role("admin"), time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tests := map[string]string{
		"empty":         "",
		"garbage":       "not.a.token",
		"wrong secret":  other,
		"tampered":      swapPayload(good, badRole),
		"unknown role":  badRole,
		"missing parts": strings.Split(good, ".")[0],
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := iss.Validate(tok); !errors.Is(err, ErrUnauthorized) {
				t.Fatalf("err = %v, want ErrUnauthorized", err)
			}
		})
	}
}

func TestHasher(t *testing.T) {
	h, err := NewHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	hash, err := h.Hash("s3cret!")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "s3cret!" {
		t.Fatal("hash equals plaintext")
	}
	if !h.Verify(hash, "s3cret!") {
		t.Fatal("Verify rejected the right password")
	}
	if h.Verify(hash, "wrong") {
		t.Fatal("Verify accepted the wrong password")
	}

	again, _ := h.Hash("s3cret!")
	if again == hash {
		t.Fatal("hashes are not salted")
	}
}

// swapPayload returns tok with its claims segment replaced by donor's.
func swapPayload(tok, donor string) string {
	a, b := strings.Split(tok, "."), strings.Split(donor, ".")
	return a[0] + "." + b[1] + "." + a[2]
}
