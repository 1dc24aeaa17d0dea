package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/auth"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/repository"
)

// TokenTTLs holds the lifetimes of issued bearer tokens.
type TokenTTLs struct {
	// Default applies to registration and attendee login.
	Default time.Duration
	// OrganizerLogin applies to tokens returned by organizer login.
	OrganizerLogin time.Duration
}

// AccountService handles sign-up, login and profile management for both
// account kinds.
type AccountService struct {
	accounts AccountStore
	events   EventStore
	issuer   *auth.Issuer
	hasher   *auth.Hasher
	images   ImageStore
	ttl      TokenTTLs
	log      *slog.Logger
}

// NewAccountService constructs an AccountService.
func NewAccountService(
	accounts AccountStore,
	events EventStore,
	issuer *auth.Issuer,
	hasher *auth.Hasher,
	images ImageStore,
	ttl TokenTTLs,
	log *slog.Logger,
) *AccountService {
	return &AccountService{
		accounts: accounts,
		events:   events,
		issuer:   issuer,
		hasher:   hasher,
		images:   images,
		ttl:      ttl,
		log:      log,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ─── Organizers ───────────────────────────────────────────────────────────────

// RegisterOrganizer creates an organizer account and signs it in.
func (s *AccountService) RegisterOrganizer(ctx context.Context, req model.RegisterOrganizerRequest) (*model.AuthResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	o := &model.Organizer{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		OrgName:      strings.TrimSpace(req.OrgName),
		Bio:          strings.TrimSpace(req.Bio),
	}
	if err := s.accounts.CreateOrganizer(ctx, o); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create organizer: %w", err)
	}
	return s.signIn(o.ID, model.RoleOrganizer, s.ttl.Default, o)
}

// LoginOrganizer checks credentials and returns a short-lived organizer token.
func (s *AccountService) LoginOrganizer(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	o, err := s.accounts.FindOrganizerByEmail(ctx, req.Email)
	if err != nil {
		return nil, s.loginFailure(err, req.Password)
	}
	if !s.hasher.Verify(o.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}
	return s.signIn(o.ID, model.RoleOrganizer, s.ttl.OrganizerLogin, o)
}

// OrganizerProfile returns the calling organizer's account.
func (s *AccountService) OrganizerProfile(ctx context.Context, token string) (*model.Organizer, error) {
	p, err := authorize(s.issuer, token, model.RoleOrganizer)
	if err != nil {
		return nil, err
	}
	return s.organizer(ctx, p.ID)
}

// Dashboard returns the calling organizer together with the events they own.
func (s *AccountService) Dashboard(ctx context.Context, token string) (*model.Dashboard, error) {
	p, err := authorize(s.issuer, token, model.RoleOrganizer)
	if err != nil {
		return nil, err
	}
	o, err := s.organizer(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	events, err := s.events.ListEventsByOrganizer(ctx, o.ID)
	if err != nil {
		return nil, fmt.Errorf("list organizer events: %w", err)
	}
	if events == nil {
		events = []model.Event{}
	}
	return &model.Dashboard{Organizer: o, Events: events}, nil
}

// UpdateOrganizerProfile applies the provided fields and, when logo is
// non-nil, replaces the organizer's logo. The previous logo is deleted
// best-effort.
func (s *AccountService) UpdateOrganizerProfile(ctx context.Context, token string, req model.UpdateOrganizerRequest, logo *model.Upload) (*model.Organizer, error) {
	p, err := authorize(s.issuer, token, model.RoleOrganizer)
	if err != nil {
		return nil, err
	}
	trimPtr(req.Name, req.OrgName, req.Bio, req.Twitter, req.Instagram)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	current, err := s.organizer(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	patch := model.OrganizerPatch{
		Name:      req.Name,
		OrgName:   req.OrgName,
		Bio:       req.Bio,
		Twitter:   req.Twitter,
		Instagram: req.Instagram,
	}
	if logo != nil {
		path, err := saveImage(ctx, s.images, "logo", *logo)
		if err != nil {
			return nil, err
		}
		patch.Logo = &path
	}

	updated, err := s.accounts.UpdateOrganizer(ctx, p.ID, patch)
	if err != nil {
		if patch.Logo != nil {
			discardImage(ctx, s.images, s.log, *patch.Logo)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update organizer: %w", err)
	}

	if patch.Logo != nil && current.Logo != nil && *current.Logo != *patch.Logo {
		discardImage(ctx, s.images, s.log, *current.Logo)
	}
	return updated, nil
}

func (s *AccountService) organizer(ctx context.Context, id string) (*model.Organizer, error) {
	o, err := s.accounts.GetOrganizer(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("get organizer: %w", err)
	}
	return o, nil
}

// ─── Attendees ────────────────────────────────────────────────────────────────

// RegisterAttendee creates an attendee account and signs it in.
func (s *AccountService) RegisterAttendee(ctx context.Context, req model.RegisterAttendeeRequest) (*model.AuthResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	a := &model.Attendee{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Phone:        req.Phone,
		Preferences:  model.DefaultPreferences(),
	}
	if err := s.accounts.CreateAttendee(ctx, a); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create attendee: %w", err)
	}
	return s.signIn(a.ID, model.RoleAttendee, s.ttl.Default, a)
}

// LoginAttendee checks credentials and returns an attendee token.
func (s *AccountService) LoginAttendee(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	a, err := s.accounts.FindAttendeeByEmail(ctx, req.Email)
	if err != nil {
		return nil, s.loginFailure(err, req.Password)
	}
	if !s.hasher.Verify(a.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}
	return s.signIn(a.ID, model.RoleAttendee, s.ttl.Default, a)
}

// AttendeeProfile returns the calling attendee with a summary of every event
// they registered for. Registrations whose event no longer exists are omitted.
func (s *AccountService) AttendeeProfile(ctx context.Context, token string) (*model.AttendeeProfile, error) {
	p, err := authorize(s.issuer, token, model.RoleAttendee)
	if err != nil {
		return nil, err
	}
	a, err := s.attendee(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	profile := &model.AttendeeProfile{
		ID:               a.ID,
		Name:             a.Name,
		Email:            a.Email,
		Phone:            a.Phone,
		Preferences:      a.Preferences,
		RegisteredEvents: make([]model.RegisteredEvent, 0, len(a.Registrations)),
	}
	for _, reg := range a.Registrations {
		ev, err := s.events.GetEvent(ctx, reg.EventID)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load registered event: %w", err)
		}
		profile.RegisteredEvents = append(profile.RegisteredEvents, model.RegisteredEvent{
			Registration: reg,
			Event:        ev.Summary(),
		})
	}
	return profile, nil
}

// UpdateAttendeeProfile applies the provided fields. Provided categories
// replace the stored list; notification flags are merged one by one.
func (s *AccountService) UpdateAttendeeProfile(ctx context.Context, token string, req model.UpdateAttendeeRequest) (*model.Attendee, error) {
	p, err := authorize(s.issuer, token, model.RoleAttendee)
	if err != nil {
		return nil, err
	}
	trimPtr(req.Name, req.Phone)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	patch := model.AttendeePatch{Name: req.Name, Phone: req.Phone}
	if req.Preferences != nil {
		current, err := s.attendee(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		prefs := mergePreferences(current.Preferences, *req.Preferences)
		patch.Preferences = &prefs
	}

	updated, err := s.accounts.UpdateAttendee(ctx, p.ID, patch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update attendee: %w", err)
	}
	return updated, nil
}

func mergePreferences(cur model.Preferences, in model.PreferencesPatch) model.Preferences {
	out := model.Preferences{
		Categories:    slices.Clone(cur.Categories),
		Notifications: cur.Notifications,
	}
	if in.Categories != nil {
		out.Categories = make([]string, 0, len(in.Categories))
		for _, c := range in.Categories {
			c = strings.TrimSpace(c)
			if c != "" && !slices.Contains(out.Categories, c) {
				out.Categories = append(out.Categories, c)
			}
		}
	}
	if n := in.Notifications; n != nil {
		if n.Email != nil {
			out.Notifications.Email = *n.Email
		}
		if n.SMS != nil {
			out.Notifications.SMS = *n.SMS
		}
	}
	if out.Categories == nil {
		out.Categories = []string{}
	}
	return out
}

func (s *AccountService) attendee(ctx context.Context, id string) (*model.Attendee, error) {
	a, err := s.accounts.GetAttendee(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("get attendee: %w", err)
	}
	return a, nil
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func (s *AccountService) signIn(id string, role model.Role, ttl time.Duration, account any) (*model.AuthResponse, error) {
	token, err := s.issuer.Issue(id, role, ttl)
	if err != nil {
		return nil, err
	}
	return &model.AuthResponse{Token: token, Account: account}, nil
}

// loginFailure maps a failed account lookup. Unknown emails still pay for a
// bcrypt comparison.
func (s *AccountService) loginFailure(err error, password string) error {
	if errors.Is(err, repository.ErrNotFound) {
		s.hasher.VerifyMissing(password)
		return ErrInvalidCredentials
	}
	return fmt.Errorf("find account: %w", err)
}

func trimPtr(ptrs ...*string) {
	for _, p := range ptrs {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
}
