package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/quiltfolk/quiltfolk/internal/platform/httpx"
	"github.com/quiltfolk/quiltfolk/internal/shared"
	"github.com/quiltfolk/quiltfolk/internal/subscription"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// RegisterInput carries the registration form fields. Status defaults
// to quilter when omitted.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	Status    string
}

// Register creates a new account with a fresh trial window and returns
// the stored user.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", httpx.ErrValidation)
	}
	if in.FirstName == "" {
		return nil, fmt.Errorf("%w: first name is required", httpx.ErrValidation)
	}
	if len(in.Password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", httpx.ErrValidation, MinPasswordLength)
	}
	status := in.Status
	if status == "" {
		status = StatusQuilter
	}
	if status != StatusQuilter && status != StatusDesigner {
		return nil, fmt.Errorf("%w: status must be quilter or designer", httpx.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	trialEndsAt := now.Add(subscription.TrialPeriod)
	user := &User{
		ID:                 uuid.NewString(),
		Email:              email,
		PasswordHash:       string(hash),
		FirstName:          in.FirstName,
		DisplayName:        in.FirstName,
		Status:             status,
		SubscriptionStatus: subscription.StatusTrial,
		TrialEndsAt:        &trialEndsAt,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate validates email/password credentials. Unknown email and
// wrong password return the same error so callers cannot probe for
// account existence.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// UserByID resolves the account behind an authenticated session.
// shared.ErrNotFound here means the session outlived the account.
func (s *Service) UserByID(ctx context.Context, id string) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id, userID string, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}

// TouchLastLogin records a sign-in timestamp. Failures are the caller's
// to log; the login itself must not depend on this write.
func (s *Service) TouchLastLogin(ctx context.Context, userID string) error {
	return s.repo.TouchLastLogin(ctx, userID, s.now())
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
