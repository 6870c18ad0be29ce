package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/minimalist-todo/api/internal/domain"
	"github.com/minimalist-todo/api/internal/pkg/id"
	"github.com/minimalist-todo/api/internal/pkg/password"
)

type Service interface {
	Signup(ctx context.Context, req domain.SignupRequest) error
	Verify(ctx context.Context, req domain.VerifyRequest) (*domain.User, error)
	Login(ctx context.Context, req domain.LoginRequest) (token string, u *domain.User, err error)
}

type userStore interface {
	CreatePending(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	MarkVerified(ctx context.Context, email string) error
}

type codeIssuer interface {
	Issue(ctx context.Context, email string) (*domain.VerificationCode, error)
	Match(ctx context.Context, email, supplied string) (*domain.VerificationCode, error)
	Invalidate(ctx context.Context, email, codeID string) error
}

type tokenSigner interface {
	Sign(ctx context.Context, u *domain.User) (string, error)
}

type service struct {
	users  userStore
	codes  codeIssuer
	signer tokenSigner
}

type ServiceDeps struct {
	UserRepo userStore
	Codes    codeIssuer
	Signer   tokenSigner
}

func NewService(deps ServiceDeps) Service {
	return &service{
		users:  deps.UserRepo,
		codes:  deps.Codes,
		signer: deps.Signer,
	}
}

// Signup creates a PENDING user with a hashed password and emails a
// verification code. A second signup for an email that is still PENDING
// re-sends a fresh code without touching the stored password; an ACTIVE
// email is a conflict.
func (s *service) Signup(ctx context.Context, req domain.SignupRequest) error {
	email := normalizeEmail(req.Email)
	if len(req.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long: %w", domain.ErrBadRequest)
	}

	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.Status == domain.StatusActive:
		return fmt.Errorf("user already exists and is verified: %w", domain.ErrConflict)
	case err == nil:
		// Still PENDING: re-send a code so the user can finish registration.
		_, err := s.codes.Issue(ctx, email)
		return err
	case !errors.Is(err, domain.ErrNotFound):
		return err
	}

	salt, hash, err := password.Hash(req.Password)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Email:        email,
		Name:         nameFromEmail(email),
		Role:         domain.RoleUser,
		Status:       domain.StatusPending,
		PasswordSalt: salt,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// Uniqueness rests on the store's conditional write: when two signups
	// race, exactly one create succeeds and the other observes the conflict.
	if err := s.users.CreatePending(ctx, u); err != nil {
		return err
	}

	_, err = s.codes.Issue(ctx, email)
	return err
}

// Verify consumes a matching unexpired code and activates the user. The code
// is claimed (conditionally deleted) before the status transition, so two
// requests racing on the same code cannot both pass.
func (s *service) Verify(ctx context.Context, req domain.VerifyRequest) (*domain.User, error) {
	email := normalizeEmail(req.Email)

	rec, err := s.codes.Match(ctx, email, req.Code)
	if err != nil {
		return nil, err
	}
	if err := s.codes.Invalidate(ctx, email, rec.CodeID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("invalid or expired verification code: %w", domain.ErrBadRequest)
		}
		return nil, err
	}

	if err := s.users.MarkVerified(ctx, email); err != nil {
		return nil, err
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Login checks credentials and returns a signed bearer token. Unknown email
// and wrong password produce the identical error so the endpoint cannot be
// used to enumerate registered addresses.
func (s *service) Login(ctx context.Context, req domain.LoginRequest) (string, *domain.User, error) {
	email := normalizeEmail(req.Email)

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, invalidCredentials()
		}
		return "", nil, err
	}
	if u.Status != domain.StatusActive {
		return "", nil, fmt.Errorf("please complete your registration first: %w", domain.ErrUnauthorized)
	}
	if !password.Verify(req.Password, u.PasswordSalt, u.PasswordHash) {
		return "", nil, invalidCredentials()
	}

	token, err := s.signer.Sign(ctx, u)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

func invalidCredentials() error {
	return fmt.Errorf("invalid email or password: %w", domain.ErrUnauthorized)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func nameFromEmail(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
