package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/minimalist-todo/api/internal/domain"
	jwtinfra "github.com/minimalist-todo/api/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory fakes that reproduce the store's conditional-write semantics,
// used to exercise the full signup → verify → login flow.

type fakeUserStore struct {
	users map[string]*domain.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*domain.User)}
}

func (s *fakeUserStore) CreatePending(_ context.Context, u *domain.User) error {
	if _, ok := s.users[u.Email]; ok {
		return fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	cp := *u
	s.users[u.Email] = &cp
	return nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	u, ok := s.users[email]
	if !ok {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) MarkVerified(_ context.Context, email string) error {
	u, ok := s.users[email]
	if !ok {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	u.Status = domain.StatusActive
	u.UpdatedAt = time.Now().UTC()
	return nil
}

type fakeVerificationStore struct {
	codes map[string]domain.VerificationCode // key: codeID
}

func newFakeVerificationStore() *fakeVerificationStore {
	return &fakeVerificationStore{codes: make(map[string]domain.VerificationCode)}
}

func (s *fakeVerificationStore) Put(_ context.Context, v *domain.VerificationCode) error {
	s.codes[v.CodeID] = *v
	return nil
}

func (s *fakeVerificationStore) ListByEmail(_ context.Context, email string, limit int32) ([]domain.VerificationCode, error) {
	var out []domain.VerificationCode
	for _, v := range s.codes {
		if v.Email == email && int32(len(out)) < limit {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *fakeVerificationStore) Delete(_ context.Context, _, codeID string) error {
	if _, ok := s.codes[codeID]; !ok {
		return fmt.Errorf("verification code already consumed: %w", domain.ErrNotFound)
	}
	delete(s.codes, codeID)
	return nil
}

// captureMailer records the last email body so tests can extract the code.
type captureMailer struct {
	lastTo   string
	lastBody string
	sent     int
}

func (m *captureMailer) SendEmail(_ context.Context, to, _, body string) error {
	m.lastTo = to
	m.lastBody = body
	m.sent++
	return nil
}

type fixedSecret string

func (s fixedSecret) JWTSecret(context.Context) (string, error) { return string(s), nil }

func newFlowService(t *testing.T) (Service, *fakeVerificationStore, *captureMailer, *jwtinfra.Provider) {
	t.Helper()
	users := newFakeUserStore()
	codes := newFakeVerificationStore()
	mail := &captureMailer{}
	provider := jwtinfra.NewProvider(fixedSecret("flow-test-secret"), time.Hour)
	svc := NewService(ServiceDeps{
		UserRepo: users,
		Codes:    NewCodeIssuer(codes, mail),
		Signer:   provider,
	})
	return svc, codes, mail, provider
}

func sentCode(t *testing.T, codes *fakeVerificationStore, mail *captureMailer) string {
	t.Helper()
	for _, v := range codes.codes {
		if v.Email == mail.lastTo {
			return v.Code
		}
	}
	t.Fatal("no stored code for last recipient")
	return ""
}

func TestFlow_SignupVerifyLogin(t *testing.T) {
	svc, codes, mail, provider := newFlowService(t)
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, domain.SignupRequest{Email: "a@example.com", Password: "longpass1"}))
	assert.Equal(t, 1, mail.sent)
	assert.Contains(t, mail.lastBody, "verification code")

	code := sentCode(t, codes, mail)
	u, err := svc.Verify(ctx, domain.VerifyRequest{Email: "a@example.com", Code: code})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, u.Status)

	token, logged, err := svc.Login(ctx, domain.LoginRequest{Email: "a@example.com", Password: "longpass1"})
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", logged.Email)

	claims, err := provider.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, logged.UserID, claims.Subject)
}

func TestFlow_WrongCodeKeepsUserPending(t *testing.T) {
	svc, codes, mail, _ := newFlowService(t)
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, domain.SignupRequest{Email: "a@example.com", Password: "longpass1"}))
	actual := sentCode(t, codes, mail)
	wrong := "000000"
	if actual == wrong {
		wrong = "000001"
	}
	_, err := svc.Verify(ctx, domain.VerifyRequest{Email: "a@example.com", Code: wrong})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))

	// Login still blocked: user never activated.
	_, _, err = svc.Login(ctx, domain.LoginRequest{Email: "a@example.com", Password: "longpass1"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "complete your registration")
}

func TestFlow_CodeIsSingleUse(t *testing.T) {
	svc, codes, mail, _ := newFlowService(t)
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, domain.SignupRequest{Email: "a@example.com", Password: "longpass1"}))
	code := sentCode(t, codes, mail)

	_, err := svc.Verify(ctx, domain.VerifyRequest{Email: "a@example.com", Code: code})
	require.NoError(t, err)

	// Second use of the same code must fail.
	_, err = svc.Verify(ctx, domain.VerifyRequest{Email: "a@example.com", Code: code})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestFlow_ResignupWhilePendingResendsCode(t *testing.T) {
	svc, codes, mail, _ := newFlowService(t)
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, domain.SignupRequest{Email: "a@example.com", Password: "longpass1"}))
	require.NoError(t, svc.Signup(ctx, domain.SignupRequest{Email: "a@example.com", Password: "otherpass2"}))
	assert.Equal(t, 2, mail.sent)
	assert.Len(t, codes.codes, 2)

	// The first password still wins: re-signup never rewrites credentials.
	code := sentCode(t, codes, mail)
	_, err := svc.Verify(ctx, domain.VerifyRequest{Email: "a@example.com", Code: code})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, domain.LoginRequest{Email: "a@example.com", Password: "longpass1"})
	require.NoError(t, err)
	_, _, err = svc.Login(ctx, domain.LoginRequest{Email: "a@example.com", Password: "otherpass2"})
	require.Error(t, err)
}

func TestFlow_SignupAfterActiveConflicts(t *testing.T) {
	svc, codes, mail, _ := newFlowService(t)
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, domain.SignupRequest{Email: "a@example.com", Password: "longpass1"}))
	code := sentCode(t, codes, mail)
	_, err := svc.Verify(ctx, domain.VerifyRequest{Email: "a@example.com", Code: code})
	require.NoError(t, err)

	err = svc.Signup(ctx, domain.SignupRequest{Email: "a@example.com", Password: "longpass1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}
