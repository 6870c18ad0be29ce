package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/minimalist-todo/api/internal/domain"
	"github.com/minimalist-todo/api/internal/pkg/id"
)

const (
	codeTTL = 10 * time.Minute

	// Matching scans the newest candidates only; anything older than the
	// last few issuances is treated as expired regardless of its TTL.
	maxCodeCandidates = 5
)

type verificationStore interface {
	Put(ctx context.Context, v *domain.VerificationCode) error
	ListByEmail(ctx context.Context, email string, limit int32) ([]domain.VerificationCode, error)
	Delete(ctx context.Context, email, codeID string) error
}

type mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// CodeIssuer issues, matches and invalidates one-time email verification
// codes. Issuing never invalidates earlier codes, so several can be
// outstanding for one email at a time.
type CodeIssuer struct {
	codes  verificationStore
	mailer mailer
}

func NewCodeIssuer(codes verificationStore, mailer mailer) *CodeIssuer {
	return &CodeIssuer{codes: codes, mailer: mailer}
}

// Issue generates a fresh 6-digit code, persists it with a 10-minute expiry
// and emails it to the user. There is no compensation when the email send
// fails after the code is stored; the caller surfaces the error and the user
// can trigger a re-send by signing up again.
func (i *CodeIssuer) Issue(ctx context.Context, email string) (*domain.VerificationCode, error) {
	code, err := generateCode()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	v := &domain.VerificationCode{
		CodeID:    id.New(),
		Email:     email,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(codeTTL).Unix(),
	}
	if err := i.codes.Put(ctx, v); err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("Your verification code is:\n\n%s", code)
	if err := i.mailer.SendEmail(ctx, email, "Your verification code", msg); err != nil {
		return nil, fmt.Errorf("send verification email: %w", err)
	}
	return v, nil
}

// Match returns the first unexpired candidate whose code equals supplied,
// scanning newest first. Expiry is checked explicitly here even though the
// store reaps expired items, since TTL deletion is not instantaneous.
func (i *CodeIssuer) Match(ctx context.Context, email, supplied string) (*domain.VerificationCode, error) {
	candidates, err := i.codes.ListByEmail(ctx, email, maxCodeCandidates)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for idx := range candidates {
		c := &candidates[idx]
		if c.Code == supplied && !c.Expired(now) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("invalid or expired verification code: %w", domain.ErrBadRequest)
}

// Invalidate consumes a matched code. The store's conditional delete makes
// consumption exclusive; a raced-out caller gets domain.ErrNotFound.
func (i *CodeIssuer) Invalidate(ctx context.Context, email, codeID string) error {
	return i.codes.Delete(ctx, email, codeID)
}

// generateCode draws a uniformly random 6-digit decimal string from
// crypto/rand, preserving leading zeros.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
