package http

import (
	"context"

	"github.com/minimalist-todo/api/internal/infrastructure/dynamo"
	jwtinfra "github.com/minimalist-todo/api/internal/infrastructure/jwt"
	s3infra "github.com/minimalist-todo/api/internal/infrastructure/s3"
)

// Mailer delivers verification emails. Satisfied by the SES and SMTP
// implementations.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo         *dynamo.UserRepo
	VerificationRepo *dynamo.VerificationRepo
	TodoRepo         *dynamo.TodoRepo
	S3Store          *s3infra.Store
	Mailer           Mailer
	JWTProvider      *jwtinfra.Provider
}
