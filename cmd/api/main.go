package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/minimalist-todo/api/internal/config"
	"github.com/minimalist-todo/api/internal/infrastructure/dynamo"
	jwtinfra "github.com/minimalist-todo/api/internal/infrastructure/jwt"
	s3infra "github.com/minimalist-todo/api/internal/infrastructure/s3"
	"github.com/minimalist-todo/api/internal/infrastructure/ses"
	"github.com/minimalist-todo/api/internal/infrastructure/smtp"
	ssminfra "github.com/minimalist-todo/api/internal/infrastructure/ssm"
	transporthttp "github.com/minimalist-todo/api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap the DynamoDB table (created if it doesn't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.TableName)

	// JWT signing secret comes from SSM, with a dev fallback outside production.
	secrets := ssminfra.NewProvider(cfg)
	jwtProvider := jwtinfra.NewProvider(secrets, time.Duration(cfg.JWTExpiryHours)*time.Hour)

	// S3 store for todo attachments.
	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	// Verification emails go through SES in production, plain SMTP elsewhere.
	var mailer transporthttp.Mailer
	if cfg.IsProduction() {
		mailer = ses.NewMailer(cfg)
	} else {
		mailer = smtp.NewMailer(cfg)
	}

	deps := &transporthttp.Deps{
		UserRepo:         dynamo.NewUserRepo(dynamoClient, cfg.TableName),
		VerificationRepo: dynamo.NewVerificationRepo(dynamoClient, cfg.TableName),
		TodoRepo:         dynamo.NewTodoRepo(dynamoClient, cfg.TableName),
		S3Store:          s3Store,
		Mailer:           mailer,
		JWTProvider:      jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
