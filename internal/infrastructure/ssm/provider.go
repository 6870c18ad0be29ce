package ssminfra

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/minimalist-todo/api/internal/config"
)

// devFallbackSecret is returned when the Parameter Store fetch fails outside
// production. It exists so local stacks work without SSM; it is a known
// weakness and is never used when APP_ENV=production.
const devFallbackSecret = "dev-fallback-secret-key-not-for-production"

// Provider fetches the JWT signing secret from SSM Parameter Store and caches
// it in memory for the life of the process. The cache starts cold on every
// invocation; callers must tolerate the first call being a network fetch.
type Provider struct {
	client        *ssm.Client
	parameterName string
	allowFallback bool

	mu     sync.Mutex
	cached string
}

func NewProvider(cfg *config.Config) *Provider {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		panic("failed to load AWS config for SSM: " + err.Error())
	}

	clientOpts := []func(*ssm.Options){}
	if cfg.AWSEndpointURL != "" {
		clientOpts = append(clientOpts, func(o *ssm.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		})
	}

	return &Provider{
		client:        ssm.NewFromConfig(awsCfg, clientOpts...),
		parameterName: cfg.JWTSecretParameterName,
		allowFallback: !cfg.IsProduction(),
	}
}

// JWTSecret returns the signing secret, fetching it with decryption on first
// use and serving the cached value afterwards.
func (p *Provider) JWTSecret(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cached != "" {
		return p.cached, nil
	}

	out, err := p.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(p.parameterName),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		if p.allowFallback {
			slog.Warn("could not fetch JWT secret, using dev fallback", "parameter", p.parameterName, "err", err)
			return devFallbackSecret, nil
		}
		return "", fmt.Errorf("retrieve jwt secret: %w", err)
	}

	p.cached = aws.ToString(out.Parameter.Value)
	return p.cached, nil
}
