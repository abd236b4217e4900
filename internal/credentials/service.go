package credentials

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks CacheStore,Provider,Reporter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"carebridge/internal/integrations"
	"carebridge/pkg/platform/sentinel"
)

// CacheStore is a get/set-with-TTL cache; a hit is by definition unexpired.
type CacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Provider resolves credential material on a cache miss. It is selected once
// at startup (fixed-local, debug token exchange, or secret manager). A nil
// Config with nil error means the integration has no credentials configured.
type Provider interface {
	Resolve(ctx context.Context, integration integrations.Integration) (*Config, error)
}

// Reporter captures missing-credentials diagnostics.
type Reporter interface {
	CaptureEvent(ctx context.Context, message string, extra map[string]any)
}

// Service produces the configuration a vendor API client needs, using a
// short-lived cache to avoid repeated secret-store round-trips.
//
// Resolution failures are non-fatal here: GetConfig returns (nil, nil) and
// the calling vendor client decides whether a missing config is fatal for its
// operation. No retry happens at this layer.
type Service struct {
	cache    CacheStore
	provider Provider
	reporter Reporter
	logger   *slog.Logger
	ttl      time.Duration
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithReporter(reporter Reporter) Option {
	return func(s *Service) {
		s.reporter = reporter
	}
}

// WithTTL overrides how long resolved credentials stay cached.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// New constructs a Service with the production default TTL of 300s.
func New(cache CacheStore, provider Provider, opts ...Option) *Service {
	s := &Service{
		cache:    cache,
		provider: provider,
		logger:   slog.Default(),
		ttl:      300 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetConfig returns the integration's connection configuration. Cache hit:
// parse and return. Miss: resolve through the provider, cache the result
// under the TTL, return it. A nil result means the caller cannot proceed with
// this integration.
func (s *Service) GetConfig(ctx context.Context, integration integrations.Integration) (*Config, error) {
	key := CacheKey(integration.ID)

	cached, err := s.cache.Get(ctx, key)
	if err == nil {
		var cfg Config
		if err := json.Unmarshal([]byte(cached), &cfg); err == nil {
			return &cfg, nil
		}
		s.logger.WarnContext(ctx, "cached credentials unparsable, re-resolving",
			"integration_id", integration.ID)
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		// A cache outage should not block resolution.
		s.logger.ErrorContext(ctx, "credentials cache read failed",
			"integration_id", integration.ID, "error", err)
	}

	cfg, err := s.provider.Resolve(ctx, integration)
	if err != nil {
		s.logger.ErrorContext(ctx, "credentials resolution failed",
			"integration_id", integration.ID, "environment", integration.Environment,
			"error", err)
		return nil, nil
	}
	if cfg == nil {
		if s.reporter != nil {
			s.reporter.CaptureEvent(ctx, "integration credentials missing", map[string]any{
				"integration_id": integration.ID,
				"environment":    integration.Environment,
			})
		}
		return nil, nil
	}

	serialized, err := json.Marshal(cfg)
	if err != nil {
		s.logger.ErrorContext(ctx, "serialize credentials failed",
			"integration_id", integration.ID, "error", err)
		return cfg, nil
	}
	if err := s.cache.Set(ctx, key, string(serialized), s.ttl); err != nil {
		s.logger.ErrorContext(ctx, "credentials cache write failed",
			"integration_id", integration.ID, "error", err)
	}
	return cfg, nil
}

// SetIntegrationCredentials unconditionally stores a serialized credential
// payload under the integration's cache key with the configured TTL.
func (s *Service) SetIntegrationCredentials(ctx context.Context, integration integrations.Integration, serialized string) error {
	return s.cache.Set(ctx, CacheKey(integration.ID), serialized, s.ttl)
}

// GetIntegrationCredentials reads the raw cached payload. Returns ("", nil)
// when nothing is cached.
func (s *Service) GetIntegrationCredentials(ctx context.Context, integration integrations.Integration) (string, error) {
	value, err := s.cache.Get(ctx, CacheKey(integration.ID))
	if errors.Is(err, sentinel.ErrNotFound) {
		return "", nil
	}
	return value, err
}
