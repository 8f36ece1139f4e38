package api

import (
	"context"
	"os"
	"strings"

	"quotehub/internal/auth"
	"quotehub/internal/cache"
	"quotehub/internal/carrier"
	"quotehub/internal/config"
	"quotehub/internal/metrics"
	"quotehub/internal/registry"
	"quotehub/internal/store"
	"quotehub/internal/webhooks"
)

type Server struct {
	Service *carrier.Service
	Store   store.Store
	Pub     *webhooks.Publisher
	Auth    *auth.Verifier
	Broker  EventBroker
}

// NewServer wires the quoting service and its persistence. With no
// DATABASE_URL the audit store is in-memory; with no REDIS_URL the response
// cache and event broker are in-process.
func NewServer() (*Server, error) {
	cfg, err := config.Load(os.Getenv("CARRIERS_CONFIG"))
	if err != nil {
		return nil, err
	}
	reg := registry.New(cfg.Carriers)

	var c cache.Cache
	if os.Getenv("REDIS_URL") != "" {
		if rc, err := cache.NewRedis(os.Getenv("REDIS_URL"), cache.DefaultTTL); err == nil {
			c = rc
		}
	}
	if c == nil {
		c = cache.NewMemory(cache.DefaultTTL)
	}
	svc := carrier.NewService(reg, carrier.NewClient(cfg.API), c)

	var s store.Store
	dsn := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(dsn) == "" {
		s = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(dsn)
		if err != nil {
			return nil, err
		}
		// Run migrations (dev helper)
		if os.Getenv("DB_MIGRATE") != "false" {
			if err := sp.Migrate(context.Background()); err != nil {
				return nil, err
			}
		}
		s = sp
	}

	var broker EventBroker
	if os.Getenv("REDIS_URL") != "" {
		if rb, err := NewRedisBroker(); err == nil {
			broker = rb
		}
	}
	if broker == nil {
		broker = NewBroker()
	}

	metrics.RegisterDefault()
	return &Server{
		Service: svc,
		Store:   s,
		Pub:     webhooks.NewPublisher(s),
		Auth:    auth.NewVerifierFromEnv(),
		Broker:  broker,
	}, nil
}

// NewWebhookWorker creates a background worker for webhook deliveries.
func (s *Server) NewWebhookWorker() *webhooks.Worker {
	return webhooks.NewWorker(s.Store)
}
