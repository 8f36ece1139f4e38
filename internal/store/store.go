package store

import (
	"context"
	"errors"
	"time"

	"quotehub/internal/model"
)

var ErrNotFound = errors.New("not found")

// QuoteRecord is one persisted aggregation result: the request identity plus
// every quote returned to the caller.
type QuoteRecord struct {
	AggregationID string                `json:"aggregationId"`
	TenantID      string                `json:"tenantId"`
	CustomerID    string                `json:"customerId"`
	ProductType   string                `json:"productType"`
	State         string                `json:"state"`
	CreatedAt     time.Time             `json:"createdAt"`
	Quotes        []model.QuoteResponse `json:"quotes"`
}

// WebhookDelivery is one queued notification attempt.
type WebhookDelivery struct {
	ID             string
	TenantID       string
	SubscriptionID string
	EventType      string
	URL            string
	Secret         string
	Payload        []byte
	Attempts       int
}

// Store is the audit/persistence interface used by the API server. It records
// outcomes; nothing here participates in quoting decisions.
type Store interface {
	// Quote audit
	SaveQuotes(ctx context.Context, tenantID string, req model.QuoteRequest, quotes []model.QuoteResponse) (aggregationID string, err error)
	ListQuotes(ctx context.Context, tenantID, customerID string, limit int) ([]QuoteRecord, error)

	// Policies
	SavePolicy(ctx context.Context, tenantID string, resp model.PolicyBindResponse) error
	GetPolicy(ctx context.Context, tenantID, policyNumber string) (model.PolicyBindResponse, error)

	// Claims
	SaveClaim(ctx context.Context, tenantID string, resp model.ClaimResponse) error
	ListClaims(ctx context.Context, tenantID, policyNumber string) ([]model.ClaimResponse, error)

	// Subscriptions
	CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error)
	GetSubscriptionsForEvent(ctx context.Context, tenantID, eventType string) ([]model.Subscription, error)
	ListSubscriptions(ctx context.Context, tenantID string, limit int) ([]model.Subscription, error)
	DeleteSubscription(ctx context.Context, tenantID, id string) error

	// Webhook deliveries
	EnqueueWebhook(ctx context.Context, tenantID, subscriptionID, eventType, url, secret string, payload []byte) (string, error)
	FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error)
	MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error
	FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error
}
