package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"quotehub/internal/model"
)

// Memory is the in-memory store used when no DATABASE_URL is set.
type Memory struct {
	mu       sync.Mutex
	quotes   map[string]QuoteRecord            // aggregationId -> record
	quoteTen map[string][]string               // tenant -> aggregation ids
	policies map[string]model.PolicyBindResponse // tenant|policyNumber -> policy
	claims   map[string][]model.ClaimResponse  // tenant|policyNumber -> claims
	subs     map[string][]model.Subscription   // tenant -> subscriptions
	// Webhook queue state
	deliveries map[string]*memDelivery // id -> delivery state
}

func NewMemory() *Memory {
	return &Memory{
		quotes:     map[string]QuoteRecord{},
		quoteTen:   map[string][]string{},
		policies:   map[string]model.PolicyBindResponse{},
		claims:     map[string][]model.ClaimResponse{},
		subs:       map[string][]model.Subscription{},
		deliveries: map[string]*memDelivery{},
	}
}

// memDelivery augments WebhookDelivery with scheduling/metrics
type memDelivery struct {
	WebhookDelivery
	NextAttemptAt time.Time
	LastError     string
	ResponseCode  int
	LatencyMs     int
	DeliveredAt   *time.Time
	Dead          bool
}

func (m *Memory) SaveQuotes(ctx context.Context, tenantID string, req model.QuoteRequest, quotes []model.QuoteResponse) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New().String()
	m.quotes[id] = QuoteRecord{
		AggregationID: id,
		TenantID:      tenantID,
		CustomerID:    req.CustomerID,
		ProductType:   req.ProductType,
		State:         req.Applicant.Address.State,
		CreatedAt:     time.Now().UTC(),
		Quotes:        quotes,
	}
	m.quoteTen[tenantID] = append(m.quoteTen[tenantID], id)
	return id, nil
}

func (m *Memory) ListQuotes(ctx context.Context, tenantID, customerID string, limit int) ([]QuoteRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	ids := m.quoteTen[tenantID]
	out := []QuoteRecord{}
	// newest first
	for i := len(ids) - 1; i >= 0 && len(out) < limit; i-- {
		rec := m.quotes[ids[i]]
		if customerID != "" && rec.CustomerID != customerID {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (m *Memory) SavePolicy(ctx context.Context, tenantID string, resp model.PolicyBindResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.policies[tenantID+"|"+resp.PolicyNumber] = resp
	return nil
}

func (m *Memory) GetPolicy(ctx context.Context, tenantID, policyNumber string) (model.PolicyBindResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.policies[tenantID+"|"+policyNumber]
	if !ok {
		return model.PolicyBindResponse{}, ErrNotFound
	}
	return p, nil
}

func (m *Memory) SaveClaim(ctx context.Context, tenantID string, resp model.ClaimResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := tenantID + "|" + resp.PolicyNumber
	m.claims[k] = append(m.claims[k], resp)
	return nil
}

func (m *Memory) ListClaims(ctx context.Context, tenantID, policyNumber string) ([]model.ClaimResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.ClaimResponse{}
	out = append(out, m.claims[tenantID+"|"+policyNumber]...)
	return out, nil
}

func (m *Memory) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub := model.Subscription{
		ID:       uuid.New().String(),
		TenantID: req.TenantID,
		URL:      req.URL,
		Events:   req.Events,
		Secret:   req.Secret,
	}
	m.subs[req.TenantID] = append(m.subs[req.TenantID], sub)
	return sub, nil
}

func (m *Memory) GetSubscriptionsForEvent(ctx context.Context, tenantID, eventType string) ([]model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Subscription{}
	for _, s := range m.subs[tenantID] {
		for _, e := range s.Events {
			if e == eventType || e == "*" {
				out = append(out, s)
				break
			}
		}
	}
	return out, nil
}

func (m *Memory) ListSubscriptions(ctx context.Context, tenantID string, limit int) ([]model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	subs := m.subs[tenantID]
	if len(subs) > limit {
		subs = subs[:limit]
	}
	out := make([]model.Subscription, len(subs))
	copy(out, subs)
	return out, nil
}

func (m *Memory) DeleteSubscription(ctx context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	subs := m.subs[tenantID]
	for i, s := range subs {
		if s.ID == id {
			m.subs[tenantID] = append(subs[:i], subs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) EnqueueWebhook(ctx context.Context, tenantID, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New().String()
	m.deliveries[id] = &memDelivery{
		WebhookDelivery: WebhookDelivery{
			ID:             id,
			TenantID:       tenantID,
			SubscriptionID: subscriptionID,
			EventType:      eventType,
			URL:            url,
			Secret:         secret,
			Payload:        payload,
		},
		NextAttemptAt: time.Now(),
	}
	return id, nil
}

func (m *Memory) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	out := []WebhookDelivery{}
	for _, d := range m.deliveries {
		if d.Dead || d.DeliveredAt != nil || d.NextAttemptAt.After(now) {
			continue
		}
		out = append(out, d.WebhookDelivery)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deliveries[id]
	if !ok {
		return ErrNotFound
	}
	d.Attempts++
	d.LastError = lastError
	d.ResponseCode = responseCode
	d.LatencyMs = latencyMs
	if success {
		now := time.Now()
		d.DeliveredAt = &now
	} else if nextAttemptAt != nil {
		d.NextAttemptAt = *nextAttemptAt
	}
	return nil
}

func (m *Memory) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deliveries[id]
	if !ok {
		return ErrNotFound
	}
	d.Attempts++
	d.LastError = lastError
	d.ResponseCode = responseCode
	d.LatencyMs = latencyMs
	d.Dead = true
	return nil
}
