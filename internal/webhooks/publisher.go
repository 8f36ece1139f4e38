package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"quotehub/internal/store"
)

// Event types emitted by the API server.
const (
	EventQuoteCompleted = "quote.completed"
	EventPolicyBound    = "policy.bound"
	EventClaimSubmitted = "claim.submitted"
)

type Publisher struct {
	Store store.Store
}

func NewPublisher(s store.Store) *Publisher {
	return &Publisher{Store: s}
}

// Emit enqueues one delivery per matching subscription for the tenant and
// event type. Emit never blocks quoting: enqueue failures are dropped.
func (p *Publisher) Emit(ctx context.Context, tenantID, eventType string, data any) {
	subs, err := p.Store.GetSubscriptionsForEvent(ctx, tenantID, eventType)
	if err != nil || len(subs) == 0 {
		return
	}
	payload := map[string]any{
		"id":       fmt.Sprintf("evt_%d", time.Now().UnixNano()),
		"type":     eventType,
		"tenantId": tenantID,
		"ts":       time.Now().UTC().Format(time.RFC3339),
		"data":     data,
	}
	body, _ := json.Marshal(payload)
	for _, s := range subs {
		_, _ = p.Store.EnqueueWebhook(ctx, tenantID, s.ID, eventType, s.URL, s.Secret, body)
	}
}
