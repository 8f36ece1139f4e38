package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"quotehub/internal/model"
)

// Postgres persists audit records when DATABASE_URL is set. Quote payloads
// are stored as JSONB; the relational columns exist only for lookups.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

// Migrate creates the audit tables if they do not exist (dev helper).
func (p *Postgres) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS quote_aggregations (
			id UUID PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			customer_id TEXT NOT NULL,
			product_type TEXT NOT NULL,
			state TEXT NOT NULL,
			quotes JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quote_agg_tenant ON quote_aggregations (tenant_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS policies (
			tenant_id TEXT NOT NULL,
			policy_number TEXT NOT NULL,
			carrier_id TEXT NOT NULL,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (tenant_id, policy_number)
		)`,
		`CREATE TABLE IF NOT EXISTS claims (
			id UUID PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			policy_number TEXT NOT NULL,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS subscriptions (
			id UUID PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			url TEXT NOT NULL,
			events JSONB NOT NULL,
			secret TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS webhook_deliveries (
			id UUID PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			subscription_id TEXT NOT NULL DEFAULT '',
			event_type TEXT NOT NULL,
			url TEXT NOT NULL,
			secret TEXT NOT NULL DEFAULT '',
			payload JSONB NOT NULL,
			attempts INT NOT NULL DEFAULT 0,
			next_attempt_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			delivered_at TIMESTAMPTZ,
			dead BOOLEAN NOT NULL DEFAULT false,
			last_error TEXT NOT NULL DEFAULT '',
			response_code INT NOT NULL DEFAULT 0,
			latency_ms INT NOT NULL DEFAULT 0
		)`,
	}
	for _, s := range stmts {
		if _, err := p.db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (p *Postgres) SaveQuotes(ctx context.Context, tenantID string, req model.QuoteRequest, quotes []model.QuoteResponse) (string, error) {
	id := uuid.New().String()
	data, err := json.Marshal(quotes)
	if err != nil {
		return "", err
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO quote_aggregations (id, tenant_id, customer_id, product_type, state, quotes) VALUES ($1,$2,$3,$4,$5,$6)`,
		id, tenantID, req.CustomerID, req.ProductType, req.Applicant.Address.State, data)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (p *Postgres) ListQuotes(ctx context.Context, tenantID, customerID string, limit int) ([]QuoteRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows *sql.Rows
	var err error
	if customerID != "" {
		rows, err = p.db.QueryContext(ctx,
			`SELECT id::text, customer_id, product_type, state, quotes, created_at FROM quote_aggregations WHERE tenant_id=$1 AND customer_id=$2 ORDER BY created_at DESC LIMIT $3`,
			tenantID, customerID, limit)
	} else {
		rows, err = p.db.QueryContext(ctx,
			`SELECT id::text, customer_id, product_type, state, quotes, created_at FROM quote_aggregations WHERE tenant_id=$1 ORDER BY created_at DESC LIMIT $2`,
			tenantID, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []QuoteRecord{}
	for rows.Next() {
		rec := QuoteRecord{TenantID: tenantID}
		var data []byte
		if err := rows.Scan(&rec.AggregationID, &rec.CustomerID, &rec.ProductType, &rec.State, &data, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &rec.Quotes); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (p *Postgres) SavePolicy(ctx context.Context, tenantID string, resp model.PolicyBindResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO policies (tenant_id, policy_number, carrier_id, payload) VALUES ($1,$2,$3,$4)
		 ON CONFLICT (tenant_id, policy_number) DO UPDATE SET payload=EXCLUDED.payload`,
		tenantID, resp.PolicyNumber, resp.CarrierID, data)
	return err
}

func (p *Postgres) GetPolicy(ctx context.Context, tenantID, policyNumber string) (model.PolicyBindResponse, error) {
	var data []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT payload FROM policies WHERE tenant_id=$1 AND policy_number=$2`, tenantID, policyNumber).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PolicyBindResponse{}, ErrNotFound
	}
	if err != nil {
		return model.PolicyBindResponse{}, err
	}
	var resp model.PolicyBindResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return model.PolicyBindResponse{}, err
	}
	return resp, nil
}

func (p *Postgres) SaveClaim(ctx context.Context, tenantID string, resp model.ClaimResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO claims (id, tenant_id, policy_number, payload) VALUES ($1,$2,$3,$4)`,
		uuid.New().String(), tenantID, resp.PolicyNumber, data)
	return err
}

func (p *Postgres) ListClaims(ctx context.Context, tenantID, policyNumber string) ([]model.ClaimResponse, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT payload FROM claims WHERE tenant_id=$1 AND policy_number=$2 ORDER BY created_at`, tenantID, policyNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ClaimResponse{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var c model.ClaimResponse
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *Postgres) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
	sub := model.Subscription{
		ID:       uuid.New().String(),
		TenantID: req.TenantID,
		URL:      req.URL,
		Events:   req.Events,
		Secret:   req.Secret,
	}
	events, err := json.Marshal(sub.Events)
	if err != nil {
		return model.Subscription{}, err
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO subscriptions (id, tenant_id, url, events, secret) VALUES ($1,$2,$3,$4,$5)`,
		sub.ID, sub.TenantID, sub.URL, events, sub.Secret)
	if err != nil {
		return model.Subscription{}, err
	}
	return sub, nil
}

func (p *Postgres) GetSubscriptionsForEvent(ctx context.Context, tenantID, eventType string) ([]model.Subscription, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id::text, url, events, secret FROM subscriptions WHERE tenant_id=$1`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	subs, err := scanSubscriptions(rows, tenantID)
	if err != nil {
		return nil, err
	}
	out := []model.Subscription{}
	for _, s := range subs {
		for _, e := range s.Events {
			if e == eventType || e == "*" {
				out = append(out, s)
				break
			}
		}
	}
	return out, nil
}

func (p *Postgres) ListSubscriptions(ctx context.Context, tenantID string, limit int) ([]model.Subscription, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT id::text, url, events, secret FROM subscriptions WHERE tenant_id=$1 ORDER BY id LIMIT $2`, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubscriptions(rows, tenantID)
}

func scanSubscriptions(rows *sql.Rows, tenantID string) ([]model.Subscription, error) {
	out := []model.Subscription{}
	for rows.Next() {
		s := model.Subscription{TenantID: tenantID}
		var events []byte
		if err := rows.Scan(&s.ID, &s.URL, &events, &s.Secret); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(events, &s.Events); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) DeleteSubscription(ctx context.Context, tenantID, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) EnqueueWebhook(ctx context.Context, tenantID, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	id := uuid.New().String()
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO webhook_deliveries (id, tenant_id, subscription_id, event_type, url, secret, payload) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		id, tenantID, subscriptionID, eventType, url, secret, payload)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (p *Postgres) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT id::text, tenant_id, subscription_id, event_type, url, secret, payload, attempts
		 FROM webhook_deliveries
		 WHERE delivered_at IS NULL AND NOT dead AND next_attempt_at <= now()
		 ORDER BY next_attempt_at LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []WebhookDelivery{}
	for rows.Next() {
		var d WebhookDelivery
		if err := rows.Scan(&d.ID, &d.TenantID, &d.SubscriptionID, &d.EventType, &d.URL, &d.Secret, &d.Payload, &d.Attempts); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (p *Postgres) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
	if success {
		_, err := p.db.ExecContext(ctx,
			`UPDATE webhook_deliveries SET attempts=attempts+1, delivered_at=now(), last_error=$2, response_code=$3, latency_ms=$4 WHERE id=$1`,
			id, lastError, responseCode, latencyMs)
		return err
	}
	next := time.Now().Add(time.Minute)
	if nextAttemptAt != nil {
		next = *nextAttemptAt
	}
	_, err := p.db.ExecContext(ctx,
		`UPDATE webhook_deliveries SET attempts=attempts+1, next_attempt_at=$2, last_error=$3, response_code=$4, latency_ms=$5 WHERE id=$1`,
		id, next, lastError, responseCode, latencyMs)
	return err
}

func (p *Postgres) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE webhook_deliveries SET attempts=attempts+1, dead=true, last_error=$2, response_code=$3, latency_ms=$4 WHERE id=$1`,
		id, lastError, responseCode, latencyMs)
	return err
}
