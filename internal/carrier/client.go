package carrier

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"quotehub/internal/config"
	"quotehub/internal/metrics"
	"quotehub/internal/model"
)

// Client performs authenticated calls to carrier APIs with a single retry on
// transient failure. Per-carrier timeouts are enforced here, not by callers.
type Client struct {
	API  *config.APIStore
	HTTP *http.Client
	// RetryWait is the fixed backoff before the single retry.
	RetryWait time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewClient(api *config.APIStore) *Client {
	return &Client{
		API:       api,
		HTTP:      &http.Client{},
		RetryWait: time.Second,
		limiters:  map[string]*rate.Limiter{},
	}
}

// Call posts payload to {base}/{endpoint} for the carrier. A transient
// failure (transport error or 5xx) is retried exactly once after RetryWait;
// a second failure is returned as-is. Every attempt is logged.
func (c *Client) Call(ctx context.Context, carrier model.CarrierConfig, endpoint string, payload []byte) ([]byte, error) {
	cfg, ok := c.API.Get(carrier.ID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoAPIConfig, carrier.ID)
	}
	if lim := c.limiter(carrier.ID, cfg.MaxRPS); lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return nil, err
		}
	}
	body, err := c.attempt(ctx, carrier.ID, cfg, endpoint, payload)
	if err != nil && retryable(err) {
		select {
		case <-time.After(c.RetryWait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		body, err = c.attempt(ctx, carrier.ID, cfg, endpoint, payload)
	}
	return body, err
}

func (c *Client) attempt(ctx context.Context, carrierID string, cfg model.CarrierAPIConfig, endpoint string, payload []byte) ([]byte, error) {
	url := strings.TrimRight(cfg.BaseURL, "/") + "/" + endpoint
	cctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(cctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	req.Header.Set("X-Partner-ID", cfg.PartnerID)
	req.Header.Set("X-Request-ID", uuid.New().String())
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	latency := time.Since(start)
	metrics.CarrierLatency.WithLabelValues(carrierID, endpoint).Observe(float64(latency.Milliseconds()))

	if err != nil {
		logAttempt(carrierID, endpoint, 0, false, err.Error())
		metrics.CarrierCalls.WithLabelValues(carrierID, endpoint, "transport_error").Inc()
		return nil, &APIError{CarrierID: carrierID, Endpoint: endpoint, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		logAttempt(carrierID, endpoint, resp.StatusCode, false, err.Error())
		metrics.CarrierCalls.WithLabelValues(carrierID, endpoint, "transport_error").Inc()
		return nil, &APIError{CarrierID: carrierID, Endpoint: endpoint, Err: err}
	}
	metrics.CarrierCalls.WithLabelValues(carrierID, endpoint, strconv.Itoa(resp.StatusCode)).Inc()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(body))
		if len(msg) > 256 {
			msg = msg[:256]
		}
		logAttempt(carrierID, endpoint, resp.StatusCode, false, msg)
		return nil, &APIError{CarrierID: carrierID, Endpoint: endpoint, Status: resp.StatusCode, Body: msg}
	}
	logAttempt(carrierID, endpoint, resp.StatusCode, true, "")
	return body, nil
}

// logAttempt records every call attempt, success or failure; this is the
// core's observability contract for outbound calls.
func logAttempt(carrierID, endpoint string, status int, ok bool, errMsg string) {
	if errMsg != "" {
		log.Printf("carrier call: carrier=%s endpoint=%s status=%d ok=%v err=%q", carrierID, endpoint, status, ok, errMsg)
		return
	}
	log.Printf("carrier call: carrier=%s endpoint=%s status=%d ok=%v", carrierID, endpoint, status, ok)
}

func (c *Client) limiter(carrierID string, maxRPS float64) *rate.Limiter {
	if maxRPS <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	lim, ok := c.limiters[carrierID]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(maxRPS), int(maxRPS)+1)
		c.limiters[carrierID] = lim
	}
	return lim
}
