// Package carrier implements the multi-carrier quote aggregation core: the
// API client, the deterministic premium estimator, and the service that fans
// requests out across eligible carriers.
package carrier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"quotehub/internal/cache"
	"quotehub/internal/metrics"
	"quotehub/internal/model"
	"quotehub/internal/registry"
)

// Service owns the registry, client, and cache; constructed once at startup
// and passed by reference to all call sites.
type Service struct {
	Registry *registry.Registry
	Client   *Client
	Cache    cache.Cache
	// Now is the clock; overridable in tests.
	Now func() time.Time
}

func NewService(reg *registry.Registry, client *Client, c cache.Cache) *Service {
	return &Service{Registry: reg, Client: client, Cache: c, Now: time.Now}
}

// AvailableCarriers returns every registered carrier offering productType in
// state; empty when none match.
func (s *Service) AvailableCarriers(productType, state string) []model.CarrierConfig {
	return s.Registry.AvailableCarriers(productType, state)
}

// GetCarrierQuote returns one carrier's quote for the request. The cache is
// consulted first; on a miss the live call is made, and any failure that is
// not caller cancellation degrades to a deterministic fallback estimate so
// aggregation-level callers only ever see quotes. Unknown carrier ids are a
// hard error, never faked.
func (s *Service) GetCarrierQuote(ctx context.Context, carrierID string, req model.QuoteRequest) (model.QuoteResponse, error) {
	cfg, err := s.Registry.Get(carrierID)
	if err != nil {
		return model.QuoteResponse{}, fmt.Errorf("%w: %s", err, carrierID)
	}
	keyBytes, err := json.Marshal(req)
	if err != nil {
		return model.QuoteResponse{}, err
	}
	key := cache.Key(carrierID, model.EndpointQuote, keyBytes)
	if data, ok := s.Cache.Get(ctx, key); ok {
		var q model.QuoteResponse
		if err := json.Unmarshal(data, &q); err == nil {
			metrics.CacheLookups.WithLabelValues(model.EndpointQuote, "hit").Inc()
			return q, nil
		}
	}
	metrics.CacheLookups.WithLabelValues(model.EndpointQuote, "miss").Inc()

	now := s.Now()
	payload, err := NormalizeQuote(req, now)
	if err != nil {
		return model.QuoteResponse{}, err
	}
	body, err := s.Client.Call(ctx, cfg, model.EndpointQuote, payload)
	if err != nil {
		if ctx.Err() != nil {
			return model.QuoteResponse{}, ctx.Err()
		}
		return s.fallback(cfg, req, now, err), nil
	}

	var q model.QuoteResponse
	if uerr := json.Unmarshal(body, &q); uerr != nil || q.Premium.Annual <= 0 {
		// a 2xx body that doesn't parse as a quote degrades like a failed call
		return s.fallback(cfg, req, now, fmt.Errorf("malformed quote body from %s", carrierID)), nil
	}
	if q.QuoteID == "" {
		q.QuoteID = fmt.Sprintf("%s_%d", cfg.ID, now.UnixMilli())
	}
	q.CarrierID = cfg.ID
	if q.CarrierName == "" {
		q.CarrierName = cfg.Name
	}
	if q.ProductType == "" {
		q.ProductType = req.ProductType
	}
	if q.Discounts == nil {
		q.Discounts = []model.AppliedDiscount{}
	}
	if q.ValidUntil == "" {
		q.ValidUntil = now.Add(7 * 24 * time.Hour).UTC().Format(time.RFC3339)
	}
	if q.BindableUntil == "" {
		q.BindableUntil = now.Add(30 * 24 * time.Hour).UTC().Format(time.RFC3339)
	}
	if data, merr := json.Marshal(q); merr == nil {
		s.Cache.Set(ctx, key, data)
	}
	return q, nil
}

func (s *Service) fallback(cfg model.CarrierConfig, req model.QuoteRequest, now time.Time, cause error) model.QuoteResponse {
	metrics.QuoteFallbacks.WithLabelValues(cfg.ID).Inc()
	log.Printf("quote fallback: carrier=%s product=%s cause=%q", cfg.ID, req.ProductType, cause.Error())
	return FallbackQuote(cfg, req, now)
}

// StreamQuotes fans the request out to every eligible carrier concurrently,
// waits for all calls to settle, and returns the successes sorted ascending
// by annual premium. onQuote, when non-nil, is invoked once per settled
// success, from a single goroutine, as results arrive. A single carrier's
// failure never aborts the others; an empty list is a valid outcome.
func (s *Service) StreamQuotes(ctx context.Context, req model.QuoteRequest, onQuote func(model.QuoteResponse)) []model.QuoteResponse {
	eligible := s.Registry.AvailableCarriers(req.ProductType, req.Applicant.Address.State)

	type result struct {
		q   model.QuoteResponse
		err error
	}
	ch := make(chan result, len(eligible))
	for _, c := range eligible {
		go func(id string) {
			q, err := s.GetCarrierQuote(ctx, id, req)
			ch <- result{q: q, err: err}
		}(c.ID)
	}

	out := []model.QuoteResponse{}
	for range eligible {
		r := <-ch
		if r.err != nil {
			// already logged at the call site; drop and keep the rest
			continue
		}
		if onQuote != nil {
			onQuote(r.q)
		}
		out = append(out, r.q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Premium.Annual < out[j].Premium.Annual })
	return out
}

// GetMultiCarrierQuotes is StreamQuotes without a per-quote observer.
func (s *Service) GetMultiCarrierQuotes(ctx context.Context, req model.QuoteRequest) []model.QuoteResponse {
	return s.StreamQuotes(ctx, req, nil)
}

// BindPolicy binds a previously returned quote into an active policy. No
// fallback is ever synthesized: exhausted retries propagate, because
// fabricating a bind confirmation would be unsafe.
func (s *Service) BindPolicy(ctx context.Context, carrierID string, req model.PolicyBindRequest) (model.PolicyBindResponse, error) {
	cfg, err := s.Registry.Get(carrierID)
	if err != nil {
		return model.PolicyBindResponse{}, fmt.Errorf("%w: %s", err, carrierID)
	}
	if !cfg.BindingCapabilities {
		return model.PolicyBindResponse{}, fmt.Errorf("%w: %s", ErrBindingUnsupported, carrierID)
	}
	keyBytes, err := json.Marshal(req)
	if err != nil {
		return model.PolicyBindResponse{}, err
	}
	key := cache.Key(carrierID, model.EndpointBind, keyBytes)
	if data, ok := s.Cache.Get(ctx, key); ok {
		var resp model.PolicyBindResponse
		if err := json.Unmarshal(data, &resp); err == nil {
			metrics.CacheLookups.WithLabelValues(model.EndpointBind, "hit").Inc()
			return resp, nil
		}
	}
	metrics.CacheLookups.WithLabelValues(model.EndpointBind, "miss").Inc()

	payload, err := NormalizeBind(req, s.Now())
	if err != nil {
		return model.PolicyBindResponse{}, err
	}
	body, err := s.Client.Call(ctx, cfg, model.EndpointBind, payload)
	if err != nil {
		return model.PolicyBindResponse{}, err
	}
	var resp model.PolicyBindResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.PolicyBindResponse{}, fmt.Errorf("malformed bind body from %s: %w", carrierID, err)
	}
	if resp.PolicyNumber == "" {
		return model.PolicyBindResponse{}, fmt.Errorf("bind response from %s missing policy number", carrierID)
	}
	resp.CarrierID = cfg.ID
	if resp.QuoteID == "" {
		resp.QuoteID = req.QuoteID
	}
	if data, merr := json.Marshal(resp); merr == nil {
		s.Cache.Set(ctx, key, data)
	}
	return resp, nil
}

// SubmitClaim files a claim against an existing policy. Carriers without
// claims support fail loudly; errors always propagate.
func (s *Service) SubmitClaim(ctx context.Context, carrierID string, req model.ClaimRequest) (model.ClaimResponse, error) {
	cfg, err := s.Registry.Get(carrierID)
	if err != nil {
		return model.ClaimResponse{}, fmt.Errorf("%w: %s", err, carrierID)
	}
	if !cfg.ClaimsSupport {
		return model.ClaimResponse{}, fmt.Errorf("%w: %s", ErrClaimsUnsupported, carrierID)
	}
	keyBytes, err := json.Marshal(req)
	if err != nil {
		return model.ClaimResponse{}, err
	}
	key := cache.Key(carrierID, model.EndpointClaim, keyBytes)
	if data, ok := s.Cache.Get(ctx, key); ok {
		var resp model.ClaimResponse
		if err := json.Unmarshal(data, &resp); err == nil {
			metrics.CacheLookups.WithLabelValues(model.EndpointClaim, "hit").Inc()
			return resp, nil
		}
	}
	metrics.CacheLookups.WithLabelValues(model.EndpointClaim, "miss").Inc()

	payload, err := NormalizeClaim(req, s.Now())
	if err != nil {
		return model.ClaimResponse{}, err
	}
	body, err := s.Client.Call(ctx, cfg, model.EndpointClaim, payload)
	if err != nil {
		return model.ClaimResponse{}, err
	}
	var resp model.ClaimResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.ClaimResponse{}, fmt.Errorf("malformed claim body from %s: %w", carrierID, err)
	}
	if resp.ClaimNumber == "" {
		return model.ClaimResponse{}, fmt.Errorf("claim response from %s missing claim number", carrierID)
	}
	resp.CarrierID = cfg.ID
	if resp.PolicyNumber == "" {
		resp.PolicyNumber = req.PolicyNumber
	}
	if data, merr := json.Marshal(resp); merr == nil {
		s.Cache.Set(ctx, key, data)
	}
	return resp, nil
}
