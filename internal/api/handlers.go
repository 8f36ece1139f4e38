package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"quotehub/internal/carrier"
	"quotehub/internal/model"
	"quotehub/internal/registry"
	"quotehub/internal/store"
	"quotehub/internal/webhooks"
)

// CarriersHandler lists registered carriers; productType and state query
// params narrow the list to carriers eligible for that combination.
func (s *Server) CarriersHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	productType := r.URL.Query().Get("productType")
	state := r.URL.Query().Get("state")
	var items []model.CarrierConfig
	if productType != "" && state != "" {
		items = s.Service.AvailableCarriers(productType, state)
	} else {
		items = []model.CarrierConfig{}
		for _, id := range s.Service.Registry.IDs() {
			if c, err := s.Service.Registry.Get(id); err == nil {
				items = append(items, c)
			}
		}
	}
	writeJSON(w, 200, map[string]any{"items": items, "count": len(items)})
}

// QuotesHandler handles POST /v1/quotes: fan the request out to every
// eligible carrier, persist the aggregation, and notify subscribers.
func (s *Server) QuotesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req model.QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validateQuoteRequest(&req); err != nil {
		writeProblem(w, http.StatusUnprocessableEntity, "Invalid quote request", err.Error(), r.URL.Path)
		return
	}
	pr := s.getPrincipal(r)

	quotes := s.Service.StreamQuotes(r.Context(), req, func(q model.QuoteResponse) {
		s.Broker.Publish(req.CustomerID, SSEEvent{Type: "quote.received", Data: map[string]any{
			"carrierId": q.CarrierID,
			"quoteId":   q.QuoteID,
			"annual":    q.Premium.Annual,
			"fallback":  q.IsFallback,
		}})
	})

	aggID, err := s.Store.SaveQuotes(r.Context(), pr.Tenant, req, quotes)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Save quotes failed", err.Error(), r.URL.Path)
		return
	}
	s.Pub.Emit(r.Context(), pr.Tenant, webhooks.EventQuoteCompleted, map[string]any{
		"aggregationId": aggID,
		"customerId":    req.CustomerID,
		"productType":   req.ProductType,
		"count":         len(quotes),
	})
	s.Broker.Publish(req.CustomerID, SSEEvent{Type: "aggregation.completed", Data: map[string]any{
		"aggregationId": aggID,
		"count":         len(quotes),
	}})
	writeJSON(w, 200, map[string]any{
		"aggregationId": aggID,
		"quotes":        quotes,
		"count":         len(quotes),
	})
}

// QuotesSubHandler routes /v1/quotes/{rest}: quote history, the SSE stream,
// and single-carrier quotes at /v1/quotes/{carrierId}.
func (s *Server) QuotesSubHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/quotes/")
	if rest == r.URL.Path || rest == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	switch rest {
	case "history":
		s.quoteHistory(w, r)
	case "stream":
		s.quoteStream(w, r)
	default:
		s.singleCarrierQuote(w, r, rest)
	}
}

func (s *Server) quoteHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	pr := s.getPrincipal(r)
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		fmt.Sscanf(v, "%d", &limit)
	}
	items, err := s.Store.ListQuotes(r.Context(), pr.Tenant, r.URL.Query().Get("customerId"), limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List quotes failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, 200, map[string]any{"items": items, "count": len(items)})
}

func (s *Server) singleCarrierQuote(w http.ResponseWriter, r *http.Request, carrierID string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req model.QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validateQuoteRequest(&req); err != nil {
		writeProblem(w, http.StatusUnprocessableEntity, "Invalid quote request", err.Error(), r.URL.Path)
		return
	}
	q, err := s.Service.GetCarrierQuote(r.Context(), carrierID, req)
	if err != nil {
		status, title := statusForError(err)
		writeProblem(w, status, title, err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, 200, q)
}

// quoteStream is the SSE feed of quote lifecycle events for one customer.
func (s *Server) quoteStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	customerID := r.URL.Query().Get("customerId")
	if customerID == "" {
		writeProblem(w, http.StatusBadRequest, "Missing customerId", "", r.URL.Path)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, 500, "Streaming unsupported", "", r.URL.Path)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	ch := s.Broker.Subscribe(customerID)
	defer s.Broker.Unsubscribe(customerID, ch)
	fmt.Fprintf(w, "event: heartbeat\n")
	fmt.Fprintf(w, "data: {\"customerId\":\"%s\",\"ts\":\"%s\"}\n\n", customerID, time.Now().Format(time.RFC3339))
	flusher.Flush()
	notify := r.Context().Done()
	for {
		select {
		case <-notify:
			return
		case evt := <-ch:
			b, _ := json.Marshal(evt.Data)
			fmt.Fprintf(w, "event: %s\n", evt.Type)
			fmt.Fprintf(w, "data: %s\n\n", string(b))
			flusher.Flush()
		case <-time.After(15 * time.Second):
			fmt.Fprintf(w, "event: heartbeat\n")
			fmt.Fprintf(w, "data: {\"customerId\":\"%s\",\"ts\":\"%s\"}\n\n", customerID, time.Now().Format(time.RFC3339))
			flusher.Flush()
		}
	}
}

// CarrierByIDHandler routes /v1/carriers/{id}[/bind|/claims].
func (s *Server) CarrierByIDHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/carriers/")
	if rest == r.URL.Path || rest == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "missing id", r.URL.Path)
		return
	}
	parts := strings.Split(rest, "/")
	carrierID := parts[0]
	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		c, err := s.Service.Registry.Get(carrierID)
		if err != nil {
			writeProblem(w, http.StatusNotFound, "Carrier not found", carrierID, r.URL.Path)
			return
		}
		writeJSON(w, 200, c)
		return
	}
	switch parts[1] {
	case "bind":
		s.bindPolicy(w, r, carrierID)
	case "claims":
		s.submitClaim(w, r, carrierID)
	default:
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
	}
}

func (s *Server) bindPolicy(w http.ResponseWriter, r *http.Request, carrierID string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req model.PolicyBindRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validateBindRequest(&req); err != nil {
		writeProblem(w, http.StatusUnprocessableEntity, "Invalid bind request", err.Error(), r.URL.Path)
		return
	}
	pr := s.getPrincipal(r)
	resp, err := s.Service.BindPolicy(r.Context(), carrierID, req)
	if err != nil {
		status, title := statusForError(err)
		writeProblem(w, status, title, err.Error(), r.URL.Path)
		return
	}
	if err := s.Store.SavePolicy(r.Context(), pr.Tenant, resp); err != nil {
		writeProblem(w, http.StatusInternalServerError, "Save policy failed", err.Error(), r.URL.Path)
		return
	}
	s.Pub.Emit(r.Context(), pr.Tenant, webhooks.EventPolicyBound, map[string]any{
		"policyNumber": resp.PolicyNumber,
		"carrierId":    resp.CarrierID,
		"quoteId":      resp.QuoteID,
	})
	writeJSON(w, 200, resp)
}

func (s *Server) submitClaim(w http.ResponseWriter, r *http.Request, carrierID string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req model.ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validateClaimRequest(&req); err != nil {
		writeProblem(w, http.StatusUnprocessableEntity, "Invalid claim request", err.Error(), r.URL.Path)
		return
	}
	pr := s.getPrincipal(r)
	resp, err := s.Service.SubmitClaim(r.Context(), carrierID, req)
	if err != nil {
		status, title := statusForError(err)
		writeProblem(w, status, title, err.Error(), r.URL.Path)
		return
	}
	if err := s.Store.SaveClaim(r.Context(), pr.Tenant, resp); err != nil {
		writeProblem(w, http.StatusInternalServerError, "Save claim failed", err.Error(), r.URL.Path)
		return
	}
	s.Pub.Emit(r.Context(), pr.Tenant, webhooks.EventClaimSubmitted, map[string]any{
		"claimNumber":  resp.ClaimNumber,
		"policyNumber": resp.PolicyNumber,
		"carrierId":    resp.CarrierID,
	})
	writeJSON(w, 200, resp)
}

// PoliciesHandler routes /v1/policies/{policyNumber}[/claims].
func (s *Server) PoliciesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/v1/policies/")
	if rest == r.URL.Path || rest == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "missing policy number", r.URL.Path)
		return
	}
	parts := strings.Split(rest, "/")
	policyNumber := parts[0]
	pr := s.getPrincipal(r)
	if len(parts) > 1 && parts[1] == "claims" {
		items, err := s.Store.ListClaims(r.Context(), pr.Tenant, policyNumber)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List claims failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, 200, map[string]any{"items": items, "count": len(items)})
		return
	}
	p, err := s.Store.GetPolicy(r.Context(), pr.Tenant, policyNumber)
	if errors.Is(err, store.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Policy not found", policyNumber, r.URL.Path)
		return
	}
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Get policy failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, 200, p)
}

// SubscriptionsHandler handles webhook subscription create/list (admin).
func (s *Server) SubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
	pr := s.getPrincipal(r)
	if !pr.IsAdmin() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
		return
	}
	switch r.Method {
	case http.MethodPost:
		var req model.SubscriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if req.URL == "" || len(req.Events) == 0 {
			writeProblem(w, http.StatusUnprocessableEntity, "Invalid subscription", "url and events are required", r.URL.Path)
			return
		}
		req.TenantID = pr.Tenant
		sub, err := s.Store.CreateSubscription(r.Context(), req)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Create subscription failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, 201, sub)
	case http.MethodGet:
		limit := 100
		if v := r.URL.Query().Get("limit"); v != "" {
			fmt.Sscanf(v, "%d", &limit)
		}
		items, err := s.Store.ListSubscriptions(r.Context(), pr.Tenant, limit)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List subscriptions failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, 200, map[string]any{"items": items, "count": len(items)})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// SubscriptionByIDHandler handles DELETE /v1/subscriptions/{id} (admin).
func (s *Server) SubscriptionByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	pr := s.getPrincipal(r)
	if !pr.IsAdmin() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/subscriptions/")
	if id == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "missing id", r.URL.Path)
		return
	}
	if err := s.Store.DeleteSubscription(r.Context(), pr.Tenant, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Subscription not found", id, r.URL.Path)
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Delete subscription failed", err.Error(), r.URL.Path)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Health
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	// Check DB connectivity when using the Postgres store
	type pinger interface{ Ping(ctx context.Context) error }
	if pg, ok := s.Store.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := pg.Ping(ctx); err != nil {
			writeProblem(w, 503, "Not Ready", err.Error(), r.URL.Path)
			return
		}
	}
	writeJSON(w, 200, map[string]string{"status": "ready"})
}

// statusForError maps service-layer failures to HTTP statuses.
func statusForError(err error) (int, string) {
	var apiErr *carrier.APIError
	switch {
	case errors.Is(err, registry.ErrUnknownCarrier):
		return http.StatusNotFound, "Carrier not found"
	case errors.Is(err, carrier.ErrBindingUnsupported):
		return http.StatusUnprocessableEntity, "Binding not supported"
	case errors.Is(err, carrier.ErrClaimsUnsupported):
		return http.StatusUnprocessableEntity, "Claims not supported"
	case errors.Is(err, carrier.ErrNoAPIConfig):
		return http.StatusServiceUnavailable, "Carrier not configured"
	case errors.As(err, &apiErr):
		return http.StatusBadGateway, "Carrier call failed"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}
