package carrier

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"quotehub/internal/cache"
	"quotehub/internal/config"
	"quotehub/internal/model"
	"quotehub/internal/registry"
)

func testCarrierCfg(id string, claims bool) model.CarrierConfig {
	return model.CarrierConfig{
		ID:   id,
		Name: strings.ToUpper(id),
		Products: []model.InsuranceProduct{
			{Type: model.ProductAuto, AvailableStates: []string{"CA", "TX"}},
		},
		BindingCapabilities: true,
		ClaimsSupport:       claims,
	}
}

// newTestService wires a Service against one fake upstream whose handler
// dispatches on /{carrierId}/{endpoint}.
func newTestService(t *testing.T, ids []string, handler http.HandlerFunc, ttl time.Duration) (*Service, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	carriers := make([]model.CarrierConfig, 0, len(ids))
	apiCfgs := map[string]model.CarrierAPIConfig{}
	for _, id := range ids {
		claims := id != "libertymutual"
		carriers = append(carriers, testCarrierCfg(id, claims))
		apiCfgs[id] = model.CarrierAPIConfig{
			BaseURL:   srv.URL + "/" + id,
			APIKey:    "sk_test",
			PartnerID: "quotehub",
			Timeout:   5 * time.Second,
		}
	}
	client := NewClient(config.NewAPIStore(apiCfgs))
	client.RetryWait = time.Millisecond
	svc := NewService(registry.New(carriers), client, cache.NewMemory(ttl))
	svc.Now = func() time.Time { return estNow }
	return svc, srv
}

func TestGetMultiCarrierQuotes_SortedWithFallback(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/geico/"):
			_, _ = w.Write([]byte(`{"quoteId":"g1","premium":{"annual":900}}`))
		case strings.HasPrefix(r.URL.Path, "/progressive/"):
			_, _ = w.Write([]byte(`{"quoteId":"p1","premium":{"annual":450}}`))
		default:
			w.WriteHeader(500)
		}
	}
	svc, _ := newTestService(t, []string{"geico", "progressive", "statefarm"}, handler, 0)

	quotes := svc.GetMultiCarrierQuotes(context.Background(), autoRequest("1995-01-15", 2020))
	if len(quotes) != 3 {
		t.Fatalf("quotes: got %d, want 3", len(quotes))
	}
	for i := 1; i < len(quotes); i++ {
		if quotes[i].Premium.Annual < quotes[i-1].Premium.Annual {
			t.Fatalf("quotes not sorted by annual premium: %+v", quotes)
		}
	}
	// statefarm failed both attempts and degraded to a deterministic estimate
	var sf *model.QuoteResponse
	for i := range quotes {
		if quotes[i].CarrierID == "statefarm" {
			sf = &quotes[i]
		}
	}
	if sf == nil || !sf.IsFallback {
		t.Fatalf("expected statefarm fallback, got %+v", quotes)
	}
	if !strings.HasPrefix(sf.QuoteID, "FALLBACK_statefarm_") {
		t.Fatalf("fallback quote id: got %q", sf.QuoteID)
	}
	if sf.Premium.Annual != 800 { // base 800 * 1.00, no adjustments
		t.Fatalf("fallback premium: got %v, want 800", sf.Premium.Annual)
	}
}

func TestStreamQuotes_ObserverSeesEachQuote(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"quoteId":"q1","premium":{"annual":500}}`))
	}
	svc, _ := newTestService(t, []string{"geico", "progressive"}, handler, 0)

	var seen int32
	quotes := svc.StreamQuotes(context.Background(), autoRequest("1995-01-15", 2020), func(model.QuoteResponse) {
		atomic.AddInt32(&seen, 1)
	})
	if len(quotes) != 2 || atomic.LoadInt32(&seen) != 2 {
		t.Fatalf("got %d quotes, observer saw %d", len(quotes), seen)
	}
}

func TestGetMultiCarrierQuotes_NoEligibleCarriers(t *testing.T) {
	svc, _ := newTestService(t, []string{"geico"}, func(w http.ResponseWriter, r *http.Request) {}, 0)
	req := autoRequest("1995-01-15", 2020)
	req.Applicant.Address.State = "HI" // nobody writes there
	if quotes := svc.GetMultiCarrierQuotes(context.Background(), req); len(quotes) != 0 {
		t.Fatalf("expected no quotes, got %d", len(quotes))
	}
}

func TestGetCarrierQuote_CachesSuccess(t *testing.T) {
	var calls int32
	handler := func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"quoteId":"q1","premium":{"annual":700}}`))
	}
	svc, _ := newTestService(t, []string{"geico"}, handler, 0)

	req := autoRequest("1995-01-15", 2020)
	first, err := svc.GetCarrierQuote(context.Background(), "geico", req)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := svc.GetCarrierQuote(context.Background(), "geico", req)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("upstream calls: got %d, want 1", n)
	}
	if first.QuoteID != second.QuoteID {
		t.Fatalf("cache returned different quote: %q vs %q", first.QuoteID, second.QuoteID)
	}
}

func TestGetCarrierQuote_CacheExpiry(t *testing.T) {
	var calls int32
	handler := func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"quoteId":"q1","premium":{"annual":700}}`))
	}
	svc, _ := newTestService(t, []string{"geico"}, handler, 30*time.Millisecond)

	req := autoRequest("1995-01-15", 2020)
	if _, err := svc.GetCarrierQuote(context.Background(), "geico", req); err != nil {
		t.Fatalf("first call: %v", err)
	}
	time.Sleep(60 * time.Millisecond)
	if _, err := svc.GetCarrierQuote(context.Background(), "geico", req); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("upstream calls after expiry: got %d, want 2", n)
	}
}

func TestGetCarrierQuote_UnknownCarrier(t *testing.T) {
	svc, _ := newTestService(t, []string{"geico"}, func(w http.ResponseWriter, r *http.Request) {}, 0)
	_, err := svc.GetCarrierQuote(context.Background(), "acme", autoRequest("1995-01-15", 2020))
	if !errors.Is(err, registry.ErrUnknownCarrier) {
		t.Fatalf("expected ErrUnknownCarrier, got %v", err)
	}
}

func TestGetCarrierQuote_FallbackOnMalformedBody(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}
	svc, _ := newTestService(t, []string{"geico"}, handler, 0)

	q, err := svc.GetCarrierQuote(context.Background(), "geico", autoRequest("1995-01-15", 2020))
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if !q.IsFallback {
		t.Fatalf("expected fallback on malformed body, got %+v", q)
	}
}

func TestBindPolicy_Success(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/bind") {
			w.WriteHeader(404)
			return
		}
		_, _ = w.Write([]byte(`{"policyNumber":"PN-100","confirmationNumber":"CF-1","status":"bound"}`))
	}
	svc, _ := newTestService(t, []string{"geico"}, handler, 0)

	resp, err := svc.BindPolicy(context.Background(), "geico", model.PolicyBindRequest{
		QuoteID:    "q1",
		CustomerID: "cust_1",
		Payment:    model.PaymentInfo{Method: "card"},
	})
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if resp.PolicyNumber != "PN-100" || resp.CarrierID != "geico" || resp.QuoteID != "q1" {
		t.Fatalf("bind response: %+v", resp)
	}
}

func TestBindPolicy_ErrorPropagates(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(500) }
	svc, _ := newTestService(t, []string{"geico"}, handler, 0)

	_, err := svc.BindPolicy(context.Background(), "geico", model.PolicyBindRequest{
		QuoteID: "q1", CustomerID: "cust_1", Payment: model.PaymentInfo{Method: "card"},
	})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
}

func TestSubmitClaim_Success(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"claimNumber":"CL-9","status":"received"}`))
	}
	svc, _ := newTestService(t, []string{"geico"}, handler, 0)

	resp, err := svc.SubmitClaim(context.Background(), "geico", model.ClaimRequest{
		PolicyNumber: "PN-100", CustomerID: "cust_1", Type: "collision", IncidentDate: "2025-06-01",
	})
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if resp.ClaimNumber != "CL-9" || resp.PolicyNumber != "PN-100" || resp.CarrierID != "geico" {
		t.Fatalf("claim response: %+v", resp)
	}
}

func TestSubmitClaim_Unsupported(t *testing.T) {
	svc, _ := newTestService(t, []string{"libertymutual"}, func(w http.ResponseWriter, r *http.Request) {}, 0)
	_, err := svc.SubmitClaim(context.Background(), "libertymutual", model.ClaimRequest{
		PolicyNumber: "PN-1", CustomerID: "cust_1", Type: "water", IncidentDate: "2025-06-01",
	})
	if !errors.Is(err, ErrClaimsUnsupported) {
		t.Fatalf("expected ErrClaimsUnsupported, got %v", err)
	}
}

func TestBindPolicy_Unsupported(t *testing.T) {
	carriers := []model.CarrierConfig{{
		ID:       "quotedirect",
		Name:     "QuoteDirect",
		Products: []model.InsuranceProduct{{Type: model.ProductAuto, AvailableStates: []string{"CA"}}},
	}}
	svc := NewService(registry.New(carriers), NewClient(config.NewAPIStore(nil)), cache.NewMemory(0))
	_, err := svc.BindPolicy(context.Background(), "quotedirect", model.PolicyBindRequest{
		QuoteID: "q1", CustomerID: "cust_1", Payment: model.PaymentInfo{Method: "card"},
	})
	if !errors.Is(err, ErrBindingUnsupported) {
		t.Fatalf("expected ErrBindingUnsupported, got %v", err)
	}
}
