// Package registry holds the static set of known carriers and answers
// eligibility queries by product type and state.
package registry

import (
	"errors"

	"quotehub/internal/model"
)

var ErrUnknownCarrier = errors.New("unknown carrier")

// Registry owns the in-memory carrier set. The set is fixed at construction;
// there is no dynamic registration.
type Registry struct {
	carriers map[string]model.CarrierConfig
	order    []string
}

func New(carriers []model.CarrierConfig) *Registry {
	r := &Registry{carriers: map[string]model.CarrierConfig{}}
	for _, c := range carriers {
		if _, dup := r.carriers[c.ID]; dup {
			continue
		}
		r.carriers[c.ID] = c
		r.order = append(r.order, c.ID)
	}
	return r
}

// Get returns the carrier config for id.
func (r *Registry) Get(id string) (model.CarrierConfig, error) {
	c, ok := r.carriers[id]
	if !ok {
		return model.CarrierConfig{}, ErrUnknownCarrier
	}
	return c, nil
}

// AvailableCarriers returns every registered carrier offering productType in
// state. Pure read; returns an empty slice when none match.
func (r *Registry) AvailableCarriers(productType, state string) []model.CarrierConfig {
	out := []model.CarrierConfig{}
	for _, id := range r.order {
		c := r.carriers[id]
		if c.Offers(productType, state) {
			out = append(out, c)
		}
	}
	return out
}

// IDs returns carrier ids in registration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

var wideStates = []string{
	"AZ", "CA", "CO", "FL", "GA", "IL", "MI", "NC", "NJ", "NY",
	"OH", "OR", "PA", "TX", "VA", "WA",
}

// Defaults returns the compiled-in carrier set used when no carriers file is
// configured. Environment on each entry is overwritten by the loader.
func Defaults() []model.CarrierConfig {
	return []model.CarrierConfig{
		{
			ID:          "geico",
			Name:        "GEICO",
			APIEndpoint: "https://api.sandbox.geico.example.com/v2",
			Environment: "sandbox",
			Products: []model.InsuranceProduct{
				{
					Type:              model.ProductAuto,
					AvailableStates:   wideStates,
					MinCoverageLimits: map[string]float64{"liability": 25000, "collision": 500},
					DiscountCodes:     []string{"MULTI_POLICY", "GOOD_DRIVER", "MILITARY"},
				},
			},
			RatingFactors:       []string{"age", "vehicle_age", "driving_record", "credit_score"},
			BindingCapabilities: true,
			ClaimsSupport:       true,
		},
		{
			ID:          "progressive",
			Name:        "Progressive",
			APIEndpoint: "https://partner-api.sandbox.progressive.example.com/v1",
			Environment: "sandbox",
			Products: []model.InsuranceProduct{
				{
					Type:              model.ProductAuto,
					AvailableStates:   wideStates,
					MinCoverageLimits: map[string]float64{"liability": 30000, "collision": 500},
					DiscountCodes:     []string{"SNAPSHOT", "MULTI_CAR", "HOMEOWNER"},
				},
				{
					Type:              model.ProductRenters,
					AvailableStates:   []string{"CA", "FL", "IL", "NY", "OH", "TX", "WA"},
					MinCoverageLimits: map[string]float64{"personal_property": 15000},
					DiscountCodes:     []string{"MULTI_POLICY"},
				},
			},
			RatingFactors:       []string{"age", "vehicle_age", "mileage", "prior_insurance"},
			BindingCapabilities: true,
			ClaimsSupport:       true,
		},
		{
			ID:          "statefarm",
			Name:        "State Farm",
			APIEndpoint: "https://api.sandbox.statefarm.example.com/quotes/v3",
			Environment: "sandbox",
			Products: []model.InsuranceProduct{
				{
					Type:              model.ProductAuto,
					AvailableStates:   wideStates,
					MinCoverageLimits: map[string]float64{"liability": 25000, "collision": 250},
					DiscountCodes:     []string{"DRIVE_SAFE", "MULTI_LINE", "GOOD_STUDENT"},
				},
				{
					Type:              model.ProductHomeowners,
					AvailableStates:   []string{"AZ", "CO", "GA", "IL", "MI", "NC", "OH", "TX", "VA"},
					MinCoverageLimits: map[string]float64{"dwelling": 100000},
					DiscountCodes:     []string{"MULTI_LINE", "HOME_ALERT"},
				},
			},
			RatingFactors:       []string{"age", "claims_history", "home_age", "credit_score"},
			BindingCapabilities: true,
			ClaimsSupport:       true,
		},
		{
			ID:          "allstate",
			Name:        "Allstate",
			APIEndpoint: "https://gateway.sandbox.allstate.example.com/quote-api/v1",
			Environment: "sandbox",
			Products: []model.InsuranceProduct{
				{
					Type:              model.ProductAuto,
					AvailableStates:   []string{"AZ", "CA", "FL", "GA", "IL", "NJ", "NY", "PA", "TX"},
					MinCoverageLimits: map[string]float64{"liability": 25000, "collision": 500},
					DiscountCodes:     []string{"DRIVEWISE", "EARLY_BIRD"},
				},
				{
					Type:              model.ProductHomeowners,
					AvailableStates:   []string{"AZ", "FL", "GA", "IL", "TX"},
					MinCoverageLimits: map[string]float64{"dwelling": 150000},
					DiscountCodes:     []string{"MULTI_POLICY", "NEW_ROOF"},
				},
				{
					Type:              model.ProductLife,
					AvailableStates:   []string{"CA", "IL", "NY", "TX"},
					MinCoverageLimits: map[string]float64{"face_amount": 50000},
				},
			},
			RatingFactors:       []string{"age", "vehicle_age", "home_age", "health_class"},
			BindingCapabilities: true,
			ClaimsSupport:       true,
		},
		{
			ID:          "libertymutual",
			Name:        "Liberty Mutual",
			APIEndpoint: "https://api.sandbox.libertymutual.example.com/personal/v2",
			Environment: "sandbox",
			Products: []model.InsuranceProduct{
				{
					Type:              model.ProductHomeowners,
					AvailableStates:   []string{"CO", "MI", "NC", "NJ", "OR", "PA", "VA", "WA"},
					MinCoverageLimits: map[string]float64{"dwelling": 120000},
					DiscountCodes:     []string{"SAFE_HOME", "PAPERLESS"},
				},
				{
					Type:              model.ProductRenters,
					AvailableStates:   []string{"CO", "MI", "NJ", "OR", "PA", "WA"},
					MinCoverageLimits: map[string]float64{"personal_property": 10000},
					DiscountCodes:     []string{"PAPERLESS"},
				},
			},
			RatingFactors:       []string{"home_age", "construction_type", "claims_history"},
			BindingCapabilities: true,
			// Claims are handled through Liberty's own portal, not the partner API.
			ClaimsSupport: false,
		},
	}
}
