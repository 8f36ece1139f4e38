package carrier

import (
	"encoding/json"
	"time"

	"quotehub/internal/model"
)

// Source is the fixed identifier attached to every outbound payload.
const Source = "quotehub"

// wireQuoteRequest is the carrier-agnostic quote payload. One typed shape per
// endpoint keeps malformed payloads out of the business logic.
type wireQuoteRequest struct {
	QuoteID       string                `json:"quoteId,omitempty"`
	CustomerID    string                `json:"customerId"`
	ProductType   string                `json:"productType"`
	Applicant     model.ApplicantInfo   `json:"applicant"`
	Vehicle       *model.VehicleInfo    `json:"vehicle,omitempty"`
	Property      *model.PropertyInfo   `json:"property,omitempty"`
	Coverage      model.CoverageRequest `json:"coverage"`
	EffectiveDate string                `json:"effectiveDate,omitempty"`
	Timestamp     string                `json:"timestamp"`
	Source        string                `json:"source"`
}

type wireBindRequest struct {
	model.PolicyBindRequest
	Timestamp string `json:"timestamp"`
	Source    string `json:"source"`
}

type wireClaimRequest struct {
	model.ClaimRequest
	Timestamp string `json:"timestamp"`
	Source    string `json:"source"`
}

// NormalizeQuote shapes a QuoteRequest into the wire payload each carrier
// call needs. Only the risk object relevant to the product type is kept:
// vehicle for auto, property for homeowners/renters, neither for life.
func NormalizeQuote(req model.QuoteRequest, now time.Time) ([]byte, error) {
	w := wireQuoteRequest{
		QuoteID:       req.QuoteID,
		CustomerID:    req.CustomerID,
		ProductType:   req.ProductType,
		Applicant:     req.Applicant,
		Coverage:      req.Coverage,
		EffectiveDate: req.EffectiveDate,
		Timestamp:     now.UTC().Format(time.RFC3339),
		Source:        Source,
	}
	switch req.ProductType {
	case model.ProductAuto:
		w.Vehicle = req.Vehicle
	case model.ProductHomeowners, model.ProductRenters:
		w.Property = req.Property
	}
	return json.Marshal(w)
}

func NormalizeBind(req model.PolicyBindRequest, now time.Time) ([]byte, error) {
	return json.Marshal(wireBindRequest{
		PolicyBindRequest: req,
		Timestamp:         now.UTC().Format(time.RFC3339),
		Source:            Source,
	})
}

func NormalizeClaim(req model.ClaimRequest, now time.Time) ([]byte, error) {
	return json.Marshal(wireClaimRequest{
		ClaimRequest: req,
		Timestamp:    now.UTC().Format(time.RFC3339),
		Source:       Source,
	})
}
