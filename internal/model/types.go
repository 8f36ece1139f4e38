package model

import "time"

// Product types offered across carriers.
const (
	ProductAuto       = "auto"
	ProductHomeowners = "homeowners"
	ProductRenters    = "renters"
	ProductLife       = "life"
)

// Logical endpoints exposed by every carrier under its base URL.
const (
	EndpointQuote = "quote"
	EndpointBind  = "bind"
	EndpointClaim = "claim"
)

// InsuranceProduct describes one product a carrier offers.
type InsuranceProduct struct {
	Type              string             `json:"type" yaml:"type"`
	AvailableStates   []string           `json:"availableStates" yaml:"availableStates"`
	MinCoverageLimits map[string]float64 `json:"minCoverageLimits,omitempty" yaml:"minCoverageLimits,omitempty"`
	DiscountCodes     []string           `json:"discountCodes,omitempty" yaml:"discountCodes,omitempty"`
}

// CarrierConfig is the identity and capability descriptor for one carrier.
// Constructed once at startup and immutable thereafter.
type CarrierConfig struct {
	ID                  string             `json:"id" yaml:"id"`
	Name                string             `json:"name" yaml:"name"`
	APIEndpoint         string             `json:"apiEndpoint" yaml:"apiEndpoint"`
	APIKey              string             `json:"-" yaml:"apiKey,omitempty"`
	Environment         string             `json:"environment" yaml:"environment"` // sandbox | production
	Products            []InsuranceProduct `json:"products" yaml:"products"`
	RatingFactors       []string           `json:"ratingFactors,omitempty" yaml:"ratingFactors,omitempty"`
	BindingCapabilities bool               `json:"bindingCapabilities" yaml:"bindingCapabilities"`
	ClaimsSupport       bool               `json:"claimsSupport" yaml:"claimsSupport"`
}

// Offers reports whether the carrier sells productType in state.
func (c CarrierConfig) Offers(productType, state string) bool {
	for _, p := range c.Products {
		if p.Type != productType {
			continue
		}
		for _, s := range p.AvailableStates {
			if s == state {
				return true
			}
		}
	}
	return false
}

// CarrierAPIConfig holds connection parameters for one carrier's API.
// One-to-one with CarrierConfig by carrier id; immutable after construction.
type CarrierAPIConfig struct {
	BaseURL   string
	APIKey    string
	PartnerID string
	Timeout   time.Duration
	Headers   map[string]string
	// MaxRPS caps outbound calls per second to this carrier; 0 means unlimited.
	MaxRPS float64
}

// Address is a US mailing address.
type Address struct {
	Street string `json:"street,omitempty"`
	City   string `json:"city,omitempty"`
	State  string `json:"state"`
	Zip    string `json:"zip,omitempty"`
}

// ApplicantInfo carries applicant identity plus optional underwriting fields.
type ApplicantInfo struct {
	FirstName      string   `json:"firstName"`
	LastName       string   `json:"lastName"`
	DateOfBirth    string   `json:"dateOfBirth"` // YYYY-MM-DD
	Email          string   `json:"email,omitempty"`
	Phone          string   `json:"phone,omitempty"`
	Address        Address  `json:"address"`
	SSN            string   `json:"ssn,omitempty"`
	LicenseNumber  string   `json:"licenseNumber,omitempty"`
	CreditScore    int      `json:"creditScore,omitempty"`
	PriorInsurance []string `json:"priorInsurance,omitempty"`
}

type VehicleInfo struct {
	VIN     string `json:"vin,omitempty"`
	Year    int    `json:"year"`
	Make    string `json:"make,omitempty"`
	Model   string `json:"model,omitempty"`
	Mileage int    `json:"mileage,omitempty"`
	Usage   string `json:"usage,omitempty"` // commute, pleasure, business
}

type PropertyInfo struct {
	Type             string   `json:"type,omitempty"` // single_family, condo, townhouse
	YearBuilt        int      `json:"yearBuilt"`
	SquareFeet       int      `json:"squareFeet,omitempty"`
	ConstructionType string   `json:"constructionType,omitempty"`
	RoofType         string   `json:"roofType,omitempty"`
	SecurityFeatures []string `json:"securityFeatures,omitempty"`
}

// CoverageRequest lists desired limits; only the fields relevant to the
// product type are populated.
type CoverageRequest struct {
	LiabilityLimit          float64 `json:"liabilityLimit,omitempty"`
	CollisionDeductible     float64 `json:"collisionDeductible,omitempty"`
	ComprehensiveDeductible float64 `json:"comprehensiveDeductible,omitempty"`
	DwellingCoverage        float64 `json:"dwellingCoverage,omitempty"`
	PersonalProperty        float64 `json:"personalProperty,omitempty"`
	LifeFaceAmount          float64 `json:"lifeFaceAmount,omitempty"`
}

// QuoteRequest is the caller-supplied, product-agnostic quote input.
// Exactly one of Vehicle/Property is meaningful per product type.
type QuoteRequest struct {
	QuoteID       string          `json:"quoteId,omitempty"`
	CustomerID    string          `json:"customerId"`
	ProductType   string          `json:"productType"`
	Applicant     ApplicantInfo   `json:"applicant"`
	Vehicle       *VehicleInfo    `json:"vehicle,omitempty"`
	Property      *PropertyInfo   `json:"property,omitempty"`
	Coverage      CoverageRequest `json:"coverage"`
	EffectiveDate string          `json:"effectiveDate,omitempty"`
}

// Premium is the payment-schedule breakdown. Semi-annual, quarterly and
// monthly figures are derived from the annual figure by fixed ratios that
// carry the installment load, not independently priced.
type Premium struct {
	Annual     float64 `json:"annual"`
	SemiAnnual float64 `json:"semiAnnual"`
	Quarterly  float64 `json:"quarterly"`
	Monthly    float64 `json:"monthly"`
}

type Fees struct {
	PolicyFee      float64 `json:"policyFee"`
	InstallmentFee float64 `json:"installmentFee"`
	DownPayment    float64 `json:"downPayment"`
}

type CoverageDetail struct {
	Limit      float64 `json:"limit,omitempty"`
	Deductible float64 `json:"deductible,omitempty"`
}

type AppliedDiscount struct {
	Code   string  `json:"code"`
	Name   string  `json:"name,omitempty"`
	Amount float64 `json:"amount"`
}

type RatingFactor struct {
	Name   string `json:"name"`
	Value  string `json:"value,omitempty"`
	Impact string `json:"impact,omitempty"` // increase, decrease, neutral
}

type QuoteDocument struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
	URL  string `json:"url"`
}

type BindingInfo struct {
	RequiresSignature   bool     `json:"requiresSignature"`
	DownPaymentRequired float64  `json:"downPaymentRequired,omitempty"`
	PaymentMethods      []string `json:"paymentMethods,omitempty"`
}

// QuoteResponse is one carrier's answer to a quote request. IsFallback marks
// deterministic estimates produced when the live carrier call failed; callers
// surface that distinction to the end user.
type QuoteResponse struct {
	QuoteID       string                    `json:"quoteId"`
	CarrierID     string                    `json:"carrierId"`
	CarrierName   string                    `json:"carrierName"`
	ProductType   string                    `json:"productType"`
	Premium       Premium                   `json:"premium"`
	Fees          Fees                      `json:"fees"`
	Coverage      map[string]CoverageDetail `json:"coverage,omitempty"`
	Discounts     []AppliedDiscount         `json:"discounts"`
	BindableUntil string                    `json:"bindableUntil"`
	ValidUntil    string                    `json:"validUntil"`
	RatingFactors []RatingFactor            `json:"ratingFactors,omitempty"`
	Documents     []QuoteDocument           `json:"documents,omitempty"`
	Binding       *BindingInfo              `json:"binding,omitempty"`
	IsFallback    bool                      `json:"isFallback"`
}

type PaymentInfo struct {
	Method        string `json:"method"` // card, ach
	AccountLast4  string `json:"accountLast4,omitempty"`
	BillingScheme string `json:"billingScheme,omitempty"` // annual, monthly
	Token         string `json:"token,omitempty"`
}

// PolicyBindRequest binds a previously returned quote into an active policy.
type PolicyBindRequest struct {
	QuoteID         string      `json:"quoteId"`
	CustomerID      string      `json:"customerId"`
	Payment         PaymentInfo `json:"payment"`
	SignedDocuments []string    `json:"signedDocuments,omitempty"`
	EffectiveDate   string      `json:"effectiveDate,omitempty"`
}

type PolicyBindResponse struct {
	PolicyNumber       string `json:"policyNumber"`
	ConfirmationNumber string `json:"confirmationNumber"`
	CarrierID          string `json:"carrierId"`
	QuoteID            string `json:"quoteId"`
	Status             string `json:"status"`
	EffectiveDate      string `json:"effectiveDate,omitempty"`
}

// ClaimRequest submits a claim against an existing policy number.
type ClaimRequest struct {
	PolicyNumber    string  `json:"policyNumber"`
	CustomerID      string  `json:"customerId"`
	Type            string  `json:"type"` // collision, theft, water, fire, ...
	Description     string  `json:"description,omitempty"`
	IncidentDate    string  `json:"incidentDate"`
	EstimatedAmount float64 `json:"estimatedAmount,omitempty"`
}

type ClaimResponse struct {
	ClaimNumber     string `json:"claimNumber"`
	PolicyNumber    string `json:"policyNumber"`
	CarrierID       string `json:"carrierId"`
	Status          string `json:"status"`
	AdjusterContact string `json:"adjusterContact,omitempty"`
}

// Subscription registers a webhook endpoint for quote lifecycle events.
type SubscriptionRequest struct {
	TenantID string   `json:"tenantId"`
	URL      string   `json:"url"`
	Events   []string `json:"events"`
	Secret   string   `json:"secret"`
}

type Subscription struct {
	ID       string   `json:"id"`
	TenantID string   `json:"tenantId"`
	URL      string   `json:"url"`
	Events   []string `json:"events"`
	Secret   string   `json:"secret,omitempty"`
}
