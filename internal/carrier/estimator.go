package carrier

import (
	"fmt"
	"math"
	"time"

	"quotehub/internal/model"
)

// Base annual premiums per product type, in whole currency units.
var basePremiums = map[string]float64{
	model.ProductAuto:       800,
	model.ProductHomeowners: 1200,
	model.ProductRenters:    240,
	model.ProductLife:       480,
}

// Historical competitiveness factors per carrier.
var carrierMultipliers = map[string]float64{
	"geico":         0.85,
	"progressive":   0.92,
	"statefarm":     1.00,
	"allstate":      1.05,
	"libertymutual": 0.95,
}

// Multiplier returns the carrier's competitiveness factor, 1.0 when unknown.
func Multiplier(carrierID string) float64 {
	if m, ok := carrierMultipliers[carrierID]; ok {
		return m
	}
	return 1.0
}

// EstimatePremium computes the deterministic fallback annual premium. Pure:
// no I/O, no hidden clock — now feeds only the age computations. Output is
// rounded to the nearest whole currency unit and never fails.
func EstimatePremium(carrierID string, req model.QuoteRequest, now time.Time) float64 {
	base, ok := basePremiums[req.ProductType]
	if !ok {
		base = basePremiums[model.ProductAuto]
	}
	premium := base * Multiplier(carrierID)

	if age := applicantAge(req.Applicant.DateOfBirth, now); age > 0 {
		switch {
		case age < 25:
			premium *= 1.5
		case age > 65:
			premium *= 1.2
		}
	}
	if req.Vehicle != nil && req.Vehicle.Year > 0 {
		switch vehicleAge := now.Year() - req.Vehicle.Year; {
		case vehicleAge < 3:
			premium *= 1.2
		case vehicleAge > 10:
			premium *= 0.8
		}
	}
	return math.Round(premium)
}

// PaymentSchedule derives the installment breakdown from the annual figure
// by fixed ratios; the sub-annual terms carry the installment load.
func PaymentSchedule(annual float64) model.Premium {
	return model.Premium{
		Annual:     annual,
		SemiAnnual: math.Round(annual * 0.52),
		Quarterly:  math.Round(annual * 0.27),
		Monthly:    math.Round(annual * 0.09),
	}
}

const (
	policyFee      = 25
	installmentFee = 5
)

func feesFor(p model.Premium) model.Fees {
	return model.Fees{
		PolicyFee:      policyFee,
		InstallmentFee: installmentFee,
		DownPayment:    2 * p.Monthly,
	}
}

// fallbackValidity is the shortened window on synthesized estimates.
const fallbackValidity = 24 * time.Hour

// FallbackQuote builds the estimate returned when a live carrier call cannot
// be completed. It carries a synthetic FALLBACK_ quote id, a 24-hour validity
// window, an empty discount list, and IsFallback set.
func FallbackQuote(cfg model.CarrierConfig, req model.QuoteRequest, now time.Time) model.QuoteResponse {
	annual := EstimatePremium(cfg.ID, req, now)
	premium := PaymentSchedule(annual)
	until := now.Add(fallbackValidity).UTC().Format(time.RFC3339)

	factors := []model.RatingFactor{
		{Name: "carrier_factor", Value: fmt.Sprintf("%.2f", Multiplier(cfg.ID)), Impact: impactOf(Multiplier(cfg.ID))},
	}
	if age := applicantAge(req.Applicant.DateOfBirth, now); age > 0 {
		switch {
		case age < 25:
			factors = append(factors, model.RatingFactor{Name: "age", Value: fmt.Sprintf("%d", age), Impact: "increase"})
		case age > 65:
			factors = append(factors, model.RatingFactor{Name: "age", Value: fmt.Sprintf("%d", age), Impact: "increase"})
		default:
			factors = append(factors, model.RatingFactor{Name: "age", Value: fmt.Sprintf("%d", age), Impact: "neutral"})
		}
	}
	if req.Vehicle != nil && req.Vehicle.Year > 0 {
		factors = append(factors, model.RatingFactor{Name: "vehicle_age", Value: fmt.Sprintf("%d", now.Year()-req.Vehicle.Year), Impact: impactOfVehicleAge(now.Year() - req.Vehicle.Year)})
	}

	return model.QuoteResponse{
		QuoteID:       fmt.Sprintf("FALLBACK_%s_%d", cfg.ID, now.UnixMilli()),
		CarrierID:     cfg.ID,
		CarrierName:   cfg.Name,
		ProductType:   req.ProductType,
		Premium:       premium,
		Fees:          feesFor(premium),
		Discounts:     []model.AppliedDiscount{},
		BindableUntil: until,
		ValidUntil:    until,
		RatingFactors: factors,
		IsFallback:    true,
	}
}

func impactOf(mult float64) string {
	switch {
	case mult < 1.0:
		return "decrease"
	case mult > 1.0:
		return "increase"
	}
	return "neutral"
}

func impactOfVehicleAge(years int) string {
	switch {
	case years < 3:
		return "increase"
	case years > 10:
		return "decrease"
	}
	return "neutral"
}

// applicantAge returns whole years since dob (YYYY-MM-DD), 0 when unparseable.
func applicantAge(dob string, now time.Time) int {
	t, err := time.Parse("2006-01-02", dob)
	if err != nil {
		return 0
	}
	age := now.Year() - t.Year()
	if now.YearDay() < t.YearDay() {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}
