package carrier

import (
	"math"
	"strings"
	"testing"
	"time"

	"quotehub/internal/model"
)

var estNow = time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC)

func autoRequest(dob string, vehicleYear int) model.QuoteRequest {
	return model.QuoteRequest{
		CustomerID:  "cust_1",
		ProductType: model.ProductAuto,
		Applicant: model.ApplicantInfo{
			FirstName:   "Ada",
			LastName:    "Reyes",
			DateOfBirth: dob,
			Address:     model.Address{State: "CA"},
		},
		Vehicle: &model.VehicleInfo{Year: vehicleYear, Make: "Honda", Model: "Civic"},
	}
}

func TestEstimatePremium_BaseCase(t *testing.T) {
	// 30-year-old, 5-year-old vehicle: no adjustments, 800 * 0.85 = 680
	got := EstimatePremium("geico", autoRequest("1995-01-15", 2020), estNow)
	if got != 680 {
		t.Fatalf("premium: got %v, want 680", got)
	}
}

func TestEstimatePremium_AgeAdjustments(t *testing.T) {
	young := EstimatePremium("geico", autoRequest("2003-01-15", 2020), estNow)
	if young != 1020 { // 680 * 1.5
		t.Fatalf("young driver: got %v, want 1020", young)
	}
	senior := EstimatePremium("geico", autoRequest("1955-01-15", 2020), estNow)
	if senior != 816 { // 680 * 1.2
		t.Fatalf("senior driver: got %v, want 816", senior)
	}
}

func TestEstimatePremium_VehicleAgeAdjustments(t *testing.T) {
	newCar := EstimatePremium("geico", autoRequest("1995-01-15", 2024), estNow)
	if newCar != 816 { // 680 * 1.2
		t.Fatalf("new vehicle: got %v, want 816", newCar)
	}
	oldCar := EstimatePremium("geico", autoRequest("1995-01-15", 2010), estNow)
	if oldCar != 544 { // 680 * 0.8
		t.Fatalf("old vehicle: got %v, want 544", oldCar)
	}
}

func TestEstimatePremium_UnknownCarrierUsesNeutralMultiplier(t *testing.T) {
	got := EstimatePremium("acme", autoRequest("1995-01-15", 2020), estNow)
	if got != 800 {
		t.Fatalf("unknown carrier: got %v, want 800", got)
	}
}

func TestEstimatePremium_Deterministic(t *testing.T) {
	req := autoRequest("1995-01-15", 2020)
	a := EstimatePremium("progressive", req, estNow)
	b := EstimatePremium("progressive", req, estNow)
	if a != b {
		t.Fatalf("estimate not deterministic: %v vs %v", a, b)
	}
}

func TestApplicantAge_BirthdayNotYetReached(t *testing.T) {
	// Born late in the year; as of June the birthday hasn't happened yet.
	if age := applicantAge("2000-12-01", estNow); age != 24 {
		t.Fatalf("age: got %d, want 24", age)
	}
	if age := applicantAge("not-a-date", estNow); age != 0 {
		t.Fatalf("unparseable dob: got %d, want 0", age)
	}
}

func TestPaymentSchedule(t *testing.T) {
	p := PaymentSchedule(680)
	if p.SemiAnnual != 354 || p.Quarterly != 184 || p.Monthly != 61 {
		t.Fatalf("schedule: got %+v", p)
	}
	// Installment terms carry a load: twelve monthly payments come to about
	// 8% over the annual figure.
	if diff := math.Abs(p.Monthly*12 - p.Annual*1.08); diff > 12 {
		t.Fatalf("monthly load out of range: %v", diff)
	}
}

func TestFallbackQuote(t *testing.T) {
	cfg := model.CarrierConfig{ID: "geico", Name: "GEICO"}
	q := FallbackQuote(cfg, autoRequest("1995-01-15", 2020), estNow)

	if !strings.HasPrefix(q.QuoteID, "FALLBACK_geico_") {
		t.Fatalf("quote id: got %q", q.QuoteID)
	}
	if !q.IsFallback {
		t.Fatal("expected IsFallback")
	}
	if q.Premium.Annual != 680 || q.Premium.Monthly != 61 {
		t.Fatalf("premium: got %+v", q.Premium)
	}
	if q.Discounts == nil || len(q.Discounts) != 0 {
		t.Fatalf("discounts should be empty, got %v", q.Discounts)
	}
	if q.Fees.DownPayment != 2*q.Premium.Monthly {
		t.Fatalf("down payment: got %v", q.Fees.DownPayment)
	}
	wantUntil := estNow.Add(24 * time.Hour).UTC().Format(time.RFC3339)
	if q.ValidUntil != wantUntil || q.BindableUntil != wantUntil {
		t.Fatalf("validity: got %q / %q, want %q", q.ValidUntil, q.BindableUntil, wantUntil)
	}
	if len(q.RatingFactors) == 0 {
		t.Fatal("expected rating factors on fallback quote")
	}
}
