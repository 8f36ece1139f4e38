package carrier

import (
	"encoding/json"
	"testing"

	"quotehub/internal/model"
)

func TestNormalizeQuote_AutoKeepsVehicleOnly(t *testing.T) {
	req := autoRequest("1995-01-15", 2020)
	req.Property = &model.PropertyInfo{YearBuilt: 1990} // stray field from the caller

	data, err := NormalizeQuote(req, estNow)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := m["vehicle"]; !ok {
		t.Fatal("auto payload missing vehicle")
	}
	if _, ok := m["property"]; ok {
		t.Fatal("auto payload should not carry property")
	}
	if m["source"] != "quotehub" {
		t.Fatalf("source: got %v", m["source"])
	}
	if m["timestamp"] == "" || m["timestamp"] == nil {
		t.Fatal("missing timestamp")
	}
}

func TestNormalizeQuote_RentersKeepsPropertyOnly(t *testing.T) {
	req := model.QuoteRequest{
		CustomerID:  "cust_1",
		ProductType: model.ProductRenters,
		Applicant:   model.ApplicantInfo{DateOfBirth: "1990-03-01", Address: model.Address{State: "WA"}},
		Vehicle:     &model.VehicleInfo{Year: 2020},
		Property:    &model.PropertyInfo{YearBuilt: 2005},
	}
	data, err := NormalizeQuote(req, estNow)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	var m map[string]any
	_ = json.Unmarshal(data, &m)
	if _, ok := m["property"]; !ok {
		t.Fatal("renters payload missing property")
	}
	if _, ok := m["vehicle"]; ok {
		t.Fatal("renters payload should not carry vehicle")
	}
}

func TestNormalizeQuote_LifeDropsRiskObjects(t *testing.T) {
	req := model.QuoteRequest{
		CustomerID:  "cust_1",
		ProductType: model.ProductLife,
		Applicant:   model.ApplicantInfo{DateOfBirth: "1980-07-04", Address: model.Address{State: "NY"}},
		Vehicle:     &model.VehicleInfo{Year: 2020},
		Property:    &model.PropertyInfo{YearBuilt: 2005},
	}
	data, err := NormalizeQuote(req, estNow)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	var m map[string]any
	_ = json.Unmarshal(data, &m)
	if _, ok := m["vehicle"]; ok {
		t.Fatal("life payload should not carry vehicle")
	}
	if _, ok := m["property"]; ok {
		t.Fatal("life payload should not carry property")
	}
}

func TestNormalizeBindAndClaim_CarrySourceAndTimestamp(t *testing.T) {
	bind, err := NormalizeBind(model.PolicyBindRequest{QuoteID: "q1", CustomerID: "c1", Payment: model.PaymentInfo{Method: "ach"}}, estNow)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	var bm map[string]any
	_ = json.Unmarshal(bind, &bm)
	if bm["source"] != "quotehub" || bm["timestamp"] == nil {
		t.Fatalf("bind payload: %v", bm)
	}

	claim, err := NormalizeClaim(model.ClaimRequest{PolicyNumber: "PN-1", CustomerID: "c1", Type: "theft", IncidentDate: "2025-05-01"}, estNow)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	var cm map[string]any
	_ = json.Unmarshal(claim, &cm)
	if cm["source"] != "quotehub" || cm["timestamp"] == nil {
		t.Fatalf("claim payload: %v", cm)
	}
}
