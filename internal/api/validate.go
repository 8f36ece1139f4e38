package api

import (
	"fmt"

	"quotehub/internal/model"
)

func validateQuoteRequest(req *model.QuoteRequest) error {
	switch req.ProductType {
	case model.ProductAuto, model.ProductHomeowners, model.ProductRenters, model.ProductLife:
	case "":
		return fmt.Errorf("productType is required")
	default:
		return fmt.Errorf("unknown productType: %s", req.ProductType)
	}
	if req.CustomerID == "" {
		return fmt.Errorf("customerId is required")
	}
	if req.Applicant.Address.State == "" {
		return fmt.Errorf("applicant.address.state is required")
	}
	if req.Applicant.DateOfBirth == "" {
		return fmt.Errorf("applicant.dateOfBirth is required")
	}
	if req.ProductType == model.ProductAuto && req.Vehicle == nil {
		return fmt.Errorf("vehicle is required for auto quotes")
	}
	if (req.ProductType == model.ProductHomeowners || req.ProductType == model.ProductRenters) && req.Property == nil {
		return fmt.Errorf("property is required for %s quotes", req.ProductType)
	}
	return nil
}

func validateBindRequest(req *model.PolicyBindRequest) error {
	if req.QuoteID == "" {
		return fmt.Errorf("quoteId is required")
	}
	if req.CustomerID == "" {
		return fmt.Errorf("customerId is required")
	}
	if req.Payment.Method == "" {
		return fmt.Errorf("payment.method is required")
	}
	return nil
}

func validateClaimRequest(req *model.ClaimRequest) error {
	if req.PolicyNumber == "" {
		return fmt.Errorf("policyNumber is required")
	}
	if req.Type == "" {
		return fmt.Errorf("type is required")
	}
	if req.IncidentDate == "" {
		return fmt.Errorf("incidentDate is required")
	}
	return nil
}
