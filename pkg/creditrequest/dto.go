package creditrequest

import (
	"time"

	"github.com/Abraxas-365/credit-intake/pkg/kernel"
)

// CreateRequest is submitted by a requester for themselves. New requests
// always start in StatusCreated.
type CreateRequest struct {
	CreditType      CreditType   `json:"credit_type"`
	TerminationDate kernel.Date  `json:"termination_date"`
	Amount          kernel.Money `json:"amount"`
	HasGuarantee    bool         `json:"has_guarantee"`
	GuaranteeValue  kernel.Money `json:"guarantee_value"`
}

func (r *CreateRequest) Validate(now time.Time) error {
	fields := map[string]string{}

	if !r.CreditType.IsValid() {
		fields["credit_type"] = "credit_type must be one of personal, chattel, mortgage"
	}
	switch {
	case r.TerminationDate.IsZero():
		fields["termination_date"] = "termination_date is required"
	case !now.Before(r.TerminationDate.Time):
		fields["termination_date"] = "termination_date must be in the future"
	}
	if r.Amount <= 0 {
		fields["amount"] = "amount must be greater than zero"
	}
	switch {
	case r.GuaranteeValue < 0:
		fields["guarantee_value"] = "guarantee_value must not be negative"
	case r.HasGuarantee && r.GuaranteeValue == 0:
		fields["guarantee_value"] = "guarantee_value is required when has_guarantee is set"
	case !r.HasGuarantee && r.GuaranteeValue != 0:
		fields["guarantee_value"] = "guarantee_value requires has_guarantee"
	}

	if len(fields) > 0 {
		return ErrInvalidPayload(fields)
	}
	return nil
}

func (r *CreateRequest) ToEntity(requesterID kernel.RequesterID) *CreditRequest {
	return &CreditRequest{
		ID:              kernel.NewCreditRequestID(),
		RequesterID:     requesterID,
		CreditType:      r.CreditType,
		Status:          StatusCreated,
		TerminationDate: r.TerminationDate,
		Amount:          r.Amount,
		HasGuarantee:    r.HasGuarantee,
		GuaranteeValue:  r.GuaranteeValue,
	}
}

// StatusChange is the body of a status update.
type StatusChange struct {
	Status Status `json:"status"`
}

func (r *StatusChange) Validate() error {
	if !r.Status.IsValid() {
		return ErrInvalidPayload(map[string]string{"status": "status is not a known credit request status"})
	}
	return nil
}

// Actor is who asks for a status change. RequesterID is set when the
// caller is a requester.
type Actor struct {
	Role        string
	RequesterID kernel.RequesterID
}
