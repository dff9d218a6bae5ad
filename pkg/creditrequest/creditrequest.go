// Package creditrequest holds credit requests and their review workflow.
package creditrequest

import (
	"net/http"
	"strings"
	"time"

	"github.com/Abraxas-365/credit-intake/pkg/errx"
	"github.com/Abraxas-365/credit-intake/pkg/iam"
	"github.com/Abraxas-365/credit-intake/pkg/kernel"
)

// ============================================================================
// Errors
// ============================================================================

var ErrRegistry = errx.NewRegistry("CREDIT_REQUEST")

var (
	CodeNotFound            = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Credit request not found")
	CodeInvalidPayload      = ErrRegistry.Register("INVALID_REQUEST_PAYLOAD", errx.TypeValidation, http.StatusBadRequest, "Invalid request payload")
	CodeInvalidTransition   = ErrRegistry.Register("INVALID_TRANSITION", errx.TypeConflict, http.StatusConflict, "Status change is not allowed")
	CodeTransitionForbidden = ErrRegistry.Register("TRANSITION_FORBIDDEN", errx.TypeForbidden, http.StatusForbidden, "Role may not set this status")
	CodeRequesterNotFound   = ErrRegistry.Register("REQUESTER_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Requester not found")
)

func ErrNotFound() *errx.Error {
	return ErrRegistry.New(CodeNotFound)
}

// ErrInvalidPayload lists every rejected field with its reason.
func ErrInvalidPayload(fields map[string]string) *errx.Error {
	return ErrRegistry.New(CodeInvalidPayload).WithDetail("fields", fields)
}

func ErrInvalidTransition(from, to Status) *errx.Error {
	return ErrRegistry.New(CodeInvalidTransition).
		WithDetail("from", from).
		WithDetail("to", to)
}

func ErrTransitionForbidden(to Status) *errx.Error {
	return ErrRegistry.New(CodeTransitionForbidden).WithDetail("to", to)
}

func ErrRequesterNotFound() *errx.Error {
	return ErrRegistry.New(CodeRequesterNotFound)
}

// ============================================================================
// Credit type
// ============================================================================

type CreditType string

const (
	CreditPersonal CreditType = "personal"
	CreditChattel  CreditType = "chattel"
	CreditMortgage CreditType = "mortgage"
)

func (t CreditType) IsValid() bool {
	switch t {
	case CreditPersonal, CreditChattel, CreditMortgage:
		return true
	}
	return false
}

// ============================================================================
// Status
// ============================================================================

type Status string

const (
	StatusCreated    Status = "created"
	StatusInReview   Status = "in_review"
	StatusApproved   Status = "approved"
	StatusNoApproved Status = "no_approved"
	StatusAccepted   Status = "accepted"
	StatusRejected   Status = "rejected"
	StatusCompleted  Status = "completed"
)

// transitions is the review graph. Statuses without an entry are terminal.
var transitions = map[Status][]Status{
	StatusCreated:  {StatusInReview},
	StatusInReview: {StatusApproved, StatusNoApproved},
	StatusApproved: {StatusAccepted, StatusRejected},
	StatusAccepted: {StatusCompleted},
}

func (s Status) IsValid() bool {
	switch s {
	case StatusCreated, StatusInReview, StatusApproved, StatusNoApproved,
		StatusAccepted, StatusRejected, StatusCompleted:
		return true
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s.IsValid() && len(transitions[s]) == 0
}

// CanTransitionTo reports whether next directly follows s.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// setBy lists the roles that may move a request into each status.
// Supervisors decide approval; the requester answers the offer.
var setBy = map[Status][]string{
	StatusInReview:   {iam.RoleAnalyst, iam.RoleSupervisor},
	StatusApproved:   {iam.RoleSupervisor},
	StatusNoApproved: {iam.RoleSupervisor},
	StatusAccepted:   {iam.RoleRequester},
	StatusRejected:   {iam.RoleRequester},
	StatusCompleted:  {iam.RoleAnalyst, iam.RoleSupervisor},
}

// SettableBy reports whether a caller holding role may set s.
func (s Status) SettableBy(role string) bool {
	for _, r := range setBy[s] {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// ============================================================================
// Entity
// ============================================================================

// CreditRequest is one application for credit by a requester.
type CreditRequest struct {
	ID              kernel.CreditRequestID `json:"id"`
	RequesterID     kernel.RequesterID     `json:"requester_id"`
	CreditType      CreditType             `json:"credit_type"`
	Status          Status                 `json:"status"`
	TerminationDate kernel.Date            `json:"termination_date"`
	Amount          kernel.Money           `json:"amount"`
	HasGuarantee    bool                   `json:"has_guarantee"`
	GuaranteeValue  kernel.Money           `json:"guarantee_value"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// MoveTo applies a status change after checking the graph.
func (c *CreditRequest) MoveTo(next Status) error {
	if !c.Status.CanTransitionTo(next) {
		return ErrInvalidTransition(c.Status, next)
	}
	c.Status = next
	return nil
}
