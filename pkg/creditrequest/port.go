package creditrequest

import (
	"context"

	"github.com/Abraxas-365/credit-intake/pkg/kernel"
)

// Lookup selects one credit request by id.
type Lookup struct {
	ID kernel.CreditRequestID
}

// Repository persists credit requests. Create maps a missing requester to
// ErrRequesterNotFound; FindOne, Update and Delete return ErrNotFound when
// nothing matches.
type Repository interface {
	kernel.Repository[CreditRequest, Lookup]
	ListByRequester(ctx context.Context, requesterID kernel.RequesterID, opts kernel.PaginationOptions) (kernel.Paginated[CreditRequest], error)
}

// Service is the credit request use case consumed by creditrequestapi.
type Service interface {
	Create(ctx context.Context, requesterID kernel.RequesterID, req CreateRequest) (*CreditRequest, error)
	Get(ctx context.Context, id kernel.CreditRequestID) (*CreditRequest, error)
	ListByRequester(ctx context.Context, requesterID kernel.RequesterID, opts kernel.PaginationOptions) (kernel.Paginated[CreditRequest], error)
	ChangeStatus(ctx context.Context, id kernel.CreditRequestID, to Status, actor Actor) (*CreditRequest, error)
}
