package requester

import (
	"context"

	"github.com/Abraxas-365/credit-intake/pkg/kernel"
)

// Lookup selects one requester. Exactly one field is set.
type Lookup struct {
	ID    kernel.RequesterID
	Sub   string
	Email string
}

func ByID(id kernel.RequesterID) Lookup { return Lookup{ID: id} }
func BySub(sub string) Lookup          { return Lookup{Sub: sub} }
func ByEmail(email string) Lookup      { return Lookup{Email: email} }

// Repository persists requesters. Create maps unique violations on email,
// curp or rfc to ErrAlreadyExists; FindOne, Update and Delete return
// ErrNotFound when nothing matches.
type Repository interface {
	kernel.Repository[Requester, Lookup]
}

// Service is the requester use case consumed by requesterapi.
type Service interface {
	Register(ctx context.Context, req CreateRequest) (*RegisterResult, error)
	Get(ctx context.Context, id kernel.RequesterID) (*View, error)
	GetBySub(ctx context.Context, sub string) (*View, error)
	Update(ctx context.Context, id kernel.RequesterID, req UpdateRequest) (*View, error)
	Delete(ctx context.Context, id kernel.RequesterID) error
	UploadDocument(ctx context.Context, id kernel.RequesterID, doc DocumentUpload) (*View, error)
}
