package requester

import (
	"net/http"
	"time"

	"github.com/Abraxas-365/credit-intake/pkg/errx"
	"github.com/Abraxas-365/credit-intake/pkg/kernel"
)

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("REQUESTER")

var (
	CodeDuplicateIdentity     = ErrRegistry.Register("DUPLICATE_IDENTITY", errx.TypeValidation, http.StatusBadRequest, "User already exists")
	CodeWeakCredential        = ErrRegistry.Register("WEAK_CREDENTIAL", errx.TypeValidation, http.StatusBadRequest, "Password does not meet policy")
	CodeIdentityProviderError = ErrRegistry.Register("IDENTITY_PROVIDER_ERROR", errx.TypeValidation, http.StatusBadRequest, "Identity provider error")
	CodePersistenceFailure    = ErrRegistry.Register("PERSISTENCE_FAILURE", errx.TypeInternal, http.StatusInternalServerError, "Could not create requester")
	CodeNotFound              = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Requester not found")
	CodeAlreadyExists         = ErrRegistry.Register("ALREADY_EXISTS", errx.TypeConflict, http.StatusConflict, "Requester already exists")
	CodeInvalidPayload        = ErrRegistry.Register("INVALID_REQUEST_PAYLOAD", errx.TypeValidation, http.StatusBadRequest, "Invalid request payload")
	CodeInvalidDocument       = ErrRegistry.Register("INVALID_DOCUMENT", errx.TypeValidation, http.StatusBadRequest, "Invalid document")
	CodeDocumentUploadFailed  = ErrRegistry.Register("DOCUMENT_UPLOAD_FAILED", errx.TypeExternal, http.StatusBadGateway, "Could not store document")
)

func ErrDuplicateIdentity() *errx.Error {
	return ErrRegistry.New(CodeDuplicateIdentity)
}

func ErrWeakCredential() *errx.Error {
	return ErrRegistry.New(CodeWeakCredential)
}

// ErrIdentityProvider carries the provider's error name as message.
func ErrIdentityProvider(name string) *errx.Error {
	return ErrRegistry.NewWithMessage(CodeIdentityProviderError, name)
}

func ErrPersistenceFailure(cause error) *errx.Error {
	return ErrRegistry.NewWithCause(CodePersistenceFailure, cause)
}

func ErrNotFound() *errx.Error {
	return ErrRegistry.New(CodeNotFound)
}

func ErrAlreadyExists() *errx.Error {
	return ErrRegistry.New(CodeAlreadyExists)
}

// ErrInvalidPayload lists every rejected field with its reason.
func ErrInvalidPayload(fields map[string]string) *errx.Error {
	return ErrRegistry.New(CodeInvalidPayload).WithDetail("fields", fields)
}

func ErrInvalidDocument(reason string) *errx.Error {
	return ErrRegistry.NewWithMessage(CodeInvalidDocument, reason)
}

func ErrDocumentUploadFailed(cause error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeDocumentUploadFailed, cause)
}

// ============================================================================
// Entity
// ============================================================================

// Gender as recorded on the CURP.
const (
	GenderMale   = "M"
	GenderFemale = "F"
)

// Requester is a person applying for credit. The password never reaches
// this type; it lives only in the identity provider.
type Requester struct {
	ID                 kernel.RequesterID
	CURP               string
	RFC                string
	Firstname          string
	Lastname           string
	MonthlyIncome      kernel.Money
	Email              string
	Sub                string // identity provider subject, may be empty
	Address            string
	Gender             string
	HasINE             bool
	HasBirth           bool
	HasDomicile        bool
	HasGuarantee       bool
	CountChildren      int
	CountAdults        int
	CountFamilyMembers int
	CivilStatus        string
	EducationLevel     string
	OccupationType     int
	DaysEmployed       int
	Birthdate          kernel.Date
	HasOwnCar          bool
	HasOwnRealty       bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// FullName is the display name registered with the identity provider.
func (r *Requester) FullName() string {
	return r.Firstname + " " + r.Lastname
}

// ============================================================================
// KYC documents
// ============================================================================

// DocumentKind names a KYC document a requester can upload.
type DocumentKind string

const (
	DocumentINE       DocumentKind = "ine"
	DocumentBirth     DocumentKind = "birth"
	DocumentDomicile  DocumentKind = "domicile"
	DocumentGuarantee DocumentKind = "guarantee"
)

func (k DocumentKind) IsValid() bool {
	switch k {
	case DocumentINE, DocumentBirth, DocumentDomicile, DocumentGuarantee:
		return true
	}
	return false
}

// MarkDocument flips the has_* flag matching kind.
func (r *Requester) MarkDocument(kind DocumentKind) {
	switch kind {
	case DocumentINE:
		r.HasINE = true
	case DocumentBirth:
		r.HasBirth = true
	case DocumentDomicile:
		r.HasDomicile = true
	case DocumentGuarantee:
		r.HasGuarantee = true
	}
}
