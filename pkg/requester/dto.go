package requester

import (
	"io"
	"net/mail"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/Abraxas-365/credit-intake/pkg/iam"
	"github.com/Abraxas-365/credit-intake/pkg/kernel"
	"github.com/Abraxas-365/credit-intake/pkg/ptrx"
)

var (
	curpPattern = regexp.MustCompile(`^[A-Z][AEIOU][A-Z]{2}\d{2}(0[1-9]|1[0-2])(0[1-9]|[12]\d|3[01])[HM]` +
		`(AS|BC|BS|CC|CL|CM|CS|CH|DF|DG|GT|GR|HG|JC|MC|MN|MS|NT|NL|OC|PL|QT|QR|SP|SL|SR|TC|TS|TL|VZ|YN|ZS|NE)` +
		`[B-DF-HJ-NP-TV-Z]{3}[0-9A-Z]\d$`)
	rfcPattern = regexp.MustCompile(`^[A-ZÑ]{4}\d{2}(0[1-9]|1[0-2])(0[1-9]|[12]\d|3[01])[A-Z\d]{3}$`)
)

// ValidCURP reports whether s is a well formed CURP.
func ValidCURP(s string) bool { return curpPattern.MatchString(s) }

// ValidRFC reports whether s is a well formed RFC for a natural person.
func ValidRFC(s string) bool { return rfcPattern.MatchString(s) }

// violations collects field errors so a request reports all of them at once.
type violations map[string]string

func (v violations) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v[field] = field + " is required"
	}
}

func (v violations) nonNegative(field string, n int) {
	if n < 0 {
		v[field] = field + " must not be negative"
	}
}

func (v violations) gender(g string) {
	if g != GenderMale && g != GenderFemale {
		v["gender"] = "Gender must be either M or F"
	}
}

func (v violations) money(field string, m kernel.Money) {
	if m < 0 {
		v[field] = field + " must not be negative"
	}
}

func (v violations) birthdate(d kernel.Date, now time.Time) {
	switch {
	case d.IsZero():
		v["birthdate"] = "birthdate is required"
	case d.After(now):
		v["birthdate"] = "birthdate must be in the past"
	}
}

func (v violations) err() error {
	if len(v) == 0 {
		return nil
	}
	return ErrInvalidPayload(v)
}

// ============================================================================
// Create
// ============================================================================

// CreateRequest is the self-registration payload. Password is handed to the
// identity provider and dropped.
type CreateRequest struct {
	CURP               string       `json:"curp"`
	RFC                string       `json:"rfc"`
	Firstname          string       `json:"firstname"`
	Lastname           string       `json:"lastname"`
	MonthlyIncome      kernel.Money `json:"monthly_income"`
	Email              string       `json:"email"`
	Password           string       `json:"password"`
	Address            string       `json:"address"`
	Gender             string       `json:"gender"`
	CountChildren      int          `json:"count_children"`
	CountAdults        int          `json:"count_adults"`
	CountFamilyMembers int          `json:"count_family_members"`
	CivilStatus        string       `json:"civil_status"`
	EducationLevel     string       `json:"education_level"`
	OccupationType     int          `json:"occupation_type"`
	DaysEmployed       int          `json:"days_employed"`
	Birthdate          kernel.Date  `json:"birthdate"`
	HasOwnCar          bool         `json:"has_own_car"`
	HasOwnRealty       bool         `json:"has_own_realty"`
}

func (r *CreateRequest) Validate() error {
	v := violations{}

	if !ValidCURP(r.CURP) {
		v["curp"] = "CURP format is invalid"
	}
	if !ValidRFC(r.RFC) {
		v["rfc"] = "RFC format is invalid"
	}
	v.required("firstname", r.Firstname)
	v.required("lastname", r.Lastname)
	v.money("monthly_income", r.MonthlyIncome)
	if addr, err := mail.ParseAddress(strings.TrimSpace(r.Email)); err != nil || addr.Name != "" {
		v["email"] = "email must be an email"
	}
	if !iam.CheckPassword(r.Password) {
		v["password"] = iam.PasswordPolicyMessage
	}
	v.required("address", r.Address)
	v.gender(r.Gender)
	v.nonNegative("count_children", r.CountChildren)
	v.nonNegative("count_adults", r.CountAdults)
	v.nonNegative("count_family_members", r.CountFamilyMembers)
	v.required("civil_status", r.CivilStatus)
	v.required("education_level", r.EducationLevel)
	v.nonNegative("occupation_type", r.OccupationType)
	v.nonNegative("days_employed", r.DaysEmployed)
	v.birthdate(r.Birthdate, time.Now())

	return v.err()
}

// ToEntity builds the row to persist. The password is not copied.
func (r *CreateRequest) ToEntity(username, sub string) *Requester {
	return &Requester{
		ID:                 kernel.NewRequesterID(),
		CURP:               r.CURP,
		RFC:                r.RFC,
		Firstname:          strings.TrimSpace(r.Firstname),
		Lastname:           strings.TrimSpace(r.Lastname),
		MonthlyIncome:      r.MonthlyIncome,
		Email:              username,
		Sub:                sub,
		Address:            strings.TrimSpace(r.Address),
		Gender:             r.Gender,
		CountChildren:      r.CountChildren,
		CountAdults:        r.CountAdults,
		CountFamilyMembers: r.CountFamilyMembers,
		CivilStatus:        r.CivilStatus,
		EducationLevel:     r.EducationLevel,
		OccupationType:     r.OccupationType,
		DaysEmployed:       r.DaysEmployed,
		Birthdate:          r.Birthdate,
		HasOwnCar:          r.HasOwnCar,
		HasOwnRealty:       r.HasOwnRealty,
	}
}

// RegisterResult is returned by a successful registration. Sub is empty
// when the identity provider could not report it.
type RegisterResult struct {
	ID    kernel.RequesterID `json:"id"`
	Sub   string             `json:"sub"`
	Email string             `json:"email"`
}

// ============================================================================
// Update
// ============================================================================

// UpdateRequest is a partial update. Identity fields (email, curp, rfc,
// sub, password) are not updatable.
type UpdateRequest struct {
	Firstname          *string       `json:"firstname,omitempty"`
	Lastname           *string       `json:"lastname,omitempty"`
	MonthlyIncome      *kernel.Money `json:"monthly_income,omitempty"`
	Address            *string       `json:"address,omitempty"`
	Gender             *string       `json:"gender,omitempty"`
	CountChildren      *int          `json:"count_children,omitempty"`
	CountAdults        *int          `json:"count_adults,omitempty"`
	CountFamilyMembers *int          `json:"count_family_members,omitempty"`
	CivilStatus        *string       `json:"civil_status,omitempty"`
	EducationLevel     *string       `json:"education_level,omitempty"`
	OccupationType     *int          `json:"occupation_type,omitempty"`
	DaysEmployed       *int          `json:"days_employed,omitempty"`
	Birthdate          *kernel.Date  `json:"birthdate,omitempty"`
	HasOwnCar          *bool         `json:"has_own_car,omitempty"`
	HasOwnRealty       *bool         `json:"has_own_realty,omitempty"`
}

func (r *UpdateRequest) Validate() error {
	v := violations{}

	if r.Firstname != nil {
		v.required("firstname", *r.Firstname)
	}
	if r.Lastname != nil {
		v.required("lastname", *r.Lastname)
	}
	if r.MonthlyIncome != nil {
		v.money("monthly_income", *r.MonthlyIncome)
	}
	if r.Address != nil {
		v.required("address", *r.Address)
	}
	if r.Gender != nil {
		v.gender(*r.Gender)
	}
	for field, n := range map[string]*int{
		"count_children":       r.CountChildren,
		"count_adults":         r.CountAdults,
		"count_family_members": r.CountFamilyMembers,
		"occupation_type":      r.OccupationType,
		"days_employed":        r.DaysEmployed,
	} {
		if n != nil {
			v.nonNegative(field, *n)
		}
	}
	if r.CivilStatus != nil {
		v.required("civil_status", *r.CivilStatus)
	}
	if r.EducationLevel != nil {
		v.required("education_level", *r.EducationLevel)
	}
	if r.Birthdate != nil {
		v.birthdate(*r.Birthdate, time.Now())
	}

	return v.err()
}

// Apply copies the set fields onto e.
func (r *UpdateRequest) Apply(e *Requester) {
	setString(&e.Firstname, r.Firstname)
	setString(&e.Lastname, r.Lastname)
	setString(&e.Address, r.Address)
	setString(&e.Gender, r.Gender)
	setString(&e.CivilStatus, r.CivilStatus)
	setString(&e.EducationLevel, r.EducationLevel)

	e.MonthlyIncome = ptrx.ValueOr(r.MonthlyIncome, e.MonthlyIncome)
	e.CountChildren = ptrx.ValueOr(r.CountChildren, e.CountChildren)
	e.CountAdults = ptrx.ValueOr(r.CountAdults, e.CountAdults)
	e.CountFamilyMembers = ptrx.ValueOr(r.CountFamilyMembers, e.CountFamilyMembers)
	e.OccupationType = ptrx.ValueOr(r.OccupationType, e.OccupationType)
	e.DaysEmployed = ptrx.ValueOr(r.DaysEmployed, e.DaysEmployed)
	e.Birthdate = ptrx.ValueOr(r.Birthdate, e.Birthdate)
	e.HasOwnCar = ptrx.ValueOr(r.HasOwnCar, e.HasOwnCar)
	e.HasOwnRealty = ptrx.ValueOr(r.HasOwnRealty, e.HasOwnRealty)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

// ============================================================================
// View
// ============================================================================

// View is what clients see of a requester. Sub stays internal.
type View struct {
	ID                 kernel.RequesterID `json:"id"`
	CURP               string             `json:"curp"`
	RFC                string             `json:"rfc"`
	Firstname          string             `json:"firstname"`
	Lastname           string             `json:"lastname"`
	MonthlyIncome      kernel.Money       `json:"monthly_income"`
	Email              string             `json:"email"`
	Address            string             `json:"address"`
	Gender             string             `json:"gender"`
	HasINE             bool               `json:"has_ine"`
	HasBirth           bool               `json:"has_birth"`
	HasDomicile        bool               `json:"has_domicile"`
	HasGuarantee       bool               `json:"has_guarantee"`
	CountChildren      int                `json:"count_children"`
	CountAdults        int                `json:"count_adults"`
	CountFamilyMembers int                `json:"count_family_members"`
	CivilStatus        string             `json:"civil_status"`
	EducationLevel     string             `json:"education_level"`
	OccupationType     int                `json:"occupation_type"`
	DaysEmployed       int                `json:"days_employed"`
	Birthdate          kernel.Date        `json:"birthdate"`
	HasOwnCar          bool               `json:"has_own_car"`
	HasOwnRealty       bool               `json:"has_own_realty"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

func NewView(r *Requester) *View {
	return &View{
		ID:                 r.ID,
		CURP:               r.CURP,
		RFC:                r.RFC,
		Firstname:          r.Firstname,
		Lastname:           r.Lastname,
		MonthlyIncome:      r.MonthlyIncome,
		Email:              r.Email,
		Address:            r.Address,
		Gender:             r.Gender,
		HasINE:             r.HasINE,
		HasBirth:           r.HasBirth,
		HasDomicile:        r.HasDomicile,
		HasGuarantee:       r.HasGuarantee,
		CountChildren:      r.CountChildren,
		CountAdults:        r.CountAdults,
		CountFamilyMembers: r.CountFamilyMembers,
		CivilStatus:        r.CivilStatus,
		EducationLevel:     r.EducationLevel,
		OccupationType:     r.OccupationType,
		DaysEmployed:       r.DaysEmployed,
		Birthdate:          r.Birthdate,
		HasOwnCar:          r.HasOwnCar,
		HasOwnRealty:       r.HasOwnRealty,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

// ============================================================================
// Documents
// ============================================================================

// MaxDocumentSize bounds a single KYC upload.
const MaxDocumentSize = 10 << 20

var documentExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".heic": true,
}

// DocumentUpload is one KYC file. Body is read once.
type DocumentUpload struct {
	Kind        DocumentKind
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

func (d *DocumentUpload) Validate() error {
	if !d.Kind.IsValid() {
		return ErrInvalidDocument("Document kind must be one of ine, birth, domicile, guarantee")
	}
	if d.Size <= 0 || d.Size > MaxDocumentSize {
		return ErrInvalidDocument("Document must be between 1 byte and 10MB")
	}
	ext := strings.ToLower(path.Ext(d.Filename))
	if !documentExtensions[ext] {
		return ErrInvalidDocument("Document must be a pdf, jpg, png or heic file")
	}
	return nil
}
