package requester

import (
	"strings"
	"testing"
	"time"

	"github.com/Abraxas-365/credit-intake/pkg/errx"
	"github.com/Abraxas-365/credit-intake/pkg/kernel"
	"github.com/Abraxas-365/credit-intake/pkg/ptrx"
)

func validCreate() CreateRequest {
	return CreateRequest{
		CURP:               "GODE561231HDFRRN09",
		RFC:                "GODE561231GR8",
		Firstname:          "Elena",
		Lastname:           "Gomez",
		MonthlyIncome:      kernel.MoneyFromDecimal(25000.50),
		Email:              "Elena@Example.com",
		Password:           "Secret1!",
		Address:            "Av. Reforma 1, CDMX",
		Gender:             GenderFemale,
		CountChildren:      1,
		CountAdults:        2,
		CountFamilyMembers: 3,
		CivilStatus:        "married",
		EducationLevel:     "bachelor",
		OccupationType:     2,
		DaysEmployed:       730,
		Birthdate:          kernel.NewDate(1956, time.December, 31),
	}
}

func TestIdentityPatterns(t *testing.T) {
	curps := map[string]bool{
		"GODE561231HDFRRN09": true,
		"GODE561231MNEXXX0A": false, // check digit must be numeric
		"GXDE561231HDFRRN09": false, // second letter must be a vowel
		"GODE561331HDFRRN09": false, // month 13
		"GODE561231HZZRRN09": false, // unknown state
		"gode561231hdfrrn09": false,
	}
	for in, want := range curps {
		if got := ValidCURP(in); got != want {
			t.Errorf("ValidCURP(%q) = %v, want %v", in, got, want)
		}
	}

	rfcs := map[string]bool{
		"GODE561231GR8":  true,
		"ÑUÑO800101AB1":  true,
		"GOD561231GR8":   false,
		"GODE561232GR8":  false,
		"GODE561231GR":   false,
		"GODE561231GR8X": false,
	}
	for in, want := range rfcs {
		if got := ValidRFC(in); got != want {
			t.Errorf("ValidRFC(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestCreateRequestValidate(t *testing.T) {
	req := validCreate()
	if err := req.Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}

	bad := validCreate()
	bad.CURP = "nope"
	bad.Gender = "X"
	bad.Password = "secret"
	bad.Email = "not-an-email"
	bad.CountChildren = -1
	bad.Birthdate = kernel.Date{}

	err := bad.Validate()
	var e *errx.Error
	if !errx.As(err, &e) || e.Code != CodeInvalidPayload.Code {
		t.Fatalf("expected invalid payload, got %v", err)
	}
	fields := e.Details["fields"].(map[string]string)
	for _, f := range []string{"curp", "gender", "password", "email", "count_children", "birthdate"} {
		if _, ok := fields[f]; !ok {
			t.Errorf("expected violation for %s, got %v", f, fields)
		}
	}
	if fields["gender"] != "Gender must be either M or F" {
		t.Errorf("unexpected gender message %q", fields["gender"])
	}
}

func TestToEntityDropsPassword(t *testing.T) {
	req := validCreate()
	e := req.ToEntity("elena@example.com", "sub-1")

	if e.Email != "elena@example.com" || e.Sub != "sub-1" || e.ID.IsEmpty() {
		t.Fatalf("unexpected entity %+v", e)
	}
	if strings.Contains(strings.ToLower(e.FullName()), "secret") {
		t.Fatal("password leaked into entity")
	}
}

func TestUpdateRequest(t *testing.T) {
	req := validCreate()
	e := req.ToEntity("elena@example.com", "")

	upd := UpdateRequest{
		Firstname:     ptrx.String("  Helena "),
		MonthlyIncome: ptrx.To(kernel.MoneyFromDecimal(30000)),
		HasOwnCar:     ptrx.Bool(true),
	}
	if err := upd.Validate(); err != nil {
		t.Fatal(err)
	}
	upd.Apply(e)

	if e.Firstname != "Helena" || e.MonthlyIncome != 3000000 || !e.HasOwnCar {
		t.Fatalf("update not applied: %+v", e)
	}
	if e.Lastname != "Gomez" || e.Email != "elena@example.com" {
		t.Fatalf("unset fields changed: %+v", e)
	}

	future := kernel.NewDate(time.Now().Year()+1, time.January, 1)
	if err := (&UpdateRequest{DaysEmployed: ptrx.Int(-2), Birthdate: &future}).Validate(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestDocumentUploadValidate(t *testing.T) {
	cases := []struct {
		doc  DocumentUpload
		want bool
	}{
		{DocumentUpload{Kind: DocumentINE, Filename: "front.PDF", Size: 100}, true},
		{DocumentUpload{Kind: DocumentGuarantee, Filename: "deed.jpeg", Size: MaxDocumentSize}, true},
		{DocumentUpload{Kind: "passport", Filename: "a.pdf", Size: 1}, false},
		{DocumentUpload{Kind: DocumentBirth, Filename: "a.exe", Size: 1}, false},
		{DocumentUpload{Kind: DocumentBirth, Filename: "a.pdf", Size: MaxDocumentSize + 1}, false},
		{DocumentUpload{Kind: DocumentBirth, Filename: "a.pdf", Size: 0}, false},
	}
	for _, tc := range cases {
		err := tc.doc.Validate()
		if (err == nil) != tc.want {
			t.Errorf("%+v: got %v", tc.doc, err)
		}
	}
}

func TestMarkDocument(t *testing.T) {
	var r Requester
	r.MarkDocument(DocumentDomicile)
	r.MarkDocument(DocumentINE)
	if !r.HasDomicile || !r.HasINE || r.HasBirth || r.HasGuarantee {
		t.Fatalf("unexpected flags %+v", r)
	}
}
