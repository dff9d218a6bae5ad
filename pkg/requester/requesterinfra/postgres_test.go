package requesterinfra

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/Abraxas-365/credit-intake/pkg/errx"
	"github.com/Abraxas-365/credit-intake/pkg/kernel"
	"github.com/Abraxas-365/credit-intake/pkg/requester"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newRepo(t *testing.T) (*PostgresRequesterRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := NewPostgresRequesterRepository(sqlx.NewDb(db, "postgres"))
	repo.now = func() time.Time { return fixedNow }
	return repo, mock
}

func sampleRequester() *requester.Requester {
	return &requester.Requester{
		ID:            kernel.RequesterID("0b5c6f8e-6f0a-4c1e-9d53-3f0f7a2f1c11"),
		CURP:          "GODE561231HDFRRN09",
		RFC:           "GODE561231GR8",
		Firstname:     "Elena",
		Lastname:      "Gomez",
		MonthlyIncome: kernel.Money(2500000),
		Email:         "elena@example.com",
		Sub:           "sub-123",
		Gender:        requester.GenderFemale,
		Birthdate:     kernel.NewDate(1956, time.December, 31),
	}
}

func requesterRows(r *requester.Requester) *sqlmock.Rows {
	cols := []string{
		"id", "curp", "rfc", "firstname", "lastname", "monthly_income", "email", "sub", "address", "gender",
		"has_ine", "has_birth", "has_domicile", "has_guarantee", "count_children", "count_adults",
		"count_family_members", "civil_status", "education_level", "occupation_type", "days_employed",
		"birthdate", "has_own_car", "has_own_realty", "created_at", "updated_at",
	}
	var sub driver.Value
	if r.Sub != "" {
		sub = r.Sub
	}
	return sqlmock.NewRows(cols).AddRow(
		r.ID.String(), r.CURP, r.RFC, r.Firstname, r.Lastname, int64(r.MonthlyIncome), r.Email, sub, r.Address, r.Gender,
		r.HasINE, r.HasBirth, r.HasDomicile, r.HasGuarantee, r.CountChildren, r.CountAdults,
		r.CountFamilyMembers, r.CivilStatus, r.EducationLevel, r.OccupationType, r.DaysEmployed,
		r.Birthdate.Time, r.HasOwnCar, r.HasOwnRealty, fixedNow, fixedNow,
	)
}

func TestCreateStampsTimestamps(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec(`INSERT INTO requesters`).WillReturnResult(sqlmock.NewResult(0, 1))

	r := sampleRequester()
	if err := repo.Create(context.Background(), r); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !r.CreatedAt.Equal(fixedNow) || !r.UpdatedAt.Equal(fixedNow) {
		t.Fatalf("timestamps = %v / %v, want %v", r.CreatedAt, r.UpdatedAt, fixedNow)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateUniqueViolation(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec(`INSERT INTO requesters`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "requesters_email_key"})

	err := repo.Create(context.Background(), sampleRequester())
	if !errx.HasCode(err, requester.CodeAlreadyExists) {
		t.Fatalf("err = %v, want already exists", err)
	}
	var e *errx.Error
	if !errors.As(err, &e) || e.Details["constraint"] != "requesters_email_key" {
		t.Fatalf("constraint detail missing: %v", err)
	}
}

func TestCreateOtherFailureIsInternal(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec(`INSERT INTO requesters`).WillReturnError(errors.New("connection reset"))

	err := repo.Create(context.Background(), sampleRequester())
	if err == nil || errx.HasCode(err, requester.CodeAlreadyExists) {
		t.Fatalf("err = %v, want generic failure", err)
	}
	if errx.StatusOf(err) != 500 {
		t.Fatalf("status = %d, want 500", errx.StatusOf(err))
	}
}

func TestFindOne(t *testing.T) {
	want := sampleRequester()

	tests := []struct {
		name   string
		lookup requester.Lookup
		column string
		arg    string
	}{
		{"by id", requester.ByID(want.ID), "id", want.ID.String()},
		{"by sub", requester.BySub(want.Sub), "sub", want.Sub},
		{"by email", requester.ByEmail(want.Email), "email", want.Email},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepo(t)
			mock.ExpectQuery(`FROM requesters WHERE ` + tt.column + ` = \$1`).
				WithArgs(tt.arg).
				WillReturnRows(requesterRows(want))

			got, err := repo.FindOne(context.Background(), tt.lookup)
			if err != nil {
				t.Fatalf("FindOne: %v", err)
			}
			if got.ID != want.ID || got.Sub != want.Sub || got.MonthlyIncome != want.MonthlyIncome {
				t.Fatalf("got %+v", got)
			}
			if got.Birthdate.String() != "1956-12-31" {
				t.Fatalf("birthdate = %s", got.Birthdate)
			}
		})
	}
}

func TestFindOneNullSub(t *testing.T) {
	repo, mock := newRepo(t)
	r := sampleRequester()
	r.Sub = ""
	mock.ExpectQuery(`FROM requesters WHERE id`).WillReturnRows(requesterRows(r))

	got, err := repo.FindOne(context.Background(), requester.ByID(r.ID))
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if got.Sub != "" {
		t.Fatalf("sub = %q, want empty", got.Sub)
	}
}

func TestFindOneNotFound(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(`FROM requesters`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindOne(context.Background(), requester.BySub("missing"))
	if !errx.HasCode(err, requester.CodeNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestEmptyLookupIsRejected(t *testing.T) {
	repo, mock := newRepo(t)

	if _, err := repo.FindOne(context.Background(), requester.Lookup{}); err == nil {
		t.Fatal("expected error for empty lookup")
	}
	if err := repo.Delete(context.Background(), requester.Lookup{}); err == nil {
		t.Fatal("expected error for empty lookup")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUpdate(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec(`UPDATE requesters SET`).WillReturnResult(sqlmock.NewResult(0, 1))

	r := sampleRequester()
	if err := repo.Update(context.Background(), r); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !r.UpdatedAt.Equal(fixedNow) {
		t.Fatalf("updated_at = %v", r.UpdatedAt)
	}
}

func TestUpdateMissingRow(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec(`UPDATE requesters SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), sampleRequester())
	if !errx.HasCode(err, requester.CodeNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestDelete(t *testing.T) {
	repo, mock := newRepo(t)
	id := kernel.RequesterID("0b5c6f8e-6f0a-4c1e-9d53-3f0f7a2f1c11")
	mock.ExpectExec(`DELETE FROM requesters WHERE id = \$1`).
		WithArgs(id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), requester.ByID(id)); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	mock.ExpectExec(`DELETE FROM requesters`).WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.Delete(context.Background(), requester.ByID(id)); !errx.HasCode(err, requester.CodeNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}
