package requesterinfra

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Abraxas-365/credit-intake/pkg/errx"
	"github.com/Abraxas-365/credit-intake/pkg/kernel"
	"github.com/Abraxas-365/credit-intake/pkg/requester"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// PostgresRequesterRepository is the PostgreSQL requester store.
type PostgresRequesterRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

var _ requester.Repository = (*PostgresRequesterRepository)(nil)

func NewPostgresRequesterRepository(db *sqlx.DB) *PostgresRequesterRepository {
	return &PostgresRequesterRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

const columns = `id, curp, rfc, firstname, lastname, monthly_income, email, sub, address, gender,
	has_ine, has_birth, has_domicile, has_guarantee, count_children, count_adults,
	count_family_members, civil_status, education_level, occupation_type, days_employed,
	birthdate, has_own_car, has_own_realty, created_at, updated_at`

// Create inserts a new requester. CreatedAt and UpdatedAt are set here.
func (r *PostgresRequesterRepository) Create(ctx context.Context, e *requester.Requester) error {
	query := `
		INSERT INTO requesters (` + columns + `) VALUES (
			:id, :curp, :rfc, :firstname, :lastname, :monthly_income, :email, :sub, :address, :gender,
			:has_ine, :has_birth, :has_domicile, :has_guarantee, :count_children, :count_adults,
			:count_family_members, :civil_status, :education_level, :occupation_type, :days_employed,
			:birthdate, :has_own_car, :has_own_realty, :created_at, :updated_at
		)`

	now := r.now()
	e.CreatedAt, e.UpdatedAt = now, now

	if _, err := r.db.NamedExecContext(ctx, query, toPersistence(e)); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return requester.ErrAlreadyExists().WithDetail("constraint", pqErr.Constraint)
		}
		return errx.Wrap(err, "failed to create requester", errx.TypeInternal).
			WithDetail("requester_id", e.ID.String())
	}
	return nil
}

// FindOne returns the requester matching filter.
func (r *PostgresRequesterRepository) FindOne(ctx context.Context, filter requester.Lookup) (*requester.Requester, error) {
	where, arg, err := whereClause(filter)
	if err != nil {
		return nil, err
	}

	var row requesterPersistence
	query := `SELECT ` + columns + ` FROM requesters WHERE ` + where
	if err := r.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, requester.ErrNotFound()
		}
		return nil, errx.Wrap(err, "failed to find requester", errx.TypeInternal)
	}
	return toDomain(row), nil
}

// Update writes every mutable column of e. Identity columns (email, curp,
// rfc, sub) are never rewritten.
func (r *PostgresRequesterRepository) Update(ctx context.Context, e *requester.Requester) error {
	query := `
		UPDATE requesters SET
			firstname = :firstname,
			lastname = :lastname,
			monthly_income = :monthly_income,
			address = :address,
			gender = :gender,
			has_ine = :has_ine,
			has_birth = :has_birth,
			has_domicile = :has_domicile,
			has_guarantee = :has_guarantee,
			count_children = :count_children,
			count_adults = :count_adults,
			count_family_members = :count_family_members,
			civil_status = :civil_status,
			education_level = :education_level,
			occupation_type = :occupation_type,
			days_employed = :days_employed,
			birthdate = :birthdate,
			has_own_car = :has_own_car,
			has_own_realty = :has_own_realty,
			updated_at = :updated_at
		WHERE id = :id`

	e.UpdatedAt = r.now()

	result, err := r.db.NamedExecContext(ctx, query, toPersistence(e))
	if err != nil {
		return errx.Wrap(err, "failed to update requester", errx.TypeInternal).
			WithDetail("requester_id", e.ID.String())
	}
	return expectOneRow(result)
}

// Delete removes the requester matching filter. Credit requests cascade.
func (r *PostgresRequesterRepository) Delete(ctx context.Context, filter requester.Lookup) error {
	where, arg, err := whereClause(filter)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM requesters WHERE `+where, arg)
	if err != nil {
		return errx.Wrap(err, "failed to delete requester", errx.TypeInternal)
	}
	return expectOneRow(result)
}

func whereClause(f requester.Lookup) (string, interface{}, error) {
	switch {
	case !f.ID.IsEmpty():
		return "id = $1", f.ID.String(), nil
	case f.Sub != "":
		return "sub = $1", f.Sub, nil
	case f.Email != "":
		return "email = $1", f.Email, nil
	default:
		return "", nil, errx.Validation("requester lookup needs an id, sub or email")
	}
}

func expectOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}
	if rowsAffected == 0 {
		return requester.ErrNotFound()
	}
	return nil
}

// requesterPersistence mirrors the requesters table.
type requesterPersistence struct {
	ID                 string         `db:"id"`
	CURP               string         `db:"curp"`
	RFC                string         `db:"rfc"`
	Firstname          string         `db:"firstname"`
	Lastname           string         `db:"lastname"`
	MonthlyIncome      kernel.Money   `db:"monthly_income"`
	Email              string         `db:"email"`
	Sub                sql.NullString `db:"sub"`
	Address            string         `db:"address"`
	Gender             string         `db:"gender"`
	HasINE             bool           `db:"has_ine"`
	HasBirth           bool           `db:"has_birth"`
	HasDomicile        bool           `db:"has_domicile"`
	HasGuarantee       bool           `db:"has_guarantee"`
	CountChildren      int            `db:"count_children"`
	CountAdults        int            `db:"count_adults"`
	CountFamilyMembers int            `db:"count_family_members"`
	CivilStatus        string         `db:"civil_status"`
	EducationLevel     string         `db:"education_level"`
	OccupationType     int            `db:"occupation_type"`
	DaysEmployed       int            `db:"days_employed"`
	Birthdate          kernel.Date    `db:"birthdate"`
	HasOwnCar          bool           `db:"has_own_car"`
	HasOwnRealty       bool           `db:"has_own_realty"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

func toPersistence(e *requester.Requester) requesterPersistence {
	return requesterPersistence{
		ID:                 e.ID.String(),
		CURP:               e.CURP,
		RFC:                e.RFC,
		Firstname:          e.Firstname,
		Lastname:           e.Lastname,
		MonthlyIncome:      e.MonthlyIncome,
		Email:              e.Email,
		Sub:                sql.NullString{String: e.Sub, Valid: e.Sub != ""},
		Address:            e.Address,
		Gender:             e.Gender,
		HasINE:             e.HasINE,
		HasBirth:           e.HasBirth,
		HasDomicile:        e.HasDomicile,
		HasGuarantee:       e.HasGuarantee,
		CountChildren:      e.CountChildren,
		CountAdults:        e.CountAdults,
		CountFamilyMembers: e.CountFamilyMembers,
		CivilStatus:        e.CivilStatus,
		EducationLevel:     e.EducationLevel,
		OccupationType:     e.OccupationType,
		DaysEmployed:       e.DaysEmployed,
		Birthdate:          e.Birthdate,
		HasOwnCar:          e.HasOwnCar,
		HasOwnRealty:       e.HasOwnRealty,
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
	}
}

func toDomain(p requesterPersistence) *requester.Requester {
	return &requester.Requester{
		ID:                 kernel.RequesterID(p.ID),
		CURP:               p.CURP,
		RFC:                p.RFC,
		Firstname:          p.Firstname,
		Lastname:           p.Lastname,
		MonthlyIncome:      p.MonthlyIncome,
		Email:              p.Email,
		Sub:                p.Sub.String,
		Address:            p.Address,
		Gender:             p.Gender,
		HasINE:             p.HasINE,
		HasBirth:           p.HasBirth,
		HasDomicile:        p.HasDomicile,
		HasGuarantee:       p.HasGuarantee,
		CountChildren:      p.CountChildren,
		CountAdults:        p.CountAdults,
		CountFamilyMembers: p.CountFamilyMembers,
		CivilStatus:        p.CivilStatus,
		EducationLevel:     p.EducationLevel,
		OccupationType:     p.OccupationType,
		DaysEmployed:       p.DaysEmployed,
		Birthdate:          p.Birthdate,
		HasOwnCar:          p.HasOwnCar,
		HasOwnRealty:       p.HasOwnRealty,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}
