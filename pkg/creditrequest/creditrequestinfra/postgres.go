package creditrequestinfra

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Abraxas-365/credit-intake/pkg/creditrequest"
	"github.com/Abraxas-365/credit-intake/pkg/errx"
	"github.com/Abraxas-365/credit-intake/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	foreignKeyViolation = "23503"
	maxPageSize         = 50
)

// PostgresCreditRequestRepository is the PostgreSQL credit request store.
type PostgresCreditRequestRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

var _ creditrequest.Repository = (*PostgresCreditRequestRepository)(nil)

func NewPostgresCreditRequestRepository(db *sqlx.DB) *PostgresCreditRequestRepository {
	return &PostgresCreditRequestRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

const columns = `id, requester_id, credit_type, status, termination_date, amount,
	has_guarantee, guarantee_value, created_at, updated_at`

func (r *PostgresCreditRequestRepository) Create(ctx context.Context, c *creditrequest.CreditRequest) error {
	query := `
		INSERT INTO credit_requests (` + columns + `) VALUES (
			:id, :requester_id, :credit_type, :status, :termination_date, :amount,
			:has_guarantee, :guarantee_value, :created_at, :updated_at
		)`

	now := r.now()
	c.CreatedAt, c.UpdatedAt = now, now

	if _, err := r.db.NamedExecContext(ctx, query, toPersistence(c)); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			return creditrequest.ErrRequesterNotFound()
		}
		return errx.Wrap(err, "failed to create credit request", errx.TypeInternal).
			WithDetail("credit_request_id", c.ID.String())
	}
	return nil
}

func (r *PostgresCreditRequestRepository) FindOne(ctx context.Context, filter creditrequest.Lookup) (*creditrequest.CreditRequest, error) {
	var row creditRequestPersistence
	query := `SELECT ` + columns + ` FROM credit_requests WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, filter.ID.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, creditrequest.ErrNotFound()
		}
		return nil, errx.Wrap(err, "failed to find credit request", errx.TypeInternal)
	}
	return toDomain(row), nil
}

// Update rewrites the mutable columns. The requester and credit type of a
// request never change.
func (r *PostgresCreditRequestRepository) Update(ctx context.Context, c *creditrequest.CreditRequest) error {
	query := `
		UPDATE credit_requests SET
			status = :status,
			termination_date = :termination_date,
			amount = :amount,
			has_guarantee = :has_guarantee,
			guarantee_value = :guarantee_value,
			updated_at = :updated_at
		WHERE id = :id`

	c.UpdatedAt = r.now()

	result, err := r.db.NamedExecContext(ctx, query, toPersistence(c))
	if err != nil {
		return errx.Wrap(err, "failed to update credit request", errx.TypeInternal).
			WithDetail("credit_request_id", c.ID.String())
	}
	return expectOneRow(result)
}

func (r *PostgresCreditRequestRepository) Delete(ctx context.Context, filter creditrequest.Lookup) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM credit_requests WHERE id = $1`, filter.ID.String())
	if err != nil {
		return errx.Wrap(err, "failed to delete credit request", errx.TypeInternal)
	}
	return expectOneRow(result)
}

// ListByRequester returns the requester's requests, newest first.
func (r *PostgresCreditRequestRepository) ListByRequester(ctx context.Context, requesterID kernel.RequesterID, opts kernel.PaginationOptions) (kernel.Paginated[creditrequest.CreditRequest], error) {
	opts = opts.Normalize(maxPageSize)

	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM credit_requests WHERE requester_id = $1`, requesterID.String()); err != nil {
		return kernel.Paginated[creditrequest.CreditRequest]{}, errx.Wrap(err, "failed to count credit requests", errx.TypeInternal)
	}

	var rows []creditRequestPersistence
	query := `SELECT ` + columns + ` FROM credit_requests
		WHERE requester_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &rows, query, requesterID.String(), opts.PageSize, opts.Offset()); err != nil {
		return kernel.Paginated[creditrequest.CreditRequest]{}, errx.Wrap(err, "failed to list credit requests", errx.TypeInternal)
	}

	items := make([]creditrequest.CreditRequest, 0, len(rows))
	for _, row := range rows {
		items = append(items, *toDomain(row))
	}
	return kernel.NewPaginated(items, opts.Page, opts.PageSize, total), nil
}

func expectOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}
	if rowsAffected == 0 {
		return creditrequest.ErrNotFound()
	}
	return nil
}

type creditRequestPersistence struct {
	ID              string       `db:"id"`
	RequesterID     string       `db:"requester_id"`
	CreditType      string       `db:"credit_type"`
	Status          string       `db:"status"`
	TerminationDate kernel.Date  `db:"termination_date"`
	Amount          kernel.Money `db:"amount"`
	HasGuarantee    bool         `db:"has_guarantee"`
	GuaranteeValue  kernel.Money `db:"guarantee_value"`
	CreatedAt       time.Time    `db:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at"`
}

func toPersistence(c *creditrequest.CreditRequest) creditRequestPersistence {
	return creditRequestPersistence{
		ID:              c.ID.String(),
		RequesterID:     c.RequesterID.String(),
		CreditType:      string(c.CreditType),
		Status:          string(c.Status),
		TerminationDate: c.TerminationDate,
		Amount:          c.Amount,
		HasGuarantee:    c.HasGuarantee,
		GuaranteeValue:  c.GuaranteeValue,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func toDomain(p creditRequestPersistence) *creditrequest.CreditRequest {
	return &creditrequest.CreditRequest{
		ID:              kernel.CreditRequestID(p.ID),
		RequesterID:     kernel.RequesterID(p.RequesterID),
		CreditType:      creditrequest.CreditType(p.CreditType),
		Status:          creditrequest.Status(p.Status),
		TerminationDate: p.TerminationDate,
		Amount:          p.Amount,
		HasGuarantee:    p.HasGuarantee,
		GuaranteeValue:  p.GuaranteeValue,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}
