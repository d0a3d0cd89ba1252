package costs

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pulseboard/pulseboard/internal/platform/db"
	"github.com/pulseboard/pulseboard/internal/reporting"
)

// PgRepository provides PostgreSQL backed persistence for business
// costs. It also satisfies reporting.CostSource.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const costColumns = `id, name, amount, cost_type, frequency, category,
	effective_date, end_date, is_active, created_at, updated_at`

// Create inserts a cost and returns its id.
func (r *PgRepository) Create(ctx context.Context, cost reporting.BusinessCost) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO business_costs (name, amount, cost_type, frequency, category,
			effective_date, end_date, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now(),now())
		RETURNING id`,
		cost.Name, cost.Amount, cost.CostType, frequencyValue(cost.Frequency), cost.Category,
		cost.EffectiveDate, cost.EndDate, cost.IsActive,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Get returns a cost by id.
func (r *PgRepository) Get(ctx context.Context, id int64) (*reporting.BusinessCost, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+costColumns+` FROM business_costs WHERE id = $1`, id)
	cost, err := scanCost(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return cost, nil
}

// Update rewrites the mutable fields of a cost.
func (r *PgRepository) Update(ctx context.Context, cost reporting.BusinessCost) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE business_costs
		SET name = $2, amount = $3, frequency = $4, category = $5,
			effective_date = $6, end_date = $7, updated_at = now()
		WHERE id = $1`,
		cost.ID, cost.Name, cost.Amount, frequencyValue(cost.Frequency), cost.Category,
		cost.EffectiveDate, cost.EndDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Deactivate retires a cost without deleting the row.
func (r *PgRepository) Deactivate(ctx context.Context, id int64, when time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE business_costs SET is_active = false, updated_at = $2
		WHERE id = $1 AND is_active`, id, when)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns a filtered page of costs, newest effective date first.
// The count and the page rows come from one transaction so pagination
// metadata matches the returned slice.
func (r *PgRepository) List(ctx context.Context, req ListCostsRequest) ([]reporting.BusinessCost, int, error) {
	where := ` WHERE ($1::text = '' OR cost_type = $1)
		AND ($2::text = '' OR category = $2)
		AND ($3::bool OR is_active)`

	var (
		costs []reporting.BusinessCost
		total int
	)
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM business_costs`+where,
			req.CostType, req.Category, req.IncludeClosed).Scan(&total); err != nil {
			return err
		}

		offset := (req.Page - 1) * req.PerPage
		rows, err := tx.Query(ctx, `SELECT `+costColumns+` FROM business_costs`+where+`
			ORDER BY effective_date DESC, id DESC LIMIT $4 OFFSET $5`,
			req.CostType, req.Category, req.IncludeClosed, req.PerPage, offset)
		if err != nil {
			return err
		}
		defer rows.Close()

		costs, err = collectCosts(rows)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return costs, total, nil
}

// ListCosts returns every cost row. The reporting engine applies its own
// window and activity rules, so no filtering happens here.
func (r *PgRepository) ListCosts(ctx context.Context) ([]reporting.BusinessCost, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+costColumns+` FROM business_costs ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCosts(rows)
}

func collectCosts(rows pgx.Rows) ([]reporting.BusinessCost, error) {
	var costs []reporting.BusinessCost
	for rows.Next() {
		cost, err := scanCost(rows)
		if err != nil {
			return nil, err
		}
		costs = append(costs, *cost)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return costs, nil
}

func scanCost(row pgx.Row) (*reporting.BusinessCost, error) {
	var (
		cost reporting.BusinessCost
		freq *string
	)
	if err := row.Scan(
		&cost.ID, &cost.Name, &cost.Amount, &cost.CostType, &freq, &cost.Category,
		&cost.EffectiveDate, &cost.EndDate, &cost.IsActive, &cost.CreatedAt, &cost.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if freq != nil {
		f := reporting.Frequency(*freq)
		cost.Frequency = &f
	}
	return &cost, nil
}

func frequencyValue(freq *reporting.Frequency) *string {
	if freq == nil {
		return nil
	}
	s := string(*freq)
	return &s
}
