package deals

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pulseboard/pulseboard/internal/platform/db"
	"github.com/pulseboard/pulseboard/internal/reporting"
)

// PgRepository provides PostgreSQL backed persistence for deals. It also
// satisfies reporting.DealSource.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const dealColumns = `id, client_name, revenue_inc_vat, revenue_net, operating_expense,
	leads_sold, lead_sale_price, setter_commission_percent, sales_rep_commission_percent,
	setter_cost, sales_rep_cost, lead_fulfillment_cost, close_date, created_at`

// Create inserts a deal and returns its id.
func (r *PgRepository) Create(ctx context.Context, deal reporting.Deal) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO deals (client_name, revenue_inc_vat, revenue_net, operating_expense,
			leads_sold, lead_sale_price, setter_commission_percent, sales_rep_commission_percent,
			setter_cost, sales_rep_cost, lead_fulfillment_cost, close_date, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,now())
		RETURNING id`,
		deal.ClientName, deal.RevenueIncVat, deal.RevenueNet, deal.OperatingExpense,
		deal.LeadsSold, deal.LeadSalePrice, deal.SetterCommissionPercent, deal.SalesRepCommissionPercent,
		deal.SetterCost, deal.SalesRepCost, deal.LeadFulfillmentCost, deal.CloseDate,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Get returns a deal by id.
func (r *PgRepository) Get(ctx context.Context, id int64) (*reporting.Deal, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+dealColumns+` FROM deals WHERE id = $1`, id)
	deal, err := scanDeal(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return deal, nil
}

// List returns a page of deals ordered by close date, newest first. The
// count and the page rows come from one transaction so pagination
// metadata matches the returned slice.
func (r *PgRepository) List(ctx context.Context, req ListDealsRequest) ([]reporting.Deal, int, error) {
	where := ` WHERE ($1::timestamptz IS NULL OR close_date >= $1)
		AND ($2::timestamptz IS NULL OR close_date <= $2)`

	var (
		deals []reporting.Deal
		total int
	)
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM deals`+where, req.From, req.To).Scan(&total); err != nil {
			return err
		}

		offset := (req.Page - 1) * req.PerPage
		rows, err := tx.Query(ctx, `SELECT `+dealColumns+` FROM deals`+where+`
			ORDER BY close_date DESC, id DESC LIMIT $3 OFFSET $4`,
			req.From, req.To, req.PerPage, offset)
		if err != nil {
			return err
		}
		defer rows.Close()

		deals, err = collectDeals(rows)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return deals, total, nil
}

// ListDealsClosedBetween returns deals closing inside [from, to]. The
// reporting engine re-filters, so the bounds only need to cover the
// window.
func (r *PgRepository) ListDealsClosedBetween(ctx context.Context, from, to time.Time) ([]reporting.Deal, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+dealColumns+` FROM deals
		WHERE close_date >= $1 AND close_date <= $2 ORDER BY close_date`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDeals(rows)
}

func collectDeals(rows pgx.Rows) ([]reporting.Deal, error) {
	var deals []reporting.Deal
	for rows.Next() {
		deal, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		deals = append(deals, *deal)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return deals, nil
}

func scanDeal(row pgx.Row) (*reporting.Deal, error) {
	var deal reporting.Deal
	if err := row.Scan(
		&deal.ID, &deal.ClientName, &deal.RevenueIncVat, &deal.RevenueNet, &deal.OperatingExpense,
		&deal.LeadsSold, &deal.LeadSalePrice, &deal.SetterCommissionPercent, &deal.SalesRepCommissionPercent,
		&deal.SetterCost, &deal.SalesRepCost, &deal.LeadFulfillmentCost, &deal.CloseDate, &deal.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &deal, nil
}
