package sales

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Repository interface {
	Record(ctx context.Context, s *Sale) error
	Query(ctx context.Context, f Filter) ([]Sale, error)
	Summarize(ctx context.Context, f Filter) (Summary, error)
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

// Record appends the sale to the ledger. The ledger is append-only;
// nothing here ever updates an existing sale.
func (r *repo) Record(ctx context.Context, s *Sale) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Status == "" {
		s.Status = StatusPlaced
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sales (id, user_id, order_total, status, created_at)
         VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.UserID, s.OrderTotal, string(s.Status), s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}

	for _, ln := range s.Lines {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO sale_lines (id, sale_id, item_id, name, unit_price, quantity, line_total)
             VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.NewString(), s.ID, ln.ItemID, ln.Name, ln.UnitPrice, ln.Quantity, ln.LineTotal,
		)
		if err != nil {
			return fmt.Errorf("insert sale line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (f Filter) where() (string, []any) {
	clause := `WHERE 1=1`
	var args []any
	if f.UserID != "" {
		args = append(args, f.UserID)
		clause += fmt.Sprintf(` AND user_id = $%d`, len(args))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		clause += fmt.Sprintf(` AND created_at >= $%d`, len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		clause += fmt.Sprintf(` AND created_at <= $%d`, len(args))
	}
	return clause, args
}

// Query returns matching sales newest-first, lines included.
func (r *repo) Query(ctx context.Context, f Filter) ([]Sale, error) {
	clause, args := f.where()
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, order_total, status, created_at FROM sales `+clause+` ORDER BY created_at DESC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("select sales: %w", err)
	}
	defer rows.Close()

	var out []Sale
	for rows.Next() {
		var s Sale
		var status string
		if err := rows.Scan(&s.ID, &s.UserID, &s.OrderTotal, &status, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		s.Status = Status(status)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	for i := range out {
		lineRows, err := r.db.QueryContext(ctx,
			`SELECT item_id, name, unit_price, quantity, line_total FROM sale_lines WHERE sale_id = $1`,
			out[i].ID,
		)
		if err != nil {
			return nil, fmt.Errorf("select sale lines: %w", err)
		}
		for lineRows.Next() {
			var ln Line
			if err := lineRows.Scan(&ln.ItemID, &ln.Name, &ln.UnitPrice, &ln.Quantity, &ln.LineTotal); err != nil {
				lineRows.Close()
				return nil, fmt.Errorf("scan sale line: %w", err)
			}
			out[i].Lines = append(out[i].Lines, ln)
		}
		if err := lineRows.Err(); err != nil {
			lineRows.Close()
			return nil, fmt.Errorf("rows: %w", err)
		}
		lineRows.Close()
	}

	return out, nil
}

// Summarize totals the matching sales. Amounts are summed as decimals
// so report totals do not drift over many float64 additions.
func (r *repo) Summarize(ctx context.Context, f Filter) (Summary, error) {
	clause, args := f.where()
	rows, err := r.db.QueryContext(ctx,
		`SELECT order_total FROM sales `+clause,
		args...,
	)
	if err != nil {
		return Summary{}, fmt.Errorf("select totals: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	count := 0
	for rows.Next() {
		var amount float64
		if err := rows.Scan(&amount); err != nil {
			return Summary{}, fmt.Errorf("scan total: %w", err)
		}
		total = total.Add(decimal.NewFromFloat(amount))
		count++
	}
	if err := rows.Err(); err != nil {
		return Summary{}, fmt.Errorf("rows: %w", err)
	}

	amount, _ := total.Float64()
	return Summary{Count: count, TotalAmount: amount}, nil
}
