package cart

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

type Repository interface {
	GetCart(ctx context.Context, userID string) (*Cart, error)
	UpsertCart(ctx context.Context, c *Cart) error
	ClearCart(ctx context.Context, userID string) error
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

func (r *repo) GetCart(ctx context.Context, userID string) (*Cart, error) {
	const cartQuery = `SELECT id, user_id, total, updated_at FROM carts WHERE user_id = $1`

	var c Cart
	err := r.db.QueryRowContext(ctx, cartQuery, userID).Scan(&c.ID, &c.UserID, &c.Total, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			// caller decides whether this means "empty cart"
			return nil, nil
		}
		return nil, fmt.Errorf("select cart: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT item_id, name, price, selected_quantity, available FROM cart_lines WHERE cart_id = $1`, c.ID)
	if err != nil {
		return nil, fmt.Errorf("select cart lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ln Line
		if err := rows.Scan(&ln.ItemID, &ln.Name, &ln.Price, &ln.SelectedQuantity, &ln.Available); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		c.Lines = append(c.Lines, ln)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return &c, nil
}

func (r *repo) UpsertCart(ctx context.Context, c *Cart) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	const upsertCartSQL = `
INSERT INTO carts (id, user_id, total, updated_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (user_id) DO UPDATE
SET total = EXCLUDED.total, updated_at = NOW()
RETURNING id, updated_at
`
	if err = tx.QueryRowContext(ctx, upsertCartSQL, c.ID, c.UserID, c.Total).Scan(&c.ID, &c.UpdatedAt); err != nil {
		return fmt.Errorf("upsert cart: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, c.ID); err != nil {
		return fmt.Errorf("clear cart lines: %w", err)
	}

	if len(c.Lines) > 0 {
		stmt, prepErr := tx.PrepareContext(ctx,
			`INSERT INTO cart_lines (id, cart_id, item_id, name, price, selected_quantity, available)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`)
		if prepErr != nil {
			err = prepErr
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, ln := range c.Lines {
			if _, err = stmt.ExecContext(ctx, uuid.NewString(), c.ID, ln.ItemID, ln.Name, ln.Price, ln.SelectedQuantity, ln.Available); err != nil {
				return fmt.Errorf("insert cart line: %w", err)
			}
		}
	}

	err = tx.Commit()
	return err
}

// ClearCart empties the cart but keeps the row, so the user's cart
// identity survives checkout.
func (r *repo) ClearCart(ctx context.Context, userID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
		DELETE FROM cart_lines WHERE cart_id IN (SELECT id FROM carts WHERE user_id = $1)`, userID); err != nil {
		return fmt.Errorf("delete cart lines: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `
		UPDATE carts SET total = 0, updated_at = NOW() WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("reset cart total: %w", err)
	}

	err = tx.Commit()
	return err
}
