package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBPool matches the methods from *pgxpool.Pool that we use.
// This allows us to mock the database in tests.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type Repository interface {
	Get(ctx context.Context, itemID string) (Item, error)
	GetByName(ctx context.Context, name string) (Item, error)
	List(ctx context.Context) ([]Item, error)
	UpsertByName(ctx context.Context, attrs ItemAttrs) (Item, error)
	Update(ctx context.Context, itemID string, patch ItemPatch) (Item, error)
	Delete(ctx context.Context, itemID string) error
	Restock(ctx context.Context, itemID string, amount int) (Item, error)
	Reserve(ctx context.Context, lines []Line) (ReserveResult, error)
	ReserveOne(ctx context.Context, itemID string, quantity int) (ReservedLine, error)
	Release(ctx context.Context, lines []Line) error
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const itemColumns = `id, name, category, price, available, image_url, created_at, updated_at`

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.Name, &it.Category, &it.Price, &it.Available, &it.ImageURL, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrNotFound
		}
		return Item{}, err
	}
	return it, nil
}

func (r *PostgresRepository) Get(ctx context.Context, itemID string) (Item, error) {
	return scanItem(r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id=$1`, itemID))
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (Item, error) {
	return scanItem(r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE name=$1`, CanonicalName(name)))
}

func (r *PostgresRepository) List(ctx context.Context) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+` FROM items ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("select items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Category, &it.Price, &it.Available, &it.ImageURL, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return items, nil
}

func (r *PostgresRepository) UpsertByName(ctx context.Context, attrs ItemAttrs) (Item, error) {
	name := CanonicalName(attrs.Name)
	switch {
	case name == "":
		return Item{}, fmt.Errorf("%w: name is required", ErrValidation)
	case attrs.Category == "":
		return Item{}, fmt.Errorf("%w: category is required", ErrValidation)
	case attrs.ImageURL == "":
		return Item{}, fmt.Errorf("%w: imageUrl is required", ErrValidation)
	case attrs.Price < 0:
		return Item{}, fmt.Errorf("%w: price cannot be negative", ErrValidation)
	case attrs.Quantity < 0:
		return Item{}, fmt.Errorf("%w: quantity cannot be negative", ErrValidation)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO items (id, name, category, price, available, image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name) DO UPDATE
		SET category=EXCLUDED.category, price=EXCLUDED.price,
		    available=EXCLUDED.available, image_url=EXCLUDED.image_url,
		    updated_at=now()
		RETURNING `+itemColumns,
		uuid.NewString(), name, attrs.Category, attrs.Price, attrs.Quantity, attrs.ImageURL)
	it, err := scanItem(row)
	if err != nil {
		return Item{}, fmt.Errorf("upsert item: %w", err)
	}
	return it, nil
}

func (r *PostgresRepository) Update(ctx context.Context, itemID string, patch ItemPatch) (Item, error) {
	if patch.Price != nil && *patch.Price < 0 {
		return Item{}, fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	if patch.Quantity != nil && *patch.Quantity < 0 {
		return Item{}, fmt.Errorf("%w: quantity cannot be negative", ErrValidation)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Item{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	it, err := scanItem(tx.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id=$1 FOR UPDATE`, itemID))
	if err != nil {
		return Item{}, err
	}

	if patch.Name != nil {
		it.Name = CanonicalName(*patch.Name)
	}
	if patch.Category != nil {
		it.Category = *patch.Category
	}
	if patch.Price != nil {
		it.Price = *patch.Price
	}
	if patch.Quantity != nil {
		it.Available = *patch.Quantity
	}
	if patch.ImageURL != nil {
		it.ImageURL = *patch.ImageURL
	}

	row := tx.QueryRow(ctx, `
		UPDATE items
		SET name=$2, category=$3, price=$4, available=$5, image_url=$6, updated_at=now()
		WHERE id=$1
		RETURNING `+itemColumns,
		it.ID, it.Name, it.Category, it.Price, it.Available, it.ImageURL)
	it, err = scanItem(row)
	if err != nil {
		return Item{}, fmt.Errorf("update item: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Item{}, fmt.Errorf("commit: %w", err)
	}
	return it, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, itemID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM items WHERE id=$1`, itemID)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Restock(ctx context.Context, itemID string, amount int) (Item, error) {
	if amount <= 0 {
		return Item{}, fmt.Errorf("%w: restock amount must be positive", ErrValidation)
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE items
		SET available = available + $2, updated_at=now()
		WHERE id=$1
		RETURNING `+itemColumns, itemID, amount)
	return scanItem(row)
}

// Reserve atomically decrements stock for every line, or nothing:
// - locks each item row (SELECT ... FOR UPDATE)
// - if any line is short, the tx is rolled back and the depleted lines
//   are reported with the availability observed under the lock
// - else stock for all lines is decremented and the tx commits
// Row locks serialize concurrent reservations on the same item, so two
// callers can never both take the last unit.
func (r *PostgresRepository) Reserve(ctx context.Context, lines []Line) (ReserveResult, error) {
	res := ReserveResult{}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return res, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	type locked struct {
		itemID    string
		name      string
		price     float64
		requested int
		available int
	}
	lockedRows := make([]locked, 0, len(lines))

	for _, line := range lines {
		var name string
		var price float64
		var available int
		err := tx.QueryRow(ctx, `
			SELECT name, price, available
			FROM items
			WHERE id=$1
			FOR UPDATE
		`, line.ItemID).Scan(&name, &price, &available)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// deleted since the cart snapshot; report as zero availability
				res.Depleted = append(res.Depleted, DepletedLine{
					ItemID: line.ItemID, Requested: line.Quantity, Available: 0,
				})
				continue
			}
			return res, err
		}

		lockedRows = append(lockedRows, locked{
			itemID: line.ItemID, name: name, price: price,
			requested: line.Quantity, available: available,
		})
		if available < line.Quantity {
			res.Depleted = append(res.Depleted, DepletedLine{
				ItemID: line.ItemID, Name: name, Requested: line.Quantity, Available: available,
			})
		}
	}

	if len(res.Depleted) > 0 {
		return res, nil
	}

	for _, row := range lockedRows {
		_, err := tx.Exec(ctx, `
			UPDATE items
			SET available = available - $2, updated_at=now()
			WHERE id=$1
		`, row.itemID, row.requested)
		if err != nil {
			return res, fmt.Errorf("decrement stock: %w", err)
		}
		res.Reserved = append(res.Reserved, ReservedLine{
			ItemID: row.itemID, Name: row.name, Price: row.price, Quantity: row.requested,
		})
	}

	if err := tx.Commit(ctx); err != nil {
		return ReserveResult{}, fmt.Errorf("commit: %w", err)
	}
	return res, nil
}

// ReserveOne is the single-item fast path. Unlike Reserve it
// distinguishes a missing item from an out-of-stock one.
func (r *PostgresRepository) ReserveOne(ctx context.Context, itemID string, quantity int) (ReservedLine, error) {
	if quantity < 1 {
		return ReservedLine{}, fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return ReservedLine{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var name string
	var price float64
	var available int
	err = tx.QueryRow(ctx, `
		SELECT name, price, available
		FROM items
		WHERE id=$1
		FOR UPDATE
	`, itemID).Scan(&name, &price, &available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ReservedLine{}, ErrNotFound
		}
		return ReservedLine{}, err
	}

	if available < quantity {
		return ReservedLine{}, &InsufficientStockError{
			ItemID: itemID, Name: name, Requested: quantity, Available: available,
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE items
		SET available = available - $2, updated_at=now()
		WHERE id=$1
	`, itemID, quantity); err != nil {
		return ReservedLine{}, fmt.Errorf("decrement stock: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return ReservedLine{}, fmt.Errorf("commit: %w", err)
	}
	return ReservedLine{ItemID: itemID, Name: name, Price: price, Quantity: quantity}, nil
}

// Release puts a previously reserved quantity back. It is the
// compensation path for a checkout that failed after reserving.
func (r *PostgresRepository) Release(ctx context.Context, lines []Line) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, line := range lines {
		if _, err := tx.Exec(ctx, `
			UPDATE items
			SET available = available + $2, updated_at=now()
			WHERE id=$1
		`, line.ItemID, line.Quantity); err != nil {
			return fmt.Errorf("restore stock: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
