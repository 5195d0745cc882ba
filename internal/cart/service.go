package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/kartixk/sweet-shop-management-system/internal/inventory"
)

// ItemReader is the slice of the inventory repository the cart needs.
type ItemReader interface {
	Get(ctx context.Context, itemID string) (inventory.Item, error)
}

// Store owns one cart per user. Every structural change re-reads the
// live item, refreshes the line snapshot and recomputes the total.
// Concurrent edits to the same cart are last-writer-wins; the
// authoritative stock check happens at checkout.
type Store struct {
	repo  Repository
	items ItemReader
}

func NewStore(repo Repository, items ItemReader) *Store {
	return &Store{repo: repo, items: items}
}

// Get returns the user's cart, or an empty cart if none exists yet.
func (s *Store) Get(ctx context.Context, userID string) (*Cart, error) {
	c, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return &Cart{UserID: userID, Lines: []Line{}}, nil
	}
	return c, nil
}

// SetLine adds the item to the cart, or overwrites the existing line's
// quantity and snapshot.
func (s *Store) SetLine(ctx context.Context, userID, itemID string, quantity int) (*Cart, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", inventory.ErrValidation)
	}

	item, err := s.items.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if quantity > item.Available {
		return nil, &inventory.InsufficientStockError{
			ItemID: item.ID, Name: item.Name, Requested: quantity, Available: item.Available,
		}
	}

	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range c.Lines {
		if c.Lines[i].ItemID == itemID {
			c.Lines[i].SelectedQuantity = quantity
			c.Lines[i].Price = item.Price
			c.Lines[i].Available = item.Available
			found = true
			break
		}
	}
	if !found {
		c.Lines = append(c.Lines, Line{
			ItemID:           item.ID,
			Name:             item.Name,
			Price:            item.Price,
			SelectedQuantity: quantity,
			Available:        item.Available,
		})
	}

	return s.save(ctx, c)
}

// AdjustLine changes the quantity of a line that is already in the
// cart. A missing line is ErrNotFound, not an implicit add.
func (s *Store) AdjustLine(ctx context.Context, userID, itemID string, quantity int) (*Cart, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", inventory.ErrValidation)
	}

	c, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, inventory.ErrNotFound
	}

	idx := -1
	for i := range c.Lines {
		if c.Lines[i].ItemID == itemID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, inventory.ErrNotFound
	}

	item, err := s.items.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if quantity > item.Available {
		return nil, &inventory.InsufficientStockError{
			ItemID: item.ID, Name: item.Name, Requested: quantity, Available: item.Available,
		}
	}

	c.Lines[idx].SelectedQuantity = quantity
	c.Lines[idx].Price = item.Price
	c.Lines[idx].Available = item.Available

	return s.save(ctx, c)
}

// RemoveLine is idempotent: removing an absent line leaves the cart
// unchanged and returns it.
func (s *Store) RemoveLine(ctx context.Context, userID, itemID string) (*Cart, error) {
	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	kept := c.Lines[:0]
	for _, ln := range c.Lines {
		if ln.ItemID != itemID {
			kept = append(kept, ln)
		}
	}
	c.Lines = kept

	return s.save(ctx, c)
}

func (s *Store) Clear(ctx context.Context, userID string) error {
	return s.repo.ClearCart(ctx, userID)
}

func (s *Store) save(ctx context.Context, c *Cart) (*Cart, error) {
	c.RecomputeTotal()
	c.UpdatedAt = time.Now()
	if err := s.repo.UpsertCart(ctx, c); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return c, nil
}
