package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/kartixk/sweet-shop-management-system/internal/cart"
	"github.com/kartixk/sweet-shop-management-system/internal/inventory"
	"github.com/kartixk/sweet-shop-management-system/internal/sales"
)

var ErrEmptyCart = errors.New("cart is empty")

// Inventory is the slice of the inventory repository the engine uses.
type Inventory interface {
	Reserve(ctx context.Context, lines []inventory.Line) (inventory.ReserveResult, error)
	ReserveOne(ctx context.Context, itemID string, quantity int) (inventory.ReservedLine, error)
	Release(ctx context.Context, lines []inventory.Line) error
}

// Carts is the slice of the cart store the engine uses.
type Carts interface {
	Get(ctx context.Context, userID string) (*cart.Cart, error)
	Clear(ctx context.Context, userID string) error
}

// Ledger records completed sales.
type Ledger interface {
	Record(ctx context.Context, s *sales.Sale) error
}

// EventPublisher emits checkout outcomes. Publishing is best-effort;
// a broker failure never fails the checkout itself.
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, s *sales.Sale) error
	PublishStockDepleted(ctx context.Context, userID string, depleted []inventory.DepletedLine) error
}

// Engine is the only component that mutates both cart and inventory.
// Reservation and sale recording are never observably separable: a
// failed recording releases the reservation before the error is
// returned.
type Engine struct {
	inv    Inventory
	carts  Carts
	ledger Ledger
	events EventPublisher
	logger *log.Logger
}

func NewEngine(inv Inventory, carts Carts, ledger Ledger, events EventPublisher, logger *log.Logger) *Engine {
	return &Engine{inv: inv, carts: carts, ledger: ledger, events: events, logger: logger}
}

// ConfirmCart checks out the user's entire cart, all-or-nothing. Stock
// for every line is reserved in a single inventory transaction; if any
// line is short, nothing is decremented and the first failing line is
// reported with the availability observed under the lock.
func (e *Engine) ConfirmCart(ctx context.Context, userID string) (*sales.Sale, error) {
	c, err := e.carts.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if c == nil || len(c.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	reserve := make([]inventory.Line, 0, len(c.Lines))
	for _, ln := range c.Lines {
		reserve = append(reserve, inventory.Line{ItemID: ln.ItemID, Quantity: ln.SelectedQuantity})
	}

	res, err := e.inv.Reserve(ctx, reserve)
	if err != nil {
		return nil, fmt.Errorf("reserve stock: %w", err)
	}
	if len(res.Depleted) > 0 {
		e.publishDepleted(ctx, userID, res.Depleted)
		first := res.Depleted[0]
		return nil, &inventory.InsufficientStockError{
			ItemID:    first.ItemID,
			Name:      first.Name,
			Requested: first.Requested,
			Available: first.Available,
		}
	}

	// Price from the cart snapshot, quantity from the reservation.
	sale := &sales.Sale{UserID: userID}
	for _, ln := range c.Lines {
		lineTotal := ln.Price * float64(ln.SelectedQuantity)
		sale.Lines = append(sale.Lines, sales.Line{
			ItemID:    ln.ItemID,
			Name:      ln.Name,
			UnitPrice: ln.Price,
			Quantity:  ln.SelectedQuantity,
			LineTotal: lineTotal,
		})
		sale.OrderTotal += lineTotal
	}

	if err := e.ledger.Record(ctx, sale); err != nil {
		if relErr := e.inv.Release(ctx, reserve); relErr != nil {
			e.logger.Printf("checkout: release after failed record: %v", relErr)
			return nil, errors.Join(fmt.Errorf("record sale: %w", err), relErr)
		}
		return nil, fmt.Errorf("record sale: %w", err)
	}

	e.publishPlaced(ctx, sale)

	// The sale stands even if clearing fails; the cart will simply be
	// re-validated on the next checkout attempt.
	if err := e.carts.Clear(ctx, userID); err != nil {
		e.logger.Printf("checkout: clear cart for %s: %v", userID, err)
	}

	return sale, nil
}

// BuyNow is the single-item fast path bypassing the cart. On any
// failure no state changes.
func (e *Engine) BuyNow(ctx context.Context, userID, itemID string, quantity int) (*sales.Sale, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", inventory.ErrValidation)
	}

	reserved, err := e.inv.ReserveOne(ctx, itemID, quantity)
	if err != nil {
		return nil, err
	}

	lineTotal := reserved.Price * float64(reserved.Quantity)
	sale := &sales.Sale{
		UserID: userID,
		Lines: []sales.Line{{
			ItemID:    reserved.ItemID,
			Name:      reserved.Name,
			UnitPrice: reserved.Price,
			Quantity:  reserved.Quantity,
			LineTotal: lineTotal,
		}},
		OrderTotal: lineTotal,
	}

	if err := e.ledger.Record(ctx, sale); err != nil {
		release := []inventory.Line{{ItemID: itemID, Quantity: quantity}}
		if relErr := e.inv.Release(ctx, release); relErr != nil {
			e.logger.Printf("buy-now: release after failed record: %v", relErr)
			return nil, errors.Join(fmt.Errorf("record sale: %w", err), relErr)
		}
		return nil, fmt.Errorf("record sale: %w", err)
	}

	e.publishPlaced(ctx, sale)

	return sale, nil
}

func (e *Engine) publishPlaced(ctx context.Context, s *sales.Sale) {
	if e.events == nil {
		return
	}
	if err := e.events.PublishOrderPlaced(ctx, s); err != nil {
		e.logger.Printf("checkout: publish order placed: %v", err)
	}
}

func (e *Engine) publishDepleted(ctx context.Context, userID string, depleted []inventory.DepletedLine) {
	if e.events == nil {
		return
	}
	if err := e.events.PublishStockDepleted(ctx, userID, depleted); err != nil {
		e.logger.Printf("checkout: publish stock depleted: %v", err)
	}
}
