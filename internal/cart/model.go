package cart

import "time"

// Line snapshots the item's name, price and availability at the time of
// the cart mutation. The snapshot is advisory only; checkout
// re-validates against live inventory.
type Line struct {
	ItemID           string  `json:"itemId"`
	Name             string  `json:"name"`
	Price            float64 `json:"price"`
	SelectedQuantity int     `json:"selectedQuantity"`
	Available        int     `json:"availableQuantity"`
}

type Cart struct {
	ID        string    `json:"cartId"`
	UserID    string    `json:"userId"`
	Lines     []Line    `json:"items"`
	Total     float64   `json:"total"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RecomputeTotal derives the total from the lines. The total is never
// patched incrementally.
func (c *Cart) RecomputeTotal() {
	total := 0.0
	for _, ln := range c.Lines {
		total += float64(ln.SelectedQuantity) * ln.Price
	}
	c.Total = total
}
