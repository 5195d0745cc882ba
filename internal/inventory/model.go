package inventory

import "time"

type Item struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Price     float64   `json:"price"`
	Available int       `json:"quantity"`
	ImageURL  string    `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ItemAttrs carries the writable fields for upsert-by-name.
type ItemAttrs struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	ImageURL string  `json:"imageUrl"`
}

// ItemPatch carries optional fields for a partial admin edit.
// Nil fields are left untouched.
type ItemPatch struct {
	Name     *string  `json:"name"`
	Category *string  `json:"category"`
	Price    *float64 `json:"price"`
	Quantity *int     `json:"quantity"`
	ImageURL *string  `json:"imageUrl"`
}

type Line struct {
	ItemID   string
	Quantity int
}

type DepletedLine struct {
	ItemID    string
	Name      string
	Requested int
	Available int
}

type ReserveResult struct {
	Reserved []ReservedLine
	Depleted []DepletedLine
}

// ReservedLine records the item state observed inside the reserving
// transaction, so callers can price a sale without a second read.
type ReservedLine struct {
	ItemID   string
	Name     string
	Price    float64
	Quantity int
}
