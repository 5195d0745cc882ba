package sales

import "time"

type Status string

const (
	StatusPlaced Status = "PLACED"
)

type Line struct {
	ItemID    string  `json:"itemId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	LineTotal float64 `json:"totalPrice"`
}

// Sale is a historical snapshot: its recorded prices and quantities
// never change even if the item later does.
type Sale struct {
	ID         string    `json:"saleId"`
	UserID     string    `json:"userId"`
	Lines      []Line    `json:"items"`
	OrderTotal float64   `json:"orderTotal"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Filter narrows a ledger query. A zero From/To is unbounded on that
// side; an empty UserID matches all users.
type Filter struct {
	UserID string
	From   time.Time
	To     time.Time
}

type Summary struct {
	Count       int     `json:"count"`
	TotalAmount float64 `json:"totalAmount"`
}
