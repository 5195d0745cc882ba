package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventEnvelope is the shared envelope for v1 contracts.
type EventEnvelope struct {
	EventName     string          `json:"eventName"`
	EventVersion  int             `json:"eventVersion"`
	EventID       string          `json:"eventId"`
	CorrelationID string          `json:"correlationId,omitempty"`
	Producer      string          `json:"producer"`
	PartitionKey  string          `json:"partitionKey"`
	Sequence      int64           `json:"sequence,omitempty"`
	OccurredAt    time.Time       `json:"occurredAt"`
	Payload       json.RawMessage `json:"payload"`
}

func (e EventEnvelope) Validate(expectedName string, expectedVersion int) error {
	if e.EventName != expectedName {
		return fmt.Errorf("unexpected eventName %q", e.EventName)
	}
	if e.EventVersion != expectedVersion {
		return fmt.Errorf("unexpected eventVersion %d", e.EventVersion)
	}
	if e.PartitionKey == "" {
		return fmt.Errorf("missing partitionKey")
	}
	if e.EventID == "" {
		return fmt.Errorf("missing eventId")
	}
	return nil
}

const (
	EventTypeOrderPlaced   = "OrderPlaced"
	EventTypeStockDepleted = "StockDepleted"
)

type OrderPlacedLine struct {
	ItemID    string  `json:"itemId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

type OrderPlacedPayload struct {
	SaleID     string            `json:"saleId"`
	UserID     string            `json:"userId"`
	Items      []OrderPlacedLine `json:"items"`
	OrderTotal float64           `json:"orderTotal"`
	Timestamp  time.Time         `json:"timestamp"`
}

type DepletedLine struct {
	ItemID    string `json:"itemId"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

type StockDepletedPayload struct {
	UserID    string         `json:"userId"`
	Depleted  []DepletedLine `json:"depleted"`
	Timestamp time.Time      `json:"timestamp"`
}
