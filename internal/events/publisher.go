package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/google/uuid"
	"github.com/kartixk/sweet-shop-management-system/internal/inventory"
	"github.com/kartixk/sweet-shop-management-system/internal/sales"
	"github.com/kartixk/sweet-shop-management-system/internal/sequence"
)

type Publisher struct {
	ch       *amqp.Channel
	seqRepo  *sequence.Repository
	producer string
}

func NewPublisher(conn *amqp.Connection, seqRepo *sequence.Repository, producer string) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareEventsExchange(ch); err != nil {
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}

	if producer == "" {
		producer = "sweet-shop"
	}

	return &Publisher{ch: ch, seqRepo: seqRepo, producer: producer}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishOrderPlaced(ctx context.Context, s *sales.Sale) error {
	timestamp := time.Now().UTC()

	payload := OrderPlacedPayload{
		SaleID:     s.ID,
		UserID:     s.UserID,
		OrderTotal: s.OrderTotal,
		Timestamp:  timestamp,
	}
	for _, ln := range s.Lines {
		payload.Items = append(payload.Items, OrderPlacedLine{
			ItemID:    ln.ItemID,
			Name:      ln.Name,
			UnitPrice: ln.UnitPrice,
			Quantity:  ln.Quantity,
		})
	}

	return p.publishEnveloped(ctx, EventTypeOrderPlaced, OrderPlacedRoutingKey, s.UserID, payload, timestamp)
}

func (p *Publisher) PublishStockDepleted(ctx context.Context, userID string, depleted []inventory.DepletedLine) error {
	timestamp := time.Now().UTC()

	payload := StockDepletedPayload{
		UserID:    userID,
		Timestamp: timestamp,
	}
	for _, d := range depleted {
		payload.Depleted = append(payload.Depleted, DepletedLine{
			ItemID:    d.ItemID,
			Requested: d.Requested,
			Available: d.Available,
		})
	}

	return p.publishEnveloped(ctx, EventTypeStockDepleted, StockDepletedRoutingKey, userID, payload, timestamp)
}

func (p *Publisher) publishEnveloped(ctx context.Context, eventName, routingKey, partitionKey string, payload any, occurredAt time.Time) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventName, err)
	}

	seq, err := p.seqRepo.NextSequence(ctx, partitionKey)
	if err != nil {
		return fmt.Errorf("reserve sequence: %w", err)
	}

	env := EventEnvelope{
		EventName:    eventName,
		EventVersion: 1,
		EventID:      uuid.NewString(),
		Producer:     p.producer,
		PartitionKey: partitionKey,
		Sequence:     seq,
		OccurredAt:   occurredAt,
		Payload:      raw,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", eventName, err)
	}

	return p.publishJSON(ctx, routingKey, body)
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
