package events

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange          = "sweetshop.events"
	OrderPlacedRoutingKey   = "order.placed.v1"
	StockDepletedRoutingKey = "stock.depleted.v1"
)

func declareEventsExchange(ch *amqp.Channel) error {
	return ch.ExchangeDeclare(
		EventsExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
}

func Dial(url string) (*amqp.Connection, error) {
	return amqp.Dial(url)
}
