// Package events publishes order lifecycle events to AMQP. Publishing is
// best effort: the caller logs failures and moves on, so a broker outage
// never fails an order request.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/eshop/pkg/config"
	"github.com/example/eshop/pkg/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	OrderCreatedQueue = "order.created"
	OrderDeletedQueue = "order.deleted"
)

type OrderCreatedEvent struct {
	OrderID    string    `json:"orderId"`
	UserID     string    `json:"userId"`
	TotalPrice float64   `json:"totalPrice"`
	Status     string    `json:"status"`
	ItemIDs    []string  `json:"itemIds"`
	OccurredAt time.Time `json:"occurredAt"`
}

type OrderDeletedEvent struct {
	OrderID    string    `json:"orderId"`
	OccurredAt time.Time `json:"occurredAt"`
}

type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewPublisher(cfg *config.AMQPConfig) (*Publisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open AMQP channel: %w", err)
	}

	for _, queue := range []string{OrderCreatedQueue, OrderDeletedQueue} {
		if _, err := channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			channel.Close()
			conn.Close()
			return nil, fmt.Errorf("declare queue %s: %w", queue, err)
		}
	}

	return &Publisher{conn: conn, channel: channel}, nil
}

func (p *Publisher) OrderCreated(ctx context.Context, order *models.Order) error {
	itemIDs := make([]string, len(order.OrderItems))
	for i, id := range order.OrderItems {
		itemIDs[i] = id.Hex()
	}

	return p.publish(ctx, OrderCreatedQueue, OrderCreatedEvent{
		OrderID:    order.ID.Hex(),
		UserID:     order.User.Hex(),
		TotalPrice: order.TotalPrice,
		Status:     order.Status,
		ItemIDs:    itemIDs,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *Publisher) OrderDeleted(ctx context.Context, orderID primitive.ObjectID) error {
	return p.publish(ctx, OrderDeletedQueue, OrderDeletedEvent{
		OrderID:    orderID.Hex(),
		OccurredAt: time.Now().UTC(),
	})
}

func (p *Publisher) publish(ctx context.Context, queue string, event interface{}) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = p.channel.PublishWithContext(ctx,
		"",    // default exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", queue, err)
	}
	return nil
}

func (p *Publisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
