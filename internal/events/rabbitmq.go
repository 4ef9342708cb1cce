package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"video-recognizer/internal/models"
)

const QueueName = "video_events"

// VideoProcessed is published on every terminal pipeline transition so
// downstream consumers (notifiers, dashboards) can react without polling.
type VideoProcessed struct {
	VideoID    string             `json:"video_id"`
	Filename   string             `json:"filename"`
	Status     models.VideoStatus `json:"status"`
	Action     string             `json:"action,omitempty"`
	Error      string             `json:"error,omitempty"`
	OccurredAt time.Time          `json:"occurred_at"`
}

type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewPublisher connects to RabbitMQ and declares the event queue.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		QueueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	log.Printf("RabbitMQ publisher initialized with queue: %s", QueueName)

	return &Publisher{
		conn:    conn,
		channel: ch,
	}, nil
}

// PublishProcessed sends one lifecycle event to the queue.
func (p *Publisher) PublishProcessed(ctx context.Context, event VideoProcessed) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.channel.PublishWithContext(ctx,
		"",        // exchange
		QueueName, // routing key
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Closed reports whether the underlying connection is down.
func (p *Publisher) Closed() bool {
	return p.conn == nil || p.conn.IsClosed()
}

// Close closes the channel and connection
func (p *Publisher) Close() error {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			log.Printf("Error closing channel: %v", err)
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			log.Printf("Error closing connection: %v", err)
		}
	}
	return nil
}
