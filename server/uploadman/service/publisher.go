package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"upload_server/server/uploadman/domain"
)

const (
	eventsExchange     = "file.events"
	uploadedRoutingKey = "files.uploaded"
)

// AMQPPublisher emits upload events on a durable topic exchange for downstream
// consumers (reconciliation, indexing).
type AMQPPublisher struct {
	channel *amqp.Channel
}

func NewAMQPPublisher(conn *amqp.Connection) (*AMQPPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.ExchangeDeclare(eventsExchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, err
	}
	return &AMQPPublisher{channel: ch}, nil
}

func (p *AMQPPublisher) PublishUploaded(ctx context.Context, evt domain.UploadedEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.channel.PublishWithContext(ctx, eventsExchange, uploadedRoutingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
		Timestamp:   time.Now(),
	})
}

func (p *AMQPPublisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
}
