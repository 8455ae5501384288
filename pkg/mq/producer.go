package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/rabbitmq/amqp091-go"
)

type Producer struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
}

func NewProducer(rabbitmqURL string) (*Producer, error) {
	conn, err := amqp091.Dial(rabbitmqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	producer := &Producer{conn: conn, channel: ch}
	if err := producer.setupTopology(); err != nil {
		producer.Close()
		return nil, fmt.Errorf("failed to setup topology: %w", err)
	}
	return producer, nil
}

func (p *Producer) setupTopology() error {
	exchanges := []string{LikeEventExchange, ConsistencyEventExchange}
	for _, name := range exchanges {
		err := p.channel.ExchangeDeclare(
			name,
			"direct",
			true,  // durable
			false, // auto-delete
			false, // internal
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("failed to declare exchange %s: %w", name, err)
		}
	}

	bindings := map[string]string{
		LikeEventQueue:        LikeEventExchange,
		ConsistencyEventQueue: ConsistencyEventExchange,
	}
	for queue, exchange := range bindings {
		_, err := p.channel.QueueDeclare(
			queue,
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", queue, err)
		}
		if err := p.channel.QueueBind(queue, queue, exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s: %w", queue, err)
		}
	}
	return nil
}

// PublishLikeEvent is fire-and-soft-fail: the toggle has already been
// persisted, so a broker hiccup only loses the notification.
func (p *Producer) PublishLikeEvent(ctx context.Context, event *LikeEvent) error {
	return p.publish(ctx, LikeEventExchange, LikeEventQueue, event)
}

func (p *Producer) PublishConsistencyEvent(ctx context.Context, event *ConsistencyEvent) error {
	return p.publish(ctx, ConsistencyEventExchange, ConsistencyEventQueue, event)
}

func (p *Producer) publish(ctx context.Context, exchange, key string, event interface{}) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(ctx, exchange, key, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		hlog.CtxErrorf(ctx, "Failed to publish event to %s: %v", exchange, err)
		return err
	}
	return nil
}

func (p *Producer) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
