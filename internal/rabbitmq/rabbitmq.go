package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type RabbitMQClient struct {
	conn    *amqp.Connection
	channel *amqp.Channel

	mu     sync.Mutex
	queues map[string]amqp.Queue
}

func New(urlForConn string) (*RabbitMQClient, error) {
	const op = "rabbitmq.New"

	conn, err := amqp.Dial(urlForConn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RabbitMQClient{
		conn:    conn,
		channel: ch,
		queues:  make(map[string]amqp.Queue),
	}, nil
}

// * DeclareQueue объявляет durable очередь один раз на клиента
func (r *RabbitMQClient) DeclareQueue(name string) error {
	const op = "rabbitmq.DeclareQueue"

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.queues[name]; ok {
		return nil
	}

	q, err := r.channel.QueueDeclare(
		name, true, false, false, false, nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	r.queues[name] = q

	return nil
}

// * Send публикует payload в очередь как JSON. Подтверждения доставки не ждет
func (r *RabbitMQClient) Send(ctx context.Context, queue string, payload any) error {
	const op = "rabbitmq.Send"

	if err := r.DeclareQueue(queue); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = r.channel.PublishWithContext(
		ctx,
		"",
		queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// * StartReading читает очередь до отмены ctx. Сообщение подтверждается, если handler вернул nil
func (r *RabbitMQClient) StartReading(ctx context.Context, queue string, handler func([]byte) error) error {
	const op = "rabbitmq.StartReading"

	if err := r.DeclareQueue(queue); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := r.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msgs, err := r.channel.ConsumeWithContext(ctx, queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("%s: delivery channel closed", op)
			}

			if err := handler(msg.Body); err != nil {
				_ = msg.Nack(false, false)
				continue
			}

			_ = msg.Ack(false)
		}
	}
}

func (r *RabbitMQClient) IsClosed() bool {
	return r.conn.IsClosed()
}

func (r *RabbitMQClient) Close() {
	_ = r.channel.Close()
	_ = r.conn.Close()
}
