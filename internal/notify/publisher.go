package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/5h444n/cams/internal/model"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// exchangeName topic-exchange исходящих уведомлений;
// routing key — вид уведомления
const exchangeName = "cams.notifications"

// Publisher доставляет уведомление внешнему потребителю (почтовый шлюз и т.п.)
type Publisher interface {
	Publish(ctx context.Context, kind model.NotificationKind, body []byte) error
	Close() error
}

// AMQPPublisher публикует уведомления в RabbitMQ
type AMQPPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *zap.Logger
}

func NewAMQPPublisher(url string, logger *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchangeName,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPPublisher{
		conn:    conn,
		channel: channel,
		logger:  logger,
	}, nil
}

// Publish отправляет уведомление в exchange
func (p *AMQPPublisher) Publish(ctx context.Context, kind model.NotificationKind, body []byte) error {
	err := p.channel.PublishWithContext(
		ctx,
		exchangeName,
		string(kind), // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.New().String(),
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}

	return nil
}

// Close закрывает канал и соединение
func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// NoopPublisher заглушка для разработки без брокера: только логирует
type NoopPublisher struct {
	logger *zap.Logger
}

func NewNoopPublisher(logger *zap.Logger) *NoopPublisher {
	return &NoopPublisher{logger: logger}
}

func (p *NoopPublisher) Publish(_ context.Context, kind model.NotificationKind, body []byte) error {
	p.logger.Debug("Notification skipped (noop publisher)",
		zap.String("kind", string(kind)),
		zap.Int("body_size", len(body)),
	)
	return nil
}

func (p *NoopPublisher) Close() error {
	return nil
}
