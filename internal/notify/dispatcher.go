package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/5h444n/cams/internal/model"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// OutboxStore читает и помечает записи outbox
type OutboxStore interface {
	ListPending(ctx context.Context, limit int) ([]*model.Notification, error)
	MarkSent(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, final bool) error
}

// envelope формат сообщения для внешнего потребителя
type envelope struct {
	ID          int64           `json:"id"`
	RecipientID int64           `json:"recipient_id"`
	Kind        string          `json:"kind"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Dispatcher периодически забирает pending-уведомления из outbox и
// публикует их. Доставка best-effort: сбой публикации никогда не
// откатывает доменную транзакцию, породившую уведомление.
type Dispatcher struct {
	store       OutboxStore
	publisher   Publisher
	logger      *zap.Logger
	interval    time.Duration
	batchSize   int
	maxAttempts int
	stopChan    chan struct{}
}

func NewDispatcher(
	store OutboxStore,
	publisher Publisher,
	interval time.Duration,
	batchSize, maxAttempts int,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		store:       store,
		publisher:   publisher,
		logger:      logger,
		interval:    interval,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
		stopChan:    make(chan struct{}),
	}
}

// Start запускает фоновую доставку
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("Starting notification dispatcher",
		zap.Duration("interval", d.interval),
		zap.Int("batch_size", d.batchSize),
	)

	go d.run(ctx)
}

// Stop останавливает фоновую доставку
func (d *Dispatcher) Stop() {
	d.logger.Info("Stopping notification dispatcher")
	close(d.stopChan)
}

func (d *Dispatcher) run(ctx context.Context) {
	d.ProcessBatch(ctx)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.ProcessBatch(ctx)
		case <-d.stopChan:
			d.logger.Info("Dispatcher stopped")
			return
		case <-ctx.Done():
			d.logger.Info("Dispatcher cancelled")
			return
		}
	}
}

// ProcessBatch доставляет одну порцию уведомлений.
// Сбой на одном уведомлении не мешает остальным.
func (d *Dispatcher) ProcessBatch(ctx context.Context) {
	notifications, err := d.store.ListPending(ctx, d.batchSize)
	if err != nil {
		d.logger.Error("Failed to list pending notifications", zap.Error(err))
		return
	}

	for _, n := range notifications {
		if err := d.deliver(ctx, n); err != nil {
			final := n.Attempts+1 >= d.maxAttempts
			d.logger.Error("Failed to deliver notification",
				zap.Int64("notification_id", n.ID),
				zap.String("kind", string(n.Kind)),
				zap.Int("attempts", n.Attempts+1),
				zap.Bool("final", final),
				zap.Error(err),
			)
			if markErr := d.store.MarkFailed(ctx, n.ID, final); markErr != nil {
				d.logger.Error("Failed to mark notification failed",
					zap.Int64("notification_id", n.ID),
					zap.Error(markErr),
				)
			}
			continue
		}

		if err := d.store.MarkSent(ctx, n.ID); err != nil {
			d.logger.Error("Failed to mark notification sent",
				zap.Int64("notification_id", n.ID),
				zap.Error(err),
			)
		}
	}
}

// deliver публикует одно уведомление с повторами на короткие сбои брокера
func (d *Dispatcher) deliver(ctx context.Context, n *model.Notification) error {
	body, err := json.Marshal(envelope{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		Kind:        string(n.Kind),
		Payload:     n.Payload,
		CreatedAt:   n.CreatedAt,
	})
	if err != nil {
		return err
	}

	backoff := retry.WithMaxRetries(2, retry.NewExponential(200*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := d.publisher.Publish(ctx, n.Kind, body); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
