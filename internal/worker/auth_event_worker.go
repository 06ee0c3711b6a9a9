package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"account-service/internal/model"
	"account-service/internal/platform/rabbitmq"
)

type AuthEventStore interface {
	Create(ctx context.Context, event *model.AuthEvent) error
}

// AuthEventWorker drains the auth event queue into the audit table.
type AuthEventWorker struct {
	conn      *amqp.Connection
	store     AuthEventStore
	queueName string
	logger    *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewAuthEventWorker(conn *amqp.Connection, store AuthEventStore, queueName string, logger *slog.Logger) *AuthEventWorker {
	return &AuthEventWorker{
		conn:      conn,
		store:     store,
		queueName: queueName,
		logger:    logger.With("component", "auth_event_worker", "queue", queueName),
	}
}

func (w *AuthEventWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := w.handle(workerCtx, d.Body); err != nil {
					w.logger.ErrorContext(workerCtx, "drop auth event", "error", err)
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	w.logger.InfoContext(ctx, "auth event worker started")
	return nil
}

func (w *AuthEventWorker) handle(ctx context.Context, body []byte) error {
	event, err := rabbitmq.DecodeEvent(body)
	if err != nil {
		return err
	}
	event.ID = 0
	return w.store.Create(ctx, &event)
}

func (w *AuthEventWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
