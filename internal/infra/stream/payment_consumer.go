package stream

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"marketplace-checkout/internal/infra/gateway"
	"marketplace-checkout/internal/pkg/errs"
	"marketplace-checkout/internal/usecase/commands"

	"github.com/segmentio/kafka-go"
)

type Config struct {
	Brokers []string
	Topic   string
	GroupID string
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// PaymentConsumer feeds provider events relayed through Kafka into the ledger.
// Offsets are committed only once a message is handled or known to be
// unprocessable, so transient failures are redelivered.
type PaymentConsumer struct {
	ledger  commands.LedgerCommands
	reader  messageReader
	backoff time.Duration
}

func NewPaymentConsumer(ledger commands.LedgerCommands, cfg Config) *PaymentConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MaxBytes: 10e6, // 10MB
	})
	return &PaymentConsumer{ledger: ledger, reader: reader, backoff: time.Second}
}

func (c *PaymentConsumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := c.processMessage(ctx); err != nil && ctx.Err() == nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.backoff):
			}
		}
	}
}

func (c *PaymentConsumer) Close() error {
	return c.reader.Close()
}

func (c *PaymentConsumer) processMessage(ctx context.Context) error {
	m, err := c.reader.FetchMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		slog.Error("failed to fetch payment event", "error", err.Error())
		return err
	}

	logger := slog.With("topic", m.Topic, "partition", m.Partition, "offset", m.Offset)

	if err := c.handle(ctx, m.Value); err != nil {
		logger.Error("payment event left uncommitted for redelivery", "error", err.Error())
		return err
	}

	if err := c.reader.CommitMessages(ctx, m); err != nil {
		logger.Error("failed to commit payment event", "error", err.Error())
		return err
	}
	return nil
}

// handle returns an error only when the message should be redelivered.
func (c *PaymentConsumer) handle(ctx context.Context, payload []byte) error {
	evt, err := gateway.ParseEvent(payload)
	if err != nil {
		slog.Warn("dropping malformed payment event", "error", err.Error())
		return nil
	}
	if !evt.IsCheckoutCompleted() {
		slog.Debug("ignoring payment event", "provider_event_id", evt.ID, "type", evt.Type)
		return nil
	}
	if !evt.IsPaid() {
		slog.Info("ignoring unpaid checkout completion",
			"provider_event_id", evt.ID,
			"payment_status", evt.Data.Object.PaymentStatus)
		return nil
	}

	signal, err := evt.PaymentCompleted()
	if err != nil {
		slog.Warn("dropping malformed payment event", "provider_event_id", evt.ID, "error", err.Error())
		return nil
	}

	_, err = c.ledger.HandlePaymentCompleted(ctx, signal)
	switch {
	case err == nil:
		return nil
	case commands.IsAnomaly(err):
		// Already logged by the ledger; redelivery cannot change the outcome.
		return nil
	default:
		return errs.Wrap(err, "payment event handling failed")
	}
}
