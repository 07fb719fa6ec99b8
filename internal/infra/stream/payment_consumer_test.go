//go:build unit

package stream

import (
	"context"
	"errors"
	"testing"

	"marketplace-checkout/internal/usecase/commands"
	commandsmock "marketplace-checkout/tests/mock/commands"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fakeReader struct {
	messages  []kafka.Message
	fetchErr  error
	committed []kafka.Message
}

func (r *fakeReader) FetchMessage(context.Context) (kafka.Message, error) {
	if r.fetchErr != nil {
		return kafka.Message{}, r.fetchErr
	}
	m := r.messages[0]
	r.messages = r.messages[1:]
	return m, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error { return nil }

const completedEvent = `{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1","amount_total":2500,"currency":"usd","payment_status":"paid"}}}`

func newConsumer(t *testing.T, payload string) (*PaymentConsumer, *fakeReader, *commandsmock.MockLedgerCommands) {
	t.Helper()
	ledger := commandsmock.NewMockLedgerCommands(gomock.NewController(t))
	reader := &fakeReader{messages: []kafka.Message{{Topic: "payment-events", Offset: 7, Value: []byte(payload)}}}
	return &PaymentConsumer{ledger: ledger, reader: reader}, reader, ledger
}

func TestProcessMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("handled event is committed", func(t *testing.T) {
		c, reader, ledger := newConsumer(t, completedEvent)
		ledger.EXPECT().HandlePaymentCompleted(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, evt commands.PaymentCompleted) (*commands.PaymentCompletedResult, error) {
				assert.Equal(t, "cs_1", evt.PaymentSessionID)
				assert.Equal(t, "25.00 USD", evt.Amount.String())
				return &commands.PaymentCompletedResult{}, nil
			})

		require.NoError(t, c.processMessage(ctx))
		assert.Len(t, reader.committed, 1)
	})

	t.Run("anomalies are committed", func(t *testing.T) {
		c, reader, ledger := newConsumer(t, completedEvent)
		ledger.EXPECT().HandlePaymentCompleted(gomock.Any(), gomock.Any()).Return(nil, commands.ErrAmountMismatch)

		require.NoError(t, c.processMessage(ctx))
		assert.Len(t, reader.committed, 1)
	})

	t.Run("malformed payloads are committed without reaching the ledger", func(t *testing.T) {
		c, reader, _ := newConsumer(t, `not json`)

		require.NoError(t, c.processMessage(ctx))
		assert.Len(t, reader.committed, 1)
	})

	t.Run("unrelated event types are committed", func(t *testing.T) {
		c, reader, _ := newConsumer(t, `{"id":"evt_9","type":"charge.refunded"}`)

		require.NoError(t, c.processMessage(ctx))
		assert.Len(t, reader.committed, 1)
	})

	t.Run("unpaid completions are committed without reaching the ledger", func(t *testing.T) {
		c, reader, _ := newConsumer(t, `{"id":"evt_5","type":"checkout.session.completed","data":{"object":{"id":"cs_1","amount_total":2500,"currency":"usd","payment_status":"unpaid"}}}`)

		require.NoError(t, c.processMessage(ctx))
		assert.Len(t, reader.committed, 1)
	})

	t.Run("transient failures stay uncommitted", func(t *testing.T) {
		c, reader, ledger := newConsumer(t, completedEvent)
		ledger.EXPECT().HandlePaymentCompleted(gomock.Any(), gomock.Any()).
			Return(nil, errors.New("database unavailable"))

		assert.Error(t, c.processMessage(ctx))
		assert.Empty(t, reader.committed)
	})

	t.Run("cancelled fetch is not an error", func(t *testing.T) {
		c, reader, _ := newConsumer(t, completedEvent)
		reader.fetchErr = context.Canceled

		assert.NoError(t, c.processMessage(ctx))
	})
}
