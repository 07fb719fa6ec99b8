package bootstrap

import (
	"context"
	"log/slog"
	"sync"

	"marketplace-checkout/internal/infra/stream"
	"marketplace-checkout/internal/infra/worker"
	"marketplace-checkout/internal/pkg/config"
	"marketplace-checkout/internal/usecase/commands"

	"go.uber.org/fx"
)

var WorkerModule = fx.Module("workers",
	fx.Invoke(
		startNotificationSweeper,
		startPaymentConsumer,
	),
)

func startNotificationSweeper(lc fx.Lifecycle, cfg config.Config, ledger commands.LedgerCommands) {
	sweeper := worker.NewNotificationSweeper(ledger, cfg.Notify.RetryInterval)
	runInBackground(lc, "notification sweeper", sweeper.Run, nil)
}

func startPaymentConsumer(lc fx.Lifecycle, cfg config.Config, ledger commands.LedgerCommands) {
	if !cfg.Kafka.Enabled() {
		slog.Info("kafka brokers not configured, payment event consumer disabled")
		return
	}
	consumer := stream.NewPaymentConsumer(ledger, stream.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	})
	runInBackground(lc, "payment event consumer", consumer.Run, consumer.Close)
}

func runInBackground(lc fx.Lifecycle, name string, run func(ctx context.Context), closeFn func() error) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			wg.Add(1)
			go func() {
				defer wg.Done()
				run(ctx)
			}()
			slog.Info("worker started", "worker", name)
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			done := make(chan struct{})
			go func() {
				wg.Wait()
				close(done)
			}()
			select {
			case <-done:
			case <-stopCtx.Done():
				slog.Warn("worker did not stop in time", "worker", name)
			}
			if closeFn != nil {
				if err := closeFn(); err != nil {
					slog.Warn("failed to close worker", "worker", name, "error", err.Error())
				}
			}
			slog.Info("worker stopped", "worker", name)
			return nil
		},
	})
}
