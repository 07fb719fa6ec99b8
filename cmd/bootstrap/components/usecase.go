package components

import (
	"marketplace-checkout/internal/handler/api"
	"marketplace-checkout/internal/infra/gateway"
	"marketplace-checkout/internal/infra/notifier"
	"marketplace-checkout/internal/pkg/clock"
	"marketplace-checkout/internal/pkg/config"
	"marketplace-checkout/internal/pkg/metrics"
	"marketplace-checkout/internal/usecase/commands"
	"marketplace-checkout/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseAdaptersModule,
	usecaseQueriesModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	metrics.NewRegistry,
)

var usecaseAdaptersModule = fx.Module("usecase/adapters",
	fx.Provide(
		fx.Annotate(
			NewPaymentGateway,
			fx.As(new(commands.PaymentGateway)),
		),
		fx.Annotate(
			NewNotificationDispatcher,
			fx.As(new(commands.NotificationDispatcher)),
		),
		fx.Annotate(
			NewSignatureVerifier,
			fx.As(new(api.SignatureVerifier)),
		),
	),
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		NewCheckoutOptions,
		NewLedgerOptions,
		commands.NewCheckoutCommands,
		commands.NewLedgerCommands,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewCheckoutQueries,
	),
)

func NewPaymentGateway(cfg config.Config) *gateway.Client {
	return gateway.NewClient(gateway.Config{
		BaseURL:   cfg.Payment.BaseURL,
		SecretKey: cfg.Payment.SecretKey,
		Timeout:   cfg.Payment.Timeout,
	})
}

func NewNotificationDispatcher(cfg config.Config) *notifier.Mailer {
	return notifier.NewMailer(notifier.SMTPConfig{
		Host:          cfg.Notify.SMTPHost,
		Port:          cfg.Notify.SMTPPort,
		User:          cfg.Notify.SMTPUser,
		Password:      cfg.Notify.SMTPPassword,
		From:          cfg.Notify.From,
		OperatorEmail: cfg.Notify.OperatorEmail,
		Timeout:       cfg.Notify.SendTimeout,
	})
}

func NewSignatureVerifier(cfg config.Config, clk clock.Clock) *gateway.Verifier {
	return gateway.NewVerifier(cfg.Payment.WebhookSecret, cfg.Payment.WebhookTolerance, clk.Now)
}

func NewCheckoutOptions(cfg config.Config) commands.CheckoutOptions {
	return commands.CheckoutOptions{
		SessionTTL:     cfg.Checkout.SessionTTL,
		GatewayTimeout: cfg.Payment.Timeout,
		SuccessURL:     cfg.Payment.SuccessURL,
		CancelURL:      cfg.Payment.CancelURL,
	}
}

func NewLedgerOptions(cfg config.Config) commands.LedgerOptions {
	return commands.LedgerOptions{
		MaxAttempts:    cfg.Notify.MaxAttempts,
		InlineAttempts: cfg.Notify.InlineAttempts,
		RetryBackoff:   cfg.Notify.RetryBackoff,
		SendTimeout:    cfg.Notify.SendTimeout,
		ClaimLease:     cfg.Notify.ClaimLease,
		SweepBatchSize: cfg.Notify.SweepBatchSize,
	}
}
