package repository

import (
	"context"
	"fmt"
	"time"

	"marketplace-checkout/internal/domain/order"
	"marketplace-checkout/internal/infra"
	"marketplace-checkout/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const notificationColumns = `order_id, recipient, status, attempts, last_error, claimed_until, sent_at`

// claimableWhere matches records a dispatcher may take: unsent, under the
// attempt cap and not held by a live lease.
func claimableWhere(nowArg, maxArg int) string {
	return fmt.Sprintf(`($%[2]d <= 0 OR attempts < $%[2]d)
		AND (status IN ('pending', 'failed') OR (status = 'sending' AND claimed_until < $%[1]d))`, nowArg, maxArg)
}

type NotificationRepository struct {
	db db.DBTX
}

func NewNotificationRepository(dbtx db.DBTX) *NotificationRepository {
	return &NotificationRepository{db: dbtx}
}

func (r *NotificationRepository) CreatePending(ctx context.Context, ns []order.Notification) error {
	batch := &pgx.Batch{}
	for _, n := range ns {
		batch.Queue(`
			INSERT INTO order_notifications (order_id, recipient, status, attempts)
			VALUES ($1, $2, $3, 0)
			ON CONFLICT (order_id, recipient) DO NOTHING`,
			n.OrderID, string(n.Recipient), string(order.NotificationPending))
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()
	for range ns {
		if _, err := results.Exec(); err != nil {
			return infra.WrapRepoErr("failed to create notification records", err)
		}
	}
	return nil
}

func (r *NotificationRepository) Claim(ctx context.Context, orderID uuid.UUID, recipient order.Recipient, now, leaseUntil time.Time, maxAttempts int) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE order_notifications
		SET status = 'sending', attempts = attempts + 1, claimed_until = $4, updated_at = $3
		WHERE order_id = $1 AND recipient = $2 AND `+claimableWhere(3, 5),
		orderID, string(recipient), now, leaseUntil, maxAttempts)
	if err != nil {
		return false, infra.WrapRepoErr("failed to claim notification", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *NotificationRepository) MarkSent(ctx context.Context, orderID uuid.UUID, recipient order.Recipient, sentAt time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE order_notifications
		SET status = 'sent', sent_at = $3, last_error = NULL, claimed_until = NULL, updated_at = $3
		WHERE order_id = $1 AND recipient = $2`,
		orderID, string(recipient), sentAt)
	if err != nil {
		return infra.WrapRepoErr("failed to mark notification sent", err)
	}
	return nil
}

func (r *NotificationRepository) MarkFailed(ctx context.Context, orderID uuid.UUID, recipient order.Recipient, lastError string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE order_notifications
		SET status = 'failed', last_error = $3, claimed_until = NULL, updated_at = now()
		WHERE order_id = $1 AND recipient = $2 AND status <> 'sent'`,
		orderID, string(recipient), lastError)
	if err != nil {
		return infra.WrapRepoErr("failed to mark notification failed", err)
	}
	return nil
}

func (r *NotificationRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]order.Notification, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+notificationColumns+`
		FROM order_notifications
		WHERE order_id = $1
		ORDER BY recipient`, orderID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list notifications", err)
	}
	return collectNotifications(rows)
}

func (r *NotificationRepository) ListClaimable(ctx context.Context, now time.Time, maxAttempts, limit int) ([]order.Notification, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+notificationColumns+`
		FROM order_notifications
		WHERE `+claimableWhere(1, 2)+`
		ORDER BY updated_at
		LIMIT $3`, now, maxAttempts, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list claimable notifications", err)
	}
	return collectNotifications(rows)
}

func collectNotifications(rows pgx.Rows) ([]order.Notification, error) {
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Notification, error) {
		var (
			n         order.Notification
			recipient string
			status    string
		)
		err := row.Scan(&n.OrderID, &recipient, &status, &n.Attempts, &n.LastError, &n.ClaimedUntil, &n.SentAt)
		n.Recipient = order.Recipient(recipient)
		n.Status = order.NotificationStatus(status)
		return n, err
	})
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan notifications", err)
	}
	return out, nil
}
