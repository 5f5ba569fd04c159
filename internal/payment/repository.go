package payment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

// Repository is the log of received provider webhooks. (provider, event_id)
// is unique; a redelivered event is only handed out again while it has not
// been processed.
type Repository interface {
	SaveWebhook(ctx context.Context, ev WebhookEvent) (webhookID int64, isDuplicate bool, err error)
	MarkWebhookProcessed(ctx context.Context, webhookID int64) error
	MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error
}

type WebhookEvent struct {
	Provider       string
	EventID        string
	EventType      string
	ExternalID     string
	Payload        json.RawMessage
	SignatureValid bool
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) SaveWebhook(ctx context.Context, ev WebhookEvent) (int64, bool, error) {
	const q = `
	INSERT INTO payment_webhooks (
		provider,
		event_id,
		event_type,
		external_id,
		signature_valid,
		payload
	)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (provider, event_id)
	DO UPDATE SET payload = EXCLUDED.payload
	WHERE payment_webhooks.processed_at IS NULL
	RETURNING id;
	`

	var id int64
	err := r.db.QueryRowContext(
		ctx,
		q,
		ev.Provider,
		ev.EventID,
		ev.EventType,
		ev.ExternalID,
		ev.SignatureValid,
		[]byte(ev.Payload),
	).Scan(&id)

	if err != nil {
		// Already processed
		if errors.Is(err, sql.ErrNoRows) {
			return 0, true, nil
		}
		logger.Op(ctx, "repository", "SaveWebhook",
			zap.String("provider", ev.Provider),
			zap.String("event_id", ev.EventID),
		).Error("failed to save webhook", zap.Error(err))
		return 0, false, err
	}

	return id, false, nil
}

func (r *repository) MarkWebhookProcessed(ctx context.Context, webhookID int64) error {
	const q = `
	UPDATE payment_webhooks
	SET processed_at = now(), process_error = NULL
	WHERE id = $1;
	`

	_, err := r.db.ExecContext(ctx, q, webhookID)
	return err
}

func (r *repository) MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error {
	const q = `
	UPDATE payment_webhooks
	SET process_error = $2
	WHERE id = $1;
	`

	_, err := r.db.ExecContext(ctx, q, webhookID, reason)
	return err
}
