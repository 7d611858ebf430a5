package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/settleflow/payment-orchestrator/internal/webhooks/domain"
	"github.com/settleflow/payment-orchestrator/internal/webhooks/ports"
)

// PostgreSQL error code for unique constraint violations.
const uniqueViolationCode = "23505"

type Ledger struct {
	pool *pgxpool.Pool
}

func NewLedger(pool *pgxpool.Pool) *Ledger {
	return &Ledger{pool: pool}
}

func (l *Ledger) ExistsByEventID(ctx context.Context, eventID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM webhook_events WHERE event_id = $1
		)
	`

	var exists bool
	if err := l.pool.QueryRow(ctx, query, eventID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check webhook event existence: %w", err)
	}

	return exists, nil
}

// CheckAndCreate records the event inside one transaction: existence check,
// then insert. A unique violation raised by a racing insert is treated the
// same as a duplicate found up front.
func (l *Ledger) CheckAndCreate(ctx context.Context, event domain.Event) (*domain.Event, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin ledger transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	existsQuery := `
		SELECT EXISTS (
			SELECT 1 FROM webhook_events WHERE event_id = $1
		)
	`
	if err := tx.QueryRow(ctx, existsQuery, event.EventID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check webhook event existence: %w", err)
	}
	if exists {
		return nil, nil
	}

	insertQuery := `
		INSERT INTO webhook_events (id, event_id, psp, event_type, cart_id, payload, processed, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = tx.Exec(ctx, insertQuery,
		event.ID,
		event.EventID,
		event.PSP,
		event.EventType,
		nullable(event.CartID),
		event.Payload,
		event.Processed,
		nullable(event.ErrorMessage),
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, nil
		}
		return nil, fmt.Errorf("insert webhook event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit ledger transaction: %w", err)
	}

	return &event, nil
}

func (l *Ledger) MarkProcessed(ctx context.Context, id string) error {
	query := `
		UPDATE webhook_events
		SET processed = TRUE, processed_at = now(), updated_at = now()
		WHERE id = $1
	`

	tag, err := l.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark webhook event processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrNotFound
	}

	return nil
}

func (l *Ledger) MarkFailed(ctx context.Context, id string, errorMessage string) error {
	query := `
		UPDATE webhook_events
		SET processed = TRUE, error_message = $2, processed_at = now(), updated_at = now()
		WHERE id = $1
	`

	tag, err := l.pool.Exec(ctx, query, id, errorMessage)
	if err != nil {
		return fmt.Errorf("mark webhook event failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrNotFound
	}

	return nil
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
