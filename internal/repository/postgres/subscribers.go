package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/toannhu96/gia-vang-365/internal/domain"
)

// SubscriberRepo manages the Telegram subscriber list. Subscribers are never
// physically removed: unsubscribing sets deleted_at, resubscribing clears it.
type SubscriberRepo struct {
	db *pgxpool.Pool
}

func NewSubscriberRepository(db *pgxpool.Pool) *SubscriberRepo {
	return &SubscriberRepo{db: db}
}

// Upsert creates or revives a subscription for the chat. Re-subscribing
// refreshes username/name and clears the soft-delete marker.
func (r *SubscriberRepo) Upsert(ctx context.Context, sub domain.Subscriber) error {
	const query = `
		INSERT INTO subscribed_tele_users (chat_id, username, name, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (chat_id)
		DO UPDATE SET username = EXCLUDED.username,
		              name = EXCLUDED.name,
		              deleted_at = NULL,
		              updated_at = now()
	`
	_, err := r.db.Exec(ctx, query, sub.ChatID, nullIfEmpty(sub.Username), nullIfEmpty(sub.Name))
	return err
}

// nullIfEmpty maps an absent optional field to NULL instead of ''.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// SoftDelete marks the chat unsubscribed. Unknown chat ids are a no-op.
func (r *SubscriberRepo) SoftDelete(ctx context.Context, chatID int64) error {
	const query = `
		UPDATE subscribed_tele_users
		SET deleted_at = now(), updated_at = now()
		WHERE chat_id = $1 AND deleted_at IS NULL
	`
	_, err := r.db.Exec(ctx, query, chatID)
	return err
}

// ListActive returns every subscriber without a soft-delete marker.
func (r *SubscriberRepo) ListActive(ctx context.Context) ([]domain.Subscriber, error) {
	const query = `
		SELECT chat_id, COALESCE(username, ''), COALESCE(name, '')
		FROM subscribed_tele_users
		WHERE deleted_at IS NULL
		ORDER BY chat_id
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Subscriber
	for rows.Next() {
		var s domain.Subscriber
		if err := rows.Scan(&s.ChatID, &s.Username, &s.Name); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
