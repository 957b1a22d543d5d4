package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/toannhu96/gia-vang-365/internal/domain"
)

// HistoryRepo persists gold price snapshots. Rows are immutable once written.
type HistoryRepo struct {
	db *pgxpool.Pool
}

func NewHistoryRepository(db *pgxpool.Pool) *HistoryRepo {
	return &HistoryRepo{db: db}
}

// Save inserts one history row.
func (r *HistoryRepo) Save(ctx context.Context, rec domain.HistoryRecord) error {
	const query = `
		INSERT INTO gold_price_histories (id, price, is_sell, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.Exec(ctx, query, rec.ID, rec.Price, rec.IsSell, rec.CreatedAt)
	return err
}

// ListSince returns all rows recorded at or after since, newest first. Buy
// rows sort before sell rows within one timestamp so grouping is stable.
func (r *HistoryRepo) ListSince(ctx context.Context, since time.Time) ([]domain.HistoryRecord, error) {
	const query = `
		SELECT id, price, is_sell, created_at
		FROM gold_price_histories
		WHERE created_at >= $1
		ORDER BY created_at DESC, is_sell
	`
	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.HistoryRecord
	for rows.Next() {
		var rec domain.HistoryRecord
		if err := rows.Scan(&rec.ID, &rec.Price, &rec.IsSell, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
