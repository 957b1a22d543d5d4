package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/toannhu96/gia-vang-365/internal/domain"
)

type Service interface {
	// RecordSnapshot reads the current prices and persists the tracked quote
	// as history rows. A missing tracked quote is a silent no-op.
	RecordSnapshot(ctx context.Context) error
}

type PricesReader interface {
	GetCurrent(ctx context.Context) (domain.GoldPrices, error)
}

type HistoryWriter interface {
	Save(ctx context.Context, rec domain.HistoryRecord) error
}

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type service struct {
	prices    PricesReader
	history   HistoryWriter
	quoteName string
	clock     Clock
	logger    *slog.Logger
}

func NewService(prices PricesReader, history HistoryWriter, quoteName string, logger *slog.Logger) Service {
	return &service{
		prices:    prices,
		history:   history,
		quoteName: quoteName,
		clock:     realClock{},
		logger:    logger,
	}
}

func NewServiceWithClock(prices PricesReader, history HistoryWriter, quoteName string, clk Clock, logger *slog.Logger) Service {
	return &service{
		prices:    prices,
		history:   history,
		quoteName: quoteName,
		clock:     clk,
		logger:    logger,
	}
}

func (s *service) RecordSnapshot(ctx context.Context) error {
	gp, err := s.prices.GetCurrent(ctx)
	if err != nil {
		return fmt.Errorf("fetch current prices: %w", err)
	}

	quote, ok := findQuote(gp, s.quoteName)
	if !ok {
		s.logger.Debug("tracked quote absent from feed, skipping snapshot",
			slog.String("quote", s.quoteName),
		)
		return nil
	}

	// Both sides share the same timestamp: the start of the current minute.
	at := s.clock.Now().Truncate(time.Minute)

	s.saveSide(ctx, quote.Buy, false, at)
	s.saveSide(ctx, quote.Sell, true, at)
	return nil
}

// saveSide writes one side of the quote. Persistence failures are logged and
// dropped: the run neither crashes nor retries.
func (s *service) saveSide(ctx context.Context, price *float64, isSell bool, at time.Time) {
	if price == nil {
		s.logger.Warn("tracked quote side has no value, skipping",
			slog.String("quote", s.quoteName),
			slog.Bool("is_sell", isSell),
		)
		return
	}
	rec := domain.HistoryRecord{
		ID:        newRecordID(),
		Price:     *price,
		IsSell:    isSell,
		CreatedAt: at,
	}
	if err := s.history.Save(ctx, rec); err != nil {
		s.logger.Error("failed to save history record",
			slog.String("quote", s.quoteName),
			slog.Bool("is_sell", isSell),
			slog.String("error", err.Error()),
		)
	}
}

func findQuote(gp domain.GoldPrices, name string) (domain.PriceQuote, bool) {
	for _, q := range gp.Jewelry.Prices {
		if q.Name == name {
			return q, true
		}
	}
	for _, q := range gp.Currency.Prices {
		if q.Name == name {
			return q, true
		}
	}
	return domain.PriceQuote{}, false
}

// newRecordID returns a time-ordered id (UUIDv7, falling back to v4 only if
// the random source fails).
func newRecordID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}
