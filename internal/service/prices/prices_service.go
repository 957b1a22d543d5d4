package prices

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/toannhu96/gia-vang-365/internal/cache"
	"github.com/toannhu96/gia-vang-365/internal/domain"
)

// Current prices live in the shared cache under one fixed key; every
// consumer (HTTP, bot, snapshot job) reads through it.
const (
	currentPricesKey = "doji:gold-prices"
	currentPricesTTL = 5 * time.Minute
)

// Timerange is the window of the historical endpoint.
type Timerange string

const (
	TimerangeDay   Timerange = "day"
	TimerangeWeek  Timerange = "week"
	TimerangeMonth Timerange = "month"
)

// ParseTimerange validates a query value. Empty input defaults to week.
func ParseTimerange(s string) (Timerange, error) {
	switch Timerange(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return TimerangeWeek, nil
	case TimerangeDay:
		return TimerangeDay, nil
	case TimerangeWeek:
		return TimerangeWeek, nil
	case TimerangeMonth:
		return TimerangeMonth, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTimerange, s)
	}
}

func (t Timerange) window() time.Duration {
	switch t {
	case TimerangeDay:
		return 24 * time.Hour
	case TimerangeMonth:
		return 30 * 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}

type Service interface {
	// GetCurrent returns the current snapshot, possibly from cache.
	GetCurrent(ctx context.Context) (domain.GoldPrices, error)
	// GetHistorical returns recorded points within the window, newest first.
	GetHistorical(ctx context.Context, tr Timerange) ([]domain.HistoryPoint, error)
}

type Feed interface {
	FetchGoldPrices(ctx context.Context) (domain.GoldPrices, error)
}

type HistoryReader interface {
	ListSince(ctx context.Context, since time.Time) ([]domain.HistoryRecord, error)
}

type service struct {
	feed    Feed
	history HistoryReader
	cache   *cache.Cache
	clock   Clock
	logger  *slog.Logger
}

func NewService(feed Feed, history HistoryReader, c *cache.Cache, logger *slog.Logger) Service {
	return &service{
		feed:    feed,
		history: history,
		cache:   c,
		clock:   NewRealClock(),
		logger:  logger,
	}
}

// NewServiceWithClock is the test constructor with fixed clocks.
func NewServiceWithClock(feed Feed, history HistoryReader, c *cache.Cache, clk Clock, logger *slog.Logger) Service {
	return &service{
		feed:    feed,
		history: history,
		cache:   c,
		clock:   clk,
		logger:  logger,
	}
}

func (s *service) GetCurrent(ctx context.Context) (domain.GoldPrices, error) {
	return cache.GetOrSet(ctx, s.cache, currentPricesKey, s.feed.FetchGoldPrices, currentPricesTTL, false)
}

func (s *service) GetHistorical(ctx context.Context, tr Timerange) ([]domain.HistoryPoint, error) {
	since := s.clock.Now().Add(-tr.window())

	rows, err := s.history.ListSince(ctx, since)
	if err != nil {
		s.logger.Error("failed to load price history", "since", since, "err", err)
		return nil, err
	}

	// Rows arrive newest first; buy and sell recorded at the same instant
	// collapse into one point.
	out := make([]domain.HistoryPoint, 0, len(rows))
	for _, rec := range rows {
		price := rec.Price
		if n := len(out); n > 0 && out[n-1].Date.Equal(rec.CreatedAt) {
			if rec.IsSell {
				out[n-1].Sell = &price
			} else {
				out[n-1].Buy = &price
			}
			continue
		}
		p := domain.HistoryPoint{Date: rec.CreatedAt}
		if rec.IsSell {
			p.Sell = &price
		} else {
			p.Buy = &price
		}
		out = append(out, p)
	}
	return out, nil
}
