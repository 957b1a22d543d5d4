package httptransport

import (
	"context"
	"log"
	"net/http"
	"time"

	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/toannhu96/gia-vang-365/internal/domain"
	"github.com/toannhu96/gia-vang-365/internal/ports/errcode"
	"github.com/toannhu96/gia-vang-365/internal/service/prices"
)

// PricesService is the slice of the prices service the handlers need.
type PricesService interface {
	GetCurrent(ctx context.Context) (domain.GoldPrices, error)
	GetHistorical(ctx context.Context, tr prices.Timerange) ([]domain.HistoryPoint, error)
}

// GoldPricesHandler serves the public prices API.
type GoldPricesHandler struct {
	logger  *slog.Logger
	svc     PricesService
	timeout time.Duration
}

func NewGoldPricesHandler(logger *slog.Logger, svc PricesService, timeout time.Duration) *GoldPricesHandler {
	if logger == nil {
		log.Fatal("nil logger")
	}
	if svc == nil {
		log.Fatal("nil service")
	}
	if timeout <= 0 {
		timeout = time.Second * 10
	}
	return &GoldPricesHandler{
		logger:  logger,
		svc:     svc,
		timeout: timeout,
	}
}

func (h *GoldPricesHandler) RegisterRoutes(r interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}) {
	r.GET("/v1/gold-prices", h.GetGoldPrices)
	r.GET("/v1/gold-prices/historical", h.GetHistorical)
}

func (h *GoldPricesHandler) GetGoldPrices(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	gp, err := h.svc.GetCurrent(ctx)
	if err != nil {
		h.logger.Error("GetCurrent failed",
			slog.String("op", "GetGoldPrices"),
			slog.String("error", err.Error()),
		)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":   "Failed to fetch gold prices",
			"message": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, gp)
}

func (h *GoldPricesHandler) GetHistorical(c echo.Context) error {
	tr, err := prices.ParseTimerange(c.QueryParam("timerange"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "Invalid timerange",
			"message": "timerange must be one of: day, week, month",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	points, err := h.svc.GetHistorical(ctx, tr)
	if err != nil {
		switch FromServiceError(err) {
		case errcode.BadRequest:
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error":   "Invalid timerange",
				"message": err.Error(),
			})
		default:
			h.logger.Error("GetHistorical failed",
				slog.String("op", "GetHistorical"),
				slog.String("timerange", string(tr)),
				slog.String("error", err.Error()),
			)
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error":   "Failed to fetch gold prices",
				"message": err.Error(),
			})
		}
	}

	if points == nil {
		points = []domain.HistoryPoint{}
	}
	return c.JSON(http.StatusOK, points)
}

// Pinger reports reachability of one backing component.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler answers liveness probes with the state of Redis and Postgres.
type HealthHandler struct {
	logger   *slog.Logger
	redis    Pinger
	postgres Pinger
	timeout  time.Duration
}

func NewHealthHandler(logger *slog.Logger, redis, postgres Pinger, timeout time.Duration) *HealthHandler {
	if timeout <= 0 {
		timeout = time.Second * 3
	}
	return &HealthHandler{
		logger:   logger,
		redis:    redis,
		postgres: postgres,
		timeout:  timeout,
	}
}

func (h *HealthHandler) RegisterRoutes(r interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}) {
	r.GET("/healthz", h.Health)
}

func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	status := echo.Map{"redis": "ok", "postgres": "ok"}
	healthy := true

	if err := h.redis.Ping(ctx); err != nil {
		status["redis"] = err.Error()
		healthy = false
	}
	if err := h.postgres.Ping(ctx); err != nil {
		status["postgres"] = err.Error()
		healthy = false
	}

	if !healthy {
		h.logger.Warn("health check failed",
			slog.Any("status", status),
		)
		return c.JSON(http.StatusServiceUnavailable, status)
	}
	return c.JSON(http.StatusOK, status)
}
