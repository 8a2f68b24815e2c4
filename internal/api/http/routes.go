package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-indexer/internal/weather"
)

// CycleRunner runs a cycle on demand, refusing while one is in flight.
type CycleRunner interface {
	RunNow(ctx context.Context) (weather.CycleResult, error)
}

// CycleHistory exposes the most recent cycle.
type CycleHistory interface {
	LastCycle() (weather.CycleResult, bool)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, runner CycleRunner, history CycleHistory) {
	v1 := app.Group("/api/v1")

	v1.Get("/cycles/last", func(c *fiber.Ctx) error {
		res, ok := history.LastCycle()
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no cycle has run yet")
		}
		return c.JSON(newCycleView(res))
	})

	v1.Post("/cycles", func(c *fiber.Ctx) error {
		res, err := runner.RunNow(c.UserContext())
		if err != nil {
			if errors.Is(err, weather.ErrCycleAlreadyRunning) {
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to run cycle")
		}

		return c.Status(cycleStatus(res)).JSON(newCycleView(res))
	})
}

// cycleStatus maps a cycle outcome to a response code: the weather API
// failing is a bad gateway, the search cluster failing means the service is
// unavailable.
func cycleStatus(res weather.CycleResult) int {
	switch {
	case res.OK():
		return fiber.StatusOK
	case weather.IsFetchError(res.Err):
		return fiber.StatusBadGateway
	case weather.IsStoreError(res.Err):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// cycleView is the JSON rendering of a weather.CycleResult.
type cycleView struct {
	ID         string            `json:"id"`
	StartedAt  time.Time         `json:"startedAt"`
	DurationMs int64             `json:"durationMs"`
	Stage      weather.Stage     `json:"stage"`
	OK         bool              `json:"ok"`
	Error      string            `json:"error,omitempty"`
	Ack        *weather.IndexAck `json:"ack,omitempty"`
	Document   *weather.Document `json:"document,omitempty"`
}

func newCycleView(res weather.CycleResult) cycleView {
	v := cycleView{
		ID:         res.ID,
		StartedAt:  res.StartedAt,
		DurationMs: res.Duration.Milliseconds(),
		Stage:      res.Stage,
		OK:         res.OK(),
		Ack:        res.Ack,
		Document:   res.Document,
	}
	if res.Err != nil {
		v.Error = res.Err.Error()
	}
	return v
}
