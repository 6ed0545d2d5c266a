package backendapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/i474232898/pitbuddy/internal/backend"
	"github.com/i474232898/pitbuddy/internal/f1"
)

// Points are served as JSON numbers.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// RegisterRoutes wires the standings and schedule endpoints into the Fiber app.
func RegisterRoutes(app *fiber.App, service *backend.Service) {
	api := app.Group("/api")

	api.Get("/standings", func(c *fiber.Ctx) error {
		drivers, err := service.DriverStandings(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(drivers)
	})

	api.Get("/standings/constructors", func(c *fiber.Ctx) error {
		constructors, err := service.ConstructorStandings(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(constructors)
	})

	api.Get("/schedule", func(c *fiber.Ctx) error {
		races, err := service.Schedule(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(races)
	})

	api.Get("/status", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"season":   service.Season(),
			"datasets": service.Status(),
		})
	})
}

// ErrorHandler answers failures with a JSON body.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		switch {
		case errors.As(err, &fe):
			code = fe.Code
		case errors.Is(err, f1.ErrFetchFailed), errors.Is(err, f1.ErrInvalidPayload):
			code = fiber.StatusBadGateway
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("request failed", zap.String("path", c.Path()), zap.Int("status", code), zap.Error(err))
		}
		return c.Status(code).JSON(fiber.Map{
			"error":   true,
			"message": err.Error(),
		})
	}
}
