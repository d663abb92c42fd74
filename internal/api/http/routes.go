package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/location"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var validate = validator.New()

// Dashboard is the controller surface the routes drive.
type Dashboard interface {
	Search(ctx context.Context, text, explicitUnit string) (dashboard.View, error)
	LookupCoordinates(ctx context.Context, lat, lon float64, explicitUnit string) (dashboard.View, error)
	SetUnit(ctx context.Context, token string) (dashboard.View, bool, error)
	ToggleUnit(ctx context.Context) (dashboard.View, bool, error)
	ClearUnit(ctx context.Context) (dashboard.View, bool, error)
	View(now time.Time) (dashboard.View, error)
}

// Deps are the collaborators behind the routes. Radar and Metrics are optional.
type Deps struct {
	Dashboard Dashboard
	Radar     weather.RadarSource
	Metrics   http.Handler
	Now       func() time.Time
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics))
	}

	v1 := app.Group("/api/v1")

	v1.Get("/dashboard", func(c *fiber.Ctx) error {
		view, err := deps.Dashboard.View(now())
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(view)
	})

	v1.Get("/search", func(c *fiber.Ctx) error {
		q := searchQuery{Text: c.Query("q"), Unit: normalizeUnit(c.Query("unit"))}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		view, err := deps.Dashboard.Search(c.UserContext(), q.Text, q.Unit)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(view)
	})

	v1.Get("/coordinates", func(c *fiber.Ctx) error {
		q, err := parseCoordinatesQuery(c)
		if err != nil {
			return err
		}

		view, err := deps.Dashboard.LookupCoordinates(c.UserContext(), q.Latitude, q.Longitude, q.Unit)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(view)
	})

	v1.Put("/unit", func(c *fiber.Ctx) error {
		var req unitRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		req.Unit = normalizeUnit(req.Unit)
		if err := validate.Struct(req); err != nil {
			return toHTTPError(dashboard.ErrInvalidUnit)
		}

		view, shown, err := deps.Dashboard.SetUnit(c.UserContext(), req.Unit)
		if err != nil {
			return toHTTPError(err)
		}
		if !shown {
			return c.JSON(fiber.Map{"unit": req.Unit})
		}
		return c.JSON(view)
	})

	v1.Post("/unit/toggle", func(c *fiber.Ctx) error {
		view, shown, err := deps.Dashboard.ToggleUnit(c.UserContext())
		if err != nil {
			return toHTTPError(err)
		}
		if !shown {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.JSON(view)
	})

	v1.Delete("/unit", func(c *fiber.Ctx) error {
		view, shown, err := deps.Dashboard.ClearUnit(c.UserContext())
		if err != nil {
			return toHTTPError(err)
		}
		if !shown {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.JSON(view)
	})

	v1.Get("/weather-codes", func(c *fiber.Ctx) error {
		return c.JSON(weather.Codes())
	})

	if deps.Radar != nil {
		v1.Get("/radar", func(c *fiber.Ctx) error {
			frame, err := deps.Radar.LatestFrame(c.UserContext())
			if err != nil {
				return fiber.NewError(fiber.StatusBadGateway, "radar imagery is unavailable")
			}
			return c.JSON(frame)
		})
	}
}

// toHTTPError maps controller errors to a status and the user-facing message.
func toHTTPError(err error) *fiber.Error {
	code := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, location.ErrInvalidInput), errors.Is(err, dashboard.ErrInvalidUnit):
		code = fiber.StatusBadRequest
	case errors.Is(err, location.ErrNotFound), errors.Is(err, dashboard.ErrNoLocation):
		code = fiber.StatusNotFound
	case errors.Is(err, dashboard.ErrSuperseded), errors.Is(err, context.Canceled):
		code = fiber.StatusConflict
	case errors.Is(err, location.ErrTransient), errors.Is(err, weather.ErrFetch):
		code = fiber.StatusBadGateway
	}
	return fiber.NewError(code, dashboard.Message(err))
}

type searchQuery struct {
	Text string `validate:"max=200"`
	Unit string `validate:"omitempty,oneof=celsius fahrenheit"`
}

type coordinatesQuery struct {
	Latitude  float64 `validate:"latitude"`
	Longitude float64 `validate:"longitude"`
	Unit      string  `validate:"omitempty,oneof=celsius fahrenheit"`
}

type unitRequest struct {
	Unit string `json:"unit" validate:"required,oneof=celsius fahrenheit"`
}

func parseCoordinatesQuery(c *fiber.Ctx) (coordinatesQuery, error) {
	var q coordinatesQuery

	lat, errLat := strconv.ParseFloat(strings.TrimSpace(c.Query("lat")), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(c.Query("lon")), 64)
	if errLat != nil || errLon != nil {
		return q, toHTTPError(location.ErrCoordinatesRange)
	}
	q.Latitude, q.Longitude = lat, lon
	q.Unit = normalizeUnit(c.Query("unit"))

	if err := validate.Struct(q); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && verrs[0].Field() == "Unit" {
			return q, toHTTPError(dashboard.ErrInvalidUnit)
		}
		return q, toHTTPError(location.ErrCoordinatesRange)
	}
	return q, nil
}

func normalizeUnit(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
