package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-core/internal/catalog"
	"github.com/i474232898/weather-core/internal/device"
	"github.com/i474232898/weather-core/internal/units"
	"github.com/i474232898/weather-core/internal/weather"
)

var validate = validator.New()

// refreshTimeout bounds how long POST /refresh waits for the worker.
const refreshTimeout = 60 * time.Second

// Deps are the collaborators the handlers need.
type Deps struct {
	Manager    *weather.Manager
	Catalog    *catalog.Catalog
	Locator    *device.StaticLocator
	StaleAfter time.Duration
	Now        func() time.Time
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	if d.Now == nil {
		d.Now = time.Now
	}
	v1 := app.Group("/api/v1")

	v1.Get("/snapshot", func(c *fiber.Ctx) error {
		return c.JSON(d.snapshotView(d.Manager.Snapshot()))
	})

	v1.Post("/refresh", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), refreshTimeout)
		defer cancel()

		outcome, err := d.Manager.Refresh(ctx)
		if err != nil {
			return fiber.NewError(fiber.StatusGatewayTimeout, "refresh did not finish in time")
		}
		return c.JSON(fiber.Map{
			"outcome":  outcome,
			"snapshot": d.snapshotView(d.Manager.Snapshot()),
		})
	})

	v1.Post("/sort", func(c *fiber.Ctx) error {
		o, err := weather.ParseSortOrientation(c.Query("by"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		applied := d.Manager.SortData(o)
		return c.JSON(fiber.Map{
			"applied":  applied,
			"snapshot": d.snapshotView(d.Manager.Snapshot()),
		})
	})

	v1.Get("/weather/:id", func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "location id must be a positive integer")
		}
		rec, ok := d.Manager.Lookup(id)
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no weather data for requested location")
		}
		snap := d.Manager.Snapshot()
		return c.JSON(d.recordView(rec, snap.TemperatureUnit, snap.SpeedUnit))
	})

	v1.Put("/preferences", func(c *fiber.Ctx) error {
		var req preferencesRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.empty() {
			return fiber.NewError(fiber.StatusBadRequest, "no preference given")
		}
		if err := d.applyPreferences(req); err != nil {
			return err
		}
		return c.JSON(preferencesOf(d.Manager.Snapshot()))
	})

	v1.Put("/location", func(c *fiber.Ctx) error {
		var req locationRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if (req.Lat == nil) != (req.Lon == nil) {
			return fiber.NewError(fiber.StatusBadRequest, "lat and lon must be given together")
		}
		if req.Lat != nil {
			if err := d.Locator.SetPosition(device.Coordinate{Lat: *req.Lat, Lon: *req.Lon}); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
		}
		// watchers registered on the locator react to the change
		d.Locator.SetPermission(*req.Permission)

		resp := fiber.Map{"permission": d.Locator.PermissionGranted()}
		if pos, ok := d.Locator.Current(); ok {
			resp["position"] = pos
		}
		return c.JSON(resp)
	})

	v1.Get("/cities", func(c *fiber.Ctx) error {
		var q citiesQuery
		if err := c.QueryParser(&q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		results := d.Catalog.Search(q.Q, q.Limit)
		if results == nil {
			results = []weather.LocationRef{}
		}
		return c.JSON(fiber.Map{"query": q.Q, "results": results})
	})
}

type preferencesRequest struct {
	BookmarkID      *int    `json:"bookmarkId" validate:"omitempty,gt=0"`
	ResultCount     *int    `json:"resultCount" validate:"omitempty,oneof=10 20 30 40 50"`
	TemperatureUnit *string `json:"temperatureUnit" validate:"omitempty,oneof=celsius fahrenheit kelvin"`
	SpeedUnit       *string `json:"speedUnit" validate:"omitempty,oneof=kmh mph"`
}

func (r preferencesRequest) empty() bool {
	return r.BookmarkID == nil && r.ResultCount == nil && r.TemperatureUnit == nil && r.SpeedUnit == nil
}

// applyPreferences resolves everything before changing anything, so a bad bookmark id
// leaves all preferences untouched.
func (d Deps) applyPreferences(req preferencesRequest) error {
	var (
		bookmark *weather.LocationRef
		count    *units.ResultCount
		temp     *units.Temperature
		speed    *units.Speed
	)
	if req.BookmarkID != nil {
		ref, err := d.Catalog.ByID(*req.BookmarkID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return err
		}
		bookmark = &ref
	}
	if req.ResultCount != nil {
		rc, err := units.ResultCountFor(*req.ResultCount)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		count = &rc
	}
	if req.TemperatureUnit != nil {
		t, err := units.TemperatureFromName(*req.TemperatureUnit)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		temp = &t
	}
	if req.SpeedUnit != nil {
		s, err := units.SpeedFromName(*req.SpeedUnit)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		speed = &s
	}

	if temp != nil {
		if err := d.Manager.SetTemperatureUnit(*temp); err != nil {
			return err
		}
	}
	if speed != nil {
		if err := d.Manager.SetSpeedUnit(*speed); err != nil {
			return err
		}
	}
	if bookmark != nil {
		if err := d.Manager.SetBookmark(*bookmark); err != nil {
			return err
		}
	}
	if count != nil {
		if err := d.Manager.SetResultCount(*count); err != nil {
			return err
		}
	}
	return nil
}

type locationRequest struct {
	Permission *bool    `json:"permission" validate:"required"`
	Lat        *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lon        *float64 `json:"lon" validate:"omitempty,gte=-180,lte=180"`
}

type citiesQuery struct {
	Q     string `query:"q" validate:"required"`
	Limit int    `query:"limit" validate:"gte=0,lte=100"`
}
