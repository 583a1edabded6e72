package http

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/wayfinder/internal/core/domain"
)

// GetLocationHandler returns the most recent position sample.
func GetLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sample, ok := deps.Location.Current()
		if !ok {
			return errNotFound(c, "no location acquired yet")
		}
		return c.JSON(sample)
	}
}

// AcquireLocationHandler triggers a fresh position acquisition.
// ?source=sensor (default) runs the high-accuracy retry loop against the
// cane's GPS; ?source=network falls back to IP geolocation.
func AcquireLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		source := c.Query("source", "sensor")

		switch source {
		case "sensor":
			sample, err := deps.Location.AcquireHighAccuracy(c.UserContext())
			if err != nil {
				var serr *domain.SensorError
				if errors.As(err, &serr) {
					return errUnavailable(c, "sensor_"+string(serr.Code), serr.Message())
				}
				return errInternal(c, err.Error())
			}
			return c.JSON(sample)

		case "network":
			sample, err := deps.Location.AcquireFromNetwork(c.UserContext())
			if err != nil {
				return errUnavailable(c, "network_location_unavailable", "Could not determine location from network.")
			}
			return c.JSON(sample)

		default:
			return errBadRequest(c, "source must be sensor or network")
		}
	}
}

// DescribeLocationHandler reverse-geocodes the current position into a
// spoken-friendly place name.
func DescribeLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sample, ok := deps.Location.Current()
		if !ok {
			return errNotFound(c, "no location acquired yet")
		}

		name, err := deps.Location.Describe(c.UserContext(), sample.Coordinate)
		if err != nil {
			return errUnavailable(c, "geocoder_unavailable", "Could not describe the current location.")
		}
		return c.JSON(fiber.Map{
			"location":     sample,
			"display_name": name,
		})
	}
}

// GeocodeHandler forward-geocodes a free-text destination.
func GeocodeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := strings.TrimSpace(c.Query("q"))
		if query == "" {
			return errBadRequest(c, "q is required")
		}

		place, err := deps.Routes.Geocode(c.UserContext(), query)
		if err != nil {
			if errors.Is(err, domain.ErrGeocodeNotFound) {
				return errNotFound(c, "destination not found: "+query)
			}
			return errUnavailable(c, "geocoder_unavailable", err.Error())
		}
		return c.JSON(place)
	}
}

// startRouteRequest names the destination either as free text or as an
// explicit coordinate. Text wins when both are present.
type startRouteRequest struct {
	Destination string  `json:"destination"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// StartNavigationHandler geocodes the destination, computes a walking route
// from the current position, and starts turn-by-turn guidance.
func StartNavigationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req startRouteRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		current, ok := deps.Location.Current()
		if !ok {
			return errConflict(c, "no current location; acquire one first")
		}

		// A new generation makes any still-running route computation stale.
		gen := deps.Navigation.NextGeneration()

		var (
			dest domain.Coordinate
			name string
		)
		switch {
		case strings.TrimSpace(req.Destination) != "":
			place, err := deps.Routes.Geocode(c.UserContext(), req.Destination)
			if err != nil {
				if errors.Is(err, domain.ErrGeocodeNotFound) {
					return errNotFound(c, "destination not found: "+req.Destination)
				}
				return errUnavailable(c, "geocoder_unavailable", err.Error())
			}
			dest = place.Coordinate
			name = place.DisplayName
		default:
			dest = domain.Coordinate{Lat: req.Latitude, Lon: req.Longitude}
			if !dest.Valid() {
				return errBadRequest(c, "destination or a valid latitude/longitude is required")
			}
		}

		route := deps.Routes.FindRoute(c.UserContext(), current.Coordinate, dest)
		route.DestinationName = name

		info, err := deps.Navigation.StartRoute(c.UserContext(), gen, route, current.Coordinate)
		if err != nil {
			if errors.Is(err, domain.ErrStaleRoute) {
				return errConflict(c, "route superseded by a newer request")
			}
			return errInternal(c, err.Error())
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"route":     route,
			"direction": info,
		})
	}
}

// ClearNavigationHandler stops guidance and returns to idle.
func ClearNavigationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		deps.Navigation.ClearRoute(c.UserContext())
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GetNavigationHandler returns the navigation state machine snapshot.
func GetNavigationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Navigation.Snapshot())
	}
}

// positionUpdateRequest is a manually reported position, for clients without
// a live tracker feed.
type positionUpdateRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// PositionUpdateHandler feeds a position into the tracker pipeline: the
// sample becomes the current location and advances navigation if a route is
// active.
func PositionUpdateHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req positionUpdateRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		sample := domain.LocationSample{
			Coordinate:   domain.Coordinate{Lat: req.Latitude, Lon: req.Longitude},
			Source:       domain.SourceManual,
			ObservedAtMs: time.Now().UnixMilli(),
		}
		if !sample.Valid() {
			return errBadRequest(c, "latitude/longitude out of range")
		}

		deps.Location.Update(sample)
		deps.Navigation.OnPositionUpdate(c.UserContext(), sample)
		return c.SendStatus(fiber.StatusAccepted)
	}
}
