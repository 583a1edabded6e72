package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/wayfinder/internal/adapters/valkey"
	"github.com/samirrijal/wayfinder/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Location   *usecases.LocationService
	Routes     *usecases.RouteService
	Navigation *usecases.NavigationService
	NATS       *nats.Conn
	Cache      *valkey.Cache
}
