// Command tracker simulates the smart cane's GPS unit: it walks an OSRM
// route, publishes positions on the device's feed subject, and answers fix
// requests the way the firmware does. Useful for developing the dashboard
// without hardware.
package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/wayfinder/internal/adapters/nats"
	"github.com/samirrijal/wayfinder/internal/adapters/routing"
	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/pkg/config"
	"github.com/samirrijal/wayfinder/internal/pkg/logging"
)

type position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	Timestamp int64   `json:"timestamp"`
}

// tracker holds the simulated device state shared between the feed loop and
// the fix responder.
type tracker struct {
	mu       sync.RWMutex
	current  position
	accuracy float64
}

func (t *tracker) set(c domain.Coordinate) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = position{
		Latitude:  c.Lat,
		Longitude: c.Lon,
		Accuracy:  t.accuracy,
		Timestamp: time.Now().UnixMilli(),
	}
}

func (t *tracker) get() position {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

func main() {
	cfg, err := config.Load("wayfinder-tracker")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup("wayfinder-tracker", logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	nc, err := natsadapter.Connect(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer nc.Drain()

	start := domain.Coordinate{Lat: cfg.Tracker.StartLat, Lon: cfg.Tracker.StartLon}
	end := domain.Coordinate{Lat: cfg.Tracker.EndLat, Lon: cfg.Tracker.EndLon}

	osrm := routing.NewOSRM(cfg.Routing.OSRMBaseURL)
	route, err := osrm.WalkingRoute(ctx, start, end)
	if err != nil {
		log.Fatalf("route fetch: %v", err)
	}
	slog.Info("route loaded", "points", len(route.Geometry), "distance_km", route.DistanceKm)

	trk := &tracker{accuracy: cfg.Tracker.AccuracyMeters}
	trk.set(start)

	// Fix responder: the dashboard's sensor acquisition asks for one fresh
	// fix over request/reply.
	fixSubject := natsadapter.SubjectFixPrefix + cfg.NATS.DeviceID
	fixSub, err := nc.Subscribe(fixSubject, func(msg *nats.Msg) {
		data, err := json.Marshal(trk.get())
		if err != nil {
			return
		}
		if err := msg.Respond(data); err != nil {
			slog.Warn("fix respond failed", "error", err)
		}
	})
	if err != nil {
		log.Fatalf("subscribe %s: %v", fixSubject, err)
	}
	defer fixSub.Unsubscribe()

	go emit(ctx, nc, cfg, trk, route.Geometry)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())
	cancel()
}

// emit walks the route geometry, publishing one position per tick.
func emit(ctx context.Context, nc *nats.Conn, cfg *config.Config, trk *tracker, points domain.Track) {
	subject := natsadapter.SubjectPositionPrefix + cfg.NATS.DeviceID
	interval := time.Duration(cfg.Tracker.FrequencySeconds) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	i := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if i >= len(points) {
			if !cfg.Tracker.Loop {
				slog.Info("route completed", "points", len(points))
				return
			}
			i = 0
		}

		trk.set(points[i])
		data, err := json.Marshal(trk.get())
		if err != nil {
			slog.Warn("marshal position failed", "error", err)
			continue
		}
		if err := nc.Publish(subject, data); err != nil {
			slog.Warn("publish failed", "error", err)
			continue
		}
		slog.Debug("position published", "point", i+1, "of", len(points))
		i++
	}
}
