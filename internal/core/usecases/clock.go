package usecases

import (
	"context"
	"time"

	"github.com/samirrijal/wayfinder/internal/core/ports"
)

type systemClock struct{}

// SystemClock returns a Clock backed by wall time.
func SystemClock() ports.Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
