package usecases

import (
	"fmt"
	"strings"

	"github.com/samirrijal/wayfinder/internal/core/domain"
)

// shouldAnnounce decides whether a spoken update may fire now. A direction
// change wins if its cooldown has passed; it is never promoted to a milestone
// announcement when the cooldown blocks it. Otherwise announcements are paced
// by distance milestones, faster when the destination is close.
func shouldAnnounce(dir domain.CompassDirection, distanceKm float64, nowMs int64, st domain.AnnouncementState, cfg NavigationConfig) bool {
	elapsed := nowMs - st.LastAnnouncedAtMs

	if dir != st.LastDirection {
		return elapsed >= cfg.DirectionCooldown.Milliseconds()
	}

	interval := cfg.FarInterval
	if distanceKm < cfg.NearDistanceKm {
		interval = cfg.NearInterval
	}
	return elapsed >= interval.Milliseconds()
}

// progressMessage phrases a direction update by proximity tier.
func progressMessage(info domain.DirectionInfo) string {
	direction := strings.ToLower(info.Direction.Name)
	meters := int(info.DistanceKm*1000 + 0.5)

	switch {
	case info.DistanceKm < 0.05:
		return fmt.Sprintf("Almost there! Continue %s for %d meters.", direction, meters)
	case info.DistanceKm < 0.2:
		return fmt.Sprintf("Continue %s. Destination %d meters ahead.", direction, meters)
	default:
		return fmt.Sprintf("Keep heading %s. %s remaining.", direction, domain.FormatDistance(info.DistanceKm))
	}
}
