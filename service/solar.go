package service

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/nathan-osman/go-sunrise"

	"github.com/danielchen8624/smartdim/types"
)

// SolarParams configure the automatic warmth schedule.
type SolarParams struct {
	Latitude  float64
	Longitude float64

	// ElevationNight and ElevationDay are the solar elevations (in
	// degrees) between which the warmth interpolates.
	ElevationNight float64
	ElevationDay   float64

	// WarmthNight and WarmthDay are the warmth strengths at and beyond
	// the two elevations.
	WarmthNight float64
	WarmthDay   float64

	// Interval between schedule evaluations. Zero means 5 minutes.
	Interval time.Duration
}

// SolarWarmth interpolates a warmth strength from the sun's elevation
// at the given location and time.
func SolarWarmth(now time.Time, p SolarParams) float64 {
	var progress float64

	switch elevation := sunrise.Elevation(p.Latitude, p.Longitude, now); {
	case elevation < p.ElevationNight:
		progress = 0
	case elevation >= p.ElevationDay:
		progress = 1
	default:
		progress = (p.ElevationNight - elevation) / (p.ElevationNight - p.ElevationDay)
	}

	return (1-progress)*p.WarmthNight + progress*p.WarmthDay
}

// RunSolar drives the warmth control from the solar schedule until the
// context ends. Manual warmth changes are overwritten on the next tick;
// callers who want manual control should not start the schedule.
func (s *Service) RunSolar(ctx context.Context, p SolarParams) {
	interval := p.Interval
	if interval == 0 {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		warmth := SolarWarmth(time.Now(), p)

		_, err := s.Update(ctx, types.Request{
			State: &types.StatePatch{
				Warmth: strconv.FormatFloat(warmth, 'f', 3, 64),
			},
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			log.Printf("Failed to apply solar warmth: %s\n", err)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}
