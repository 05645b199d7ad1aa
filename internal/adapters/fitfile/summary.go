package fitfile

import (
	"context"
	"math"
	"time"

	"github.com/okian/marathon/internal/domain/dedupe"
	"github.com/okian/marathon/internal/domain/model"
	"github.com/okian/marathon/pkg/metrics"
)

// DefaultWindowDays is the trailing period the form's weekly fields describe.
const DefaultWindowDays = 28

// Summary is the training volume over the trailing window.
type Summary struct {
	WindowStart   time.Time `json:"window_start"`
	WindowEnd     time.Time `json:"window_end"`
	Weeks         float64   `json:"weeks"`
	Runs          int       `json:"runs"`
	SkippedSports int       `json:"skipped_non_running"`
	OutsideWindow int       `json:"outside_window"`
	Duplicates    int       `json:"duplicates"`
	DistanceKm    float64   `json:"distance_km"`
	MovingHours   float64   `json:"moving_hours"`
	KmPerWeek     float64   `json:"km4week"`
	SpeedPerWeek  float64   `json:"sp4week"`
}

// Summarize keeps running activities started within windowDays of the latest
// run and reports weekly distance and average moving speed (km/h).
func Summarize(activities []Activity, windowDays int) (Summary, error) {
	if windowDays <= 0 {
		return Summary{}, ErrInvalidRange
	}

	var sum Summary
	var latest time.Time
	for _, a := range activities {
		if !a.Running {
			sum.SkippedSports++
			continue
		}
		if a.Start.After(latest) {
			latest = a.Start
		}
	}
	if latest.IsZero() {
		return Summary{SkippedSports: sum.SkippedSports}, ErrNoRuns
	}

	window := time.Duration(windowDays) * 24 * time.Hour
	sum.WindowEnd = latest
	sum.WindowStart = latest.Add(-window)
	sum.Weeks = float64(windowDays) / 7

	var meters, seconds float64
	for _, a := range activities {
		if !a.Running {
			continue
		}
		if !a.Start.After(sum.WindowStart) || a.Start.After(sum.WindowEnd) {
			sum.OutsideWindow++
			continue
		}
		sum.Runs++
		meters += a.DistanceM
		seconds += a.MovingSeconds
	}

	sum.DistanceKm = meters / 1000
	sum.MovingHours = seconds / 3600
	sum.KmPerWeek = sum.DistanceKm / sum.Weeks
	if sum.MovingHours > 0 {
		sum.SpeedPerWeek = sum.DistanceKm / sum.MovingHours
	}
	metrics.RecordTrainingSummary()
	return sum, nil
}

// Unique drops sessions whose Key was already seen, keeping the first
// occurrence, and reports how many were dropped. Sessions without a start
// time are always kept.
func Unique(ctx context.Context, activities []Activity) ([]Activity, int) {
	seen := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
	out := make([]Activity, 0, len(activities))
	dropped := 0
	for _, a := range activities {
		if !a.Start.IsZero() && seen.SeenAndRecord(ctx, a.Key()) {
			dropped++
			continue
		}
		out = append(out, a)
	}
	return out, dropped
}

// FormValues rounds and clamps the summary to what the form accepts.
func (s Summary) FormValues() (kmPerWeek int, speedPerWeek float64) {
	km := math.Round(s.KmPerWeek)
	km = math.Max(model.MinKmPerWeek, math.Min(model.MaxKmPerWeek, km))
	sp := math.Round(s.SpeedPerWeek*100) / 100
	sp = math.Max(model.MinSpeedPerWeek, math.Min(model.MaxSpeedPerWeek, sp))
	return int(km), sp
}
