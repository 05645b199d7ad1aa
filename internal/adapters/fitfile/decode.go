// Package fitfile derives weekly training volume and speed from FIT activity files.
package fitfile

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/tormoder/fit"

	"github.com/okian/marathon/pkg/metrics"
)

// Activity is the part of one FIT session the summary needs.
type Activity struct {
	Start         time.Time `json:"start"`
	Sport         string    `json:"sport"`
	Running       bool      `json:"running"`
	DistanceM     float64   `json:"distance_m"`
	MovingSeconds float64   `json:"moving_seconds"`
}

// Decode reads one FIT activity file and returns an Activity per session.
func Decode(r io.Reader) ([]Activity, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		metrics.RecordFITDecodeError()
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	activity, err := decoded.Activity()
	if err != nil {
		metrics.RecordFITDecodeError()
		return nil, fmt.Errorf("%w: %w", ErrNotActivity, err)
	}
	if len(activity.Sessions) == 0 {
		metrics.RecordFITDecodeError()
		return nil, ErrNoSessions
	}

	out := make([]Activity, 0, len(activity.Sessions))
	for _, s := range activity.Sessions {
		a := Activity{
			Start:     validTime(s.StartTime),
			Sport:     fmt.Sprint(s.Sport),
			Running:   s.Sport == fit.SportRunning,
			DistanceM: nonNegative(s.GetTotalDistanceScaled()),
		}
		if a.Start.IsZero() {
			a.Start = validTime(s.Timestamp)
		}
		a.MovingSeconds = nonNegative(s.GetTotalMovingTimeScaled())
		if a.MovingSeconds == 0 {
			a.MovingSeconds = nonNegative(s.GetTotalTimerTimeScaled())
		}
		metrics.RecordFITActivity(a.Sport)
		out = append(out, a)
	}
	return out, nil
}

// Key identifies a session across files: two uploads of the same workout
// share their start time and sport.
func (a Activity) Key() string {
	return a.Start.UTC().Format(time.RFC3339) + "|" + a.Sport
}

func validTime(t time.Time) time.Time {
	if t.IsZero() || fit.IsBaseTime(t) {
		return time.Time{}
	}
	return t
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
