package model

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Prediction is the outcome of one inference call.
type Prediction struct {
	ID       string        // unique per request
	Input    RawInput      // what the runner submitted
	Features FeatureVector // what the model saw
	Hours    float64       // predicted marathon time in hours
}

// FormatHours renders the prediction with two decimals, e.g. "3.38".
func (p Prediction) FormatHours() string {
	return strconv.FormatFloat(p.Hours, 'f', 2, 64)
}

// Duration converts Hours to a time.Duration rounded to the second.
func (p Prediction) Duration() time.Duration {
	return time.Duration(math.Round(p.Hours * float64(time.Hour/time.Second))) * time.Second
}

// Clock renders the prediction as h:mm:ss.
func (p Prediction) Clock() string {
	d := p.Duration()
	if d < 0 {
		d = 0
	}
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}
