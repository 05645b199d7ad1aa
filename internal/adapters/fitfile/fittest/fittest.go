// Package fittest builds FIT activity files in memory for tests.
package fittest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/tormoder/fit"
)

// Session is one sport session of a synthetic activity. A zero Moving leaves
// the moving time field unset.
type Session struct {
	Sport  fit.Sport
	Start  time.Time
	Meters float64
	Moving time.Duration
	Timer  time.Duration
}

// Run is a running session of meters covered in moving time, recorded at start.
func Run(start time.Time, meters float64, moving time.Duration) Session {
	return Session{Sport: fit.SportRunning, Start: start, Meters: meters, Moving: moving, Timer: moving}
}

// Encode returns the bytes of an activity file holding sessions.
func Encode(sessions ...Session) ([]byte, error) {
	header := fit.NewHeader(fit.V20, true)
	file, err := fit.NewFile(fit.FileTypeActivity, header)
	if err != nil {
		return nil, fmt.Errorf("new fit file: %w", err)
	}
	activity, err := file.Activity()
	if err != nil {
		return nil, fmt.Errorf("activity accessor: %w", err)
	}

	for _, s := range sessions {
		msg := fit.NewSessionMsg()
		msg.Timestamp = s.Start.Add(s.Timer)
		msg.StartTime = s.Start
		msg.Sport = s.Sport
		msg.TotalDistance = uint32(s.Meters * 100)
		msg.TotalTimerTime = uint32(s.Timer.Milliseconds())
		if s.Moving > 0 {
			msg.TotalMovingTime = uint32(s.Moving.Milliseconds())
		}
		activity.Sessions = append(activity.Sessions, msg)
	}

	var buf bytes.Buffer
	if err := fit.Encode(&buf, file, binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("encode fit: %w", err)
	}
	return buf.Bytes(), nil
}
