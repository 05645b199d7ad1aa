package batch

import (
	"context"
	"math"
	"sync"

	"github.com/okian/marathon/internal/adapters/mq/worker"
	"github.com/okian/marathon/pkg/metrics"
)

// collector stores worker results in a slot per input row, so the output keeps
// input order whatever order the workers finish in.
type collector struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func newCollector(rows []Row) *collector {
	c := &collector{outcomes: make([]Outcome, len(rows))}
	for i, r := range rows {
		c.outcomes[i] = Outcome{Row: r}
		if r.Err != nil {
			metrics.RecordBatchRow("invalid")
		}
	}
	return c
}

// Record implements worker.Sink.
func (c *collector) Record(_ context.Context, r worker.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	o := &c.outcomes[r.Job.Index]
	o.Features = r.Features
	o.Hours = r.Hours
	o.Err = r.Err
	if r.Err != nil {
		metrics.RecordBatchRow("invalid")
		return
	}
	metrics.RecordBatchRow("ok")
}

func (c *collector) results() []Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Outcome(nil), c.outcomes...)
}

func nan() float64 { return math.NaN() }
