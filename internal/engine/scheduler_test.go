package engine

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingAssigner struct{ ticks atomic.Int64 }

func (a *countingAssigner) Tick(context.Context) { a.ticks.Add(1) }

func TestSchedulerEmitsStatsOnCadence(t *testing.T) {
	reg, sink, _ := newTestRegistry(16)
	assign := &countingAssigner{}
	s := NewScheduler(reg, assign, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	var stats int
	for _, l := range sink.all() {
		if strings.HasPrefix(l, "[STATS] ") {
			stats++
		}
	}
	require.GreaterOrEqual(t, stats, 2, "several ticks must have fired")
	assert.GreaterOrEqual(t, assign.ticks.Load(), int64(2), "assigner runs on every tick")
}
