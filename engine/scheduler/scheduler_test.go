package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// schedulerHarness drives a Scheduler with a synthetic clock so tests control
// frame times exactly.
type schedulerHarness struct {
	now time.Time
	s   Scheduler
}

func newSchedulerHarness() *schedulerHarness {
	h := &schedulerHarness{now: time.Unix(1000, 0)}
	h.s = NewScheduler(WithClock(func() time.Time { return h.now }))
	return h
}

// tick advances the synthetic clock by d and runs one scheduler tick.
func (h *schedulerHarness) tick(d time.Duration) {
	h.now = h.now.Add(d)
	h.s.Tick(h.now)
}

func TestNextTick_FiresExactlyOnce(t *testing.T) {
	h := newSchedulerHarness()
	fired := 0
	h.s.NextTick(func() { fired++ })

	require.True(t, h.s.Pending())
	h.tick(time.Millisecond)
	assert.Equal(t, 1, fired)
	assert.False(t, h.s.Pending())

	h.tick(time.Millisecond)
	assert.Equal(t, 1, fired, "a next-tick task must not fire again")
}

func TestNextTick_QueuedDuringTickFiresOnFollowingTick(t *testing.T) {
	h := newSchedulerHarness()
	innerFired := 0
	h.s.NextTick(func() {
		h.s.NextTick(func() { innerFired++ })
	})

	h.tick(time.Millisecond)
	require.Zero(t, innerFired, "a task queued by a running task must not fire on the same tick")
	require.True(t, h.s.Pending())

	h.tick(time.Millisecond)
	assert.Equal(t, 1, innerFired)
	assert.False(t, h.s.Pending())
}

func TestCancel_BeforeFireSuppressesTask(t *testing.T) {
	h := newSchedulerHarness()
	fired := false
	cancel := h.s.NextTick(func() { fired = true })

	cancel()
	assert.False(t, h.s.Pending(), "a canceled task must not count as pending")
	h.tick(time.Millisecond)
	assert.False(t, fired)
}

func TestCancel_AfterFireIsNoop(t *testing.T) {
	h := newSchedulerHarness()
	fired := 0
	cancel := h.s.NextTick(func() { fired++ })

	h.tick(time.Millisecond)
	require.Equal(t, 1, fired)

	assert.NotPanics(t, func() {
		cancel()
		cancel()
	})
	h.tick(time.Millisecond)
	assert.Equal(t, 1, fired)
	assert.False(t, h.s.Pending())
}

func TestAfter_FiresAtExactDeadline(t *testing.T) {
	h := newSchedulerHarness()
	fired := false
	h.s.After(50*time.Millisecond, func() { fired = true })

	h.tick(49 * time.Millisecond)
	require.False(t, fired, "the task must hold until its deadline")
	require.True(t, h.s.Pending())

	// Land exactly on the deadline: "at or past" includes equality.
	h.tick(time.Millisecond)
	assert.True(t, fired)
	assert.False(t, h.s.Pending())
}

func TestAfter_LateTickStillFires(t *testing.T) {
	h := newSchedulerHarness()
	fired := false
	h.s.After(10*time.Millisecond, func() { fired = true })

	h.tick(time.Second)
	assert.True(t, fired, "a tick past the deadline must still run the task")
}

func TestAfter_CancelBeforeDeadline(t *testing.T) {
	h := newSchedulerHarness()
	fired := false
	cancel := h.s.After(10*time.Millisecond, func() { fired = true })

	cancel()
	h.tick(time.Second)
	assert.False(t, fired)
	assert.False(t, h.s.Pending())
}

func TestTick_RunsDueTasksInScheduleOrder(t *testing.T) {
	h := newSchedulerHarness()
	var order []int
	h.s.NextTick(func() { order = append(order, 0) })
	h.s.NextTick(func() { order = append(order, 1) })
	h.s.After(time.Millisecond, func() { order = append(order, 2) })

	h.tick(10 * time.Millisecond)
	assert.Equal(t, []int{0, 1, 2}, order, "next-tick tasks run before due delayed tasks")
}

func TestNextTick_PanicsOnNilFunc(t *testing.T) {
	h := newSchedulerHarness()
	assert.Panics(t, func() { h.s.NextTick(nil) })
	assert.Panics(t, func() { h.s.After(time.Millisecond, nil) })
}
