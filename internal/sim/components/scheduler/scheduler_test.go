package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScheduler_FiresInOrder(t *testing.T) {
	t.Parallel()

	s := &Scheduler{}

	var fired []string

	a := &Event{Name: "a", Execute: func(cycle uint64) {
		assert.Equal(t, uint64(10), cycle)
		fired = append(fired, "a")
	}}
	b := &Event{Name: "b", Execute: func(cycle uint64) {
		assert.Equal(t, uint64(5), cycle)
		fired = append(fired, "b")
	}}

	s.Schedule(a, 10)
	s.Schedule(b, 5)

	s.Advance(4)
	assert.Empty(t, fired)
	assert.Equal(t, uint64(4), s.Cycles())

	s.Advance(20)
	assert.Equal(t, []string{"b", "a"}, fired)
	assert.Equal(t, uint64(20), s.Cycles())
}

func TestScheduler_NeverFiresEarly(t *testing.T) {
	t.Parallel()

	s := &Scheduler{}

	fired := false
	ev := &Event{Name: "ev", Execute: func(cycle uint64) {
		fired = true
	}}

	s.Schedule(ev, 100)

	s.Advance(99)
	assert.False(t, fired)
	assert.True(t, ev.Scheduled())

	s.Advance(100)
	assert.True(t, fired)
	assert.False(t, ev.Scheduled())
}

func TestScheduler_RescheduleSupersedes(t *testing.T) {
	t.Parallel()

	s := &Scheduler{}

	count := 0
	var at uint64

	ev := &Event{Name: "ev", Execute: func(cycle uint64) {
		count++
		at = cycle
	}}

	s.Schedule(ev, 10)
	s.Schedule(ev, 30)
	assert.Equal(t, uint64(30), ev.Cycle())

	s.Advance(100)
	assert.Equal(t, 1, count)
	assert.Equal(t, uint64(30), at)
}

func TestScheduler_PastCycleFiresAtCurrentCounter(t *testing.T) {
	t.Parallel()

	s := &Scheduler{}
	s.Advance(50)

	var at uint64
	ev := &Event{Name: "ev", Execute: func(cycle uint64) {
		at = cycle
	}}

	s.Schedule(ev, 10)
	s.Advance(50)

	assert.Equal(t, uint64(50), at)
	assert.Equal(t, uint64(50), s.Cycles())
}

func TestScheduler_CallbackMaySchedule(t *testing.T) {
	t.Parallel()

	s := &Scheduler{}

	var fired []uint64
	var ev Event

	ev = Event{Name: "ev", Execute: func(cycle uint64) {
		fired = append(fired, cycle)
		if len(fired) < 3 {
			s.Schedule(&ev, cycle+5)
		}
	}}

	s.Schedule(&ev, 5)
	s.Tick(20)

	assert.Equal(t, []uint64{5, 10, 15}, fired)
	assert.Equal(t, uint64(20), s.Cycles())
}
