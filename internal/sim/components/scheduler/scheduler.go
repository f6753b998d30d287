package scheduler

import "github.com/d3s-trento/mspsim/internal/log"

// Event is a cycle-indexed callback. The same Event value is meant to be
// rescheduled over and over by its owner; at most one occurrence of it is
// ever pending.
type Event struct {
	Name    string
	Execute func(cycle uint64)

	cycle     uint64
	scheduled bool
	next      *Event
}

func (e *Event) Scheduled() bool {
	return e.scheduled
}

// Cycle returns the cycle the event is currently scheduled for. Only
// meaningful while Scheduled() is true.
func (e *Event) Cycle() uint64 {
	return e.cycle
}

// Scheduler advances a monotonic cycle counter and fires events registered
// against future cycle values, in nondecreasing cycle order. Pending events
// form a sorted intrusive list; the expected population is one event per
// peripheral, so insertion is a short walk.
type Scheduler struct {
	cycles uint64
	first  *Event
}

func (s *Scheduler) Cycles() uint64 {
	return s.cycles
}

// Schedule registers ev to fire at the given cycle. If ev is already
// pending, the previous registration is superseded, never queued alongside.
// A cycle that is already in the past fires on the next Advance, at the
// current counter value.
func (s *Scheduler) Schedule(ev *Event, cycle uint64) {
	if ev.scheduled {
		s.remove(ev)
	}

	ev.cycle = cycle
	ev.scheduled = true

	log.Debug("[scheduler] %s scheduled at cycle %d", ev.Name, cycle)

	if s.first == nil || cycle < s.first.cycle {
		ev.next = s.first
		s.first = ev

		return
	}

	at := s.first
	for at.next != nil && at.next.cycle <= cycle {
		at = at.next
	}

	ev.next = at.next
	at.next = ev
}

func (s *Scheduler) remove(ev *Event) {
	if s.first == ev {
		s.first = ev.next
	} else {
		for at := s.first; at != nil; at = at.next {
			if at.next == ev {
				at.next = ev.next
				break
			}
		}
	}

	ev.next = nil
	ev.scheduled = false
}

// Advance moves the counter to the given cycle, firing every due event at
// its own cycle value. A callback may schedule further events, including
// ones due before the target cycle; they fire in the same call.
func (s *Scheduler) Advance(to uint64) {
	for s.first != nil && s.first.cycle <= to {
		ev := s.first
		s.remove(ev)

		if ev.cycle > s.cycles {
			s.cycles = ev.cycle
		}

		ev.Execute(s.cycles)
	}

	if to > s.cycles {
		s.cycles = to
	}
}

// Tick advances the counter by n cycles.
func (s *Scheduler) Tick(n uint64) {
	s.Advance(s.cycles + n)
}
