// Package scheduler advances deferred and recurring callbacks on simulated
// time. It is driven once per update tick and never looks at the wall clock.
package scheduler

import (
	"container/heap"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// dueEpsilon absorbs float rounding when comparing due times against the
// advanced clock.
const dueEpsilon = 1e-9

var ErrInvalidPeriod = errors.New("scheduler: period must be positive")

// Callback receives the simulated time at which the event fired.
type Callback func(at float64)

type event struct {
	id       uuid.UUID
	seq      uint64
	due      float64
	period   float64 // zero for one-shot events
	fn       Callback
	canceled bool
	index    int
}

// Scheduler is not safe for concurrent use; it runs on the update thread.
type Scheduler struct {
	now   float64
	seq   uint64
	queue eventQueue
	byID  map[uuid.UUID]*event
	log   *zap.Logger
}

// New returns a scheduler at simulated time zero.
func New(log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		byID: make(map[uuid.UUID]*event),
		log:  log,
	}
}

// Now returns the simulated time.
func (s *Scheduler) Now() float64 { return s.now }

// Pending returns the number of scheduled events.
func (s *Scheduler) Pending() int { return len(s.byID) }

// After schedules fn to fire once, delay seconds from now.
func (s *Scheduler) After(delay float64, fn Callback) uuid.UUID {
	if delay < 0 {
		delay = 0
	}
	return s.push(s.now+delay, 0, fn)
}

// Every schedules fn to fire every period seconds, first at now+period.
// Each firing reschedules from its own due time, so a large advance fires
// the event once per elapsed period.
func (s *Scheduler) Every(period float64, fn Callback) (uuid.UUID, error) {
	if period <= 0 {
		return uuid.Nil, ErrInvalidPeriod
	}
	return s.push(s.now+period, period, fn), nil
}

// Cancel removes a scheduled event. It reports whether the event was
// pending. An event may cancel itself from its own callback.
func (s *Scheduler) Cancel(id uuid.UUID) bool {
	ev, ok := s.byID[id]
	if !ok {
		return false
	}
	ev.canceled = true
	delete(s.byID, id)
	if ev.index >= 0 {
		heap.Remove(&s.queue, ev.index)
	}
	return true
}

// Advance moves simulated time forward by delta and fires every event due
// within the step, ordered by due time and then by registration order.
// Negative deltas are ignored.
func (s *Scheduler) Advance(delta float64) {
	if delta < 0 {
		s.log.Warn("scheduler advance with negative delta ignored", zap.Float64("delta", delta))
		return
	}
	target := s.now + delta

	for s.queue.Len() > 0 {
		next := s.queue[0]
		if next.due > target+dueEpsilon {
			break
		}
		heap.Pop(&s.queue)
		if next.due > s.now {
			s.now = next.due
		}

		if next.period == 0 {
			delete(s.byID, next.id)
		}
		next.fn(next.due)

		if next.period > 0 && !next.canceled {
			next.due += next.period
			heap.Push(&s.queue, next)
		}
	}
	if target > s.now {
		s.now = target
	}
}

func (s *Scheduler) push(due, period float64, fn Callback) uuid.UUID {
	s.seq++
	ev := &event{
		id:     uuid.New(),
		seq:    s.seq,
		due:    due,
		period: period,
		fn:     fn,
	}
	s.byID[ev.id] = ev
	heap.Push(&s.queue, ev)
	return ev.id
}

// eventQueue orders events by due time, then by registration sequence.
type eventQueue []*event

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].due != q[j].due {
		return q[i].due < q[j].due
	}
	return q[i].seq < q[j].seq
}

func (q eventQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *eventQueue) Push(x any) {
	ev := x.(*event)
	ev.index = len(*q)
	*q = append(*q, ev)
}

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	ev.index = -1
	*q = old[:n-1]
	return ev
}
