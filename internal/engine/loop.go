package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// maxCatchUp bounds the fixed-rate updates run for one rendered frame so a
// long stall does not spiral.
const maxCatchUp = 8

// Run drives the window until it asks to close, ctx is done, or a tick
// fails. Each iteration polls events, runs updates (once per frame, or at
// the configured fixed rate), renders one frame, clears input edges and
// waits for the frame cap.
func (e *Engine) Run(ctx context.Context) error {
	if e.window == nil {
		return fmt.Errorf("engine: run needs a window")
	}
	if e.tornDown {
		return ErrTornDown
	}

	step := 0.0
	if rate := e.cfg.Window.UpdateRate; rate > 0 {
		step = 1 / float64(rate)
	}

	l := loop{last: e.clock(), step: step}
	for !e.window.ShouldClose() {
		if ctx.Err() != nil {
			e.log.Info("frame loop stopped", zap.Error(ctx.Err()))
			return nil
		}
		if err := e.frame(&l); err != nil {
			e.log.Error("frame loop aborted", zap.Error(err))
			return err
		}
	}
	return nil
}

type loop struct {
	last        time.Time
	step        float64
	accumulator float64
}

func (e *Engine) frame(l *loop) error {
	e.profiler.ResetFrame()
	now := e.clock()
	dt := now.Sub(l.last).Seconds()
	l.last = now

	func() { defer e.profiler.Track("window.PollEvents")(); e.window.PollEvents() }()

	if !e.runtime.Paused() {
		if err := e.updates(l, dt); err != nil {
			return err
		}
	}
	e.RenderTick(dt)

	// Clear edge flags at end of frame
	e.input.PostUpdate()

	e.warnSlowFrame()
	e.limiter.Wait(e.runtime.FPSLimit())
	return nil
}

func (e *Engine) updates(l *loop, dt float64) error {
	if l.step == 0 {
		return e.UpdateTick(dt)
	}
	l.accumulator += dt
	n := 0
	for l.accumulator+dueSlack >= l.step {
		if n == maxCatchUp {
			e.log.Warn("dropping update backlog", zap.Float64("seconds", l.accumulator))
			l.accumulator = 0
			break
		}
		if err := e.UpdateTick(l.step); err != nil {
			return err
		}
		l.accumulator -= l.step
		n++
	}
	return nil
}

// dueSlack absorbs float rounding in the fixed-rate accumulator.
const dueSlack = 1e-9

func (e *Engine) warnSlowFrame() {
	limit := e.runtime.FPSLimit()
	if limit <= 0 {
		return
	}
	target := time.Second / time.Duration(limit)
	if processing := e.profiler.Total(); processing > target {
		e.log.Warn("frame processing too slow",
			zap.Duration("processing", processing),
			zap.Duration("target", target),
			zap.String("top", e.profiler.TopN(3)))
	}
}

// frameLimiter provides frame rate limiting with a hybrid sleep/spin wait
// for better precision on high caps.
type frameLimiter struct {
	next  time.Time
	now   func() time.Time
	sleep func(time.Duration)
}

func newFrameLimiter(now func() time.Time) *frameLimiter {
	return &frameLimiter{now: now, sleep: time.Sleep}
}

// Wait blocks until the next frame should start under limit frames per
// second. A limit of zero or less returns immediately.
func (f *frameLimiter) Wait(limit int) {
	if limit <= 0 {
		f.next = time.Time{}
		return
	}

	target := time.Second / time.Duration(limit)
	if f.next.IsZero() {
		f.next = f.now().Add(target)
	} else {
		f.next = f.next.Add(target)
	}

	for {
		remaining := f.next.Sub(f.now())
		if remaining <= 0 {
			break
		}
		if remaining > 200*time.Microsecond {
			f.sleep(remaining - 200*time.Microsecond)
		}
		// busy-wait for the final few microseconds
		if f.next.Sub(f.now()) <= 0 {
			break
		}
	}

	// If we're significantly late (e.g., hitch), resync to avoid drift
	if late := f.now().Sub(f.next); late > target {
		f.next = f.now().Add(target)
	}
}
