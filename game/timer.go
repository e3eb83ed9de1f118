package game

import (
	"context"
	"time"
)

// startTimer launches the room's tick loop once. The room lock must be held.
func (c *Coordinator) startTimer(r *Room) {
	if r.timerStarted {
		return
	}
	r.timerStarted = true

	ticks, stop := c.tickers.Create(c.opts.TickInterval)
	c.timers.Add(1)
	go c.runTimer(r, ticks, stop)
}

func (c *Coordinator) runTimer(r *Room, ticks <-chan time.Time, stopTicker func()) {
	defer c.timers.Done()
	defer stopTicker()

	for {
		select {
		case <-r.stop:
			return
		case <-ticks:
			if !c.tick(r) {
				return
			}
		}
	}
}

// tick re-derives everything from the room and runs at most one deadline
// transition. It reports whether the loop should keep going.
func (c *Coordinator) tick(r *Room) bool {
	now := c.now()

	r.mu.Lock()
	if r.phase == PhaseFinished || r.removed {
		r.mu.Unlock()
		return false
	}

	if r.connectedCount() == 0 {
		if now.Sub(r.lastActivity) > c.opts.InactivityTimeout {
			r.finish()
			r.removed = true
			c.broadcast(r)
			r.mu.Unlock()

			c.rooms.remove(r)
			c.log.Info().Str("room", r.code).Msg("room closed after inactivity")
			return false
		}
	} else {
		r.lastActivity = now
	}

	if r.paused {
		r.mu.Unlock()
		return true
	}

	switch {
	case r.phase == PhaseQuestion && !r.qDeadline.IsZero() && !now.Before(r.qDeadline):
		r.revealAnswer(now)
		c.broadcast(r)
	case r.phase == PhaseReveal && !r.revealDeadline.IsZero() && !now.Before(r.revealDeadline):
		ctx, cancel := context.WithTimeout(context.Background(), c.opts.StoreTimeout)
		c.nextQuestion(ctx, r)
		cancel()
		c.broadcast(r)
	}

	keep := r.phase != PhaseFinished
	r.mu.Unlock()
	return keep
}

// RunJanitor periodically removes rooms that have no timer loop of their own
// (never started or already finished) once nobody has been connected for the
// inactivity window.
func (c *Coordinator) RunJanitor(ctx context.Context) {
	ticks, stop := c.tickers.Create(c.opts.JanitorInterval)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			if n := c.sweep(); n > 0 {
				c.log.Info().Int("rooms", n).Msg("janitor removed idle rooms")
			}
		}
	}
}

func (c *Coordinator) sweep() int {
	now := c.now()
	idle := func(r *Room) bool {
		loopless := r.phase == PhaseLobby || r.phase == PhaseFinished
		return loopless && r.idle(now, c.opts.InactivityTimeout)
	}

	removed := 0
	for _, r := range c.rooms.all() {
		if c.rooms.tryDeleteRoom(r, idle) {
			removed++
		}
	}
	return removed
}
