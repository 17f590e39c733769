package tournament

import (
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"pokerclock.com/director/logging"
)

var clockLogger = logging.GetZeroLogger("tournament::clock", nil)

// ClockState is the explicit state of the level clock.
type ClockState int

const (
	ClockStopped ClockState = iota
	ClockRunning
	ClockPaused
)

func (s ClockState) String() string {
	switch s {
	case ClockStopped:
		return "STOPPED"
	case ClockRunning:
		return "RUNNING"
	case ClockPaused:
		return "PAUSED"
	}
	return "UNKNOWN"
}

const (
	clockTickInterval = 100 * time.Millisecond

	// How often the clock reports remaining time upward while running.
	syncIntervalSec = 5
	// Within the final stretch of a level every tick reports.
	finalCountdownSec = 10

	// An externally supplied remaining time within this many seconds of
	// the computed value is treated as an echo of our own periodic
	// report, not an authoritative reset.
	externalEchoToleranceSec = 5
)

// LevelClock counts down one blind level against wall-clock time.
// Remaining time is always derived from the session start instant and
// the baseline recorded at resume, never from accumulating ticks, so
// the clock does not drift when the tick loop is delayed.
type LevelClock struct {
	mu    sync.Mutex
	clock clockwork.Clock

	state             ClockState
	remaining         float64
	sessionBaseline   float64
	sessionStart      time.Time
	cumulativeElapsed float64
	endFired          bool
	lastSync          time.Time

	loopStop    chan struct{}
	loopRunning bool

	// Fired exactly once when the level runs out.
	onLevelEnd func()
	// Fired periodically with the current remaining seconds.
	onSync func(remainingSec uint32)
}

// NewLevelClock creates a paused clock with the given remaining time.
// A nil clock defaults to the real wall clock.
func NewLevelClock(clk clockwork.Clock, remainingSec float64, onLevelEnd func(), onSync func(uint32)) *LevelClock {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &LevelClock{
		clock:      clk,
		state:      ClockPaused,
		remaining:  remainingSec,
		onLevelEnd: onLevelEnd,
		onSync:     onSync,
	}
}

// Start launches the tick loop goroutine. Safe to call once per clock;
// subsequent calls are no-ops while the loop is alive.
func (c *LevelClock) Start() {
	c.mu.Lock()
	if c.loopRunning {
		c.mu.Unlock()
		return
	}
	c.loopRunning = true
	stop := make(chan struct{})
	c.loopStop = stop
	c.mu.Unlock()
	go c.runLoop(stop)
}

// Stop halts the countdown and exits the tick loop goroutine. The
// state moves to Stopped so an iteration already past its stop-check
// cannot advance the clock or fire callbacks. Used on tournament
// delete and shutdown.
func (c *LevelClock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == ClockRunning {
		elapsed := c.clock.Now().Sub(c.sessionStart).Seconds()
		c.remaining = math.Max(0, c.sessionBaseline-elapsed)
	}
	c.state = ClockStopped
	if !c.loopRunning {
		return
	}
	close(c.loopStop)
	c.loopRunning = false
}

func (c *LevelClock) runLoop(stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		c.clock.Sleep(clockTickInterval)
		c.advance(c.clock.Now())
	}
}

// Resume transitions Paused -> Running, recording the session baseline
// and start instant. Resuming an ended (stopped) or already running
// clock is a no-op.
func (c *LevelClock) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != ClockPaused || c.remaining <= 0 {
		return
	}
	c.sessionBaseline = c.remaining
	c.sessionStart = c.clock.Now()
	c.lastSync = c.sessionStart
	c.state = ClockRunning
}

// Pause transitions Running -> Paused, folding the session's elapsed
// time into the cumulative accumulator.
func (c *LevelClock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != ClockRunning {
		return
	}
	elapsed := c.clock.Now().Sub(c.sessionStart).Seconds()
	c.cumulativeElapsed += elapsed
	c.remaining = math.Max(0, c.sessionBaseline-elapsed)
	c.state = ClockPaused
}

// SetRemaining applies an externally supplied remaining time. While
// running, a small delta is ignored as a reporting echo; a large delta
// is an authoritative reset (level change) and zeroes the accumulator.
// While paused or stopped it always resets, leaving the clock paused
// and ready to resume into the new level.
func (c *LevelClock) SetRemaining(remainingSec float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	if c.state == ClockRunning {
		elapsed := now.Sub(c.sessionStart).Seconds()
		current := math.Max(0, c.sessionBaseline-elapsed)
		if math.Abs(current-remainingSec) <= externalEchoToleranceSec {
			return
		}
		c.cumulativeElapsed = 0
		c.sessionBaseline = remainingSec
		c.sessionStart = now
		c.lastSync = now
		c.remaining = remainingSec
		c.endFired = false
		return
	}
	c.cumulativeElapsed = 0
	c.remaining = remainingSec
	c.endFired = false
	c.state = ClockPaused
}

// advance recomputes remaining time at the given instant. Called from
// the tick loop; tests drive it directly with a fake clock.
func (c *LevelClock) advance(now time.Time) {
	c.mu.Lock()
	if c.state != ClockRunning {
		c.mu.Unlock()
		return
	}

	var fireEnd, fireSync bool
	var syncVal uint32

	elapsed := now.Sub(c.sessionStart).Seconds()
	rem := c.sessionBaseline - elapsed
	if rem <= 0 {
		// Level over. Accumulator resets for the next level.
		c.remaining = 0
		c.cumulativeElapsed = 0
		c.state = ClockStopped
		if !c.endFired {
			c.endFired = true
			fireEnd = true
			clockLogger.Debug().Msgf("Level clock expired after %.1f seconds", c.sessionBaseline)
		}
	} else {
		c.remaining = rem
		if c.onSync != nil &&
			(rem <= finalCountdownSec || now.Sub(c.lastSync) >= syncIntervalSec*time.Second) {
			c.lastSync = now
			fireSync = true
			syncVal = uint32(math.Ceil(rem))
		}
	}
	onEnd := c.onLevelEnd
	onSync := c.onSync
	c.mu.Unlock()

	// Callbacks run outside the lock so they may call back into the clock.
	if fireSync && onSync != nil {
		onSync(syncVal)
	}
	if fireEnd && onEnd != nil {
		onEnd()
	}
}

// Remaining returns the current remaining seconds, computed live while
// running.
func (c *LevelClock) Remaining() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != ClockRunning {
		return c.remaining
	}
	elapsed := c.clock.Now().Sub(c.sessionStart).Seconds()
	return math.Max(0, c.sessionBaseline-elapsed)
}

// State returns the clock state.
func (c *LevelClock) State() ClockState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CumulativeElapsed returns the seconds spent running in the current
// level across pause/resume sessions.
func (c *LevelClock) CumulativeElapsed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != ClockRunning {
		return c.cumulativeElapsed
	}
	return c.cumulativeElapsed + c.clock.Now().Sub(c.sessionStart).Seconds()
}
