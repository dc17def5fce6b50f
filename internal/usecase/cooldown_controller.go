package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vitos/futures_risk_guard/internal/domain"
	"go.uber.org/zap"
)

// CooldownController mirrors the server-declared trading cooldown. It never
// computes a window itself: the end time always comes from /api/status.
//
// Two timers run while a window is active. The one-shot at endTime is
// authoritative for the state transition; the 1s countdown only feeds the
// UI, but it forces the same idempotent transition if it observes zero
// remaining time and the one-shot was late or lost.
//
// There is no push channel from the server, so a window that the server
// cancels early still runs out on its locally scheduled end. Only a later
// end time replaces the current one.
type CooldownController struct {
	api      domain.PanelAPI
	notifier domain.Notifier
	logger   *zap.Logger

	// Read lock-free by the order submitter on every submission attempt.
	locked atomic.Bool

	mu       sync.Mutex
	active   bool
	window   domain.CooldownWindow
	oneShot  *time.Timer
	stopTick chan struct{}
	onTick   func(remaining time.Duration)

	now func() time.Time
}

func NewCooldownController(api domain.PanelAPI, notifier domain.Notifier, logger *zap.Logger) *CooldownController {
	return &CooldownController{
		api:      api,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// SetCountdownSink registers the cosmetic per-second countdown consumer
// (the web hub). remaining==0 means the notice should be cleared.
func (c *CooldownController) SetCountdownSink(fn func(remaining time.Duration)) {
	c.mu.Lock()
	c.onTick = fn
	c.mu.Unlock()
}

// SubmissionAllowed reports whether new order submission is currently
// enabled.
func (c *CooldownController) SubmissionAllowed() bool {
	return !c.locked.Load()
}

// Window returns a copy of the current cooldown window (zero when inactive).
func (c *CooldownController) Window() domain.CooldownWindow {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.window
}

// Remaining returns the time left in the active window, zero when inactive.
func (c *CooldownController) Remaining() time.Duration {
	return c.Window().Remaining(c.now())
}

// Sync polls /api/status and activates the reported window if it ends in
// the future. Called at startup and after every successful order submission
// (an order may start a new cooldown server-side).
func (c *CooldownController) Sync(ctx context.Context) error {
	status, err := c.api.GetStatus(ctx)
	if err != nil {
		c.logger.Warn("cooldown status poll failed", zap.Error(err))
		return err
	}
	if status.CooldownEnds == nil {
		// No active window reported. A locally running window is left to
		// expire on its own schedule.
		return nil
	}
	if status.CooldownEnds.After(c.now()) {
		c.activate(*status.CooldownEnds)
	}
	return nil
}

func (c *CooldownController) activate(end time.Time) {
	c.mu.Lock()
	if c.active && !end.After(c.window.EndsAt) {
		// Same or earlier end time: the running window stands.
		c.mu.Unlock()
		return
	}

	if c.oneShot != nil {
		c.oneShot.Stop()
	}
	wasActive := c.active
	c.active = true
	c.window = domain.CooldownWindow{EndsAt: end}
	c.locked.Store(true)
	c.oneShot = time.AfterFunc(end.Sub(c.now()), c.ensureInactive)
	if !wasActive {
		c.stopTick = make(chan struct{})
		go c.countdown(c.stopTick)
	}
	remaining := c.window.Remaining(c.now())
	c.mu.Unlock()

	// First frame right away, the ticker only updates from the next second.
	c.pushCountdown(remaining)

	if !wasActive {
		cooldownTransitions.WithLabelValues("active").Inc()
		c.logger.Info("trading cooldown active",
			zap.Time("ends_at", end),
			zap.Duration("remaining", remaining))
		if c.notifier != nil {
			c.notifier.Notify(
				fmt.Sprintf("Trading cooldown active, new orders disabled for %ds", int(remaining.Seconds())),
				domain.SeverityWarning)
		}
	}
}

// countdown is the cosmetic 1s ticker. It pushes the remaining time to the
// UI and acts as a backstop for the authoritative one-shot.
func (c *CooldownController) countdown(stop chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			remaining := c.Remaining()
			c.pushCountdown(remaining)
			if remaining <= 0 {
				c.ensureInactive()
				return
			}
		}
	}
}

// ensureInactive is the single transition out of Active. It is idempotent:
// both the one-shot and the countdown may call it without double-firing the
// side effects.
func (c *CooldownController) ensureInactive() {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	if c.window.Remaining(c.now()) > 0 {
		// A one-shot armed for a superseded window can fire after a later
		// end time replaced it; Stop cannot catch a callback already in
		// flight. The live window stands, its own timer will finish it.
		c.mu.Unlock()
		return
	}
	c.active = false
	c.window = domain.CooldownWindow{}
	c.locked.Store(false)
	if c.oneShot != nil {
		c.oneShot.Stop()
		c.oneShot = nil
	}
	if c.stopTick != nil {
		close(c.stopTick)
		c.stopTick = nil
	}
	c.mu.Unlock()

	cooldownTransitions.WithLabelValues("inactive").Inc()
	c.pushCountdown(0)
	c.logger.Info("trading cooldown ended")
	if c.notifier != nil {
		c.notifier.Notify("Cooldown ended, order submission re-enabled", domain.SeverityInfo)
	}
}

func (c *CooldownController) pushCountdown(remaining time.Duration) {
	c.mu.Lock()
	fn := c.onTick
	c.mu.Unlock()
	if fn != nil {
		fn(remaining)
	}
}
