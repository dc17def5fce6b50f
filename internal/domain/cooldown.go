package domain

import "time"

// CooldownWindow mirrors a server-declared cooldown. The zero value means
// no active window. The client never invents or extends a window, it only
// counts one down.
type CooldownWindow struct {
	EndsAt time.Time `json:"ends_at"`
}

func (w CooldownWindow) IsZero() bool {
	return w.EndsAt.IsZero()
}

func (w CooldownWindow) Active(now time.Time) bool {
	return !w.EndsAt.IsZero() && w.EndsAt.After(now)
}

// Remaining returns the time left in the window, never negative.
func (w CooldownWindow) Remaining(now time.Time) time.Duration {
	if w.EndsAt.IsZero() {
		return 0
	}
	d := w.EndsAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
