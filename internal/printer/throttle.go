package printer

import (
	"context"
	"time"
)

// Throttle paces long batches so the print head can cool. The zero value never waits.
type Throttle struct {
	// Delay is the pause before every sheet after the first.
	Delay time.Duration
	// Every CooldownEvery sheets an extra Cooldown pause is added.
	CooldownEvery int
	Cooldown      time.Duration

	sleep func(ctx context.Context, d time.Duration) error
}

// Pause returns how long to wait before sending the next sheet when sent sheets have
// already gone out.
func (t Throttle) Pause(sent int) time.Duration {
	if sent <= 0 {
		return 0
	}
	d := t.Delay
	if t.CooldownEvery > 0 && sent%t.CooldownEvery == 0 {
		d += t.Cooldown
	}
	return d
}

// Wait blocks for Pause(sent) or until ctx is done.
func (t Throttle) Wait(ctx context.Context, sent int) error {
	d := t.Pause(sent)
	if d <= 0 {
		return ctx.Err()
	}
	if t.sleep != nil {
		return t.sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
