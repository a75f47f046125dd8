package lasers

import (
	"time"
)

type Time struct {
	Time  time.Time
	Dt    time.Duration
	Frame uint64
	// Fixed replaces the measured frame delta when non-zero.
	Fixed time.Duration
}

// Seconds returns the current frame delta in seconds.
func (t *Time) Seconds() float32 {
	return float32(t.Dt.Seconds())
}

type TimeModule struct {
	Fixed time.Duration
	// TargetFrame paces the loop to at most one frame per duration when set.
	TargetFrame time.Duration
}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Time{
		Time:  time.Now(),
		Fixed: mod.Fixed,
	})
	app.UseSystem(System(timeSystem).InStage(Prelude))

	if mod.TargetFrame > 0 {
		pacer := &framePacer{target: mod.TargetFrame}
		app.UseSystem(System(pacer.system).InStage(Finale))
	}
}

func timeSystem(timeResource *Time) {
	now := time.Now()

	if timeResource.Fixed > 0 {
		timeResource.Dt = timeResource.Fixed
	} else if timeResource.Frame == 0 {
		timeResource.Dt = 0
	} else {
		timeResource.Dt = now.Sub(timeResource.Time)
	}
	timeResource.Time = now
	timeResource.Frame++
}

type framePacer struct {
	target time.Duration
}

func (p *framePacer) system(t *Time) {
	if spent := time.Since(t.Time); spent < p.target {
		time.Sleep(p.target - spent)
	}
}
