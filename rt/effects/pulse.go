package effects

import "github.com/gekko3d/lasers/rt/core"

const (
	// BlinkCount off/on blinks make up one strobe.
	BlinkCount = 3
	// BlinkPhaseSeconds is how long each off or on half-blink lasts.
	BlinkPhaseSeconds = 0.070

	strobePhases = BlinkCount * 2
)

// Pulse is the strobe sub-state-machine of one laser. While IsPulsing it owns
// CurrentColor, alternating transparent black (even phases) and OriginalColor
// (odd phases). It is advanced by elapsed time rather than by sleeping, so the
// render loop keeps sampling CurrentColor between phases.
type Pulse struct {
	IsPulsing     bool
	OriginalColor core.Color
	CurrentColor  core.Color

	phase        int
	phaseElapsed float64
}

// Trigger starts a strobe. It is a no-op returning false while a strobe is
// already running; strobes are never restarted or cancelled mid-cycle.
func (p *Pulse) Trigger(base core.Color) bool {
	if p.IsPulsing {
		return false
	}
	p.IsPulsing = true
	p.OriginalColor = base
	p.phase = 0
	p.phaseElapsed = 0
	p.CurrentColor = core.ColorTransparent
	return true
}

// Step advances a running strobe by dt seconds. Several phases may pass in one
// step when frames are long.
func (p *Pulse) Step(dt float64) {
	if !p.IsPulsing || dt <= 0 {
		return
	}
	p.phaseElapsed += dt
	for p.phaseElapsed >= BlinkPhaseSeconds {
		p.phaseElapsed -= BlinkPhaseSeconds
		p.phase++
		if p.phase >= strobePhases {
			p.finish()
			return
		}
		p.applyPhase()
	}
}

// Phase is the index of the running half-blink, 0..5.
func (p *Pulse) Phase() int {
	return p.phase
}

func (p *Pulse) applyPhase() {
	if p.phase%2 == 0 {
		p.CurrentColor = core.ColorTransparent
	} else {
		p.CurrentColor = p.OriginalColor
	}
}

func (p *Pulse) finish() {
	p.IsPulsing = false
	p.CurrentColor = p.OriginalColor
	p.phase = 0
	p.phaseElapsed = 0
}

// StrobeDuration is the total length of one strobe in seconds.
func StrobeDuration() float64 {
	return strobePhases * BlinkPhaseSeconds
}
