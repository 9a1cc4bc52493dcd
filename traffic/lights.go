package traffic

import (
	"fmt"
	"slices"
)

// Phase is a traffic light phase. Group A is the set of approaches marked in
// the default priority mask, group B is everything else.
type Phase int

const (
	GreenA Phase = iota
	YellowA
	ClearanceA
	GreenB
	YellowB
	ClearanceB
)

var phaseNames = [...]string{"greenA", "yellowA", "clearanceA", "greenB", "yellowB", "clearanceB"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Next returns the phase that follows p
func (p Phase) Next() Phase {
	return (p + 1) % Phase(len(phaseNames))
}

// IsClearance reports whether p is an all-red phase
func (p Phase) IsClearance() bool {
	return p == ClearanceA || p == ClearanceB
}

// phaseEpsilon absorbs float drift when summing many small deltas
const phaseEpsilon = 1e-9

// LightTimings are the phase durations in seconds. Green covers the whole go
// window of a group including its yellow tail.
type LightTimings struct {
	GreenA     float64
	YellowA    float64
	ClearanceA float64
	GreenB     float64
	YellowB    float64
	ClearanceB float64
}

// DefaultLightTimings returns a symmetric cycle of 5s green, 1s yellow and
// half a second all-red per group
func DefaultLightTimings() LightTimings {
	return LightTimings{
		GreenA:     5,
		YellowA:    1,
		ClearanceA: 0.5,
		GreenB:     5,
		YellowB:    1,
		ClearanceB: 0.5,
	}
}

// Validate checks that every group has a non-empty green and no negative phase
func (t LightTimings) Validate() error {
	if t.YellowA < 0 || t.GreenA <= t.YellowA {
		return fmt.Errorf("group A green %v yellow %v: %w", t.GreenA, t.YellowA, ErrInvalidTimings)
	}
	if t.YellowB < 0 || t.GreenB <= t.YellowB {
		return fmt.Errorf("group B green %v yellow %v: %w", t.GreenB, t.YellowB, ErrInvalidTimings)
	}
	if t.ClearanceA < 0 || t.ClearanceB < 0 {
		return fmt.Errorf("clearance %v/%v: %w", t.ClearanceA, t.ClearanceB, ErrInvalidTimings)
	}
	return nil
}

// Duration returns how long phase p is shown
func (t LightTimings) Duration(p Phase) float64 {
	switch p {
	case GreenA:
		return t.GreenA - t.YellowA
	case YellowA:
		return t.YellowA
	case ClearanceA:
		return t.ClearanceA
	case GreenB:
		return t.GreenB - t.YellowB
	case YellowB:
		return t.YellowB
	case ClearanceB:
		return t.ClearanceB
	}
	return 0
}

// Lights is the phase controller of a signalled cross
type Lights struct {
	timings         LightTimings
	phase           Phase
	timer           float64
	defaultPriority []bool // Group A approaches
	currentPriority []bool // Approaches allowed to go in the current green
}

func newLights(t LightTimings, groupA []bool) *Lights {
	l := &Lights{
		timings:         t,
		phase:           GreenA,
		defaultPriority: slices.Clone(groupA),
	}
	l.currentPriority = slices.Clone(l.defaultPriority)
	return l
}

// Phase returns the current phase
func (l *Lights) Phase() Phase {
	return l.phase
}

// Timer returns the time spent in the current phase
func (l *Lights) Timer() float64 {
	return l.timer
}

// advance adds delta to the phase timer and moves to the next phase once the
// current one has run out. It reports whether the phase changed.
func (l *Lights) advance(delta float64) bool {
	l.timer += delta
	if l.timer+phaseEpsilon < l.timings.Duration(l.phase) {
		return false
	}

	l.phase = l.phase.Next()
	l.timer = 0

	switch l.phase {
	case GreenA:
		copy(l.currentPriority, l.defaultPriority)
	case GreenB:
		for i, p := range l.defaultPriority {
			l.currentPriority[i] = !p
		}
	}
	return true
}

// denies reports whether approach i may not cross in the current phase
func (l *Lights) denies(i int) bool {
	if l.phase.IsClearance() {
		return true
	}
	if i < 0 || i >= len(l.currentPriority) {
		return true
	}
	return !l.currentPriority[i]
}

// Allows reports whether approach i has green or yellow
func (l *Lights) Allows(i int) bool {
	return !l.denies(i)
}

// grow extends the masks when approaches are added after the lights
func (l *Lights) grow(n int) {
	for len(l.defaultPriority) < n {
		l.defaultPriority = append(l.defaultPriority, false)
		// a new approach is in group B
		inGreenB := l.phase >= GreenB
		l.currentPriority = append(l.currentPriority, inGreenB)
	}
}
