package traffic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTargetVelocity(t *testing.T) {
	s := testSpecs()

	// margin = 0.1 + 0.07 + 0.15*0.36/2
	margin := 0.197
	assert.InDelta(t, 0, TargetVelocity(margin, s), 1e-12)
	assert.InDelta(t, 1, TargetVelocity(margin+0.6, s), 1e-12)
	assert.Less(t, TargetVelocity(0.1, s), 0.0)
}

func TestStep(t *testing.T) {
	s := testSpecs()

	tests := []struct {
		name        string
		prev        float64
		gap         float64
		wantV       float64
		wantBraking bool
	}{
		{"open road clamps to max", 0, 10, 2, false},
		{"below min speed stops", 1, 0.2, 0, true},
		{"negative target stops", 0, 0.05, 0, true},
		{"steady cruise", 1, 0.797, 1, false},
		{"hard deceleration brakes", 2, 0.797, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, braking := Step(tt.prev, tt.gap, s, testDelta)
			assert.InDelta(t, tt.wantV, v, 1e-9)
			assert.Equal(t, tt.wantBraking, braking)
		})
	}
}

func TestSinkRunoutKeepsRolling(t *testing.T) {
	s := testSpecs()

	// at the very end of a garage lane the vehicle still has positive speed
	v := TargetVelocity(sinkRunout(s), s)
	assert.InDelta(t, s.Length/s.StopTime, v, 1e-12)
	assert.Greater(t, v, s.MinV)
}
