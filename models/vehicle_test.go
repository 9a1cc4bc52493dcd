package models

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVehicleKind(t *testing.T) {
	k, err := ParseVehicleKind("Bus")
	require.NoError(t, err)
	assert.Equal(t, KindBus, k)

	k, err = ParseVehicleKind("car")
	require.NoError(t, err)
	assert.Equal(t, KindCar, k)

	_, err = ParseVehicleKind("tram")
	assert.Error(t, err)
}

func TestNewSpecs_CarRanges(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 200; i++ {
		s := NewSpecs(KindCar, r)
		require.NoError(t, s.Validate())
		assert.GreaterOrEqual(t, s.MaxV, 1.0)
		assert.Less(t, s.MaxV, 1.5)
		assert.Equal(t, 0.2, s.Length)
		assert.GreaterOrEqual(t, s.RemainDst, 0.06)
		assert.Less(t, s.RemainDst, 0.08)
		assert.LessOrEqual(t, s.CornerVelocity, s.MaxV)
	}
}

func TestNewSpecs_BusRanges(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 200; i++ {
		s := NewSpecs(KindBus, r)
		require.NoError(t, s.Validate())
		assert.GreaterOrEqual(t, s.MaxV, 0.8)
		assert.Less(t, s.MaxV, 1.1)
		assert.Equal(t, 0.66, s.Length)
		assert.LessOrEqual(t, s.CornerVelocity, s.MaxV)
	}
}

func TestNewSpecs_Deterministic(t *testing.T) {
	a := NewSpecs(KindCar, rand.New(rand.NewPCG(7, 7)))
	b := NewSpecs(KindCar, rand.New(rand.NewPCG(7, 7)))
	assert.Equal(t, a, b)
}

func TestSpecsFootprint(t *testing.T) {
	s := Specs{Length: 0.2, RemainDst: 0.07}
	assert.InDelta(t, 0.27, s.Footprint(), 1e-12)
}

func TestSpecsValidate(t *testing.T) {
	err := Specs{}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stopTime must be positive")
	assert.Contains(t, err.Error(), "length must be positive")
}
