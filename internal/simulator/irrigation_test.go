package simulator

import (
	"math/rand"
	"testing"
	"time"

	"soilsense/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constInt int

func (c constInt) Intn(n int) int { return int(c) % n }

func TestIrrigationHysteresis(t *testing.T) {
	profile, err := models.CropRice.Profile() // min 65: liga < 60, desliga >= 73
	require.NoError(t, err)

	ctrl := NewIrrigationController(rand.New(rand.NewSource(1)))
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	steps := []struct {
		moisture float64
		want     PumpState
		tr       Transition
	}{
		{70, PumpOff, NoTransition},
		{60, PumpOff, NoTransition}, // no limite: ainda não liga
		{59.9, PumpOn, PumpStarted},
		{50, PumpOn, NoTransition},
		{65, PumpOn, NoTransition}, // dentro da faixa
		{72.99, PumpOn, NoTransition},
		{73, PumpOff, PumpStopped},
		{70, PumpOff, NoTransition},
		{61, PumpOff, NoTransition},
		{59, PumpOn, PumpStarted},
		{62, PumpOn, NoTransition},
		{80, PumpOff, PumpStopped},
	}

	r := models.SensorReading{}
	for i, s := range steps {
		now = now.Add(time.Minute)
		r.Moisture = s.moisture
		tr := ctrl.Apply(&r, profile, now)
		assert.Equal(t, s.tr, tr, "step %d", i)
		assert.Equal(t, s.want, State(r), "step %d moisture %.2f", i, s.moisture)
	}
}

func TestIrrigationRecordsWaterTimes(t *testing.T) {
	profile, _ := models.CropWheat.Profile() // min 45
	ctrl := NewIrrigationController(constInt(11))
	on := time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC)

	r := models.SensorReading{Moisture: 30}
	require.Equal(t, PumpStarted, ctrl.Apply(&r, profile, on))
	require.NotNil(t, r.LastWatered)
	assert.Equal(t, on, *r.LastWatered)

	r.Moisture = 53
	require.Equal(t, PumpStopped, ctrl.Apply(&r, profile, on.Add(10*time.Minute)))
	assert.Equal(t, 15, r.LastWaterDuration)
	assert.Equal(t, on, *r.LastWatered, "desligar não altera last_watered")
}

func TestIrrigationDurationRange(t *testing.T) {
	profile, _ := models.CropRice.Profile()
	ctrl := NewIrrigationController(rand.New(rand.NewSource(5)))
	seen := map[int]bool{}
	for i := 0; i < 2000; i++ {
		r := models.SensorReading{PumpOn: true, Moisture: 90}
		ctrl.Apply(&r, profile, time.Now())
		assert.GreaterOrEqual(t, r.LastWaterDuration, 4)
		assert.LessOrEqual(t, r.LastWaterDuration, 15)
		seen[r.LastWaterDuration] = true
	}
	assert.Len(t, seen, 12)
}
