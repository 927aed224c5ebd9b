package simulator

import (
	"time"

	"soilsense/internal/models"
)

const (
	// PumpOnMargin a bomba liga abaixo de moisture.min - PumpOnMargin
	PumpOnMargin = 5.0
	// PumpOffMargin a bomba desliga em moisture.min + PumpOffMargin ou acima
	PumpOffMargin = 8.0

	minWaterMinutes = 4
	waterSpread     = 12 // durações possíveis: 4..15
)

// PumpState estado da bomba de irrigação
type PumpState string

const (
	PumpOff PumpState = "PUMP_OFF"
	PumpOn  PumpState = "PUMP_ON"
)

// Transition mudança de estado produzida por Apply
type Transition int

const (
	NoTransition Transition = iota
	PumpStarted
	PumpStopped
)

type intSource interface {
	Intn(n int) int
}

// IrrigationController máquina de estados com histerese para a bomba
type IrrigationController struct {
	rng intSource
}

// NewIrrigationController cria o controlador
func NewIrrigationController(rng intSource) *IrrigationController {
	return &IrrigationController{rng: rng}
}

// State retorna o estado da bomba registrado na leitura
func State(r models.SensorReading) PumpState {
	if r.PumpOn {
		return PumpOn
	}
	return PumpOff
}

// Apply avalia a umidade da leitura contra o perfil e atualiza os campos da
// bomba. Dentro da faixa de histerese nada muda.
func (c *IrrigationController) Apply(r *models.SensorReading, profile models.CropProfile, now time.Time) Transition {
	switch {
	case !r.PumpOn && r.Moisture < profile.Moisture.Min-PumpOnMargin:
		r.PumpOn = true
		watered := now
		r.LastWatered = &watered
		return PumpStarted

	case r.PumpOn && r.Moisture >= profile.Moisture.Min+PumpOffMargin:
		r.PumpOn = false
		r.LastWaterDuration = c.rng.Intn(waterSpread) + minWaterMinutes
		return PumpStopped
	}
	return NoTransition
}
