package simulator

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"soilsense/internal/models"
)

const (
	// BackfillPoints número de leituras geradas no preenchimento inicial
	BackfillPoints = 121
	// BackfillSpacing espaçamento entre leituras do preenchimento (60h no total)
	BackfillSpacing = 30 * time.Minute
)

// WalkParams passo máximo e limites de uma variável do passeio aleatório
type WalkParams struct {
	Step float64 `json:"step"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// WalkProfile parâmetros do passeio aleatório para as sete variáveis contínuas
type WalkProfile struct {
	Moisture    WalkParams `json:"moisture"`
	PH          WalkParams `json:"ph"`
	N           WalkParams `json:"n"`
	P           WalkParams `json:"p"`
	K           WalkParams `json:"k"`
	Temperature WalkParams `json:"temperature"`
	Humidity    WalkParams `json:"humidity"`
}

// LiveWalk parâmetros da alimentação ao vivo
var LiveWalk = WalkProfile{
	Moisture:    WalkParams{Step: 3, Min: 0, Max: 100},
	PH:          WalkParams{Step: 0.2, Min: 3.5, Max: 9.5},
	N:           WalkParams{Step: 4, Min: 0, Max: 100},
	P:           WalkParams{Step: 3, Min: 0, Max: 100},
	K:           WalkParams{Step: 3, Min: 0, Max: 100},
	Temperature: WalkParams{Step: 1, Min: 10, Max: 45},
	Humidity:    WalkParams{Step: 2, Min: 20, Max: 100},
}

// SeedWalk parâmetros do preenchimento histórico: passos maiores, limites
// mais estreitos
var SeedWalk = WalkProfile{
	Moisture:    WalkParams{Step: 4, Min: 20, Max: 95},
	PH:          WalkParams{Step: 0.25, Min: 4, Max: 9},
	N:           WalkParams{Step: 5, Min: 10, Max: 95},
	P:           WalkParams{Step: 4, Min: 10, Max: 90},
	K:           WalkParams{Step: 4, Min: 10, Max: 90},
	Temperature: WalkParams{Step: 1.2, Min: 12, Max: 42},
	Humidity:    WalkParams{Step: 3, Min: 25, Max: 98},
}

// InitialState estado do sensor ao iniciar o processo
func InitialState() models.SensorReading {
	return models.SensorReading{
		Moisture:    58,
		PH:          6.8,
		N:           52,
		P:           38,
		K:           45,
		Temperature: 27.4,
		Humidity:    61,
		Crop:        models.DefaultCrop,
	}
}

// Generator dono exclusivo do estado atual do sensor
type Generator struct {
	state      models.SensorReading
	rng        *rand.Rand
	now        func() time.Time
	crop       func() models.Crop
	irrigation *IrrigationController
	mutex      sync.Mutex
}

// Option configura um Generator
type Option func(*Generator)

// WithRand define a fonte de aleatoriedade
func WithRand(rng *rand.Rand) Option {
	return func(g *Generator) { g.rng = rng }
}

// WithClock define o relógio usado nos timestamps
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithCropSource define de onde vem a cultura atual
func WithCropSource(crop func() models.Crop) Option {
	return func(g *Generator) { g.crop = crop }
}

// WithState substitui o estado inicial
func WithState(state models.SensorReading) Option {
	return func(g *Generator) { g.state = state.Clone() }
}

// NewGenerator cria novo gerador
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		state: InitialState(),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		now:   time.Now,
		crop:  func() models.Crop { return models.DefaultCrop },
	}
	for _, opt := range opts {
		opt(g)
	}
	g.irrigation = NewIrrigationController(g.rng)
	return g
}

// Step avança o estado um passo, aplica a lógica de irrigação e retorna a
// nova leitura
func (g *Generator) Step() models.SensorReading {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	walk(&g.state, LiveWalk, g.rng)

	now := g.now()
	if now.Before(g.state.Timestamp) {
		now = g.state.Timestamp
	}

	profile := models.ProfileOrDefault(string(g.crop()))
	g.irrigation.Apply(&g.state, profile, now)

	g.state.Timestamp = now
	g.state.Crop = profile.ID

	return g.state.Clone()
}

// Reading retorna a leitura atual sem avançar o estado
func (g *Generator) Reading() models.SensorReading {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	reading := g.state.Clone()
	reading.Crop = models.ProfileOrDefault(string(g.crop())).ID
	if reading.Timestamp.IsZero() {
		reading.Timestamp = g.now()
	}
	return reading
}

// Backfill gera BackfillPoints leituras terminando em now, espaçadas de
// BackfillSpacing, a partir de uma cópia do estado atual. O estado ao vivo
// não é alterado.
func (g *Generator) Backfill(now time.Time, crop models.Crop) []models.SensorReading {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	seed := g.state.Clone()
	readings := make([]models.SensorReading, 0, BackfillPoints)
	for i := BackfillPoints - 1; i >= 0; i-- {
		walk(&seed, SeedWalk, g.rng)
		readings = append(readings, models.SensorReading{
			Moisture:    seed.Moisture,
			PH:          seed.PH,
			N:           seed.N,
			P:           seed.P,
			K:           seed.K,
			Temperature: seed.Temperature,
			Humidity:    seed.Humidity,
			Timestamp:   now.Add(-time.Duration(i) * BackfillSpacing),
			Crop:        crop,
		})
	}
	return readings
}

func walk(s *models.SensorReading, p WalkProfile, rng *rand.Rand) {
	s.Moisture = randomWalk(s.Moisture, p.Moisture, rng)
	s.PH = randomWalk(s.PH, p.PH, rng)
	s.N = randomWalk(s.N, p.N, rng)
	s.P = randomWalk(s.P, p.P, rng)
	s.K = randomWalk(s.K, p.K, rng)
	s.Temperature = randomWalk(s.Temperature, p.Temperature, rng)
	s.Humidity = randomWalk(s.Humidity, p.Humidity, rng)
}

// randomWalk soma um delta uniforme em [-step, +step], arredonda para duas
// casas e limita ao intervalo
func randomWalk(current float64, p WalkParams, rng *rand.Rand) float64 {
	delta := (rng.Float64() - 0.5) * 2 * p.Step
	return clamp(round2(current+delta), p.Min, p.Max)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, min, max float64) float64 {
	return math.Min(math.Max(v, min), max)
}
