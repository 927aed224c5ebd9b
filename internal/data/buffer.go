package data

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"soilsense/internal/models"

	"github.com/rs/zerolog"
)

// MaxHistory limite de leituras mantidas no histórico
const MaxHistory = 200

// Buffer histórico limitado de leituras, persistido a cada mutação.
// As leituras são reconstruídas do armazenamento a cada consulta; valores
// ausentes ou corrompidos equivalem a um histórico vazio.
type Buffer struct {
	store   Store
	key     string
	maxSize int
	logger  zerolog.Logger
	mutex   sync.RWMutex
}

// NewBuffer cria novo buffer sobre o armazenamento
func NewBuffer(store Store, maxSize int, logger zerolog.Logger) *Buffer {
	if maxSize <= 0 {
		maxSize = MaxHistory
	}
	return &Buffer{
		store:   store,
		key:     HistoryKey,
		maxSize: maxSize,
		logger:  logger.With().Str("component", "history").Logger(),
	}
}

// Append adiciona uma leitura ao final, descartando as mais antigas se o
// limite for excedido
func (b *Buffer) Append(reading models.SensorReading) error {
	return b.AppendAll([]models.SensorReading{reading})
}

// AppendAll adiciona várias leituras em uma única gravação
func (b *Buffer) AppendAll(readings []models.SensorReading) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	hist, err := b.load()
	if err != nil {
		return err
	}
	for _, r := range readings {
		hist = append(hist, r.Clone())
	}
	return b.save(hist)
}

// Replace substitui todo o histórico, mantendo o limite
func (b *Buffer) Replace(readings []models.SensorReading) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	hist := make([]models.SensorReading, len(readings))
	copy(hist, readings)
	return b.save(hist)
}

// Merge intercala leituras no histórico em ordem cronológica. Leituras com o
// mesmo timestamp mantêm a ordem de inserção.
func (b *Buffer) Merge(readings []models.SensorReading) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	hist, err := b.load()
	if err != nil {
		return err
	}
	hist = append(hist, readings...)
	sort.SliceStable(hist, func(i, j int) bool {
		return hist[i].Timestamp.Before(hist[j].Timestamp)
	})
	return b.save(hist)
}

// GetAllReadings retorna todas as leituras em ordem cronológica
func (b *Buffer) GetAllReadings() []models.SensorReading {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	readings, err := b.load()
	if err != nil {
		b.logger.Warn().Err(err).Msg("history unavailable, using empty history")
		return []models.SensorReading{}
	}
	return readings
}

// GetFiltered retorna as leituras com now - timestamp dentro da janela
func (b *Buffer) GetFiltered(rng models.HistoryRange, now time.Time) []models.SensorReading {
	readings := b.GetAllReadings()

	window := rng.Window()
	if window == 0 {
		return readings
	}

	filtered := make([]models.SensorReading, 0, len(readings))
	for _, r := range readings {
		if now.Sub(r.Timestamp) <= window {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// GetReadingsSince retorna leituras estritamente posteriores a since
func (b *Buffer) GetReadingsSince(since time.Time) []models.SensorReading {
	var filtered []models.SensorReading
	for _, r := range b.GetAllReadings() {
		if r.Timestamp.After(since) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// GetLatestReading retorna a leitura mais recente
func (b *Buffer) GetLatestReading() (models.SensorReading, bool) {
	readings := b.GetAllReadings()
	if len(readings) == 0 {
		return models.SensorReading{}, false
	}
	return readings[len(readings)-1], true
}

// Size retorna tamanho atual do buffer
func (b *Buffer) Size() int {
	return len(b.GetAllReadings())
}

// MaxSize retorna o limite do buffer
func (b *Buffer) MaxSize() int {
	return b.maxSize
}

// Clear limpa todo o histórico
func (b *Buffer) Clear() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if err := b.store.Delete(b.key); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// load lê o histórico. Valor ausente ou corrompido vira histórico vazio;
// só falhas de leitura do armazenamento retornam erro, e nesse caso nada
// deve ser regravado por cima do valor persistido.
func (b *Buffer) load() ([]models.SensorReading, error) {
	raw, ok, err := b.store.Get(b.key)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	if !ok || raw == "" {
		return []models.SensorReading{}, nil
	}

	var readings []models.SensorReading
	if err := json.Unmarshal([]byte(raw), &readings); err != nil {
		b.logger.Warn().Err(err).Msg("corrupt history, using empty history")
		return []models.SensorReading{}, nil
	}
	if readings == nil {
		readings = []models.SensorReading{}
	}
	return readings, nil
}

func (b *Buffer) save(readings []models.SensorReading) error {
	if len(readings) > b.maxSize {
		readings = readings[len(readings)-b.maxSize:]
	}

	raw, err := json.Marshal(readings)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := b.store.Set(b.key, string(raw)); err != nil {
		return fmt.Errorf("persist history: %w", err)
	}
	return nil
}
