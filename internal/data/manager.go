package data

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"soilsense/internal/agronomy"
	"soilsense/internal/models"
	"soilsense/internal/simulator"

	"github.com/rs/zerolog"
)

const (
	// SeedThreshold o preenchimento só roda com até este número de leituras
	SeedThreshold = 40
	// MaxTrendPoints limite padrão de pontos em uma tendência
	MaxTrendPoints = 1000
)

// ErrUnsupportedFormat formato de exportação desconhecido
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Manager gerenciador principal de dados: une gerador, histórico e
// recomendações na superfície pública usada pela API e pelo assistente
type Manager struct {
	store     Store
	buffer    *Buffer
	generator *simulator.Generator
	feed      *simulator.Feed
	logger    zerolog.Logger
	now       func() time.Time
}

// NewManager cria novo gerenciador de dados. As opções são repassadas ao
// gerador; a fonte da cultura atual é sempre o armazenamento.
func NewManager(store Store, logger zerolog.Logger, opts ...simulator.Option) *Manager {
	m := &Manager{
		store:  store,
		buffer: NewBuffer(store, MaxHistory, logger),
		logger: logger.With().Str("component", "manager").Logger(),
		now:    time.Now,
	}

	opts = append(opts, simulator.WithCropSource(m.CurrentCrop))
	m.generator = simulator.NewGenerator(opts...)
	m.feed = simulator.NewFeed(m.generator, m.buffer, logger)

	return m
}

// WithClock define o relógio usado nos filtros de histórico
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// CurrentCrop retorna a cultura selecionada; arroz se ausente ou inválida
func (m *Manager) CurrentCrop() models.Crop {
	raw, ok, err := m.store.Get(CropKey)
	if err != nil {
		m.logger.Warn().Err(err).Msg("crop unavailable, using default")
		return models.DefaultCrop
	}
	if !ok {
		return models.DefaultCrop
	}
	crop, err := models.ParseCrop(raw)
	if err != nil {
		m.logger.Warn().Str("crop", raw).Msg("stored crop is unknown, using default")
		return models.DefaultCrop
	}
	return crop
}

// SetCurrentCrop valida e persiste a cultura selecionada
func (m *Manager) SetCurrentCrop(key string) (models.Crop, error) {
	crop, err := models.ParseCrop(key)
	if err != nil {
		return "", err
	}
	if err := m.store.Set(CropKey, string(crop)); err != nil {
		return "", fmt.Errorf("persist crop: %w", err)
	}
	m.logger.Info().Str("crop", string(crop)).Msg("crop changed")
	return crop, nil
}

// Reading retorna a leitura atual
func (m *Manager) Reading() models.SensorReading {
	return m.generator.Reading()
}

// History retorna todo o histórico em ordem cronológica
func (m *Manager) History() []models.SensorReading {
	return m.buffer.GetAllReadings()
}

// FilteredHistory retorna o histórico na janela daily, weekly, monthly ou all
func (m *Manager) FilteredHistory(rng string) []models.SensorReading {
	return m.buffer.GetFiltered(models.HistoryRange(strings.ToLower(rng)), m.now())
}

// HistorySince retorna as leituras novas desde since
func (m *Manager) HistorySince(since time.Time) *models.HistoryDelta {
	readings := m.buffer.GetReadingsSince(since)
	if readings == nil {
		readings = []models.SensorReading{}
	}

	latest := since.UnixMilli()
	if len(readings) > 0 {
		latest = readings[len(readings)-1].Timestamp.UnixMilli()
	}

	return &models.HistoryDelta{
		NewPoints:       len(readings),
		Data:            readings,
		LatestTimestamp: latest,
	}
}

// LatestReading retorna a última leitura persistida
func (m *Manager) LatestReading() (models.SensorReading, bool) {
	return m.buffer.GetLatestReading()
}

// Recommendations classifica a leitura para a cultura indicada. cropKey
// vazio usa a cultura atual.
func (m *Manager) Recommendations(reading models.SensorReading, cropKey string) []models.Recommendation {
	if cropKey == "" {
		cropKey = string(m.CurrentCrop())
	}
	return agronomy.Recommendations(reading, cropKey)
}

// Alerts retorna apenas as recomendações de atenção ou críticas
func (m *Manager) Alerts(reading models.SensorReading, cropKey string) []models.Recommendation {
	return agronomy.FilterAlerts(m.Recommendations(reading, cropKey))
}

// Insights retorna as classificações auxiliares da leitura atual
func (m *Manager) Insights() models.Insights {
	reading := m.Reading()
	return agronomy.BuildInsights(reading, models.ProfileOrDefault(string(reading.Crop)))
}

// SeedHistory preenche 60h de histórico quando há no máximo SeedThreshold
// leituras. Retorna false quando já existe histórico suficiente.
func (m *Manager) SeedHistory() (bool, error) {
	if m.buffer.Size() > SeedThreshold {
		return false, nil
	}

	points := m.generator.Backfill(m.now(), m.CurrentCrop())
	if err := m.buffer.Merge(points); err != nil {
		return false, fmt.Errorf("seed history: %w", err)
	}

	m.logger.Info().Int("points", len(points)).Msg("history seeded")
	return true, nil
}

// ClearHistory apaga o histórico persistido
func (m *Manager) ClearHistory() error {
	return m.buffer.Clear()
}

// OnLiveData inscreve um callback para cada leitura ao vivo
func (m *Manager) OnLiveData(cb simulator.Callback) {
	m.feed.OnLiveData(cb)
}

// OnStoreError inscreve um callback para falhas ao gravar leituras ao vivo
func (m *Manager) OnStoreError(fn func(error)) {
	m.feed.OnSinkError(fn)
}

// StartLiveData inicia (ou reinicia) a alimentação ao vivo
func (m *Manager) StartLiveData(interval time.Duration) {
	m.feed.Start(interval)
}

// StopLiveData para a alimentação ao vivo
func (m *Manager) StopLiveData() {
	m.feed.Stop()
}

// FeedStatus retorna o estado da alimentação ao vivo
func (m *Manager) FeedStatus() models.FeedStatus {
	return m.feed.Status()
}

// Trend retorna a série de um parâmetro na janela indicada
func (m *Manager) Trend(param, rng string, maxPoints, decimationFactor int) (*models.TrendData, error) {
	if maxPoints <= 0 {
		maxPoints = MaxTrendPoints
	}
	trend, err := BuildTrend(m.FilteredHistory(rng), param, maxPoints, decimationFactor)
	if err != nil {
		return nil, err
	}
	trend.Range = rng
	return trend, nil
}

// Stats retorna estatísticas do histórico
func (m *Manager) Stats() models.HistoryStats {
	readings := m.buffer.GetAllReadings()

	stats := models.HistoryStats{
		TotalReadings: len(readings),
		MaxReadings:   m.buffer.MaxSize(),
	}

	if len(readings) > 0 {
		oldest := readings[0].Timestamp.Format(time.RFC3339)
		latest := readings[len(readings)-1].Timestamp.Format(time.RFC3339)
		stats.OldestReading = &oldest
		stats.LatestReading = &latest
	}
	for _, r := range readings {
		if r.PumpOn {
			stats.PumpOnCount++
		}
	}

	return stats
}

// ExportData exporta o histórico da janela em csv ou json
func (m *Manager) ExportData(format, rng string) ([]byte, string, string, error) {
	readings := m.FilteredHistory(rng)

	switch strings.ToLower(format) {
	case "csv":
		return m.exportCSV(readings)
	case "json":
		return m.exportJSON(readings, rng)
	default:
		return nil, "", "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// Close para a alimentação e fecha o armazenamento
func (m *Manager) Close() error {
	m.feed.Stop()
	return m.store.Close()
}

func (m *Manager) exportCSV(readings []models.SensorReading) ([]byte, string, string, error) {
	var buf strings.Builder
	writer := csv.NewWriter(&buf)

	// Cabeçalho
	writer.Write([]string{
		"timestamp",
		"crop",
		"moisture_percent",
		"ph",
		"nitrogen_mg_kg",
		"phosphorus_mg_kg",
		"potassium_mg_kg",
		"temperature_celsius",
		"humidity_percent",
		"pump_on",
		"last_watered",
		"last_water_duration_min",
	})

	// Dados
	for _, r := range readings {
		lastWatered := ""
		if r.LastWatered != nil {
			lastWatered = r.LastWatered.Format(time.RFC3339)
		}
		writer.Write([]string{
			r.Timestamp.Format(time.RFC3339),
			string(r.Crop),
			fmt.Sprintf("%.2f", r.Moisture),
			fmt.Sprintf("%.2f", r.PH),
			fmt.Sprintf("%.2f", r.N),
			fmt.Sprintf("%.2f", r.P),
			fmt.Sprintf("%.2f", r.K),
			fmt.Sprintf("%.2f", r.Temperature),
			fmt.Sprintf("%.2f", r.Humidity),
			strconv.FormatBool(r.PumpOn),
			lastWatered,
			strconv.Itoa(r.LastWaterDuration),
		})
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", "", err
	}

	filename := fmt.Sprintf("soil_history_%s.csv", m.now().Format("20060102_150405"))
	return []byte(buf.String()), "text/csv", filename, nil
}

func (m *Manager) exportJSON(readings []models.SensorReading, rng string) ([]byte, string, string, error) {
	data := map[string]interface{}{
		"metadata": map[string]interface{}{
			"exported_at":    m.now().Format(time.RFC3339),
			"total_readings": len(readings),
			"range":          rng,
			"crop":           m.CurrentCrop(),
			"system":         "SoilSense",
		},
		"readings": readings,
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, "", "", err
	}

	filename := fmt.Sprintf("soil_history_%s.json", m.now().Format("20060102_150405"))
	return jsonData, "application/json", filename, nil
}
