package data

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"soilsense/internal/models"
	"soilsense/internal/simulator"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, store Store) *Manager {
	t.Helper()
	m := NewManager(store, zerolog.Nop(),
		simulator.WithRand(rand.New(rand.NewSource(1))),
		simulator.WithClock(func() time.Time { return t0 }),
	).WithClock(func() time.Time { return t0 })
	t.Cleanup(m.StopLiveData)
	return m
}

func TestManagerCropDefaultsAndFallback(t *testing.T) {
	store := NewMemoryStore()
	m := newTestManager(t, store)

	assert.Equal(t, models.CropRice, m.CurrentCrop())

	crop, err := m.SetCurrentCrop("Tomato")
	require.NoError(t, err)
	assert.Equal(t, models.CropTomato, crop)
	assert.Equal(t, models.CropTomato, m.CurrentCrop())

	_, err = m.SetCurrentCrop("banana")
	assert.True(t, errors.Is(err, models.ErrUnknownCrop))
	assert.Equal(t, models.CropTomato, m.CurrentCrop())

	require.NoError(t, store.Set(CropKey, "banana"))
	assert.Equal(t, models.CropRice, m.CurrentCrop())
}

func TestManagerSeedHistoryIsIdempotent(t *testing.T) {
	m := newTestManager(t, NewMemoryStore())

	seeded, err := m.SeedHistory()
	require.NoError(t, err)
	assert.True(t, seeded)
	assert.Len(t, m.History(), simulator.BackfillPoints)

	seeded, err = m.SeedHistory()
	require.NoError(t, err)
	assert.False(t, seeded)
	assert.Len(t, m.History(), simulator.BackfillPoints)
}

func TestManagerSeedHistoryRunsWithSmallHistory(t *testing.T) {
	store := NewMemoryStore()
	m := newTestManager(t, store)

	b := NewBuffer(store, MaxHistory, zerolog.Nop())
	for i := 0; i < SeedThreshold; i++ {
		require.NoError(t, b.Append(models.SensorReading{Timestamp: t0.Add(time.Duration(i-SeedThreshold) * time.Second)}))
	}

	seeded, err := m.SeedHistory()
	require.NoError(t, err)
	assert.True(t, seeded)

	hist := m.History()
	assert.Len(t, hist, SeedThreshold+simulator.BackfillPoints)
	for i := 1; i < len(hist); i++ {
		assert.False(t, hist[i].Timestamp.Before(hist[i-1].Timestamp))
	}

	require.NoError(t, b.Append(models.SensorReading{Timestamp: t0}))
	seeded, err = m.SeedHistory()
	require.NoError(t, err)
	assert.False(t, seeded)
}

func TestManagerLiveDataPersistsAndNotifies(t *testing.T) {
	m := newTestManager(t, NewMemoryStore())
	_, err := m.SetCurrentCrop("cotton")
	require.NoError(t, err)

	var got []models.SensorReading
	m.OnLiveData(func(r models.SensorReading) { got = append(got, r) })

	m.StartLiveData(time.Hour)
	m.StopLiveData()

	require.Len(t, got, 1)
	assert.Equal(t, models.CropCotton, got[0].Crop)
	latest, ok := m.LatestReading()
	require.True(t, ok)
	assert.Equal(t, got[0].Moisture, latest.Moisture)
	assert.False(t, m.FeedStatus().Running)
}

func TestManagerRecommendationsUseCurrentCrop(t *testing.T) {
	m := newTestManager(t, NewMemoryStore())
	_, err := m.SetCurrentCrop("wheat")
	require.NoError(t, err)

	// 50% é ótimo para trigo e baixo para arroz
	r := models.SensorReading{Moisture: 50, PH: 6.8, N: 60, P: 45, K: 50, Temperature: 20}
	assert.Empty(t, m.Alerts(r, ""))
	assert.NotEmpty(t, m.Alerts(r, "rice"))
}

func TestManagerExport(t *testing.T) {
	m := newTestManager(t, NewMemoryStore())
	_, err := m.SeedHistory()
	require.NoError(t, err)

	body, ctype, name, err := m.ExportData("csv", "daily")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", ctype)
	assert.True(t, strings.HasSuffix(name, ".csv"))
	rows, err := csv.NewReader(strings.NewReader(string(body))).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1+len(m.FilteredHistory("daily")))
	assert.Equal(t, "timestamp", rows[0][0])

	body, ctype, _, err = m.ExportData("JSON", "all")
	require.NoError(t, err)
	assert.Equal(t, "application/json", ctype)
	var payload struct {
		Metadata map[string]interface{} `json:"metadata"`
		Readings []models.SensorReading `json:"readings"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Len(t, payload.Readings, simulator.BackfillPoints)

	_, _, _, err = m.ExportData("xml", "all")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestManagerTrendAndStats(t *testing.T) {
	m := newTestManager(t, NewMemoryStore())
	_, err := m.SeedHistory()
	require.NoError(t, err)

	trend, err := m.Trend("moisture", "daily", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 49, trend.PointCount) // 24h / 30min + 1
	assert.LessOrEqual(t, trend.Min, trend.Avg)
	assert.GreaterOrEqual(t, trend.Max, trend.Avg)
	assert.Equal(t, float64(24*3600), trend.TimeSpan)

	_, err = m.Trend("salinity", "all", 0, 1)
	assert.True(t, errors.Is(err, ErrUnknownParam))

	stats := m.Stats()
	assert.Equal(t, simulator.BackfillPoints, stats.TotalReadings)
	assert.Equal(t, MaxHistory, stats.MaxReadings)
	require.NotNil(t, stats.LatestReading)
}

func TestManagerHistorySince(t *testing.T) {
	m := newTestManager(t, NewMemoryStore())
	_, err := m.SeedHistory()
	require.NoError(t, err)

	delta := m.HistorySince(t0.Add(-time.Hour))
	assert.Equal(t, 2, delta.NewPoints)
	assert.Equal(t, t0.UnixMilli(), delta.LatestTimestamp)

	empty := m.HistorySince(t0)
	assert.Zero(t, empty.NewPoints)
	assert.NotNil(t, empty.Data)
}
