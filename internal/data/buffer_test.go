package data

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"soilsense/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

func reading(i int) models.SensorReading {
	return models.SensorReading{
		Moisture:  float64(i % 100),
		PH:        6.5,
		Timestamp: t0.Add(time.Duration(i) * time.Minute),
		Crop:      models.CropRice,
	}
}

type failingStore struct{ *MemoryStore }

func (failingStore) Get(string) (string, bool, error) { return "", false, errors.New("boom") }

// flakyStore falha as próximas failures leituras
type flakyStore struct {
	*MemoryStore
	failures int
}

func (f *flakyStore) Get(key string) (string, bool, error) {
	if f.failures > 0 {
		f.failures--
		return "", false, errors.New("database is locked")
	}
	return f.MemoryStore.Get(key)
}

func TestBufferBoundedFIFO(t *testing.T) {
	b := NewBuffer(NewMemoryStore(), MaxHistory, zerolog.Nop())

	for i := 0; i < 450; i++ {
		require.NoError(t, b.Append(reading(i)))
		assert.LessOrEqual(t, b.Size(), MaxHistory)
	}

	all := b.GetAllReadings()
	require.Len(t, all, MaxHistory)
	for i, r := range all {
		assert.Equal(t, reading(250+i).Timestamp, r.Timestamp)
	}
}

func TestBufferPersistsAcrossInstances(t *testing.T) {
	store := NewMemoryStore()
	b := NewBuffer(store, MaxHistory, zerolog.Nop())
	require.NoError(t, b.Append(reading(1)))
	require.NoError(t, b.Append(reading(2)))

	reopened := NewBuffer(store, MaxHistory, zerolog.Nop())
	latest, ok := reopened.GetLatestReading()
	require.True(t, ok)
	assert.Equal(t, reading(2).Timestamp, latest.Timestamp)
	assert.Equal(t, 2, reopened.Size())
}

func TestBufferCorruptOrMissingIsEmpty(t *testing.T) {
	store := NewMemoryStore()
	b := NewBuffer(store, MaxHistory, zerolog.Nop())

	assert.Empty(t, b.GetAllReadings())
	_, ok := b.GetLatestReading()
	assert.False(t, ok)

	for _, raw := range []string{"{not json", `{"a":1}`, "null", ""} {
		require.NoError(t, store.Set(HistoryKey, raw))
		assert.Empty(t, b.GetAllReadings(), raw)
		assert.NotNil(t, b.GetAllReadings(), raw)
	}

	// corrompido: o próximo append recomeça do zero
	require.NoError(t, store.Set(HistoryKey, "[[["))
	require.NoError(t, b.Append(reading(5)))
	assert.Equal(t, 1, b.Size())

	broken := NewBuffer(failingStore{NewMemoryStore()}, MaxHistory, zerolog.Nop())
	assert.Empty(t, broken.GetAllReadings())
}

func TestBufferFilteredWindows(t *testing.T) {
	b := NewBuffer(NewMemoryStore(), MaxHistory, zerolog.Nop())
	now := t0
	ages := []time.Duration{
		40 * 24 * time.Hour,
		30 * 24 * time.Hour, // limite mensal inclusivo
		10 * 24 * time.Hour,
		7 * 24 * time.Hour, // limite semanal inclusivo
		2 * 24 * time.Hour,
		24 * time.Hour, // limite diário inclusivo
		time.Hour,
		0,
	}
	for _, age := range ages {
		require.NoError(t, b.Append(models.SensorReading{Timestamp: now.Add(-age)}))
	}

	assert.Len(t, b.GetFiltered(models.RangeDaily, now), 3)
	assert.Len(t, b.GetFiltered(models.RangeWeekly, now), 5)
	assert.Len(t, b.GetFiltered(models.RangeMonthly, now), 7)
	assert.Len(t, b.GetFiltered(models.RangeAll, now), 8)
	assert.Len(t, b.GetFiltered("bogus", now), 8)
}

func isSubsequence(sub, full []models.SensorReading) bool {
	j := 0
	for _, r := range full {
		if j < len(sub) && sub[j].Timestamp.Equal(r.Timestamp) && sub[j].Moisture == r.Moisture {
			j++
		}
	}
	return j == len(sub)
}

func TestBufferFilteredNesting(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	for trial := 0; trial < 20; trial++ {
		b := NewBuffer(NewMemoryStore(), MaxHistory, zerolog.Nop())
		ts := t0
		for i := 0; i < 150; i++ {
			ts = ts.Add(time.Duration(rng.Intn(12*60)) * time.Minute)
			require.NoError(t, b.Append(models.SensorReading{Moisture: float64(i), Timestamp: ts}))
		}
		now := ts.Add(time.Duration(rng.Intn(40*24)) * time.Hour)

		daily := b.GetFiltered(models.RangeDaily, now)
		weekly := b.GetFiltered(models.RangeWeekly, now)
		monthly := b.GetFiltered(models.RangeMonthly, now)
		all := b.GetFiltered(models.RangeAll, now)

		assert.True(t, isSubsequence(daily, weekly))
		assert.True(t, isSubsequence(weekly, monthly))
		assert.True(t, isSubsequence(monthly, all))
	}
}

func TestBufferMergeKeepsChronologicalOrder(t *testing.T) {
	b := NewBuffer(NewMemoryStore(), MaxHistory, zerolog.Nop())
	require.NoError(t, b.Append(reading(100)))
	require.NoError(t, b.Merge([]models.SensorReading{reading(5), reading(200), reading(50)}))

	all := b.GetAllReadings()
	require.Len(t, all, 4)
	for i := 1; i < len(all); i++ {
		assert.True(t, all[i-1].Timestamp.Before(all[i].Timestamp))
	}
}

func TestBufferSinceAndClear(t *testing.T) {
	b := NewBuffer(NewMemoryStore(), MaxHistory, zerolog.Nop())
	for i := 0; i < 5; i++ {
		require.NoError(t, b.Append(reading(i)))
	}

	since := b.GetReadingsSince(reading(2).Timestamp)
	require.Len(t, since, 2)
	assert.Equal(t, reading(3).Timestamp, since[0].Timestamp)

	require.NoError(t, b.Clear())
	assert.Zero(t, b.Size())
}

func TestBufferReadFailureDoesNotOverwriteHistory(t *testing.T) {
	store := &flakyStore{MemoryStore: NewMemoryStore()}
	b := NewBuffer(store, MaxHistory, zerolog.Nop())
	for i := 0; i < 150; i++ {
		require.NoError(t, b.Append(reading(i)))
	}

	store.failures = 1
	err := b.Append(reading(150))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
	assert.Equal(t, 150, b.Size())

	store.failures = 1
	require.Error(t, b.Merge([]models.SensorReading{reading(-1)}))
	assert.Equal(t, 150, b.Size())

	require.NoError(t, b.Append(reading(150)))
	all := b.GetAllReadings()
	require.Len(t, all, 151)
	assert.Equal(t, reading(0).Timestamp, all[0].Timestamp)
	assert.Equal(t, reading(150).Timestamp, all[150].Timestamp)
}
