package agronomy

import (
	"testing"

	"soilsense/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rice(t *testing.T) models.CropProfile {
	t.Helper()
	p, err := models.CropRice.Profile()
	require.NoError(t, err)
	return p
}

func severities(recs []models.Recommendation) map[string]models.Severity {
	out := make(map[string]models.Severity, len(recs))
	for _, r := range recs {
		out[r.Param] = r.Type
	}
	return out
}

func TestClassifyCriticalIrrigation(t *testing.T) {
	r := models.SensorReading{Moisture: 40, PH: 6.5, N: 60, P: 45, K: 50, Temperature: 25}
	recs := Classify(r, rice(t))

	require.Len(t, recs, 6)
	assert.Equal(t, "Irrigation", recs[0].Category)
	assert.Equal(t, models.SeverityCritical, recs[0].Type)
	for _, other := range recs[1:] {
		assert.Equal(t, models.SeverityHealthy, other.Type, other.Param)
	}
}

func TestClassifyCriticalTemperatureSuppressesOverall(t *testing.T) {
	r := models.SensorReading{Moisture: 75, PH: 6.5, N: 60, P: 45, K: 50, Temperature: 45}
	recs := Classify(r, rice(t))

	require.Len(t, recs, 6)
	assert.NotEqual(t, "Overall", recs[0].Param)
	last := recs[len(recs)-1]
	assert.Equal(t, "Temperature", last.Param)
	assert.Equal(t, models.SeverityCritical, last.Type)
	assert.Contains(t, last.Message, "45.0°C")
}

func TestClassifyAllHealthy(t *testing.T) {
	r := models.SensorReading{Moisture: 75, PH: 6.2, N: 60, P: 45, K: 55, Temperature: 29, Humidity: 77}
	recs := Classify(r, rice(t))

	require.Len(t, recs, 7)
	assert.Equal(t, "Overall", recs[0].Param)
	assert.Contains(t, recs[0].Message, "Rice")
	for _, rec := range recs {
		assert.Equal(t, models.SeverityHealthy, rec.Type, rec.Param)
	}
	wantOrder := []string{"Overall", "Moisture", "pH", "N", "P", "K", "Temperature"}
	for i, rec := range recs {
		assert.Equal(t, wantOrder[i], rec.Param)
	}
}

func TestClassifyLadders(t *testing.T) {
	p := rice(t)
	base := models.SensorReading{Moisture: 75, PH: 6.2, N: 60, P: 45, K: 55, Temperature: 29}

	tests := []struct {
		name  string
		mut   func(*models.SensorReading)
		param string
		want  models.Severity
	}{
		{"moisture at critical edge is warning", func(r *models.SensorReading) { r.Moisture = 55 }, "Moisture", models.SeverityWarning},
		{"moisture below critical edge", func(r *models.SensorReading) { r.Moisture = 54.99 }, "Moisture", models.SeverityCritical},
		{"moisture waterlogged", func(r *models.SensorReading) { r.Moisture = 86 }, "Moisture", models.SeverityWarning},
		{"moisture at max", func(r *models.SensorReading) { r.Moisture = 85 }, "Moisture", models.SeverityHealthy},
		{"ph very acidic", func(r *models.SensorReading) { r.PH = 4.9 }, "pH", models.SeverityCritical},
		{"ph mildly acidic", func(r *models.SensorReading) { r.PH = 5.2 }, "pH", models.SeverityWarning},
		{"ph very alkaline", func(r *models.SensorReading) { r.PH = 7.6 }, "pH", models.SeverityCritical},
		{"ph mildly alkaline", func(r *models.SensorReading) { r.PH = 7.3 }, "pH", models.SeverityWarning},
		{"nitrogen critical", func(r *models.SensorReading) { r.N = 29 }, "N", models.SeverityCritical},
		{"nitrogen low", func(r *models.SensorReading) { r.N = 40 }, "N", models.SeverityWarning},
		{"nitrogen excess", func(r *models.SensorReading) { r.N = 81 }, "N", models.SeverityWarning},
		{"phosphorus critical", func(r *models.SensorReading) { r.P = 14 }, "P", models.SeverityCritical},
		{"phosphorus low", func(r *models.SensorReading) { r.P = 20 }, "P", models.SeverityWarning},
		{"phosphorus high has no warning", func(r *models.SensorReading) { r.P = 99 }, "P", models.SeverityHealthy},
		{"potassium critical", func(r *models.SensorReading) { r.K = 24 }, "K", models.SeverityCritical},
		{"potassium low", func(r *models.SensorReading) { r.K = 39 }, "K", models.SeverityWarning},
		{"potassium high has no warning", func(r *models.SensorReading) { r.K = 99 }, "K", models.SeverityHealthy},
		{"temperature just above max", func(r *models.SensorReading) { r.Temperature = 40 }, "Temperature", models.SeverityHealthy},
		{"temperature far above max", func(r *models.SensorReading) { r.Temperature = 41.5 }, "Temperature", models.SeverityCritical},
		{"temperature far below min", func(r *models.SensorReading) { r.Temperature = 16 }, "Temperature", models.SeverityCritical},
		{"temperature just below min", func(r *models.SensorReading) { r.Temperature = 18 }, "Temperature", models.SeverityHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base
			tt.mut(&r)
			got := severities(Classify(r, p))
			assert.Equal(t, tt.want, got[tt.param])
		})
	}
}

func TestClassifyDeterministic(t *testing.T) {
	r := models.SensorReading{Moisture: 33.3, PH: 8.1, N: 12, P: 70, K: 41, Temperature: 11}
	p := rice(t)
	first := Classify(r, p)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(r, p))
	}
}

func TestAlertsFiltersHealthy(t *testing.T) {
	r := models.SensorReading{Moisture: 40, PH: 6.5, N: 60, P: 45, K: 50, Temperature: 45}
	alerts := Alerts(r, "rice")
	require.Len(t, alerts, 2)
	assert.Equal(t, "Moisture", alerts[0].Param)
	assert.Equal(t, "Temperature", alerts[1].Param)

	healthy := models.SensorReading{Moisture: 75, PH: 6.2, N: 60, P: 45, K: 55, Temperature: 29}
	assert.Empty(t, Alerts(healthy, "rice"))
}

func TestRecommendationsUnknownCropUsesRice(t *testing.T) {
	r := models.SensorReading{Moisture: 75, PH: 6.2, N: 60, P: 45, K: 55, Temperature: 29}
	assert.Equal(t, Classify(r, rice(t)), Recommendations(r, "banana"))
}
