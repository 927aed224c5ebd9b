package data

import (
	"errors"
	"fmt"
	"strings"

	"soilsense/internal/models"
)

// ErrUnknownParam parâmetro de tendência inexistente
var ErrUnknownParam = errors.New("unknown parameter")

// TrendParams parâmetros com série temporal disponível
var TrendParams = []string{"moisture", "ph", "n", "p", "k", "temperature", "humidity"}

func paramValue(r models.SensorReading, param string) (float64, bool) {
	switch param {
	case "moisture":
		return r.Moisture, true
	case "ph":
		return r.PH, true
	case "n":
		return r.N, true
	case "p":
		return r.P, true
	case "k":
		return r.K, true
	case "temperature":
		return r.Temperature, true
	case "humidity":
		return r.Humidity, true
	}
	return 0, false
}

// BuildTrend extrai a série de um parâmetro para plotagem, aplicando
// decimação e limitando aos maxPoints mais recentes
func BuildTrend(readings []models.SensorReading, param string, maxPoints, decimationFactor int) (*models.TrendData, error) {
	param = strings.ToLower(param)
	if _, ok := paramValue(models.SensorReading{}, param); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownParam, param)
	}

	// Aplica decimação se necessário
	if decimationFactor > 1 {
		decimated := make([]models.SensorReading, 0, len(readings)/decimationFactor+1)
		for i := 0; i < len(readings); i += decimationFactor {
			decimated = append(decimated, readings[i])
		}
		readings = decimated
	}

	// Limita número de pontos
	if maxPoints > 0 && len(readings) > maxPoints {
		readings = readings[len(readings)-maxPoints:]
	}

	trend := &models.TrendData{
		Param:  param,
		Times:  make([]int64, len(readings)),
		Values: make([]float64, len(readings)),
	}
	if len(readings) == 0 {
		return trend, nil
	}

	sum := 0.0
	for i, r := range readings {
		v, _ := paramValue(r, param)
		trend.Times[i] = r.Timestamp.UnixMilli()
		trend.Values[i] = v
		sum += v
		if i == 0 || v < trend.Min {
			trend.Min = v
		}
		if i == 0 || v > trend.Max {
			trend.Max = v
		}
	}

	trend.PointCount = len(readings)
	trend.Avg = sum / float64(len(readings))
	if len(readings) > 1 {
		trend.TimeSpan = float64(trend.Times[len(readings)-1]-trend.Times[0]) / 1000.0
	}

	return trend, nil
}
