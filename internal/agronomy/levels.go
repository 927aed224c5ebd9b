package agronomy

import "soilsense/internal/models"

// Cores usadas pelo painel
const (
	ColorRed   = "red"
	ColorAmber = "amber"
	ColorGreen = "green"
)

// NPKLevel classifica um nutriente em Low (<30), Medium (<65) ou High
func NPKLevel(value float64) models.Level {
	switch {
	case value < 30:
		return models.Level{Label: "Low", Class: "badge-red"}
	case value < 65:
		return models.Level{Label: "Medium", Class: "badge-amber"}
	}
	return models.Level{Label: "High", Class: "badge-green"}
}

// PHCategory classifica o pH nos pontos de corte 5.5/6.5/7.5/8.5
func PHCategory(ph float64) models.Level {
	switch {
	case ph < 5.5:
		return models.Level{Label: "Strongly Acidic", Class: "text-red"}
	case ph < 6.5:
		return models.Level{Label: "Acidic", Class: "text-amber"}
	case ph < 7.5:
		return models.Level{Label: "Neutral", Class: "text-green"}
	case ph < 8.5:
		return models.Level{Label: "Alkaline", Class: "text-amber"}
	}
	return models.Level{Label: "Strongly Alkaline", Class: "text-red"}
}

// MoistureColor retorna vermelho além de ±10 da faixa, âmbar fora da faixa
// e verde dentro dela
func MoistureColor(value float64, profile models.CropProfile) string {
	m := profile.Moisture
	if value < m.Min-moistureCriticalMargin || value > m.Max+moistureCriticalMargin {
		return ColorRed
	}
	if value < m.Min || value > m.Max {
		return ColorAmber
	}
	return ColorGreen
}

// BuildInsights agrega as classificações auxiliares de uma leitura
func BuildInsights(reading models.SensorReading, profile models.CropProfile) models.Insights {
	return models.Insights{
		Crop:          profile.ID,
		NitrogenLevel: NPKLevel(reading.N),
		PhosphorLevel: NPKLevel(reading.P),
		PotashLevel:   NPKLevel(reading.K),
		PHCategory:    PHCategory(reading.PH),
		MoistureColor: MoistureColor(reading.Moisture, profile),
	}
}
