// Package agronomy transforma leituras de solo em recomendações agronômicas.
package agronomy

import (
	"fmt"

	"soilsense/internal/models"
)

const (
	moistureCriticalMargin = 10.0
	phCriticalMargin       = 0.5
	nutrientCriticalMargin = 15.0
	temperatureMargin      = 3.0
)

// Classify avalia a leitura contra o perfil da cultura.
// A ordem é fixa: resumo geral (quando tudo está saudável), irrigação, pH,
// nitrogênio, fósforo, potássio e temperatura.
func Classify(reading models.SensorReading, profile models.CropProfile) []models.Recommendation {
	recs := []models.Recommendation{
		checkMoisture(reading.Moisture, profile),
		checkPH(reading.PH, profile),
		checkNitrogen(reading.N, profile),
		checkPhosphorus(reading.P, profile),
		checkPotassium(reading.K, profile),
		checkTemperature(reading.Temperature, profile),
	}

	if len(FilterAlerts(recs)) == 0 {
		overall := models.Recommendation{
			Type:     models.SeverityHealthy,
			Icon:     "🌟",
			Category: "Overall",
			Message:  fmt.Sprintf("All soil conditions are healthy for %s. Your farm is in great shape!", profile.Name),
			Param:    "Overall",
		}
		recs = append([]models.Recommendation{overall}, recs...)
	}

	return recs
}

// Recommendations classifica a leitura para a cultura indicada; culturas
// desconhecidas usam o perfil de arroz
func Recommendations(reading models.SensorReading, cropKey string) []models.Recommendation {
	return Classify(reading, models.ProfileOrDefault(cropKey))
}

// Alerts retorna apenas as recomendações de atenção ou críticas
func Alerts(reading models.SensorReading, cropKey string) []models.Recommendation {
	return FilterAlerts(Recommendations(reading, cropKey))
}

// FilterAlerts mantém a subsequência com severidade warning ou critical
func FilterAlerts(recs []models.Recommendation) []models.Recommendation {
	alerts := make([]models.Recommendation, 0, len(recs))
	for _, r := range recs {
		if r.Type.IsAlert() {
			alerts = append(alerts, r)
		}
	}
	return alerts
}

func rec(sev models.Severity, icon, category, param, format string, args ...interface{}) models.Recommendation {
	return models.Recommendation{
		Type:     sev,
		Icon:     icon,
		Category: category,
		Message:  fmt.Sprintf(format, args...),
		Param:    param,
	}
}

func checkMoisture(v float64, p models.CropProfile) models.Recommendation {
	const cat, param = "Irrigation", "Moisture"
	switch {
	case v < p.Moisture.Min-moistureCriticalMargin:
		return rec(models.SeverityCritical, "💧", cat, param, "Soil moisture is critically low – Immediately irrigate the field.")
	case v < p.Moisture.Min:
		return rec(models.SeverityWarning, "🚿", cat, param, "Soil moisture is low (%.0f%%) – Watering is recommended.", v)
	case v > p.Moisture.Max:
		return rec(models.SeverityWarning, "⚠️", cat, param, "Soil is waterlogged (%.0f%%) – Stop irrigation and ensure drainage.", v)
	}
	return rec(models.SeverityHealthy, "✅", cat, param, "Soil moisture is optimal (%.0f%%) – No irrigation needed.", v)
}

func checkPH(v float64, p models.CropProfile) models.Recommendation {
	const cat, param = "Soil pH", "pH"
	switch {
	case v < p.PH.Min-phCriticalMargin:
		return rec(models.SeverityCritical, "🧪", cat, param, "Soil is too acidic (pH %.1f) – Apply agricultural lime to raise pH.", v)
	case v < p.PH.Min:
		return rec(models.SeverityWarning, "🍋", cat, param, "Soil is mildly acidic (pH %.1f) – Consider adding lime.", v)
	case v > p.PH.Max+phCriticalMargin:
		return rec(models.SeverityCritical, "🧪", cat, param, "Soil is too alkaline (pH %.1f) – Apply sulfur or acidic fertilizer.", v)
	case v > p.PH.Max:
		return rec(models.SeverityWarning, "⚗️", cat, param, "Soil is mildly alkaline (pH %.1f) – Monitor closely.", v)
	}
	return rec(models.SeverityHealthy, "✅", cat, param, "Soil pH is ideal (%.1f) for %s.", v, p.Name)
}

func checkNitrogen(v float64, p models.CropProfile) models.Recommendation {
	const cat, param = "Nitrogen (N)", "N"
	switch {
	case v < p.N.Min-nutrientCriticalMargin:
		return rec(models.SeverityCritical, "🌿", cat, param, "Nitrogen level is critically low – Apply urea or ammonium nitrate immediately.")
	case v < p.N.Min:
		return rec(models.SeverityWarning, "🌱", cat, param, "Nitrogen level is low – Apply nitrogen-rich fertilizer (Urea/DAP).")
	case v > p.N.Max:
		return rec(models.SeverityWarning, "⚠️", cat, param, "Excess nitrogen detected – Reduce fertilizer application to avoid burn.")
	}
	return rec(models.SeverityHealthy, "✅", cat, param, "Nitrogen level is adequate – No action required.")
}

// Fósforo e potássio não têm faixa de excesso
func checkPhosphorus(v float64, p models.CropProfile) models.Recommendation {
	const cat, param = "Phosphorus (P)", "P"
	switch {
	case v < p.P.Min-nutrientCriticalMargin:
		return rec(models.SeverityCritical, "🌻", cat, param, "Phosphorus is critically low – Apply superphosphate fertilizer.")
	case v < p.P.Min:
		return rec(models.SeverityWarning, "🌼", cat, param, "Phosphorus level is low – Apply DAP or bone meal.")
	}
	return rec(models.SeverityHealthy, "✅", cat, param, "Phosphorus level is good – No supplementation needed.")
}

func checkPotassium(v float64, p models.CropProfile) models.Recommendation {
	const cat, param = "Potassium (K)", "K"
	switch {
	case v < p.K.Min-nutrientCriticalMargin:
		return rec(models.SeverityCritical, "🍃", cat, param, "Potassium is critically low – Apply MOP (Muriate of Potash) immediately.")
	case v < p.K.Min:
		return rec(models.SeverityWarning, "🌾", cat, param, "Potassium level is low – Apply potash fertilizer.")
	}
	return rec(models.SeverityHealthy, "✅", cat, param, "Potassium level is healthy – No action needed.")
}

// Temperatura só tem os níveis crítico e saudável
func checkTemperature(v float64, p models.CropProfile) models.Recommendation {
	const cat, param = "Temperature", "Temperature"
	switch {
	case v > p.Temperature.Max+temperatureMargin:
		return rec(models.SeverityCritical, "🌡️", cat, param, "Temperature is dangerously high (%.1f°C) – Protect crops with shade nets.", v)
	case v < p.Temperature.Min-temperatureMargin:
		return rec(models.SeverityCritical, "❄️", cat, param, "Temperature is too low (%.1f°C) – Risk of frost damage.", v)
	}
	return rec(models.SeverityHealthy, "✅", cat, param, "Temperature is suitable (%.1f°C) for %s.", v, p.Name)
}
