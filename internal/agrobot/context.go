package agrobot

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"soilsense/internal/data"
	"soilsense/internal/models"
)

// Missing valor exibido para campos ausentes na leitura
const Missing = "—"

// snapshot última leitura vista pelo assistente. Campos numéricos são
// opcionais: um histórico gravado por outra versão pode não tê-los.
type snapshot struct {
	Moisture    *float64 `json:"moisture"`
	PH          *float64 `json:"ph"`
	N           *float64 `json:"n"`
	P           *float64 `json:"p"`
	K           *float64 `json:"k"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	PumpOn      bool     `json:"pump_on"`
}

func snapshotOf(r models.SensorReading) snapshot {
	return snapshot{
		Moisture:    &r.Moisture,
		PH:          &r.PH,
		N:           &r.N,
		P:           &r.P,
		K:           &r.K,
		Temperature: &r.Temperature,
		Humidity:    &r.Humidity,
		PumpOn:      r.PumpOn,
	}
}

func format(v *float64, verb string) string {
	if v == nil {
		return Missing
	}
	return fmt.Sprintf(verb, *v)
}

func displayCrop(crop string) string {
	crop = strings.TrimSpace(crop)
	if crop == "" {
		crop = string(models.DefaultCrop)
	}
	r, size := utf8.DecodeRuneInString(crop)
	return string(unicode.ToUpper(r)) + crop[size:]
}

func render(s *snapshot, crop string) string {
	if s == nil {
		if crop == "" {
			crop = string(models.DefaultCrop)
		}
		return fmt.Sprintf("The farmer is using the SoilSense system, currently monitoring %s crop.", crop)
	}

	pump := "OFF"
	if s.PumpOn {
		pump = "ON (irrigating)"
	}

	var b strings.Builder
	b.WriteString("The farmer's current LIVE SENSOR READINGS from their ESP32 soil monitoring system are:\n")
	fmt.Fprintf(&b, "- Crop: %s\n", displayCrop(crop))
	fmt.Fprintf(&b, "- Soil Moisture: %s%%\n", format(s.Moisture, "%.1f"))
	fmt.Fprintf(&b, "- pH Level: %s\n", format(s.PH, "%.2f"))
	fmt.Fprintf(&b, "- Nitrogen (N): %s mg/kg\n", format(s.N, "%.1f"))
	fmt.Fprintf(&b, "- Phosphorus (P): %s mg/kg\n", format(s.P, "%.1f"))
	fmt.Fprintf(&b, "- Potassium (K): %s mg/kg\n", format(s.K, "%.1f"))
	fmt.Fprintf(&b, "- Temperature: %s°C\n", format(s.Temperature, "%.1f"))
	fmt.Fprintf(&b, "- Humidity: %s%%\n", format(s.Humidity, "%.1f"))
	fmt.Fprintf(&b, "- Water pump status: %s\n", pump)
	b.WriteString("Use this real data in your answers when relevant.")
	return b.String()
}

// BuildSensorContext resume a leitura mais recente para o prompt do
// assistente. latest nil gera a frase genérica com a cultura.
func BuildSensorContext(latest *models.SensorReading, crop string) string {
	if latest == nil {
		return render(nil, crop)
	}
	s := snapshotOf(*latest)
	return render(&s, crop)
}

// ContextFromStore monta o contexto direto do armazenamento: a última
// entrada do histórico e a cultura gravada, sem validá-la.
func ContextFromStore(store data.Store) string {
	crop, ok, err := store.Get(data.CropKey)
	if err != nil || !ok || crop == "" {
		crop = string(models.DefaultCrop)
	}

	raw, ok, err := store.Get(data.HistoryKey)
	if err != nil {
		return "The farmer is using the SoilSense soil monitoring system."
	}
	if !ok || raw == "" {
		return render(nil, crop)
	}

	var history []snapshot
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		return "The farmer is using the SoilSense soil monitoring system."
	}
	if len(history) == 0 {
		return render(nil, crop)
	}
	return render(&history[len(history)-1], crop)
}

// SystemPrompt persona do AgroBot com o contexto atual dos sensores
func SystemPrompt(sensorContext string) string {
	return `You are AgroBot, a friendly and knowledgeable agricultural expert assistant integrated into the SoilSense smart soil monitoring system. You have extensive expertise in:

- Botany, crop science, and agronomy
- Soil health: pH, NPK nutrients, moisture, and microbiology
- Pest management and integrated pest control (IPM)
- Crop diseases: fungal, bacterial, and viral
- Irrigation and water management
- Seasonal planting calendars (especially for Indian agriculture)
- Fertilizer management: organic and chemical
- Specific crops: Rice, Wheat, Tomato, Cotton, Maize, Soybean, and many more

PERSONALITY:
- Friendly, encouraging, and patient, like a trusted village agronomist
- Use simple, clear language. Avoid unnecessary jargon
- Give practical, actionable advice farmers can apply immediately
- Use emojis sparingly to make responses more engaging
- Format responses with **bold** for key terms and bullet points for lists

IMPORTANT RULES:
- Always give ACCURATE information based on established agricultural science
- When sensor data is available, reference it in your response (e.g., "Your current pH is 6.2, which is...")
- Keep responses concise but complete; avoid very long walls of text
- If you don't know something, say so and suggest consulting a local agronomist
- Focus on practical, low-cost solutions accessible to small farmers

CURRENT CONTEXT:
` + sensorContext
}
