package models

import (
	"time"
)

// Severity nível de severidade de uma recomendação
type Severity string

const (
	SeverityHealthy  Severity = "healthy"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// IsAlert verifica se a severidade exige atenção
func (s Severity) IsAlert() bool {
	return s == SeverityWarning || s == SeverityCritical
}

// HistoryRange janela de tempo para filtragem do histórico
type HistoryRange string

const (
	RangeDaily   HistoryRange = "daily"
	RangeWeekly  HistoryRange = "weekly"
	RangeMonthly HistoryRange = "monthly"
	RangeAll     HistoryRange = "all"
)

// Window retorna a duração da janela; zero significa sem limite.
// Valores desconhecidos são tratados como RangeAll.
func (r HistoryRange) Window() time.Duration {
	switch r {
	case RangeDaily:
		return 24 * time.Hour
	case RangeWeekly:
		return 7 * 24 * time.Hour
	case RangeMonthly:
		return 30 * 24 * time.Hour
	}
	return 0
}

// SensorReading representa uma leitura completa do nó de solo
type SensorReading struct {
	Moisture          float64    `json:"moisture"`    // %
	PH                float64    `json:"ph"`
	N                 float64    `json:"n"`           // mg/kg
	P                 float64    `json:"p"`           // mg/kg
	K                 float64    `json:"k"`           // mg/kg
	Temperature       float64    `json:"temperature"` // °C
	Humidity          float64    `json:"humidity"`    // %
	PumpOn            bool       `json:"pump_on"`
	LastWatered       *time.Time `json:"last_watered"`
	LastWaterDuration int        `json:"last_water_duration"` // minutos
	Timestamp         time.Time  `json:"timestamp"`
	Crop              Crop       `json:"crop"`
}

// Clone retorna uma cópia independente da leitura
func (sr SensorReading) Clone() SensorReading {
	if sr.LastWatered != nil {
		t := *sr.LastWatered
		sr.LastWatered = &t
	}
	return sr
}

// Recommendation recomendação agronômica para um parâmetro
type Recommendation struct {
	Type     Severity `json:"type"`
	Icon     string   `json:"icon"`
	Category string   `json:"category"`
	Message  string   `json:"message"`
	Param    string   `json:"param"`
}

// Level rótulo de classificação com classe CSS associada
type Level struct {
	Label string `json:"label"`
	Class string `json:"cls"`
}

// Insights classificações auxiliares da leitura atual para o painel
type Insights struct {
	Crop          Crop   `json:"crop"`
	NitrogenLevel Level  `json:"n_level"`
	PhosphorLevel Level  `json:"p_level"`
	PotashLevel   Level  `json:"k_level"`
	PHCategory    Level  `json:"ph_category"`
	MoistureColor string `json:"moisture_color"`
}

// LiveUpdate payload enviado aos clientes a cada leitura ao vivo
type LiveUpdate struct {
	Reading SensorReading    `json:"reading"`
	Alerts  []Recommendation `json:"alerts"`
}

// TrendData série temporal de um parâmetro, otimizada para gráficos
type TrendData struct {
	Param      string    `json:"param"`
	Range      string    `json:"range"`
	Times      []int64   `json:"times"` // timestamps em ms
	Values     []float64 `json:"values"`
	PointCount int       `json:"point_count"`
	TimeSpan   float64   `json:"time_span"` // segundos
	Min        float64   `json:"min"`
	Max        float64   `json:"max"`
	Avg        float64   `json:"avg"`
}

// HistoryDelta leituras novas desde um timestamp
type HistoryDelta struct {
	NewPoints       int             `json:"new_points"`
	Data            []SensorReading `json:"data"`
	LatestTimestamp int64           `json:"latest_timestamp"` // ms
}

// HistoryStats estatísticas do histórico persistido
type HistoryStats struct {
	TotalReadings int     `json:"total_readings"`
	MaxReadings   int     `json:"max_readings"`
	OldestReading *string `json:"oldest_reading"`
	LatestReading *string `json:"latest_reading"`
	PumpOnCount   int     `json:"pump_on_count"`
}

// FeedStatus estado do alimentador ao vivo
type FeedStatus struct {
	Running       bool    `json:"running"`
	IntervalMS    int64   `json:"interval_ms"`
	Ticks         int64   `json:"ticks"`
	Subscribers   int     `json:"subscribers"`
	UptimeSeconds float64 `json:"uptime_seconds,omitempty"`
}

// ChatMessage mensagem de conversa com o assistente
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatSettings configuração persistida do assistente
type ChatSettings struct {
	HasAPIKey bool `json:"has_api_key"`
	DemoMode  bool `json:"demo_mode"`
}

// WebSocketMessage mensagem WebSocket
type WebSocketMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ErrorResponse resposta de erro padronizada
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}
