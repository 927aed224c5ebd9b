package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"soilsense/internal/agrobot"
	"soilsense/internal/data"
	"soilsense/internal/metrics"
	"soilsense/internal/models"
	"soilsense/internal/websocket"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// Version versão do serviço
const Version = "1.0.0"

// Server expõe o gerenciador de dados, o assistente e o hub pela API HTTP
type Server struct {
	manager        *data.Manager
	chat           *agrobot.Session
	hub            *websocket.Hub
	metrics        *metrics.Metrics
	logger         zerolog.Logger
	allowedOrigins []string
	started        time.Time
}

// Option configura dependências opcionais do servidor
type Option func(*Server)

// WithHub habilita /ws e os avisos de troca de cultura e de estado do feed
func WithHub(hub *websocket.Hub) Option {
	return func(s *Server) { s.hub = hub }
}

// WithMetrics habilita /metrics e a instrumentação das rotas
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithAllowedOrigins define as origens aceitas pelo CORS
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.allowedOrigins = origins }
}

// NewServer cria o servidor HTTP
func NewServer(manager *data.Manager, chat *agrobot.Session, logger zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		manager:        manager,
		chat:           chat,
		logger:         logger.With().Str("component", "api").Logger(),
		allowedOrigins: []string{"*"},
		started:        time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router monta as rotas e o encadeamento de middlewares
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	// API routes
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(handlers.CompressHandler)
	if s.metrics != nil {
		api.Use(s.metrics.Middleware)
	}

	// Health check
	api.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)

	// Leituras e histórico
	api.HandleFunc("/reading", s.getReading).Methods(http.MethodGet)
	history := api.PathPrefix("/history").Subrouter()
	history.HandleFunc("", s.getHistory).Methods(http.MethodGet)
	history.HandleFunc("", s.clearHistory).Methods(http.MethodDelete)
	history.HandleFunc("/since", s.getHistorySince).Methods(http.MethodGet)
	history.HandleFunc("/stats", s.getHistoryStats).Methods(http.MethodGet)
	history.HandleFunc("/trend/{param}", s.getTrend).Methods(http.MethodGet)
	history.HandleFunc("/export/{format}", s.exportData).Methods(http.MethodGet)

	// Recomendações
	api.HandleFunc("/recommendations", s.getRecommendations).Methods(http.MethodGet)
	api.HandleFunc("/recommendations", s.classifyReading).Methods(http.MethodPost)
	api.HandleFunc("/alerts", s.getAlerts).Methods(http.MethodGet)
	api.HandleFunc("/insights", s.getInsights).Methods(http.MethodGet)

	// Culturas
	api.HandleFunc("/crops", s.listCrops).Methods(http.MethodGet)
	api.HandleFunc("/crop", s.getCrop).Methods(http.MethodGet)
	api.HandleFunc("/crop", s.setCrop).Methods(http.MethodPut)

	// Controle da alimentação ao vivo
	feed := api.PathPrefix("/feed").Subrouter()
	feed.HandleFunc("/start", s.startFeed).Methods(http.MethodPost)
	feed.HandleFunc("/stop", s.stopFeed).Methods(http.MethodPost)
	feed.HandleFunc("/status", s.getFeedStatus).Methods(http.MethodGet)

	// AgroBot
	if s.chat != nil {
		chat := api.PathPrefix("/chat").Subrouter()
		chat.HandleFunc("", s.postChat).Methods(http.MethodPost)
		chat.HandleFunc("/settings", s.getChatSettings).Methods(http.MethodGet)
		chat.HandleFunc("/settings", s.putChatSettings).Methods(http.MethodPut)
		chat.HandleFunc("/history", s.clearChat).Methods(http.MethodDelete)
	}

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	// WebSocket endpoint
	if s.hub != nil {
		r.HandleFunc("/ws", s.hub.HandleWebSocket)
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	})

	c := cors.New(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"*"},
	})

	var h http.Handler = c.Handler(r)
	h = handlers.CustomLoggingHandler(io.Discard, h, s.accessLog)
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{s.logger}),
		handlers.PrintRecoveryStack(true),
	)(h)
	return h
}

func (s *Server) accessLog(_ io.Writer, p handlers.LogFormatterParams) {
	s.logger.Info().
		Str("method", p.Request.Method).
		Str("path", p.URL.Path).
		Int("status", p.StatusCode).
		Int("size", p.Size).
		Dur("elapsed", time.Since(p.TimeStamp)).
		Msg("request")
}

type recoveryLogger struct {
	logger zerolog.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.logger.Error().Interface("panic", v).Msg("recovered from panic")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, models.ErrorResponse{
		Error:   code,
		Code:    status,
		Message: message,
	})
}
