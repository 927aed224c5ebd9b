package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"soilsense/internal/agrobot"
	"soilsense/internal/data"
	"soilsense/internal/models"

	"github.com/gorilla/mux"
)

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"version":   Version,
		"timestamp": time.Now().Unix(),
		"uptime":    time.Since(s.started).Seconds(),
		"feed":      s.manager.FeedStatus(),
	})
}

func (s *Server) getReading(w http.ResponseWriter, r *http.Request) {
	reading := s.manager.Reading()
	writeJSON(w, http.StatusOK, models.LiveUpdate{
		Reading: reading,
		Alerts:  s.manager.Alerts(reading, ""),
	})
}

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	rng := r.URL.Query().Get("range")
	if rng == "" {
		rng = string(models.RangeAll)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"range":    rng,
		"readings": s.manager.FilteredHistory(rng),
	})
}

func (s *Server) clearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.ClearHistory(); err != nil {
		s.logger.Error().Err(err).Msg("failed to clear history")
		writeError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseSince aceita milissegundos unix ou RFC3339
func parseSince(raw string) (time.Time, error) {
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}
	return time.Parse(time.RFC3339, raw)
}

func (s *Server) getHistorySince(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ts")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "missing ts parameter")
		return
	}
	since, err := parseSince(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("invalid ts %q", raw))
		return
	}
	writeJSON(w, http.StatusOK, s.manager.HistorySince(since))
}

func (s *Server) getHistoryStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.Stats())
}

func (s *Server) getTrend(w http.ResponseWriter, r *http.Request) {
	param := mux.Vars(r)["param"]
	query := r.URL.Query()

	rng := query.Get("range")
	if rng == "" {
		rng = string(models.RangeDaily)
	}

	decimationFactor := 1
	if df := query.Get("decimation"); df != "" {
		if parsed, err := strconv.Atoi(df); err == nil && parsed > 0 {
			decimationFactor = parsed
		}
	}

	maxPoints := data.MaxTrendPoints
	if mp := query.Get("maxPoints"); mp != "" {
		if parsed, err := strconv.Atoi(mp); err == nil && parsed > 0 {
			maxPoints = parsed
		}
	}

	trend, err := s.manager.Trend(param, rng, maxPoints, decimationFactor)
	if errors.Is(err, data.ErrUnknownParam) {
		writeError(w, http.StatusNotFound, "unknown_param", err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "trend_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, trend)
}

func (s *Server) exportData(w http.ResponseWriter, r *http.Request) {
	format := mux.Vars(r)["format"]
	rng := r.URL.Query().Get("range")
	if rng == "" {
		rng = string(models.RangeAll)
	}

	body, contentType, filename, err := s.manager.ExportData(format, rng)
	if errors.Is(err, data.ErrUnsupportedFormat) {
		writeError(w, http.StatusBadRequest, "unsupported_format", err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export_error", err.Error())
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (s *Server) getRecommendations(w http.ResponseWriter, r *http.Request) {
	reading := s.manager.Reading()
	writeJSON(w, http.StatusOK, s.manager.Recommendations(reading, r.URL.Query().Get("crop")))
}

func (s *Server) classifyReading(w http.ResponseWriter, r *http.Request) {
	var reading models.SensorReading
	if err := json.NewDecoder(r.Body).Decode(&reading); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid reading body")
		return
	}

	crop := r.URL.Query().Get("crop")
	if crop == "" {
		crop = string(reading.Crop)
	}
	writeJSON(w, http.StatusOK, s.manager.Recommendations(reading, crop))
}

func (s *Server) getAlerts(w http.ResponseWriter, r *http.Request) {
	reading := s.manager.Reading()
	writeJSON(w, http.StatusOK, s.manager.Alerts(reading, r.URL.Query().Get("crop")))
}

func (s *Server) getInsights(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.Insights())
}

func (s *Server) listCrops(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.AllProfiles())
}

func (s *Server) getCrop(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.ProfileOrDefault(string(s.manager.CurrentCrop())))
}

func (s *Server) setCrop(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Crop string `json:"crop"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid body")
		return
	}

	crop, err := s.manager.SetCurrentCrop(body.Crop)
	if errors.Is(err, models.ErrUnknownCrop) {
		writeError(w, http.StatusBadRequest, "unknown_crop", err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}

	profile, _ := crop.Profile()
	if s.hub != nil {
		s.hub.BroadcastCropChanged(profile)
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) startFeed(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IntervalMS int64 `json:"interval_ms"`
	}
	// corpo vazio usa o intervalo padrão
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid body")
		return
	}
	if body.IntervalMS < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "interval_ms must be positive")
		return
	}

	s.manager.StartLiveData(time.Duration(body.IntervalMS) * time.Millisecond)
	s.respondFeedStatus(w)
}

func (s *Server) stopFeed(w http.ResponseWriter, r *http.Request) {
	s.manager.StopLiveData()
	s.respondFeedStatus(w)
}

func (s *Server) getFeedStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.FeedStatus())
}

func (s *Server) respondFeedStatus(w http.ResponseWriter) {
	status := s.manager.FeedStatus()
	if s.hub != nil {
		s.hub.BroadcastFeedStatus(status)
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) postChat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Message == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "message is required")
		return
	}

	reply, err := s.chat.Ask(r.Context(), body.Message)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, models.ChatMessage{Role: "assistant", Content: reply})
	case errors.Is(err, agrobot.ErrNotConfigured):
		writeError(w, http.StatusConflict, "not_configured", err.Error())
	case errors.Is(err, agrobot.ErrInvalidAPIKey):
		writeError(w, http.StatusUnauthorized, "invalid_api_key", err.Error())
	case errors.Is(err, agrobot.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate_limited", err.Error())
	default:
		writeError(w, http.StatusBadGateway, "chat_error", err.Error())
	}
}

func (s *Server) getChatSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.chat.Settings())
}

func (s *Server) putChatSettings(w http.ResponseWriter, r *http.Request) {
	var body struct {
		APIKey   string `json:"api_key"`
		DemoMode bool   `json:"demo_mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid body")
		return
	}

	var err error
	switch {
	case body.DemoMode:
		err = s.chat.EnableDemo()
	case body.APIKey != "":
		err = s.chat.SetAPIKey(body.APIKey)
	default:
		writeError(w, http.StatusBadRequest, "bad_request", "api_key or demo_mode is required")
		return
	}

	if errors.Is(err, agrobot.ErrInvalidAPIKey) {
		writeError(w, http.StatusBadRequest, "invalid_api_key", err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.chat.Settings())
}

func (s *Server) clearChat(w http.ResponseWriter, r *http.Request) {
	s.chat.Clear()
	writeJSON(w, http.StatusOK, models.ChatMessage{Role: "assistant", Content: s.chat.Greeting()})
}
