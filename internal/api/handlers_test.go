package api

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"soilsense/internal/agrobot"
	"soilsense/internal/data"
	"soilsense/internal/metrics"
	"soilsense/internal/models"
	"soilsense/internal/simulator"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (http.Handler, *data.Manager) {
	t.Helper()
	store := data.NewMemoryStore()
	manager := data.NewManager(store, zerolog.Nop(),
		simulator.WithRand(rand.New(rand.NewSource(7))))
	t.Cleanup(manager.StopLiveData)

	client := agrobot.NewClient(agrobot.DefaultClientConfig(), zerolog.Nop())
	chat := agrobot.NewSession(store, client, "", zerolog.Nop())

	srv := NewServer(manager, chat, zerolog.Nop(), WithMetrics(metrics.New()))
	return srv.Router(), manager
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHealthAndNotFound(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)

	rec = do(t, h, http.MethodGet, "/api/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var e models.ErrorResponse
	decode(t, rec, &e)
	assert.Equal(t, "not_found", e.Error)
}

func TestCropEndpoints(t *testing.T) {
	h, manager := newTestRouter(t)

	var profiles []models.CropProfile
	decode(t, do(t, h, http.MethodGet, "/api/v1/crops", ""), &profiles)
	assert.Len(t, profiles, len(models.Crops))

	var current models.CropProfile
	decode(t, do(t, h, http.MethodGet, "/api/v1/crop", ""), &current)
	assert.Equal(t, models.CropRice, current.ID)

	rec := do(t, h, http.MethodPut, "/api/v1/crop", `{"crop":"Soybean"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.CropSoybean, manager.CurrentCrop())

	rec = do(t, h, http.MethodPut, "/api/v1/crop", `{"crop":"banana"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, models.CropSoybean, manager.CurrentCrop())
}

func TestClassifySuppliedReading(t *testing.T) {
	h, _ := newTestRouter(t)

	body := `{"moisture":50,"ph":6.8,"n":60,"p":45,"k":50,"temperature":20,"humidity":50}`
	var recs []models.Recommendation
	decode(t, do(t, h, http.MethodPost, "/api/v1/recommendations?crop=wheat", body), &recs)
	require.NotEmpty(t, recs)
	assert.Equal(t, "Overall", recs[0].Category)
	assert.Equal(t, models.SeverityHealthy, recs[0].Type)

	decode(t, do(t, h, http.MethodPost, "/api/v1/recommendations?crop=rice", body), &recs)
	assert.NotEqual(t, "Overall", recs[0].Category)

	rec := do(t, h, http.MethodPost, "/api/v1/recommendations", "{bad")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryEndpoints(t *testing.T) {
	h, manager := newTestRouter(t)
	_, err := manager.SeedHistory()
	require.NoError(t, err)

	var hist struct {
		Range    string                 `json:"range"`
		Readings []models.SensorReading `json:"readings"`
	}
	decode(t, do(t, h, http.MethodGet, "/api/v1/history", ""), &hist)
	assert.Equal(t, "all", hist.Range)
	assert.Len(t, hist.Readings, simulator.BackfillPoints)

	var trend models.TrendData
	decode(t, do(t, h, http.MethodGet, "/api/v1/history/trend/moisture?range=all&maxPoints=10", ""), &trend)
	assert.Equal(t, 10, trend.PointCount)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/history/trend/salinity", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/v1/history/since", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/v1/history/since?ts=yesterday", "").Code)

	since := time.Now().Add(-61 * time.Minute).UnixMilli()
	var delta models.HistoryDelta
	decode(t, do(t, h, http.MethodGet, "/api/v1/history/since?ts="+strconv.FormatInt(since, 10), ""), &delta)
	assert.GreaterOrEqual(t, delta.NewPoints, 2)

	rec := do(t, h, http.MethodGet, "/api/v1/history/export/csv?range=daily", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment; filename=\"soil_history_")
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/v1/history/export/xml", "").Code)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/api/v1/history", "").Code)
	assert.Empty(t, manager.History())
}

func TestFeedControl(t *testing.T) {
	h, manager := newTestRouter(t)

	var status models.FeedStatus
	decode(t, do(t, h, http.MethodPost, "/api/v1/feed/start", `{"interval_ms":60000}`), &status)
	assert.True(t, status.Running)
	assert.Equal(t, int64(60000), status.IntervalMS)
	assert.Equal(t, int64(1), status.Ticks)

	_, ok := manager.LatestReading()
	assert.True(t, ok)

	decode(t, do(t, h, http.MethodPost, "/api/v1/feed/stop", ""), &status)
	assert.False(t, status.Running)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/v1/feed/start", `{"interval_ms":-1}`).Code)
}

func TestChatEndpoints(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/v1/chat", `{"message":"tomato?"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/v1/chat/settings", `{"api_key":"bad"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var settings models.ChatSettings
	decode(t, do(t, h, http.MethodPut, "/api/v1/chat/settings", `{"demo_mode":true}`), &settings)
	assert.True(t, settings.DemoMode)

	var reply models.ChatMessage
	decode(t, do(t, h, http.MethodPost, "/api/v1/chat", `{"message":"tomato?"}`), &reply)
	assert.Equal(t, "assistant", reply.Role)
	assert.True(t, strings.HasPrefix(reply.Content, "**Growing Tomatoes"))

	decode(t, do(t, h, http.MethodDelete, "/api/v1/chat/history", ""), &reply)
	assert.Contains(t, reply.Content, "Welcome to AgroBot")
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestRouter(t)
	do(t, h, http.MethodGet, "/api/v1/crops", "")

	rec := do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/api/v1/crops"`)
}
