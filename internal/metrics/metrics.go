package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"soilsense/internal/models"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics coletores Prometheus do SoilSense
type Metrics struct {
	registry          *prometheus.Registry
	readingsTotal     prometheus.Counter
	soilParameter     *prometheus.GaugeVec
	pumpOn            prometheus.Gauge
	alertsTotal       *prometheus.CounterVec
	storeErrors       prometheus.Counter
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// New cria os coletores em um registro próprio
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		readingsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "soilsense_readings_total",
			Help: "Total live readings generated.",
		}),
		soilParameter: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "soilsense_soil_parameter",
			Help: "Latest value of each soil parameter.",
		}, []string{"param", "crop"}),
		pumpOn: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "soilsense_pump_on",
			Help: "Irrigation pump state (1 on, 0 off).",
		}),
		alertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "soilsense_alerts_total",
			Help: "Advisories raised by severity and category.",
		}, []string{"severity", "param"}),
		storeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "soilsense_store_errors_total",
			Help: "Failed writes to the key-value store.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.readingsTotal,
		m.soilParameter,
		m.pumpOn,
		m.alertsTotal,
		m.storeErrors,
		m.httpRequestsTotal,
		m.httpDuration,
	)

	return m
}

// Registry registro usado pelos coletores
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveReading registra uma leitura ao vivo e seus alertas
func (m *Metrics) ObserveReading(r models.SensorReading, alerts []models.Recommendation) {
	crop := string(r.Crop)
	m.readingsTotal.Inc()
	m.soilParameter.WithLabelValues("moisture", crop).Set(r.Moisture)
	m.soilParameter.WithLabelValues("ph", crop).Set(r.PH)
	m.soilParameter.WithLabelValues("n", crop).Set(r.N)
	m.soilParameter.WithLabelValues("p", crop).Set(r.P)
	m.soilParameter.WithLabelValues("k", crop).Set(r.K)
	m.soilParameter.WithLabelValues("temperature", crop).Set(r.Temperature)
	m.soilParameter.WithLabelValues("humidity", crop).Set(r.Humidity)

	if r.PumpOn {
		m.pumpOn.Set(1)
	} else {
		m.pumpOn.Set(0)
	}

	for _, a := range alerts {
		m.alertsTotal.WithLabelValues(string(a.Type), a.Param).Inc()
	}
}

// StoreError conta uma falha de gravação
func (m *Metrics) StoreError() {
	m.storeErrors.Inc()
}

// Handler expõe o registro em /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// Hijack mantém o upgrade WebSocket funcionando atrás do middleware
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	s.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

// Middleware mede requisições pelo template da rota do mux
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}
