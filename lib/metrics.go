package lib

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

/* This file implements dev-ops telemetry for the prover in the form of prometheus metrics */

const metricsPattern = "/metrics"

// Metrics represents a server that exposes Prometheus metrics
type Metrics struct {
	server *http.Server  // the http prometheus server
	config MetricsConfig // the configuration
	log    LoggerI       // the logger

	VDFMetrics // telemetry about the proving step
}

// VDFMetrics represents the telemetry for the VDF proving step
type VDFMetrics struct {
	ComputationTime *prometheus.HistogramVec // how long does proving take at each difficulty?
	ProofsCompleted prometheus.Counter       // how many proofs finished the full delay?
	ProofsCancelled prometheus.Counter       // how many proofs were cancelled mid-run?
	StaleSortitions prometheus.Counter       // how many rounds came back with the stale difficulty?
	VerifyFailures  *prometheus.CounterVec   // record verification rejections by error code
}

// NewMetricsServer() creates a new telemetry server
func NewMetricsServer(config MetricsConfig) *Metrics {
	mux := http.NewServeMux()
	mux.Handle(metricsPattern, promhttp.Handler())
	return &Metrics{
		server: &http.Server{Addr: config.PrometheusAddress, Handler: mux},
		config: config,
		log:    NewDefaultLogger(),
		VDFMetrics: VDFMetrics{
			ComputationTime: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name: "sortition_vdf_computation_time",
				Help: "Time to complete the VDF proving step in seconds",
			}, []string{"difficulty"}),
			ProofsCompleted: promauto.NewCounter(prometheus.CounterOpts{
				Name: "sortition_vdf_proofs_completed",
				Help: "Total number of VDF proofs that ran the full delay",
			}),
			ProofsCancelled: promauto.NewCounter(prometheus.CounterOpts{
				Name: "sortition_vdf_proofs_cancelled",
				Help: "Total number of VDF proving runs cancelled before completion",
			}),
			StaleSortitions: promauto.NewCounter(prometheus.CounterOpts{
				Name: "sortition_stale_total",
				Help: "Total number of rounds where the derived difficulty was stale",
			}),
			VerifyFailures: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "sortition_verify_failures",
				Help: "Number of sortition record verification rejections by error code",
			}, []string{"code"}),
		},
	}
}

// Start() starts the telemetry server
func (m *Metrics) Start() {
	// exit if empty
	if m == nil {
		return
	}
	// if the metrics server is enabled
	if m.config.MetricsEnabled {
		go func() {
			m.log.Infof("Starting metrics server on %s", m.config.PrometheusAddress)
			// run the server
			if err := m.server.ListenAndServe(); err != nil {
				if err != http.ErrServerClosed {
					m.log.Errorf("Metrics server failed with err: %s", err.Error())
				}
			}
		}()
	}
}

// Stop() gracefully stops the telemetry server
func (m *Metrics) Stop() {
	// exit if empty
	if m == nil {
		return
	}
	// if the metrics server is enabled
	if m.config.MetricsEnabled {
		// shutdown the server
		if err := m.server.Shutdown(context.Background()); err != nil {
			m.log.Error(err.Error())
		}
	}
}

// UpdateVDFComputationTime() records a completed proving run
func (m *Metrics) UpdateVDFComputationTime(difficulty uint16, duration time.Duration) {
	// exit if empty
	if m == nil {
		return
	}
	// observe the proving time under its difficulty level
	m.ComputationTime.WithLabelValues(strconv.Itoa(int(difficulty))).Observe(duration.Seconds())
	// count the completed proof
	m.ProofsCompleted.Inc()
}

// IncVDFCancelled() counts a proving run that was cancelled before the delay elapsed
func (m *Metrics) IncVDFCancelled() {
	// exit if empty
	if m == nil {
		return
	}
	m.ProofsCancelled.Inc()
}

// IncVDFStale() counts a round where the derived difficulty was the stale sentinel
func (m *Metrics) IncVDFStale() {
	// exit if empty
	if m == nil {
		return
	}
	m.StaleSortitions.Inc()
}

// IncVerifyFailed() counts a record verification rejection under its error code
func (m *Metrics) IncVerifyFailed(code ErrorCode) {
	// exit if empty
	if m == nil {
		return
	}
	m.VerifyFailures.WithLabelValues(strconv.Itoa(int(code))).Inc()
}
