// Package prometheus implements the metrics recorder interfaces on top of
// the shared Prometheus registry.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/openbbs/pkg/metrics"
)

type bbsMetrics struct {
	connectionsAccepted    prometheus.Counter
	connectionsClosed      prometheus.Counter
	connectionsForceClosed prometheus.Counter
	activeConnections      prometheus.Gauge

	sessions        *prometheus.CounterVec
	sessionDuration *prometheus.HistogramVec

	logins *prometheus.CounterVec

	commands        *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
}

var _ metrics.BBSMetrics = (*bbsMetrics)(nil)

// NewBBSMetrics returns a Prometheus-backed recorder, or nil when metrics
// are not enabled (InitRegistry not called).
func NewBBSMetrics() metrics.BBSMetrics {
	if !metrics.IsEnabled() {
		return nil
	}
	return newBBSMetrics(metrics.GetRegistry())
}

func newBBSMetrics(reg prometheus.Registerer) *bbsMetrics {
	f := promauto.With(reg)

	return &bbsMetrics{
		connectionsAccepted: f.NewCounter(prometheus.CounterOpts{
			Name: "openbbs_connections_accepted_total",
			Help: "Total number of accepted TCP connections",
		}),
		connectionsClosed: f.NewCounter(prometheus.CounterOpts{
			Name: "openbbs_connections_closed_total",
			Help: "Total number of closed TCP connections",
		}),
		connectionsForceClosed: f.NewCounter(prometheus.CounterOpts{
			Name: "openbbs_connections_force_closed_total",
			Help: "Connections closed because shutdown timed out",
		}),
		activeConnections: f.NewGauge(prometheus.GaugeOpts{
			Name: "openbbs_connections_active",
			Help: "Currently open TCP connections",
		}),
		sessions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "openbbs_sessions_total",
			Help: "Finished sessions by outcome",
		}, []string{"outcome"}),
		sessionDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name: "openbbs_session_duration_seconds",
			Help: "Session lifetime from accept to close",
			Buckets: []float64{
				1,    // quit right away
				10,   // read the MOTD
				60,   // 1m
				300,  // 5m
				600,  // default idle timeout
				1800, // 30m
				3600, // 1h
				14400,
			},
		}, []string{"outcome"}),
		logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "openbbs_logins_total",
			Help: "Login menu outcomes",
		}, []string{"outcome"}),
		commands: f.NewCounterVec(prometheus.CounterOpts{
			Name: "openbbs_commands_total",
			Help: "Shell commands executed by name",
		}, []string{"command"}),
		commandDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "openbbs_command_duration_milliseconds",
			Help:    "Shell command latency including store access",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000},
		}, []string{"command"}),
	}
}

func (m *bbsMetrics) RecordLogin(outcome string) {
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *bbsMetrics) RecordCommand(command string, duration time.Duration) {
	m.commands.WithLabelValues(command).Inc()
	m.commandDuration.WithLabelValues(command).Observe(float64(duration.Microseconds()) / 1000)
}

func (m *bbsMetrics) RecordSession(outcome string, duration time.Duration) {
	m.sessions.WithLabelValues(outcome).Inc()
	m.sessionDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (m *bbsMetrics) RecordConnectionAccepted()    { m.connectionsAccepted.Inc() }
func (m *bbsMetrics) RecordConnectionClosed()      { m.connectionsClosed.Inc() }
func (m *bbsMetrics) RecordConnectionForceClosed() { m.connectionsForceClosed.Inc() }

func (m *bbsMetrics) SetActiveConnections(count int32) {
	m.activeConnections.Set(float64(count))
}
