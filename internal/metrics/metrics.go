// Package metrics collects and exposes Prometheus metrics for the chat
// platform: message throughput, socket connections, and sweeper activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector is the metrics surface used by the gateway and the sweeper.
type Collector struct {
	messagesPersisted *prometheus.CounterVec
	broadcasts        prometheus.Counter
	droppedSends      prometheus.Counter
	voiceUploads      prometheus.Counter
	socketConnections prometheus.Gauge
	sweepRuns         prometheus.Counter
	sweepFailures     prometheus.Counter
	sweepDeleted      prometheus.Counter

	registry *prometheus.Registry
}

// NewCollector registers all collectors on a fresh registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		messagesPersisted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chatline_messages_persisted_total",
			Help: "Messages persisted, by type (text/voice).",
		}, []string{"type"}),
		broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatline_room_broadcasts_total",
			Help: "Events broadcast to session rooms.",
		}),
		droppedSends: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatline_dropped_sends_total",
			Help: "Broadcast frames dropped because a client send buffer was full.",
		}),
		voiceUploads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatline_voice_uploads_total",
			Help: "Voice notes uploaded to object storage.",
		}),
		socketConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chatline_socket_connections",
			Help: "Currently open websocket connections.",
		}),
		sweepRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatline_sweep_runs_total",
			Help: "Expiry sweeper executions.",
		}),
		sweepFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatline_sweep_failures_total",
			Help: "Per-session purge failures during sweeps.",
		}),
		sweepDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatline_sweep_deleted_messages_total",
			Help: "Messages deleted by the expiry sweeper.",
		}),
		registry: reg,
	}

	reg.MustRegister(
		c.messagesPersisted,
		c.broadcasts,
		c.droppedSends,
		c.voiceUploads,
		c.socketConnections,
		c.sweepRuns,
		c.sweepFailures,
		c.sweepDeleted,
	)

	return c
}

func (c *Collector) RecordMessagePersisted(msgType string) {
	c.messagesPersisted.WithLabelValues(msgType).Inc()
}

func (c *Collector) RecordBroadcast()    { c.broadcasts.Inc() }
func (c *Collector) RecordDroppedSend()  { c.droppedSends.Inc() }
func (c *Collector) RecordVoiceUpload()  { c.voiceUploads.Inc() }
func (c *Collector) SocketConnected()    { c.socketConnections.Inc() }
func (c *Collector) SocketDisconnected() { c.socketConnections.Dec() }
func (c *Collector) RecordSweepRun()     { c.sweepRuns.Inc() }
func (c *Collector) RecordSweepFailure() { c.sweepFailures.Inc() }

func (c *Collector) RecordSweepDeleted(n int64) {
	if n > 0 {
		c.sweepDeleted.Add(float64(n))
	}
}

// Handler serves the /metrics endpoint for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
