package conn

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts connection activity. All methods are nil-safe: a nil
// *Metrics records nothing, so instrumentation stays optional.
type Metrics struct {
	Connections   prometheus.Counter
	BytesReceived prometheus.Counter
	BytesSent     prometheus.Counter
	FlowErrors    prometheus.Counter
}

// NewMetrics registers connection counters with reg. Pass
// prometheus.DefaultRegisterer for the process-wide registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Connections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "flowgate",
			Subsystem: "conn",
			Name:      "accepted_total",
			Help:      "Flows accepted by listener loops.",
		}),
		BytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "flowgate",
			Subsystem: "conn",
			Name:      "received_bytes_total",
			Help:      "Bytes received from flows.",
		}),
		BytesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "flowgate",
			Subsystem: "conn",
			Name:      "sent_bytes_total",
			Help:      "Bytes sent to flows.",
		}),
		FlowErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "flowgate",
			Subsystem: "conn",
			Name:      "flow_errors_total",
			Help:      "Connection-fatal flow errors.",
		}),
	}
}

func (m *Metrics) connAccepted() {
	if m == nil {
		return
	}
	m.Connections.Inc()
}

func (m *Metrics) addBytesReceived(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.BytesReceived.Add(float64(n))
}

func (m *Metrics) addBytesSent(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.BytesSent.Add(float64(n))
}

func (m *Metrics) flowError() {
	if m == nil {
		return
	}
	m.FlowErrors.Inc()
}
