package transport

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts server activity. A nil *Metrics records nothing.
type Metrics struct {
	ConnectionAcceptCounter prometheus.Counter
	CommandCounter          *prometheus.CounterVec
	ProtocolErrorCounter    prometheus.Counter
}

// NewMetrics creates the server counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		ConnectionAcceptCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "picoredis",
			Name:      "connection_accept_total",
			Help:      "Client connections accepted.",
		}),
		CommandCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "picoredis",
			Name:      "command_total",
			Help:      "Commands handled, by command and reply kind.",
		}, []string{"command", "result"}),
		ProtocolErrorCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "picoredis",
			Name:      "protocol_error_total",
			Help:      "Connections dropped because of malformed requests.",
		}),
	}

	for _, c := range []prometheus.Collector{m.ConnectionAcceptCounter, m.CommandCounter, m.ProtocolErrorCounter} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) connectionAccepted() {
	if m == nil {
		return
	}
	m.ConnectionAcceptCounter.Inc()
}

func (m *Metrics) commandHandled(command string, failed bool) {
	if m == nil {
		return
	}

	result := "ok"
	if failed {
		result = "error"
	}
	m.CommandCounter.WithLabelValues(command, result).Inc()
}

func (m *Metrics) protocolError() {
	if m == nil {
		return
	}
	m.ProtocolErrorCounter.Inc()
}
