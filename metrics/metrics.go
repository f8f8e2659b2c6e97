// Package metrics exposes Prometheus counters for the handshake and datagram paths of a server.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures the metrics.
type Config struct {
	// Namespace is the metrics namespace (default: "rakserver").
	Namespace string
	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels
	// Registry is the Prometheus registry to use (default: prometheus.DefaultRegisterer).
	Registry prometheus.Registerer
}

// Option configures the metrics.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

// Metrics holds the collectors updated by a server.
type Metrics struct {
	unconnectedPackets   *prometheus.CounterVec
	unhandledPackets     prometheus.Counter
	malformedPackets     *prometheus.CounterVec
	incompatibleProtocol prometheus.Counter
	sessionsCreated      prometheus.Counter
	duplicateHandshakes  prometheus.Counter
	rejectedHandshakes   prometheus.Counter
	datagrams            prometheus.Counter
	blockedPackets       prometheus.Counter

	config Config
}

// New registers the collectors and returns them.
func New(opts ...Option) *Metrics {
	config := Config{
		Namespace: "rakserver",
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		unconnectedPackets: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "unconnected_packets_total",
			Help:        "Total number of unconnected packets handled, by packet ID",
			ConstLabels: config.ConstLabels,
		}, []string{"packet"}),

		unhandledPackets: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "unhandled_packets_total",
			Help:        "Total number of unconnected packets with an unknown or unexpected ID",
			ConstLabels: config.ConstLabels,
		}),

		malformedPackets: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "malformed_packets_total",
			Help:        "Total number of packets that failed to decode",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		incompatibleProtocol: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "incompatible_protocol_total",
			Help:        "Total number of open connection requests with an unsupported protocol version",
			ConstLabels: config.ConstLabels,
		}),

		sessionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "sessions_created_total",
			Help:        "Total number of sessions created by completed handshakes",
			ConstLabels: config.ConstLabels,
		}),

		duplicateHandshakes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "duplicate_handshakes_total",
			Help:        "Total number of second open connection requests from addresses that already have a session",
			ConstLabels: config.ConstLabels,
		}),

		rejectedHandshakes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "rejected_handshakes_total",
			Help:        "Total number of second open connection requests rejected for their MTU",
			ConstLabels: config.ConstLabels,
		}),

		datagrams: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "datagrams_total",
			Help:        "Total number of connected datagrams received",
			ConstLabels: config.ConstLabels,
		}),

		blockedPackets: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "blocked_packets_total",
			Help:        "Total number of packets dropped because their sender is blocked",
			ConstLabels: config.ConstLabels,
		}),

		config: config,
	}
}

// TrackSessions registers a gauge reporting the number of established sessions as returned by count.
// It must be called at most once per registry.
func (m *Metrics) TrackSessions(count func() int) {
	if m == nil {
		return
	}
	promauto.With(m.config.Registry).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   m.config.Namespace,
		Name:        "active_sessions",
		Help:        "Number of established sessions",
		ConstLabels: m.config.ConstLabels,
	}, func() float64 {
		return float64(count())
	})
}

func (m *Metrics) UnconnectedPacket(name string) {
	if m != nil {
		m.unconnectedPackets.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) UnhandledPacket() {
	if m != nil {
		m.unhandledPackets.Inc()
	}
}

// MalformedPacket records a packet that failed to decode. kind is "unconnected" or "datagram".
func (m *Metrics) MalformedPacket(kind string) {
	if m != nil {
		m.malformedPackets.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) IncompatibleProtocol() {
	if m != nil {
		m.incompatibleProtocol.Inc()
	}
}

func (m *Metrics) SessionCreated() {
	if m != nil {
		m.sessionsCreated.Inc()
	}
}

func (m *Metrics) DuplicateHandshake() {
	if m != nil {
		m.duplicateHandshakes.Inc()
	}
}

func (m *Metrics) RejectedHandshake() {
	if m != nil {
		m.rejectedHandshakes.Inc()
	}
}

func (m *Metrics) Datagram() {
	if m != nil {
		m.datagrams.Inc()
	}
}

func (m *Metrics) BlockedPacket() {
	if m != nil {
		m.blockedPackets.Inc()
	}
}
