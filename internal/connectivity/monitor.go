// ABOUTME: Connectivity monitor: polls the server health endpoint and publishes transitions.
// ABOUTME: Consumers subscribe to the observable online flag; manual override supported.
package connectivity

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/feelink/internal/observe"
)

// DefaultProbeInterval is how often the monitor checks reachability.
const DefaultProbeInterval = 15 * time.Second

// Prober reports whether the remote API is reachable right now.
type Prober interface {
	Health(ctx context.Context) bool
}

// Monitor tracks online/offline state. A Go process has no browser-style
// connectivity events, so state comes from polling the API health endpoint;
// transitions are published through an observable boolean.
type Monitor struct {
	prober   Prober
	online   *observe.Value[bool]
	interval time.Duration
	log      *log.Logger
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithProbeInterval overrides the polling cadence.
func WithProbeInterval(d time.Duration) MonitorOption {
	return func(m *Monitor) { m.interval = d }
}

// WithLogger sets the monitor's logger.
func WithLogger(l *log.Logger) MonitorOption {
	return func(m *Monitor) { m.log = l }
}

// NewMonitor builds a monitor that starts offline until the first probe.
func NewMonitor(p Prober, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		prober:   p,
		online:   observe.New(false),
		interval: DefaultProbeInterval,
		log:      log.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Online returns the observable connectivity flag.
func (m *Monitor) Online() *observe.Value[bool] {
	return m.online
}

// SetOnline overrides the connectivity state, for tests and for forcing
// offline mode from the CLI.
func (m *Monitor) SetOnline(online bool) {
	m.publish(online)
}

// Probe checks reachability once and publishes the result.
func (m *Monitor) Probe(ctx context.Context) bool {
	online := m.prober.Health(ctx)
	m.publish(online)
	return online
}

// Start polls until ctx is cancelled. The first probe runs immediately.
func (m *Monitor) Start(ctx context.Context) {
	m.Probe(ctx)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Probe(ctx)
		}
	}
}

func (m *Monitor) publish(online bool) {
	if m.online.Get() == online {
		return
	}
	if online {
		m.log.Info("went online")
	} else {
		m.log.Info("went offline")
	}
	m.online.Set(online)
}
