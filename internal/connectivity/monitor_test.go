// ABOUTME: Tests for the connectivity monitor.
// ABOUTME: Transitions publish exactly once per state change.
package connectivity

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProber struct {
	healthy bool
	calls   int
}

func (f *fakeProber) Health(ctx context.Context) bool {
	f.calls++
	return f.healthy
}

func newTestMonitor(p Prober) *Monitor {
	return NewMonitor(p, WithLogger(log.New(io.Discard)))
}

func TestMonitorStartsOffline(t *testing.T) {
	m := newTestMonitor(&fakeProber{})
	assert.False(t, m.Online().Get())
}

func TestProbePublishesTransition(t *testing.T) {
	prober := &fakeProber{healthy: true}
	m := newTestMonitor(prober)

	var transitions []bool
	m.Online().Subscribe(func(online bool) { transitions = append(transitions, online) })

	assert.True(t, m.Probe(context.Background()))
	assert.Equal(t, 1, prober.calls)

	prober.healthy = false
	assert.False(t, m.Probe(context.Background()))

	// Initial value, online, offline.
	require.Equal(t, []bool{false, true, false}, transitions)
}

func TestRepeatedProbeSameStatePublishesOnce(t *testing.T) {
	prober := &fakeProber{healthy: true}
	m := newTestMonitor(prober)

	var notifications int
	m.Online().Subscribe(func(bool) { notifications++ })

	m.Probe(context.Background())
	m.Probe(context.Background())
	m.Probe(context.Background())

	// One for subscribe, one for the single offline-to-online transition.
	assert.Equal(t, 2, notifications)
}

// countingProber is safe for the polling goroutine Start spawns.
type countingProber struct {
	healthy atomic.Bool
	calls   atomic.Int32
}

func (p *countingProber) Health(ctx context.Context) bool {
	p.calls.Add(1)
	return p.healthy.Load()
}

func TestStartPollsUntilCancelled(t *testing.T) {
	prober := &countingProber{}
	prober.healthy.Store(true)
	m := NewMonitor(prober, WithLogger(log.New(io.Discard)), WithProbeInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Start(ctx)
		close(done)
	}()

	// The first probe runs immediately, then the ticker keeps polling.
	require.Eventually(t, func() bool { return m.Online().Get() }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return prober.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)

	// A later failed probe flips the published state.
	prober.healthy.Store(false)
	require.Eventually(t, func() bool { return !m.Online().Get() }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestSetOnlineOverrides(t *testing.T) {
	m := newTestMonitor(&fakeProber{healthy: true})

	m.SetOnline(true)
	assert.True(t, m.Online().Get())

	m.SetOnline(false)
	assert.False(t, m.Online().Get())
}
