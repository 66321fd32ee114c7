// Package telemetry provides an optional, out-of-core progress feed for
// long-running experiments: a ZeroMQ PUB socket that broadcasts one JSON
// snapshot per tick for any external SUB process (a dashboard, a log
// aggregator) to consume. Any human-readable progress printer stays out
// of scope for the core simulator, which only specifies it via an
// interface (experiment.ProgressSink); this is one concrete, swappable
// implementation of that interface.
//
// Adapted from hierachain-engine/network/zmq_transport.go's ZmqNode
// lifecycle (context + WaitGroup start/stop, JSON-over-ZMQ framing) but
// simplified from ROUTER/DEALER request/response peering down to one-way
// PUB fan-out, since telemetry has no reply and no peer registry to
// maintain.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-zeromq/zmq4"

	"github.com/VanDung-dev/txsim-engine/experiment"
)

// Publisher broadcasts experiment.Snapshot values over a ZMQ PUB socket.
type Publisher struct {
	address string

	ctx    context.Context
	cancel context.CancelFunc
	sock   zmq4.Socket

	mu      sync.Mutex
	running bool
}

// NewPublisher creates a Publisher bound to tcp://host:port.
func NewPublisher(host string, port int) *Publisher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Publisher{
		address: fmt.Sprintf("tcp://%s:%d", host, port),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start binds the PUB socket. Calling it again while running is a no-op.
func (p *Publisher) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return nil
	}

	p.sock = zmq4.NewPub(p.ctx)
	if err := p.sock.Listen(p.address); err != nil {
		return fmt.Errorf("telemetry: binding pub socket to %s: %w", p.address, err)
	}
	p.running = true
	return nil
}

// Stop closes the PUB socket, best effort.
func (p *Publisher) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.cancel()
	if p.sock != nil {
		_ = p.sock.Close()
	}
	p.running = false
}

// OnTick implements experiment.ProgressSink: it marshals snap to JSON and
// sends it on a topic frame equal to snap.Label, so subscribers can filter
// by experiment. Send failures are swallowed — telemetry is best-effort
// and must never affect the simulation it observes.
func (p *Publisher) OnTick(snap experiment.Snapshot) {
	p.mu.Lock()
	running := p.running
	p.mu.Unlock()
	if !running {
		return
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return
	}

	_ = p.sock.Send(zmq4.NewMsgFrom([]byte(snap.Label), data))
}
