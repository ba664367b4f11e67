// Package hrm discovers a heart-rate peripheral, drives its connection
// lifecycle, and publishes decoded measurements.
//
// All lifecycle state is owned by a single actor goroutine. Public methods
// and background work (scans, dials, timers, link monitors, notifications)
// only post inputs to the actor's inbox; the actor feeds each input through
// the pure state machine and executes the resulting effects in order.
package hrm

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/hrmwatch/internal/capability"
	"github.com/srg/hrmwatch/internal/device"
	"github.com/srg/hrmwatch/internal/events"
	"github.com/srg/hrmwatch/internal/groutine"
	"github.com/srg/hrmwatch/internal/heartrate"
)

// Manager owns at most one scan and one connection to a heart-rate peripheral.
type Manager struct {
	adapter device.Adapter
	gate    *capability.Gate
	opts    *Options
	logger  *logrus.Logger

	scanner *Scanner
	events  *events.Sink[events.ServiceEvent]
	states  *events.Sink[State]

	inbox  chan envelope
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	group  groutine.Group

	state  atomic.Int32
	device atomic.Pointer[DeviceHandle]

	closeOnce sync.Once

	// actor-owned
	machine    *machine
	timers     map[timerKind]*time.Timer
	connCtx    context.Context
	connCancel context.CancelFunc
}

type envelope struct {
	in  input
	ack chan struct{}
}

// New creates a Manager and starts its actor. A nil gate grants everything,
// nil opts selects DefaultOptions, and a nil logger selects logrus.New().
func New(adapter device.Adapter, gate *capability.Gate, opts *Options, logger *logrus.Logger) *Manager {
	if logger == nil {
		logger = logrus.New()
	}
	opts = opts.withDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		adapter: adapter,
		gate:    gate,
		opts:    opts,
		logger:  logger,
		scanner: NewScanner(adapter, opts.Filter, logger),
		events:  events.NewServiceSink(),
		states:  events.NewSink(Idle),
		inbox:   make(chan envelope, opts.InboxSize),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		machine: newMachine(opts),
		timers:  make(map[timerKind]*time.Timer),
	}

	m.group.Go(ctx, "hrm-actor", m.run)
	return m
}

// Events returns the service event sink. Subscribers first see the current event.
func (m *Manager) Events() *events.Sink[events.ServiceEvent] {
	return m.events
}

// States returns the connection state sink.
func (m *Manager) States() *events.Sink[State] {
	return m.states
}

// State returns the current connection state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// Device returns the remembered peripheral, if any.
func (m *Manager) Device() (DeviceHandle, bool) {
	if d := m.device.Load(); d != nil {
		return *d, true
	}
	return DeviceHandle{}, false
}

// StartScan checks capabilities and starts looking for a heart-rate peripheral.
// Any existing scan or connection is torn down first. A missing capability is
// returned as *capability.CapabilityError and also published as an Error event;
// no scan is started in that case.
func (m *Manager) StartScan(ctx context.Context) error {
	if err := m.gate.Check(ctx); err != nil {
		m.logger.WithError(err).Warn("Cannot start heart rate scan")
		if perr := m.send(ctx, capabilityDenied{err: err}); perr != nil {
			return perr
		}
		return err
	}
	return m.send(ctx, startScanCmd{})
}

// Disconnect stops scanning, cancels pending timers, releases the connection,
// and forgets the device. It returns once the manager is Idle. No-op when Idle.
func (m *Manager) Disconnect() {
	_ = m.send(context.Background(), disconnectCmd{})
}

// Close disconnects and stops the actor. Safe to call more than once.
// Background work stuck in the platform stack is abandoned after
// Options.CloseTimeout.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		m.Disconnect()
		m.cancel()
		if !m.group.WaitTimeout(m.opts.CloseTimeout) {
			m.logger.WithField("timeout", m.opts.CloseTimeout).Warn("Abandoning heart rate monitor work still in progress")
		}
		m.scanner.Stop()
	})
	return nil
}

// send posts a command and waits until the actor processed it.
func (m *Manager) send(ctx context.Context, in input) error {
	ack := make(chan struct{})
	select {
	case m.inbox <- envelope{in: in, ack: ack}:
	case <-ctx.Done():
		return ctx.Err()
	case <-m.done:
		return ErrClosed
	}

	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-m.done:
		return ErrClosed
	}
}

// post delivers a completion input unless ctx ends first.
func (m *Manager) post(ctx context.Context, in input) {
	select {
	case m.inbox <- envelope{in: in}:
	case <-ctx.Done():
	case <-m.done:
	}
}

func (m *Manager) run(ctx context.Context) {
	defer close(m.done)
	defer m.shutdown()

	for {
		select {
		case <-ctx.Done():
			return
		case env := <-m.inbox:
			m.handle(env.in)
			if env.ack != nil {
				close(env.ack)
			}
		}
	}
}

func (m *Manager) handle(in input) {
	if _, ok := in.(notified); !ok {
		m.logger.WithFields(logrus.Fields{
			"state":      m.machine.state,
			"session":    m.machine.session,
			"generation": m.machine.gen,
		}).Debugf("Handling %T", in)
	}

	for _, eff := range m.machine.step(in) {
		m.execute(eff)
	}
	m.device.Store(m.machine.device)
}

func (m *Manager) shutdown() {
	m.stopTimers()
	m.scanner.Stop()
	if m.connCancel != nil {
		m.connCancel()
	}
	if c := m.machine.client; c != nil {
		_ = c.CancelConnection()
	}
}

func (m *Manager) execute(eff effect) {
	switch e := eff.(type) {
	case enterState:
		m.setState(e.state)

	case startScanEffect:
		session := e.session
		m.scanner.Start(m.ctx,
			func(ctx context.Context, h DeviceHandle) {
				m.post(ctx, scanMatched{session: session, handle: h})
			},
			func(ctx context.Context, err error) {
				m.post(ctx, scanFailed{session: session, err: err})
			},
		)

	case stopScanEffect:
		m.scanner.Stop()

	case armTimer:
		m.armTimer(e)

	case cancelTimers:
		m.stopTimers()

	case dialEffect:
		m.dial(e)

	case watchLink:
		m.watchLink(e)

	case discoverEffect:
		m.discover(e)

	case subscribeEffect:
		m.subscribe(e)

	case release:
		m.release(e.client)

	case closeStale:
		m.closeClient(e.client)

	case publish:
		m.events.Publish(e.event)
	}
}

// setState publishes before storing so State() never runs ahead of the sink.
func (m *Manager) setState(s State) {
	prev := State(m.state.Load())
	m.states.Publish(s)
	m.state.Store(int32(s))

	if prev != s {
		fields := logrus.Fields{"state": s}
		if d := m.machine.device; d != nil {
			fields["address"] = d.Address
		}
		m.logger.WithFields(fields).Infof("Heart rate monitor %s", s)
	}
}

func (m *Manager) armTimer(e armTimer) {
	if t, ok := m.timers[e.kind]; ok {
		t.Stop()
	}

	var in input
	switch e.kind {
	case scanTimer:
		in = scanTimedOut{session: e.token}
	case settleTimer:
		in = settled{gen: e.token}
	case reconnectTimer:
		in = reconnectFired{gen: e.token}
	}

	m.logger.WithFields(logrus.Fields{"timer": e.kind, "delay": e.delay}).Debug("Arming timer")
	m.timers[e.kind] = time.AfterFunc(e.delay, func() {
		m.post(m.ctx, in)
	})
}

func (m *Manager) stopTimers() {
	for kind, t := range m.timers {
		t.Stop()
		delete(m.timers, kind)
	}
}

// connContext returns the context bounding all work of the current connection attempt.
func (m *Manager) connContext() context.Context {
	if m.connCancel != nil {
		m.connCancel()
	}
	m.connCtx, m.connCancel = context.WithCancel(m.ctx)
	return m.connCtx
}

func (m *Manager) dial(e dialEffect) {
	ctx := m.connContext()
	timeout := m.opts.ConnectTimeout
	log := m.logger.WithFields(logrus.Fields{"address": e.address, "generation": e.gen})

	m.group.Go(ctx, "hrm-dial", func(context.Context) {
		dctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		client, err := m.adapter.Dial(dctx, e.address)
		if err != nil {
			log.WithError(err).Warn("Failed to connect to heart rate monitor")
		}
		// the result must reach the actor even if ctx was cancelled, so a
		// late successful dial is released rather than leaked
		m.post(m.ctx, dialed{gen: e.gen, client: client, err: err})
	})
}

func (m *Manager) watchLink(e watchLink) {
	ctx := m.currentConnContext()
	m.group.Go(ctx, "hrm-link", func(context.Context) {
		select {
		case <-e.client.Disconnected():
			m.logger.WithField("address", e.client.Address()).Info("Heart rate monitor link lost")
			m.post(ctx, linkLost{gen: e.gen})
		case <-ctx.Done():
		}
	})
}

func (m *Manager) discover(e discoverEffect) {
	ctx := m.currentConnContext()
	timeout := m.opts.DiscoveryTimeout

	m.group.Go(ctx, "hrm-discover", func(context.Context) {
		dctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		profile, err := e.client.DiscoverProfile(dctx)
		m.post(ctx, discovered{gen: e.gen, profile: profile, err: err})
	})
}

func (m *Manager) subscribe(e subscribeEffect) {
	ctx := m.currentConnContext()

	m.group.Go(ctx, "hrm-subscribe", func(context.Context) {
		err := e.client.Subscribe(heartrate.ServiceUUID, heartrate.MeasurementUUID, func(data []byte) {
			buf := make([]byte, len(data))
			copy(buf, data)
			m.post(ctx, notified{gen: e.gen, data: buf, at: time.Now()})
		})
		m.post(ctx, subscribed{gen: e.gen, err: err})
	})
}

// currentConnContext returns the live connection context, or a done context
// when no attempt is in progress.
func (m *Manager) currentConnContext() context.Context {
	if m.connCtx == nil {
		ctx, cancel := context.WithCancel(m.ctx)
		cancel()
		return ctx
	}
	return m.connCtx
}

func (m *Manager) release(client device.Client) {
	if m.connCancel != nil {
		m.connCancel()
		m.connCtx, m.connCancel = nil, nil
	}
	m.closeClient(client)
}

// closeClient terminates client in the background. Platform disconnects can
// block, so it is not tracked by the group Close waits on.
func (m *Manager) closeClient(client device.Client) {
	if client == nil {
		return
	}

	log := m.logger.WithField("address", client.Address())
	groutine.Go(m.ctx, "hrm-release", func(context.Context) {
		if err := client.CancelConnection(); err != nil {
			log.WithError(err).Warn("Failed to release heart rate monitor connection")
			return
		}
		log.Debug("Heart rate monitor connection released")
	})
}
