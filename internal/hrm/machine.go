package hrm

import (
	"github.com/srg/hrmwatch/internal/device"
	"github.com/srg/hrmwatch/internal/events"
	"github.com/srg/hrmwatch/internal/heartrate"
)

// machine is the connection state machine. step is a pure function of the
// machine and one input; everything observable happens through the returned
// effects.
//
// Two tokens guard against stale completions:
//   - session identifies the current scan; it changes whenever a scan ends.
//   - gen identifies the current connection attempt; it changes whenever an
//     attempt is abandoned, so late dial/discover/subscribe results and
//     notifications from a previous link are dropped.
type machine struct {
	opts *Options

	state    State
	device   *DeviceHandle
	client   device.Client
	session  uint64
	gen      uint64
	attempts int
}

func newMachine(opts *Options) *machine {
	return &machine{opts: opts, state: Idle}
}

func (m *machine) step(in input) []effect {
	switch in := in.(type) {
	case startScanCmd:
		return m.startScan()
	case disconnectCmd:
		return m.disconnect()
	case capabilityDenied:
		return []effect{publish{events.Error(in.err.Error())}}

	case scanMatched:
		if m.state != Scanning || in.session != m.session {
			return nil
		}
		handle := in.handle
		m.device = &handle
		m.session++
		effs := []effect{stopScanEffect{}, cancelTimers{}}
		return append(effs, m.connect()...)

	case scanFailed:
		if m.state != Scanning || in.session != m.session {
			return nil
		}
		m.session++
		return []effect{
			cancelTimers{},
			m.enter(Idle),
			publish{events.Error((&ScanError{Err: in.err}).Error())},
		}

	case scanTimedOut:
		if m.state != Scanning || in.session != m.session {
			return nil
		}
		m.session++
		return []effect{
			stopScanEffect{},
			m.enter(Idle),
			publish{events.Error(ErrNoDeviceFound.Error())},
		}

	case dialed:
		if m.state != Connecting || in.gen != m.gen {
			if in.client != nil {
				return []effect{closeStale{client: in.client}}
			}
			return nil
		}
		if in.err != nil {
			return m.linkDown(&ConnectionStepError{Step: StepConnect, Err: in.err})
		}
		m.client = in.client
		return []effect{
			m.enter(ServiceDiscovery),
			watchLink{gen: m.gen, client: m.client},
			armTimer{kind: settleTimer, delay: m.opts.SettleDelay, token: m.gen},
		}

	case settled:
		if m.state != ServiceDiscovery || in.gen != m.gen {
			return nil
		}
		return []effect{discoverEffect{gen: m.gen, client: m.client}}

	case discovered:
		if m.state != ServiceDiscovery || in.gen != m.gen {
			return nil
		}
		return m.onDiscovered(in)

	case subscribed:
		if m.state != Subscribing || in.gen != m.gen {
			return nil
		}
		if in.err != nil {
			return m.stepFailed(&ConnectionStepError{Step: StepSubscribe, Err: in.err})
		}
		m.attempts = 0
		return []effect{m.enter(Streaming)}

	case notified:
		if in.gen != m.gen || (m.state != Subscribing && m.state != Streaming) {
			return nil
		}
		sample := heartrate.Decode(in.data)
		sample.ReceivedAt = in.at
		return []effect{publish{events.DataUpdate(sample)}}

	case linkLost:
		if in.gen != m.gen || !m.state.Connected() {
			return nil
		}
		return m.linkDown(&ConnectionStepError{Step: StepLink, Err: device.ErrNotConnected})

	case reconnectFired:
		if m.state != Disconnected || in.gen != m.gen || m.device == nil {
			return nil
		}
		return m.connect()
	}
	return nil
}

func (m *machine) enter(s State) effect {
	m.state = s
	return enterState{state: s}
}

// teardown abandons the current scan and connection and forgets the device.
func (m *machine) teardown() []effect {
	var effs []effect
	if m.state == Scanning {
		effs = append(effs, stopScanEffect{})
	}
	effs = append(effs, cancelTimers{}, release{client: m.client})
	m.client = nil
	m.device = nil
	m.session++
	m.gen++
	m.attempts = 0
	return effs
}

func (m *machine) startScan() []effect {
	effs := m.teardown()
	effs = append(effs,
		m.enter(Scanning),
		startScanEffect{session: m.session},
		armTimer{kind: scanTimer, delay: m.opts.ScanTimeout, token: m.session},
	)
	return effs
}

func (m *machine) disconnect() []effect {
	if m.state == Idle {
		return nil
	}
	effs := m.teardown()
	return append(effs, m.enter(Idle))
}

func (m *machine) connect() []effect {
	m.gen++
	return []effect{
		m.enter(Connecting),
		dialEffect{gen: m.gen, address: m.device.Address},
	}
}

func (m *machine) onDiscovered(in discovered) []effect {
	if in.err != nil {
		return m.stepFailed(&ConnectionStepError{Step: StepDiscover, Err: in.err})
	}

	char, err := in.profile.Characteristic(heartrate.ServiceUUID, heartrate.MeasurementUUID)
	if err != nil {
		return m.fail(&ConnectionStepError{Step: StepDiscover, Err: err})
	}

	effs := []effect{m.enter(Subscribing)}
	if !char.HasDescriptor(heartrate.ClientConfigUUID) {
		return append(effs, m.fail(&ConnectionStepError{Step: StepSubscribe, Err: errMissingCCCD})...)
	}
	return append(effs, subscribeEffect{gen: m.gen, client: m.client})
}

// stepFailed routes a connection step error to reconnect or terminal failure.
func (m *machine) stepFailed(err *ConnectionStepError) []effect {
	if err.Transient() {
		return m.linkDown(err)
	}
	return m.fail(err)
}

// linkDown enters Disconnected and schedules exactly one reconnect, unless
// the reconnect budget is spent.
func (m *machine) linkDown(cause *ConnectionStepError) []effect {
	effs := []effect{cancelTimers{}, release{client: m.client}}
	m.client = nil
	m.gen++
	effs = append(effs, m.enter(Disconnected))

	if m.opts.MaxReconnectAttempts > 0 && m.attempts >= m.opts.MaxReconnectAttempts {
		return append(effs, m.fail(cause)...)
	}
	m.attempts++
	return append(effs, armTimer{kind: reconnectTimer, delay: m.opts.ReconnectDelay, token: m.gen})
}

// fail enters the terminal Failed state with a single Error event.
func (m *machine) fail(err error) []effect {
	effs := []effect{cancelTimers{}, release{client: m.client}}
	m.client = nil
	m.device = nil
	m.gen++
	m.attempts = 0
	return append(effs, m.enter(Failed), publish{events.Error(err.Error())})
}
