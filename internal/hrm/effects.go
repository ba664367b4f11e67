package hrm

import (
	"time"

	"github.com/srg/hrmwatch/internal/device"
	"github.com/srg/hrmwatch/internal/events"
)

// effect is an instruction produced by the state machine and carried out by
// the Manager. Effects are the only way the machine touches the outside world.
type effect interface {
	isEffect()
}

type timerKind int

const (
	scanTimer timerKind = iota
	settleTimer
	reconnectTimer
)

func (k timerKind) String() string {
	switch k {
	case scanTimer:
		return "scan"
	case settleTimer:
		return "settle"
	case reconnectTimer:
		return "reconnect"
	}
	return "unknown"
}

type (
	enterState struct{ state State }

	startScanEffect struct{ session uint64 }
	stopScanEffect  struct{}

	// armTimer replaces any pending timer of the same kind.
	armTimer struct {
		kind  timerKind
		delay time.Duration
		token uint64
	}
	cancelTimers struct{}

	dialEffect struct {
		gen     uint64
		address string
	}
	watchLink struct {
		gen    uint64
		client device.Client
	}
	discoverEffect struct {
		gen    uint64
		client device.Client
	}
	subscribeEffect struct {
		gen    uint64
		client device.Client
	}

	// release aborts in-flight connection work and closes client if set.
	release struct{ client device.Client }
	// closeStale closes a client from an abandoned attempt. The live
	// connection is left alone.
	closeStale struct{ client device.Client }

	publish struct{ event events.ServiceEvent }
)

func (enterState) isEffect()      {}
func (startScanEffect) isEffect() {}
func (stopScanEffect) isEffect()  {}
func (armTimer) isEffect()        {}
func (cancelTimers) isEffect()    {}
func (dialEffect) isEffect()      {}
func (watchLink) isEffect()       {}
func (discoverEffect) isEffect()  {}
func (subscribeEffect) isEffect() {}
func (release) isEffect()         {}
func (closeStale) isEffect()      {}
func (publish) isEffect()         {}
