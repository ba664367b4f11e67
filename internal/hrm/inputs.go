package hrm

import (
	"time"

	"github.com/srg/hrmwatch/internal/device"
)

// input is anything the actor consumes: commands from callers and
// completions posted by scans, timers, and connection goroutines.
type input interface {
	isInput()
}

type (
	startScanCmd  struct{}
	disconnectCmd struct{}

	// capabilityDenied publishes a gate refusal through the actor so it is
	// ordered with every other event.
	capabilityDenied struct{ err error }

	scanMatched struct {
		session uint64
		handle  DeviceHandle
	}
	scanFailed struct {
		session uint64
		err     error
	}
	scanTimedOut struct{ session uint64 }

	dialed struct {
		gen    uint64
		client device.Client
		err    error
	}
	settled    struct{ gen uint64 }
	discovered struct {
		gen     uint64
		profile *device.Profile
		err     error
	}
	subscribed struct {
		gen uint64
		err error
	}
	notified struct {
		gen  uint64
		data []byte
		at   time.Time
	}
	linkLost       struct{ gen uint64 }
	reconnectFired struct{ gen uint64 }
)

func (startScanCmd) isInput()     {}
func (disconnectCmd) isInput()    {}
func (capabilityDenied) isInput() {}
func (scanMatched) isInput()      {}
func (scanFailed) isInput()       {}
func (scanTimedOut) isInput()     {}
func (dialed) isInput()           {}
func (settled) isInput()          {}
func (discovered) isInput()       {}
func (subscribed) isInput()       {}
func (notified) isInput()         {}
func (linkLost) isInput()         {}
func (reconnectFired) isInput()   {}
