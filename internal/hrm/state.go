package hrm

import "fmt"

// State is the connection lifecycle position of a Manager.
type State int

const (
	Idle State = iota
	Scanning
	Connecting
	ServiceDiscovery
	Subscribing
	Streaming
	Disconnected
	Failed
)

var stateNames = [...]string{
	Idle:             "idle",
	Scanning:         "scanning",
	Connecting:       "connecting",
	ServiceDiscovery: "service_discovery",
	Subscribing:      "subscribing",
	Streaming:        "streaming",
	Disconnected:     "disconnected",
	Failed:           "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Connected reports whether a logical connection may be held in this state.
func (s State) Connected() bool {
	switch s {
	case ServiceDiscovery, Subscribing, Streaming:
		return true
	}
	return false
}

// DeviceHandle identifies the peripheral selected by the scanner.
type DeviceHandle struct {
	Address string
	Name    string
}

func (d DeviceHandle) String() string {
	if d.Name == "" {
		return d.Address
	}
	return fmt.Sprintf("%s (%s)", d.Name, d.Address)
}
