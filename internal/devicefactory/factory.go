// Package devicefactory selects the BLE backend used by the commands.
// The factories are variables so tests can substitute fakes.
package devicefactory

import (
	"github.com/sirupsen/logrus"
	"github.com/srg/hrmwatch/internal/capability"
	"github.com/srg/hrmwatch/internal/device"
	goble "github.com/srg/hrmwatch/internal/device/go-ble"
)

// Adapter is a device.Adapter that holds platform resources until Close.
type Adapter interface {
	device.Adapter
	Close() error
}

// AdapterFactory creates the platform BLE adapter.
var AdapterFactory = func(logger *logrus.Logger) Adapter {
	return goble.NewAdapter(logger)
}

// GateFactory creates the capability gate for the current platform.
var GateFactory = func() *capability.Gate {
	return goble.Capabilities()
}
