package device

import (
	"context"
	"errors"
	"fmt"
)

// NotFoundError represents an error when a GATT attribute is not found
type NotFoundError struct {
	Resource string   // "service", "characteristic", "descriptor"
	UUIDs    []string // One or more UUIDs (e.g., [serviceUUID] or [serviceUUID, charUUID])
}

func (e *NotFoundError) Error() string {
	if len(e.UUIDs) == 0 {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	if len(e.UUIDs) == 1 {
		return fmt.Sprintf("%s %q not found", e.Resource, e.UUIDs[0])
	}
	// For BLE hierarchy: characteristic is in service, descriptor is in characteristic
	parentResource := "service"
	if e.Resource == "descriptor" {
		parentResource = "characteristic"
	}
	return fmt.Sprintf("%s %q not found in %s %q", e.Resource, e.UUIDs[len(e.UUIDs)-1], parentResource, e.UUIDs[len(e.UUIDs)-2])
}

// ConnectionState represents the specific kind of connection state failure
type ConnectionState string

const (
	NotConnected     ConnectionState = "not_connected"
	AlreadyConnected ConnectionState = "already_connected"
	BluetoothOff     ConnectionState = "bluetooth is turned off"
)

// ConnectionError represents any connection-related problem
type ConnectionError struct {
	State ConnectionState
	Msg   string
}

// Error implements the error interface
func (e *ConnectionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.State)
	}
	return fmt.Sprintf("%s: %s", e.State, e.Msg)
}

// Is allows errors.Is to compare ConnectionError values by State
func (e *ConnectionError) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*ConnectionError)
	if !ok {
		return false
	}
	return e.State == t.State
}

// Predefined sentinel errors for connection states
var (
	ErrNotConnected     = &ConnectionError{State: NotConnected}
	ErrAlreadyConnected = &ConnectionError{State: AlreadyConnected}
	ErrBluetoothOff     = &ConnectionError{State: BluetoothOff}
)

// Operation errors
var (
	ErrTimeout     = errors.New("timeout")
	ErrUnsupported = errors.New("unsupported")
)

// IsConnectionState reports whether err is a ConnectionError with the given state
func IsConnectionState(err error, state ConnectionState) bool {
	var cerr *ConnectionError
	if errors.As(err, &cerr) {
		return cerr.State == state
	}
	return false
}

// Advertisement is a single advertising report observed while scanning.
type Advertisement interface {
	LocalName() string
	Services() []string // normalized service UUIDs
	ManufacturerData() []byte
	Connectable() bool
	RSSI() int
	Addr() string
}

// ScanningDevice represents a BLE device capable of scanning for advertisements.
// Scan blocks until ctx is done or the scan fails.
type ScanningDevice interface {
	Scan(ctx context.Context, allowDup bool, handler func(Advertisement)) error
}

// Adapter is the local BLE central: it scans and dials peripherals.
type Adapter interface {
	ScanningDevice

	// Dial opens a logical connection to the peripheral with the given address.
	Dial(ctx context.Context, address string) (Client, error)
}

// Client is a live connection to one peripheral.
type Client interface {
	Address() string

	// DiscoverProfile enumerates services, characteristics and descriptors.
	DiscoverProfile(ctx context.Context) (*Profile, error)

	// Subscribe enables notifications on a characteristic. It writes the
	// Client Characteristic Configuration descriptor and returns once the
	// peripheral acknowledged the write.
	Subscribe(service, characteristic string, handler func(data []byte)) error

	// Disconnected is closed when the link drops or the connection is cancelled.
	Disconnected() <-chan struct{}

	// CancelConnection closes the logical connection. Safe to call more than once.
	CancelConnection() error
}
