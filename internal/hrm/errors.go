package hrm

import (
	"errors"
	"fmt"

	"github.com/srg/hrmwatch/internal/device"
)

// ErrNoDeviceFound is reported when a scan times out without a match.
var ErrNoDeviceFound = errors.New("no heart rate monitor found")

// ErrClosed is returned by Manager calls made after Close.
var ErrClosed = errors.New("heart rate manager closed")

// ScanError reports a scan that failed to start or was aborted by the platform.
type ScanError struct {
	Err error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan failed: %v", e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// Step names the connection phase a ConnectionStepError happened in.
type Step string

const (
	StepConnect   Step = "connect"
	StepDiscover  Step = "service discovery"
	StepSubscribe Step = "subscribe"
	StepLink      Step = "link"
)

// ConnectionStepError reports a failure during one connection phase.
type ConnectionStepError struct {
	Step Step
	Err  error
}

func (e *ConnectionStepError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *ConnectionStepError) Unwrap() error { return e.Err }

// Transient reports whether the failure is worth a reconnect attempt.
// Structural problems (missing service, characteristic or descriptor, a
// rejected descriptor write) are not.
func (e *ConnectionStepError) Transient() bool {
	switch e.Step {
	case StepConnect, StepLink:
		return true
	case StepSubscribe:
		return errors.Is(e.Err, device.ErrNotConnected)
	}
	var nf *device.NotFoundError
	return !errors.As(e.Err, &nf) && !errors.Is(e.Err, device.ErrUnsupported)
}

var errMissingCCCD = errors.New("client characteristic configuration descriptor not found")
