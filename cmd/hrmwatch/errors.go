package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/srg/hrmwatch/internal/alarm"
	"github.com/srg/hrmwatch/internal/capability"
	"github.com/srg/hrmwatch/internal/device"
	"github.com/srg/hrmwatch/internal/hrm"
	"github.com/srg/hrmwatch/pkg/config"
)

// capabilityHints explains how to obtain each missing capability.
var capabilityHints = map[capability.Capability]string{
	capability.Hardware: "no Bluetooth adapter found",
	capability.Scan:     "scanning needs CAP_NET_ADMIN (run as root or use setcap)",
	capability.Connect:  "connecting needs CAP_NET_RAW (run as root or use setcap)",
	capability.Location: "location access is required for scanning",
}

// FormatUserError turns known errors into a one-line message for the terminal.
func FormatUserError(err error) string {
	if err == nil {
		return ""
	}

	var capErr *capability.CapabilityError
	if errors.As(err, &capErr) {
		hints := make([]string, 0, len(capErr.Missing))
		for _, c := range capErr.Missing {
			if h, ok := capabilityHints[c]; ok {
				hints = append(hints, h)
			} else {
				hints = append(hints, string(c))
			}
		}
		return "cannot use Bluetooth: " + strings.Join(hints, "; ")
	}

	if errors.Is(err, device.ErrBluetoothOff) {
		return "Bluetooth is turned off; enable it and try again"
	}
	if errors.Is(err, hrm.ErrNoDeviceFound) {
		return "no heart rate monitor found; wear the strap so it starts advertising and try again"
	}

	var svcErr *alarm.ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Message
	}

	if errors.Is(err, config.ErrUnknownKey) {
		return fmt.Sprintf("%s (known settings: %s)", err, strings.Join(config.Keys(), ", "))
	}
	return err.Error()
}
