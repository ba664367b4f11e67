//go:build linux

package goble

import (
	"context"
	"os"
	"strings"

	"github.com/srg/hrmwatch/internal/capability"
	"golang.org/x/sys/unix"
)

const sysfsBluetooth = "/sys/class/bluetooth"

// Capabilities returns the capability gate for raw HCI access on Linux.
// Scanning needs CAP_NET_ADMIN (LE scan parameters), connecting needs
// CAP_NET_RAW (HCI user channel). Linux has no location gate for BLE scans.
func Capabilities() *capability.Gate {
	return capability.Standard(
		hasHCIDevice,
		hasCapability(unix.CAP_NET_ADMIN),
		hasCapability(unix.CAP_NET_RAW),
		capability.Always,
	)
}

func hasHCIDevice(context.Context) bool {
	entries, err := os.ReadDir(sysfsBluetooth)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "hci") {
			return true
		}
	}
	return false
}

func hasCapability(capNum int) capability.Check {
	return func(context.Context) bool {
		if os.Geteuid() == 0 {
			return true
		}
		hdr := unix.CapUserHeader{Version: unix.LINUX_CAPABILITY_VERSION_3}
		var data [2]unix.CapUserData
		if err := unix.Capget(&hdr, &data[0]); err != nil {
			return false
		}
		return data[capNum/32].Effective&(1<<(uint(capNum)%32)) != 0
	}
}
