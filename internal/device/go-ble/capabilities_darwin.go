//go:build darwin

package goble

import "github.com/srg/hrmwatch/internal/capability"

// Capabilities returns the capability gate for CoreBluetooth. Every Mac ships
// a BLE radio, and the Bluetooth privacy prompt is raised by the OS on first
// use; a denial surfaces later as a scan error.
func Capabilities() *capability.Gate {
	return capability.Standard(
		capability.Always,
		capability.Always,
		capability.Always,
		capability.Always,
	)
}
