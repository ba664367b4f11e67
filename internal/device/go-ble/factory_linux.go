//go:build linux

package goble

import "github.com/go-ble/ble/linux"

// implicitCCCD reports whether the platform stack hides the CCCD descriptor.
// BlueZ HCI exposes it, so it must be discovered like any other descriptor.
const implicitCCCD = false

func newPlatformDevice() (Central, error) {
	dev, err := linux.NewDevice()
	if err != nil {
		return nil, err
	}
	return dev, nil
}
