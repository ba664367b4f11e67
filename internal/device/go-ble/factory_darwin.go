//go:build darwin

package goble

import "github.com/go-ble/ble/darwin"

// implicitCCCD reports whether the platform stack hides the CCCD descriptor.
// CoreBluetooth writes it itself in setNotifyValue and does not always list it.
const implicitCCCD = true

func newPlatformDevice() (Central, error) {
	dev, err := darwin.NewDevice()
	if err != nil {
		return nil, err
	}
	return dev, nil
}
