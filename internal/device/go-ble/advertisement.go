package goble

import (
	"github.com/go-ble/ble"
	"github.com/srg/hrmwatch/internal/device"
)

// BLEAdvertisement wraps ble.Advertisement to implement device.Advertisement interface
type BLEAdvertisement struct {
	adv ble.Advertisement
}

// NewBLEAdvertisement creates a new BLEAdvertisement wrapper
func NewBLEAdvertisement(adv ble.Advertisement) device.Advertisement {
	return &BLEAdvertisement{adv: adv}
}

func (a *BLEAdvertisement) LocalName() string        { return a.adv.LocalName() }
func (a *BLEAdvertisement) ManufacturerData() []byte { return a.adv.ManufacturerData() }
func (a *BLEAdvertisement) Connectable() bool        { return a.adv.Connectable() }
func (a *BLEAdvertisement) RSSI() int                { return a.adv.RSSI() }
func (a *BLEAdvertisement) Addr() string             { return a.adv.Addr().String() }

// Services returns advertised service UUIDs, including the overflow area, normalized.
func (a *BLEAdvertisement) Services() []string {
	return normalizeUUIDs(a.adv.Services(), a.adv.OverflowService())
}

func normalizeUUIDs(lists ...[]ble.UUID) []string {
	var result []string
	for _, list := range lists {
		for _, u := range list {
			result = append(result, device.NormalizeUUID(u.String()))
		}
	}
	return result
}
