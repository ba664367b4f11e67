package goble

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/srg/hrmwatch/internal/device"
)

// Central is the part of ble.Device the adapter relies on.
type Central interface {
	Scan(ctx context.Context, allowDup bool, h ble.AdvHandler) error
	Dial(ctx context.Context, a ble.Addr) (ble.Client, error)
	Stop() error
}

// DeviceFactory creates the platform BLE central (can be overridden in tests)
//
//nolint:revive // DeviceFactory name is intentional for test mocking
var DeviceFactory = newPlatformDevice

// Adapter implements device.Adapter on top of go-ble. The platform central is
// created lazily on first use and shared by scans and connections.
type Adapter struct {
	mu     sync.Mutex
	dev    Central
	logger *logrus.Logger
}

// NewAdapter creates an adapter; no radio resources are acquired until the first Scan or Dial.
func NewAdapter(logger *logrus.Logger) *Adapter {
	if logger == nil {
		logger = logrus.New()
	}
	return &Adapter{logger: logger}
}

func (a *Adapter) central() (Central, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.dev != nil {
		return a.dev, nil
	}
	dev, err := DeviceFactory()
	if err != nil {
		// not cached: the adapter may be powered on later
		return nil, NormalizeError(err)
	}
	a.logger.Debug("BLE central initialized")
	a.dev = dev
	return dev, nil
}

// Scan wraps the raw Central.Scan to convert ble.Advertisement to the device.Advertisement
func (a *Adapter) Scan(ctx context.Context, allowDup bool, handler func(device.Advertisement)) error {
	dev, err := a.central()
	if err != nil {
		return fmt.Errorf("failed to create BLE device: %w", err)
	}

	err = dev.Scan(ctx, allowDup, func(adv ble.Advertisement) {
		handler(NewBLEAdvertisement(adv))
	})
	if err != nil {
		return NormalizeError(err)
	}
	return nil
}

// Dial connects to the peripheral at address.
func (a *Adapter) Dial(ctx context.Context, address string) (device.Client, error) {
	if strings.TrimSpace(address) == "" {
		return nil, errors.New("device address is empty")
	}
	dev, err := a.central()
	if err != nil {
		return nil, fmt.Errorf("failed to create BLE device: %w", err)
	}

	a.logger.WithField("address", address).Debug("Dialing BLE device...")
	client, err := dev.Dial(ctx, ble.NewAddr(address))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to device with address %q: %w", address, NormalizeError(err))
	}
	return newClient(address, client, a.logger), nil
}

// Close releases the platform central.
func (a *Adapter) Close() error {
	a.mu.Lock()
	dev := a.dev
	a.dev = nil
	a.mu.Unlock()

	if dev == nil {
		return nil
	}
	return NormalizeError(dev.Stop())
}
