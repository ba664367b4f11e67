package goble

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/srg/hrmwatch/internal/bledb"
	"github.com/srg/hrmwatch/internal/device"
	"github.com/srg/hrmwatch/internal/groutine"
)

const cccdUUID = "2902"

type charKey struct {
	service        string
	characteristic string
}

// BLEClient implements device.Client over a go-ble client.
type BLEClient struct {
	address string
	client  ble.Client
	logger  *logrus.Logger

	mu    sync.RWMutex
	chars map[charKey]*ble.Characteristic

	cancelOnce sync.Once
	cancelErr  error
}

func newClient(address string, client ble.Client, logger *logrus.Logger) *BLEClient {
	return &BLEClient{
		address: address,
		client:  client,
		logger:  logger,
		chars:   make(map[charKey]*ble.Characteristic),
	}
}

// Address returns the peripheral address this client was dialed with.
func (c *BLEClient) Address() string {
	return c.address
}

// DiscoverProfile runs full GATT discovery. go-ble discovery is not cancellable,
// so ctx only bounds how long the caller waits for it.
func (c *BLEClient) DiscoverProfile(ctx context.Context) (*device.Profile, error) {
	type result struct {
		profile *ble.Profile
		err     error
	}
	done := make(chan result, 1)

	groutine.Go(ctx, "ble-discover-profile", func(context.Context) {
		p, err := c.client.DiscoverProfile(true)
		done <- result{profile: p, err: err}
	})

	var r result
	select {
	case r = <-done:
	case <-ctx.Done():
		return nil, fmt.Errorf("failed to discover profile: %w", NormalizeError(ctx.Err()))
	}
	if r.err != nil {
		return nil, fmt.Errorf("failed to discover profile: %w", NormalizeError(r.err))
	}

	profile, chars := convertProfile(r.profile)

	c.mu.Lock()
	c.chars = chars
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"address":  c.address,
		"services": describeProfile(profile),
	}).Debug("Profile discovered successfully")
	return profile, nil
}

// Subscribe enables notifications (or indications when notify is unsupported)
// on a discovered characteristic.
func (c *BLEClient) Subscribe(service, characteristic string, handler func(data []byte)) error {
	key := charKey{service: device.NormalizeUUID(service), characteristic: device.NormalizeUUID(characteristic)}

	c.mu.RLock()
	char, ok := c.chars[key]
	c.mu.RUnlock()
	if !ok {
		return &device.NotFoundError{Resource: "characteristic", UUIDs: []string{key.service, key.characteristic}}
	}

	if char.Property&(ble.CharNotify|ble.CharIndicate) == 0 {
		return fmt.Errorf("characteristic %s does not support notifications: %w", key.characteristic, device.ErrUnsupported)
	}
	indicate := char.Property&ble.CharNotify == 0

	if err := c.client.Subscribe(char, indicate, handler); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", key.characteristic, NormalizeError(err))
	}

	c.logger.WithFields(logrus.Fields{
		"serviceUUID": key.service,
		"charUUID":    key.characteristic,
		"indicate":    indicate,
	}).Info("Successfully subscribed to characteristic notifications")
	return nil
}

// Disconnected is closed by go-ble when the link goes down. Clients without
// link monitoring never report a loss.
func (c *BLEClient) Disconnected() <-chan struct{} {
	if dc, ok := c.client.(interface{ Disconnected() <-chan struct{} }); ok {
		return dc.Disconnected()
	}
	c.logger.Debug("Client does not support Disconnected() channel")
	return nil
}

// CancelConnection terminates the link. Repeated calls return the first result.
func (c *BLEClient) CancelConnection() error {
	c.cancelOnce.Do(func() {
		err := NormalizeError(c.client.CancelConnection())
		if errors.Is(err, device.ErrNotConnected) {
			err = nil
		}
		c.cancelErr = err
		if err != nil {
			c.logger.WithField("error", err).Warn("BLE device disconnected with errors")
		} else {
			c.logger.WithField("address", c.address).Info("BLE device disconnected successfully")
		}
	})
	return c.cancelErr
}

// convertProfile maps a go-ble profile to device types and indexes the live
// characteristics for later subscription.
func convertProfile(p *ble.Profile) (*device.Profile, map[charKey]*ble.Characteristic) {
	profile := &device.Profile{}
	chars := make(map[charKey]*ble.Characteristic)
	if p == nil {
		return profile, chars
	}

	for _, bleSvc := range p.Services {
		svc := &device.Service{UUID: device.NormalizeUUID(bleSvc.UUID.String())}

		for _, bleChar := range bleSvc.Characteristics {
			char := &device.Characteristic{
				UUID:     device.NormalizeUUID(bleChar.UUID.String()),
				Notify:   bleChar.Property&ble.CharNotify != 0,
				Indicate: bleChar.Property&ble.CharIndicate != 0,
			}
			for _, d := range bleChar.Descriptors {
				char.Descriptors = append(char.Descriptors, device.NormalizeUUID(d.UUID.String()))
			}
			if !char.HasDescriptor(cccdUUID) && (bleChar.CCCD != nil || (implicitCCCD && (char.Notify || char.Indicate))) {
				char.Descriptors = append(char.Descriptors, cccdUUID)
			}

			svc.Characteristics = append(svc.Characteristics, char)
			chars[charKey{service: svc.UUID, characteristic: char.UUID}] = bleChar
		}
		profile.Services = append(profile.Services, svc)
	}

	profile.Sort()
	return profile, chars
}

// describeProfile renders a short summary for debug logs.
func describeProfile(p *device.Profile) []string {
	var out []string
	for _, s := range p.Services {
		name := bledb.LookupService(s.UUID)
		if name == "" {
			name = "unknown"
		}
		out = append(out, fmt.Sprintf("%s (%s, %d characteristics)", s.UUID, name, len(s.Characteristics)))
	}
	return out
}
