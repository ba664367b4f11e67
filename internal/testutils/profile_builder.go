package testutils

import (
	"github.com/srg/hrmwatch/internal/device"
)

// ProfileBuilder assembles a device.Profile service by service.
type ProfileBuilder struct {
	profile device.Profile
	current *device.Service
}

func NewProfileBuilder() *ProfileBuilder {
	return &ProfileBuilder{}
}

// WithService starts a new service; following characteristics are added to it.
func (b *ProfileBuilder) WithService(uuid string) *ProfileBuilder {
	b.current = &device.Service{UUID: device.NormalizeUUID(uuid)}
	b.profile.Services = append(b.profile.Services, b.current)
	return b
}

// WithNotifyCharacteristic adds a notifying characteristic with the given descriptors.
func (b *ProfileBuilder) WithNotifyCharacteristic(uuid string, descriptors ...string) *ProfileBuilder {
	return b.withCharacteristic(&device.Characteristic{Notify: true}, uuid, descriptors)
}

// WithCharacteristic adds a characteristic without notify or indicate support.
func (b *ProfileBuilder) WithCharacteristic(uuid string, descriptors ...string) *ProfileBuilder {
	return b.withCharacteristic(&device.Characteristic{}, uuid, descriptors)
}

func (b *ProfileBuilder) withCharacteristic(c *device.Characteristic, uuid string, descriptors []string) *ProfileBuilder {
	if b.current == nil {
		panic("testutils: WithService must be called before adding characteristics")
	}
	c.UUID = device.NormalizeUUID(uuid)
	c.Descriptors = device.NormalizeUUIDs(descriptors)
	b.current.Characteristics = append(b.current.Characteristics, c)
	return b
}

// Build returns the assembled profile.
func (b *ProfileBuilder) Build() *device.Profile {
	p := b.profile
	return &p
}

// HeartRateProfile is a well-formed heart-rate strap: Heart Rate Service with
// a notifying measurement characteristic and its CCCD, plus a battery service.
func HeartRateProfile() *device.Profile {
	return NewProfileBuilder().
		WithService("180d").
		WithNotifyCharacteristic("2a37", "2902").
		WithCharacteristic("2a38").
		WithService("180f").
		WithNotifyCharacteristic("2a19", "2902").
		Build()
}
