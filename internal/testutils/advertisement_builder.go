package testutils

import "github.com/srg/hrmwatch/internal/device"

// FakeAdvertisement is a static device.Advertisement.
type FakeAdvertisement struct {
	Name        string
	Address     string
	ServiceList []string
	ManufData   []byte
	Signal      int
	Connect     bool
}

func (a *FakeAdvertisement) LocalName() string        { return a.Name }
func (a *FakeAdvertisement) Services() []string       { return device.NormalizeUUIDs(a.ServiceList) }
func (a *FakeAdvertisement) ManufacturerData() []byte { return a.ManufData }
func (a *FakeAdvertisement) Connectable() bool        { return a.Connect }
func (a *FakeAdvertisement) RSSI() int                { return a.Signal }
func (a *FakeAdvertisement) Addr() string             { return a.Address }

// AdvertisementBuilder builds fake advertisements with a fluent API.
//
//	adv := NewAdvertisementBuilder().
//	    WithName("HRM-Dual:123").
//	    WithAddress("AA:BB:CC:DD:EE:FF").
//	    WithServices("180D").
//	    Build()
type AdvertisementBuilder struct {
	adv FakeAdvertisement
}

// NewAdvertisementBuilder starts a connectable advertisement with RSSI -60.
func NewAdvertisementBuilder() *AdvertisementBuilder {
	return &AdvertisementBuilder{adv: FakeAdvertisement{Connect: true, Signal: -60}}
}

func (b *AdvertisementBuilder) WithName(name string) *AdvertisementBuilder {
	b.adv.Name = name
	return b
}

func (b *AdvertisementBuilder) WithAddress(addr string) *AdvertisementBuilder {
	b.adv.Address = addr
	return b
}

// WithServices appends advertised service UUIDs in any accepted format.
func (b *AdvertisementBuilder) WithServices(uuids ...string) *AdvertisementBuilder {
	b.adv.ServiceList = append(b.adv.ServiceList, uuids...)
	return b
}

func (b *AdvertisementBuilder) WithManufacturerData(data []byte) *AdvertisementBuilder {
	b.adv.ManufData = data
	return b
}

func (b *AdvertisementBuilder) WithRSSI(rssi int) *AdvertisementBuilder {
	b.adv.Signal = rssi
	return b
}

func (b *AdvertisementBuilder) WithConnectable(connectable bool) *AdvertisementBuilder {
	b.adv.Connect = connectable
	return b
}

// Build returns a copy of the configured advertisement.
func (b *AdvertisementBuilder) Build() device.Advertisement {
	adv := b.adv
	adv.ServiceList = append([]string(nil), b.adv.ServiceList...)
	return &adv
}
