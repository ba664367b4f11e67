package device

import (
	"sort"

	"github.com/srg/hrmwatch/internal/bledb"
)

// Profile is the GATT database discovered on a peripheral.
type Profile struct {
	Services []*Service
}

// Service represents a GATT service and its characteristics
type Service struct {
	UUID            string // normalized
	Characteristics []*Characteristic
}

// Characteristic represents a GATT characteristic
type Characteristic struct {
	UUID        string // normalized
	Notify      bool
	Indicate    bool
	Descriptors []string // normalized descriptor UUIDs
}

// KnownName returns the SIG name of the service, or "" if unknown
func (s *Service) KnownName() string {
	return bledb.LookupService(s.UUID)
}

// KnownName returns the SIG name of the characteristic, or "" if unknown
func (c *Characteristic) KnownName() string {
	return bledb.LookupCharacteristic(c.UUID)
}

// Service looks up a service by UUID in any accepted format.
// Returns a NotFoundError if the service is not present.
func (p *Profile) Service(uuid string) (*Service, error) {
	want := NormalizeUUID(uuid)
	if p != nil {
		for _, s := range p.Services {
			if s.UUID == want {
				return s, nil
			}
		}
	}
	return nil, &NotFoundError{Resource: "service", UUIDs: []string{want}}
}

// Characteristic looks up a characteristic by service and characteristic UUID.
func (p *Profile) Characteristic(service, uuid string) (*Characteristic, error) {
	svc, err := p.Service(service)
	if err != nil {
		return nil, err
	}
	want := NormalizeUUID(uuid)
	for _, c := range svc.Characteristics {
		if c.UUID == want {
			return c, nil
		}
	}
	return nil, &NotFoundError{Resource: "characteristic", UUIDs: []string{svc.UUID, want}}
}

// HasDescriptor reports whether the characteristic exposes the descriptor.
func (c *Characteristic) HasDescriptor(uuid string) bool {
	want := NormalizeUUID(uuid)
	for _, d := range c.Descriptors {
		if d == want {
			return true
		}
	}
	return false
}

// Sort orders services, characteristics and descriptors by UUID for stable output.
func (p *Profile) Sort() {
	sort.Slice(p.Services, func(i, j int) bool { return p.Services[i].UUID < p.Services[j].UUID })
	for _, s := range p.Services {
		sort.Slice(s.Characteristics, func(i, j int) bool { return s.Characteristics[i].UUID < s.Characteristics[j].UUID })
		for _, c := range s.Characteristics {
			sort.Strings(c.Descriptors)
		}
	}
}
