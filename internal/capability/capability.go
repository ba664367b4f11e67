// Package capability verifies that the runtime environment can drive a BLE
// radio before any scan or connection is attempted.
package capability

import (
	"context"
	"errors"
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Capability names a hardware feature or access grant.
type Capability string

const (
	Hardware Capability = "ble_hardware"
	Scan     Capability = "scan_permission"
	Connect  Capability = "connect_permission"
	Location Capability = "location_permission"
)

// Check reports whether a capability is currently available. Checks must be
// read-only queries.
type Check func(ctx context.Context) bool

// Always is a Check for capabilities the platform grants implicitly.
func Always(context.Context) bool { return true }

// ErrMissingCapability matches any *CapabilityError via errors.Is.
var ErrMissingCapability = errors.New("missing capability")

// CapabilityError lists every capability that was absent, in check order.
type CapabilityError struct {
	Missing []Capability
}

func (e *CapabilityError) Error() string {
	names := make([]string, len(e.Missing))
	for i, c := range e.Missing {
		names[i] = string(c)
	}
	return fmt.Sprintf("missing capabilities: %s", strings.Join(names, ", "))
}

// Is allows errors.Is(err, ErrMissingCapability).
func (e *CapabilityError) Is(target error) bool {
	return target == ErrMissingCapability
}

// Has reports whether c is among the missing capabilities.
func (e *CapabilityError) Has(c Capability) bool {
	for _, m := range e.Missing {
		if m == c {
			return true
		}
	}
	return false
}

// Gate evaluates capability checks in registration order.
type Gate struct {
	checks *orderedmap.OrderedMap[Capability, Check]
}

// NewGate creates an empty gate; an empty gate always grants.
func NewGate() *Gate {
	return &Gate{checks: orderedmap.New[Capability, Check]()}
}

// Standard builds the gate required before BLE scanning: hardware support,
// scan permission, connect permission and location permission, in that order.
func Standard(hardware, scan, connect, location Check) *Gate {
	return NewGate().
		Require(Hardware, hardware).
		Require(Scan, scan).
		Require(Connect, connect).
		Require(Location, location)
}

// Require registers (or replaces, keeping its position) the check for c.
func (g *Gate) Require(c Capability, check Check) *Gate {
	g.checks.Set(c, check)
	return g
}

// Capabilities returns the registered capabilities in check order.
func (g *Gate) Capabilities() []Capability {
	out := make([]Capability, 0, g.checks.Len())
	for pair := g.checks.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// Check runs every check, without caching, and returns a *CapabilityError
// naming all absent capabilities, or nil when everything is granted.
func (g *Gate) Check(ctx context.Context) error {
	if g == nil {
		return nil
	}

	var missing []Capability
	for pair := g.checks.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value == nil || !pair.Value(ctx) {
			missing = append(missing, pair.Key)
		}
	}
	if len(missing) > 0 {
		return &CapabilityError{Missing: missing}
	}
	return nil
}
