package capability_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/srg/hrmwatch/internal/capability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixed(v bool) capability.Check {
	return func(context.Context) bool { return v }
}

func TestGate_AllGranted(t *testing.T) {
	gate := capability.Standard(fixed(true), fixed(true), fixed(true), fixed(true))

	assert.NoError(t, gate.Check(context.Background()), "fully granted gate MUST pass")
	assert.Equal(t,
		[]capability.Capability{capability.Hardware, capability.Scan, capability.Connect, capability.Location},
		gate.Capabilities(),
		"checks MUST be registered in hardware, scan, connect, location order")
}

func TestGate_ReportsMissingInOrder(t *testing.T) {
	gate := capability.Standard(fixed(true), fixed(false), fixed(true), fixed(false))

	err := gate.Check(context.Background())
	require.Error(t, err)

	var capErr *capability.CapabilityError
	require.ErrorAs(t, err, &capErr, "error MUST be a CapabilityError")
	assert.Equal(t, []capability.Capability{capability.Scan, capability.Location}, capErr.Missing)
	assert.True(t, capErr.Has(capability.Location))
	assert.False(t, capErr.Has(capability.Hardware))
	assert.Equal(t, "missing capabilities: scan_permission, location_permission", err.Error())

	wrapped := fmt.Errorf("start scan: %w", err)
	assert.True(t, errors.Is(wrapped, capability.ErrMissingCapability), "wrapped error MUST match ErrMissingCapability")
}

func TestGate_NilCheckCountsAsMissing(t *testing.T) {
	gate := capability.NewGate().Require(capability.Hardware, nil)

	var capErr *capability.CapabilityError
	require.ErrorAs(t, gate.Check(context.Background()), &capErr)
	assert.Equal(t, []capability.Capability{capability.Hardware}, capErr.Missing)
}

func TestGate_NotCached(t *testing.T) {
	// GOAL: grants can change between calls, so every Check re-evaluates
	var scanGranted atomic.Bool
	var calls atomic.Int32
	gate := capability.Standard(
		capability.Always,
		func(context.Context) bool { calls.Add(1); return scanGranted.Load() },
		capability.Always,
		capability.Always,
	)

	assert.Error(t, gate.Check(context.Background()), "MUST fail while scan permission is denied")
	scanGranted.Store(true)
	assert.NoError(t, gate.Check(context.Background()), "MUST pass once permission is granted")
	assert.Equal(t, int32(2), calls.Load(), "check MUST run on every call")
}

func TestGate_RequireReplacesKeepingOrder(t *testing.T) {
	gate := capability.Standard(fixed(false), fixed(true), fixed(true), fixed(true))
	gate.Require(capability.Hardware, fixed(true))

	assert.NoError(t, gate.Check(context.Background()))
	assert.Equal(t, capability.Hardware, gate.Capabilities()[0], "replaced check MUST keep its position")
}

func TestGate_NilGateGrants(t *testing.T) {
	var gate *capability.Gate
	assert.NoError(t, gate.Check(context.Background()))
}
