package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/srg/hrmwatch/internal/device"
)

// FakeAdapter is an in-memory device.Adapter. Scans replay Advertisements and
// then block until cancelled; Advertise injects more while a scan is running.
// Dial hands out FakeClients configured from the adapter fields.
type FakeAdapter struct {
	mu sync.Mutex

	// Advertisements are delivered at the start of every scan.
	Advertisements []device.Advertisement
	// ScanErr makes Scan fail immediately.
	ScanErr error

	// DialErr makes Dial fail; DialFunc overrides Dial entirely.
	DialErr  error
	DialFunc func(ctx context.Context, address string) (device.Client, error)

	// Profile, DiscoverErr and SubscribeErr are copied into each dialled client.
	Profile      *device.Profile
	DiscoverErr  error
	SubscribeErr error

	handlers  map[int]func(device.Advertisement)
	nextScan  int
	scans     int
	maxActive int
	dials     []string
	clients   []*FakeClient
	changed   chan struct{}
}

// NewFakeAdapter returns an adapter whose clients expose HeartRateProfile.
func NewFakeAdapter() *FakeAdapter {
	return &FakeAdapter{
		Profile:  HeartRateProfile(),
		handlers: make(map[int]func(device.Advertisement)),
		changed:  make(chan struct{}),
	}
}

// notifyLocked wakes everyone waiting in WaitFor. Caller holds mu.
func (a *FakeAdapter) notifyLocked() {
	close(a.changed)
	a.changed = make(chan struct{})
}

func (a *FakeAdapter) Scan(ctx context.Context, _ bool, handler func(device.Advertisement)) error {
	a.mu.Lock()
	a.scans++
	if a.ScanErr != nil {
		err := a.ScanErr
		a.notifyLocked()
		a.mu.Unlock()
		return err
	}
	id := a.nextScan
	a.nextScan++
	a.handlers[id] = handler
	if len(a.handlers) > a.maxActive {
		a.maxActive = len(a.handlers)
	}
	ads := append([]device.Advertisement(nil), a.Advertisements...)
	a.notifyLocked()
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		delete(a.handlers, id)
		a.notifyLocked()
		a.mu.Unlock()
	}()

	for _, adv := range ads {
		if ctx.Err() != nil {
			break
		}
		handler(adv)
	}

	<-ctx.Done()
	return ctx.Err()
}

// Advertise delivers adv to every running scan.
func (a *FakeAdapter) Advertise(adv device.Advertisement) {
	a.mu.Lock()
	handlers := make([]func(device.Advertisement), 0, len(a.handlers))
	for _, h := range a.handlers {
		handlers = append(handlers, h)
	}
	a.mu.Unlock()

	for _, h := range handlers {
		h(adv)
	}
}

func (a *FakeAdapter) Dial(ctx context.Context, address string) (device.Client, error) {
	a.mu.Lock()
	a.dials = append(a.dials, address)
	dialFunc, dialErr := a.DialFunc, a.DialErr
	a.notifyLocked()
	a.mu.Unlock()

	if dialFunc != nil {
		return dialFunc(ctx, address)
	}
	if dialErr != nil {
		return nil, dialErr
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	c := NewFakeClient(address, a.Profile)
	c.DiscoverErr = a.DiscoverErr
	c.SubscribeErr = a.SubscribeErr
	a.clients = append(a.clients, c)
	a.notifyLocked()
	return c, nil
}

// ActiveScans returns the number of scans currently running.
func (a *FakeAdapter) ActiveScans() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.handlers)
}

// MaxActiveScans returns the highest number of concurrently running scans seen.
func (a *FakeAdapter) MaxActiveScans() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.maxActive
}

// ScanCount returns how many times Scan was called.
func (a *FakeAdapter) ScanCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.scans
}

// Dials returns the addresses passed to Dial, in order.
func (a *FakeAdapter) Dials() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.dials...)
}

// Clients returns the clients handed out by Dial, in order.
func (a *FakeAdapter) Clients() []*FakeClient {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*FakeClient(nil), a.clients...)
}

// LastClient returns the most recently dialled client, or nil.
func (a *FakeAdapter) LastClient() *FakeClient {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.clients) == 0 {
		return nil
	}
	return a.clients[len(a.clients)-1]
}

// WaitFor blocks until cond holds or timeout elapses and reports whether it held.
// cond is evaluated without the adapter lock held.
func (a *FakeAdapter) WaitFor(timeout time.Duration, cond func(*FakeAdapter) bool) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		a.mu.Lock()
		changed := a.changed
		a.mu.Unlock()

		if cond(a) {
			return true
		}
		select {
		case <-changed:
		case <-deadline.C:
			return cond(a)
		}
	}
}
