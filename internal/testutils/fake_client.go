package testutils

import (
	"context"
	"sync"

	"github.com/srg/hrmwatch/internal/device"
)

// FakeClient is an in-memory device.Client. Tests drive it with Notify and Drop.
type FakeClient struct {
	address string

	mu           sync.Mutex
	Profile      *device.Profile
	DiscoverErr  error
	SubscribeErr error

	handler      func([]byte)
	subscribed   chan struct{}
	disconnected chan struct{}
	dropOnce     sync.Once
	cancels      int
	discoveries  int
}

func NewFakeClient(address string, profile *device.Profile) *FakeClient {
	return &FakeClient{
		address:      address,
		Profile:      profile,
		subscribed:   make(chan struct{}),
		disconnected: make(chan struct{}),
	}
}

func (c *FakeClient) Address() string { return c.address }

func (c *FakeClient) DiscoverProfile(ctx context.Context) (*device.Profile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.discoveries++

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.DiscoverErr != nil {
		return nil, c.DiscoverErr
	}
	return c.Profile, nil
}

func (c *FakeClient) Subscribe(service, characteristic string, handler func([]byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.SubscribeErr != nil {
		return c.SubscribeErr
	}
	if _, err := c.Profile.Characteristic(service, characteristic); err != nil {
		return err
	}
	if c.handler == nil {
		close(c.subscribed)
	}
	c.handler = handler
	return nil
}

func (c *FakeClient) Disconnected() <-chan struct{} { return c.disconnected }

func (c *FakeClient) CancelConnection() error {
	c.mu.Lock()
	c.cancels++
	c.mu.Unlock()

	c.Drop()
	return nil
}

// Subscribed is closed once a notification handler is registered.
func (c *FakeClient) Subscribed() <-chan struct{} { return c.subscribed }

// Notify delivers a measurement payload to the registered handler.
// It reports false when nothing is subscribed.
func (c *FakeClient) Notify(data []byte) bool {
	c.mu.Lock()
	h := c.handler
	c.mu.Unlock()

	if h == nil {
		return false
	}
	h(data)
	return true
}

// Drop simulates the peripheral going out of range.
func (c *FakeClient) Drop() {
	c.dropOnce.Do(func() { close(c.disconnected) })
}

// Cancels returns how many times CancelConnection was called.
func (c *FakeClient) Cancels() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancels
}

// Discoveries returns how many times DiscoverProfile was called.
func (c *FakeClient) Discoveries() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.discoveries
}
