package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/srg/hrmwatch/internal/capability"
	"github.com/srg/hrmwatch/internal/device"
	"github.com/srg/hrmwatch/internal/devicefactory"
	"github.com/srg/hrmwatch/internal/testutils"
	"github.com/stretchr/testify/suite"
)

const (
	TestStrapAddress = "aa:bb:cc:dd:ee:ff"
	TestStrapName    = "HRM-Dual:123456"
)

// syncBuffer is a bytes.Buffer safe for a command writing while the test reads.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// closableAdapter lets the fake adapter stand in for the platform adapter.
type closableAdapter struct {
	*testutils.FakeAdapter
	closed atomic.Bool
}

func (a *closableAdapter) Close() error {
	a.closed.Store(true)
	return nil
}

// CommandTestSuite swaps the BLE backend for fakes and isolates the settings file.
// All cmd/hrmwatch test suites should embed it.
type CommandTestSuite struct {
	suite.Suite

	Adapter    *closableAdapter
	Gate       *capability.Gate
	ConfigPath string

	originalAdapterFactory func(*logrus.Logger) devicefactory.Adapter
	originalGateFactory    func() *capability.Gate
}

func (s *CommandTestSuite) SetupTest() {
	fake := testutils.NewFakeAdapter()
	fake.Advertisements = []device.Advertisement{
		testutils.NewAdvertisementBuilder().
			WithName(TestStrapName).
			WithAddress(TestStrapAddress).
			WithServices("180d").
			Build(),
	}
	s.Adapter = &closableAdapter{FakeAdapter: fake}
	s.Gate = nil
	s.ConfigPath = filepath.Join(s.T().TempDir(), "config.yaml")

	s.originalAdapterFactory = devicefactory.AdapterFactory
	s.originalGateFactory = devicefactory.GateFactory
	devicefactory.AdapterFactory = func(*logrus.Logger) devicefactory.Adapter { return s.Adapter }
	devicefactory.GateFactory = func() *capability.Gate { return s.Gate }
}

func (s *CommandTestSuite) TearDownTest() {
	devicefactory.AdapterFactory = s.originalAdapterFactory
	devicefactory.GateFactory = s.originalGateFactory
}

// WriteConfig stores a settings file used by subsequent commands.
func (s *CommandTestSuite) WriteConfig(yaml string) {
	s.Require().NoError(os.WriteFile(s.ConfigPath, []byte(yaml), 0o644))
}

// ExecuteCommand runs hrmwatch with args and the suite settings file.
func (s *CommandTestSuite) ExecuteCommand(args ...string) (string, error) {
	return s.ExecuteCommandContext(context.Background(), new(syncBuffer), args...)
}

// ExecuteCommandContext runs hrmwatch with ctx, writing output into out.
func (s *CommandTestSuite) ExecuteCommandContext(ctx context.Context, out *syncBuffer, args ...string) (string, error) {
	cmd := newRootCmd()
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(append([]string{"--config", s.ConfigPath}, args...))
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

