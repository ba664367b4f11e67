package alarm_test

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/hrmwatch/internal/alarm"
	"github.com/srg/hrmwatch/internal/events"
	"github.com/srg/hrmwatch/internal/heartrate"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type mockAlarm struct {
	mock.Mock
}

func (m *mockAlarm) Start(rate, maxRate int) { m.Called(rate, maxRate) }
func (m *mockAlarm) Stop()                   { m.Called() }
func (m *mockAlarm) Pulse(rate, maxRate int) { m.Called(rate, maxRate) }

type MonitorTestSuite struct {
	suite.Suite
	alarm   *mockAlarm
	maxRate int
	now     time.Time
	monitor *alarm.Monitor
}

func (suite *MonitorTestSuite) SetupTest() {
	suite.alarm = &mockAlarm{}
	suite.maxRate = 120
	suite.now = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	suite.monitor = alarm.NewMonitor(alarm.ThresholdFunc(func() int { return suite.maxRate }), suite.alarm, 0, logger)
	suite.monitor.Now = func() time.Time { return suite.now }
}

func (suite *MonitorTestSuite) TearDownTest() {
	suite.alarm.AssertExpectations(suite.T())
}

// sample feeds a DataUpdate and advances the clock by after.
func (suite *MonitorTestSuite) sample(bpm int, after time.Duration) {
	suite.Require().NoError(suite.monitor.Handle(events.DataUpdate(heartrate.Sample{Rate: bpm})))
	suite.now = suite.now.Add(after)
}

func (suite *MonitorTestSuite) TestAlarmStartsAboveAndStopsBelow() {
	// GOAL: Verify the alarm follows the threshold with start/stop edges only
	//
	// TEST SCENARIO: 130 → start; 140 after 3s → no second start; 110 after 3s → stop

	suite.alarm.On("Start", 130, 120).Once()
	suite.alarm.On("Stop").Once()

	suite.sample(130, 3*time.Second)
	suite.True(suite.monitor.Active())
	suite.sample(140, 3*time.Second)
	suite.sample(110, 3*time.Second)
	suite.False(suite.monitor.Active())
}

func (suite *MonitorTestSuite) TestEvaluationIsThrottled() {
	// GOAL: Verify samples inside the interval are not evaluated
	//
	// TEST SCENARIO: 100 at t0 → 150 at t0+1s ignored → 150 at t0+2.6s raises the alarm

	suite.alarm.On("Start", 150, 120).Once()

	suite.sample(100, time.Second)
	suite.sample(150, 1600*time.Millisecond)
	suite.False(suite.monitor.Active(), "sample inside the interval MUST be skipped")
	suite.sample(150, 0)
	suite.True(suite.monitor.Active())
}

func (suite *MonitorTestSuite) TestThresholdIsReadOnEveryEvaluation() {
	suite.alarm.On("Start", 110, 100).Once()

	suite.sample(110, 3*time.Second)
	suite.False(suite.monitor.Active())

	suite.maxRate = 100
	suite.sample(110, 0)
	suite.True(suite.monitor.Active(), "lowered maximum MUST apply immediately")
}

func (suite *MonitorTestSuite) TestEqualToMaximumIsNotAlarm() {
	suite.sample(120, 0)
	suite.False(suite.monitor.Active())
}

func (suite *MonitorTestSuite) TestPulseWhenEnabled() {
	suite.monitor.Pulse = true
	suite.alarm.On("Start", 125, 120).Once()
	suite.alarm.On("Pulse", 125, 120).Once()
	suite.alarm.On("Pulse", 127, 120).Once()

	suite.sample(125, 3*time.Second)
	suite.sample(127, 3*time.Second)
}

func (suite *MonitorTestSuite) TestErrorEventStopsAlarm() {
	suite.alarm.On("Start", 130, 120).Once()
	suite.alarm.On("Stop").Once()
	suite.sample(130, 0)

	err := suite.monitor.Handle(events.Error("scan failed"))
	var serr *alarm.ServiceError
	suite.Require().ErrorAs(err, &serr)
	suite.Equal("scan failed", serr.Message)
	suite.False(suite.monitor.Active())
}

func (suite *MonitorTestSuite) TestRunReturnsOnClosedSubscription() {
	sink := events.NewServiceSink()
	sub := sink.Subscribe()
	sub.Cancel()

	suite.NoError(suite.monitor.Run(context.Background(), sub))
}

func (suite *MonitorTestSuite) TestRunReturnsServiceError() {
	sink := events.NewServiceSink()
	sub := sink.Subscribe()
	defer sub.Cancel()
	sink.Publish(events.Error("no heart rate monitor found"))

	err := suite.monitor.Run(context.Background(), sub)
	suite.EqualError(err, "heart rate service error: no heart rate monitor found")
}

func (suite *MonitorTestSuite) TestRunStopsOnCancel() {
	sink := events.NewServiceSink()
	sub := sink.Subscribe()
	defer sub.Cancel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	suite.NoError(suite.monitor.Run(ctx, sub))
}

func TestMonitorTestSuite(t *testing.T) {
	suite.Run(t, new(MonitorTestSuite))
}
