package events_test

import (
	"sync"
	"testing"
	"time"

	"github.com/srg/hrmwatch/internal/events"
	"github.com/srg/hrmwatch/internal/heartrate"
	"github.com/stretchr/testify/suite"
)

type SinkTestSuite struct {
	suite.Suite
	sink *events.Sink[events.ServiceEvent]
}

func (suite *SinkTestSuite) SetupTest() {
	suite.sink = events.NewServiceSink()
}

func (suite *SinkTestSuite) receive(sub *events.Subscription[events.ServiceEvent]) events.ServiceEvent {
	select {
	case ev, ok := <-sub.C():
		suite.Require().True(ok, "subscription channel MUST be open")
		return ev
	case <-time.After(time.Second):
		suite.FailNow("timed out waiting for event")
		return events.ServiceEvent{}
	}
}

func (suite *SinkTestSuite) assertEmpty(sub *events.Subscription[events.ServiceEvent]) {
	select {
	case ev := <-sub.C():
		suite.Failf("unexpected event", "got %v", ev)
	default:
	}
}

func rate(bpm int) events.ServiceEvent {
	return events.DataUpdate(heartrate.Sample{Rate: bpm})
}

func (suite *SinkTestSuite) TestSubscribeReplaysCurrentValue() {
	// GOAL: Verify a new subscriber immediately observes the current value
	//
	// TEST SCENARIO: Subscribe to a fresh sink → None delivered → nothing else queued

	sub := suite.sink.Subscribe()
	defer sub.Cancel()

	suite.Equal(events.None(), suite.receive(sub), "first value MUST be the current value")
	suite.assertEmpty(sub)
}

func (suite *SinkTestSuite) TestLateSubscriberSeesOnlyLatest() {
	// GOAL: Verify late subscribers get no backlog beyond the current value
	//
	// TEST SCENARIO: Publish 72, Error("x"), 80 → subscribe → only DataUpdate(80) observed

	suite.sink.Publish(rate(72))
	suite.sink.Publish(events.Error("x"))
	suite.sink.Publish(rate(80))

	sub := suite.sink.Subscribe()
	defer sub.Cancel()

	suite.Equal(rate(80), suite.receive(sub), "late subscriber MUST see the latest value")
	suite.assertEmpty(sub)
}

func (suite *SinkTestSuite) TestEarlySubscriberSeesAllInOrder() {
	// GOAL: Verify a subscriber joined before publishing observes every value in order
	//
	// TEST SCENARIO: Subscribe → publish 72, Error("x"), 80 → None, 72, Error("x"), 80 observed in order

	sub := suite.sink.Subscribe()
	defer sub.Cancel()

	suite.sink.Publish(rate(72))
	suite.sink.Publish(events.Error("x"))
	suite.sink.Publish(rate(80))

	suite.Equal(events.None(), suite.receive(sub))
	suite.Equal(rate(72), suite.receive(sub))
	suite.Equal(events.Error("x"), suite.receive(sub))
	suite.Equal(rate(80), suite.receive(sub))
	suite.Equal(rate(80), suite.sink.Current(), "current value MUST be the last published")
}

func (suite *SinkTestSuite) TestMultipleSubscribers() {
	a := suite.sink.Subscribe()
	b := suite.sink.Subscribe()
	defer a.Cancel()
	defer b.Cancel()

	suite.Equal(2, suite.sink.Subscribers())
	suite.sink.Publish(rate(90))

	for _, sub := range []*events.Subscription[events.ServiceEvent]{a, b} {
		suite.Equal(events.None(), suite.receive(sub))
		suite.Equal(rate(90), suite.receive(sub), "every subscriber MUST observe the broadcast")
	}
}

func (suite *SinkTestSuite) TestCancelClosesChannel() {
	// GOAL: Verify Cancel stops delivery, closes the channel, and is idempotent
	//
	// TEST SCENARIO: Subscribe → Cancel twice → channel drained and closed → later publishes not delivered

	sub := suite.sink.Subscribe()
	sub.Cancel()
	sub.Cancel()

	suite.Equal(0, suite.sink.Subscribers(), "cancelled subscription MUST be unregistered")
	suite.sink.Publish(rate(100))

	var got []events.ServiceEvent
	for ev := range sub.C() {
		got = append(got, ev)
	}
	suite.Equal([]events.ServiceEvent{events.None()}, got, "only values queued before Cancel MUST remain")
}

func (suite *SinkTestSuite) TestSlowSubscriberKeepsMostRecent() {
	// GOAL: Verify a lagging subscriber loses the oldest values but always gets the newest
	//
	// TEST SCENARIO: Mailbox of 2 → publish 60..64 without reading → last two values delivered

	sink := events.NewSinkWithMailbox(events.None(), 2)
	sub := sink.Subscribe()
	defer sub.Cancel()

	for bpm := 60; bpm <= 64; bpm++ {
		sink.Publish(rate(bpm))
	}

	suite.Equal(rate(63), suite.receive(sub))
	suite.Equal(rate(64), suite.receive(sub), "most recent value MUST be delivered")
	suite.Equal(int64(4), sub.Dropped(), "dropped count MUST account for overwritten values")
}

func (suite *SinkTestSuite) TestConcurrentPublishAndCancel() {
	// GOAL: Verify publishing concurrently with cancellation never panics
	sub := suite.sink.Subscribe()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			suite.sink.Publish(rate(i % 200))
		}
	}()
	go func() {
		defer wg.Done()
		sub.Cancel()
	}()
	wg.Wait()

	suite.Equal(0, suite.sink.Subscribers())
}

func TestSinkTestSuite(t *testing.T) {
	suite.Run(t, new(SinkTestSuite))
}

func TestServiceEventString(t *testing.T) {
	cases := map[string]events.ServiceEvent{
		"None":                 events.None(),
		"DataUpdate(72)":       rate(72),
		`Error("scan failed")`: events.Error("scan failed"),
	}
	for want, ev := range cases {
		if got := ev.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}
