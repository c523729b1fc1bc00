package broadcast

import (
	"sync"
	"testing"

	"setpace/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getCounterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	metric := &dto.Metric{}
	require.NoError(t, counter.Write(metric))
	return metric.GetCounter().GetValue()
}

func TestFanOutToEverySubscriber(t *testing.T) {
	channel := New[int]("fanout")
	first := channel.Subscribe(4)
	second := channel.Subscribe(4)

	require.True(t, channel.Publish(7))

	assert.Equal(t, 7, <-first.C())
	assert.Equal(t, 7, <-second.C())
	assert.Equal(t, 2, channel.Subscribers())
}

func TestNoReplayForLateSubscribers(t *testing.T) {
	channel := New[string]("replay")
	channel.Publish("early")

	late := channel.Subscribe(4)
	channel.Publish("late")

	assert.Equal(t, "late", <-late.C())
	assert.Empty(t, late.C())
	last, ok := channel.Last()
	require.True(t, ok)
	assert.Equal(t, "late", last)
	assert.Equal(t, uint64(2), channel.Published())
}

func TestCloseEndsSubscriptions(t *testing.T) {
	channel := New[int]("close")
	sub := channel.Subscribe(1)

	channel.Close()
	channel.Close()

	_, ok := <-sub.C()
	assert.False(t, ok)
	assert.True(t, channel.Closed())
	assert.False(t, channel.Publish(1))
	assert.Equal(t, 0, channel.Subscribers())

	sub.Close()
}

func TestSubscribeAfterCloseIsClosed(t *testing.T) {
	channel := New[int]("closed")
	channel.Close()

	sub := channel.Subscribe(3)

	_, ok := <-sub.C()
	assert.False(t, ok)
	sub.Close()
}

func TestUnsubscribe(t *testing.T) {
	channel := New[int]("unsubscribe")
	kept := channel.Subscribe(2)
	gone := channel.Subscribe(2)

	gone.Close()
	gone.Close()
	channel.Publish(1)

	assert.Equal(t, 1, <-kept.C())
	_, ok := <-gone.C()
	assert.False(t, ok)
	assert.Equal(t, 1, channel.Subscribers())
}

func TestSlowSubscriberDropsWithoutBlocking(t *testing.T) {
	channel := New[int]("slow")
	slow := channel.Subscribe(1)
	fast := channel.Subscribe(16)
	drops := metrics.BroadcastDroppedTotal.WithLabelValues("slow")
	before := getCounterValue(t, drops)

	for i := 0; i < 10; i++ {
		channel.Publish(i)
	}

	assert.Equal(t, 0, <-slow.C())
	assert.Len(t, fast.C(), 10)
	assert.Equal(t, before+9, getCounterValue(t, drops))
}

func TestConcurrentPublishAndClose(t *testing.T) {
	channel := New[int]("race")
	subs := make([]*Subscription[int], 8)
	for i := range subs {
		subs[i] = channel.Subscribe(4)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				channel.Publish(j)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, sub := range subs[:4] {
			sub.Close()
		}
	}()
	channel.Close()
	wg.Wait()

	for _, sub := range subs {
		for range sub.C() {
		}
	}
}
