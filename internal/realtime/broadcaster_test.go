package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBroadcaster(t *testing.T) *Broadcaster {
	t.Helper()
	b, err := NewBroadcaster(8, 4)
	require.NoError(t, err)
	t.Cleanup(b.Shutdown)
	return b
}

func TestPublishReachesRoomSubscribers(t *testing.T) {
	b := newTestBroadcaster(t)

	sub1 := b.Subscribe(1)
	sub2 := b.Subscribe(1)
	other := b.Subscribe(2)

	assert.Equal(t, 2, b.SubscriberCount(1))
	assert.Equal(t, 1, b.SubscriberCount(2))

	b.Publish(1, NewEvent(EventRefresh, 1, nil))

	for _, sub := range []*Subscription{sub1, sub2} {
		select {
		case event := <-sub.C:
			assert.Equal(t, EventRefresh, event.Type)
			assert.Equal(t, int64(1), event.ProjectId)
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}

	// 其他房间收不到
	select {
	case <-other.C:
		t.Fatal("event leaked to another room")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := newTestBroadcaster(t)

	sub := b.Subscribe(1)
	b.Unsubscribe(sub)
	assert.Zero(t, b.SubscriberCount(1))

	_, ok := <-sub.C
	assert.False(t, ok)

	// 重复退订安全
	b.Unsubscribe(sub)
	b.Unsubscribe(nil)
}

func TestPublishToEmptyRoom(t *testing.T) {
	b := newTestBroadcaster(t)
	// 没有订阅者时不应panic或阻塞
	b.Publish(99, NewEvent(EventStatusChanged, 99, nil))
}

// TestSlowSubscriberDoesNotBlock 缓冲写满后事件被丢弃，发布方不被拖慢
func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	b, err := NewBroadcaster(2, 1)
	require.NoError(t, err)
	t.Cleanup(b.Shutdown)

	sub := b.Subscribe(1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			b.Publish(1, NewEvent(EventRefresh, 1, nil))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on slow subscriber")
	}

	// 至少有一条事件被接收
	require.Eventually(t, func() bool {
		select {
		case <-sub.C:
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestShutdown(t *testing.T) {
	b, err := NewBroadcaster(4, 4)
	require.NoError(t, err)

	sub := b.Subscribe(1)
	b.Shutdown()

	_, ok := <-sub.C
	assert.False(t, ok)

	// 关闭后的操作都是no-op
	b.Publish(1, NewEvent(EventRefresh, 1, nil))
	after := b.Subscribe(1)
	_, ok = <-after.C
	assert.False(t, ok)
	b.Shutdown()
}
