package realtime

import (
	"sync"

	"github.com/blues/cps/internal/logger"
	"github.com/blues/cps/internal/metrics"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
)

// Subscription 一个项目房间的订阅
type Subscription struct {
	Id        string
	ProjectId int64
	C         <-chan Event

	ch chan Event
}

// Broadcaster 按项目分房间的事件广播器
// 作为显式依赖注入到各处，进程退出时调用 Shutdown 释放资源
type Broadcaster struct {
	mu     sync.RWMutex
	rooms  map[int64]map[string]*Subscription
	pool   *ants.Pool
	buffer int
	closed bool
}

// NewBroadcaster 创建广播器
// poolSize 限制投递协程数量，bufferSize 为每个订阅者的事件缓冲
func NewBroadcaster(poolSize, bufferSize int) (*Broadcaster, error) {
	if poolSize <= 0 {
		poolSize = 64
	}
	if bufferSize <= 0 {
		bufferSize = 16
	}

	pool, err := ants.NewPool(poolSize, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}

	return &Broadcaster{
		rooms:  make(map[int64]map[string]*Subscription),
		pool:   pool,
		buffer: bufferSize,
	}, nil
}

// Subscribe 加入项目房间
func (b *Broadcaster) Subscribe(projectId int64) *Subscription {
	ch := make(chan Event, b.buffer)
	sub := &Subscription{
		Id:        uuid.New().String(),
		ProjectId: projectId,
		C:         ch,
		ch:        ch,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return sub
	}
	room, ok := b.rooms[projectId]
	if !ok {
		room = make(map[string]*Subscription)
		b.rooms[projectId] = room
	}
	room[sub.Id] = sub
	metrics.ActiveSubscribers.Inc()

	return sub
}

// Unsubscribe 离开项目房间
func (b *Broadcaster) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	room, ok := b.rooms[sub.ProjectId]
	if !ok {
		return
	}
	if _, ok := room[sub.Id]; !ok {
		return
	}
	delete(room, sub.Id)
	if len(room) == 0 {
		delete(b.rooms, sub.ProjectId)
	}
	close(sub.ch)
	metrics.ActiveSubscribers.Dec()
}

// Publish 向项目房间内的所有订阅者广播事件
// 尽力而为：投递失败或缓冲已满时直接丢弃，绝不阻塞调用方
func (b *Broadcaster) Publish(projectId int64, event Event) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	room := b.rooms[projectId]
	subs := make([]*Subscription, 0, len(room))
	for _, sub := range room {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	metrics.BroadcastEvents.WithLabelValues(string(event.Type)).Inc()

	for _, sub := range subs {
		s := sub
		err := b.pool.Submit(func() {
			defer func() {
				// 订阅者可能恰好在投递时退订，向已关闭channel写入会panic
				if r := recover(); r != nil {
					metrics.DroppedEvents.Inc()
				}
			}()
			select {
			case s.ch <- event:
			default:
				metrics.DroppedEvents.Inc()
			}
		})
		if err != nil {
			// 协程池已满或已关闭，按至多一次语义丢弃
			metrics.DroppedEvents.Inc()
			logger.Debug("broadcast dropped for project %d: %v", projectId, err)
		}
	}
}

// SubscriberCount 当前项目房间的订阅者数量
func (b *Broadcaster) SubscriberCount(projectId int64) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.rooms[projectId])
}

// Shutdown 关闭广播器，断开所有订阅者
func (b *Broadcaster) Shutdown() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for projectId, room := range b.rooms {
		for _, sub := range room {
			close(sub.ch)
			metrics.ActiveSubscribers.Dec()
		}
		delete(b.rooms, projectId)
	}
	b.mu.Unlock()

	b.pool.Release()
	logger.Info("Realtime broadcaster stopped")
}
