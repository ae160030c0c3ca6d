package realtime

import (
	"time"
)

// EventType 实时事件类型
type EventType string

const (
	EventStatusChanged EventType = "status-changed" // 项目状态变更，携带完整项目快照
	EventRefresh       EventType = "refresh"        // 仅通知，消费方需要自行重新拉取
	EventNewMessage    EventType = "new-message"    // 新聊天消息
)

// Event 广播事件
// 事件只是低延迟提示，不保证送达；数据库里的状态才是唯一事实
type Event struct {
	Type      EventType   `json:"type"`
	ProjectId int64       `json:"project_id"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent 创建事件
func NewEvent(eventType EventType, projectId int64, payload interface{}) Event {
	return Event{
		Type:      eventType,
		ProjectId: projectId,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// Notifier 业务层依赖的广播接口，测试中可替换为假实现
type Notifier interface {
	Publish(projectId int64, event Event)
}

// NopNotifier 空实现
type NopNotifier struct{}

func (NopNotifier) Publish(int64, Event) {}
