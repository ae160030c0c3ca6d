package logic

import (
	"fmt"
	"time"

	"github.com/blues/cps/internal/model"
	"github.com/blues/cps/internal/realtime"
	"gorm.io/gorm"
)

// MessageLogic 项目消息业务逻辑
// 消息先落库再广播，已读状态只能从未读变为已读
type MessageLogic struct {
	db       *gorm.DB
	notifier realtime.Notifier
}

// NewMessageLogic 创建消息业务逻辑
func NewMessageLogic(db *gorm.DB, notifier realtime.Notifier) *MessageLogic {
	return &MessageLogic{db: db, notifier: notifier}
}

// Send 发送项目消息
func (m *MessageLogic) Send(projectId, senderId int64, content string) (*model.MessageModel, error) {
	if content == "" {
		return nil, errValidation("消息内容不能为空")
	}
	if _, err := findProject(m.db, projectId); err != nil {
		return nil, err
	}

	message := &model.MessageModel{
		ProjectId: projectId,
		SenderId:  senderId,
		Content:   content,
	}
	if err := m.db.Create(message).Error; err != nil {
		return nil, fmt.Errorf("发送消息失败: %w", err)
	}

	m.notifier.Publish(projectId, realtime.NewEvent(realtime.EventNewMessage, projectId, message))
	return message, nil
}

// List 获取项目全部消息，按时间升序
// 纯读取，不改变已读状态
func (m *MessageLogic) List(projectId int64) ([]model.MessageModel, error) {
	var messages []model.MessageModel
	if err := m.db.Where("project_id = ?", projectId).
		Order("id ASC").Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("获取消息列表失败: %w", err)
	}
	return messages, nil
}

// FetchNew 拉取新消息并将对方发来的未读消息标记为已读
// 已读只会在非发送方拉取时发生，且不可逆
func (m *MessageLogic) FetchNew(projectId, viewerId, afterId int64) ([]model.MessageModel, error) {
	var messages []model.MessageModel
	if err := m.db.Where("project_id = ? AND id > ?", projectId, afterId).
		Order("id ASC").Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("获取新消息失败: %w", err)
	}

	now := time.Now()
	if err := m.db.Model(&model.MessageModel{}).
		Where("project_id = ? AND sender_id <> ? AND read = ?", projectId, viewerId, false).
		Updates(map[string]interface{}{"read": true, "read_at": &now}).Error; err != nil {
		return nil, fmt.Errorf("更新已读状态失败: %w", err)
	}

	return messages, nil
}

// UnreadCount 未读消息数：非本人发送且尚未读取的消息
func (m *MessageLogic) UnreadCount(projectId, viewerId int64) (int64, error) {
	var count int64
	if err := m.db.Model(&model.MessageModel{}).
		Where("project_id = ? AND sender_id <> ? AND read = ?", projectId, viewerId, false).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("统计未读消息失败: %w", err)
	}
	return count, nil
}
