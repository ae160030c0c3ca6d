package model

import (
	"time"
)

// MessageModel 项目聊天消息模型
type MessageModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	ProjectId int64      `json:"project_id" gorm:"not null;index"`
	SenderId  int64      `json:"sender_id" gorm:"not null"`
	Content   string     `json:"content" gorm:"type:text;not null"`
	Read      bool       `json:"read" gorm:"default:false"`
	ReadAt    *time.Time `json:"read_at"`
}

// TableName 自定义表名
func (MessageModel) TableName() string {
	return "message"
}
