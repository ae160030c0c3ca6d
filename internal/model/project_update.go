package model

import (
	"time"
)

// ProjectUpdateModel 项目进展模型，由团队发布的只追加日志
type ProjectUpdateModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	ProjectId int64  `json:"project_id" gorm:"not null;index"`
	Title     string `json:"title" gorm:"not null"`
	Content   string `json:"content" gorm:"type:text"`
}

// TableName 自定义表名
func (ProjectUpdateModel) TableName() string {
	return "project_update"
}
