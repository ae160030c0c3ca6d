package model

import (
	"time"
)

// ReviewModel 项目评价模型，每个项目最多一条
type ReviewModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	ProjectId int64  `json:"project_id" gorm:"not null;uniqueIndex"`
	Rating    int    `json:"rating" gorm:"not null"`
	Comment   string `json:"comment" gorm:"type:text"`
}

// TableName 自定义表名
func (ReviewModel) TableName() string {
	return "review"
}
