package model

import (
	"time"
)

// MilestoneModel 里程碑模型
// 里程碑集合由方案提交/重新协商时整体替换，金额总和必须与项目开发费用一致
type MilestoneModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId   int64      `json:"project_id" gorm:"not null;index"`
	Name        string     `json:"name" gorm:"not null"`
	Description string     `json:"description" gorm:"type:text"`
	Amount      float64    `json:"amount" gorm:"not null"`
	DueDate     time.Time  `json:"due_date" gorm:"not null"`
	Status      MilestoneStatus `json:"status" gorm:"default:'PENDING'"`
	PaidAt      *time.Time `json:"paid_at"`
}

// MilestoneStatus 里程碑状态
type MilestoneStatus string

const (
	MilestoneStatusPending MilestoneStatus = "PENDING" // 待支付
	MilestoneStatusPaid    MilestoneStatus = "PAID"    // 已支付
)

// TableName 自定义表名
func (MilestoneModel) TableName() string {
	return "milestone"
}
