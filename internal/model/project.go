package model

import (
	"time"
)

// ProjectModel 项目模型
type ProjectModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	ClientId     int64     `json:"client_id" gorm:"not null;index"`
	Name         string    `json:"name" gorm:"not null"`
	Requirements string    `json:"requirements" gorm:"type:text"`
	Deadline     time.Time `json:"deadline" gorm:"not null"`

	// 费用信息
	DevelopmentCost float64 `json:"development_cost" gorm:"not null"`
	TotalPaid       float64 `json:"total_paid" gorm:"default:0"`

	// 状态
	Status            ProjectStatus     `json:"status" gorm:"default:'APPLICATION_IN_PROGRESS'"`
	FeasibilityStatus FeasibilityStatus `json:"feasibility_status" gorm:"default:'PENDING'"`
	FeasibilityReason string            `json:"feasibility_reason" gorm:"type:text"`

	// 开发方案与协商状态
	DevelopmentPlan        string            `json:"development_plan" gorm:"type:text"`
	NegotiationPending     *NegotiationParty `json:"negotiation_pending"`
	NegotiationMessage     string            `json:"negotiation_message" gorm:"type:text"`
	NegotiationRequestedAt *time.Time        `json:"negotiation_requested_at"`

	// 失败信息
	FailureReason         string `json:"failure_reason" gorm:"type:text"`
	FailureResponsibility string `json:"failure_responsibility"`

	// 乐观锁版本号，每次状态变更时自增
	Version int64 `json:"version" gorm:"default:0"`
}

// ProjectStatus 项目状态
type ProjectStatus string

const (
	ProjectStatusApplication ProjectStatus = "APPLICATION_IN_PROGRESS" // 申请中
	ProjectStatusDiscussion  ProjectStatus = "DISCUSSION_IN_PROGRESS"  // 方案协商中
	ProjectStatusDevelopment ProjectStatus = "DEVELOPMENT_IN_PROGRESS" // 开发中
	ProjectStatusSucceeded   ProjectStatus = "SUCCEEDED"               // 成功
	ProjectStatusFailed      ProjectStatus = "FAILED"                  // 失败（终态）
)

// FeasibilityStatus 可行性评审状态
type FeasibilityStatus string

const (
	FeasibilityPending  FeasibilityStatus = "PENDING"  // 待评审
	FeasibilityApproved FeasibilityStatus = "APPROVED" // 通过
	FeasibilityRejected FeasibilityStatus = "REJECTED" // 拒绝
)

// NegotiationParty 协商待响应方
type NegotiationParty string

const (
	NegotiationPendingClient NegotiationParty = "CLIENT" // 待客户响应
	NegotiationPendingTeam   NegotiationParty = "TEAM"   // 待团队响应
)

// TableName 自定义表名
func (ProjectModel) TableName() string {
	return "project"
}

// IsTerminal 判断项目是否处于终态
func (p *ProjectModel) IsTerminal() bool {
	return p.Status == ProjectStatusFailed || p.Status == ProjectStatusSucceeded
}

// IsOwnedBy 判断项目是否属于指定客户
func (p *ProjectModel) IsOwnedBy(userId int64) bool {
	return p.ClientId == userId
}
