package handler

import (
	"github.com/blues/cps/internal/logic"
)

// 请求模型

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Name            string  `json:"name" binding:"required"`
	Requirements    string  `json:"requirements" binding:"required"`
	DevelopmentCost float64 `json:"development_cost" binding:"required"`
	Deadline        string  `json:"deadline" binding:"required"`
}

// FeasibilityRequest 可行性评审请求
type FeasibilityRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

// PlanRequest 开发方案提交/团队协商响应请求
// action 为空表示提交新方案，否则为对客户协商请求的响应
type PlanRequest struct {
	DevelopmentPlan string                 `json:"development_plan"`
	Milestones      []logic.MilestoneInput `json:"milestones"`
	Action          string                 `json:"action"`
	Message         string                 `json:"message"`
}

// ClientResponseRequest 客户对方案的响应请求
type ClientResponseRequest struct {
	Action           string `json:"action" binding:"required"`
	PaymentConfirmed bool   `json:"payment_confirmed"`
	Message          string `json:"message"`
}

// PaymentRequest 里程碑支付请求
type PaymentRequest struct {
	MilestoneId      int64 `json:"milestone_id" binding:"required"`
	PaymentConfirmed bool  `json:"payment_confirmed"`
}

// FailRequest 取消项目请求
type FailRequest struct {
	Reason         string `json:"reason" binding:"required"`
	Responsibility string `json:"responsibility"`
}

// ReviewRequest 项目评价请求
type ReviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

// SendMessageRequest 发送消息请求
type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// CreateUpdateRequest 发布项目进展请求
type CreateUpdateRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content"`
}
