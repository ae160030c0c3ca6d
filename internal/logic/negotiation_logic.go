package logic

import (
	"time"

	"github.com/blues/cps/internal/model"
	"github.com/blues/cps/internal/realtime"
	"gorm.io/gorm"
)

// 协商动作
const (
	ActionApprove     = "approve"
	ActionReject      = "reject"
	ActionRenegotiate = "renegotiate"
)

// 拒绝时未附说明的兜底文案
const (
	defaultClientRejectReason = "客户拒绝了开发方案"
	defaultTeamRejectReason   = "团队拒绝了协商请求"
)

// NegotiationLogic 方案协商业务逻辑
// 双方轮流响应：团队提出方案后由客户响应，客户要求重新协商后由团队响应，
// 直到一方通过或拒绝为止
type NegotiationLogic struct {
	db         *gorm.DB
	notifier   realtime.Notifier
	milestones *MilestoneLogic
}

// NewNegotiationLogic 创建协商业务逻辑
func NewNegotiationLogic(db *gorm.DB, notifier realtime.Notifier) *NegotiationLogic {
	return &NegotiationLogic{
		db:         db,
		notifier:   notifier,
		milestones: NewMilestoneLogic(db),
	}
}

// broadcastStatus 广播状态变更事件
func (n *NegotiationLogic) broadcastStatus(projectId int64) {
	project, err := findProject(n.db, projectId)
	if err != nil {
		return
	}
	n.notifier.Publish(projectId, realtime.NewEvent(realtime.EventStatusChanged, projectId, project))
}

// broadcastRefresh 广播刷新提示
func (n *NegotiationLogic) broadcastRefresh(projectId int64) {
	n.notifier.Publish(projectId, realtime.NewEvent(realtime.EventRefresh, projectId, nil))
}

// ProposePlan 团队提交开发方案和里程碑集合
// 里程碑整体替换，提交后等待客户响应
func (n *NegotiationLogic) ProposePlan(projectId int64, plan string, inputs []MilestoneInput) (*model.ProjectModel, error) {
	project, err := findProject(n.db, projectId)
	if err != nil {
		return nil, err
	}
	if project.FeasibilityStatus != model.FeasibilityApproved {
		return nil, errState("项目尚未通过可行性评审")
	}
	if project.Status != model.ProjectStatusDiscussion {
		return nil, errState("项目不在方案协商阶段")
	}
	if project.NegotiationPending != nil {
		return nil, errState("存在待响应的协商，无法直接提交新方案")
	}
	if plan == "" {
		return nil, errValidation("开发方案不能为空")
	}

	_, milestones, err := n.milestones.ValidateAndSum(inputs, project.DevelopmentCost)
	if err != nil {
		return nil, err
	}

	pending := model.NegotiationPendingClient
	err = n.db.Transaction(func(tx *gorm.DB) error {
		if err := n.milestones.ReplaceAll(tx, projectId, milestones); err != nil {
			return err
		}
		return applyTransition(tx, project, map[string]interface{}{
			"development_plan":         plan,
			"negotiation_pending":      &pending,
			"negotiation_message":      "",
			"negotiation_requested_at": nil,
		})
	})
	if err != nil {
		return nil, err
	}

	n.broadcastRefresh(projectId)
	return findProject(n.db, projectId)
}

// RespondAsClient 客户响应当前方案
// approve 需确认支付并立即支付最早到期的里程碑，项目进入开发阶段；
// reject 直接终止项目；renegotiate 将协商转给团队
func (n *NegotiationLogic) RespondAsClient(projectId int64, action string, paymentConfirmed bool, message string) (*model.ProjectModel, error) {
	project, err := findProject(n.db, projectId)
	if err != nil {
		return nil, err
	}
	if project.Status != model.ProjectStatusDiscussion {
		return nil, errState("项目不在方案协商阶段")
	}
	if project.DevelopmentPlan == "" {
		return nil, errState("开发方案不存在")
	}
	// 团队通过客户的协商请求后 negotiation_pending 会被清空，
	// 此时客户仍需对更新后的方案再次表态，因此这里也接受空值
	if project.NegotiationPending != nil && *project.NegotiationPending == model.NegotiationPendingTeam {
		return nil, errState("当前等待团队响应，客户无法操作")
	}

	switch action {
	case ActionApprove:
		if !paymentConfirmed {
			return nil, errValidation("确认支付后才能通过方案")
		}
		err = n.db.Transaction(func(tx *gorm.DB) error {
			first, err := n.milestones.EarliestPending(tx, projectId)
			if err != nil {
				return err
			}
			paidTotal, _, err := n.milestones.MarkPaid(tx, projectId, first.Id)
			if err != nil {
				return err
			}
			return applyTransition(tx, project, map[string]interface{}{
				"status":                   model.ProjectStatusDevelopment,
				"total_paid":               paidTotal,
				"negotiation_pending":      nil,
				"negotiation_message":      "",
				"negotiation_requested_at": nil,
			})
		})
		if err != nil {
			return nil, err
		}
		n.broadcastStatus(projectId)

	case ActionReject:
		reason := message
		if reason == "" {
			reason = defaultClientRejectReason
		}
		err = applyTransition(n.db, project, map[string]interface{}{
			"status":                   model.ProjectStatusFailed,
			"failure_reason":           reason,
			"failure_responsibility":   "client",
			"negotiation_pending":      nil,
			"negotiation_message":      "",
			"negotiation_requested_at": nil,
		})
		if err != nil {
			return nil, err
		}
		n.broadcastStatus(projectId)

	case ActionRenegotiate:
		if message == "" {
			return nil, errValidation("重新协商必须说明原因")
		}
		now := time.Now()
		pending := model.NegotiationPendingTeam
		err = applyTransition(n.db, project, map[string]interface{}{
			"negotiation_pending":      &pending,
			"negotiation_message":      message,
			"negotiation_requested_at": &now,
		})
		if err != nil {
			return nil, err
		}
		n.broadcastRefresh(projectId)

	default:
		return nil, errValidation("无效的操作类型")
	}

	return findProject(n.db, projectId)
}

// RespondAsTeam 团队响应客户的协商请求
// approve 提交完整的替换方案，协商标记清空，等待客户再次表态；
// reject 终止项目；renegotiate 把协商转回客户，可顺带更新方案
func (n *NegotiationLogic) RespondAsTeam(projectId int64, action, plan string, inputs []MilestoneInput, message string) (*model.ProjectModel, error) {
	project, err := findProject(n.db, projectId)
	if err != nil {
		return nil, err
	}
	if project.NegotiationPending == nil || *project.NegotiationPending != model.NegotiationPendingTeam {
		return nil, errState("当前没有待团队响应的协商")
	}

	switch action {
	case ActionApprove:
		if plan == "" {
			return nil, errValidation("通过协商时必须提交完整的开发方案")
		}
		_, milestones, err := n.milestones.ValidateAndSum(inputs, project.DevelopmentCost)
		if err != nil {
			return nil, err
		}
		err = n.db.Transaction(func(tx *gorm.DB) error {
			if err := n.milestones.ReplaceAll(tx, projectId, milestones); err != nil {
				return err
			}
			return applyTransition(tx, project, map[string]interface{}{
				"development_plan":         plan,
				"negotiation_pending":      nil,
				"negotiation_message":      "",
				"negotiation_requested_at": nil,
			})
		})
		if err != nil {
			return nil, err
		}
		n.broadcastRefresh(projectId)

	case ActionReject:
		reason := message
		if reason == "" {
			reason = defaultTeamRejectReason
		}
		err = applyTransition(n.db, project, map[string]interface{}{
			"status":                   model.ProjectStatusFailed,
			"failure_reason":           reason,
			"failure_responsibility":   "team",
			"negotiation_pending":      nil,
			"negotiation_message":      "",
			"negotiation_requested_at": nil,
		})
		if err != nil {
			return nil, err
		}
		n.broadcastStatus(projectId)

	case ActionRenegotiate:
		now := time.Now()
		pending := model.NegotiationPendingClient
		updates := map[string]interface{}{
			"negotiation_pending":      &pending,
			"negotiation_message":      message,
			"negotiation_requested_at": &now,
		}

		err = n.db.Transaction(func(tx *gorm.DB) error {
			// 方案和里程碑是可选的，未提供时沿用之前的版本
			if len(inputs) > 0 {
				_, milestones, err := n.milestones.ValidateAndSum(inputs, project.DevelopmentCost)
				if err != nil {
					return err
				}
				if err := n.milestones.ReplaceAll(tx, projectId, milestones); err != nil {
					return err
				}
			}
			if plan != "" {
				updates["development_plan"] = plan
			}
			return applyTransition(tx, project, updates)
		})
		if err != nil {
			return nil, err
		}
		n.broadcastRefresh(projectId)

	default:
		return nil, errValidation("无效的操作类型")
	}

	return findProject(n.db, projectId)
}
