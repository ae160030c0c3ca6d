package auth

import (
	"github.com/blues/cps/internal/model"
)

// Operation 受保护的业务操作
type Operation string

const (
	OpProjectCreate     Operation = "project.create"
	OpProjectList       Operation = "project.list"
	OpProjectView       Operation = "project.view"
	OpProjectDelete     Operation = "project.delete"
	OpFeasibilityReview Operation = "project.feasibility"
	OpPlanSubmit        Operation = "project.plan"
	OpClientRespond     Operation = "project.respond"
	OpPaymentRecord     Operation = "project.payment"
	OpProjectFail       Operation = "project.fail"
	OpReviewCreate      Operation = "project.review"
	OpMessageSend       Operation = "message.send"
	OpMessageRead       Operation = "message.read"
	OpUpdateCreate      Operation = "update.create"
	OpUpdateList        Operation = "update.list"
	OpRealtimeSubscribe Operation = "realtime.subscribe"
)

// Scope 授权范围
type Scope int

const (
	ScopeNone Scope = iota // 不允许
	ScopeOwn               // 仅限自己的项目
	ScopeAny               // 所有项目
)

// policy 授权策略表，按（操作，角色）给出范围
// 取代散落在各个接口里的角色字符串比较
var policy = map[Operation]map[model.Role]Scope{
	OpProjectCreate: {
		model.RoleClient: ScopeAny,
	},
	OpProjectList: {
		model.RoleClient:    ScopeOwn,
		model.RoleAdmin:     ScopeAny,
		model.RoleDeveloper: ScopeAny,
	},
	OpProjectView: {
		model.RoleClient:    ScopeOwn,
		model.RoleAdmin:     ScopeAny,
		model.RoleDeveloper: ScopeAny,
	},
	OpProjectDelete: {
		model.RoleAdmin:     ScopeAny,
		model.RoleDeveloper: ScopeAny,
	},
	OpFeasibilityReview: {
		model.RoleAdmin:     ScopeAny,
		model.RoleDeveloper: ScopeAny,
	},
	OpPlanSubmit: {
		model.RoleAdmin:     ScopeAny,
		model.RoleDeveloper: ScopeAny,
	},
	OpClientRespond: {
		model.RoleClient: ScopeOwn,
	},
	OpPaymentRecord: {
		model.RoleClient:    ScopeOwn,
		model.RoleAdmin:     ScopeAny,
		model.RoleDeveloper: ScopeAny,
	},
	OpProjectFail: {
		model.RoleClient:    ScopeOwn,
		model.RoleAdmin:     ScopeAny,
		model.RoleDeveloper: ScopeAny,
	},
	OpReviewCreate: {
		model.RoleClient: ScopeOwn,
	},
	OpMessageSend: {
		model.RoleClient:    ScopeOwn,
		model.RoleAdmin:     ScopeAny,
		model.RoleDeveloper: ScopeAny,
	},
	OpMessageRead: {
		model.RoleClient:    ScopeOwn,
		model.RoleAdmin:     ScopeAny,
		model.RoleDeveloper: ScopeAny,
	},
	OpUpdateCreate: {
		model.RoleAdmin:     ScopeAny,
		model.RoleDeveloper: ScopeAny,
	},
	OpUpdateList: {
		model.RoleClient:    ScopeOwn,
		model.RoleAdmin:     ScopeAny,
		model.RoleDeveloper: ScopeAny,
	},
	OpRealtimeSubscribe: {
		model.RoleClient:    ScopeOwn,
		model.RoleAdmin:     ScopeAny,
		model.RoleDeveloper: ScopeAny,
	},
}

// Allowed 判断角色是否可以执行操作
// isOwner 表示请求者是否为目标项目的客户
func Allowed(op Operation, role model.Role, isOwner bool) bool {
	scopes, ok := policy[op]
	if !ok {
		return false
	}
	switch scopes[role] {
	case ScopeAny:
		return true
	case ScopeOwn:
		return isOwner
	default:
		return false
	}
}

// ListScopedToOwner 列表类操作是否需要按所有者过滤
func ListScopedToOwner(op Operation, role model.Role) bool {
	scopes, ok := policy[op]
	if !ok {
		return true
	}
	return scopes[role] == ScopeOwn
}
