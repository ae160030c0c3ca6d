package logic

import (
	"testing"

	"github.com/blues/cps/internal/model"
	"github.com/blues/cps/internal/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProject(t *testing.T) {
	db := newTestDB(t)
	p := NewProjectLogic(db, &fakeNotifier{})

	t.Run("success", func(t *testing.T) {
		project, err := p.CreateProject(7, CreateProjectInput{
			Name:            "小程序商城",
			Requirements:    "微信小程序+后台管理",
			DevelopmentCost: 5000,
			Deadline:        futureDate(60),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(7), project.ClientId)
		assert.Equal(t, model.ProjectStatusApplication, project.Status)
		assert.Equal(t, model.FeasibilityPending, project.FeasibilityStatus)
		assert.Equal(t, 0.0, project.TotalPaid)
		assert.Nil(t, project.NegotiationPending)
	})

	t.Run("missing name", func(t *testing.T) {
		_, err := p.CreateProject(7, CreateProjectInput{
			Requirements:    "...",
			DevelopmentCost: 5000,
			Deadline:        futureDate(60),
		})
		require.Error(t, err)
		assert.Equal(t, 400, HTTPStatus(err))
	})

	t.Run("missing requirements", func(t *testing.T) {
		_, err := p.CreateProject(7, CreateProjectInput{
			Name:            "x",
			DevelopmentCost: 5000,
			Deadline:        futureDate(60),
		})
		assert.Error(t, err)
	})

	t.Run("non-positive cost", func(t *testing.T) {
		_, err := p.CreateProject(7, CreateProjectInput{
			Name:            "x",
			Requirements:    "y",
			DevelopmentCost: 0,
			Deadline:        futureDate(60),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "开发费用")
	})

	t.Run("bad deadline format", func(t *testing.T) {
		_, err := p.CreateProject(7, CreateProjectInput{
			Name:            "x",
			Requirements:    "y",
			DevelopmentCost: 100,
			Deadline:        "下个月",
		})
		assert.Error(t, err)
	})

	t.Run("past deadline", func(t *testing.T) {
		_, err := p.CreateProject(7, CreateProjectInput{
			Name:            "x",
			Requirements:    "y",
			DevelopmentCost: 100,
			Deadline:        futureDate(-3),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "截止日期")
	})
}

func TestReviewFeasibility(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	p := NewProjectLogic(db, notifier)

	t.Run("approve moves to discussion", func(t *testing.T) {
		project := createTestProject(t, p, 1, 1000)
		updated, err := p.ReviewFeasibility(project.Id, model.FeasibilityApproved, "")
		require.NoError(t, err)
		assert.Equal(t, model.ProjectStatusDiscussion, updated.Status)
		assert.Equal(t, model.FeasibilityApproved, updated.FeasibilityStatus)
		assert.Equal(t, 1, notifier.CountByType(realtime.EventStatusChanged))
	})

	t.Run("reject requires reason", func(t *testing.T) {
		project := createTestProject(t, p, 1, 1000)
		_, err := p.ReviewFeasibility(project.Id, model.FeasibilityRejected, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "原因")
	})

	t.Run("reject fails project", func(t *testing.T) {
		project := createTestProject(t, p, 1, 1000)
		updated, err := p.ReviewFeasibility(project.Id, model.FeasibilityRejected, "技术栈不匹配")
		require.NoError(t, err)
		assert.Equal(t, model.ProjectStatusFailed, updated.Status)
		assert.Equal(t, "技术栈不匹配", updated.FeasibilityReason)
		assert.Equal(t, "技术栈不匹配", updated.FailureReason)
	})

	t.Run("already reviewed", func(t *testing.T) {
		project := createTestProject(t, p, 1, 1000)
		_, err := p.ReviewFeasibility(project.Id, model.FeasibilityApproved, "")
		require.NoError(t, err)
		_, err = p.ReviewFeasibility(project.Id, model.FeasibilityApproved, "")
		require.Error(t, err)
		assert.Equal(t, 400, HTTPStatus(err))
	})

	t.Run("invalid result", func(t *testing.T) {
		project := createTestProject(t, p, 1, 1000)
		_, err := p.ReviewFeasibility(project.Id, model.FeasibilityStatus("MAYBE"), "")
		assert.Error(t, err)
	})

	t.Run("unknown project", func(t *testing.T) {
		_, err := p.ReviewFeasibility(424242, model.FeasibilityApproved, "")
		require.Error(t, err)
		assert.Equal(t, 404, HTTPStatus(err))
	})
}

// developmentProject 准备一个处于开发阶段的项目：方案已通过且首期已支付
func developmentProject(t *testing.T, deps *testDeps, cost float64, milestones []MilestoneInput) *model.ProjectModel {
	t.Helper()

	project := approvedProject(t, deps.projects, 1, cost)
	_, err := deps.negotiations.ProposePlan(project.Id, "分两期交付", milestones)
	require.NoError(t, err)
	updated, err := deps.negotiations.RespondAsClient(project.Id, ActionApprove, true, "")
	require.NoError(t, err)
	require.Equal(t, model.ProjectStatusDevelopment, updated.Status)
	return updated
}

// testDeps 逻辑层测试的常用依赖集合
type testDeps struct {
	projects     *ProjectLogic
	negotiations *NegotiationLogic
	milestones   *MilestoneLogic
	notifier     *fakeNotifier
}

func newTestDeps(t *testing.T) *testDeps {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	return &testDeps{
		projects:     NewProjectLogic(db, notifier),
		negotiations: NewNegotiationLogic(db, notifier),
		milestones:   NewMilestoneLogic(db),
		notifier:     notifier,
	}
}

func TestRecordPayment(t *testing.T) {
	deps := newTestDeps(t)
	project := developmentProject(t, deps, 1000, twoMilestones(400, 600))

	stored, err := deps.milestones.GetProjectMilestones(project.Id)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	// 首期已在客户通过方案时支付
	require.Equal(t, model.MilestoneStatusPaid, stored[0].Status)

	t.Run("unconfirmed payment rejected", func(t *testing.T) {
		_, err := deps.projects.RecordPayment(project.Id, stored[1].Id, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "确认支付")
	})

	t.Run("paying last milestone succeeds project", func(t *testing.T) {
		updated, err := deps.projects.RecordPayment(project.Id, stored[1].Id, true)
		require.NoError(t, err)
		assert.Equal(t, model.ProjectStatusSucceeded, updated.Status)
		assert.Equal(t, 1000.0, updated.TotalPaid)
	})

	t.Run("double payment rejected", func(t *testing.T) {
		_, err := deps.projects.RecordPayment(project.Id, stored[1].Id, true)
		require.Error(t, err)
	})
}

// TestPaymentSequence 按顺序支付所有里程碑，成功状态只触发一次
func TestPaymentSequence(t *testing.T) {
	deps := newTestDeps(t)
	project := developmentProject(t, deps, 1500, []MilestoneInput{
		{Name: "一期", Amount: 500, DueDate: futureDate(5)},
		{Name: "二期", Amount: 500, DueDate: futureDate(10)},
		{Name: "三期", Amount: 500, DueDate: futureDate(15)},
	})

	stored, err := deps.milestones.GetProjectMilestones(project.Id)
	require.NoError(t, err)
	require.Len(t, stored, 3)

	before := deps.notifier.CountByType(realtime.EventStatusChanged)

	// 一期已支付，按顺序支付剩余两期
	updated, err := deps.projects.RecordPayment(project.Id, stored[1].Id, true)
	require.NoError(t, err)
	assert.Equal(t, model.ProjectStatusDevelopment, updated.Status)
	assert.Equal(t, 1000.0, updated.TotalPaid)

	updated, err = deps.projects.RecordPayment(project.Id, stored[2].Id, true)
	require.NoError(t, err)
	assert.Equal(t, model.ProjectStatusSucceeded, updated.Status)
	assert.Equal(t, 1500.0, updated.TotalPaid)

	// 成功状态的广播只发生一次
	assert.Equal(t, before+1, deps.notifier.CountByType(realtime.EventStatusChanged))

	// 成功后不能继续支付
	_, err = deps.projects.RecordPayment(project.Id, stored[2].Id, true)
	assert.Error(t, err)
}

func TestFailProject(t *testing.T) {
	t.Run("responsibility defaults to team for team caller", func(t *testing.T) {
		deps := newTestDeps(t)
		project := developmentProject(t, deps, 1000, twoMilestones(400, 600))

		updated, err := deps.projects.FailProject(project.Id, "客户长期失联", "", model.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, model.ProjectStatusFailed, updated.Status)
		assert.Equal(t, "客户长期失联", updated.FailureReason)
		assert.Equal(t, "team", updated.FailureResponsibility)
	})

	t.Run("responsibility defaults to client for client caller", func(t *testing.T) {
		deps := newTestDeps(t)
		project := developmentProject(t, deps, 1000, twoMilestones(400, 600))

		updated, err := deps.projects.FailProject(project.Id, "预算不足", "", model.RoleClient)
		require.NoError(t, err)
		assert.Equal(t, "client", updated.FailureResponsibility)
	})

	t.Run("explicit responsibility kept", func(t *testing.T) {
		deps := newTestDeps(t)
		project := developmentProject(t, deps, 1000, twoMilestones(400, 600))

		updated, err := deps.projects.FailProject(project.Id, "范围变更", "client", model.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, "client", updated.FailureResponsibility)
	})

	t.Run("reason required", func(t *testing.T) {
		deps := newTestDeps(t)
		project := developmentProject(t, deps, 1000, twoMilestones(400, 600))

		_, err := deps.projects.FailProject(project.Id, "", "", model.RoleAdmin)
		assert.Error(t, err)
	})

	t.Run("only development stage can be cancelled", func(t *testing.T) {
		deps := newTestDeps(t)
		project := createTestProject(t, deps.projects, 1, 1000)

		_, err := deps.projects.FailProject(project.Id, "x", "", model.RoleAdmin)
		assert.Error(t, err)
	})

	t.Run("failed is terminal", func(t *testing.T) {
		deps := newTestDeps(t)
		project := developmentProject(t, deps, 1000, twoMilestones(400, 600))

		_, err := deps.projects.FailProject(project.Id, "客户长期失联", "", model.RoleAdmin)
		require.NoError(t, err)

		// 终态后任何流转都被拒绝
		_, err = deps.projects.FailProject(project.Id, "再次取消", "", model.RoleAdmin)
		assert.Error(t, err)
		stored, err := deps.milestones.GetProjectMilestones(project.Id)
		require.NoError(t, err)
		_, err = deps.projects.RecordPayment(project.Id, stored[1].Id, true)
		assert.Error(t, err)
	})
}

func TestDeleteProject(t *testing.T) {
	deps := newTestDeps(t)
	db := deps.projects.db

	t.Run("non-failed project rejected", func(t *testing.T) {
		project := developmentProject(t, deps, 1000, twoMilestones(400, 600))
		err := deps.projects.DeleteProject(project.Id)
		require.Error(t, err)

		// 没有任何副作用
		still, err := deps.projects.GetProject(project.Id)
		require.NoError(t, err)
		assert.Equal(t, model.ProjectStatusDevelopment, still.Status)
	})

	t.Run("failed project deleted with dependents", func(t *testing.T) {
		project := developmentProject(t, deps, 1000, twoMilestones(400, 600))
		_, err := deps.projects.FailProject(project.Id, "取消", "", model.RoleAdmin)
		require.NoError(t, err)

		messages := NewMessageLogic(db, deps.notifier)
		_, err = messages.Send(project.Id, 1, "留言")
		require.NoError(t, err)

		require.NoError(t, deps.projects.DeleteProject(project.Id))

		_, err = deps.projects.GetProject(project.Id)
		assert.Equal(t, 404, HTTPStatus(err))

		var milestoneCount int64
		db.Model(&model.MilestoneModel{}).Where("project_id = ?", project.Id).Count(&milestoneCount)
		assert.Zero(t, milestoneCount)
		var messageCount int64
		db.Model(&model.MessageModel{}).Where("project_id = ?", project.Id).Count(&messageCount)
		assert.Zero(t, messageCount)
	})
}

// TestVersionConflict 乐观锁：持有过期版本号的写入被拒绝且不落库
func TestVersionConflict(t *testing.T) {
	deps := newTestDeps(t)
	db := deps.projects.db
	project := createTestProject(t, deps.projects, 1, 1000)

	stale, err := deps.projects.GetProject(project.Id)
	require.NoError(t, err)

	// 模拟并发写入抢先提交
	require.NoError(t, db.Model(&model.ProjectModel{}).
		Where("id = ?", project.Id).
		Update("version", stale.Version+1).Error)

	err = applyTransition(db, stale, map[string]interface{}{
		"status": model.ProjectStatusFailed,
	})
	require.Error(t, err)
	assert.Equal(t, 409, HTTPStatus(err))

	current, err := deps.projects.GetProject(project.Id)
	require.NoError(t, err)
	assert.Equal(t, model.ProjectStatusApplication, current.Status)
}

func TestGetProjectsScoping(t *testing.T) {
	deps := newTestDeps(t)
	createTestProject(t, deps.projects, 1, 1000)
	createTestProject(t, deps.projects, 1, 2000)
	createTestProject(t, deps.projects, 2, 3000)

	t.Run("scoped to owner", func(t *testing.T) {
		projects, err := deps.projects.GetProjects(1, true, "")
		require.NoError(t, err)
		assert.Len(t, projects, 2)
	})

	t.Run("unscoped sees all", func(t *testing.T) {
		projects, err := deps.projects.GetProjects(1, false, "")
		require.NoError(t, err)
		assert.Len(t, projects, 3)
	})

	t.Run("status filter", func(t *testing.T) {
		projects, err := deps.projects.GetProjects(1, false, string(model.ProjectStatusApplication))
		require.NoError(t, err)
		assert.Len(t, projects, 3)

		projects, err = deps.projects.GetProjects(1, false, string(model.ProjectStatusFailed))
		require.NoError(t, err)
		assert.Empty(t, projects)
	})
}
