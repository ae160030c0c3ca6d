package logic

import (
	"errors"
	"fmt"
	"time"

	"github.com/blues/cps/internal/metrics"
	"github.com/blues/cps/internal/model"
	"github.com/blues/cps/internal/realtime"
	"gorm.io/gorm"
)

// CreateProjectInput 创建项目入参
type CreateProjectInput struct {
	Name            string  `json:"name"`
	Requirements    string  `json:"requirements"`
	DevelopmentCost float64 `json:"development_cost"`
	Deadline        string  `json:"deadline"`
}

// ProjectLogic 项目生命周期业务逻辑
// 状态机：APPLICATION_IN_PROGRESS → DISCUSSION_IN_PROGRESS → DEVELOPMENT_IN_PROGRESS → SUCCEEDED，
// FAILED 可从任意非终态进入且不可退出
type ProjectLogic struct {
	db         *gorm.DB
	notifier   realtime.Notifier
	milestones *MilestoneLogic
}

// NewProjectLogic 创建项目业务逻辑
func NewProjectLogic(db *gorm.DB, notifier realtime.Notifier) *ProjectLogic {
	return &ProjectLogic{
		db:         db,
		notifier:   notifier,
		milestones: NewMilestoneLogic(db),
	}
}

// findProject 按ID加载项目
func findProject(db *gorm.DB, id int64) (*model.ProjectModel, error) {
	var project model.ProjectModel
	if err := db.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound("项目不存在")
		}
		return nil, fmt.Errorf("获取项目失败: %w", err)
	}
	return &project, nil
}

// applyTransition 以乐观锁方式提交项目变更
// 版本号不匹配说明有并发写入，此时不落任何字段
func applyTransition(tx *gorm.DB, project *model.ProjectModel, updates map[string]interface{}) error {
	updates["version"] = project.Version + 1
	res := tx.Model(&model.ProjectModel{}).
		Where("id = ? AND version = ?", project.Id, project.Version).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("更新项目失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		metrics.VersionConflicts.Inc()
		return errConflict("项目已被其他操作修改，请重试")
	}
	if status, ok := updates["status"]; ok {
		if s, ok := status.(model.ProjectStatus); ok && s != project.Status {
			metrics.ProjectTransitions.WithLabelValues(string(s)).Inc()
		}
	}
	return nil
}

// broadcastStatus 广播状态变更事件，携带最新项目快照
// 广播失败不影响已提交的状态变更，轮询兜底
func (p *ProjectLogic) broadcastStatus(projectId int64) {
	project, err := findProject(p.db, projectId)
	if err != nil {
		return
	}
	p.notifier.Publish(projectId, realtime.NewEvent(realtime.EventStatusChanged, projectId, project))
}

// CreateProject 客户提交项目申请
func (p *ProjectLogic) CreateProject(clientId int64, input CreateProjectInput) (*model.ProjectModel, error) {
	if input.Name == "" {
		return nil, errValidation("项目名称不能为空")
	}
	if input.Requirements == "" {
		return nil, errValidation("需求描述不能为空")
	}
	if input.DevelopmentCost <= 0 {
		return nil, errValidation("开发费用必须大于0")
	}
	deadline, err := time.Parse(dateLayout, input.Deadline)
	if err != nil {
		return nil, errValidation("截止日期格式无效，应为YYYY-MM-DD")
	}
	today := time.Now().Truncate(24 * time.Hour)
	if deadline.Before(today) {
		return nil, errValidation("截止日期不能早于今天")
	}

	project := &model.ProjectModel{
		ClientId:          clientId,
		Name:              input.Name,
		Requirements:      input.Requirements,
		DevelopmentCost:   input.DevelopmentCost,
		Deadline:          deadline,
		Status:            model.ProjectStatusApplication,
		FeasibilityStatus: model.FeasibilityPending,
	}
	if err := p.db.Create(project).Error; err != nil {
		return nil, fmt.Errorf("创建项目失败: %w", err)
	}

	metrics.ProjectTransitions.WithLabelValues(string(model.ProjectStatusApplication)).Inc()
	return project, nil
}

// GetProjects 获取项目列表
// scopedToOwner 为真时只返回指定客户自己的项目
func (p *ProjectLogic) GetProjects(viewerId int64, scopedToOwner bool, status string) ([]model.ProjectModel, error) {
	query := p.db.Order("created_at DESC")
	if scopedToOwner {
		query = query.Where("client_id = ?", viewerId)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var projects []model.ProjectModel
	if err := query.Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("获取项目列表失败: %w", err)
	}
	return projects, nil
}

// GetProject 获取项目详情
func (p *ProjectLogic) GetProject(id int64) (*model.ProjectModel, error) {
	return findProject(p.db, id)
}

// ReviewFeasibility 团队执行可行性评审
// 通过后项目进入方案协商阶段，拒绝则直接失败
func (p *ProjectLogic) ReviewFeasibility(projectId int64, status model.FeasibilityStatus, reason string) (*model.ProjectModel, error) {
	project, err := findProject(p.db, projectId)
	if err != nil {
		return nil, err
	}
	if project.Status != model.ProjectStatusApplication || project.FeasibilityStatus != model.FeasibilityPending {
		return nil, errState("项目不在可行性评审阶段")
	}

	var updates map[string]interface{}
	switch status {
	case model.FeasibilityApproved:
		updates = map[string]interface{}{
			"feasibility_status": model.FeasibilityApproved,
			"status":             model.ProjectStatusDiscussion,
		}
	case model.FeasibilityRejected:
		if reason == "" {
			return nil, errValidation("拒绝时必须填写原因")
		}
		updates = map[string]interface{}{
			"feasibility_status":     model.FeasibilityRejected,
			"feasibility_reason":     reason,
			"status":                 model.ProjectStatusFailed,
			"failure_reason":         reason,
			"failure_responsibility": "team",
		}
	default:
		return nil, errValidation("无效的评审结果")
	}

	if err := applyTransition(p.db, project, updates); err != nil {
		return nil, err
	}

	p.broadcastStatus(projectId)
	return findProject(p.db, projectId)
}

// RecordPayment 记录里程碑支付
// 全部里程碑支付完成时项目自动进入成功状态
func (p *ProjectLogic) RecordPayment(projectId, milestoneId int64, paymentConfirmed bool) (*model.ProjectModel, error) {
	if !paymentConfirmed {
		return nil, errValidation("请先确认支付")
	}

	project, err := findProject(p.db, projectId)
	if err != nil {
		return nil, err
	}
	if project.Status != model.ProjectStatusDevelopment {
		return nil, errState("项目不在开发阶段，无法支付里程碑")
	}

	allPaid := false
	err = p.db.Transaction(func(tx *gorm.DB) error {
		paidTotal, done, err := p.milestones.MarkPaid(tx, projectId, milestoneId)
		if err != nil {
			return err
		}
		allPaid = done

		updates := map[string]interface{}{"total_paid": paidTotal}
		if allPaid {
			updates["status"] = model.ProjectStatusSucceeded
		}
		return applyTransition(tx, project, updates)
	})
	if err != nil {
		return nil, err
	}

	if allPaid {
		p.broadcastStatus(projectId)
	} else {
		p.notifier.Publish(projectId, realtime.NewEvent(realtime.EventRefresh, projectId, nil))
	}
	return findProject(p.db, projectId)
}

// FailProject 开发阶段取消项目
// 未指明责任方时默认归属操作者一侧
func (p *ProjectLogic) FailProject(projectId int64, reason, responsibility string, actorRole model.Role) (*model.ProjectModel, error) {
	if reason == "" {
		return nil, errValidation("取消原因不能为空")
	}

	project, err := findProject(p.db, projectId)
	if err != nil {
		return nil, err
	}
	if project.Status != model.ProjectStatusDevelopment {
		return nil, errState("只有开发中的项目才能取消")
	}

	if responsibility == "" {
		if actorRole == model.RoleClient {
			responsibility = "client"
		} else {
			responsibility = "team"
		}
	}

	updates := map[string]interface{}{
		"status":                 model.ProjectStatusFailed,
		"failure_reason":         reason,
		"failure_responsibility": responsibility,
	}
	if err := applyTransition(p.db, project, updates); err != nil {
		return nil, err
	}

	p.broadcastStatus(projectId)
	return findProject(p.db, projectId)
}

// DeleteProject 删除项目及其全部关联数据
// 只允许删除失败状态的项目
func (p *ProjectLogic) DeleteProject(projectId int64) error {
	project, err := findProject(p.db, projectId)
	if err != nil {
		return err
	}
	if project.Status != model.ProjectStatusFailed {
		return errState("只能删除失败状态的项目")
	}

	return p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", projectId).Delete(&model.MilestoneModel{}).Error; err != nil {
			return fmt.Errorf("删除里程碑失败: %w", err)
		}
		if err := tx.Where("project_id = ?", projectId).Delete(&model.MessageModel{}).Error; err != nil {
			return fmt.Errorf("删除消息失败: %w", err)
		}
		if err := tx.Where("project_id = ?", projectId).Delete(&model.ReviewModel{}).Error; err != nil {
			return fmt.Errorf("删除评价失败: %w", err)
		}
		if err := tx.Where("project_id = ?", projectId).Delete(&model.ProjectUpdateModel{}).Error; err != nil {
			return fmt.Errorf("删除项目进展失败: %w", err)
		}
		if err := tx.Delete(&model.ProjectModel{}, projectId).Error; err != nil {
			return fmt.Errorf("删除项目失败: %w", err)
		}
		return nil
	})
}
