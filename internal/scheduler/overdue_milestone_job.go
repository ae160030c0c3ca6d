package scheduler

import (
	"time"

	"github.com/blues/cps/internal/config"
	"github.com/blues/cps/internal/logger"
	"github.com/blues/cps/internal/model"
	"github.com/blues/cps/internal/realtime"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// OverdueMilestoneJob 逾期里程碑检查任务
// 对开发中项目里已过交付日期却仍未支付的里程碑记录告警并广播刷新提示
type OverdueMilestoneJob struct {
	db       *gorm.DB
	notifier realtime.Notifier
	config   *config.Config
}

// NewOverdueMilestoneJob 创建逾期里程碑检查任务
func NewOverdueMilestoneJob(db *gorm.DB, notifier realtime.Notifier, cfg *config.Config) *OverdueMilestoneJob {
	return &OverdueMilestoneJob{
		db:       db,
		notifier: notifier,
		config:   cfg,
	}
}

// GetName 获取任务名称
func (j *OverdueMilestoneJob) GetName() string {
	return "overdue_milestone_checker"
}

// GetSchedule 获取调度配置
func (j *OverdueMilestoneJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Scheduler.Interval) * time.Second)
}

// Execute 执行任务
func (j *OverdueMilestoneJob) Execute() {
	now := time.Now()

	var milestones []model.MilestoneModel
	err := j.db.
		Joins("JOIN project ON project.id = milestone.project_id").
		Where("project.status = ?", model.ProjectStatusDevelopment).
		Where("milestone.status = ? AND milestone.due_date < ?", model.MilestoneStatusPending, now).
		Find(&milestones).Error
	if err != nil {
		logger.Error("Failed to fetch overdue milestones: %v", err)
		return
	}

	notified := make(map[int64]bool)
	for _, milestone := range milestones {
		logger.Warn("Milestone %d (%s) of project %d overdue since %v",
			milestone.Id, milestone.Name, milestone.ProjectId, milestone.DueDate)
		if !notified[milestone.ProjectId] {
			notified[milestone.ProjectId] = true
			j.notifier.Publish(milestone.ProjectId, realtime.NewEvent(realtime.EventRefresh, milestone.ProjectId, nil))
		}
	}

	if len(milestones) > 0 {
		logger.Info("Overdue milestone check completed, %d milestones overdue", len(milestones))
	}
}
