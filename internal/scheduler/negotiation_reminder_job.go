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

// NegotiationReminderJob 协商停滞提醒任务
// 找出长时间没有响应的协商并向项目房间广播刷新提示，不改变任何状态
type NegotiationReminderJob struct {
	db       *gorm.DB
	notifier realtime.Notifier
	config   *config.Config
}

// NewNegotiationReminderJob 创建协商停滞提醒任务
func NewNegotiationReminderJob(db *gorm.DB, notifier realtime.Notifier, cfg *config.Config) *NegotiationReminderJob {
	return &NegotiationReminderJob{
		db:       db,
		notifier: notifier,
		config:   cfg,
	}
}

// GetName 获取任务名称
func (j *NegotiationReminderJob) GetName() string {
	return "negotiation_reminder"
}

// GetSchedule 获取调度配置
func (j *NegotiationReminderJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Scheduler.Interval) * time.Second)
}

// Execute 执行任务
func (j *NegotiationReminderJob) Execute() {
	staleBefore := time.Now().Add(-time.Duration(j.config.Scheduler.NegotiationStaleHours) * time.Hour)

	var projects []model.ProjectModel
	err := j.db.Where("status = ?", model.ProjectStatusDiscussion).
		Where("negotiation_pending IS NOT NULL").
		Where("negotiation_requested_at IS NOT NULL AND negotiation_requested_at < ?", staleBefore).
		Find(&projects).Error
	if err != nil {
		logger.Error("Failed to fetch stale negotiations: %v", err)
		return
	}

	for _, project := range projects {
		logger.Warn("Negotiation on project %d pending on %s since %v",
			project.Id, *project.NegotiationPending, project.NegotiationRequestedAt)
		j.notifier.Publish(project.Id, realtime.NewEvent(realtime.EventRefresh, project.Id, nil))
	}

	if len(projects) > 0 {
		logger.Info("Negotiation reminder completed, %d stale negotiations", len(projects))
	}
}
