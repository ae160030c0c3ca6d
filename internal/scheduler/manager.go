package scheduler

import (
	"github.com/blues/cps/internal/config"
	"github.com/blues/cps/internal/logger"
	"github.com/blues/cps/internal/realtime"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// Job 可调度任务
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// Manager 任务管理器
type Manager struct {
	scheduler gocron.Scheduler
	db        *gorm.DB
	notifier  realtime.Notifier
	config    *config.Config
}

// NewManager 创建新的任务管理器
func NewManager(db *gorm.DB, notifier realtime.Notifier, cfg *config.Config) *Manager {
	s, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}

	return &Manager{
		scheduler: s,
		db:        db,
		notifier:  notifier,
		config:    cfg,
	}
}

// Start 启动任务管理器
func Start(db *gorm.DB, notifier realtime.Notifier, cfg *config.Config) *Manager {
	manager := NewManager(db, notifier, cfg)

	// 注册所有任务
	manager.RegisterJobs()

	// 启动调度器
	manager.scheduler.Start()

	logger.Info("Task manager started successfully")
	return manager
}

// RegisterJobs 注册所有任务
func (m *Manager) RegisterJobs() {
	m.registerJob(NewNegotiationReminderJob(m.db, m.notifier, m.config))
	m.registerJob(NewOverdueMilestoneJob(m.db, m.notifier, m.config))
}

// registerJob 注册单个任务
func (m *Manager) registerJob(job Job) {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
	}
}

// Stop 停止任务管理器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
