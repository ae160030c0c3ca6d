package logic

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/blues/cps/internal/database"
	"github.com/blues/cps/internal/model"
	"github.com/blues/cps/internal/realtime"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// newTestDB 基于sqlite的测试数据库，表结构与生产一致
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		NamingStrategy: &schema.NamingStrategy{
			SingularTable: true,
		},
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

// fakeNotifier 记录所有广播事件的假广播器
type fakeNotifier struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (f *fakeNotifier) Publish(projectId int64, event realtime.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

// Events 获取已记录的事件
func (f *fakeNotifier) Events() []realtime.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]realtime.Event, len(f.events))
	copy(out, f.events)
	return out
}

// CountByType 按类型统计事件
func (f *fakeNotifier) CountByType(eventType realtime.EventType) int {
	count := 0
	for _, event := range f.Events() {
		if event.Type == eventType {
			count++
		}
	}
	return count
}

// futureDate 返回n天后的日期字符串
func futureDate(days int) string {
	return time.Now().AddDate(0, 0, days).Format(dateLayout)
}

// createTestProject 创建一个客户项目申请
func createTestProject(t *testing.T, p *ProjectLogic, clientId int64, cost float64) *model.ProjectModel {
	t.Helper()

	project, err := p.CreateProject(clientId, CreateProjectInput{
		Name:            "企业官网重构",
		Requirements:    "需要一个支持多语言的响应式官网",
		DevelopmentCost: cost,
		Deadline:        futureDate(30),
	})
	require.NoError(t, err)
	return project
}

// approvedProject 创建并通过可行性评审的项目
func approvedProject(t *testing.T, p *ProjectLogic, clientId int64, cost float64) *model.ProjectModel {
	t.Helper()

	project := createTestProject(t, p, clientId, cost)
	updated, err := p.ReviewFeasibility(project.Id, model.FeasibilityApproved, "")
	require.NoError(t, err)
	return updated
}

// twoMilestones 常用的两段里程碑输入
func twoMilestones(first, second float64) []MilestoneInput {
	return []MilestoneInput{
		{Name: "第一期", Amount: first, DueDate: futureDate(10)},
		{Name: "第二期", Amount: second, DueDate: futureDate(20)},
	}
}
