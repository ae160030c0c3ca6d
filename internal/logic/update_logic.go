package logic

import (
	"fmt"

	"github.com/blues/cps/internal/model"
	"github.com/blues/cps/internal/realtime"
	"gorm.io/gorm"
)

// UpdateLogic 项目进展业务逻辑
// 进展由团队发布，只追加不修改
type UpdateLogic struct {
	db       *gorm.DB
	notifier realtime.Notifier
}

// NewUpdateLogic 创建项目进展业务逻辑
func NewUpdateLogic(db *gorm.DB, notifier realtime.Notifier) *UpdateLogic {
	return &UpdateLogic{db: db, notifier: notifier}
}

// Create 发布项目进展
func (u *UpdateLogic) Create(projectId int64, title, content string) (*model.ProjectUpdateModel, error) {
	if title == "" {
		return nil, errValidation("进展标题不能为空")
	}
	if _, err := findProject(u.db, projectId); err != nil {
		return nil, err
	}

	update := &model.ProjectUpdateModel{
		ProjectId: projectId,
		Title:     title,
		Content:   content,
	}
	if err := u.db.Create(update).Error; err != nil {
		return nil, fmt.Errorf("发布项目进展失败: %w", err)
	}

	u.notifier.Publish(projectId, realtime.NewEvent(realtime.EventRefresh, projectId, nil))
	return update, nil
}

// List 获取项目进展，最新的在前
func (u *UpdateLogic) List(projectId int64) ([]model.ProjectUpdateModel, error) {
	var updates []model.ProjectUpdateModel
	if err := u.db.Where("project_id = ?", projectId).
		Order("id DESC").Find(&updates).Error; err != nil {
		return nil, fmt.Errorf("获取项目进展失败: %w", err)
	}
	return updates, nil
}
