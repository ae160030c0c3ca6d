package logic

import (
	"errors"
	"fmt"

	"github.com/blues/cps/internal/model"
	"gorm.io/gorm"
)

// ReviewLogic 项目评价业务逻辑
type ReviewLogic struct {
	db *gorm.DB
}

// NewReviewLogic 创建评价业务逻辑
func NewReviewLogic(db *gorm.DB) *ReviewLogic {
	return &ReviewLogic{db: db}
}

// Create 客户为已成功的项目留下评价，每个项目最多一条
func (r *ReviewLogic) Create(projectId int64, rating int, comment string) (*model.ReviewModel, error) {
	if rating < 1 || rating > 5 {
		return nil, errValidation("评分必须在1到5之间")
	}

	project, err := findProject(r.db, projectId)
	if err != nil {
		return nil, err
	}
	if project.Status != model.ProjectStatusSucceeded {
		return nil, errState("只有成功的项目才能评价")
	}

	var existing model.ReviewModel
	err = r.db.Where("project_id = ?", projectId).First(&existing).Error
	if err == nil {
		return nil, errState("该项目已有评价")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("查询评价失败: %w", err)
	}

	review := &model.ReviewModel{
		ProjectId: projectId,
		Rating:    rating,
		Comment:   comment,
	}
	if err := r.db.Create(review).Error; err != nil {
		return nil, fmt.Errorf("创建评价失败: %w", err)
	}
	return review, nil
}

// Get 获取项目评价
func (r *ReviewLogic) Get(projectId int64) (*model.ReviewModel, error) {
	var review model.ReviewModel
	if err := r.db.Where("project_id = ?", projectId).First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound("评价不存在")
		}
		return nil, fmt.Errorf("获取评价失败: %w", err)
	}
	return &review, nil
}
