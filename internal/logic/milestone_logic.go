package logic

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/blues/cps/internal/model"
	"gorm.io/gorm"
)

// costTolerance 里程碑金额总和与开发费用的允许误差
const costTolerance = 0.01

// dateLayout 接口层传入的日期格式
const dateLayout = "2006-01-02"

// MilestoneInput 里程碑入参
type MilestoneInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	DueDate     string  `json:"due_date"`
}

// MilestoneLogic 里程碑业务逻辑
// 维护不变式：活动里程碑集合的金额总和等于项目开发费用，
// 集合只能整体替换，不能部分修改
type MilestoneLogic struct {
	db *gorm.DB
}

// NewMilestoneLogic 创建里程碑业务逻辑
func NewMilestoneLogic(db *gorm.DB) *MilestoneLogic {
	return &MilestoneLogic{db: db}
}

// ValidateAndSum 校验里程碑集合并返回金额总和
// 任何一条不合法或总和与开发费用误差超过0.01时整体拒绝
func (m *MilestoneLogic) ValidateAndSum(inputs []MilestoneInput, developmentCost float64) (float64, []model.MilestoneModel, error) {
	if len(inputs) == 0 {
		return 0, nil, errValidation("里程碑不能为空")
	}

	total := 0.0
	milestones := make([]model.MilestoneModel, 0, len(inputs))
	for i, input := range inputs {
		if input.Name == "" {
			return 0, nil, errValidation("第%d个里程碑缺少名称", i+1)
		}
		if input.Amount <= 0 {
			return 0, nil, errValidation("第%d个里程碑金额必须大于0", i+1)
		}
		if input.DueDate == "" {
			return 0, nil, errValidation("第%d个里程碑缺少交付日期", i+1)
		}
		dueDate, err := time.Parse(dateLayout, input.DueDate)
		if err != nil {
			return 0, nil, errValidation("第%d个里程碑交付日期格式无效，应为YYYY-MM-DD", i+1)
		}

		total += input.Amount
		milestones = append(milestones, model.MilestoneModel{
			Name:        input.Name,
			Description: input.Description,
			Amount:      input.Amount,
			DueDate:     dueDate,
			Status:      model.MilestoneStatusPending,
		})
	}

	if math.Abs(total-developmentCost) > costTolerance {
		return 0, nil, errValidation("里程碑金额总和 %.2f 与开发费用 %.2f 不一致", total, developmentCost)
	}

	return total, milestones, nil
}

// ReplaceAll 整体替换项目的里程碑集合
// 必须在事务内调用，删除和插入要么全部成功要么全部回滚
func (m *MilestoneLogic) ReplaceAll(tx *gorm.DB, projectId int64, milestones []model.MilestoneModel) error {
	if err := tx.Where("project_id = ?", projectId).Delete(&model.MilestoneModel{}).Error; err != nil {
		return fmt.Errorf("删除原有里程碑失败: %w", err)
	}

	for i := range milestones {
		milestones[i].Id = 0
		milestones[i].ProjectId = projectId
	}
	if err := tx.Create(&milestones).Error; err != nil {
		return fmt.Errorf("写入里程碑失败: %w", err)
	}

	return nil
}

// GetProjectMilestones 获取项目里程碑，按交付日期升序
func (m *MilestoneLogic) GetProjectMilestones(projectId int64) ([]model.MilestoneModel, error) {
	var milestones []model.MilestoneModel
	if err := m.db.Where("project_id = ?", projectId).
		Order("due_date ASC").Find(&milestones).Error; err != nil {
		return nil, fmt.Errorf("获取里程碑列表失败: %w", err)
	}
	return milestones, nil
}

// MarkPaid 将里程碑标记为已支付
// 返回项目的已支付总额以及是否所有里程碑都已支付
// 幂等保护：已支付的里程碑再次标记会被拒绝
func (m *MilestoneLogic) MarkPaid(tx *gorm.DB, projectId, milestoneId int64) (float64, bool, error) {
	var milestone model.MilestoneModel
	if err := tx.Where("id = ? AND project_id = ?", milestoneId, projectId).
		First(&milestone).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, errNotFound("里程碑不存在")
		}
		return 0, false, fmt.Errorf("获取里程碑失败: %w", err)
	}

	if milestone.Status == model.MilestoneStatusPaid {
		return 0, false, errState("里程碑已支付，不能重复支付")
	}

	now := time.Now()
	if err := tx.Model(&milestone).Updates(map[string]interface{}{
		"status":  model.MilestoneStatusPaid,
		"paid_at": &now,
	}).Error; err != nil {
		return 0, false, fmt.Errorf("更新里程碑失败: %w", err)
	}

	var paidTotal float64
	if err := tx.Model(&model.MilestoneModel{}).
		Where("project_id = ? AND status = ?", projectId, model.MilestoneStatusPaid).
		Select("COALESCE(SUM(amount), 0)").Scan(&paidTotal).Error; err != nil {
		return 0, false, fmt.Errorf("统计已支付金额失败: %w", err)
	}

	var pending int64
	if err := tx.Model(&model.MilestoneModel{}).
		Where("project_id = ? AND status = ?", projectId, model.MilestoneStatusPending).
		Count(&pending).Error; err != nil {
		return 0, false, fmt.Errorf("统计待支付里程碑失败: %w", err)
	}

	return paidTotal, pending == 0, nil
}

// EarliestPending 获取交付日期最早的待支付里程碑
func (m *MilestoneLogic) EarliestPending(tx *gorm.DB, projectId int64) (*model.MilestoneModel, error) {
	var milestone model.MilestoneModel
	if err := tx.Where("project_id = ? AND status = ?", projectId, model.MilestoneStatusPending).
		Order("due_date ASC").First(&milestone).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errState("没有待支付的里程碑")
		}
		return nil, fmt.Errorf("获取里程碑失败: %w", err)
	}
	return &milestone, nil
}
