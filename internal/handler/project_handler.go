package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/cps/internal/auth"
	"github.com/blues/cps/internal/logic"
	"github.com/blues/cps/internal/model"
	"github.com/blues/cps/internal/realtime"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ProjectHandler 项目相关接口
type ProjectHandler struct {
	projectLogic     *logic.ProjectLogic
	negotiationLogic *logic.NegotiationLogic
	milestoneLogic   *logic.MilestoneLogic
	reviewLogic      *logic.ReviewLogic
}

// NewProjectHandler 创建项目接口处理器
func NewProjectHandler(db *gorm.DB, notifier realtime.Notifier) *ProjectHandler {
	return &ProjectHandler{
		projectLogic:     logic.NewProjectLogic(db, notifier),
		negotiationLogic: logic.NewNegotiationLogic(db, notifier),
		milestoneLogic:   logic.NewMilestoneLogic(db),
		reviewLogic:      logic.NewReviewLogic(db),
	}
}

// parseProjectId 解析路径中的项目ID
func parseProjectId(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return 0, false
	}
	return id, true
}

// loadAndAuthorize 加载项目并按策略表校验权限
func (h *ProjectHandler) loadAndAuthorize(c *gin.Context, op auth.Operation) (*model.ProjectModel, auth.Identity, bool) {
	id, ok := parseProjectId(c)
	if !ok {
		return nil, auth.Identity{}, false
	}
	project, err := h.projectLogic.GetProject(id)
	if err != nil {
		HandleError(c, err)
		return nil, auth.Identity{}, false
	}
	ident, ok := authorize(c, op, project)
	if !ok {
		return nil, auth.Identity{}, false
	}
	return project, ident, true
}

// CreateProject 客户提交项目申请
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	ident, ok := authorize(c, auth.OpProjectCreate, nil)
	if !ok {
		return
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	project, err := h.projectLogic.CreateProject(ident.UserId, logic.CreateProjectInput{
		Name:            req.Name,
		Requirements:    req.Requirements,
		DevelopmentCost: req.DevelopmentCost,
		Deadline:        req.Deadline,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "项目创建成功", project)
}

// GetProjects 获取项目列表
// 客户只能看到自己的项目，团队可以看到全部
func (h *ProjectHandler) GetProjects(c *gin.Context) {
	ident, ok := authorize(c, auth.OpProjectList, nil)
	if !ok {
		return
	}

	scoped := auth.ListScopedToOwner(auth.OpProjectList, ident.Role)
	projects, err := h.projectLogic.GetProjects(ident.UserId, scoped, c.Query("status"))
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", projects)
}

// GetProject 获取项目详情
func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, _, ok := h.loadAndAuthorize(c, auth.OpProjectView)
	if !ok {
		return
	}
	SuccessResponse(c, http.StatusOK, "", project)
}

// GetProjectMilestones 获取项目里程碑，按交付日期升序
func (h *ProjectHandler) GetProjectMilestones(c *gin.Context) {
	project, _, ok := h.loadAndAuthorize(c, auth.OpProjectView)
	if !ok {
		return
	}

	milestones, err := h.milestoneLogic.GetProjectMilestones(project.Id)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", milestones)
}

// ReviewFeasibility 团队执行可行性评审
func (h *ProjectHandler) ReviewFeasibility(c *gin.Context) {
	project, _, ok := h.loadAndAuthorize(c, auth.OpFeasibilityReview)
	if !ok {
		return
	}

	var req FeasibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.projectLogic.ReviewFeasibility(project.Id, model.FeasibilityStatus(req.Status), req.Reason)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "评审已提交", updated)
}

// SubmitPlan 团队提交开发方案或响应客户的协商请求
func (h *ProjectHandler) SubmitPlan(c *gin.Context) {
	project, _, ok := h.loadAndAuthorize(c, auth.OpPlanSubmit)
	if !ok {
		return
	}

	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var updated *model.ProjectModel
	var err error
	if req.Action == "" {
		updated, err = h.negotiationLogic.ProposePlan(project.Id, req.DevelopmentPlan, req.Milestones)
	} else {
		updated, err = h.negotiationLogic.RespondAsTeam(project.Id, req.Action, req.DevelopmentPlan, req.Milestones, req.Message)
	}
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "方案已提交", updated)
}

// RespondToPlan 客户响应当前开发方案
func (h *ProjectHandler) RespondToPlan(c *gin.Context) {
	project, _, ok := h.loadAndAuthorize(c, auth.OpClientRespond)
	if !ok {
		return
	}

	var req ClientResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.negotiationLogic.RespondAsClient(project.Id, req.Action, req.PaymentConfirmed, req.Message)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "响应已提交", updated)
}

// RecordPayment 记录里程碑支付
func (h *ProjectHandler) RecordPayment(c *gin.Context) {
	project, _, ok := h.loadAndAuthorize(c, auth.OpPaymentRecord)
	if !ok {
		return
	}

	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.projectLogic.RecordPayment(project.Id, req.MilestoneId, req.PaymentConfirmed)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "支付已记录", updated)
}

// FailProject 开发阶段取消项目
func (h *ProjectHandler) FailProject(c *gin.Context) {
	project, ident, ok := h.loadAndAuthorize(c, auth.OpProjectFail)
	if !ok {
		return
	}

	var req FailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.projectLogic.FailProject(project.Id, req.Reason, req.Responsibility, ident.Role)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "项目已取消", updated)
}

// CreateReview 客户评价已成功的项目
func (h *ProjectHandler) CreateReview(c *gin.Context) {
	project, _, ok := h.loadAndAuthorize(c, auth.OpReviewCreate)
	if !ok {
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	review, err := h.reviewLogic.Create(project.Id, req.Rating, req.Comment)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "评价已提交", review)
}

// DeleteProject 删除失败状态的项目
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	project, _, ok := h.loadAndAuthorize(c, auth.OpProjectDelete)
	if !ok {
		return
	}

	if err := h.projectLogic.DeleteProject(project.Id); err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "项目已删除", nil)
}
