package handler

import (
	"net/http"

	"github.com/blues/cps/internal/auth"
	"github.com/blues/cps/internal/logic"
	"github.com/blues/cps/internal/realtime"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UpdateHandler 项目进展接口
type UpdateHandler struct {
	projectLogic *logic.ProjectLogic
	updateLogic  *logic.UpdateLogic
}

// NewUpdateHandler 创建项目进展接口处理器
func NewUpdateHandler(db *gorm.DB, notifier realtime.Notifier) *UpdateHandler {
	return &UpdateHandler{
		projectLogic: logic.NewProjectLogic(db, notifier),
		updateLogic:  logic.NewUpdateLogic(db, notifier),
	}
}

// GetUpdates 获取项目进展列表
func (h *UpdateHandler) GetUpdates(c *gin.Context) {
	id, ok := parseProjectId(c)
	if !ok {
		return
	}
	project, err := h.projectLogic.GetProject(id)
	if err != nil {
		HandleError(c, err)
		return
	}
	if _, ok := authorize(c, auth.OpUpdateList, project); !ok {
		return
	}

	updates, err := h.updateLogic.List(project.Id)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", updates)
}

// CreateUpdate 团队发布项目进展
func (h *UpdateHandler) CreateUpdate(c *gin.Context) {
	id, ok := parseProjectId(c)
	if !ok {
		return
	}
	project, err := h.projectLogic.GetProject(id)
	if err != nil {
		HandleError(c, err)
		return
	}
	if _, ok := authorize(c, auth.OpUpdateCreate, project); !ok {
		return
	}

	var req CreateUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	update, err := h.updateLogic.Create(project.Id, req.Title, req.Content)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "项目进展已发布", update)
}
