package handler

import (
	"net/http"

	"github.com/blues/cps/internal/auth"
	"github.com/blues/cps/internal/logic"
	"github.com/blues/cps/internal/model"
	"github.com/gin-gonic/gin"
)

// Response 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// HandleError 将业务错误映射为HTTP响应
func HandleError(c *gin.Context, err error) {
	status := logic.HTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		// 内部错误不向调用方暴露细节
		message = "服务内部错误"
	}
	ErrorResponse(c, status, message)
}

// requireIdentity 获取当前身份，缺失时返回401
func requireIdentity(c *gin.Context) (auth.Identity, bool) {
	ident, ok := auth.CurrentIdentity(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "未认证的请求")
		return auth.Identity{}, false
	}
	return ident, true
}

// authorize 按策略表校验操作权限
// project 为 nil 时表示操作不针对具体项目
func authorize(c *gin.Context, op auth.Operation, project *model.ProjectModel) (auth.Identity, bool) {
	ident, ok := requireIdentity(c)
	if !ok {
		return auth.Identity{}, false
	}

	isOwner := project != nil && project.IsOwnedBy(ident.UserId)
	if !auth.Allowed(op, ident.Role, isOwner) {
		ErrorResponse(c, http.StatusForbidden, "没有权限执行该操作")
		return auth.Identity{}, false
	}
	return ident, true
}
