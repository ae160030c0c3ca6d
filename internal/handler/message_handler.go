package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/blues/cps/internal/auth"
	"github.com/blues/cps/internal/logger"
	"github.com/blues/cps/internal/logic"
	"github.com/blues/cps/internal/model"
	"github.com/blues/cps/internal/realtime"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// 消息流的轮询与心跳间隔
const (
	streamPollInterval      = 2 * time.Second
	streamHeartbeatInterval = 15 * time.Second
)

// MessageHandler 项目消息接口
type MessageHandler struct {
	projectLogic *logic.ProjectLogic
	messageLogic *logic.MessageLogic
}

// NewMessageHandler 创建消息接口处理器
func NewMessageHandler(db *gorm.DB, notifier realtime.Notifier) *MessageHandler {
	return &MessageHandler{
		projectLogic: logic.NewProjectLogic(db, notifier),
		messageLogic: logic.NewMessageLogic(db, notifier),
	}
}

// loadAndAuthorize 加载项目并校验权限
func (h *MessageHandler) loadAndAuthorize(c *gin.Context, op auth.Operation) (*model.ProjectModel, auth.Identity, bool) {
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

// GetMessages 获取项目消息和未读数
// 只读操作，不改变已读状态
func (h *MessageHandler) GetMessages(c *gin.Context) {
	project, ident, ok := h.loadAndAuthorize(c, auth.OpMessageRead)
	if !ok {
		return
	}

	messages, err := h.messageLogic.List(project.Id)
	if err != nil {
		HandleError(c, err)
		return
	}
	unread, err := h.messageLogic.UnreadCount(project.Id, ident.UserId)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", gin.H{
		"messages": messages,
		"unread":   unread,
	})
}

// SendMessage 发送项目消息
func (h *MessageHandler) SendMessage(c *gin.Context) {
	project, ident, ok := h.loadAndAuthorize(c, auth.OpMessageSend)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	message, err := h.messageLogic.Send(project.Id, ident.UserId, req.Content)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "消息已发送", message)
}

// streamEvent 消息流中的一条NDJSON事件
type streamEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
	Time  time.Time   `json:"time"`
}

// StreamMessages 消息流降级通道
// 在WebSocket不可用的部署环境下，客户端通过该长连接以2秒间隔
// 获得新消息；连接保持到客户端断开为止
func (h *MessageHandler) StreamMessages(c *gin.Context) {
	project, ident, ok := h.loadAndAuthorize(c, auth.OpMessageRead)
	if !ok {
		return
	}

	c.Writer.Header().Set("Content-Type", "application/x-ndjson")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)

	write := func(event streamEvent) bool {
		data, err := json.Marshal(event)
		if err != nil {
			return false
		}
		if _, err := c.Writer.Write(append(data, '\n')); err != nil {
			return false
		}
		c.Writer.Flush()
		return true
	}

	if !write(streamEvent{Event: "connected", Time: time.Now()}) {
		return
	}

	// 从已有消息的末尾开始推送增量
	var lastId int64
	if existing, err := h.messageLogic.List(project.Id); err == nil && len(existing) > 0 {
		lastId = existing[len(existing)-1].Id
	}

	poll := time.NewTicker(streamPollInterval)
	defer poll.Stop()
	heartbeat := time.NewTicker(streamHeartbeatInterval)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			// 客户端断开，释放定时器并结束长连接
			logger.Debug("message stream closed for project %d", project.Id)
			return

		case <-poll.C:
			messages, err := h.messageLogic.FetchNew(project.Id, ident.UserId, lastId)
			if err != nil {
				write(streamEvent{Event: "error", Data: "获取新消息失败", Time: time.Now()})
				return
			}
			for _, message := range messages {
				lastId = message.Id
				if !write(streamEvent{Event: "message", Data: message, Time: time.Now()}) {
					return
				}
			}

		case <-heartbeat.C:
			if !write(streamEvent{Event: "heartbeat", Time: time.Now()}) {
				return
			}
		}
	}
}
