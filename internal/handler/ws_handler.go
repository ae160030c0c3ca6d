package handler

import (
	"net/http"

	"github.com/blues/cps/internal/auth"
	"github.com/blues/cps/internal/logger"
	"github.com/blues/cps/internal/logic"
	"github.com/blues/cps/internal/realtime"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// WSHandler 项目实时通道
type WSHandler struct {
	projectLogic *logic.ProjectLogic
	broadcaster  *realtime.Broadcaster
}

// NewWSHandler 创建实时通道处理器
func NewWSHandler(db *gorm.DB, broadcaster *realtime.Broadcaster) *WSHandler {
	return &WSHandler{
		projectLogic: logic.NewProjectLogic(db, broadcaster),
		broadcaster:  broadcaster,
	}
}

// HandleProjectChannel 订阅项目房间
// 升级为WebSocket后持续推送该项目的事件，断开时自动退订
func (h *WSHandler) HandleProjectChannel(c *gin.Context) {
	id, ok := parseProjectId(c)
	if !ok {
		return
	}
	project, err := h.projectLogic.GetProject(id)
	if err != nil {
		HandleError(c, err)
		return
	}
	if _, ok := authorize(c, auth.OpRealtimeSubscribe, project); !ok {
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("failed to upgrade the websocket: %v", err)
		return
	}
	defer ws.Close()

	sub := h.broadcaster.Subscribe(project.Id)
	defer h.broadcaster.Unsubscribe(sub)
	logger.Info("websocket subscriber %s joined project %d", sub.Id, project.Id)

	if err := ws.WriteJSON(gin.H{
		"type":            "connected",
		"subscription_id": sub.Id,
		"project_id":      project.Id,
	}); err != nil {
		return
	}

	// 读协程只用来感知客户端断开
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-sub.C:
			if !ok {
				// 广播器已关闭
				return
			}
			if err := ws.WriteJSON(event); err != nil {
				logger.Debug("websocket subscriber %s write failed: %v", sub.Id, err)
				return
			}
		case <-done:
			logger.Info("websocket subscriber %s left project %d", sub.Id, project.Id)
			return
		}
	}
}
