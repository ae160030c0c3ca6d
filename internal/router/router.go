package router

import (
	"github.com/blues/cps/internal/auth"
	"github.com/blues/cps/internal/config"
	"github.com/blues/cps/internal/handler"
	"github.com/blues/cps/internal/realtime"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

func Setup(db *gorm.DB, broadcaster *realtime.Broadcaster, cfg *config.Config) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "client-portal-service",
		})
	})

	// 指标
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authMiddleware := auth.Middleware(cfg.Auth.JWTSecret)

	// 实时通道
	wsHandler := handler.NewWSHandler(db, broadcaster)
	r.GET("/ws/projects/:id", authMiddleware, wsHandler.HandleProjectChannel)

	// API版本组
	v1 := r.Group("/api/v1")
	v1.Use(authMiddleware)
	{
		// 项目相关路由
		projectHandler := handler.NewProjectHandler(db, broadcaster)
		projects := v1.Group("/projects")
		{
			projects.POST("", projectHandler.CreateProject)
			projects.GET("", projectHandler.GetProjects)
			projects.GET("/:id", projectHandler.GetProject)
			projects.DELETE("/:id", projectHandler.DeleteProject)
			projects.GET("/:id/milestones", projectHandler.GetProjectMilestones)
			projects.POST("/:id/feasibility", projectHandler.ReviewFeasibility)
			projects.POST("/:id/plan", projectHandler.SubmitPlan)
			projects.POST("/:id/approve", projectHandler.RespondToPlan)
			projects.POST("/:id/payments", projectHandler.RecordPayment)
			projects.POST("/:id/fail", projectHandler.FailProject)
			projects.POST("/:id/review", projectHandler.CreateReview)
		}

		// 消息相关路由
		messageHandler := handler.NewMessageHandler(db, broadcaster)
		{
			projects.GET("/:id/messages", messageHandler.GetMessages)
			projects.POST("/:id/messages", messageHandler.SendMessage)
			projects.GET("/:id/messages/stream", messageHandler.StreamMessages)
		}

		// 项目进展路由
		updateHandler := handler.NewUpdateHandler(db, broadcaster)
		{
			projects.GET("/:id/updates", updateHandler.GetUpdates)
			projects.POST("/:id/updates", updateHandler.CreateUpdate)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
