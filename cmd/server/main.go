package main

import (
	"github.com/blues/cps/internal/config"
	"github.com/blues/cps/internal/database"
	"github.com/blues/cps/internal/logger"
	"github.com/blues/cps/internal/realtime"
	"github.com/blues/cps/internal/router"
	"github.com/blues/cps/internal/scheduler"
	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	level := logger.ParseLogLevel(cfg.Log.Level)
	if cfg.Log.Output == "file" {
		fileLogger, err := logger.NewWithFileRotation(level, cfg.Log.File)
		if err != nil {
			logger.Fatal("Failed to initialize file logger: %v", err)
		}
		logger.SetDefaultLogger(fileLogger)
	}
	defer logger.Sync()

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 初始化实时广播器
	broadcaster, err := realtime.NewBroadcaster(cfg.Realtime.PoolSize, cfg.Realtime.BufferSize)
	if err != nil {
		logger.Fatal("Failed to initialize broadcaster: %v", err)
	}
	defer broadcaster.Shutdown()

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(db, broadcaster, cfg)

	// 启动定时任务
	manager := scheduler.Start(db, broadcaster, cfg)
	defer manager.Stop()

	// 启动服务器
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
