// Package main 是应用程序的入口点。
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Mrpixelraf/wine-advisor/internal/config"
	"github.com/Mrpixelraf/wine-advisor/internal/handler"
	"github.com/Mrpixelraf/wine-advisor/internal/middleware"
	"github.com/Mrpixelraf/wine-advisor/internal/repository"
	"github.com/Mrpixelraf/wine-advisor/internal/service"
	"github.com/Mrpixelraf/wine-advisor/pkg/database"
	"github.com/Mrpixelraf/wine-advisor/pkg/llm"
	"github.com/Mrpixelraf/wine-advisor/pkg/log"
	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format)
	defer log.Sync()
	log.Info("日志记录器初始化成功")

	// 3. 初始化存储。未配置 Redis 时退回进程内带配额的 KV，
	// 便于本地开发与测试。
	var kv repository.KV
	if cfg.Database.Redis.Addr != "" {
		database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
		kv = repository.NewRedisKV(database.RDB)
	} else {
		log.Warnf("未配置 Redis，使用进程内存储（配额 %d 字节）", cfg.Image.MemoryQuota)
		kv = repository.NewMemoryKV(cfg.Image.MemoryQuota)
	}

	// 4. 初始化 Repository
	sessionRepo := repository.NewSessionRepository(kv)

	// 5. 初始化 Service (依赖注入)
	llmClient := llm.NewClient(cfg.LLM)
	chatService := service.NewChatService(sessionRepo, llmClient, cfg.Chat.HistoryLimit)
	cellarService := service.NewCellarService(sessionRepo)
	profileService := service.NewProfileService(sessionRepo)
	tastingService := service.NewTastingService(sessionRepo, chatService, cellarService)

	// 6. 初始化 Handler
	chatHandler := handler.NewChatHandler(chatService, cellarService, profileService, llmClient)
	cellarHandler := handler.NewCellarHandler(cellarService, profileService)
	tastingHandler := handler.NewTastingHandler(tastingService, profileService)
	profileHandler := handler.NewProfileHandler(profileService)

	// 7. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 8. 注册路由
	apiV1 := r.Group("/api/v1", middleware.DeviceSession())
	{
		chat := apiV1.Group("/chat")
		{
			chat.GET("/ws", chatHandler.Handle)
			chat.GET("/history", chatHandler.GetHistory)
			chat.POST("/completions", chatHandler.Completions)
		}

		cellar := apiV1.Group("/cellar")
		{
			cellar.GET("", cellarHandler.List)
			cellar.POST("/rate", cellarHandler.Rate)
			cellar.POST("/wishlist", cellarHandler.Wishlist)
			cellar.DELETE("/:id", cellarHandler.Delete)
		}

		tasting := apiV1.Group("/tasting")
		{
			tasting.POST("/start", tastingHandler.Start)
			tasting.GET("", tastingHandler.View)
			tasting.PUT("/level", tastingHandler.SetLevel)
			tasting.POST("/input", tastingHandler.Input)
			tasting.POST("/next", tastingHandler.Next)
			tasting.POST("/prev", tastingHandler.Prev)
			tasting.POST("/summarize", tastingHandler.Summarize)
			tasting.POST("/save", tastingHandler.Save)
			tasting.DELETE("", tastingHandler.Exit)
		}

		profile := apiV1.Group("/profile")
		{
			profile.GET("", profileHandler.Get)
			profile.GET("/recommendations", profileHandler.Recommendations)
			profile.GET("/locale", profileHandler.GetLocale)
			profile.PUT("/locale", profileHandler.SetLocale)
			profile.GET("/onboarding", profileHandler.Onboarding)
			profile.POST("/onboarding", profileHandler.CompleteOnboarding)
		}
	}

	// 9. 启动 HTTP 服务器（带优雅停机）
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		log.Infof("服务器启动，监听端口 %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务器启动失败: %v", err)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("收到停机信号，正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("服务器强制关闭: %v", err)
	}
	log.Info("服务器已退出")
}
