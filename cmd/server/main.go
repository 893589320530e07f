package main

import (
	"log"
	"os"

	"github.com/athletetrack/internal/config"
	"github.com/athletetrack/internal/db"
	"github.com/athletetrack/internal/handler"
	"github.com/athletetrack/internal/logger"
	"github.com/athletetrack/internal/router"
	"github.com/athletetrack/internal/service"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer appLog.Sync()

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	// 初始化数据库
	if err := db.Init(db.Options{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
		Path:   cfg.Database.Path,
		Debug:  gin.Mode() == gin.DebugMode,
	}); err != nil {
		appLog.Fatal("failed to initialize database", "error", err, "driver", cfg.Database.Driver)
	}

	if err := os.MkdirAll(cfg.Upload.Dir, 0o755); err != nil {
		appLog.Fatal("failed to create upload dir", "error", err, "dir", cfg.Upload.Dir)
	}

	r := router.SetupRouter(db.DB, router.Config{
		SessionSecret: cfg.SessionSecret,
		CORSOrigins:   cfg.CORSOrigins,
		Logger:        appLog,
		API: handler.Options{
			UploadDir:       cfg.Upload.Dir,
			UploadURL:       cfg.Upload.URLPath,
			MaxUploadBytes:  cfg.Upload.MaxBytes,
			DefaultTimezone: cfg.DefaultTimezone,
			AI: service.AIDefaults{
				Provider:       cfg.AI.Provider,
				OpenAIAPIKey:   cfg.AI.OpenAIAPIKey,
				DeepSeekAPIKey: cfg.AI.DeepSeekAPIKey,
			},
		},
	})

	appLog.Info("server starting", "addr", cfg.ListenAddr, "driver", cfg.Database.Driver, "gin_mode", gin.Mode())
	if err := r.Run(cfg.ListenAddr); err != nil {
		appLog.Fatal("failed to run server", "error", err)
	}
}
