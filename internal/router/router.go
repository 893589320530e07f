package router

import (
	"net/http"
	"strings"

	"github.com/athletetrack/internal/handler"
	"github.com/athletetrack/internal/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const sessionName = "athletetrack_session"

// Config 路由所需的运行参数
type Config struct {
	SessionSecret string
	CORSOrigins   []string
	Logger        *logger.Logger
	API           handler.Options
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(gdb *gorm.DB, cfg Config) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	cfg.API.Logger = log

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(log))

	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", "X-Requested-With", requestIDHeader},
			ExposeHeaders:    []string{requestIDHeader},
			AllowCredentials: true,
		}))
	}

	// 配置会话中间件
	secret := strings.TrimSpace(cfg.SessionSecret)
	if secret == "" {
		secret = "athletetrack-dev-secret"
	}
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 30 * 24 * 60 * 60, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions(sessionName, store))

	api := handler.NewAPI(gdb, cfg.API)

	// 静态文件服务
	uploadURL := strings.TrimRight(strings.TrimSpace(cfg.API.UploadURL), "/")
	if uploadURL == "" {
		uploadURL = "/uploads"
	}
	uploadDir := strings.TrimSpace(cfg.API.UploadDir)
	if uploadDir == "" {
		uploadDir = "data/uploads"
	}
	r.Static(uploadURL, uploadDir)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	r.GET("/healthz", api.HealthCheck)

	public := r.Group("/api")
	{
		public.POST("/auth/register", api.Register)
		public.POST("/auth/login", api.Login)
		public.POST("/auth/logout", api.Logout)
	}

	// 需要登录的接口
	auth := r.Group("/api")
	auth.Use(handler.AuthRequired())
	{
		auth.GET("/me", api.Me)
		auth.PUT("/me", api.UpdateMe)
		auth.POST("/me/avatar", api.UploadAvatar)

		auth.GET("/drills", api.ListDrills)
		auth.GET("/drills/completions", api.ListDrillCompletions)
		auth.GET("/drills/:id", api.GetDrill)
		auth.POST("/drills/complete", api.CompleteDrill)

		auth.GET("/progress/streak", api.GetStreak)
		auth.GET("/skills", api.ListSkills)
		auth.GET("/badges", api.ListBadges)

		auth.GET("/challenges", api.ListChallenges)
		auth.POST("/challenges/assign", api.AssignChallenges)

		auth.GET("/leaderboard", api.GetLeaderboard)

		auth.GET("/teams", api.ListTeams)
		auth.POST("/teams", api.CreateTeam)
		auth.POST("/teams/join", api.JoinTeam)
		auth.GET("/teams/:id/members", api.ListTeamMembers)

		auth.GET("/games", api.ListGames)
		auth.POST("/games", api.LogGame)

		auth.GET("/videos", api.ListVideos)
		auth.POST("/videos", api.UploadVideo)

		auth.GET("/plans", api.ListPlans)
		auth.POST("/plans", api.GeneratePlan)
		auth.GET("/plans/:id", api.GetPlan)

		auth.GET("/settings/ai", api.GetAISettings)
		auth.PUT("/settings/ai", api.UpdateAISettings)
		auth.POST("/settings/ai/test", api.TestAIConnection)
	}

	return r
}
