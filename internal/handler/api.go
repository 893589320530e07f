package handler

import (
	"strings"

	"github.com/athletetrack/internal/logger"
	"github.com/athletetrack/internal/service"
	"gorm.io/gorm"
)

const defaultMaxUploadBytes int64 = 200 << 20

// Options 构造 API 所需的运行参数
type Options struct {
	Logger          *logger.Logger
	UploadDir       string
	UploadURL       string
	MaxUploadBytes  int64
	DefaultTimezone string
	AI              service.AIDefaults
}

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db          *gorm.DB
	log         *logger.Logger
	auth        *service.AuthService
	drills      *service.DrillService
	activities  *service.ActivityService
	progression *service.ProgressionService
	skills      *service.SkillProgressService
	challenges  *service.ChallengeService
	badges      *service.BadgeService
	leaderboard *service.LeaderboardService
	teams       *service.TeamService
	system      *service.SystemSettingService
	plans       *service.TrainingPlanService
	uploadDir   string
	uploadURL   string
	maxUpload   int64
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, opts Options) *API {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	progression := service.NewProgressionService(gdb)
	skills := service.NewSkillProgressService(gdb)
	challenges := service.NewChallengeService(gdb)
	badges := service.NewBadgeService(gdb)
	system := service.NewSystemSettingService(gdb, opts.AI)

	uploadDir := strings.TrimSpace(opts.UploadDir)
	if uploadDir == "" {
		uploadDir = "data/uploads"
	}
	uploadURL := strings.TrimRight(strings.TrimSpace(opts.UploadURL), "/")
	if uploadURL == "" {
		uploadURL = "/uploads"
	}
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}

	return &API{
		db:          gdb,
		log:         log,
		auth:        service.NewAuthService(gdb, opts.DefaultTimezone),
		drills:      service.NewDrillService(gdb),
		activities:  service.NewActivityService(gdb, progression, skills, challenges, badges),
		progression: progression,
		skills:      skills,
		challenges:  challenges,
		badges:      badges,
		leaderboard: service.NewLeaderboardService(gdb),
		teams:       service.NewTeamService(gdb),
		system:      system,
		plans:       service.NewTrainingPlanService(gdb, system, log),
		uploadDir:   uploadDir,
		uploadURL:   uploadURL,
		maxUpload:   maxUpload,
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}
