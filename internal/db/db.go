package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB 是一个全局的数据库连接实例
var DB *gorm.DB

// Options 描述数据库连接参数。
// Driver 为空时使用 sqlite，Path 为空时回退到 athletetrack.db。
type Options struct {
	Driver string
	DSN    string
	Path   string
	Debug  bool
}

// Models 返回需要自动迁移的全部模型，测试中复用。
func Models() []any {
	return []any{
		&User{},
		&StreakRecord{},
		&XPEvent{},
		&SkillNode{},
		&Drill{},
		&DrillCompletion{},
		&SkillProgress{},
		&Challenge{},
		&ChallengeInstance{},
		&Badge{},
		&AthleteBadge{},
		&Team{},
		&TeamMember{},
		&GameLog{},
		&VideoUpload{},
		&TrainingPlan{},
		&SystemSetting{},
	}
}

// Init 初始化数据库连接、执行自动迁移并写入静态目录数据。
func Init(opts Options) error {
	dialector, err := openDialector(opts)
	if err != nil {
		return err
	}

	config := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	if opts.Debug {
		config.Logger = logger.Default.LogMode(logger.Info)
	}

	DB, err = gorm.Open(dialector, config)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := DB.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	if err := SeedCatalog(DB); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}

	return nil
}

func openDialector(opts Options) (gorm.Dialector, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "postgres", "postgresql":
		if strings.TrimSpace(opts.DSN) == "" {
			return nil, errors.New("postgres driver requires a dsn")
		}
		return postgres.Open(opts.DSN), nil
	case "mysql":
		if strings.TrimSpace(opts.DSN) == "" {
			return nil, errors.New("mysql driver requires a dsn")
		}
		return mysql.Open(opts.DSN), nil
	case "sqlite", "sqlite3", "":
		path := strings.TrimSpace(opts.Path)
		if path == "" {
			path = "athletetrack.db"
		}
		if err := ensureParentDir(path); err != nil {
			return nil, err
		}
		return sqlite.Open(path), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", opts.Driver)
	}
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
