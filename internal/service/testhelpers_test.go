package service

import (
	"fmt"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/athletetrack/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openServiceTestDB 为每个测试创建独立的内存库，迁移全部模型并写入目录数据
func openServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := gdb.AutoMigrate(db.Models()...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	if err := db.SeedCatalog(gdb); err != nil {
		t.Fatalf("failed to seed catalog: %v", err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return gdb
}

func createTestUser(t *testing.T, gdb *gorm.DB, username, sport, timezone string) db.User {
	t.Helper()
	user := db.User{Username: username, Password: "x", DisplayName: username, Sport: sport, Timezone: timezone}
	if err := gdb.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

func mustDay(t *testing.T, value string) time.Time {
	t.Helper()
	day, err := ParseCalendarDay(value)
	if err != nil {
		t.Fatalf("parse day %s: %v", value, err)
	}
	return day
}

// fixedClock 返回可手动推进的时间源
type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func findDrill(t *testing.T, gdb *gorm.DB, code string) db.Drill {
	t.Helper()
	var drill db.Drill
	if err := gdb.Preload("SkillNodes").Where("code = ?", code).First(&drill).Error; err != nil {
		t.Fatalf("load drill %s: %v", code, err)
	}
	return drill
}

func findSkillNode(t *testing.T, gdb *gorm.DB, code string) db.SkillNode {
	t.Helper()
	var node db.SkillNode
	if err := gdb.Where("code = ?", code).First(&node).Error; err != nil {
		t.Fatalf("load skill node %s: %v", code, err)
	}
	return node
}
