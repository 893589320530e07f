package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/athletetrack/internal/db"
	"gorm.io/gorm"
)

// ErrDrillNotFound 训练项目不存在
var ErrDrillNotFound = errors.New("drill not found")

// DrillService 训练目录查询
type DrillService struct {
	db *gorm.DB
}

// NewDrillService 构造 DrillService
func NewDrillService(gdb *gorm.DB) *DrillService {
	return &DrillService{db: gdb}
}

// List 按项目筛选训练，通用训练始终包含在内
func (s *DrillService) List(ctx context.Context, sport string) ([]db.Drill, error) {
	query := s.db.WithContext(ctx).Model(&db.Drill{})
	if sport = strings.ToLower(strings.TrimSpace(sport)); sport != "" {
		query = query.Where("sport = ? OR sport = ?", sport, "general")
	}

	var drills []db.Drill
	if err := query.Preload("SkillNodes").Order("sport ASC, difficulty ASC, id ASC").Find(&drills).Error; err != nil {
		return nil, fmt.Errorf("list drills: %w", err)
	}
	return drills, nil
}

// Get 返回训练及其关联的技能节点
func (s *DrillService) Get(ctx context.Context, id uint) (*db.Drill, error) {
	var drill db.Drill
	if err := s.db.WithContext(ctx).Preload("SkillNodes").First(&drill, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDrillNotFound
		}
		return nil, fmt.Errorf("get drill: %w", err)
	}
	return &drill, nil
}
