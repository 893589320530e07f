package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/athletetrack/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrSkillNodeNotFound 技能节点不存在
var ErrSkillNodeNotFound = errors.New("skill node not found")

// SkillProgressService 维护用户在技能树上的经验累积
// 更新使用单条 SQL 表达式累加，已完成的节点不再写入
type SkillProgressService struct {
	db  *gorm.DB
	now func() time.Time
}

// SkillTreeNode 技能节点及当前用户的进度
type SkillTreeNode struct {
	Node        db.SkillNode
	XPEarned    int
	Status      string
	CompletedAt *time.Time
}

// NewSkillProgressService 构造 SkillProgressService
func NewSkillProgressService(gdb *gorm.DB) *SkillProgressService {
	return &SkillProgressService{db: gdb, now: time.Now}
}

// WithClock 替换时间来源，测试中使用
func (s *SkillProgressService) WithClock(now func() time.Time) *SkillProgressService {
	if now != nil {
		s.now = now
	}
	return s
}

// ApplySkillProgress 为每个技能节点累加经验，返回逐项结果
func (s *SkillProgressService) ApplySkillProgress(ctx context.Context, userID uint, skillNodeIDs []uint, xpDelta int) []ItemResult {
	results := make([]ItemResult, 0, len(skillNodeIDs))
	seen := make(map[uint]struct{}, len(skillNodeIDs))

	for _, nodeID := range skillNodeIDs {
		if _, dup := seen[nodeID]; dup {
			continue
		}
		seen[nodeID] = struct{}{}

		result, err := s.applyOne(ctx, userID, nodeID, xpDelta)
		if errors.Is(err, ErrSkillNodeNotFound) {
			results = append(results, ItemResult{Kind: ItemKindSkill, ID: nodeID, Status: ItemNotFound, Err: err})
			continue
		}
		if err != nil {
			results = append(results, failedItem(ItemKindSkill, nodeID, err))
			continue
		}
		results = append(results, result)
	}

	return results
}

func (s *SkillProgressService) applyOne(ctx context.Context, userID, nodeID uint, xpDelta int) (ItemResult, error) {
	if xpDelta < 0 {
		return ItemResult{}, fmt.Errorf("%w: xp delta must not be negative", ErrInvalidInput)
	}

	gdb := s.db.WithContext(ctx)

	var node db.SkillNode
	if err := gdb.First(&node, nodeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ItemResult{}, ErrSkillNodeNotFound
		}
		return ItemResult{}, fmt.Errorf("load skill node: %w", err)
	}

	result := ItemResult{Kind: ItemKindSkill, ID: nodeID, Target: node.XPRequired}
	now := s.now().UTC()

	progress := db.SkillProgress{
		UserID:      userID,
		SkillNodeID: nodeID,
		XPEarned:    xpDelta,
		Status:      db.SkillStatusInProgress,
	}
	if xpDelta >= node.XPRequired {
		progress.Status = db.SkillStatusCompleted
		progress.CompletedAt = &now
	}

	insert := gdb.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "skill_node_id"}},
		DoNothing: true,
	}).Create(&progress)
	if insert.Error != nil {
		return ItemResult{}, fmt.Errorf("create skill progress: %w", insert.Error)
	}
	if insert.RowsAffected == 1 {
		result.Progress = progress.XPEarned
		result.Status = ItemApplied
		if progress.Status == db.SkillStatusCompleted {
			result.Status = ItemCompleted
		}
		return result, nil
	}

	scope := gdb.Model(&db.SkillProgress{}).
		Where("user_id = ? AND skill_node_id = ? AND status = ?", userID, nodeID, db.SkillStatusInProgress)

	update := scope.Session(&gorm.Session{}).Update("xp_earned", gorm.Expr("xp_earned + ?", xpDelta))
	if update.Error != nil {
		return ItemResult{}, fmt.Errorf("update skill progress: %w", update.Error)
	}

	result.Status = ItemApplied
	if update.RowsAffected == 0 {
		result.Status = ItemSkipped
	} else {
		done := scope.Session(&gorm.Session{}).
			Where("xp_earned >= ?", node.XPRequired).
			Updates(map[string]any{"status": db.SkillStatusCompleted, "completed_at": now})
		if done.Error != nil {
			return ItemResult{}, fmt.Errorf("complete skill progress: %w", done.Error)
		}
		if done.RowsAffected == 1 {
			result.Status = ItemCompleted
		}
	}

	var current db.SkillProgress
	if err := gdb.Where("user_id = ? AND skill_node_id = ?", userID, nodeID).First(&current).Error; err != nil {
		return ItemResult{}, fmt.Errorf("reload skill progress: %w", err)
	}
	result.Progress = current.XPEarned

	return result, nil
}

// ListTree 返回技能节点及用户进度，sport 为空时返回全部
func (s *SkillProgressService) ListTree(ctx context.Context, userID uint, sport string) ([]SkillTreeNode, error) {
	gdb := s.db.WithContext(ctx)

	query := gdb.Model(&db.SkillNode{})
	if sport = strings.ToLower(strings.TrimSpace(sport)); sport != "" {
		query = query.Where("sport = ? OR sport = ?", sport, "general")
	}

	var nodes []db.SkillNode
	if err := query.Order("sport ASC, tier ASC, id ASC").Find(&nodes).Error; err != nil {
		return nil, fmt.Errorf("list skill nodes: %w", err)
	}

	var rows []db.SkillProgress
	if err := gdb.Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list skill progress: %w", err)
	}
	byNode := make(map[uint]db.SkillProgress, len(rows))
	for _, row := range rows {
		byNode[row.SkillNodeID] = row
	}

	tree := make([]SkillTreeNode, 0, len(nodes))
	for _, node := range nodes {
		item := SkillTreeNode{Node: node, Status: "locked"}
		if row, ok := byNode[node.ID]; ok {
			item.XPEarned = row.XPEarned
			item.Status = row.Status
			item.CompletedAt = row.CompletedAt
		}
		tree = append(tree, item)
	}
	return tree, nil
}
