package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/athletetrack/internal/db"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrTeamNotFound 球队或邀请码不存在
	ErrTeamNotFound = errors.New("team not found")
	// ErrNotTeamMember 非成员访问球队数据
	ErrNotTeamMember = errors.New("not a team member")
)

const inviteCodeLength = 8

// TeamService 球队管理
type TeamService struct {
	db *gorm.DB
}

// NewTeamService 构造 TeamService
func NewTeamService(gdb *gorm.DB) *TeamService {
	return &TeamService{db: gdb}
}

// CreateTeam 创建球队，创建者成为教练
func (s *TeamService) CreateTeam(ctx context.Context, ownerID uint, name, sport string) (*db.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: team name is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > 120 {
		return nil, fmt.Errorf("%w: team name is too long", ErrInvalidInput)
	}

	team := db.Team{
		Name:       name,
		Sport:      strings.ToLower(strings.TrimSpace(sport)),
		InviteCode: newInviteCode(),
		OwnerID:    ownerID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&team).Error; err != nil {
			return fmt.Errorf("create team: %w", err)
		}
		member := db.TeamMember{TeamID: team.ID, UserID: ownerID, Role: db.TeamRoleCoach}
		if err := tx.Create(&member).Error; err != nil {
			return fmt.Errorf("add team owner: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &team, nil
}

// JoinTeam 通过邀请码加入球队，重复加入不报错
func (s *TeamService) JoinTeam(ctx context.Context, userID uint, code string) (*db.Team, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, fmt.Errorf("%w: invite code is required", ErrInvalidInput)
	}

	gdb := s.db.WithContext(ctx)

	var team db.Team
	if err := gdb.Where("invite_code = ?", code).First(&team).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("find team: %w", err)
	}

	member := db.TeamMember{TeamID: team.ID, UserID: userID, Role: db.TeamRoleAthlete}
	if err := gdb.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "team_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&member).Error; err != nil {
		return nil, fmt.Errorf("join team: %w", err)
	}

	return &team, nil
}

// ListTeams 用户所在的球队
func (s *TeamService) ListTeams(ctx context.Context, userID uint) ([]db.Team, error) {
	gdb := s.db.WithContext(ctx)

	var teams []db.Team
	if err := gdb.Where("id IN (?)",
		gdb.Model(&db.TeamMember{}).Select("team_id").Where("user_id = ?", userID),
	).Order("id ASC").Find(&teams).Error; err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return teams, nil
}

// ListMembers 球队成员列表，仅成员可查看
func (s *TeamService) ListMembers(ctx context.Context, userID, teamID uint) ([]db.TeamMember, error) {
	gdb := s.db.WithContext(ctx)

	var team db.Team
	if err := gdb.First(&team, teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("get team: %w", err)
	}

	if ok, err := s.IsMember(ctx, userID, teamID); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrNotTeamMember
	}

	var members []db.TeamMember
	if err := gdb.Preload("User").
		Where("team_id = ?", teamID).
		Order("role DESC, id ASC").
		Find(&members).Error; err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	return members, nil
}

// IsMember 判断用户是否属于球队
func (s *TeamService) IsMember(ctx context.Context, userID, teamID uint) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&db.TeamMember{}).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("check team membership: %w", err)
	}
	return count > 0, nil
}

func newInviteCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:inviteCodeLength])
}
