package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fitCrewAPI/internal/invite"
	"fitCrewAPI/internal/types/group"
)

const uniqueViolation = "23505"

type GroupService struct {
	db *pgxpool.Pool
}

func NewGroupService(db *pgxpool.Pool) *GroupService {
	return &GroupService{db: db}
}

// CreateGroup creates a group with a fresh invite code and makes the
// creator an admin participant. A code collision triggers exactly one
// regeneration; a second collision surfaces ErrInviteCodeConflict so
// the handler can prompt a retry.
func (s *GroupService) CreateGroup(ctx context.Context, clerkID string, req *group.CreateGroupRequest) (*group.Group, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: group name is required", ErrValidation)
	}

	creatorID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	g, err := groupWithFreshCode(ctx, invite.NewCode, func(ctx context.Context, code string) (*group.Group, error) {
		return s.insertGroup(ctx, name, code, creatorID)
	})
	if err != nil {
		return nil, err
	}

	membershipQuery := `
	INSERT INTO group_memberships (id, group_id, user_id, role, mode, joined_at)
	VALUES ($1, $2, $3, $4, $5, NOW())
	`
	_, err = s.db.Exec(ctx, membershipQuery, uuid.New(), g.ID, creatorID, group.RoleAdmin, group.ModeParticipant)
	if err != nil {
		return nil, fmt.Errorf("failed to add creator membership: %w", err)
	}

	return g, nil
}

// groupWithFreshCode inserts a group under a freshly generated invite
// code. A unique violation on the code triggers exactly one
// regeneration; a second collision surfaces ErrInviteCodeConflict.
func groupWithFreshCode(ctx context.Context, newCode func() (string, error), insert func(ctx context.Context, code string) (*group.Group, error)) (*group.Group, error) {
	for attempt := 0; attempt < 2; attempt++ {
		code, err := newCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate invite code: %w", err)
		}

		g, err := insert(ctx, code)
		if err == nil {
			return g, nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			log.Printf("CreateGroup: invite code %s collided, attempt %d", code, attempt+1)
			continue
		}
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	return nil, ErrInviteCodeConflict
}

func (s *GroupService) insertGroup(ctx context.Context, name, code string, creatorID uuid.UUID) (*group.Group, error) {
	query := `
	INSERT INTO groups (id, name, invite_code, created_by, created_at)
	VALUES ($1, $2, $3, $4, NOW())
	RETURNING id, name, invite_code, created_by, created_at
	`

	g := &group.Group{}
	err := s.db.QueryRow(ctx, query, uuid.New(), name, code, creatorID).Scan(
		&g.ID,
		&g.Name,
		&g.InviteCode,
		&g.CreatedBy,
		&g.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (s *GroupService) GetUserGroups(ctx context.Context, clerkID string) ([]*group.Group, error) {
	query := `
	SELECT g.id, g.name, g.invite_code, g.created_by, g.created_at
	FROM groups g
	INNER JOIN group_memberships m ON m.group_id = g.id
	INNER JOIN users u ON u.id = m.user_id
	WHERE u.clerk_id = $1
	ORDER BY g.created_at DESC
	`

	rows, err := s.db.Query(ctx, query, clerkID)
	if err != nil {
		return nil, fmt.Errorf("failed to get groups: %w", err)
	}
	defer rows.Close()

	groups := []*group.Group{}
	for rows.Next() {
		g := &group.Group{}
		if err := rows.Scan(&g.ID, &g.Name, &g.InviteCode, &g.CreatedBy, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// GetGroupDetail returns the group and its member list. The caller
// must be a member.
func (s *GroupService) GetGroupDetail(ctx context.Context, clerkID string, groupID uuid.UUID) (*group.GroupDetail, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}
	if _, err := s.membershipOf(ctx, groupID, userID); err != nil {
		return nil, err
	}

	g := &group.Group{}
	err = s.db.QueryRow(ctx,
		`SELECT id, name, invite_code, created_by, created_at FROM groups WHERE id = $1`,
		groupID,
	).Scan(&g.ID, &g.Name, &g.InviteCode, &g.CreatedBy, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("group: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	members, err := s.GetMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}

	return &group.GroupDetail{Group: g, Members: members}, nil
}

func (s *GroupService) GetMembers(ctx context.Context, groupID uuid.UUID) ([]*group.Member, error) {
	query := `
	SELECT m.user_id, u.username, COALESCE(u.image_url, ''), m.role, m.mode, m.joined_at
	FROM group_memberships m
	INNER JOIN users u ON u.id = m.user_id
	WHERE m.group_id = $1
	ORDER BY m.joined_at
	`

	rows, err := s.db.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	members := []*group.Member{}
	for rows.Next() {
		m := &group.Member{}
		if err := rows.Scan(&m.UserID, &m.Username, &m.ImageURL, &m.Role, &m.Mode, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// JoinGroup adds the caller as a member participant via invite code.
func (s *GroupService) JoinGroup(ctx context.Context, clerkID string, code string) (*group.Group, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !invite.Valid(code) {
		return nil, fmt.Errorf("%w: malformed invite code", ErrValidation)
	}

	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	g := &group.Group{}
	err = s.db.QueryRow(ctx,
		`SELECT id, name, invite_code, created_by, created_at FROM groups WHERE invite_code = $1`,
		code,
	).Scan(&g.ID, &g.Name, &g.InviteCode, &g.CreatedBy, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("group: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to look up invite code: %w", err)
	}

	query := `
	INSERT INTO group_memberships (id, group_id, user_id, role, mode, joined_at)
	VALUES ($1, $2, $3, $4, $5, NOW())
	`
	_, err = s.db.Exec(ctx, query, uuid.New(), g.ID, userID, group.RoleMember, group.ModeParticipant)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("membership: %w", ErrConflict)
		}
		return nil, fmt.Errorf("failed to join group: %w", err)
	}

	return g, nil
}

func (s *GroupService) LeaveGroup(ctx context.Context, clerkID string, groupID uuid.UUID) error {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx,
		`DELETE FROM group_memberships WHERE group_id = $1 AND user_id = $2`,
		groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to leave group: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("membership: %w", ErrNotFound)
	}
	return nil
}

// RemoveMember removes another user from the group. Admin only.
func (s *GroupService) RemoveMember(ctx context.Context, clerkID string, groupID, targetUserID uuid.UUID) error {
	callerID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	m, err := s.membershipOf(ctx, groupID, callerID)
	if err != nil {
		return err
	}
	if m.Role != group.RoleAdmin {
		return fmt.Errorf("only admins can remove members: %w", ErrNotPermitted)
	}

	result, err := s.db.Exec(ctx,
		`DELETE FROM group_memberships WHERE group_id = $1 AND user_id = $2`,
		groupID, targetUserID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("membership: %w", ErrNotFound)
	}
	return nil
}

// UpdateMemberMode flips a member between participant and spectator.
// Allowed for admins, or for the member themselves.
func (s *GroupService) UpdateMemberMode(ctx context.Context, clerkID string, groupID, targetUserID uuid.UUID, mode group.Mode) error {
	if mode != group.ModeParticipant && mode != group.ModeSpectator {
		return fmt.Errorf("%w: mode must be participant or spectator", ErrValidation)
	}

	callerID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	if callerID != targetUserID {
		m, err := s.membershipOf(ctx, groupID, callerID)
		if err != nil {
			return err
		}
		if m.Role != group.RoleAdmin {
			return fmt.Errorf("only admins can change another member's mode: %w", ErrNotPermitted)
		}
	}

	result, err := s.db.Exec(ctx,
		`UPDATE group_memberships SET mode = $3 WHERE group_id = $1 AND user_id = $2`,
		groupID, targetUserID, mode,
	)
	if err != nil {
		return fmt.Errorf("failed to update member mode: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("membership: %w", ErrNotFound)
	}
	return nil
}

func (s *GroupService) membershipOf(ctx context.Context, groupID, userID uuid.UUID) (*group.Membership, error) {
	return membershipOf(ctx, s.db, groupID, userID)
}

// membershipOf is shared across services that gate operations on
// group membership.
func membershipOf(ctx context.Context, db *pgxpool.Pool, groupID, userID uuid.UUID) (*group.Membership, error) {
	query := `
	SELECT id, group_id, user_id, role, mode, joined_at
	FROM group_memberships
	WHERE group_id = $1 AND user_id = $2
	`

	m := &group.Membership{}
	err := db.QueryRow(ctx, query, groupID, userID).Scan(
		&m.ID, &m.GroupID, &m.UserID, &m.Role, &m.Mode, &m.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("membership: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return m, nil
}
