package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"fitCrewAPI/internal/progress"
	"fitCrewAPI/internal/types/challenge"
	"fitCrewAPI/internal/types/group"
)

type ProgressService struct {
	db               *pgxpool.Pool
	challengeService *ChallengeService
	groupService     *GroupService
}

func NewProgressService(db *pgxpool.Pool, challengeService *ChallengeService, groupService *GroupService) *ProgressService {
	return &ProgressService{
		db:               db,
		challengeService: challengeService,
		groupService:     groupService,
	}
}

// GroupDashboard is what the group progress endpoint returns: the
// active challenge, the caller's own numbers and the capped group
// aggregate. Challenge is nil when no week is active or the host has
// not posted yet; that is an empty state, not an error.
type GroupDashboard struct {
	Challenge *challenge.ChallengeDetail `json:"challenge"`
	Mine      *progress.UserProgress     `json:"mine,omitempty"`
	Group     *progress.GroupProgress    `json:"group,omitempty"`
}

type Leaderboard struct {
	Entries    []*progress.UserProgress `json:"entries"`
	TotalUsers int                      `json:"total_users"`
}

// GetGroupDashboard computes the caller's and the group's progress
// for the group's active challenge.
func (s *ProgressService) GetGroupDashboard(ctx context.Context, clerkID string, groupID uuid.UUID) (*GroupDashboard, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}
	if _, err := membershipOf(ctx, s.db, groupID, userID); err != nil {
		return nil, err
	}

	detail, err := s.challengeService.activeChallenge(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return &GroupDashboard{}, nil
	}
	targets := targetsOf(detail)

	participants, err := s.participants(ctx, groupID)
	if err != nil {
		return nil, err
	}

	logsByUser, err := s.challengeLogEntries(ctx, detail.Challenge.ID, participants)
	if err != nil {
		return nil, err
	}

	mine := progress.ComputeUser(logsByUser[userID], targets)
	mine.UserID = userID

	return &GroupDashboard{
		Challenge: detail,
		Mine:      mine,
		Group:     progress.ComputeGroup(logsByUser, targets, len(participants)),
	}, nil
}

// GetLeaderboard ranks every participant's progress for the active
// challenge. Spectators never appear.
func (s *ProgressService) GetLeaderboard(ctx context.Context, clerkID string, groupID uuid.UUID) (*Leaderboard, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}
	if _, err := membershipOf(ctx, s.db, groupID, userID); err != nil {
		return nil, err
	}

	detail, err := s.challengeService.activeChallenge(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return &Leaderboard{Entries: []*progress.UserProgress{}}, nil
	}
	targets := targetsOf(detail)

	participants, err := s.participants(ctx, groupID)
	if err != nil {
		return nil, err
	}

	logsByUser, err := s.challengeLogEntries(ctx, detail.Challenge.ID, participants)
	if err != nil {
		return nil, err
	}

	entries := make([]*progress.UserProgress, 0, len(participants))
	for _, member := range participants {
		p := progress.ComputeUser(logsByUser[member.UserID], targets)
		p.UserID = member.UserID
		p.Username = member.Username
		p.ImageURL = member.ImageURL
		entries = append(entries, p)
	}
	progress.SortLeaderboard(entries)

	return &Leaderboard{Entries: entries, TotalUsers: len(entries)}, nil
}

func targetsOf(detail *challenge.ChallengeDetail) progress.Targets {
	t := progress.Targets{CardioTarget: detail.Challenge.CardioTarget}
	for _, ex := range detail.Exercises {
		t.Exercises = append(t.Exercises, progress.ExerciseTarget{
			ID:         ex.ID,
			Name:       ex.Name,
			TargetReps: ex.TargetReps,
		})
	}
	return t
}

// participants returns the group's non-spectator members.
func (s *ProgressService) participants(ctx context.Context, groupID uuid.UUID) ([]*group.Member, error) {
	members, err := s.groupService.GetMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	participants := make([]*group.Member, 0, len(members))
	for _, m := range members {
		if m.Mode == group.ModeParticipant {
			participants = append(participants, m)
		}
	}
	return participants, nil
}

// challengeLogEntries loads every participant's logs for the challenge
// keyed by user, with an entry for each participant even when empty so
// the group aggregate counts them.
func (s *ProgressService) challengeLogEntries(ctx context.Context, challengeID uuid.UUID, participants []*group.Member) (map[uuid.UUID][]progress.Entry, error) {
	logsByUser := make(map[uuid.UUID][]progress.Entry, len(participants))
	for _, m := range participants {
		logsByUser[m.UserID] = nil
	}

	query := `
	SELECT user_id, log_type, COALESCE(cardio_amount, 0), COALESCE(exercise_id, '00000000-0000-0000-0000-000000000000'), COALESCE(reps, 0), created_at
	FROM workout_logs
	WHERE week_challenge_id = $1
	`

	rows, err := s.db.Query(ctx, query, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge logs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e progress.Entry
		if err := rows.Scan(&e.UserID, &e.LogType, &e.CardioAmount, &e.ExerciseID, &e.Reps, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		// skip spectators and ex-members
		if _, ok := logsByUser[e.UserID]; !ok {
			continue
		}
		logsByUser[e.UserID] = append(logsByUser[e.UserID], e)
	}
	return logsByUser, rows.Err()
}
