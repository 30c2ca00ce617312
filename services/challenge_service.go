package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fitCrewAPI/internal/types/challenge"
	"fitCrewAPI/internal/types/group"
)

type ChallengeService struct {
	db           *pgxpool.Pool
	notifService *NotificationService
}

func NewChallengeService(db *pgxpool.Pool, notifService *NotificationService) *ChallengeService {
	return &ChallengeService{
		db:           db,
		notifService: notifService,
	}
}

const dateLayout = "2006-01-02"

// CreateAssignment names the host for a group week. Admin only.
func (s *ChallengeService) CreateAssignment(ctx context.Context, clerkID string, groupID uuid.UUID, req *challenge.CreateAssignmentRequest) (*challenge.WeekAssignment, error) {
	callerID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	m, err := membershipOf(ctx, s.db, groupID, callerID)
	if err != nil {
		return nil, err
	}
	if m.Role != group.RoleAdmin {
		return nil, fmt.Errorf("only admins can assign a host: %w", ErrNotPermitted)
	}

	hostID, err := uuid.Parse(req.HostUserID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid host user id", ErrValidation)
	}
	if _, err := membershipOf(ctx, s.db, groupID, hostID); err != nil {
		return nil, fmt.Errorf("host must be a group member: %w", ErrValidation)
	}

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: start_date must be YYYY-MM-DD", ErrValidation)
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: end_date must be YYYY-MM-DD", ErrValidation)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end_date must not precede start_date", ErrValidation)
	}

	query := `
	INSERT INTO week_assignments (id, group_id, host_user_id, start_date, end_date, created_at)
	VALUES ($1, $2, $3, $4, $5, NOW())
	RETURNING id, group_id, host_user_id, start_date, end_date, created_at
	`

	a := &challenge.WeekAssignment{}
	err = s.db.QueryRow(ctx, query, uuid.New(), groupID, hostID, start, end).Scan(
		&a.ID, &a.GroupID, &a.HostUserID, &a.StartDate, &a.EndDate, &a.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}

	if s.notifService != nil {
		go s.notifService.NotifyHostAssigned(context.Background(), hostID, groupID)
	}

	return a, nil
}

// GetActiveAssignment returns the assignment whose range contains
// today, latest start date winning when ranges overlap. Members only.
// Nil result with nil error means no active week, which is a normal
// state.
func (s *ChallengeService) GetActiveAssignment(ctx context.Context, clerkID string, groupID uuid.UUID) (*challenge.WeekAssignment, error) {
	callerID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}
	if _, err := membershipOf(ctx, s.db, groupID, callerID); err != nil {
		return nil, err
	}
	return s.activeAssignment(ctx, groupID)
}

func (s *ChallengeService) activeAssignment(ctx context.Context, groupID uuid.UUID) (*challenge.WeekAssignment, error) {
	query := `
	SELECT id, group_id, host_user_id, start_date, end_date, created_at
	FROM week_assignments
	WHERE group_id = $1 AND start_date <= CURRENT_DATE AND end_date >= CURRENT_DATE
	ORDER BY start_date DESC
	LIMIT 1
	`

	a := &challenge.WeekAssignment{}
	err := s.db.QueryRow(ctx, query, groupID).Scan(
		&a.ID, &a.GroupID, &a.HostUserID, &a.StartDate, &a.EndDate, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active assignment: %w", err)
	}
	return a, nil
}

// CreateChallenge creates the week's challenge under an assignment.
// Only the named host may create it, and only once per assignment.
// The challenge row and its exercises are separate inserts; a failure
// in between leaves a challenge with fewer exercises, which the host
// resolves by deleting and recreating.
func (s *ChallengeService) CreateChallenge(ctx context.Context, clerkID string, assignmentID uuid.UUID, req *challenge.CreateChallengeRequest) (*challenge.ChallengeDetail, error) {
	callerID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	var groupID, hostUserID uuid.UUID
	err = s.db.QueryRow(ctx,
		`SELECT group_id, host_user_id FROM week_assignments WHERE id = $1`,
		assignmentID,
	).Scan(&groupID, &hostUserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("assignment: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if callerID != hostUserID {
		return nil, fmt.Errorf("only the week's host can set the challenge: %w", ErrNotPermitted)
	}

	if req.CardioMetric != challenge.MetricMiles && req.CardioMetric != challenge.MetricMinutes {
		return nil, fmt.Errorf("%w: cardio_metric must be miles or minutes", ErrValidation)
	}
	if req.CardioTarget <= 0 {
		return nil, fmt.Errorf("%w: cardio_target must be positive", ErrValidation)
	}
	for _, ex := range req.Exercises {
		if strings.TrimSpace(ex.Name) == "" {
			return nil, fmt.Errorf("%w: exercise name is required", ErrValidation)
		}
		if ex.TargetReps <= 0 {
			return nil, fmt.Errorf("%w: exercise target_reps must be positive", ErrValidation)
		}
	}

	query := `
	INSERT INTO week_challenges (id, week_assignment_id, cardio_metric, cardio_target, created_by, created_at)
	VALUES ($1, $2, $3, $4, $5, NOW())
	RETURNING id, week_assignment_id, cardio_metric, cardio_target, created_by, created_at
	`

	c := &challenge.WeekChallenge{}
	err = s.db.QueryRow(ctx, query, uuid.New(), assignmentID, req.CardioMetric, req.CardioTarget, callerID).Scan(
		&c.ID, &c.WeekAssignmentID, &c.CardioMetric, &c.CardioTarget, &c.CreatedBy, &c.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("this week already has a challenge: %w", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}

	exercises := make([]*challenge.StrengthExercise, 0, len(req.Exercises))
	for i, ex := range req.Exercises {
		inserted := &challenge.StrengthExercise{}
		err := s.db.QueryRow(ctx,
			`INSERT INTO strength_exercises (id, week_challenge_id, name, target_reps, position)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id, week_challenge_id, name, target_reps, position`,
			uuid.New(), c.ID, strings.TrimSpace(ex.Name), ex.TargetReps, i,
		).Scan(&inserted.ID, &inserted.WeekChallengeID, &inserted.Name, &inserted.TargetReps, &inserted.Position)
		if err != nil {
			return nil, fmt.Errorf("failed to create exercise %q: %w", ex.Name, err)
		}
		exercises = append(exercises, inserted)
	}

	if s.notifService != nil {
		go s.notifService.NotifyChallengePosted(context.Background(), groupID, callerID)
	}

	return &challenge.ChallengeDetail{Challenge: c, Exercises: exercises}, nil
}

// GetActiveChallenge returns the challenge attached to the group's
// active week assignment, with exercises. Members only. Nil with nil
// error when there is no active week or the host has not posted yet.
func (s *ChallengeService) GetActiveChallenge(ctx context.Context, clerkID string, groupID uuid.UUID) (*challenge.ChallengeDetail, error) {
	callerID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}
	if _, err := membershipOf(ctx, s.db, groupID, callerID); err != nil {
		return nil, err
	}
	return s.activeChallenge(ctx, groupID)
}

// activeChallenge is the ungated lookup shared with the progress
// service, which has already checked membership.
func (s *ChallengeService) activeChallenge(ctx context.Context, groupID uuid.UUID) (*challenge.ChallengeDetail, error) {
	a, err := s.activeAssignment(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, nil
	}

	c := &challenge.WeekChallenge{}
	err = s.db.QueryRow(ctx,
		`SELECT id, week_assignment_id, cardio_metric, cardio_target, created_by, created_at
		 FROM week_challenges
		 WHERE week_assignment_id = $1`,
		a.ID,
	).Scan(&c.ID, &c.WeekAssignmentID, &c.CardioMetric, &c.CardioTarget, &c.CreatedBy, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active challenge: %w", err)
	}

	exercises, err := s.GetExercises(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	return &challenge.ChallengeDetail{Challenge: c, Exercises: exercises}, nil
}

func (s *ChallengeService) GetExercises(ctx context.Context, challengeID uuid.UUID) ([]*challenge.StrengthExercise, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, week_challenge_id, name, target_reps, position
		 FROM strength_exercises
		 WHERE week_challenge_id = $1
		 ORDER BY position`,
		challengeID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get exercises: %w", err)
	}
	defer rows.Close()

	exercises := []*challenge.StrengthExercise{}
	for rows.Next() {
		ex := &challenge.StrengthExercise{}
		if err := rows.Scan(&ex.ID, &ex.WeekChallengeID, &ex.Name, &ex.TargetReps, &ex.Position); err != nil {
			return nil, fmt.Errorf("failed to scan exercise: %w", err)
		}
		exercises = append(exercises, ex)
	}
	return exercises, rows.Err()
}

// DeleteChallenge removes a challenge and, via FK cascade, its
// exercises and logs. Allowed for the challenge's host or a group
// admin.
func (s *ChallengeService) DeleteChallenge(ctx context.Context, clerkID string, challengeID uuid.UUID) error {
	callerID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	var groupID, createdBy uuid.UUID
	err = s.db.QueryRow(ctx,
		`SELECT a.group_id, c.created_by
		 FROM week_challenges c
		 INNER JOIN week_assignments a ON a.id = c.week_assignment_id
		 WHERE c.id = $1`,
		challengeID,
	).Scan(&groupID, &createdBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("challenge: %w", ErrNotFound)
		}
		return fmt.Errorf("failed to get challenge: %w", err)
	}

	if callerID != createdBy {
		m, err := membershipOf(ctx, s.db, groupID, callerID)
		if err != nil {
			return err
		}
		if m.Role != group.RoleAdmin {
			return fmt.Errorf("only the host or an admin can delete a challenge: %w", ErrNotPermitted)
		}
	}

	if _, err := s.db.Exec(ctx, `DELETE FROM week_challenges WHERE id = $1`, challengeID); err != nil {
		return fmt.Errorf("failed to delete challenge: %w", err)
	}

	log.Printf("DeleteChallenge: challenge %s deleted by %s", challengeID, callerID)
	return nil
}

// challengeGroupID resolves which group a challenge belongs to; used
// by the workout and progress services for membership checks.
func challengeGroupID(ctx context.Context, db *pgxpool.Pool, challengeID uuid.UUID) (uuid.UUID, error) {
	var groupID uuid.UUID
	err := db.QueryRow(ctx,
		`SELECT a.group_id
		 FROM week_challenges c
		 INNER JOIN week_assignments a ON a.id = c.week_assignment_id
		 WHERE c.id = $1`,
		challengeID,
	).Scan(&groupID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("challenge: %w", ErrNotFound)
		}
		return uuid.Nil, fmt.Errorf("failed to resolve challenge group: %w", err)
	}
	return groupID, nil
}
