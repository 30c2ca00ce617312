package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fitCrewAPI/internal/types/group"
	"fitCrewAPI/internal/types/workout"
)

type WorkoutService struct {
	db *pgxpool.Pool
}

func NewWorkoutService(db *pgxpool.Pool) *WorkoutService {
	return &WorkoutService{db: db}
}

// CreateLog records one workout against a challenge. Spectators may
// not log; their entries would be invisible to every aggregate anyway.
func (s *WorkoutService) CreateLog(ctx context.Context, clerkID string, challengeID uuid.UUID, req *workout.CreateLogRequest) (*workout.Log, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	groupID, err := challengeGroupID(ctx, s.db, challengeID)
	if err != nil {
		return nil, err
	}
	m, err := membershipOf(ctx, s.db, groupID, userID)
	if err != nil {
		return nil, err
	}
	if m.Mode == group.ModeSpectator {
		return nil, fmt.Errorf("spectators cannot log workouts: %w", ErrNotPermitted)
	}

	loggedAt := time.Now()
	if req.LoggedAt != "" {
		loggedAt, err = time.Parse(dateLayout, req.LoggedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: logged_at must be YYYY-MM-DD", ErrValidation)
		}
	}

	l := &workout.Log{
		ID:              uuid.New(),
		UserID:          userID,
		WeekChallengeID: challengeID,
		LogType:         req.LogType,
		LoggedAt:        loggedAt,
	}
	if note := strings.TrimSpace(req.Note); note != "" {
		l.Note = &note
	}

	switch req.LogType {
	case workout.LogCardio:
		if !workout.ValidActivity(req.Activity) {
			return nil, fmt.Errorf("%w: unknown activity", ErrValidation)
		}
		if req.CardioAmount <= 0 {
			return nil, fmt.Errorf("%w: cardio_amount must be positive", ErrValidation)
		}
		activity := req.Activity
		amount := req.CardioAmount
		l.Activity = &activity
		l.CardioAmount = &amount

	case workout.LogStrength:
		exerciseID, err := uuid.Parse(req.ExerciseID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid exercise_id", ErrValidation)
		}
		if req.Reps <= 0 {
			return nil, fmt.Errorf("%w: reps must be positive", ErrValidation)
		}
		var belongs bool
		err = s.db.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM strength_exercises WHERE id = $1 AND week_challenge_id = $2)`,
			exerciseID, challengeID,
		).Scan(&belongs)
		if err != nil {
			return nil, fmt.Errorf("failed to check exercise: %w", err)
		}
		if !belongs {
			return nil, fmt.Errorf("exercise: %w", ErrNotFound)
		}
		reps := req.Reps
		l.ExerciseID = &exerciseID
		l.Reps = &reps

	default:
		return nil, fmt.Errorf("%w: log_type must be cardio or strength", ErrValidation)
	}

	query := `
	INSERT INTO workout_logs (id, user_id, week_challenge_id, log_type, activity, cardio_amount, exercise_id, reps, logged_at, note, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
	RETURNING created_at
	`

	err = s.db.QueryRow(ctx, query,
		l.ID, l.UserID, l.WeekChallengeID, l.LogType,
		l.Activity, l.CardioAmount, l.ExerciseID, l.Reps,
		l.LoggedAt, l.Note,
	).Scan(&l.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create log: %w", err)
	}

	return l, nil
}

// GetUserLogs returns the caller's own logs for one challenge, newest
// first.
func (s *WorkoutService) GetUserLogs(ctx context.Context, clerkID string, challengeID uuid.UUID) ([]*workout.Log, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT id, user_id, week_challenge_id, log_type, activity, cardio_amount, exercise_id, reps, logged_at, note, created_at
	FROM workout_logs
	WHERE user_id = $1 AND week_challenge_id = $2
	ORDER BY created_at DESC
	`

	rows, err := s.db.Query(ctx, query, userID, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get logs: %w", err)
	}
	defer rows.Close()

	return scanWorkoutLogs(rows)
}

// DeleteLog removes one of the caller's own logs.
func (s *WorkoutService) DeleteLog(ctx context.Context, clerkID string, logID uuid.UUID) error {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	var ownerID uuid.UUID
	err = s.db.QueryRow(ctx, `SELECT user_id FROM workout_logs WHERE id = $1`, logID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("log: %w", ErrNotFound)
		}
		return fmt.Errorf("failed to get log: %w", err)
	}
	if ownerID != userID {
		return fmt.Errorf("can only delete your own logs: %w", ErrNotPermitted)
	}

	if _, err := s.db.Exec(ctx, `DELETE FROM workout_logs WHERE id = $1`, logID); err != nil {
		return fmt.Errorf("failed to delete log: %w", err)
	}
	return nil
}

func scanWorkoutLogs(rows pgx.Rows) ([]*workout.Log, error) {
	logs := []*workout.Log{}
	for rows.Next() {
		l := &workout.Log{}
		err := rows.Scan(
			&l.ID, &l.UserID, &l.WeekChallengeID, &l.LogType,
			&l.Activity, &l.CardioAmount, &l.ExerciseID, &l.Reps,
			&l.LoggedAt, &l.Note, &l.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
