package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"fitCrewAPI/internal/feed"
	"fitCrewAPI/internal/types/punishment"
	"fitCrewAPI/internal/types/workout"
)

const defaultFeedLimit = 20

type FeedService struct {
	db *pgxpool.Pool
}

func NewFeedService(db *pgxpool.Pool) *FeedService {
	return &FeedService{db: db}
}

// GetGroupFeed merges the group's most recent workout and punishment
// logs into one timeline. Each source is over-fetched to limit rows so
// the merged cut is exact.
func (s *FeedService) GetGroupFeed(ctx context.Context, clerkID string, groupID uuid.UUID, limit int) ([]*feed.Entry, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}
	if _, err := membershipOf(ctx, s.db, groupID, userID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultFeedLimit
	}

	workoutLogs, err := s.recentWorkoutLogs(ctx, groupID, limit)
	if err != nil {
		return nil, err
	}
	punishmentLogs, err := s.recentPunishmentLogs(ctx, groupID, limit)
	if err != nil {
		return nil, err
	}

	names, err := s.resolveNames(ctx, workoutLogs, punishmentLogs)
	if err != nil {
		return nil, err
	}

	return feed.Assemble(workoutLogs, punishmentLogs, names, limit), nil
}

func (s *FeedService) recentWorkoutLogs(ctx context.Context, groupID uuid.UUID, limit int) ([]*workout.Log, error) {
	query := `
	SELECT l.id, l.user_id, l.week_challenge_id, l.log_type, l.activity, l.cardio_amount, l.exercise_id, l.reps, l.logged_at, l.note, l.created_at
	FROM workout_logs l
	INNER JOIN week_challenges c ON c.id = l.week_challenge_id
	INNER JOIN week_assignments a ON a.id = c.week_assignment_id
	WHERE a.group_id = $1
	ORDER BY l.created_at DESC
	LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, groupID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get feed workout logs: %w", err)
	}
	defer rows.Close()

	return scanWorkoutLogs(rows)
}

func (s *FeedService) recentPunishmentLogs(ctx context.Context, groupID uuid.UUID, limit int) ([]*punishment.Log, error) {
	query := `
	SELECT l.id, l.user_id, l.punishment_id, l.log_type, l.activity, l.cardio_amount, l.exercise_id, l.reps, l.logged_at, l.note, l.created_at
	FROM punishment_logs l
	INNER JOIN punishments p ON p.id = l.punishment_id
	WHERE p.group_id = $1
	ORDER BY l.created_at DESC
	LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, groupID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get feed punishment logs: %w", err)
	}
	defer rows.Close()

	logs := []*punishment.Log{}
	for rows.Next() {
		l := &punishment.Log{}
		err := rows.Scan(
			&l.ID, &l.UserID, &l.PunishmentID, &l.LogType,
			&l.Activity, &l.CardioAmount, &l.ExerciseID, &l.Reps,
			&l.LoggedAt, &l.Note, &l.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan punishment log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// resolveNames loads the display names the feed entries reference.
// Missing rows are left out of the maps; assembly falls back to
// placeholders instead of failing the feed.
func (s *FeedService) resolveNames(ctx context.Context, workoutLogs []*workout.Log, punishmentLogs []*punishment.Log) (feed.Names, error) {
	names := feed.Names{
		Usernames:           map[uuid.UUID]string{},
		WorkoutExercises:    map[uuid.UUID]string{},
		PunishmentExercises: map[uuid.UUID]string{},
	}

	userIDs := map[uuid.UUID]struct{}{}
	workoutExIDs := map[uuid.UUID]struct{}{}
	punishmentExIDs := map[uuid.UUID]struct{}{}
	for _, l := range workoutLogs {
		userIDs[l.UserID] = struct{}{}
		if l.ExerciseID != nil {
			workoutExIDs[*l.ExerciseID] = struct{}{}
		}
	}
	for _, l := range punishmentLogs {
		userIDs[l.UserID] = struct{}{}
		if l.ExerciseID != nil {
			punishmentExIDs[*l.ExerciseID] = struct{}{}
		}
	}

	if err := s.loadNames(ctx, `SELECT id, username FROM users WHERE id = ANY($1)`, keys(userIDs), names.Usernames); err != nil {
		return names, fmt.Errorf("failed to resolve usernames: %w", err)
	}
	if err := s.loadNames(ctx, `SELECT id, name FROM strength_exercises WHERE id = ANY($1)`, keys(workoutExIDs), names.WorkoutExercises); err != nil {
		return names, fmt.Errorf("failed to resolve exercise names: %w", err)
	}
	if err := s.loadNames(ctx, `SELECT id, name FROM punishment_exercises WHERE id = ANY($1)`, keys(punishmentExIDs), names.PunishmentExercises); err != nil {
		return names, fmt.Errorf("failed to resolve punishment exercise names: %w", err)
	}

	return names, nil
}

func (s *FeedService) loadNames(ctx context.Context, query string, ids []uuid.UUID, into map[uuid.UUID]string) error {
	if len(ids) == 0 {
		return nil
	}

	rows, err := s.db.Query(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return err
		}
		into[id] = name
	}
	return rows.Err()
}

func keys(set map[uuid.UUID]struct{}) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}
