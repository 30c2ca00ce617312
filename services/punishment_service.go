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

	"fitCrewAPI/internal/progress"
	"fitCrewAPI/internal/types/challenge"
	"fitCrewAPI/internal/types/group"
	"fitCrewAPI/internal/types/punishment"
	"fitCrewAPI/internal/types/workout"
)

// PunishmentService is the penalty track: the same challenge shape as
// the weekly rotation, but assigned by an admin to an explicit set of
// members over an explicit date range. It reuses the same progress
// engine.
type PunishmentService struct {
	db           *pgxpool.Pool
	notifService *NotificationService
}

func NewPunishmentService(db *pgxpool.Pool, notifService *NotificationService) *PunishmentService {
	return &PunishmentService{
		db:           db,
		notifService: notifService,
	}
}

// CreatePunishment creates the punishment, its exercises and its
// assignments. Admin only. A punishment needs at least one component:
// a cardio target, exercises, or both.
func (s *PunishmentService) CreatePunishment(ctx context.Context, clerkID string, groupID uuid.UUID, req *punishment.CreatePunishmentRequest) (*punishment.Detail, error) {
	callerID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	m, err := membershipOf(ctx, s.db, groupID, callerID)
	if err != nil {
		return nil, err
	}
	if m.Role != group.RoleAdmin {
		return nil, fmt.Errorf("only admins can create punishments: %w", ErrNotPermitted)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: punishment name is required", ErrValidation)
	}

	hasCardio := req.CardioTarget > 0
	if hasCardio && req.CardioMetric != challenge.MetricMiles && req.CardioMetric != challenge.MetricMinutes {
		return nil, fmt.Errorf("%w: cardio_metric must be miles or minutes", ErrValidation)
	}
	if !hasCardio && req.CardioMetric != "" {
		return nil, fmt.Errorf("%w: cardio_target must be positive when cardio_metric is set", ErrValidation)
	}
	if !hasCardio && len(req.Exercises) == 0 {
		return nil, fmt.Errorf("%w: punishment needs a cardio target or exercises", ErrValidation)
	}
	for _, ex := range req.Exercises {
		if strings.TrimSpace(ex.Name) == "" {
			return nil, fmt.Errorf("%w: exercise name is required", ErrValidation)
		}
		if ex.TargetReps <= 0 {
			return nil, fmt.Errorf("%w: exercise target_reps must be positive", ErrValidation)
		}
	}
	if len(req.AssigneeIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one assignee is required", ErrValidation)
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

	assignees := make([]uuid.UUID, 0, len(req.AssigneeIDs))
	for _, raw := range req.AssigneeIDs {
		assigneeID, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid assignee id %q", ErrValidation, raw)
		}
		am, err := membershipOf(ctx, s.db, groupID, assigneeID)
		if err != nil {
			return nil, fmt.Errorf("assignee must be a group member: %w", ErrValidation)
		}
		if am.Mode == group.ModeSpectator {
			return nil, fmt.Errorf("%w: spectators cannot be assigned punishments", ErrValidation)
		}
		assignees = append(assignees, assigneeID)
	}

	var metric *challenge.CardioMetric
	var target *float64
	if hasCardio {
		metricVal := req.CardioMetric
		targetVal := req.CardioTarget
		metric = &metricVal
		target = &targetVal
	}

	query := `
	INSERT INTO punishments (id, group_id, name, cardio_metric, cardio_target, start_date, end_date, created_by, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	RETURNING id, group_id, name, cardio_metric, cardio_target, start_date, end_date, created_by, created_at
	`

	p := &punishment.Punishment{}
	err = s.db.QueryRow(ctx, query, uuid.New(), groupID, name, metric, target, start, end, callerID).Scan(
		&p.ID, &p.GroupID, &p.Name, &p.CardioMetric, &p.CardioTarget,
		&p.StartDate, &p.EndDate, &p.CreatedBy, &p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create punishment: %w", err)
	}

	exercises := make([]*punishment.Exercise, 0, len(req.Exercises))
	for i, ex := range req.Exercises {
		inserted := &punishment.Exercise{}
		err := s.db.QueryRow(ctx,
			`INSERT INTO punishment_exercises (id, punishment_id, name, target_reps, position)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id, punishment_id, name, target_reps, position`,
			uuid.New(), p.ID, strings.TrimSpace(ex.Name), ex.TargetReps, i,
		).Scan(&inserted.ID, &inserted.PunishmentID, &inserted.Name, &inserted.TargetReps, &inserted.Position)
		if err != nil {
			return nil, fmt.Errorf("failed to create punishment exercise %q: %w", ex.Name, err)
		}
		exercises = append(exercises, inserted)
	}

	for _, assigneeID := range assignees {
		_, err := s.db.Exec(ctx,
			`INSERT INTO punishment_assignments (id, punishment_id, user_id, created_at)
			 VALUES ($1, $2, $3, NOW())`,
			uuid.New(), p.ID, assigneeID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to assign punishment: %w", err)
		}
	}

	if s.notifService != nil {
		go s.notifService.NotifyPunishmentAssigned(context.Background(), assignees, p.Name)
	}

	return &punishment.Detail{Punishment: p, Exercises: exercises, Assignees: assignees}, nil
}

// GetActivePunishments returns the punishments assigned to the caller
// whose date range contains today.
func (s *PunishmentService) GetActivePunishments(ctx context.Context, clerkID string, groupID uuid.UUID) ([]*punishment.Detail, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}
	if _, err := membershipOf(ctx, s.db, groupID, userID); err != nil {
		return nil, err
	}

	query := `
	SELECT p.id, p.group_id, p.name, p.cardio_metric, p.cardio_target, p.start_date, p.end_date, p.created_by, p.created_at
	FROM punishments p
	INNER JOIN punishment_assignments pa ON pa.punishment_id = p.id
	WHERE p.group_id = $1 AND pa.user_id = $2
	  AND p.start_date <= CURRENT_DATE AND p.end_date >= CURRENT_DATE
	ORDER BY p.start_date DESC
	`

	rows, err := s.db.Query(ctx, query, groupID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get punishments: %w", err)
	}
	defer rows.Close()

	punishments := []*punishment.Punishment{}
	for rows.Next() {
		p := &punishment.Punishment{}
		err := rows.Scan(
			&p.ID, &p.GroupID, &p.Name, &p.CardioMetric, &p.CardioTarget,
			&p.StartDate, &p.EndDate, &p.CreatedBy, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan punishment: %w", err)
		}
		punishments = append(punishments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	details := make([]*punishment.Detail, 0, len(punishments))
	for _, p := range punishments {
		exercises, err := s.getExercises(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		assignees, err := s.getAssignees(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		details = append(details, &punishment.Detail{Punishment: p, Exercises: exercises, Assignees: assignees})
	}
	return details, nil
}

// CreateLog records a workout against a punishment. Only assigned
// users may log.
func (s *PunishmentService) CreateLog(ctx context.Context, clerkID string, punishmentID uuid.UUID, req *workout.CreateLogRequest) (*punishment.Log, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	assigned, err := s.isAssigned(ctx, punishmentID, userID)
	if err != nil {
		return nil, err
	}
	if !assigned {
		return nil, fmt.Errorf("punishment is not assigned to you: %w", ErrNotPermitted)
	}

	loggedAt := time.Now()
	if req.LoggedAt != "" {
		loggedAt, err = time.Parse(dateLayout, req.LoggedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: logged_at must be YYYY-MM-DD", ErrValidation)
		}
	}

	l := &punishment.Log{
		ID:           uuid.New(),
		UserID:       userID,
		PunishmentID: punishmentID,
		LogType:      req.LogType,
		LoggedAt:     loggedAt,
	}
	if note := strings.TrimSpace(req.Note); note != "" {
		l.Note = &note
	}

	switch req.LogType {
	case workout.LogCardio:
		var hasTarget bool
		err := s.db.QueryRow(ctx,
			`SELECT cardio_target IS NOT NULL FROM punishments WHERE id = $1`,
			punishmentID,
		).Scan(&hasTarget)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("punishment: %w", ErrNotFound)
			}
			return nil, fmt.Errorf("failed to check punishment: %w", err)
		}
		if !hasTarget {
			return nil, fmt.Errorf("%w: this punishment has no cardio component", ErrValidation)
		}
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
			`SELECT EXISTS(SELECT 1 FROM punishment_exercises WHERE id = $1 AND punishment_id = $2)`,
			exerciseID, punishmentID,
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
	INSERT INTO punishment_logs (id, user_id, punishment_id, log_type, activity, cardio_amount, exercise_id, reps, logged_at, note, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
	RETURNING created_at
	`

	err = s.db.QueryRow(ctx, query,
		l.ID, l.UserID, l.PunishmentID, l.LogType,
		l.Activity, l.CardioAmount, l.ExerciseID, l.Reps,
		l.LoggedAt, l.Note,
	).Scan(&l.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create punishment log: %w", err)
	}

	return l, nil
}

// RankedLeaderboard is the punishment leaderboard: shared rank
// numbers for entries tied on every progress value (1,1,3,4).
type RankedLeaderboard struct {
	Entries    []*progress.RankedEntry `json:"entries"`
	TotalUsers int                     `json:"total_users"`
}

// GetLeaderboard ranks the punishment's assignees with competition
// numbering.
func (s *PunishmentService) GetLeaderboard(ctx context.Context, clerkID string, punishmentID uuid.UUID) (*RankedLeaderboard, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	p := &punishment.Punishment{}
	err = s.db.QueryRow(ctx,
		`SELECT id, group_id, name, cardio_metric, cardio_target, start_date, end_date, created_by, created_at
		 FROM punishments WHERE id = $1`,
		punishmentID,
	).Scan(
		&p.ID, &p.GroupID, &p.Name, &p.CardioMetric, &p.CardioTarget,
		&p.StartDate, &p.EndDate, &p.CreatedBy, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("punishment: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get punishment: %w", err)
	}
	if _, err := membershipOf(ctx, s.db, p.GroupID, userID); err != nil {
		return nil, err
	}

	exercises, err := s.getExercises(ctx, punishmentID)
	if err != nil {
		return nil, err
	}

	targets := progress.Targets{}
	if p.CardioTarget != nil {
		targets.CardioTarget = *p.CardioTarget
	}
	for _, ex := range exercises {
		targets.Exercises = append(targets.Exercises, progress.ExerciseTarget{
			ID:         ex.ID,
			Name:       ex.Name,
			TargetReps: ex.TargetReps,
		})
	}

	query := `
	SELECT pa.user_id, u.username, COALESCE(u.image_url, '')
	FROM punishment_assignments pa
	INNER JOIN users u ON u.id = pa.user_id
	WHERE pa.punishment_id = $1
	`
	rows, err := s.db.Query(ctx, query, punishmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignees: %w", err)
	}
	defer rows.Close()

	type assignee struct {
		id       uuid.UUID
		username string
		imageURL string
	}
	assignees := []assignee{}
	for rows.Next() {
		var a assignee
		if err := rows.Scan(&a.id, &a.username, &a.imageURL); err != nil {
			return nil, fmt.Errorf("failed to scan assignee: %w", err)
		}
		assignees = append(assignees, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	logsByUser, err := s.logEntries(ctx, punishmentID)
	if err != nil {
		return nil, err
	}

	entries := make([]*progress.UserProgress, 0, len(assignees))
	for _, a := range assignees {
		up := progress.ComputeUser(logsByUser[a.id], targets)
		up.UserID = a.id
		up.Username = a.username
		up.ImageURL = a.imageURL
		entries = append(entries, up)
	}
	progress.SortLeaderboard(entries)

	return &RankedLeaderboard{
		Entries:    progress.AssignRanks(entries),
		TotalUsers: len(entries),
	}, nil
}

func (s *PunishmentService) getExercises(ctx context.Context, punishmentID uuid.UUID) ([]*punishment.Exercise, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, punishment_id, name, target_reps, position
		 FROM punishment_exercises
		 WHERE punishment_id = $1
		 ORDER BY position`,
		punishmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get punishment exercises: %w", err)
	}
	defer rows.Close()

	exercises := []*punishment.Exercise{}
	for rows.Next() {
		ex := &punishment.Exercise{}
		if err := rows.Scan(&ex.ID, &ex.PunishmentID, &ex.Name, &ex.TargetReps, &ex.Position); err != nil {
			return nil, fmt.Errorf("failed to scan punishment exercise: %w", err)
		}
		exercises = append(exercises, ex)
	}
	return exercises, rows.Err()
}

func (s *PunishmentService) getAssignees(ctx context.Context, punishmentID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.Query(ctx,
		`SELECT user_id FROM punishment_assignments WHERE punishment_id = $1`,
		punishmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignees: %w", err)
	}
	defer rows.Close()

	assignees := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan assignee: %w", err)
		}
		assignees = append(assignees, id)
	}
	return assignees, rows.Err()
}

func (s *PunishmentService) isAssigned(ctx context.Context, punishmentID, userID uuid.UUID) (bool, error) {
	var assigned bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM punishment_assignments WHERE punishment_id = $1 AND user_id = $2)`,
		punishmentID, userID,
	).Scan(&assigned)
	if err != nil {
		return false, fmt.Errorf("failed to check assignment: %w", err)
	}
	return assigned, nil
}

func (s *PunishmentService) logEntries(ctx context.Context, punishmentID uuid.UUID) (map[uuid.UUID][]progress.Entry, error) {
	query := `
	SELECT user_id, log_type, COALESCE(cardio_amount, 0), COALESCE(exercise_id, '00000000-0000-0000-0000-000000000000'), COALESCE(reps, 0), created_at
	FROM punishment_logs
	WHERE punishment_id = $1
	`

	rows, err := s.db.Query(ctx, query, punishmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get punishment logs: %w", err)
	}
	defer rows.Close()

	logsByUser := map[uuid.UUID][]progress.Entry{}
	for rows.Next() {
		var e progress.Entry
		if err := rows.Scan(&e.UserID, &e.LogType, &e.CardioAmount, &e.ExerciseID, &e.Reps, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan punishment log: %w", err)
		}
		logsByUser[e.UserID] = append(logsByUser[e.UserID], e)
	}
	return logsByUser, rows.Err()
}
