package punishment

import (
	"time"

	"github.com/google/uuid"

	"fitCrewAPI/internal/types/challenge"
	"fitCrewAPI/internal/types/workout"
)

// Punishment is an out-of-band penalty challenge assigned to a subset
// of a group's members over an explicit date range, independent of the
// weekly host rotation. Cardio target is optional: a punishment may be
// cardio-only, strength-only, or both.
type Punishment struct {
	ID           uuid.UUID                  `json:"id" db:"id"`
	GroupID      uuid.UUID                  `json:"group_id" db:"group_id"`
	Name         string                     `json:"name" db:"name"`
	CardioMetric *challenge.CardioMetric    `json:"cardio_metric,omitempty" db:"cardio_metric"`
	CardioTarget *float64                   `json:"cardio_target,omitempty" db:"cardio_target"`
	StartDate    time.Time                  `json:"start_date" db:"start_date"`
	EndDate      time.Time                  `json:"end_date" db:"end_date"`
	CreatedBy    uuid.UUID                  `json:"created_by" db:"created_by"`
	CreatedAt    time.Time                  `json:"created_at" db:"created_at"`
}

type Exercise struct {
	ID           uuid.UUID `json:"id" db:"id"`
	PunishmentID uuid.UUID `json:"punishment_id" db:"punishment_id"`
	Name         string    `json:"name" db:"name"`
	TargetReps   int       `json:"target_reps" db:"target_reps"`
	Position     int       `json:"position" db:"position"`
}

type Assignment struct {
	ID           uuid.UUID `json:"id" db:"id"`
	PunishmentID uuid.UUID `json:"punishment_id" db:"punishment_id"`
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type Log struct {
	ID           uuid.UUID         `json:"id" db:"id"`
	UserID       uuid.UUID         `json:"user_id" db:"user_id"`
	PunishmentID uuid.UUID         `json:"punishment_id" db:"punishment_id"`
	LogType      workout.LogType   `json:"log_type" db:"log_type"`
	Activity     *workout.Activity `json:"activity,omitempty" db:"activity"`
	CardioAmount *float64          `json:"cardio_amount,omitempty" db:"cardio_amount"`
	ExerciseID   *uuid.UUID        `json:"exercise_id,omitempty" db:"exercise_id"`
	Reps         *int              `json:"reps,omitempty" db:"reps"`
	LoggedAt     time.Time         `json:"logged_at" db:"logged_at"`
	Note         *string           `json:"note,omitempty" db:"note"`
	CreatedAt    time.Time         `json:"created_at" db:"created_at"`
}

type Detail struct {
	Punishment *Punishment `json:"punishment"`
	Exercises  []*Exercise `json:"exercises"`
	Assignees  []uuid.UUID `json:"assignees"`
}

type CreatePunishmentRequest struct {
	Name         string                            `json:"name"`
	CardioMetric challenge.CardioMetric            `json:"cardio_metric,omitempty"`
	CardioTarget float64                           `json:"cardio_target,omitempty"`
	StartDate    string                            `json:"start_date"`
	EndDate      string                            `json:"end_date"`
	Exercises    []challenge.CreateExerciseRequest `json:"exercises"`
	AssigneeIDs  []string                          `json:"assignee_ids"`
}
