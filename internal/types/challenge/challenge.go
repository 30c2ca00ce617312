package challenge

import (
	"time"

	"github.com/google/uuid"
)

type CardioMetric string

const (
	MetricMiles   CardioMetric = "miles"
	MetricMinutes CardioMetric = "minutes"
)

// WeekAssignment names the host for one group week. "Active" is never
// stored; it is computed at read time from today against the range.
type WeekAssignment struct {
	ID         uuid.UUID `json:"id" db:"id"`
	GroupID    uuid.UUID `json:"group_id" db:"group_id"`
	HostUserID uuid.UUID `json:"host_user_id" db:"host_user_id"`
	StartDate  time.Time `json:"start_date" db:"start_date"`
	EndDate    time.Time `json:"end_date" db:"end_date"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

type WeekChallenge struct {
	ID               uuid.UUID    `json:"id" db:"id"`
	WeekAssignmentID uuid.UUID    `json:"week_assignment_id" db:"week_assignment_id"`
	CardioMetric     CardioMetric `json:"cardio_metric" db:"cardio_metric"`
	CardioTarget     float64      `json:"cardio_target" db:"cardio_target"`
	CreatedBy        uuid.UUID    `json:"created_by" db:"created_by"`
	CreatedAt        time.Time    `json:"created_at" db:"created_at"`
}

type StrengthExercise struct {
	ID              uuid.UUID `json:"id" db:"id"`
	WeekChallengeID uuid.UUID `json:"week_challenge_id" db:"week_challenge_id"`
	Name            string    `json:"name" db:"name"`
	TargetReps      int       `json:"target_reps" db:"target_reps"`
	Position        int       `json:"position" db:"position"`
}

type ChallengeDetail struct {
	Challenge *WeekChallenge      `json:"challenge"`
	Exercises []*StrengthExercise `json:"exercises"`
}

type CreateAssignmentRequest struct {
	HostUserID string `json:"host_user_id"`
	StartDate  string `json:"start_date"` // YYYY-MM-DD
	EndDate    string `json:"end_date"`
}

type CreateChallengeRequest struct {
	CardioMetric CardioMetric            `json:"cardio_metric"`
	CardioTarget float64                 `json:"cardio_target"`
	Exercises    []CreateExerciseRequest `json:"exercises"`
}

type CreateExerciseRequest struct {
	Name       string `json:"name"`
	TargetReps int    `json:"target_reps"`
}
