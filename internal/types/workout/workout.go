package workout

import (
	"time"

	"github.com/google/uuid"
)

type LogType string

const (
	LogCardio   LogType = "cardio"
	LogStrength LogType = "strength"
)

type Activity string

const (
	ActivityRun   Activity = "run"
	ActivityWalk  Activity = "walk"
	ActivityBike  Activity = "bike"
	ActivitySwim  Activity = "swim"
	ActivityRow   Activity = "row"
	ActivityOther Activity = "other"
)

func ValidActivity(a Activity) bool {
	switch a {
	case ActivityRun, ActivityWalk, ActivityBike, ActivitySwim, ActivityRow, ActivityOther:
		return true
	}
	return false
}

// Log is one workout entry. Cardio logs carry Activity/CardioAmount,
// strength logs carry ExerciseID/Reps; the other pair is null in the DB.
type Log struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	UserID          uuid.UUID  `json:"user_id" db:"user_id"`
	WeekChallengeID uuid.UUID  `json:"week_challenge_id" db:"week_challenge_id"`
	LogType         LogType    `json:"log_type" db:"log_type"`
	Activity        *Activity  `json:"activity,omitempty" db:"activity"`
	CardioAmount    *float64   `json:"cardio_amount,omitempty" db:"cardio_amount"`
	ExerciseID      *uuid.UUID `json:"exercise_id,omitempty" db:"exercise_id"`
	Reps            *int       `json:"reps,omitempty" db:"reps"`
	LoggedAt        time.Time  `json:"logged_at" db:"logged_at"`
	Note            *string    `json:"note,omitempty" db:"note"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

type CreateLogRequest struct {
	LogType      LogType  `json:"log_type"`
	Activity     Activity `json:"activity,omitempty"`
	CardioAmount float64  `json:"cardio_amount,omitempty"`
	ExerciseID   string   `json:"exercise_id,omitempty"`
	Reps         int      `json:"reps,omitempty"`
	LoggedAt     string   `json:"logged_at"` // YYYY-MM-DD, defaults to today
	Note         string   `json:"note,omitempty"`
}
