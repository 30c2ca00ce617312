// Package feed assembles the group activity feed: the most recent
// workout and punishment logs merged into one timeline, resolved to
// display names. Assembly is pure; the service loads the rows and the
// lookup maps.
package feed

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"fitCrewAPI/internal/types/punishment"
	"fitCrewAPI/internal/types/workout"
)

type Source string

const (
	SourceWorkout    Source = "workout"
	SourcePunishment Source = "punishment"
)

// Placeholder labels for entries whose user or exercise row is gone
// (deleted account, deleted exercise). A stale entry degrades, it
// never fails the whole feed.
const (
	UnknownMember   = "Unknown member"
	UnknownExercise = "Unknown exercise"
)

// Entry is one row of the activity feed. Workout and punishment logs
// share this shape.
type Entry struct {
	LogID        uuid.UUID       `json:"log_id"`
	Source       Source          `json:"source"`
	UserID       uuid.UUID       `json:"user_id"`
	Username     string          `json:"username"`
	LogType      workout.LogType `json:"log_type"`
	Activity     string          `json:"activity,omitempty"`
	ExerciseName string          `json:"exercise_name,omitempty"`
	Amount       float64         `json:"amount,omitempty"`
	Reps         int             `json:"reps,omitempty"`
	Note         string          `json:"note,omitempty"`
	LoggedAt     time.Time       `json:"logged_at"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Names carries the display-name lookups for one assembly pass.
// Workout and punishment logs reference different exercise tables, so
// they get separate maps.
type Names struct {
	Usernames           map[uuid.UUID]string
	WorkoutExercises    map[uuid.UUID]string
	PunishmentExercises map[uuid.UUID]string
}

// Assemble merges workout and punishment logs into one feed, newest
// first by created_at, truncated to limit.
func Assemble(workoutLogs []*workout.Log, punishmentLogs []*punishment.Log, names Names, limit int) []*Entry {
	entries := make([]*Entry, 0, len(workoutLogs)+len(punishmentLogs))

	for _, l := range workoutLogs {
		e := &Entry{
			LogID:     l.ID,
			Source:    SourceWorkout,
			UserID:    l.UserID,
			Username:  lookup(names.Usernames, l.UserID, UnknownMember),
			LogType:   l.LogType,
			LoggedAt:  l.LoggedAt,
			CreatedAt: l.CreatedAt,
		}
		if l.Activity != nil {
			e.Activity = string(*l.Activity)
		}
		if l.CardioAmount != nil {
			e.Amount = *l.CardioAmount
		}
		if l.ExerciseID != nil {
			e.ExerciseName = lookup(names.WorkoutExercises, *l.ExerciseID, UnknownExercise)
		}
		if l.Reps != nil {
			e.Reps = *l.Reps
		}
		if l.Note != nil {
			e.Note = *l.Note
		}
		entries = append(entries, e)
	}

	for _, l := range punishmentLogs {
		e := &Entry{
			LogID:     l.ID,
			Source:    SourcePunishment,
			UserID:    l.UserID,
			Username:  lookup(names.Usernames, l.UserID, UnknownMember),
			LogType:   l.LogType,
			LoggedAt:  l.LoggedAt,
			CreatedAt: l.CreatedAt,
		}
		if l.Activity != nil {
			e.Activity = string(*l.Activity)
		}
		if l.CardioAmount != nil {
			e.Amount = *l.CardioAmount
		}
		if l.ExerciseID != nil {
			e.ExerciseName = lookup(names.PunishmentExercises, *l.ExerciseID, UnknownExercise)
		}
		if l.Reps != nil {
			e.Reps = *l.Reps
		}
		if l.Note != nil {
			e.Note = *l.Note
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

func lookup(m map[uuid.UUID]string, id uuid.UUID, fallback string) string {
	if name, ok := m[id]; ok && name != "" {
		return name
	}
	return fallback
}
