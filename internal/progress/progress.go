// Package progress holds the challenge arithmetic: per-user completion,
// capped group aggregation and leaderboard ordering. It is pure on
// purpose so the math is testable without a database; services load
// rows and feed them in.
package progress

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"fitCrewAPI/internal/types/workout"
)

// Entry is the slice of a log row the progress math cares about.
// Works for both workout and punishment logs.
type Entry struct {
	UserID       uuid.UUID
	LogType      workout.LogType
	CardioAmount float64
	ExerciseID   uuid.UUID
	Reps         int
	CreatedAt    time.Time
}

type ExerciseTarget struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	TargetReps int       `json:"target_reps"`
}

// Targets describes what a challenge asks for. CardioTarget <= 0 means
// the challenge has no cardio component (punishment track allows that).
type Targets struct {
	CardioTarget float64          `json:"cardio_target"`
	Exercises    []ExerciseTarget `json:"exercises"`
}

func (t Targets) hasCardio() bool   { return t.CardioTarget > 0 }
func (t Targets) hasStrength() bool { return len(t.Exercises) > 0 }

type UserProgress struct {
	UserID                  uuid.UUID             `json:"user_id"`
	Username                string                `json:"username"`
	ImageURL                string                `json:"image_url,omitempty"`
	CardioTotal             float64               `json:"cardio_total"`
	CardioProgress          float64               `json:"cardio_progress"`
	ExerciseTotals          map[uuid.UUID]int     `json:"exercise_totals"`
	ExerciseProgress        map[uuid.UUID]float64 `json:"exercise_progress"`
	StrengthOverallProgress float64               `json:"strength_overall_progress"`
	TotalProgress           float64               `json:"total_progress"`
	LastActivityAt          *time.Time            `json:"last_activity_at,omitempty"`
}

type GroupProgress struct {
	MemberCount             int                   `json:"member_count"`
	CardioTotal             float64               `json:"cardio_total"`
	CardioProgress          float64               `json:"cardio_progress"`
	ExerciseProgress        map[uuid.UUID]float64 `json:"exercise_progress"`
	StrengthOverallProgress float64               `json:"strength_overall_progress"`
	TotalProgress           float64               `json:"total_progress"`
}

// ratio caps completion at 100% and treats a missing target as zero
// progress rather than dividing by it.
func ratio(total, target float64) float64 {
	if target <= 0 {
		return 0
	}
	if p := total / target; p < 1 {
		return p
	}
	return 1
}

// overall combines the cardio and strength components. A challenge
// with both weighs them 50/50 regardless of exercise count; a
// single-component challenge is scored on that component alone.
func overall(cardio, strength float64, hasCardio, hasStrength bool) float64 {
	switch {
	case hasCardio && hasStrength:
		return (cardio + strength) / 2
	case hasCardio:
		return cardio
	case hasStrength:
		return strength
	default:
		return 0
	}
}

// ComputeUser folds one user's logs for one challenge into completion
// percentages against the challenge targets.
func ComputeUser(logs []Entry, t Targets) *UserProgress {
	p := &UserProgress{
		ExerciseTotals:   make(map[uuid.UUID]int, len(t.Exercises)),
		ExerciseProgress: make(map[uuid.UUID]float64, len(t.Exercises)),
	}

	for _, log := range logs {
		if log.LogType == workout.LogCardio {
			p.CardioTotal += log.CardioAmount
		}
		if p.LastActivityAt == nil || log.CreatedAt.After(*p.LastActivityAt) {
			created := log.CreatedAt
			p.LastActivityAt = &created
		}
	}
	p.CardioProgress = ratio(p.CardioTotal, t.CardioTarget)

	var strengthSum float64
	for _, ex := range t.Exercises {
		total := 0
		for _, log := range logs {
			if log.LogType == workout.LogStrength && log.ExerciseID == ex.ID {
				total += log.Reps
			}
		}
		exProgress := ratio(float64(total), float64(ex.TargetReps))
		p.ExerciseTotals[ex.ID] = total
		p.ExerciseProgress[ex.ID] = exProgress
		strengthSum += exProgress
	}
	if len(t.Exercises) > 0 {
		p.StrengthOverallProgress = strengthSum / float64(len(t.Exercises))
	}

	p.TotalProgress = overall(p.CardioProgress, p.StrengthOverallProgress, t.hasCardio(), t.hasStrength())
	return p
}

// ComputeGroup aggregates all participants' logs into one group
// percentage per category. Each member's contribution is capped at
// their own target before summing, so one over-achiever cannot make
// the group look done while everyone else sits idle. memberCount must
// count every participant, logs or not; spectators are excluded by
// the caller.
func ComputeGroup(logsByUser map[uuid.UUID][]Entry, t Targets, memberCount int) *GroupProgress {
	g := &GroupProgress{
		MemberCount:      memberCount,
		ExerciseProgress: make(map[uuid.UUID]float64, len(t.Exercises)),
	}
	if memberCount == 0 {
		return g
	}

	if t.hasCardio() {
		for _, logs := range logsByUser {
			var userTotal float64
			for _, log := range logs {
				if log.LogType == workout.LogCardio {
					userTotal += log.CardioAmount
				}
			}
			if userTotal > t.CardioTarget {
				userTotal = t.CardioTarget
			}
			g.CardioTotal += userTotal
		}
		g.CardioProgress = ratio(g.CardioTotal, t.CardioTarget*float64(memberCount))
	}

	var strengthSum float64
	for _, ex := range t.Exercises {
		var groupTotal float64
		for _, logs := range logsByUser {
			userTotal := 0
			for _, log := range logs {
				if log.LogType == workout.LogStrength && log.ExerciseID == ex.ID {
					userTotal += log.Reps
				}
			}
			if userTotal > ex.TargetReps {
				userTotal = ex.TargetReps
			}
			groupTotal += float64(userTotal)
		}
		exProgress := ratio(groupTotal, float64(ex.TargetReps)*float64(memberCount))
		g.ExerciseProgress[ex.ID] = exProgress
		strengthSum += exProgress
	}
	if len(t.Exercises) > 0 {
		g.StrengthOverallProgress = strengthSum / float64(len(t.Exercises))
	}

	g.TotalProgress = overall(g.CardioProgress, g.StrengthOverallProgress, t.hasCardio(), t.hasStrength())
	return g
}

// SortLeaderboard orders entries by total progress descending, ties
// broken by cardio then strength progress descending. Fully tied
// entries fall back to user id so the order is reproducible.
func SortLeaderboard(entries []*UserProgress) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.TotalProgress != b.TotalProgress {
			return a.TotalProgress > b.TotalProgress
		}
		if a.CardioProgress != b.CardioProgress {
			return a.CardioProgress > b.CardioProgress
		}
		if a.StrengthOverallProgress != b.StrengthOverallProgress {
			return a.StrengthOverallProgress > b.StrengthOverallProgress
		}
		return a.UserID.String() < b.UserID.String()
	})
}

type RankedEntry struct {
	Rank int `json:"rank"`
	*UserProgress
}

// AssignRanks numbers an already-sorted leaderboard with standard
// competition ranking: entries tied on all three progress values share
// a rank, and the next distinct entry skips past them (1,1,3,4).
func AssignRanks(sorted []*UserProgress) []*RankedEntry {
	ranked := make([]*RankedEntry, 0, len(sorted))
	for i, p := range sorted {
		rank := i + 1
		if i > 0 {
			prev := ranked[i-1]
			if p.TotalProgress == prev.TotalProgress &&
				p.CardioProgress == prev.CardioProgress &&
				p.StrengthOverallProgress == prev.StrengthOverallProgress {
				rank = prev.Rank
			}
		}
		ranked = append(ranked, &RankedEntry{Rank: rank, UserProgress: p})
	}
	return ranked
}
