package feed

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitCrewAPI/internal/types/punishment"
	"fitCrewAPI/internal/types/workout"
)

func TestAssemble_MergesAndTruncates(t *testing.T) {
	userA, userB := uuid.New(), uuid.New()
	exID := uuid.New()
	punExID := uuid.New()
	base := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	run := workout.ActivityRun
	amount := 3.5
	reps := 20

	workoutLogs := []*workout.Log{
		{ID: uuid.New(), UserID: userA, LogType: workout.LogCardio, Activity: &run, CardioAmount: &amount, CreatedAt: base.Add(1 * time.Minute)},
		{ID: uuid.New(), UserID: userB, LogType: workout.LogStrength, ExerciseID: &exID, Reps: &reps, CreatedAt: base.Add(3 * time.Minute)},
		{ID: uuid.New(), UserID: userA, LogType: workout.LogCardio, Activity: &run, CardioAmount: &amount, CreatedAt: base.Add(5 * time.Minute)},
	}
	punishmentLogs := []*punishment.Log{
		{ID: uuid.New(), UserID: userB, LogType: workout.LogStrength, ExerciseID: &punExID, Reps: &reps, CreatedAt: base.Add(2 * time.Minute)},
		{ID: uuid.New(), UserID: userA, LogType: workout.LogStrength, ExerciseID: &punExID, Reps: &reps, CreatedAt: base.Add(4 * time.Minute)},
	}

	names := Names{
		Usernames:           map[uuid.UUID]string{userA: "alice", userB: "bob"},
		WorkoutExercises:    map[uuid.UUID]string{exID: "Pushups"},
		PunishmentExercises: map[uuid.UUID]string{punExID: "Burpees"},
	}

	entries := Assemble(workoutLogs, punishmentLogs, names, 4)
	require.Len(t, entries, 4)

	// 4 most recent across both sources, newest first
	assert.Equal(t, base.Add(5*time.Minute), entries[0].CreatedAt)
	assert.Equal(t, base.Add(4*time.Minute), entries[1].CreatedAt)
	assert.Equal(t, base.Add(3*time.Minute), entries[2].CreatedAt)
	assert.Equal(t, base.Add(2*time.Minute), entries[3].CreatedAt)

	assert.Equal(t, SourceWorkout, entries[0].Source)
	assert.Equal(t, "alice", entries[0].Username)
	assert.Equal(t, "run", entries[0].Activity)
	assert.Equal(t, 3.5, entries[0].Amount)

	assert.Equal(t, SourcePunishment, entries[1].Source)
	assert.Equal(t, "Burpees", entries[1].ExerciseName)

	assert.Equal(t, "bob", entries[2].Username)
	assert.Equal(t, "Pushups", entries[2].ExerciseName)
	assert.Equal(t, 20, entries[2].Reps)
}

func TestAssemble_UnresolvedNamesFallBack(t *testing.T) {
	userID := uuid.New()
	exID := uuid.New()
	reps := 10

	logs := []*workout.Log{
		{ID: uuid.New(), UserID: userID, LogType: workout.LogStrength, ExerciseID: &exID, Reps: &reps, CreatedAt: time.Now()},
	}

	entries := Assemble(logs, nil, Names{}, 10)
	require.Len(t, entries, 1)
	assert.Equal(t, UnknownMember, entries[0].Username)
	assert.Equal(t, UnknownExercise, entries[0].ExerciseName)
}

func TestAssemble_NoLimit(t *testing.T) {
	run := workout.ActivityRun
	amount := 1.0
	var logs []*workout.Log
	for i := 0; i < 3; i++ {
		logs = append(logs, &workout.Log{
			ID: uuid.New(), UserID: uuid.New(), LogType: workout.LogCardio,
			Activity: &run, CardioAmount: &amount, CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		})
	}
	entries := Assemble(logs, nil, Names{}, 0)
	assert.Len(t, entries, 3)
}
