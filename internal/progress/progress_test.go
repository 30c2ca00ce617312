package progress

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitCrewAPI/internal/types/workout"
)

func cardioEntry(userID uuid.UUID, amount float64, createdAt time.Time) Entry {
	return Entry{
		UserID:       userID,
		LogType:      workout.LogCardio,
		CardioAmount: amount,
		CreatedAt:    createdAt,
	}
}

func strengthEntry(userID, exerciseID uuid.UUID, reps int, createdAt time.Time) Entry {
	return Entry{
		UserID:     userID,
		LogType:    workout.LogStrength,
		ExerciseID: exerciseID,
		Reps:       reps,
		CreatedAt:  createdAt,
	}
}

func TestComputeUser_CardioOnly(t *testing.T) {
	userID := uuid.New()
	now := time.Now()
	targets := Targets{CardioTarget: 20}

	p := ComputeUser([]Entry{
		cardioEntry(userID, 5, now.Add(-2*time.Hour)),
		cardioEntry(userID, 7.5, now.Add(-time.Hour)),
	}, targets)

	assert.Equal(t, 12.5, p.CardioTotal)
	assert.Equal(t, 0.625, p.CardioProgress)
	assert.Equal(t, 0.0, p.StrengthOverallProgress)
	// no exercises defined: total is the cardio component alone
	assert.Equal(t, 0.625, p.TotalProgress)
	require.NotNil(t, p.LastActivityAt)
	assert.Equal(t, now.Add(-time.Hour).Unix(), p.LastActivityAt.Unix())
}

func TestComputeUser_CardioCappedAtOne(t *testing.T) {
	userID := uuid.New()
	p := ComputeUser([]Entry{cardioEntry(userID, 50, time.Now())}, Targets{CardioTarget: 20})
	assert.Equal(t, 50.0, p.CardioTotal)
	assert.Equal(t, 1.0, p.CardioProgress)
}

func TestComputeUser_ZeroTargetIsZeroProgress(t *testing.T) {
	userID := uuid.New()
	p := ComputeUser([]Entry{cardioEntry(userID, 10, time.Now())}, Targets{CardioTarget: 0})
	assert.Equal(t, 0.0, p.CardioProgress)
	assert.Equal(t, 0.0, p.TotalProgress)
}

func TestComputeUser_MonotonicCardio(t *testing.T) {
	userID := uuid.New()
	targets := Targets{CardioTarget: 30}

	var logs []Entry
	prev := 0.0
	for i := 0; i < 20; i++ {
		logs = append(logs, cardioEntry(userID, 2.5, time.Now()))
		p := ComputeUser(logs, targets)
		assert.GreaterOrEqual(t, p.CardioProgress, prev)
		assert.GreaterOrEqual(t, p.CardioProgress, 0.0)
		assert.LessOrEqual(t, p.CardioProgress, 1.0)
		prev = p.CardioProgress
	}
}

func TestComputeUser_FiftyFiftyWeighting(t *testing.T) {
	userID := uuid.New()
	now := time.Now()

	for _, exerciseCount := range []int{1, 2, 5} {
		targets := Targets{CardioTarget: 10}
		var logs []Entry
		logs = append(logs, cardioEntry(userID, 6, now))
		for i := 0; i < exerciseCount; i++ {
			ex := ExerciseTarget{ID: uuid.New(), Name: "pushups", TargetReps: 40}
			targets.Exercises = append(targets.Exercises, ex)
			logs = append(logs, strengthEntry(userID, ex.ID, 10*(i+1), now))
		}

		p := ComputeUser(logs, targets)
		assert.Equal(t, (p.CardioProgress+p.StrengthOverallProgress)/2, p.TotalProgress,
			"total must be the exact 50/50 average with %d exercises", exerciseCount)
	}
}

func TestComputeUser_StrengthMean(t *testing.T) {
	userID := uuid.New()
	now := time.Now()
	exA := ExerciseTarget{ID: uuid.New(), Name: "pushups", TargetReps: 100}
	exB := ExerciseTarget{ID: uuid.New(), Name: "squats", TargetReps: 50}
	targets := Targets{CardioTarget: 10, Exercises: []ExerciseTarget{exA, exB}}

	p := ComputeUser([]Entry{
		strengthEntry(userID, exA.ID, 50, now), // 0.5
		strengthEntry(userID, exB.ID, 50, now), // capped at 1.0
		strengthEntry(userID, uuid.New(), 999, now), // unknown exercise, ignored
	}, targets)

	assert.Equal(t, 50, p.ExerciseTotals[exA.ID])
	assert.Equal(t, 0.5, p.ExerciseProgress[exA.ID])
	assert.Equal(t, 1.0, p.ExerciseProgress[exB.ID])
	assert.Equal(t, 0.75, p.StrengthOverallProgress)
}

func TestComputeUser_StrengthOnlyPolicy(t *testing.T) {
	userID := uuid.New()
	ex := ExerciseTarget{ID: uuid.New(), Name: "burpees", TargetReps: 20}
	targets := Targets{Exercises: []ExerciseTarget{ex}}

	p := ComputeUser([]Entry{strengthEntry(userID, ex.ID, 10, time.Now())}, targets)
	assert.Equal(t, 0.5, p.StrengthOverallProgress)
	// no cardio target: score on strength alone, not halved
	assert.Equal(t, 0.5, p.TotalProgress)
}

func TestComputeUser_NoLogs(t *testing.T) {
	p := ComputeUser(nil, Targets{CardioTarget: 20})
	assert.Equal(t, 0.0, p.CardioTotal)
	assert.Equal(t, 0.0, p.TotalProgress)
	assert.Nil(t, p.LastActivityAt)
}

func TestComputeGroup_CappedContribution(t *testing.T) {
	// One member logs 5T, the rest log nothing: the group only gets
	// credit for T and sits at 1/M.
	target := 20.0
	memberA, memberB, memberC := uuid.New(), uuid.New(), uuid.New()
	logsByUser := map[uuid.UUID][]Entry{
		memberA: {cardioEntry(memberA, 5*target, time.Now())},
		memberB: {},
		memberC: {},
	}

	g := ComputeGroup(logsByUser, Targets{CardioTarget: target}, 3)
	assert.Equal(t, target, g.CardioTotal)
	assert.InDelta(t, 1.0/3.0, g.CardioProgress, 1e-9)
}

func TestComputeGroup_TwentyMileScenario(t *testing.T) {
	// Target 20 miles, 3 members: A logs 25, B logs 10, C logs 0.
	// Capped sum is 20+10+0 = 30 of a 60 group target.
	memberA, memberB, memberC := uuid.New(), uuid.New(), uuid.New()
	now := time.Now()
	logsByUser := map[uuid.UUID][]Entry{
		memberA: {cardioEntry(memberA, 15, now), cardioEntry(memberA, 10, now)},
		memberB: {cardioEntry(memberB, 10, now)},
		memberC: {},
	}

	g := ComputeGroup(logsByUser, Targets{CardioTarget: 20}, 3)
	assert.Equal(t, 30.0, g.CardioTotal)
	assert.Equal(t, 0.5, g.CardioProgress)
	assert.Equal(t, 0.5, g.TotalProgress)
}

func TestComputeGroup_StrengthCappedPerUserPerExercise(t *testing.T) {
	memberA, memberB := uuid.New(), uuid.New()
	now := time.Now()
	ex := ExerciseTarget{ID: uuid.New(), Name: "situps", TargetReps: 50}
	logsByUser := map[uuid.UUID][]Entry{
		memberA: {strengthEntry(memberA, ex.ID, 500, now)}, // capped to 50
		memberB: {strengthEntry(memberB, ex.ID, 25, now)},
	}

	g := ComputeGroup(logsByUser, Targets{Exercises: []ExerciseTarget{ex}}, 2)
	assert.Equal(t, 0.75, g.ExerciseProgress[ex.ID])
	assert.Equal(t, 0.75, g.StrengthOverallProgress)
	assert.Equal(t, 0.75, g.TotalProgress)
}

func TestComputeGroup_NoMembers(t *testing.T) {
	g := ComputeGroup(nil, Targets{CardioTarget: 10}, 0)
	assert.Equal(t, 0.0, g.CardioProgress)
	assert.Equal(t, 0.0, g.TotalProgress)
}

func TestSortLeaderboard_TiesBrokenByCardioThenStrength(t *testing.T) {
	first := &UserProgress{UserID: uuid.New(), TotalProgress: 0.9, CardioProgress: 0.9, StrengthOverallProgress: 0.9}
	second := &UserProgress{UserID: uuid.New(), TotalProgress: 0.9, CardioProgress: 0.8, StrengthOverallProgress: 1.0}
	third := &UserProgress{UserID: uuid.New(), TotalProgress: 0.5, CardioProgress: 0.5, StrengthOverallProgress: 0.5}

	entries := []*UserProgress{third, second, first}
	SortLeaderboard(entries)

	assert.Equal(t, []*UserProgress{first, second, third}, entries)
}

func TestSortLeaderboard_FullTieIsDeterministic(t *testing.T) {
	a := &UserProgress{UserID: uuid.MustParse("00000000-0000-0000-0000-000000000001"), TotalProgress: 0.7, CardioProgress: 0.7, StrengthOverallProgress: 0.7}
	b := &UserProgress{UserID: uuid.MustParse("00000000-0000-0000-0000-000000000002"), TotalProgress: 0.7, CardioProgress: 0.7, StrengthOverallProgress: 0.7}

	entries := []*UserProgress{b, a}
	SortLeaderboard(entries)
	assert.Equal(t, []*UserProgress{a, b}, entries)

	entries = []*UserProgress{a, b}
	SortLeaderboard(entries)
	assert.Equal(t, []*UserProgress{a, b}, entries)
}

func TestAssignRanks_CompetitionNumbering(t *testing.T) {
	maxed := func() *UserProgress {
		return &UserProgress{UserID: uuid.New(), TotalProgress: 1.0, CardioProgress: 1.0, StrengthOverallProgress: 1.0}
	}
	entries := []*UserProgress{
		maxed(),
		maxed(),
		{UserID: uuid.New(), TotalProgress: 0.8, CardioProgress: 0.8, StrengthOverallProgress: 0.8},
		{UserID: uuid.New(), TotalProgress: 0.5, CardioProgress: 0.5, StrengthOverallProgress: 0.5},
	}
	SortLeaderboard(entries)
	ranked := AssignRanks(entries)

	require.Len(t, ranked, 4)
	ranks := []int{ranked[0].Rank, ranked[1].Rank, ranked[2].Rank, ranked[3].Rank}
	assert.Equal(t, []int{1, 1, 3, 4}, ranks)
}
