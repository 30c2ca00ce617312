package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitCrewAPI/internal/types/challenge"
	"fitCrewAPI/internal/types/group"
	"fitCrewAPI/internal/types/punishment"
	"fitCrewAPI/internal/types/user"
	"fitCrewAPI/internal/types/workout"
	"fitCrewAPI/services"
	"fitCrewAPI/tests/helpers"
)

// TestPunishmentFlow covers the penalty track: an admin assigns a
// strength punishment to two members, one completes it, and the ranked
// leaderboard orders and numbers them.
func TestPunishmentFlow(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	groupService := services.NewGroupService(pool)
	punishmentService := services.NewPunishmentService(pool, nil)

	ctx := context.Background()
	stamp := time.Now().Format("20060102150405")

	newUser := func(tag string) *user.User {
		u, err := userService.CreateUser(ctx, &user.CreateUserRequest{
			ClerkID:   "user_test_" + tag + "_" + stamp,
			Email:     "test." + tag + stamp + "@example.com",
			Username:  "test" + tag + stamp,
			FirstName: tag,
			LastName:  "User",
		})
		require.NoError(t, err)
		return u
	}

	admin := newUser("padmin")
	slacker := newUser("pslacker")
	grinder := newUser("pgrinder")

	crew, err := groupService.CreateGroup(ctx, admin.ClerkID, &group.CreateGroupRequest{Name: "Test Crew P" + stamp})
	require.NoError(t, err)

	_, err = groupService.JoinGroup(ctx, slacker.ClerkID, crew.InviteCode)
	require.NoError(t, err)
	_, err = groupService.JoinGroup(ctx, grinder.ClerkID, crew.InviteCode)
	require.NoError(t, err)

	start := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	end := time.Now().AddDate(0, 0, 6).Format("2006-01-02")

	// Non-admins cannot create punishments.
	_, err = punishmentService.CreatePunishment(ctx, slacker.ClerkID, crew.ID, &punishment.CreatePunishmentRequest{
		Name:        "Burpee Week",
		StartDate:   start,
		EndDate:     end,
		Exercises:   []challenge.CreateExerciseRequest{{Name: "Burpees", TargetReps: 100}},
		AssigneeIDs: []string{grinder.ID},
	})
	require.ErrorIs(t, err, services.ErrNotPermitted)

	detail, err := punishmentService.CreatePunishment(ctx, admin.ClerkID, crew.ID, &punishment.CreatePunishmentRequest{
		Name:        "Burpee Week",
		StartDate:   start,
		EndDate:     end,
		Exercises:   []challenge.CreateExerciseRequest{{Name: "Burpees", TargetReps: 100}},
		AssigneeIDs: []string{slacker.ID, grinder.ID},
	})
	require.NoError(t, err)
	require.Len(t, detail.Exercises, 1)
	require.Len(t, detail.Assignees, 2)

	punishmentID := detail.Punishment.ID
	exerciseID := detail.Exercises[0].ID

	// The assigned users see it as active, the admin does not.
	activeForGrinder, err := punishmentService.GetActivePunishments(ctx, grinder.ClerkID, crew.ID)
	require.NoError(t, err)
	require.Len(t, activeForGrinder, 1)

	activeForAdmin, err := punishmentService.GetActivePunishments(ctx, admin.ClerkID, crew.ID)
	require.NoError(t, err)
	assert.Empty(t, activeForAdmin)

	// Only assignees may log. The punishment has no cardio component,
	// so cardio logs are rejected for everyone.
	_, err = punishmentService.CreateLog(ctx, admin.ClerkID, punishmentID, &workout.CreateLogRequest{
		LogType:    workout.LogStrength,
		ExerciseID: exerciseID.String(),
		Reps:       10,
	})
	require.ErrorIs(t, err, services.ErrNotPermitted)

	_, err = punishmentService.CreateLog(ctx, grinder.ClerkID, punishmentID, &workout.CreateLogRequest{
		LogType:      workout.LogCardio,
		Activity:     workout.ActivityRun,
		CardioAmount: 5,
	})
	require.ErrorIs(t, err, services.ErrValidation)

	_, err = punishmentService.CreateLog(ctx, grinder.ClerkID, punishmentID, &workout.CreateLogRequest{
		LogType:    workout.LogStrength,
		ExerciseID: exerciseID.String(),
		Reps:       60,
	})
	require.NoError(t, err)

	_, err = punishmentService.CreateLog(ctx, grinder.ClerkID, punishmentID, &workout.CreateLogRequest{
		LogType:    workout.LogStrength,
		ExerciseID: exerciseID.String(),
		Reps:       40,
	})
	require.NoError(t, err)

	board, err := punishmentService.GetLeaderboard(ctx, admin.ClerkID, punishmentID)
	require.NoError(t, err)
	require.Equal(t, 2, board.TotalUsers)

	assert.Equal(t, 1, board.Entries[0].Rank)
	assert.Equal(t, uuid.MustParse(grinder.ID), board.Entries[0].UserID)
	assert.InDelta(t, 1.0, board.Entries[0].TotalProgress, 1e-9)

	assert.Equal(t, 2, board.Entries[1].Rank)
	assert.Equal(t, uuid.MustParse(slacker.ID), board.Entries[1].UserID)
	assert.InDelta(t, 0, board.Entries[1].TotalProgress, 1e-9)
}
