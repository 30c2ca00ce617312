package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitCrewAPI/handlers"
	"fitCrewAPI/internal/types/challenge"
	"fitCrewAPI/internal/types/group"
	"fitCrewAPI/internal/types/user"
	"fitCrewAPI/internal/types/workout"
	"fitCrewAPI/middleware"
	"fitCrewAPI/services"
	"fitCrewAPI/tests/helpers"
)

// TestFullChallengeFlow walks the whole happy path: two users sign up,
// one creates a crew and the other joins by invite code, the admin
// assigns a host week, the host posts a cardio challenge, a workout is
// logged and the dashboard and leaderboard reflect it.
func TestFullChallengeFlow(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	groupService := services.NewGroupService(pool)
	notificationService := services.NewNotificationService(pool)
	challengeService := services.NewChallengeService(pool, notificationService)
	workoutService := services.NewWorkoutService(pool)
	progressService := services.NewProgressService(pool, challengeService, groupService)

	webhookHandler := handlers.NewWebhookHandler(userService)

	os.Setenv("CLERK_WEBHOOK_SECRET", "")
	defer os.Unsetenv("CLERK_WEBHOOK_SECRET")

	ctx := context.Background()
	stamp := time.Now().Format("20060102150405")
	adminClerkID := "user_test_admin_" + stamp
	memberClerkID := "user_test_member_" + stamp

	// Step 1: admin signs up via the Clerk webhook
	t.Log("Step 1: Admin signs up")

	createPayload := helpers.MockClerkWebhookPayload("user.created", adminClerkID)
	req1 := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(createPayload))
	rr1 := httptest.NewRecorder()

	webhookHandler.HandleClerkWebhook(rr1, req1)
	require.Equal(t, http.StatusOK, rr1.Code, "Webhook should succeed")

	admin, err := userService.GetUserByClerkID(ctx, adminClerkID)
	require.NoError(t, err)

	// Second user goes through the service directly to keep email and
	// username unique.
	member, err := userService.CreateUser(ctx, &user.CreateUserRequest{
		ClerkID:   memberClerkID,
		Email:     "test.member" + stamp + "@example.com",
		Username:  "testmember" + stamp,
		FirstName: "Member",
		LastName:  "User",
	})
	require.NoError(t, err)

	// Step 2: admin creates a crew, member joins by invite code
	t.Log("Step 2: Create and join group")

	crew, err := groupService.CreateGroup(ctx, adminClerkID, &group.CreateGroupRequest{Name: "Test Crew " + stamp})
	require.NoError(t, err)
	require.Len(t, crew.InviteCode, 6)

	joined, err := groupService.JoinGroup(ctx, memberClerkID, crew.InviteCode)
	require.NoError(t, err)
	assert.Equal(t, crew.ID, joined.ID)

	members, err := groupService.GetMembers(ctx, crew.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	// Step 3: admin assigns themselves as host for the current week
	t.Log("Step 3: Assign host week")

	start := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	end := time.Now().AddDate(0, 0, 5).Format("2006-01-02")

	assignment, err := challengeService.CreateAssignment(ctx, adminClerkID, crew.ID, &challenge.CreateAssignmentRequest{
		HostUserID: admin.ID,
		StartDate:  start,
		EndDate:    end,
	})
	require.NoError(t, err)

	active, err := challengeService.GetActiveAssignment(ctx, memberClerkID, crew.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, assignment.ID, active.ID)

	// Non-members cannot read the group's week
	outsider, err := userService.CreateUser(ctx, &user.CreateUserRequest{
		ClerkID:   "user_test_outsider_" + stamp,
		Email:     "test.outsider" + stamp + "@example.com",
		Username:  "testoutsider" + stamp,
		FirstName: "Out",
		LastName:  "Sider",
	})
	require.NoError(t, err)
	_, err = challengeService.GetActiveAssignment(ctx, outsider.ClerkID, crew.ID)
	require.ErrorIs(t, err, services.ErrNotFound)
	_, err = challengeService.GetActiveChallenge(ctx, outsider.ClerkID, crew.ID)
	require.ErrorIs(t, err, services.ErrNotFound)

	// Step 4: host posts a cardio-only challenge
	t.Log("Step 4: Post challenge")

	detail, err := challengeService.CreateChallenge(ctx, adminClerkID, assignment.ID, &challenge.CreateChallengeRequest{
		CardioMetric: challenge.MetricMiles,
		CardioTarget: 60,
	})
	require.NoError(t, err)
	require.NotNil(t, detail.Challenge)

	// Step 5: member logs a 30 mile week so far
	t.Log("Step 5: Log workout")

	logged, err := workoutService.CreateLog(ctx, memberClerkID, detail.Challenge.ID, &workout.CreateLogRequest{
		LogType:      workout.LogCardio,
		Activity:     workout.ActivityRun,
		CardioAmount: 30,
	})
	require.NoError(t, err)
	require.NotNil(t, logged.CardioAmount)
	assert.Equal(t, 30.0, *logged.CardioAmount)

	// Step 6: dashboard reflects the member's half-done cardio
	t.Log("Step 6: Check dashboard")

	memberUUID := uuid.MustParse(member.ID)

	dashboard, err := progressService.GetGroupDashboard(ctx, memberClerkID, crew.ID)
	require.NoError(t, err)
	require.NotNil(t, dashboard.Challenge)
	require.NotNil(t, dashboard.Mine)
	assert.InDelta(t, 0.5, dashboard.Mine.CardioProgress, 1e-9)
	assert.InDelta(t, 0.5, dashboard.Mine.TotalProgress, 1e-9)

	require.NotNil(t, dashboard.Group)
	assert.Equal(t, 2, dashboard.Group.MemberCount)
	assert.InDelta(t, 0.25, dashboard.Group.TotalProgress, 1e-9)

	// Step 7: leaderboard puts the member first
	t.Log("Step 7: Check leaderboard")

	board, err := progressService.GetLeaderboard(ctx, adminClerkID, crew.ID)
	require.NoError(t, err)
	require.Equal(t, 2, board.TotalUsers)
	assert.Equal(t, memberUUID, board.Entries[0].UserID)
	assert.InDelta(t, 0.5, board.Entries[0].TotalProgress, 1e-9)
	assert.InDelta(t, 0, board.Entries[1].TotalProgress, 1e-9)

	// Step 8: member deletes their log, progress drops back to zero
	t.Log("Step 8: Delete log")

	require.NoError(t, workoutService.DeleteLog(ctx, memberClerkID, logged.ID))

	dashboard, err = progressService.GetGroupDashboard(ctx, memberClerkID, crew.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0, dashboard.Mine.TotalProgress, 1e-9)
}

// TestProfileFlow exercises the profile endpoints through the handlers
// the way the mobile client calls them.
func TestProfileFlow(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	userHandler := handlers.NewUserHandler(userService)

	ctx := context.Background()
	stamp := time.Now().Format("20060102150405")
	clerkID := "user_test_profile_" + stamp

	created, err := userService.CreateUser(ctx, &user.CreateUserRequest{
		ClerkID:   clerkID,
		Email:     "test.profile" + stamp + "@example.com",
		Username:  "testprofile" + stamp,
		FirstName: "Profile",
		LastName:  "User",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
	req = req.WithContext(middleware.WithClerkID(req.Context(), clerkID))
	rr := httptest.NewRecorder()

	userHandler.GetProfile(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var profile user.User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &profile))
	assert.Equal(t, created.Email, profile.Email)

	updateBody := `{"firstName": "Renamed", "username": "renamed` + stamp + `"}`
	req2 := httptest.NewRequest(http.MethodPut, "/api/v1/user/update-profile", bytes.NewReader([]byte(updateBody)))
	req2.Header.Set("Content-Type", "application/json")
	req2 = req2.WithContext(middleware.WithClerkID(req2.Context(), clerkID))
	rr2 := httptest.NewRecorder()

	userHandler.UpdateProfile(rr2, req2)
	require.Equal(t, http.StatusOK, rr2.Code)

	updated, err := userService.GetUserByClerkID(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.FirstName)

	req3 := httptest.NewRequest(http.MethodDelete, "/api/v1/user/delete-account", nil)
	req3 = req3.WithContext(middleware.WithClerkID(req3.Context(), clerkID))
	rr3 := httptest.NewRecorder()

	userHandler.DeleteAccount(rr3, req3)
	require.Equal(t, http.StatusOK, rr3.Code)

	_, err = userService.GetUserByClerkID(ctx, clerkID)
	assert.Error(t, err, "User should be deleted")
}
