package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fitCrewAPI/handlers"
	"fitCrewAPI/internal/notification"
	"fitCrewAPI/middleware"
	"fitCrewAPI/services"

	_ "net/http/pprof"
)

var (
	dbPool              *pgxpool.Pool
	userService         *services.UserService
	groupService        *services.GroupService
	challengeService    *services.ChallengeService
	workoutService      *services.WorkoutService
	progressService     *services.ProgressService
	punishmentService   *services.PunishmentService
	feedService         *services.FeedService
	notificationService *services.NotificationService
	fcmService          *notification.FCMService
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	clerkSecretKey := os.Getenv("CLERK_SECRET_KEY")
	if clerkSecretKey == "" {
		log.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(clerkSecretKey)
	log.Println("Clerk initialized successfully")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		log.Fatal("Failed to parse database URL:", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("Failed to create connection pool:", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Successfully connected to database")

	notificationService = services.NewNotificationService(dbPool)
	userService = services.NewUserService(dbPool)
	groupService = services.NewGroupService(dbPool)
	challengeService = services.NewChallengeService(dbPool, notificationService)
	workoutService = services.NewWorkoutService(dbPool)
	progressService = services.NewProgressService(dbPool, challengeService, groupService)
	punishmentService = services.NewPunishmentService(dbPool, notificationService)
	feedService = services.NewFeedService(dbPool)

	fcmService, err = notification.NewFCMService("./serviceAccountKey.json")
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		notificationService.SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	userHandler := handlers.NewUserHandler(userService)
	groupHandler := handlers.NewGroupHandler(groupService)
	challengeHandler := handlers.NewChallengeHandler(challengeService)
	workoutHandler := handlers.NewWorkoutHandler(workoutService)
	progressHandler := handlers.NewProgressHandler(progressService)
	punishmentHandler := handlers.NewPunishmentHandler(punishmentService)
	feedHandler := handlers.NewFeedHandler(feedService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	webhookHandler := handlers.NewWebhookHandler(userService)

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "fitCrew-api"}`))
	}).Methods("GET")

	r.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := r.PathPrefix("/api/v1").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/user", userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/user/update-profile", userHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/user/delete-account", userHandler.DeleteAccount).Methods("DELETE")

	protected.HandleFunc("/groups", groupHandler.CreateGroup).Methods("POST")
	protected.HandleFunc("/groups", groupHandler.GetMyGroups).Methods("GET")
	protected.HandleFunc("/groups/join", groupHandler.JoinGroup).Methods("POST")
	protected.HandleFunc("/groups/{groupID}", groupHandler.GetGroup).Methods("GET")
	protected.HandleFunc("/groups/{groupID}/leave", groupHandler.LeaveGroup).Methods("DELETE")
	protected.HandleFunc("/groups/{groupID}/members/{userID}", groupHandler.RemoveMember).Methods("DELETE")
	protected.HandleFunc("/groups/{groupID}/members/{userID}/mode", groupHandler.UpdateMemberMode).Methods("PUT")

	protected.HandleFunc("/groups/{groupID}/assignments", challengeHandler.CreateAssignment).Methods("POST")
	protected.HandleFunc("/groups/{groupID}/assignments/active", challengeHandler.GetActiveAssignment).Methods("GET")
	protected.HandleFunc("/assignments/{assignmentID}/challenge", challengeHandler.CreateChallenge).Methods("POST")
	protected.HandleFunc("/groups/{groupID}/challenge/active", challengeHandler.GetActiveChallenge).Methods("GET")
	protected.HandleFunc("/challenges/{challengeID}", challengeHandler.DeleteChallenge).Methods("DELETE")

	protected.HandleFunc("/challenges/{challengeID}/logs", workoutHandler.CreateLog).Methods("POST")
	protected.HandleFunc("/challenges/{challengeID}/logs", workoutHandler.GetMyLogs).Methods("GET")
	protected.HandleFunc("/logs/{logID}", workoutHandler.DeleteLog).Methods("DELETE")

	protected.HandleFunc("/groups/{groupID}/progress", progressHandler.GetGroupDashboard).Methods("GET")
	protected.HandleFunc("/groups/{groupID}/leaderboard", progressHandler.GetLeaderboard).Methods("GET")
	protected.HandleFunc("/groups/{groupID}/feed", feedHandler.GetGroupFeed).Methods("GET")

	protected.HandleFunc("/groups/{groupID}/punishments", punishmentHandler.CreatePunishment).Methods("POST")
	protected.HandleFunc("/groups/{groupID}/punishments/active", punishmentHandler.GetActivePunishments).Methods("GET")
	protected.HandleFunc("/punishments/{punishmentID}/logs", punishmentHandler.CreateLog).Methods("POST")
	protected.HandleFunc("/punishments/{punishmentID}/leaderboard", punishmentHandler.GetLeaderboard).Methods("GET")

	protected.HandleFunc("/notifications/register-device", notificationHandler.RegisterDevice).Methods("POST")

	// CORS configuration
	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
