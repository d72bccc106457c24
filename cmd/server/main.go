package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/arjndr/postpilot/configs"
	"github.com/arjndr/postpilot/internal/api/handlers"
	"github.com/arjndr/postpilot/internal/api/middleware"
	job "github.com/arjndr/postpilot/internal/jobs"
	"github.com/arjndr/postpilot/internal/queue"
	"github.com/arjndr/postpilot/internal/repository"
	"github.com/arjndr/postpilot/internal/service"
	"github.com/arjndr/postpilot/internal/twitter"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Minute,
		WriteTimeout: time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	userRepo := repository.NewUserRepository(db)
	scheduledPostRepo := repository.NewScheduledPostRepository(db)
	capturedPostRepo := repository.NewCapturedPostRepository(db)
	credentialsRepo := repository.NewCredentialsRepository(db)
	apiKeyRepo := repository.NewApiKeyRepository(db)

	twitterClient := twitter.NewClient(cfg.TwitterAPIBaseURL)

	authService := service.NewAuthService(*cfg, userRepo)
	userService := service.NewUserService(userRepo)
	apiKeyService := service.NewApiKeyService(apiKeyRepo)
	credentialsService := service.NewCredentialsService(*cfg, credentialsRepo)
	archiveService := service.NewArchiveService(*cfg)
	publishService := service.NewPublishService(twitterClient, credentialsService, capturedPostRepo, archiveService)
	scheduleService := service.NewScheduleService(scheduledPostRepo)
	capturedService := service.NewCapturedPostService(capturedPostRepo)

	authMiddleware := middleware.NewAuthMiddleware(*cfg, apiKeyService)

	auth := handlers.NewAuthHandler(*cfg, authService)
	app.Get("/login", auth.Login)
	app.Get("/login/callback", auth.LoginCallbackHandler)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	user := handlers.NewUserHandler(userService)
	api.Get("/user/info", user.GetUserInfo)

	apiKeys := handlers.NewApiKeyHandler(apiKeyService)
	api.Post("/api_key/new", apiKeys.CreateApiKey)
	api.Get("/api_key/list", apiKeys.ListKeys)
	api.Post("/api_key/remove", apiKeys.RemoveAPIKey)

	credentials := handlers.NewCredentialsHandler(credentialsService)
	api.Post("/platform/credentials", credentials.SaveCredentials)
	api.Get("/platform/credentials/status", credentials.CredentialsStatus)
	api.Post("/platform/credentials/remove", credentials.RemoveCredentials)

	post := handlers.NewPostHandler(scheduleService, publishService, client)
	api.Post("/posts/schedule", post.SchedulePost)
	api.Post("/posts/publish", post.PublishNow)
	api.Get("/posts", post.ListPosts)
	api.Post("/posts/cancel", post.CancelPost)
	api.Post("/posts/retry", post.RetryPost)

	captured := handlers.NewCapturedHandler(capturedService)
	api.Get("/captured", captured.ListCaptured)

	// cron jobs
	reconcileJob := job.NewReconcileJob(scheduledPostRepo, client)

	// queue worker
	worker := queue.NewWorker(scheduledPostRepo, publishService)

	c := cron.New()
	c.AddFunc("@every 00h10m00s", reconcileJob.ReconcileSchedules)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishPost, worker.HandlePublishPostTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
