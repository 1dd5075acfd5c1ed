package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron"
	config "github.com/socialqueue/pipeline/configs"
	"github.com/socialqueue/pipeline/internal/api/handlers"
	"github.com/socialqueue/pipeline/internal/api/middleware"
	job "github.com/socialqueue/pipeline/internal/jobs"
	"github.com/socialqueue/pipeline/internal/queue"
	"github.com/socialqueue/pipeline/internal/repository"
	"github.com/socialqueue/pipeline/internal/service"
	"github.com/socialqueue/pipeline/pkg/ratelimit"
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

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)

	r2Service, err := service.NewR2Service(*cfg)
	if err != nil {
		log.Fatalf("Failed to set up media storage: %v", err)
	}

	notionLimiter := ratelimit.NewAPILimiter(cfg.NotionRatePerSec)
	publishLimiter := ratelimit.NewDailyLimiter(cfg.PublishDailyLimit)

	enqueuer := queue.NewEnqueuer(client)
	notionService := service.NewNotionService(*cfg)
	instagramService := service.NewInstagramService(*cfg)
	youtubeService := service.NewYoutubeService(postRepo, notionService, r2Service, cfg.SecretKey)

	enumeratorService := service.NewEnumeratorService(userRepo, enqueuer)
	reconcileService := service.NewReconcileService(userRepo, socialAccountRepo, postRepo, notionService, notionLimiter, enqueuer)
	contentService := service.NewContentService(postRepo, userRepo, notionService, enqueuer)
	mediaService := service.NewMediaService(postRepo, r2Service, enqueuer, time.Duration(cfg.SignedURLTTLSecs)*time.Second)
	publishService := service.NewPublishService(postRepo, instagramService, youtubeService, r2Service, enqueuer, cfg.SecretKey)
	pollService := service.NewPollService(postRepo, instagramService, notionService, r2Service, publishLimiter, cfg.SecretKey)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Minute,
		WriteTimeout: time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Use(logger.New())

	pushAuth := middleware.NewPushAuthMiddleware(*cfg)
	push := handlers.NewPushHandler(reconcileService, contentService, mediaService, publishService, pollService)

	stages := app.Group("/push")
	stages.Use(pushAuth.PushAuth())
	stages.Post("/reconcile", push.ReconcileUser)
	stages.Post("/extract", push.ExtractContent)
	stages.Post("/stage", push.StageMedia)
	stages.Post("/publish", push.PublishPost)
	stages.Post("/poll", push.PollContainer)

	// cron jobs
	enumerateJob := job.NewEnumerateUsersJob(enumeratorService)
	pollSweepJob := job.NewPollContainersJob(postRepo, userRepo, enqueuer)

	c := cron.New()
	c.AddFunc("@every 00h05m00s", enumerateJob.Run)
	c.AddFunc("@every 00h01m00s", pollSweepJob.Run)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		worker := queue.NewWorker(reconcileService, contentService, mediaService, publishService, pollService)

		log.Println("Starting the Asynq server...")
		if err := server.Run(worker.Mux()); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on http://localhost:%s", cfg.Port)

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
