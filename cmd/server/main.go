package main

import (
	"context"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"

	"github.com/JBRUL255/funny-video-generator/config"
	"github.com/JBRUL255/funny-video-generator/handlers"
	"github.com/JBRUL255/funny-video-generator/internal/content"
	"github.com/JBRUL255/funny-video-generator/internal/pipeline"
	"github.com/JBRUL255/funny-video-generator/internal/queue"
	"github.com/JBRUL255/funny-video-generator/internal/render"
	"github.com/JBRUL255/funny-video-generator/internal/store"
	"github.com/JBRUL255/funny-video-generator/internal/upload"
	"github.com/JBRUL255/funny-video-generator/internal/worker"
	"github.com/JBRUL255/funny-video-generator/middleware"
)

func main() {
	_ = godotenv.Load()
	config.InitLogger()
	log := config.Log

	cfg := config.Load()

	for _, dir := range []string{cfg.OutputDir, cfg.ClipsDir, cfg.MusicDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.WithFields(map[string]interface{}{"dir": dir, "error": err}).Fatal("could not create directory")
		}
	}

	if !cfg.HasProviderCredentials() {
		log.Warn("missing PEXELS_API_KEY or OPENAI_API_KEY: generation will fail, listing and health stay available")
	}

	jobStore := store.NewMemoryStore(cfg.OutputDir, log)
	if cfg.HasUploader() {
		recorder, err := store.NewRemoteRecorder(cfg.SupabaseURL, cfg.SupabaseKey)
		if err != nil {
			log.WithField("error", err).Warn("remote artifact recorder unavailable")
		} else {
			jobStore.WithRemoteRecorder(recorder)
		}
	}

	provider := content.NewHTTPProvider(content.Options{
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIModel:   cfg.OpenAIModel,
		PexelsAPIKey:  cfg.PexelsAPIKey,
		PixabayAPIKey: cfg.PixabayAPIKey,
		TTSCommand:    cfg.TTSCommand,
	}, log)
	downloader := content.NewAssetDownloader(cfg.DownloadAttempts, log)
	renderer := render.NewFFmpegRenderer(cfg.ClipsDir, log)

	var uploader pipeline.Uploader
	if cfg.HasUploader() {
		uploader = upload.NewSupabaseUploader(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseBucket, log)
	} else {
		log.Warn("no upload target configured: videos stay local only")
	}

	pipe := pipeline.New(
		jobStore, provider, downloader, renderer, uploader,
		cfg.DailyLimit, cfg.MaxClips,
		cfg.OutputDir, cfg.ClipsDir, cfg.MusicDir,
		log,
	)

	var scheduler handlers.JobSubmitter
	switch cfg.SchedulerMode {
	case "spawn":
		scheduler = worker.NewSpawnScheduler(jobStore, pipe, log)
		log.Info("scheduler mode: one goroutine per job")
	default:
		var jobQueue queue.Queue
		if cfg.RedisAddr != "" {
			jobQueue = queue.NewRedisQueue(cfg.RedisAddr, cfg.QueueName)
			log.WithField("addr", cfg.RedisAddr).Info("using redis job queue")
		} else {
			jobQueue = queue.NewMemoryQueue(128)
		}
		serial := worker.NewSerialWorker(jobQueue, jobStore, pipe, log)
		go serial.Start(context.Background())
		scheduler = serial
		log.Info("scheduler mode: serial worker")
	}

	h := handlers.NewApplicationHandler(jobStore, scheduler, pipe, log, cfg.OutputDir)

	app := fiber.New()
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	app.Use(middleware.RequestLogger())

	app.Get("/health", h.Health)

	apiV1 := app.Group("/api/v1")
	apiV1.Post("/generate", h.EnqueueJob)
	apiV1.Get("/jobs/:id", h.GetJobStatus)
	apiV1.Get("/jobs/:id/events", h.StreamJobEvents)
	apiV1.Get("/videos", h.ListVideos)
	apiV1.Get("/videos/:name", h.DownloadVideo)

	// Short aliases matching the original endpoints.
	app.Post("/enqueue", h.EnqueueJob)
	app.Get("/job/:id", h.GetJobStatus)
	app.Get("/events/:id", h.StreamJobEvents)
	app.Get("/videos", h.ListVideos)
	app.Get("/download/:name", h.DownloadVideo)

	log.WithField("port", cfg.Port).Info("starting funny-video-generator")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.WithField("error", err).Fatal("server stopped")
	}
}
