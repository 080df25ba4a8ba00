package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/anthonycoffey/simply-voice/config"
	"github.com/anthonycoffey/simply-voice/database"
	"github.com/anthonycoffey/simply-voice/handlers"
	"github.com/anthonycoffey/simply-voice/middleware"
	"github.com/anthonycoffey/simply-voice/repositories"
	"github.com/anthonycoffey/simply-voice/services"
	"github.com/anthonycoffey/simply-voice/utils/version"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("./config/config.yaml")
	if err != nil {
		panic(err)
	}
	applyEnvOverrides(cfg)

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		panic(err)
	}

	historyRepo := repositories.NewHistoryRepository(db)
	blobStore := services.NewBlobStore(cfg.Storage, cfg.Server.BaseURL)

	ctx := context.Background()
	speech, cleanup, err := buildSpeechService(ctx, cfg)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	janitor := services.NewStorageJanitor(
		blobStore,
		historyRepo,
		time.Duration(cfg.Storage.SweepMinutes)*time.Minute,
		time.Duration(cfg.Storage.RetentionDays)*24*time.Hour,
	)
	janitor.Start(ctx)

	authHandler := handlers.NewAuthHandler(db, cfg.Auth)
	ttsHandler := handlers.NewTTSHandler(speech)
	historyHandler := handlers.NewHistoryHandler(historyRepo, blobStore)
	storageHandler := handlers.NewStorageHandler(blobStore)

	r := gin.Default()

	r.GET("/api/version", func(c *gin.Context) {
		c.String(200, version.PrintVersion())
	})

	api := r.Group("/api")
	{
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		api.GET("/tts/voices", ttsHandler.GetVoices)
		api.POST("/tts/synthesize", ttsHandler.Synthesize)

		authed := api.Group("")
		authed.Use(middleware.AuthRequired(cfg.Auth.JWTSecret))
		{
			authed.GET("/history", historyHandler.List)
			authed.POST("/history", historyHandler.Create)
			authed.DELETE("/history/:id", historyHandler.Delete)

			authed.POST("/storage/upload", storageHandler.Upload)
			authed.POST("/storage/refresh", storageHandler.Refresh)
		}
	}

	// Signed-URL resolution lives outside /api so issued URLs keep the
	// storage-provider shape clients already pattern-match on.
	r.GET("/storage/v1/object/sign/tts-files/*path", storageHandler.ServeObject)

	_ = r.Run(fmt.Sprintf(":%d", cfg.Server.Port))
}

// buildSpeechService picks the synthesis strategy for this deployment:
// hosted vendor by default, local-engine capture when configured.
func buildSpeechService(ctx context.Context, cfg *config.Config) (services.SpeechService, func(), error) {
	switch cfg.TTS.Strategy {
	case "capture":
		var engine services.UtteranceEngine
		if cfg.Engine.Addr != "" {
			engine = services.NewWSEngine(cfg.Engine)
		} else {
			engine = services.NewExecEngine(cfg.Engine)
		}
		log.Printf("speech strategy: capture (%T)", engine)
		return services.NewCaptureService(engine), func() { _ = engine.Close() }, nil
	default:
		svc, err := services.NewGoogleSpeechService(ctx, cfg.Google, cfg.TTS.Locale)
		if err != nil {
			return nil, nil, err
		}
		log.Println("speech strategy: google cloud text-to-speech")
		return svc, func() { _ = svc.Close() }, nil
	}
}

// applyEnvOverrides lets the environment win over config.yaml for the
// values that differ per deployment or are secret.
func applyEnvOverrides(cfg *config.Config) {
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		cfg.Database.Port = v
	}
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.Database.Dbname = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("STORAGE_URL_SECRET"); v != "" {
		cfg.Storage.URLSecret = v
	}
	if v := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); v != "" && cfg.Google.CredentialsFile == "" {
		cfg.Google.CredentialsFile = v
	}
}
