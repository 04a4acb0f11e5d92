package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq" // PostgreSQL driver

	linkstash "github.com/linkstash/linkstash"
	"github.com/linkstash/linkstash/api"
	"github.com/linkstash/linkstash/db"
	"github.com/linkstash/linkstash/gemini"
	"github.com/linkstash/linkstash/metrics"
	"github.com/linkstash/linkstash/storage"
)

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	// Setup structured logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file loaded, relying on process environment")
	}

	logger.Info("linkstash service initializing", "version", "1.0.0")

	// Default values
	defaultPort := getEnv("PORT", "8080")
	defaultStoragePath := getEnv("STORAGE_BASE_PATH", "./storage")
	defaultGeminiBaseURL := getEnv("GEMINI_BASE_URL", gemini.DefaultBaseURL)
	defaultGeminiModel := getEnv("GEMINI_MODEL", gemini.DefaultModel)
	defaultTagLanguage := getEnv("TAG_LANGUAGE", "English")

	// Command-line flags (override environment variables)
	port := flag.String("port", defaultPort, "Server port")
	geminiBaseURL := flag.String("gemini-base-url", defaultGeminiBaseURL, "Gemini API base URL")
	geminiModel := flag.String("gemini-model", defaultGeminiModel, "Gemini model for summarization and moderation")
	tagLanguage := flag.String("tag-language", defaultTagLanguage, "Language the model writes summaries and tags in")
	storagePath := flag.String("storage-path", defaultStoragePath, "Base path for archived page HTML")
	disableCORS := flag.Bool("disable-cors", false, "Disable CORS")
	disableArchive := flag.Bool("disable-archive", false, "Disable page HTML archiving")
	flag.Parse()

	// PostgreSQL database configuration (required)
	dbHost := getEnv("DB_HOST", "")
	if dbHost == "" {
		logger.Error("DB_HOST environment variable is required")
		os.Exit(1)
	}

	dbPort := getEnv("DB_PORT", "5432")
	dbUser := getEnv("DB_USER", "linkstash")
	dbPassword := getEnv("DB_PASSWORD", "linkstash_dev_pass")
	dbName := getEnv("DB_NAME", "linkstash")

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}

	geminiKey := getEnv("GEMINI_API_KEY", "")
	if geminiKey == "" {
		logger.Warn("GEMINI_API_KEY not set, saves will store placeholder summaries")
	}

	database, err := db.New(db.Config{
		DSN: fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", dbHost, dbPort, dbUser, dbPassword, dbName),
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	logger.Info("using PostgreSQL database", "host", dbHost, "port", dbPort, "database", dbName)

	var archiver linkstash.Archiver
	var archiveReader api.ArchiveReader
	if !*disableArchive {
		a, err := storage.New(storage.Config{BasePath: *storagePath})
		if err != nil {
			logger.Error("failed to initialize archive storage", "error", err)
			os.Exit(1)
		}
		archiver = a
		archiveReader = a
	}

	ai := gemini.NewClient(gemini.Config{
		APIKey:      geminiKey,
		BaseURL:     *geminiBaseURL,
		Model:       *geminiModel,
		TagLanguage: *tagLanguage,
	})

	pipeline := linkstash.NewPipeline(
		linkstash.NewFetcher(linkstash.FetchTimeout),
		linkstash.NewExtractor(),
		ai,
		database,
		database,
		archiver,
	)

	server := api.NewServer(api.Config{
		Addr:        ":" + *port,
		JWTSecret:   jwtSecret,
		TokenTTL:    24 * time.Hour,
		CORSEnabled: !*disableCORS,
	}, database, pipeline, archiveReader)

	// Initialize database metrics
	dbMetrics := metrics.NewDatabaseMetrics("linkstash")
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			dbMetrics.UpdateDBStats(database.DB())
		}
	}()
	logger.Info("database metrics initialized")

	// Start server in a goroutine
	go func() {
		logger.Info("linkstash service starting",
			"port", *port,
			"database_host", dbHost,
			"database_name", dbName,
			"storage_path", *storagePath,
			"gemini_model", *geminiModel,
			"tag_language", *tagLanguage,
			"archive_enabled", !*disableArchive,
		)

		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	logger.Info("shutting down gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
