// Interview Prep - voice mock interview server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Sujithrt/interview-prep/internal/api"
	"github.com/Sujithrt/interview-prep/internal/config"
	"github.com/Sujithrt/interview-prep/internal/conversation"
	"github.com/Sujithrt/interview-prep/internal/health"
	"github.com/Sujithrt/interview-prep/internal/interview"
	"github.com/Sujithrt/interview-prep/internal/metrics"
	"github.com/Sujithrt/interview-prep/internal/middleware"
	"github.com/Sujithrt/interview-prep/internal/objectstore"
	"github.com/Sujithrt/interview-prep/internal/prompts"
	"github.com/Sujithrt/interview-prep/internal/recognition"
	"github.com/Sujithrt/interview-prep/internal/speech"
	"github.com/Sujithrt/interview-prep/internal/store"
	"github.com/Sujithrt/interview-prep/internal/transcode"
	"github.com/Sujithrt/interview-prep/internal/transport"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(),
		"model_provider", cfg.Model.Provider, "model", cfg.Model.Name)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.Archive.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(ctx); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected", "path", cfg.Archive.DBPath)

	awsCfg, err := loadAWSConfig(ctx, cfg.AWS)
	if err != nil {
		slog.Error("Failed to load AWS configuration", "error", err)
		os.Exit(1)
	}

	model, err := newModel(ctx, cfg.Model)
	if err != nil {
		slog.Error("Failed to initialize conversation model", "error", err)
		os.Exit(1)
	}

	promptSet, err := prompts.Load(cfg.PromptsFile)
	if err != nil {
		slog.Error("Failed to load prompts", "error", err)
		os.Exit(1)
	}

	m := metrics.New()

	objects := objectstore.New(s3.NewFromConfig(awsCfg), cfg.AWS.Bucket, logger)
	recognizer := recognition.New(transcribe.NewFromConfig(awsCfg), objects, recognition.Config{
		LanguageCode:    cfg.Recognition.LanguageCode,
		JobNamePrefix:   cfg.Recognition.JobNamePrefix,
		PollInterval:    cfg.Recognition.PollInterval,
		Timeout:         cfg.Recognition.Timeout,
		MaxStatusErrors: cfg.Recognition.MaxStatusErrors,
	}, logger)
	synthesizer := speech.New(polly.NewFromConfig(awsCfg), cfg.Synthesis.Engine, cfg.Synthesis.Voices, logger)

	coordinator, err := interview.NewCoordinator(interview.Deps{
		Transcoder:   transcode.New(cfg.Transcode.FFmpegPath, cfg.Transcode.WorkDir, logger),
		Recognizer:   recognizer,
		Conversation: conversation.NewEngine(model, logger),
		Synthesizer:  synthesizer,
		Prompts:      promptSet,
		Archive:      repo,
		Metrics:      m,
		Logger:       logger,
	})
	if err != nil {
		slog.Error("Failed to initialize interview coordinator", "error", err)
		os.Exit(1)
	}
	slog.Info("Interview pipeline initialized", "bucket", cfg.AWS.Bucket, "synthesizer", synthesizer.String())

	// Initialize handlers.
	sm := transport.NewSessionManager()
	wsHandler := transport.NewWebSocketHandler(coordinator, sm, cfg.FrontendOrigin, cfg.IsDevelopment(), cfg.MaxAudioBytes)
	wsHandler.SetMetrics(m)
	healthHandler := api.NewHealthHandler(repo, sm)
	interviewHandler := api.NewInterviewHandler(repo)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	healthHandler.RegisterReady(r)
	r.Handle("/metrics", m.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.CORS(cfg.FrontendOrigin))
		interviewHandler.RegisterRoutes(r)
	})

	// WebSocket endpoint.
	r.Get("/ws/interview", wsHandler.ServeHTTP)

	// Note: websocket connections are hijacked, so no WriteTimeout applies to them.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	store.StartRetentionWorker(ctx, repo, cfg.Archive.Retention, m.RecordPruned)

	// The gRPC health server outlives the signal so probes can see NOT_SERVING while draining.
	healthCtx, stopHealth := context.WithCancel(context.Background())
	defer stopHealth()

	var grpcHealth *health.Server
	if cfg.GRPCHealthAddr != "" {
		grpcHealth = health.New()
		if err := grpcHealth.Start(healthCtx, cfg.GRPCHealthAddr); err != nil {
			slog.Error("Failed to start gRPC health server", "error", err)
			os.Exit(1)
		}
	}

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")
	if grpcHealth != nil {
		grpcHealth.SetNotServing()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	if err := wsHandler.Drain(shutdownCtx); err != nil {
		slog.Warn("In-flight interview events abandoned", "error", err)
	}

	slog.Info("Server stopped successfully")
}

// loadAWSConfig builds the SDK config shared by the S3, Transcribe and Polly clients.
func loadAWSConfig(ctx context.Context, c config.AWSConfig) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(c.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, ""),
		),
		awsconfig.WithHTTPClient(&http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}),
	)
}

func newModel(ctx context.Context, c config.ModelConfig) (conversation.Model, error) {
	switch c.Provider {
	case config.ProviderGemini:
		return conversation.NewGeminiModel(ctx, c.GeminiKey, c.Name)
	default:
		return conversation.NewOpenAIModel(c.OpenAIKey, c.Name, c.OpenAIBaseURL, c.Timeout), nil
	}
}
