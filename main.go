package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"report-submit-pipeline/auth"
	"report-submit-pipeline/config"
	"report-submit-pipeline/database"
	"report-submit-pipeline/gemini"
	"report-submit-pipeline/handlers"
	"report-submit-pipeline/llm"
	"report-submit-pipeline/metrics"
	"report-submit-pipeline/rabbitmq"
	"report-submit-pipeline/service"
	"report-submit-pipeline/storage"
	"report-submit-pipeline/stubllm"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	// Initialize database
	db, err := database.NewDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.CreateIssuesTable(); err != nil {
		log.Fatalf("Failed to create issues table: %v", err)
	}

	// Initialize object storage
	store, err := storage.NewMinIOStore(
		cfg.StorageEndpoint,
		cfg.StoragePublicEndpoint,
		cfg.StorageAccessKey,
		cfg.StorageSecretKey,
		cfg.StorageBucket,
		cfg.StorageUseSSL,
	)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}
	uploader := storage.NewUploader(store)

	// Initialize the vision model client
	var llmClient llm.Client
	switch cfg.LLMProvider {
	case "stub":
		llmClient = stubllm.NewClient()
	default:
		llmClient = gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.AnalysisPrompt)
	}
	log.Infof("Using %s for image analysis", llmClient.SourceName())

	// RabbitMQ is optional; submissions still succeed without a broker.
	var publisher service.Publisher
	rmq, err := rabbitmq.NewPublisher(cfg.GetAMQPURL(), cfg.RabbitMQExchange, cfg.RabbitMQRoutingKey)
	if err != nil {
		log.Warnf("RabbitMQ unavailable, submitted reports will not be forwarded: %v", err)
	} else {
		defer rmq.Close()
		publisher = rmq
	}

	metrics.Register()

	verifier := auth.NewJWTVerifier(cfg.JWTSecret)
	submitter := service.NewSubmitter(verifier, db, uploader, publisher)
	analyzer := service.NewAnalyzer(llmClient)

	h := handlers.NewHandlers(analyzer, submitter, verifier, db, uploader)

	// Setup HTTP server
	router := gin.Default()

	// API routes
	api := router.Group("/api/v3")
	{
		api.GET("/health", h.HealthCheck)
		api.POST("/reports/analyze", h.AnalyzeReport)
		api.POST("/reports", h.SubmitReport)
		api.GET("/reports", h.ListReports)
		api.DELETE("/reports/:id", h.DeleteReport)
	}
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Infof("Starting HTTP server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
