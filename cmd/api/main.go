package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chainguard-dev/clog"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/config"
	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/handlers"
	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/metrics"
	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/rubrics"
	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/services"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load(ctx)
	if err != nil {
		clog.FatalContextf(ctx, "❌ Failed to load configuration: %v", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Server.SlogLevel()})))
	clog.InfoContextf(ctx, "✅ Config loaded successfully (provider=%s)", cfg.LLM.Provider)

	// Load rubric catalog
	catalog, err := rubrics.Load(cfg.Eval.RubricCatalogPath)
	if err != nil {
		clog.FatalContextf(ctx, "❌ Failed to load rubric catalog: %v", err)
	}
	clog.InfoContextf(ctx, "✅ Rubric catalog %s loaded", catalog.Version())

	// Initialize judge
	judge, err := newJudge(ctx, cfg)
	if err != nil {
		clog.FatalContextf(ctx, "❌ Failed to initialize %s judge: %v", cfg.LLM.Provider, err)
	}
	clog.InfoContextf(ctx, "✅ %s judge initialized (model=%s)", judge.Provider(), judge.Model())

	// Initialize services
	evaluator := services.NewEvaluatorService(judge, services.NewPromptBuilder(catalog), cfg.Eval.Concurrency)
	parser := services.NewDocumentParser()

	// Initialize handlers
	uploadHandler := handlers.NewUploadHandler(parser, cfg.Storage.MaxUploadBytes)
	h := handlers.Handlers{
		Evaluate: handlers.NewEvaluationHandler(evaluator, uploadHandler),
		Upload:   uploadHandler,
		Result:   handlers.NewResultHandler(),
		Health:   handlers.NewHealthHandler(judge, catalog.Version()),
	}
	clog.InfoContextf(ctx, "✅ Handlers initialized")

	app := newApp(cfg)
	handlers.Register(app, h)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		clog.InfoContextf(ctx, "🛑 Shutting down server...")
		if err := app.Shutdown(); err != nil {
			clog.ErrorContextf(ctx, "❌ Server forced to shutdown: %v", err)
		}
	}()

	addr := cfg.Server.Addr()
	clog.InfoContextf(ctx, "🚀 Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		clog.FatalContextf(ctx, "❌ Failed to start server: %v", err)
	}
}

func newJudge(ctx context.Context, cfg *config.Config) (services.Judge, error) {
	opts := services.JudgeOptions{
		Model:       cfg.LLM.Model(),
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
		Metrics:     metrics.NewGenAI("experiment-evaluator.judge"),
		BaseURL:     cfg.LLM.BaseURL,
	}
	if cfg.LLM.Provider == config.ProviderClaude {
		return services.NewClaudeJudge(cfg.LLM.AnthropicAPIKey, opts)
	}
	return services.NewGeminiJudge(ctx, cfg.LLM.GeminiAPIKey, opts)
}

func newApp(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Experiment Evaluator API",
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BodyLimit:    int(cfg.Storage.MaxUploadBytes) + 1<<20,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	return app
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
