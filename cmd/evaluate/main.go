// Command evaluate scores an experiment brief from the command line.
//
//	evaluate [-out DIR | -save] [-format json|html] [-no-color] BRIEF
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/config"
	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/metrics"
	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/rubrics"
	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/services"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// loadConfig is a test seam for configuration.
var loadConfig = config.Load

// newJudge is a test seam for the judge backend.
var newJudge = func(ctx context.Context, cfg *config.Config) (services.Judge, error) {
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

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("evaluate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	outDir := fs.String("out", "", "Directory to write the export to (default: no export)")
	save := fs.Bool("save", false, "Write the export to EXPORT_DIR")
	formatFlag := fs.String("format", "json", "Export format: json or html")
	noColor := fs.Bool("no-color", false, "Disable colored output")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: evaluate [-out DIR | -save] [-format json|html] [-no-color] BRIEF")
		return exitUsage
	}
	format, err := services.ParseExportFormat(*formatFlag)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid format: %v\n", err)
		return exitUsage
	}

	path := fs.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to read brief: %v\n", err)
		return exitError
	}
	text, err := services.NewDocumentParser().Parse(path, data)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to extract text: %v\n", err)
		return exitError
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return exitError
	}
	catalog, err := rubrics.Load(cfg.Eval.RubricCatalogPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load rubric catalog: %v\n", err)
		return exitError
	}
	judge, err := newJudge(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to initialize judge: %v\n", err)
		return exitError
	}

	evaluator := services.NewEvaluatorService(judge, services.NewPromptBuilder(catalog), cfg.Eval.Concurrency)
	report := evaluator.Evaluate(ctx, services.SegmentSections(text))

	renderReport(stdout, report, *noColor)

	dir := *outDir
	if dir == "" && *save {
		dir = cfg.Storage.ExportPath
	}
	if dir != "" {
		saved, err := services.NewStorageService(dir).SaveReport(report, format)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to write export: %v\n", err)
			return exitError
		}
		fmt.Fprintf(stdout, "Report written to %s\n", saved)
	}
	return exitOK
}
