package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/Conceptual-Machines/magda-edit/internal/api"
	"github.com/Conceptual-Machines/magda-edit/internal/api/handlers"
	"github.com/Conceptual-Machines/magda-edit/internal/audio"
	"github.com/Conceptual-Machines/magda-edit/internal/command"
	"github.com/Conceptual-Machines/magda-edit/internal/config"
	"github.com/Conceptual-Machines/magda-edit/internal/extraction"
	"github.com/Conceptual-Machines/magda-edit/internal/llm"
	"github.com/Conceptual-Machines/magda-edit/internal/metrics"
	"github.com/Conceptual-Machines/magda-edit/internal/models"
	"github.com/Conceptual-Machines/magda-edit/internal/observability"
	"github.com/Conceptual-Machines/magda-edit/internal/pipeline"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	sentryFlushTimeout = 2 * time.Second
)

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

// GetVersion returns the current release version
func GetVersion() string {
	return releaseVersion
}

// app holds everything built from the configuration
type app struct {
	cfg       *config.Config
	pipeline  *pipeline.Pipeline
	extractor *extraction.Extractor
	recorder  *metrics.Recorder
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "magda-edit",
		Short:         "Natural-language audio editing service",
		Version:       GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
	root.AddCommand(serveCmd(), processCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func processCmd() *cobra.Command {
	var (
		input    string
		duration float64
		dryRun   bool
	)
	cmd := &cobra.Command{
		Use:   "process [instruction]",
		Short: "Apply one instruction to a file and print the result as JSON",
		Example: `  magda-edit process --input song.wav "cut the first 30 seconds"
  magda-edit process --dry-run "fade in over 3 seconds"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" && !dryRun {
				return fmt.Errorf("--input is required unless --dry-run is set")
			}
			a, cleanup, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			text := strings.Join(args, " ")
			actx := &command.AudioContext{Duration: duration}

			var res *pipeline.Result
			if dryRun {
				res = a.pipeline.Parse(cmd.Context(), text, actx)
			} else {
				res = a.pipeline.Process(cmd.Context(), text, input, actx)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(models.NewProcessingResponse(res)); err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			if !res.Success {
				return fmt.Errorf("%s", res.Message)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "audio file to edit")
	cmd.Flags().Float64Var(&duration, "duration", 0, "known duration in seconds (probed when omitted)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and validate without editing")
	return cmd
}

func runServe(ctx context.Context) error {
	a, cleanup, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	var ext handlers.ExtractionStatus
	if a.extractor != nil {
		ext = a.extractor
	}
	router := api.SetupRouter(a.cfg, a.pipeline, ext, a.recorder, GetVersion())

	log.Printf("🚀 Starting server on port %s", a.cfg.Port)
	if err := router.Run(":" + a.cfg.Port); err != nil {
		sentry.CaptureException(err)
		return fmt.Errorf("start server: %w", err)
	}
	return nil
}

// newApp loads configuration and builds the pipeline with its collaborators
func newApp(ctx context.Context) (*app, func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	sentryEnabled := initSentry(cfg)
	lf := observability.InitializeLangfuse(ctx, cfg)

	recorder := metrics.NewRecorder(
		metrics.NewClient(ctx, cfg.Environment, cfg.CloudWatchEnabled),
		metrics.NewSentryMetrics(sentryEnabled),
	)

	editor := audio.NewFFmpegEditor(cfg.FFmpegPath, cfg.FFprobePath, audio.WithOutputDir(cfg.OutputDir))

	deps := pipeline.Deps{
		Editor:   editor,
		Locks:    audio.NewAssetLocks(),
		Metadata: audio.NewMetadataService(editor, cfg.MetadataCacheTTL),
		Metrics:  recorder,
	}

	a := &app{cfg: cfg, recorder: recorder}
	if cfg.ExtractionEnabled() {
		provider, err := llm.NewProviderFactory(cfg.OpenAIAPIKey, cfg.GeminiAPIKey).GetProvider(ctx, cfg.LLMModel, cfg.LLMProvider)
		if err != nil {
			log.Printf("⚠️  Structured extraction disabled: %v", err)
		} else {
			a.extractor = extraction.New(provider, extraction.Options{
				Model:            cfg.LLMModel,
				Temperature:      cfg.LLMTemperature,
				ReasoningMode:    cfg.ReasoningMode,
				FailureThreshold: cfg.BreakerFailureThreshold,
				OpenTimeout:      cfg.BreakerOpenTimeout,
				Usage:            recorder,
			})
			deps.Extractor = a.extractor
		}
	} else {
		log.Println("⚠️  Structured extraction disabled (LLM_PROVIDER=none)")
	}

	a.pipeline = pipeline.New(deps)

	cleanup := func() {
		recorder.Wait()
		lf.Flush()
		if sentryEnabled {
			sentry.Flush(sentryFlushTimeout)
		}
	}
	return a, cleanup, nil
}

func initSentry(cfg *config.Config) bool {
	if cfg.SentryDSN == "" {
		log.Println("⚠️  Sentry not configured (SENTRY_DSN not set)")
		return false
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		Release:          "magda-edit@" + releaseVersion,
		EnableTracing:    true,
		TracesSampleRate: 1.0,
		EnableLogs:       true,
		Debug:            !cfg.IsProduction(),
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			if event.Request != nil {
				event.Request.Headers = filterSensitiveHeaders(event.Request.Headers)
			}
			return event
		},
	}); err != nil {
		log.Printf("Failed to initialize Sentry: %v", err)
		return false
	}

	log.Printf("✅ Sentry initialized (environment: %s, release: %s)", cfg.Environment, releaseVersion)
	return true
}

func filterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string)
	sensitiveKeys := map[string]bool{
		"authorization": true,
		"cookie":        true,
		"x-api-key":     true,
	}

	for k, v := range headers {
		if sensitiveKeys[strings.ToLower(k)] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}
