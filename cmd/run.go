package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Kiranreddymk90/ai-job-application-agent/internal/logger"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/matching"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/orchestrator"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/platform"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/platform/httpboard"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/profile"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/qa"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/qa/gemini"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/secrets"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/tracker"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/tracker/sqlite"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"

	defaultMatchThreshold = 0.5
	defaultTrackerPath    = "./applications.db"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the job-agent main command",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before submitting applications")
	runCmd.Flags().Bool("dry-run", false, "match, detect and generate but never submit or record")
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A .env file is optional; env bindings resolve either way.
	_ = godotenv.Load()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the job-agent", zap.String("version", version))

	if config == nil {
		logger.Fatal("config is required")
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	applicant, err := analyzeProfile(config)
	if err != nil {
		// A broken profile aborts the whole run, not one platform.
		logger.Fatal("analyzing profile", zap.Error(err))
	}

	logger.Info("profile analyzed",
		zap.String("profile", applicant.ID),
		zap.Int("skills", len(applicant.Skills)),
	)

	creds := secrets.NewSourceStore()
	adapters, err := buildAdapters(config, creds, logger)
	if err != nil {
		logger.Fatal("building platform adapters", zap.Error(err))
	}
	if len(adapters) == 0 {
		logger.Fatal("no platforms configured")
	}

	answerer, err := buildAnswerer(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("building answer generator",
			zap.Error(err),
			zap.String("hint", "set ai.gemini.api-key-file or GEMINI_API_KEY_FILE"),
		)
	}

	trackerPath := defaultTrackerPath
	if config.Tracker != nil && config.Tracker.Path != "" {
		trackerPath = config.Tracker.Path
	}

	store, err := sqlite.Open(ctx, trackerPath)
	if err != nil {
		logger.Fatal("opening tracker store", zap.Error(err))
	}
	defer store.Close()

	threshold := defaultMatchThreshold
	if config.Matching != nil && config.Matching.Threshold > 0 {
		threshold = config.Matching.Threshold
	}

	dryRun := cmd.Flag("dry-run").Value.String() == "true"

	var approve orchestrator.ApproveFunc
	if cmd.Flag("auto-approve").Value.String() == "false" && !dryRun {
		approve = promptApproval
	}

	orch := orchestrator.New(orchestrator.Config{
		Profile:  applicant,
		Matcher:  matching.New(threshold),
		Answerer: answerer,
		Tracker:  tracker.New(store, logger),
		Filters:  config.Search,
		Logger:   logger,
		Approve:  approve,
		DryRun:   dryRun,
	})

	summaries, err := orch.Run(ctx, adapters)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("run failed", zap.Error(err))
	}

	for _, summary := range summaries {
		if summary == nil {
			continue
		}
		logger.Info("platform run complete",
			zap.String("platform", summary.PlatformID),
			zap.Int("discovered", summary.Discovered),
			zap.Int("matched", summary.Matched),
			zap.Int("skipped_duplicates", summary.SkippedDuplicates),
			zap.Int("submitted", summary.Submitted),
			zap.Int("confirmed", summary.Confirmed),
			zap.Int("failed", summary.Failed),
		)
	}
}

// promptApproval asks once per platform before anything is submitted.
func promptApproval(platformID string, matches int) (bool, error) {
	prompt := promptui.Select{
		Label: fmt.Sprintf("Submit applications on %s (%d matched so far)?", platformID, matches),
		Items: []string{PromptYes, PromptNo},
	}

	_, action, err := prompt.Run()
	if err != nil {
		return false, err
	}

	return action == PromptYes, nil
}

func analyzeProfile(config *Config) (*profile.Profile, error) {
	if config.Profile == nil {
		return nil, errors.New("profile section is required")
	}

	raw := config.Profile.Raw
	if file := strings.TrimSpace(config.Profile.ResumeFile); file != "" {
		text, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading resume file: %w", err)
		}
		raw.ResumeText = string(text)
	}

	return profile.Analyze(&raw)
}

func buildAdapters(config *Config, creds *secrets.SourceStore, log *zap.Logger) ([]platform.Adapter, error) {
	adapters := make([]platform.Adapter, 0, len(config.Platforms))

	for _, pc := range config.Platforms {
		if pc.ID == "" {
			return nil, errors.New("every platform needs an id")
		}

		creds.Register(pc.ID, secrets.Source{
			Name: pc.ID + " token",
			File: pc.TokenFile,
			Env:  pc.TokenEnv,
		})

		switch strings.ToLower(pc.Kind) {
		case "", "httpboard":
			client := httpboard.New(pc.ID, pc.BaseURL, creds, log)
			if pc.UserAgent != "" {
				client.UserAgent = pc.UserAgent
			}
			adapters = append(adapters, client)
		default:
			return nil, fmt.Errorf("unsupported platform kind %q for %s", pc.Kind, pc.ID)
		}
	}

	return adapters, nil
}

func buildAnswerer(ctx context.Context, config *AIConfig, log *zap.Logger) (qa.Answerer, error) {
	if config == nil || config.Gemini == nil {
		return nil, errors.New("ai.gemini configuration is required")
	}

	apiKeyFile := strings.TrimSpace(config.Gemini.APIKeyFile)
	if apiKeyFile == "" {
		apiKeyFile = strings.TrimSpace(viper.GetString("ai.gemini.api-key-file"))
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: apiKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, err
	}

	genLogger := log.With(
		zap.String("provider", "gemini"),
		zap.String("model", config.Gemini.Model),
		zap.Int("ai_retry_attempts", config.Gemini.MaxRetries),
	)

	generator, err := gemini.NewGenerator(ctx, apiKey, config.Gemini.Model, config.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	minConfidence := config.Gemini.MinConfidence
	if minConfidence < 0 {
		minConfidence = 0
	}

	return gemini.NewAnswerer(generator, minConfidence, config.Gemini.MaxLogLength, genLogger), nil
}
