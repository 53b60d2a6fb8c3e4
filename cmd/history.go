package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Kiranreddymk90/ai-job-application-agent/internal/logger"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/tracker"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/tracker/sqlite"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the application history for the configured profile",
	Run: func(_ *cobra.Command, _ []string) {
		history()
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func history() {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil || config.Profile == nil || config.Profile.Raw.ID == "" {
		logger.Fatal("profile.id is required")
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

	records, err := tracker.New(store, logger).History(ctx, config.Profile.Raw.ID)
	if err != nil {
		logger.Fatal("loading history", zap.Error(err))
	}

	if len(records) == 0 {
		fmt.Println("no applications recorded")
		return
	}

	for _, record := range records {
		line := fmt.Sprintf("%s  %-20s  attempt=%d  %-18s  %s @ %s",
			record.UpdatedAt.Format("2006-01-02 15:04"),
			record.Key(),
			record.Attempt,
			record.Status,
			record.JobTitle,
			record.Company,
		)
		if record.FailureReason != "" {
			line += "  (" + record.FailureReason + ")"
		}
		fmt.Println(line)
	}
}
