package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Kiranreddymk90/ai-job-application-agent/internal/platform"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/profile"
)

const (
	app = "job-agent"
)

type Config struct {
	Profile   *ProfileConfig          `mapstructure:"profile"`
	Matching  *MatchingConfig         `mapstructure:"matching"`
	Platforms []*PlatformConfig       `mapstructure:"platforms"`
	Search    *platform.SearchFilters `mapstructure:"search"`
	Tracker   *TrackerConfig          `mapstructure:"tracker"`
	AI        *AIConfig               `mapstructure:"ai"`
}

type ProfileConfig struct {
	Raw        profile.Raw `mapstructure:",squash"`
	ResumeFile string      `mapstructure:"resume-file"`
}

type MatchingConfig struct {
	Threshold float64 `mapstructure:"threshold"`
}

type PlatformConfig struct {
	ID        string `mapstructure:"id"`
	Kind      string `mapstructure:"kind"`
	BaseURL   string `mapstructure:"base-url"`
	TokenFile string `mapstructure:"token-file"`
	TokenEnv  string `mapstructure:"token-env"`
	UserAgent string `mapstructure:"user-agent"`
}

type TrackerConfig struct {
	Path string `mapstructure:"path"`
}

type AIConfig struct {
	Gemini *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile    string  `mapstructure:"api-key-file"`
	Model         string  `mapstructure:"model"`
	MaxRetries    int     `mapstructure:"max-retries"`
	MinConfidence float64 `mapstructure:"min-confidence"`
	MaxLogLength  int     `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "job-agent discovers matching job postings and applies to them across configured platforms",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is job-agent.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Only run and history need a config file.
	if runCmd.CalledAs() == "" && historyCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
