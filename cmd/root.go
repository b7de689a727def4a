package cmd

import (
	"errors"
	"log"

	"github.com/spigell/job-hunter/internal/assistant"
	"github.com/spigell/job-hunter/internal/jobsearch"
	"github.com/spigell/job-hunter/internal/optimizer"
	"github.com/spigell/job-hunter/internal/triage"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "job-hunter"
)

type Config struct {
	ResumeFile  string                  `mapstructure:"resume-file"`
	ExcludeFile string                  `mapstructure:"exclude-file"`
	UserAgent   string                  `mapstructure:"user-agent"`
	Search      *jobsearch.SearchParams `mapstructure:"search"`
	JSearch     *JSearchConfig          `mapstructure:"jsearch"`
	Triage      *TriageConfig           `mapstructure:"triage"`
	Filters     *FiltersConfig          `mapstructure:"filters"`
	AI          *AIConfig               `mapstructure:"ai"`
	Optimizer   *OptimizerConfig        `mapstructure:"optimizer"`
	Analysis    *AnalysisConfig         `mapstructure:"analysis"`
	Chat        *ChatConfig             `mapstructure:"chat"`
}

type JSearchConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
}

type TriageConfig struct {
	GoodFitThreshold float64 `mapstructure:"good-fit-threshold"`
	StretchThreshold float64 `mapstructure:"stretch-threshold"`
}

type FiltersConfig struct {
	MinimumFitLabel string `mapstructure:"minimum-fit-label"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	MaxRetries int    `mapstructure:"max-retries"`
}

type OptimizerConfig struct {
	QualityGate   int `mapstructure:"quality-gate"`
	MaxRevisions  int `mapstructure:"max-revisions"`
	ContextBudget int `mapstructure:"context-budget"`
}

type AnalysisConfig struct {
	ContextBudget int `mapstructure:"context-budget"`
}

type ChatConfig struct {
	ContextBudget int `mapstructure:"context-budget"`
	HistoryLimit  int `mapstructure:"history-limit"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "job-hunter is a cli for triaging job postings against your resume and optimizing it with an AI agent",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("jsearch.api-key-file", "JSEARCH_API_KEY_FILE"); err != nil {
		log.Fatalf("binding JSEARCH_API_KEY_FILE environment variable: %v", err)
	}

	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is job-hunter.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

// setDefaults registers fallback values for every tunable knob, so a config
// file only needs to mention what differs.
func setDefaults() {
	thresholds := triage.DefaultThresholds()
	viper.SetDefault("triage.good-fit-threshold", thresholds.GoodFit)
	viper.SetDefault("triage.stretch-threshold", thresholds.Stretch)

	opt := optimizer.DefaultConfig()
	viper.SetDefault("optimizer.quality-gate", opt.QualityGate)
	viper.SetDefault("optimizer.max-revisions", opt.MaxRevisions)
	viper.SetDefault("optimizer.context-budget", opt.ContextBudget)

	chat := assistant.DefaultChatConfig()
	viper.SetDefault("chat.context-budget", chat.ContextBudget)
	viper.SetDefault("chat.history-limit", chat.HistoryLimit)

	viper.SetDefault("analysis.context-budget", 4000)
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("search.pages", 1)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)

		// We can't proceed if the config file parsed with error.
		if err := viper.ReadInConfig(); err != nil {
			log.Fatal(err)
		}

		return
	}

	viper.AddConfigPath(".")
	viper.SetConfigName(app)
	viper.SetConfigType("yaml")

	err := viper.ReadInConfig()
	if err == nil {
		return
	}

	// The run command is useless without a config file. The one-shot commands
	// can work from flags and environment variables alone.
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) && runCmd.CalledAs() == "" {
		return
	}

	log.Fatal(err)
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
