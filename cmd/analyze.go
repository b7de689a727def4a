package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spigell/job-hunter/internal/assistant"
	"github.com/spigell/job-hunter/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the deep AI analysis of the resume against one job description",
	Run: func(cmd *cobra.Command, _ []string) {
		analyze(cmd)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("resume-file", "r", "", "plain text resume file. Overrides the config value.")
	analyzeCmd.Flags().StringP("job-file", "f", "", "plain text job description file")

	analyzeCmd.MarkFlagRequired("job-file")
}

func analyze(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	resume, err := resumeFromCommand(cmd, config)
	if err != nil {
		logger.Fatal("loading the resume",
			zap.Error(err),
			zap.String("hint", "pass --resume-file or set the 'resume-file' key in the configuration file"),
		)
	}

	jobDescription, err := jobFromCommand(cmd)
	if err != nil {
		logger.Fatal("loading the job description", zap.Error(err))
	}

	provider, err := newGenerator(ctx, aiConfig(config), logger)
	if err != nil {
		logger.Fatal("configuring the ai provider", zap.Error(err))
	}

	budget := 0
	if config != nil && config.Analysis != nil {
		budget = config.Analysis.ContextBudget
	}

	report := assistant.NewAnalyzer(provider, budget, logger).Analyze(ctx, resume, jobDescription)

	fmt.Printf("Match score: %d/100\n\n%s\n", report.Score, report.Analysis)
}
