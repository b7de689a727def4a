package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spigell/job-hunter/internal/logger"
	"github.com/spigell/job-hunter/internal/optimizer"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Rewrite the resume for one job description with the draft and grade loop",
	Run: func(cmd *cobra.Command, _ []string) {
		optimize(cmd)
	},
}

func init() {
	rootCmd.AddCommand(optimizeCmd)

	optimizeCmd.Flags().StringP("resume-file", "r", "", "plain text resume file. Overrides the config value.")
	optimizeCmd.Flags().StringP("job-file", "f", "", "plain text job description file")
	optimizeCmd.Flags().StringP("output", "o", "", "write the final draft to this file as well")

	optimizeCmd.MarkFlagRequired("job-file")
}

func optimize(cmd *cobra.Command) {
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

	cfg, err := optimizerConfig(config)
	if err != nil {
		logger.Fatal("invalid optimizer configuration", zap.Error(err))
	}

	provider, err := newGenerator(ctx, aiConfig(config), logger)
	if err != nil {
		logger.Fatal("configuring the ai provider", zap.Error(err))
	}

	opt := optimizer.New(provider, cfg, logger, progressLogger(logger))

	draft := opt.Run(ctx, resume, jobDescription)

	if output := cmd.Flag("output").Value.String(); output != "" {
		if err := os.WriteFile(output, []byte(draft), 0o644); err != nil {
			logger.Fatal("writing the final draft", zap.Error(err), zap.String("filename", output))
		}

		logger.Info("final draft written", zap.String("filename", output))
	}

	fmt.Println(draft)
}

func resumeFromCommand(cmd *cobra.Command, config *Config) (string, error) {
	path := strings.TrimSpace(cmd.Flag("resume-file").Value.String())
	if path == "" && config != nil {
		path = strings.TrimSpace(config.ResumeFile)
	}

	if path == "" {
		return "", errors.New("resume file is not configured")
	}

	return readTextFile(path)
}

func jobFromCommand(cmd *cobra.Command) (string, error) {
	path := strings.TrimSpace(cmd.Flag("job-file").Value.String())
	if path == "" {
		return "", errors.New("job description file is required")
	}

	return readTextFile(path)
}

func aiConfig(config *Config) *AIConfig {
	if config == nil {
		return nil
	}

	return config.AI
}
