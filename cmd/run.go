package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/spigell/job-hunter/internal/ai"
	"github.com/spigell/job-hunter/internal/ai/gemini"
	"github.com/spigell/job-hunter/internal/assistant"
	"github.com/spigell/job-hunter/internal/filtering"
	"github.com/spigell/job-hunter/internal/jobsearch"
	"github.com/spigell/job-hunter/internal/logger"
	"github.com/spigell/job-hunter/internal/optimizer"
	"github.com/spigell/job-hunter/internal/secrets"
	"github.com/spigell/job-hunter/internal/triage"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptBack                = "back"
	PromptExit                = "Exit"
	PromptBrowse              = "Browse postings"
	PromptReportByFitLabel    = "Report by fit label"
	PromptPostingsToFile      = "Dump scored postings to file"
	PromptAppendToExcludeFile = "Append all postings to exclude file"
	PromptDeepAnalysis        = "Deep analysis"
	PromptOptimizeResume      = "Optimize resume"
	PromptChat                = "Chat about this posting"
	PromptShowLink            = "Show link"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Proceed?",
	Items: []string{PromptBrowse, PromptReportByFitLabel, PromptPostingsToFile, PromptExit},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the job-hunter main command",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("keep-all-labels", "k", false, "do not drop postings triaged below the minimum fit label")
	runCmd.Flags().StringP("exclude-file", "e", "", "special file with postings to exclude. Default is unset.")

	viper.BindPFlag("exclude-file", runCmd.Flags().Lookup("exclude-file"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the job-hunter", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil {
		logger.Fatal("config is required")
	}

	resume, err := loadResume(config)
	if err != nil {
		logger.Fatal("loading the resume",
			zap.Error(err),
			zap.String("hint", "point the 'resume-file' key in the configuration file at a plain text resume"),
		)
	}

	logger.Info("resume loaded", zap.Int("characters", utf8.RuneCountInString(resume)))

	thresholds, err := triageThresholds(config)
	if err != nil {
		logger.Fatal("invalid triage thresholds", zap.Error(err))
	}

	if _, err := optimizerConfig(config); err != nil {
		logger.Fatal("invalid optimizer configuration", zap.Error(err))
	}

	postings := getPostings(ctx, config, logger)

	if postings.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no postings found"))
		return
	}

	scored := triage.ScoreAll(resume, postings.Items, thresholds)

	logger.Info("triage finished",
		zap.Int("count", scored.Len()),
		zap.Any("by_label", scored.CountByLabel()),
	)

	filtered, err := runFilters(ctx, cmd, config, scored, logger)
	if err != nil {
		logger.Fatal("filtering failed", zap.Error(err))
	}
	scored = filtered

	if scored.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no postings left after filters"))
		return
	}

	session := &runSession{
		ctx:    ctx,
		config: config,
		logger: logger,
		resume: resume,
		scored: scored,
	}

	for {
		logger.Info("current list of postings", zap.Int("count", scored.Len()))

		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := session.handleAction(action); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

// runSession carries the state shared by the interactive prompt handlers. The
// AI generator is created lazily on first use so triage works without a key.
// Chat history lives here per posting id and dies with the session.
type runSession struct {
	ctx         context.Context
	config      *Config
	logger      *zap.Logger
	resume      string
	scored      *triage.ScoredPostings
	generator   ai.Provider
	chatHistory map[string][]ai.Message
}

func (s *runSession) handleAction(action string) error {
	switch action {
	case PromptBrowse:
		return s.browse()
	case PromptReportByFitLabel:
		pretty, _ := json.MarshalIndent(s.scored.ReportByLabel(), "", "  ")
		s.logger.Info(string(pretty), zap.Int("postings count", s.scored.Len()))
		return nil
	case PromptPostingsToFile:
		filename, err := s.scored.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}

		s.logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		s.logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func (s *runSession) browse() error {
	for {
		items := make([]string, 0, s.scored.Len()+2)

		for _, posting := range s.scored.Items {
			label := fmt.Sprintf("%s %s / %s / %d%% / %s",
				posting.ID, posting.Title, posting.Company, posting.OverlapScore, posting.FitLabel,
			)

			items = append(items, label)
		}

		excludeFile := strings.TrimSpace(s.config.ExcludeFile)
		if excludeFile != "" && s.scored.Len() != 0 {
			items = append(items, PromptAppendToExcludeFile)
		}

		postingPrompt := promptui.Select{
			Label: "Choose a posting and press ENTER",
			Items: append(items, PromptBack),
			Size:  10,
		}

		_, selected, err := postingPrompt.Run()
		if err != nil {
			return err
		}

		switch selected {
		case PromptBack:
			return nil
		case PromptAppendToExcludeFile:
			if err := s.appendAllToExcludeFile(excludeFile); err != nil {
				return err
			}
		default:
			postingID := strings.Split(selected, " ")[0]

			posting := s.scored.FindByID(postingID)
			if posting == nil {
				return fmt.Errorf("there is no such posting id %s", postingID)
			}

			if err := s.postingActions(posting); err != nil {
				return err
			}
		}

		if s.scored.Len() == 0 {
			return nil
		}
	}
}

func (s *runSession) appendAllToExcludeFile(excludeFile string) error {
	excluded, err := triage.GetExcludedPostingsFromFile(excludeFile)
	if err != nil {
		// The file appears once something was excluded before.
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}

		excluded = &triage.ExcludedPostings{}
	}

	excluded.Append(s.scored.ToExcluded())

	if err := excluded.ToFile(excludeFile); err != nil {
		return err
	}

	s.logger.Info("appended to exclude file", zap.String("filename", excludeFile))

	s.scored.Exclude(excluded.PostingIDs())

	return nil
}

func (s *runSession) postingActions(posting *triage.ScoredPosting) error {
	actionPrompt := promptui.Select{
		Label: fmt.Sprintf("%s at %s [%s, overlap %d%%]",
			posting.Title, posting.Company, posting.FitLabel, posting.OverlapScore,
		),
		Items: []string{PromptDeepAnalysis, PromptOptimizeResume, PromptChat, PromptShowLink, PromptBack},
	}

	for {
		_, action, err := actionPrompt.Run()
		if err != nil {
			return err
		}

		switch action {
		case PromptBack:
			return nil
		case PromptShowLink:
			link := posting.URL
			if link == "" {
				link = "no link available"
			}

			fmt.Println(link)
		case PromptDeepAnalysis:
			if err := s.analyze(posting); err != nil {
				return err
			}
		case PromptOptimizeResume:
			if err := s.optimize(posting); err != nil {
				return err
			}
		case PromptChat:
			if err := s.chat(posting); err != nil {
				return err
			}
		}
	}
}

func (s *runSession) provider() (ai.Provider, error) {
	if s.generator != nil {
		return s.generator, nil
	}

	generator, err := newGenerator(s.ctx, s.config.AI, s.logger)
	if err != nil {
		return nil, err
	}

	s.generator = generator

	return s.generator, nil
}

func (s *runSession) analyze(posting *triage.ScoredPosting) error {
	provider, err := s.provider()
	if err != nil {
		s.logger.Warn("deep analysis is unavailable", zap.Error(err))
		return nil
	}

	budget := 0
	if s.config.Analysis != nil {
		budget = s.config.Analysis.ContextBudget
	}

	analyzer := assistant.NewAnalyzer(provider, budget, s.logger)

	s.logger.Info("running deep analysis", zap.String(logger.FieldPostingID, posting.ID))

	report := analyzer.Analyze(s.ctx, s.resume, jobText(posting))

	fmt.Printf("\nMatch score: %d/100\n\n%s\n\n", report.Score, report.Analysis)

	return nil
}

func (s *runSession) optimize(posting *triage.ScoredPosting) error {
	provider, err := s.provider()
	if err != nil {
		s.logger.Warn("resume optimization is unavailable", zap.Error(err))
		return nil
	}

	cfg, err := optimizerConfig(s.config)
	if err != nil {
		return err
	}

	opt := optimizer.New(provider, cfg, s.logger, progressLogger(s.logger))

	s.logger.Info("starting resume optimization", zap.String(logger.FieldPostingID, posting.ID))

	draft := opt.Run(s.ctx, s.resume, jobText(posting))

	fmt.Printf("\n%s\n\n", draft)

	filename, err := dumpDraft(draft)
	if err != nil {
		s.logger.Warn("writing the optimized draft to a file failed", zap.Error(err))
		return nil
	}

	s.logger.Info("optimized draft written", zap.String("filename", filename))

	return nil
}

func (s *runSession) chat(posting *triage.ScoredPosting) error {
	provider, err := s.provider()
	if err != nil {
		s.logger.Warn("chat is unavailable", zap.Error(err))
		return nil
	}

	chat := assistant.NewChat(provider, s.resume, posting.Description, chatConfig(s.config), s.logger)

	if s.chatHistory == nil {
		s.chatHistory = make(map[string][]ai.Message)
	}
	history := s.chatHistory[posting.ID]

	for {
		questionPrompt := promptui.Prompt{Label: "You (empty line to go back)"}

		question, err := questionPrompt.Run()
		if err != nil {
			return err
		}

		if strings.TrimSpace(question) == "" {
			return nil
		}

		var reply strings.Builder

		var streamErr error
		for fragment, err := range chat.Stream(s.ctx, question, history) {
			if err != nil {
				streamErr = err
				break
			}

			fmt.Print(fragment)
			reply.WriteString(fragment)
		}

		fmt.Println()

		if streamErr != nil {
			s.logger.Warn("chat reply failed", zap.Error(streamErr))
			continue
		}

		history = append(history, ai.User(question), ai.Assistant(reply.String()))
		s.chatHistory[posting.ID] = history
	}
}

func loadResume(config *Config) (string, error) {
	path := strings.TrimSpace(config.ResumeFile)
	if path == "" {
		return "", errors.New("resume file is not configured")
	}

	return readTextFile(path)
}

// readTextFile reads a whole text file, requiring non-blank content.
func readTextFile(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	content := strings.TrimSpace(string(raw))
	if content == "" {
		return "", fmt.Errorf("file %q has no content", path)
	}

	return content, nil
}

// jobText combines the posting description and title into the job context
// used by the AI actions.
func jobText(posting *triage.ScoredPosting) string {
	return posting.Description + "\n" + posting.Title
}

// getPostings returns postings from the JSearch API, falling back to the
// built-in sample postings when the API is not usable.
func getPostings(ctx context.Context, config *Config, logger *zap.Logger) *jobsearch.Postings {
	apiKey, err := resolveJSearchKey(config)
	if err != nil {
		logger.Warn("falling back to built-in sample postings",
			zap.Error(err),
			zap.String("hint", "set JSEARCH_API_KEY_FILE environment variable or the 'jsearch.api-key-file' key in the configuration file"),
		)

		return jobsearch.SamplePostings()
	}

	client := jobsearch.New(ctx, logger, apiKey)

	if config.UserAgent != "" {
		client.UserAgent = config.UserAgent
	}

	search := config.Search
	if search == nil {
		search = &jobsearch.SearchParams{}
	}

	logger.Info("starting the search", zap.String("query", search.Query()))

	postings, err := client.Search(search)
	if err != nil {
		logger.Warn("falling back to built-in sample postings", zap.Error(err))
		return jobsearch.SamplePostings()
	}

	if postings.Len() == 0 {
		logger.Warn("falling back to built-in sample postings",
			zap.String("reason", "search returned no postings"),
		)

		return jobsearch.SamplePostings()
	}

	logger.Info("getting postings", zap.Int("count", postings.Len()))

	return postings
}

func resolveJSearchKey(config *Config) (string, error) {
	file := ""
	if config.JSearch != nil {
		file = strings.TrimSpace(config.JSearch.APIKeyFile)
	}

	return secrets.Load(secrets.Source{
		Name: "jsearch api key",
		File: file,
		Env:  "JSEARCH_API_KEY",
	})
}

func runFilters(ctx context.Context, cmd *cobra.Command, config *Config, scored *triage.ScoredPostings, logger *zap.Logger) (*triage.ScoredPostings, error) {
	cfg := &filtering.Config{ExcludeFile: strings.TrimSpace(config.ExcludeFile)}
	if config.Filters != nil {
		cfg.MinimumFitLabel = config.Filters.MinimumFitLabel
	}

	steps := []filtering.Filter{
		filtering.NewExcludeFile(),
		filtering.NewFitLabel(),
	}

	if cmd != nil {
		flag := cmd.Flag("keep-all-labels")
		if flag != nil && strings.EqualFold(flag.Value.String(), "true") {
			filtering.DisableByName(steps, "fit_label", "keep-all-labels flag is set")
		}
	}

	filtered, err := filtering.Run(ctx, cfg, filtering.Deps{Logger: logger}, steps, scored)
	if err != nil {
		return nil, err
	}

	for _, status := range filtering.Describe(steps) {
		logger.Debug("filter state",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
			zap.Any("details", status.Details),
		)
	}

	return filtered, nil
}

func newGenerator(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (*gemini.Generator, error) {
	if cfg == nil || cfg.Gemini == nil {
		return nil, errors.New("ai.gemini configuration is required (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	genLogger := logger.With(zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries))

	return gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
}

func triageThresholds(config *Config) (triage.Thresholds, error) {
	thresholds := triage.DefaultThresholds()
	if config != nil && config.Triage != nil {
		thresholds.GoodFit = config.Triage.GoodFitThreshold
		thresholds.Stretch = config.Triage.StretchThreshold
	}

	return thresholds, thresholds.Validate()
}

func optimizerConfig(config *Config) (optimizer.Config, error) {
	cfg := optimizer.DefaultConfig()
	if config != nil && config.Optimizer != nil {
		cfg.QualityGate = config.Optimizer.QualityGate
		cfg.MaxRevisions = config.Optimizer.MaxRevisions
		cfg.ContextBudget = config.Optimizer.ContextBudget
	}

	return cfg, cfg.Validate()
}

func chatConfig(config *Config) assistant.ChatConfig {
	cfg := assistant.DefaultChatConfig()
	if config != nil && config.Chat != nil {
		cfg.ContextBudget = config.Chat.ContextBudget
		cfg.HistoryLimit = config.Chat.HistoryLimit
	}

	return cfg
}

// progressLogger reports optimization progress events to the log.
func progressLogger(log *zap.Logger) optimizer.Progress {
	return func(event optimizer.Event) {
		log.Info("optimization progress",
			zap.String(logger.FieldPhase, string(event.Phase)),
			zap.Int("revision", event.Revision),
			zap.Int("score", event.Score),
		)
	}
}

func dumpDraft(draft string) (string, error) {
	file, err := os.CreateTemp("", "optimized_resume_*.txt")
	if err != nil {
		return "", err
	}
	defer file.Close()

	if _, err := file.WriteString(draft); err != nil {
		return "", err
	}

	return file.Name(), nil
}
