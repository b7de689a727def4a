package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spigell/job-hunter/internal/assistant"
	"github.com/spigell/job-hunter/internal/jobsearch"
	"github.com/spigell/job-hunter/internal/optimizer"
	"github.com/spigell/job-hunter/internal/triage"
)

func TestTriageThresholds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  *Config
		want    triage.Thresholds
		wantErr bool
	}{
		{
			name:   "defaults without a triage section",
			config: &Config{},
			want:   triage.DefaultThresholds(),
		},
		{
			name: "values from the config",
			config: &Config{Triage: &TriageConfig{
				GoodFitThreshold: 0.5,
				StretchThreshold: 0.2,
			}},
			want: triage.Thresholds{GoodFit: 0.5, Stretch: 0.2},
		},
		{
			name: "inverted thresholds are rejected",
			config: &Config{Triage: &TriageConfig{
				GoodFitThreshold: 0.1,
				StretchThreshold: 0.2,
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := triageThresholds(tt.config)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got != tt.want {
				t.Fatalf("thresholds = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestOptimizerConfig(t *testing.T) {
	t.Parallel()

	cfg, err := optimizerConfig(&Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg != optimizer.DefaultConfig() {
		t.Fatalf("config = %+v, want defaults", cfg)
	}

	cfg, err = optimizerConfig(&Config{Optimizer: &OptimizerConfig{
		QualityGate:   9,
		MaxRevisions:  4,
		ContextBudget: 500,
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.QualityGate != 9 || cfg.MaxRevisions != 4 || cfg.ContextBudget != 500 {
		t.Fatalf("config = %+v, want the configured values", cfg)
	}

	if _, err := optimizerConfig(&Config{Optimizer: &OptimizerConfig{
		QualityGate:   11,
		MaxRevisions:  2,
		ContextBudget: 500,
	}}); err == nil {
		t.Fatal("expected an error for a quality gate above 10")
	}
}

func TestChatConfigMapping(t *testing.T) {
	t.Parallel()

	if got := chatConfig(&Config{}); got != assistant.DefaultChatConfig() {
		t.Fatalf("config = %+v, want defaults", got)
	}

	got := chatConfig(&Config{Chat: &ChatConfig{ContextBudget: 700, HistoryLimit: 5}})
	if got.ContextBudget != 700 || got.HistoryLimit != 5 {
		t.Fatalf("config = %+v, want the configured values", got)
	}
}

func TestJobText(t *testing.T) {
	t.Parallel()

	posting := &triage.ScoredPosting{Posting: &jobsearch.Posting{
		Title:       "Site Reliability Engineer",
		Description: "Keep the lights on.",
	}}

	want := "Keep the lights on.\nSite Reliability Engineer"
	if got := jobText(posting); got != want {
		t.Fatalf("jobText = %q, want %q", got, want)
	}
}

func TestLoadResume(t *testing.T) {
	t.Parallel()

	if _, err := loadResume(&Config{}); err == nil {
		t.Fatal("expected an error without a configured resume file")
	}

	dir := t.TempDir()

	blank := filepath.Join(dir, "blank.txt")
	if err := os.WriteFile(blank, []byte("  \n\t"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := loadResume(&Config{ResumeFile: blank}); err == nil {
		t.Fatal("expected an error for a blank resume file")
	}

	resume := filepath.Join(dir, "resume.txt")
	if err := os.WriteFile(resume, []byte("  Go engineer, 5 years.\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := loadResume(&Config{ResumeFile: resume})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != "Go engineer, 5 years." {
		t.Fatalf("resume = %q, want the trimmed file content", got)
	}
}

func TestResolveJSearchKey(t *testing.T) {
	t.Setenv("JSEARCH_API_KEY", "")

	if _, err := resolveJSearchKey(&Config{}); err == nil {
		t.Fatal("expected an error without any key source")
	}

	t.Setenv("JSEARCH_API_KEY", " env-key ")

	got, err := resolveJSearchKey(&Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != "env-key" {
		t.Fatalf("key = %q, want %q", got, "env-key")
	}

	keyFile := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(keyFile, []byte("file-key\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err = resolveJSearchKey(&Config{JSearch: &JSearchConfig{APIKeyFile: keyFile}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != "file-key" {
		t.Fatalf("key = %q, want the file to win over the environment", got)
	}
}
