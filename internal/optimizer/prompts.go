package optimizer

import (
	"strings"

	_ "embed"

	"github.com/spigell/job-hunter/internal/ai"
)

//go:embed draft_system.md
var draftSystemPrompt string

//go:embed draft_initial.md
var draftInitialPrompt string

//go:embed draft_revision.md
var draftRevisionPrompt string

//go:embed grade.md
var gradePrompt string

func buildInitialDraftPrompt(state *State, budget int) string {
	prompt := strings.ReplaceAll(draftInitialPrompt, "{{RESUME}}", ai.Clip(state.OriginalResume, budget))
	return strings.ReplaceAll(prompt, "{{JOB}}", ai.Clip(state.JobDescription, budget))
}

func buildRevisionDraftPrompt(state *State, budget int) string {
	prompt := strings.ReplaceAll(draftRevisionPrompt, "{{DRAFT}}", ai.Clip(state.CurrentDraft, budget))
	prompt = strings.ReplaceAll(prompt, "{{JOB}}", ai.Clip(state.JobDescription, budget))
	return strings.ReplaceAll(prompt, "{{FEEDBACK}}", state.Feedback)
}

func buildGradePrompt(state *State, budget int) string {
	prompt := strings.ReplaceAll(gradePrompt, "{{RESUME}}", ai.Clip(state.OriginalResume, budget))
	prompt = strings.ReplaceAll(prompt, "{{DRAFT}}", ai.Clip(state.CurrentDraft, budget))
	return strings.ReplaceAll(prompt, "{{JOB}}", ai.Clip(state.JobDescription, budget))
}
