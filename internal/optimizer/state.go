package optimizer

type Phase string

const (
	PhaseDrafting Phase = "drafting"
	PhaseGrading  Phase = "grading"
	PhaseDone     Phase = "done"
)

// State is the shared state of one optimization run. Only the controller
// mutates it; drafter and grader read it and return values.
type State struct {
	OriginalResume string
	JobDescription string
	CurrentDraft   string
	Feedback       string
	Score          int
	RevisionCount  int
}

func NewState(resume, jobDescription string) *State {
	return &State{
		OriginalResume: resume,
		JobDescription: jobDescription,
		CurrentDraft:   resume,
	}
}

// Event reports one controller transition.
type Event struct {
	Phase    Phase
	Revision int
	Score    int
}

// Progress observes controller transitions. Nil is valid and means no
// reporting.
type Progress func(Event)
