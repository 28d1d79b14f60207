package valueobjects

import "fmt"

// WorkflowMode selects which action the result pane offers.
type WorkflowMode string

const (
	ModeTryOn WorkflowMode = "tryon"
	ModeEdit  WorkflowMode = "edit"
)

func ParseWorkflowMode(s string) (WorkflowMode, error) {
	switch WorkflowMode(s) {
	case ModeTryOn, ModeEdit:
		return WorkflowMode(s), nil
	default:
		return "", fmt.Errorf("unknown workflow mode %q", s)
	}
}

// Phase is the workflow position derived from session state.
type Phase string

const (
	PhaseIdle                Phase = "idle"
	PhaseAwaitingBothUploads Phase = "awaiting_both_uploads"
	PhaseReadyToGenerate     Phase = "ready_to_generate"
	PhaseGenerating          Phase = "generating"
	PhaseResultReady         Phase = "result_ready"
	PhaseEditing             Phase = "editing"
)
