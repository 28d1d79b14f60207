package entities

import "tryon-studio/internal/domain/valueobjects"

type Operation string

const (
	OperationNone  Operation = ""
	OperationTryOn Operation = "tryon"
	OperationEdit  Operation = "edit"
)

// SessionState is a point-in-time copy of a try-on session. Image values are
// shared with the controller but never mutated after creation.
type SessionState struct {
	SessionID       string
	Version         uint64
	UserPhoto       *valueobjects.ImageData
	GarmentPhoto    *valueobjects.ImageData
	Result          *valueobjects.ImageData
	ResultResponse  string
	Mode            valueobjects.WorkflowMode
	Busy            bool
	Pending         Operation
	Error           string
	EditInstruction string
}

func NewSessionState(sessionID string) SessionState {
	return SessionState{
		SessionID: sessionID,
		Mode:      valueobjects.ModeTryOn,
	}
}

// Phase derives the workflow position from the fields.
func (s SessionState) Phase() valueobjects.Phase {
	switch {
	case s.Busy && s.Pending == OperationEdit:
		return valueobjects.PhaseEditing
	case s.Busy:
		return valueobjects.PhaseGenerating
	case s.Result != nil:
		return valueobjects.PhaseResultReady
	case s.UserPhoto != nil && s.GarmentPhoto != nil:
		return valueobjects.PhaseReadyToGenerate
	case s.UserPhoto != nil || s.GarmentPhoto != nil:
		return valueobjects.PhaseAwaitingBothUploads
	default:
		return valueobjects.PhaseIdle
	}
}

func (s SessionState) HasBothPhotos() bool {
	return s.UserPhoto != nil && s.GarmentPhoto != nil
}

func (s SessionState) CanGenerate() bool {
	return !s.Busy && s.HasBothPhotos()
}

// CanEnterEdit reports whether edit mode is reachable.
func (s SessionState) CanEnterEdit() bool {
	return !s.Busy && s.Result != nil
}
