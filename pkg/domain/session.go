package domain

import "time"

// Step is the externally observable workflow state.
type Step string

const (
	// StepIdle means no claim is in flight; the workflow accepts evidence.
	StepIdle Step = "idle"
	// StepUploading means evidence was accepted and is being staged.
	StepUploading Step = "uploading"
	// StepAnalyzing means the vision collaborator is assessing the evidence.
	StepAnalyzing Step = "analyzing"
	// StepNegotiating means the agents are exchanging protocol messages.
	StepNegotiating Step = "negotiating"
	// StepCompleted means a ClaimResult is available.
	StepCompleted Step = "completed"
)

// Terminal reports whether the step ends a claim's forward progress.
func (s Step) Terminal() bool {
	return s == StepCompleted
}

// Session is a point-in-time snapshot of the single live claim.
// Snapshots are safe to retain: the transcript slice is copied on Clone and
// the report/result pointers reference immutable values.
type Session struct {
	Step Step `json:"step"`

	// Report is set once analysis succeeds and cleared on reset.
	Report *DamageReport `json:"report,omitempty"`

	// Transcript holds every negotiation message in emission order.
	Transcript []Message `json:"transcript"`

	// Result is set when the session completes.
	Result *ClaimResult `json:"result,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession returns an idle session with an empty transcript.
func NewSession() Session {
	return Session{Step: StepIdle, Transcript: []Message{}}
}

// Clone returns a snapshot that later appends to the live transcript
// cannot mutate.
func (s Session) Clone() Session {
	out := s
	out.Transcript = make([]Message, len(s.Transcript))
	copy(out.Transcript, s.Transcript)
	return out
}
