package domain

// SessionDiff represents the changes between two session snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type SessionDiff struct {
	// Step changed?
	Step *Step `json:"step,omitempty"`

	// Report is present when a new analysis replaced the previous one.
	Report *DamageReport `json:"report,omitempty"`

	// Transcript contains *new* entries appended since the old snapshot.
	// The transcript is append-only within a session; only a reset rewrites
	// it, which is signalled by Cleared instead.
	Transcript *TranscriptDelta `json:"transcript,omitempty"`

	// Result is present when the session produced its outcome.
	Result *ClaimResult `json:"result,omitempty"`

	// Cleared is true when a reset wiped the report, transcript and result.
	// Clients should drop their local copy before applying the rest.
	Cleared bool `json:"cleared,omitempty"`
}

// TranscriptDelta represents appends to the transcript.
type TranscriptDelta struct {
	Appended []Message `json:"appended"`
}

// Diff calculates the difference between two snapshots.
// If old is nil it returns a diff representing the entire new session
// (initial load). It returns nil when nothing observable changed.
func Diff(old, new *Session) *SessionDiff {
	if new == nil {
		return nil
	}

	diff := &SessionDiff{}

	if old == nil || old.Step != new.Step {
		step := new.Step
		diff.Step = &step
	}

	if new.Report != nil && (old == nil || old.Report != new.Report) {
		diff.Report = new.Report
	}
	if new.Result != nil && (old == nil || old.Result != new.Result) {
		diff.Result = new.Result
	}

	diff.Transcript = diffTranscript(old, new)

	// A shrinking transcript or a report/result that went away only happens
	// on reset; tell clients to start over.
	if old != nil {
		wiped := (old.Report != nil && new.Report == nil) ||
			(old.Result != nil && new.Result == nil) ||
			len(new.Transcript) < len(old.Transcript)
		diff.Cleared = wiped
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// diffTranscript assumes append-only behavior within a session.
func diffTranscript(old, new *Session) *TranscriptDelta {
	if len(new.Transcript) == 0 {
		return nil
	}
	if old == nil {
		return &TranscriptDelta{Appended: new.Transcript}
	}

	oldLen := len(old.Transcript)
	if len(new.Transcript) > oldLen {
		return &TranscriptDelta{Appended: new.Transcript[oldLen:]}
	}
	return nil
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SessionDiff) IsEmpty() bool {
	return d.Step == nil &&
		d.Report == nil &&
		d.Transcript == nil &&
		d.Result == nil &&
		!d.Cleared
}
