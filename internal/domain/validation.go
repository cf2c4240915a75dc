package domain

import "time"

// State is a step of the validation state machine.
type State string

const (
	StateIdle             State = "idle"
	StateExtracting       State = "extracting"
	StateHashing          State = "hashing"
	StateCheckingRegistry State = "checking_registry"
	StateCommitting       State = "committing"
	StateRejected         State = "rejected"
	StateDone             State = "done"
	StateErrored          State = "errored"
)

// IsTerminal reports whether no further transition can leave s.
func (s State) IsTerminal() bool {
	return s == StateRejected || s == StateDone || s == StateErrored
}

// Action labels shown next to an outcome.
const (
	ActionValidated = "validated"
	ActionChecked   = "checked"
	ActionFailed    = "failed"
)

// Messages shown to the submitter.
const (
	MessageRecorded  = "Paper successfully validated and recorded on blockchain."
	MessageDuplicate = "Paper has been previously validated. Potential duplicate or plagiarism detected."
	MessageNotFound  = "Paper has not been validated yet."
)

// ValidationOutcome is produced once per run and never persisted here.
type ValidationOutcome struct {
	RunID        string        `json:"run_id"`
	DocumentName string        `json:"document_name"`
	Digest       ContentDigest `json:"digest"`
	IsValid      bool          `json:"is_valid"`
	State        State         `json:"state"`
	Action       string        `json:"action"`
	Message      string        `json:"message"`
	ErrorKind    string        `json:"error_kind,omitempty"`
	Network      string        `json:"network"`
	Timestamp    time.Time     `json:"timestamp"`
	Trail        []State       `json:"trail"`
}

// ValidationReport is the rendered outcome record returned to callers.
type ValidationReport struct {
	File      string `json:"file"`
	Hash      string `json:"hash"`
	IsValid   bool   `json:"is_valid"`
	Message   string `json:"message"`
	Action    string `json:"action"`
	Timestamp string `json:"validation_time"`
	Network   string `json:"blockchain"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// Report renders the outcome for presentation.
func (o *ValidationOutcome) Report() ValidationReport {
	r := ValidationReport{
		File:      o.DocumentName,
		IsValid:   o.IsValid,
		Message:   o.Message,
		Action:    o.Action,
		Timestamp: o.Timestamp.Format(time.RFC1123),
		Network:   o.Network,
		ErrorKind: o.ErrorKind,
	}
	if !o.Digest.IsZero() {
		r.Hash = o.Digest.Hex()
	}
	return r
}

// Frame is one rendered preview page.
type Frame struct {
	Page  int    `json:"page"`
	Image []byte `json:"-"`
}

// PreviewState is the observable state of a preview.
type PreviewState struct {
	CurrentPage int  `json:"current_page"`
	PageCount   int  `json:"page_count"`
	Rendering   bool `json:"rendering"`
	PendingPage *int `json:"pending_page,omitempty"`
	LastPage    int  `json:"last_rendered_page"`
}
