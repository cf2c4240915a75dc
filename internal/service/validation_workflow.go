package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"paper-registry/internal/domain"
	apperrors "paper-registry/pkg/errors"
)

// ValidationWorkflow runs one submitted document through extraction, hashing,
// the duplicate check and, for new digests, the ledger commit.
type ValidationWorkflow struct {
	extractor domain.TextExtractor
	digester  domain.Digester
	registry  domain.Registry
	signer    domain.Signer
	logger    domain.Logger

	now   func() time.Time
	newID func() string
}

// NewValidationWorkflow creates a workflow over its collaborators. registry
// and signer may be nil when only Fingerprint is used.
func NewValidationWorkflow(
	extractor domain.TextExtractor,
	digester domain.Digester,
	registry domain.Registry,
	signer domain.Signer,
	logger domain.Logger,
) *ValidationWorkflow {
	return &ValidationWorkflow{
		extractor: extractor,
		digester:  digester,
		registry:  registry,
		signer:    signer,
		logger:    logger,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
}

// workflowRun tracks the state of a single run.
type workflowRun struct {
	outcome *domain.ValidationOutcome
	logger  domain.Logger
}

// enter moves the run to state. A finished run stays where it ended.
func (r *workflowRun) enter(state domain.State) {
	if r.outcome.State.IsTerminal() {
		r.logger.Warn("Ignoring transition out of finished run", "state", r.outcome.State, "to", state)
		return
	}
	r.logger.Debug("Validation state", "from", r.outcome.State, "to", state)
	r.outcome.State = state
	r.outcome.Trail = append(r.outcome.Trail, state)
}

func (w *ValidationWorkflow) begin(doc *domain.Document) *workflowRun {
	name := ""
	if doc != nil {
		name = doc.Name
	}
	network := ""
	if w.registry != nil {
		network = w.registry.Network()
	}
	id := w.newID()
	return &workflowRun{
		outcome: &domain.ValidationOutcome{
			RunID:        id,
			DocumentName: name,
			State:        domain.StateIdle,
			Network:      network,
			Trail:        []domain.State{domain.StateIdle},
		},
		logger: w.logger.With("run_id", id, "document", name),
	}
}

// fail moves the run to Errored. The state the failure happened in decides
// how foreign errors are classified.
func (w *ValidationWorkflow) fail(r *workflowRun, err error) (*domain.ValidationOutcome, error) {
	appErr := classify(err, r.outcome.State)
	if appErr.Type == apperrors.ErrorTypeSignerRejected {
		r.logger.Warn("Signer denied authorization", "error", appErr)
	} else {
		r.logger.Error("Validation failed", appErr, "state", r.outcome.State)
	}

	r.enter(domain.StateErrored)
	r.outcome.IsValid = false
	r.outcome.Action = domain.ActionFailed
	r.outcome.ErrorKind = string(appErr.Type)
	r.outcome.Message = apperrors.UserMessage(appErr)
	r.outcome.Timestamp = w.now()
	return r.outcome, appErr
}

// Run executes the state machine for doc. The returned outcome is never nil;
// on failure it is in StateErrored and the error is returned alongside it.
func (w *ValidationWorkflow) Run(ctx context.Context, doc *domain.Document) (*domain.ValidationOutcome, error) {
	r := w.begin(doc)
	if doc.IsEmpty() {
		return w.fail(r, apperrors.NewInvalidInputError("Please select a PDF file", "document is empty"))
	}

	digest, err := w.fingerprint(ctx, r, doc)
	if err != nil {
		return w.fail(r, err)
	}

	r.enter(domain.StateCheckingRegistry)
	recorded, err := w.registry.IsRecorded(ctx, digest)
	if err != nil {
		return w.fail(r, err)
	}
	if recorded {
		r.enter(domain.StateRejected)
		r.outcome.IsValid = false
		r.outcome.Action = domain.ActionChecked
		r.outcome.Message = domain.MessageDuplicate
		r.outcome.Timestamp = w.now()
		r.logger.Info("Paper already recorded", "digest", digest.Hex())
		return r.outcome, nil
	}

	// Last point where abandoning the run cannot touch the ledger.
	if err := ctx.Err(); err != nil {
		return w.fail(r, err)
	}

	r.enter(domain.StateCommitting)
	if err := w.registry.Record(ctx, digest, w.signer); err != nil {
		return w.fail(r, err)
	}

	r.enter(domain.StateDone)
	r.outcome.IsValid = true
	r.outcome.Action = domain.ActionValidated
	r.outcome.Message = domain.MessageRecorded
	r.outcome.Timestamp = w.now()
	r.logger.Info("Paper recorded", "digest", digest.Hex())
	return r.outcome, nil
}

// Check runs extraction, hashing and a details read without committing.
// IsValid reports whether the digest is still unrecorded.
func (w *ValidationWorkflow) Check(ctx context.Context, doc *domain.Document) (*domain.ValidationOutcome, *domain.ValidationRecord, error) {
	r := w.begin(doc)
	if doc.IsEmpty() {
		outcome, err := w.fail(r, apperrors.NewInvalidInputError("Please select a PDF file", "document is empty"))
		return outcome, nil, err
	}

	digest, err := w.fingerprint(ctx, r, doc)
	if err != nil {
		outcome, err := w.fail(r, err)
		return outcome, nil, err
	}

	r.enter(domain.StateCheckingRegistry)
	record, err := w.registry.Details(ctx, digest)
	if err != nil {
		outcome, err := w.fail(r, err)
		return outcome, nil, err
	}

	r.enter(domain.StateDone)
	r.outcome.Action = domain.ActionChecked
	r.outcome.IsValid = !record.Recorded
	r.outcome.Message = domain.MessageNotFound
	if record.Recorded {
		r.outcome.Message = domain.MessageDuplicate
	}
	r.outcome.Timestamp = w.now()
	return r.outcome, record, nil
}

// Fingerprint extracts and hashes doc without touching the ledger.
func (w *ValidationWorkflow) Fingerprint(ctx context.Context, doc *domain.Document) (domain.ContentDigest, error) {
	if doc.IsEmpty() {
		return domain.ContentDigest{}, apperrors.NewInvalidInputError("Please select a PDF file", "document is empty")
	}
	r := w.begin(doc)
	digest, err := w.fingerprint(ctx, r, doc)
	if err != nil {
		return domain.ContentDigest{}, classify(err, r.outcome.State)
	}
	return digest, nil
}

func (w *ValidationWorkflow) fingerprint(ctx context.Context, r *workflowRun, doc *domain.Document) (domain.ContentDigest, error) {
	r.enter(domain.StateExtracting)
	text, err := w.extractor.ExtractText(ctx, doc.Payload)
	if err != nil {
		return domain.ContentDigest{}, err
	}

	r.enter(domain.StateHashing)
	digest, err := w.digester.Digest(text)
	if err != nil {
		return domain.ContentDigest{}, err
	}
	r.outcome.Digest = digest
	r.logger.Debug("Document hashed", "digest", digest.Hex(), "text_length", len(text))
	return digest, nil
}

// classify maps any error to an AppError. Errors that already carry a kind
// keep it; the rest are attributed to the step that produced them.
func classify(err error, state domain.State) *apperrors.AppError {
	if appErr, ok := apperrors.As(err); ok {
		return appErr
	}
	inLedgerStep := state == domain.StateCheckingRegistry || state == domain.StateCommitting
	switch {
	case errors.Is(err, context.DeadlineExceeded) && inLedgerStep:
		return apperrors.NewLedgerUnavailableError("Ledger request timed out", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewCanceledError("Validation was canceled", err)
	}
	switch state {
	case domain.StateExtracting:
		return apperrors.NewMalformedDocumentError("Failed to extract text from PDF", err)
	case domain.StateHashing:
		return apperrors.NewInfrastructureUnavailableError("Failed to hash document text", err)
	case domain.StateCheckingRegistry, domain.StateCommitting:
		return apperrors.NewLedgerUnavailableError("Ledger request failed", err)
	default:
		return apperrors.NewInternalError("Validation failed", err)
	}
}
