// Package wizard drives a user through the verification steps. It gates
// forward navigation on per-step validation, screens uploads and delegates
// every write to the state store. Wizard state is never persisted with the
// record; callers keep it per session and rebuild with Resume.
//
// A Wizard is not safe for concurrent use.
package wizard

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"realtyvest/internal/platform/logger"
	"realtyvest/internal/platform/metrics"
	"realtyvest/internal/verification/models"
	"realtyvest/internal/verification/state"
	id "realtyvest/pkg/domain"
	dErrors "realtyvest/pkg/domain-errors"
)

// DefaultMaxUploadBytes is the upload size limit (10 MB).
const DefaultMaxUploadBytes int64 = 10 << 20

var acceptedMimeTypes = map[string]bool{
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
	"application/pdf": true,
}

// Store is the part of the state store the wizard writes through.
type Store interface {
	Data() models.VerificationData
	UpdateVerificationData(patch models.DataPatch)
	UpdatePersonalInfo(patch models.PersonalInfoPatch)
	SetUploadProgress(field models.DocumentField, percent int)
	SubmitVerification(ctx context.Context) state.SubmitResult
}

// FileMeta is what the wizard inspects of an upload: type, size and name.
// Handle is where the caller will keep the content if accepted.
type FileMeta struct {
	Handle   id.BlobID
	Name     string
	MimeType string
	Size     int64
}

// State is the wizard-local state kept between requests.
type State struct {
	Step       int               `json:"step"`
	Errors     map[string]string `json:"errors"`
	Submitting bool              `json:"submitting"`
}

type Wizard struct {
	store          Store
	variant        Variant
	steps          []step
	maxUploadBytes int64
	onComplete     func(ctx context.Context)
	metrics        *metrics.Verification
	logger         *slog.Logger

	step       int
	errors     map[string]string
	submitting bool
}

type Option func(*Wizard)

func WithVariant(v Variant) Option {
	return func(w *Wizard) {
		w.variant = v
	}
}

func WithMaxUploadBytes(n int64) Option {
	return func(w *Wizard) {
		if n > 0 {
			w.maxUploadBytes = n
		}
	}
}

// WithOnComplete registers the callback invoked after a successful submit.
func WithOnComplete(fn func(ctx context.Context)) Option {
	return func(w *Wizard) {
		w.onComplete = fn
	}
}

func WithMetrics(m *metrics.Verification) Option {
	return func(w *Wizard) {
		w.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Wizard) {
		w.logger = logger
	}
}

// New starts a wizard at step 1.
func New(store Store, opts ...Option) *Wizard {
	return Resume(store, State{Step: 1}, opts...)
}

// Resume rebuilds a wizard from a previous State. Out of range steps are
// clamped.
func Resume(store Store, st State, opts ...Option) *Wizard {
	w := &Wizard{
		store:          store,
		variant:        VariantStandard,
		maxUploadBytes: DefaultMaxUploadBytes,
		logger:         logger.Discard(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.steps = stepsFor(w.variant)
	w.step = min(max(st.Step, 1), len(w.steps))
	w.errors = maps.Clone(st.Errors)
	if w.errors == nil {
		w.errors = map[string]string{}
	}
	w.submitting = st.Submitting
	return w
}

// State returns a copy of the wizard-local state.
func (w *Wizard) State() State {
	return State{Step: w.step, Errors: maps.Clone(w.errors), Submitting: w.submitting}
}

func (w *Wizard) Variant() Variant          { return w.variant }
func (w *Wizard) Step() int                 { return w.step }
func (w *Wizard) TotalSteps() int           { return len(w.steps) }
func (w *Wizard) IsFinalStep() bool         { return w.step == len(w.steps) }
func (w *Wizard) IsSubmitting() bool        { return w.submitting }
func (w *Wizard) StepName() string          { return w.steps[w.step-1].name }
func (w *Wizard) Errors() map[string]string { return maps.Clone(w.errors) }

// ValidateStep replaces the error map with one message per missing field of
// step and reports whether the step is complete.
func (w *Wizard) ValidateStep(step int) bool {
	errs := map[string]string{}
	if step >= 1 && step <= len(w.steps) {
		data := w.store.Data()
		for _, req := range w.steps[step-1].requirements {
			if !req.present(data) {
				errs[req.key] = req.message
			}
		}
	}
	w.errors = errs
	return len(errs) == 0
}

// Next advances when the current step validates. It never moves past the
// final step.
func (w *Wizard) Next() bool {
	if !w.ValidateStep(w.step) {
		return false
	}
	if w.step >= len(w.steps) {
		return false
	}
	w.step++
	return true
}

// Previous moves back one step and clears errors. Step 1 is a no-op.
func (w *Wizard) Previous() bool {
	if w.step <= 1 {
		return false
	}
	w.step--
	w.errors = map[string]string{}
	return true
}

// Restart returns to step 1 with no errors.
func (w *Wizard) Restart() {
	w.step = 1
	w.errors = map[string]string{}
	w.submitting = false
}

// SelectDocumentType records t, or sets a documentType error for unknown types.
func (w *Wizard) SelectDocumentType(t models.DocumentType) bool {
	if !t.IsValid() {
		w.errors[KeyDocumentType] = msgUnknownDocument
		return false
	}
	w.store.UpdateVerificationData(models.DataPatch{DocumentType: &t})
	delete(w.errors, KeyDocumentType)
	return true
}

// Upload screens meta and, when accepted, records the file reference and
// marks its upload complete. Rejections only set the field's error.
func (w *Wizard) Upload(field models.DocumentField, meta FileMeta) bool {
	key := string(field)
	if !field.IsValid() {
		w.errors[key] = msgUnknownUpload
		return false
	}
	if !acceptedMimeTypes[meta.MimeType] {
		w.errors[key] = msgInvalidFileType
		w.metrics.IncrementUploadRejection(key, "type")
		return false
	}
	if meta.Size > w.maxUploadBytes {
		w.errors[key] = fmt.Sprintf("File size must be less than %dMB", w.maxUploadBytes>>20)
		w.metrics.IncrementUploadRejection(key, "size")
		return false
	}

	w.store.UpdateVerificationData(models.FilePatch(field, models.FileRef{
		Handle:   meta.Handle,
		Name:     meta.Name,
		MimeType: meta.MimeType,
		Size:     meta.Size,
	}))
	w.store.SetUploadProgress(field, 100)
	delete(w.errors, key)
	return true
}

// SetPersonalField merges value into personal info and clears the field's
// error once it is valid.
func (w *Wizard) SetPersonalField(field models.PersonalField, value string) bool {
	patch, ok := field.Patch(value)
	if !ok {
		return false
	}
	w.store.UpdatePersonalInfo(patch)
	if req, known := requirementFor(w.steps, string(field)); !known || req.present(w.store.Data()) {
		delete(w.errors, string(field))
	}
	return true
}

// Submit runs the store's submission from the final step once it validates.
// Precondition failures are returned as errors; a failed attempt is reported
// in the result and as a submit error on the wizard.
func (w *Wizard) Submit(ctx context.Context) (state.SubmitResult, error) {
	if w.submitting {
		return state.SubmitResult{}, dErrors.New(dErrors.CodeConflict, "a submission is already in progress")
	}
	if !w.IsFinalStep() {
		return state.SubmitResult{}, dErrors.New(dErrors.CodeInvariantViolation, "verification can only be submitted from the final step")
	}
	if !w.ValidateStep(w.step) {
		return state.SubmitResult{}, dErrors.WithFields(dErrors.CodeValidation, "verification step is incomplete", w.errors)
	}

	w.submitting = true
	result := w.store.SubmitVerification(ctx)
	w.submitting = false

	if !result.Success {
		msg := msgSubmitFailed
		if result.Err != nil {
			msg = fmt.Sprintf("%s (%s)", msgSubmitFailed, result.Err)
		}
		w.errors[KeySubmit] = msg
		w.logger.WarnContext(ctx, "verification submission failed", "error", result.Err)
		return result, nil
	}

	delete(w.errors, KeySubmit)
	if w.onComplete != nil {
		w.onComplete(ctx)
	}
	return result, nil
}
