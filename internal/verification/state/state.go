// Package state is the owned verification state container of one user. It is
// built from a snapshot at the start of a request and serialized back with
// Snapshot when the request ends.
package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"realtyvest/internal/audit"
	"realtyvest/internal/platform/logger"
	"realtyvest/internal/platform/metrics"
	"realtyvest/internal/verification/models"
	id "realtyvest/pkg/domain"
	dErrors "realtyvest/pkg/domain-errors"
)

// Checker is the external verification check run on submission. It does not
// decide the outcome; approval and rejection are separate operations.
type Checker interface {
	Check(ctx context.Context, submission models.Submission) error
}

// AuditPublisher receives one event per history entry.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// ResetPolicy decides what a reset does with the history log.
type ResetPolicy string

const (
	ResetKeepHistory  ResetPolicy = "keep_history"
	ResetClearHistory ResetPolicy = "clear_history"
)

func ParseResetPolicy(s string) (ResetPolicy, error) {
	switch p := ResetPolicy(s); p {
	case ResetKeepHistory, ResetClearHistory:
		return p, nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "unknown reset policy "+s)
}

// SubmitResult is the outcome of SubmitVerification. A failure has already
// moved the record to rejected.
type SubmitResult struct {
	Success bool
	Err     error
}

// Store holds one user's verification record.
type Store struct {
	mu     sync.RWMutex
	record models.Record

	userID      id.UserID
	checker     Checker
	clock       func() time.Time
	logger      *slog.Logger
	metrics     *metrics.Verification
	auditor     AuditPublisher
	resetPolicy ResetPolicy
}

type Option func(*Store)

func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		s.clock = clock
	}
}

func WithChecker(checker Checker) Option {
	return func(s *Store) {
		s.checker = checker
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Verification) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Store) {
		s.auditor = publisher
	}
}

func WithResetPolicy(policy ResetPolicy) Option {
	return func(s *Store) {
		s.resetPolicy = policy
	}
}

// WithUserID tags log lines, audit events and checker submissions.
func WithUserID(userID id.UserID) Option {
	return func(s *Store) {
		s.userID = userID
	}
}

// New returns a store holding the default record.
func New(opts ...Option) *Store {
	s := &Store{
		record:      models.NewRecord(),
		clock:       time.Now,
		logger:      logger.Discard(),
		resetPolicy: ResetKeepHistory,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.checker == nil {
		s.checker = alwaysAccept{}
	}
	return s
}

// Restore rebuilds a store from a persisted snapshot. Upload progress starts
// at zero.
func Restore(snapshot models.Snapshot, opts ...Option) (*Store, error) {
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}
	s := New(opts...)
	s.record = snapshot.ToRecord()
	return s, nil
}

// Snapshot returns the persisted subset of the record.
func (s *Store) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record.Snapshot()
}

// Record returns a copy of the full record including upload progress.
func (s *Store) Record() models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec := s.record.Snapshot().ToRecord()
	for field, pct := range s.record.UploadProgress {
		rec.UploadProgress[field] = pct
	}
	return rec
}

func (s *Store) Status() models.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record.Status
}

func (s *Store) Data() models.VerificationData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record.Data.Clone()
}

func (s *Store) History() []models.HistoryEntry {
	return s.Snapshot().History
}

func (s *Store) UploadProgress(field models.DocumentField) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record.UploadProgress[field]
}

func (s *Store) IsVerificationComplete() bool { return s.Status().IsComplete() }
func (s *Store) IsVerificationPending() bool  { return s.Status().IsPending() }
func (s *Store) IsVerificationRequired() bool { return s.Status().IsVerificationRequired() }
func (s *Store) CanInvest() bool              { return s.Status().CanInvest() }

// Progress is the 0/25/50/75/100 completion of the gating fields.
func (s *Store) Progress() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.Progress(s.record.Data)
}

func (s *Store) LastSubmission() (models.HistoryEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.LastSubmission(s.record.History)
}

// SetStatus sets status unconditionally; there is no transition table.
// Only unknown values are rejected.
func (s *Store) SetStatus(ctx context.Context, status models.Status) error {
	if !status.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown verification status "+string(status))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitionLocked(ctx, status, models.ActionStatusChange, "", nil)
	return nil
}

// UpdateVerificationData shallow-merges patch into the record.
func (s *Store) UpdateVerificationData(patch models.DataPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record.Data = patch.Apply(s.record.Data)
}

// UpdatePersonalInfo merges patch into the nested personal info.
func (s *Store) UpdatePersonalInfo(patch models.PersonalInfoPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record.Data.PersonalInfo = patch.Apply(s.record.Data.PersonalInfo)
}

// SetUploadProgress records transient progress for field, clamped to 0..100.
func (s *Store) SetUploadProgress(field models.DocumentField, percent int) {
	percent = min(max(percent, 0), 100)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record.UploadProgress[field] = percent
}

// SubmitVerification moves the record to pending, logs which artifacts were
// present and runs the external check. A check failure moves the record to
// rejected. The lock is not held while the checker runs.
func (s *Store) SubmitVerification(ctx context.Context) SubmitResult {
	s.mu.Lock()
	summary := models.Summarize(s.record.Data)
	s.transitionLocked(ctx, models.StatusPending, models.ActionSubmission, "", &summary)
	submission := models.NewSubmission(s.userID.String(), s.record.Data.Clone())
	s.mu.Unlock()

	start := time.Now()
	err := s.checker.Check(ctx, submission)
	if err != nil {
		s.metrics.ObserveSubmission("failed", time.Since(start))
		s.logger.WarnContext(ctx, "verification check failed",
			"user_id", s.userID.String(),
			"error", err,
		)
		s.mu.Lock()
		s.transitionLocked(ctx, models.StatusRejected, models.ActionSubmissionFailed, err.Error(), nil)
		s.mu.Unlock()
		return SubmitResult{Success: false, Err: err}
	}

	s.metrics.ObserveSubmission("accepted", time.Since(start))
	return SubmitResult{Success: true}
}

// ApproveVerification records the external decision to accept.
func (s *Store) ApproveVerification(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitionLocked(ctx, models.StatusCompleted, models.ActionApproval, "", nil)
}

// RejectVerification records the external decision to reject.
func (s *Store) RejectVerification(ctx context.Context, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitionLocked(ctx, models.StatusRejected, models.ActionRejection, reason, nil)
}

// SkipVerification grants limited access without verifying.
func (s *Store) SkipVerification(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitionLocked(ctx, models.StatusSkipped, models.ActionSkip, "", nil)
}

// ResetVerification restores the default status and clears every document
// and personal field. The history is kept or cleared per the reset policy;
// no entry is appended, so resetting twice yields the same record.
func (s *Store) ResetVerification(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.record.History
	if s.resetPolicy == ResetClearHistory {
		history = []models.HistoryEntry{}
	}
	s.record = models.NewRecord()
	s.record.History = history

	s.logger.InfoContext(ctx, "verification reset",
		"user_id", s.userID.String(),
		"policy", string(s.resetPolicy),
	)
}

func (s *Store) transitionLocked(ctx context.Context, status models.Status, action models.Action, reason string, summary *models.SubmissionSummary) {
	entry := models.HistoryEntry{
		Status:    status,
		Timestamp: s.clock(),
		Action:    action,
		Reason:    reason,
		Data:      summary,
	}
	s.record.Status = status
	s.record.History = append(s.record.History, entry)

	s.metrics.IncrementTransition(string(status), string(action))
	s.logger.InfoContext(ctx, "verification status changed",
		"user_id", s.userID.String(),
		"status", string(status),
		"action", string(action),
	)
	if s.auditor != nil {
		s.auditor.Emit(ctx, audit.Event{
			Timestamp: entry.Timestamp,
			UserID:    s.userID,
			Action:    string(action),
			Status:    string(status),
			Reason:    reason,
		})
	}
}

type alwaysAccept struct{}

func (alwaysAccept) Check(context.Context, models.Submission) error { return nil }
