// Package service runs verification operations for authenticated users. Each
// call loads the user's snapshot, rebuilds the state store and wizard, runs
// the operation and saves the snapshot back.
package service

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"reflect"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"realtyvest/internal/platform/logger"
	"realtyvest/internal/platform/metrics"
	"realtyvest/internal/verification/blob"
	"realtyvest/internal/verification/models"
	"realtyvest/internal/verification/state"
	"realtyvest/internal/verification/store"
	"realtyvest/internal/verification/wizard"
	id "realtyvest/pkg/domain"
	dErrors "realtyvest/pkg/domain-errors"
	"realtyvest/pkg/platform/sentinel"
)

var tracer = otel.Tracer("realtyvest/verification/service")

// Store persists snapshots. Load returns sentinel.ErrNotFound for new users.
type Store interface {
	Load(ctx context.Context, userID id.UserID) (models.Snapshot, error)
	Save(ctx context.Context, userID id.UserID, snapshot models.Snapshot) error
	ListByStatus(ctx context.Context, statuses ...models.Status) ([]store.Entry, error)
}

// BlobStore keeps upload content.
type BlobStore interface {
	Put(ctx context.Context, handle id.BlobID, b blob.Blob) error
}

const (
	// DefaultSubmitTimeout bounds a submission when Config leaves it unset.
	DefaultSubmitTimeout = 30 * time.Second
	// DefaultSessionIdleTimeout expires wizard sessions nobody has touched.
	DefaultSessionIdleTimeout = 24 * time.Hour

	sessionSweepInterval = time.Minute
)

// Config holds the per-deployment verification settings.
type Config struct {
	Variant        wizard.Variant
	ResetPolicy    state.ResetPolicy
	MaxUploadBytes int64
	// SubmitTimeout bounds the external check and the save that follows it.
	SubmitTimeout time.Duration
	// SessionIdleTimeout drops wizard sessions idle for longer.
	SessionIdleTimeout time.Duration
}

// session is the wizard state and upload progress kept between requests.
type session struct {
	wizard   wizard.State
	progress map[models.DocumentField]int
	touched  time.Time
}

type Service struct {
	store   Store
	blobs   BlobStore
	checker state.Checker
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Verification
	auditor state.AuditPublisher
	clock   func() time.Time

	locks      *userLocks
	inflight   sync.Map
	sessionsMu sync.Mutex
	sessions   map[id.UserID]session
	lastSweep  time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Verification) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher state.AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = publisher
	}
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

func New(st Store, blobs BlobStore, checker state.Checker, cfg Config, opts ...Option) *Service {
	if cfg.Variant == "" {
		cfg.Variant = wizard.VariantStandard
	}
	if cfg.ResetPolicy == "" {
		cfg.ResetPolicy = state.ResetKeepHistory
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = wizard.DefaultMaxUploadBytes
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = DefaultSubmitTimeout
	}
	if cfg.SessionIdleTimeout <= 0 {
		cfg.SessionIdleTimeout = DefaultSessionIdleTimeout
	}
	s := &Service{
		store:    st,
		blobs:    blobs,
		checker:  checker,
		cfg:      cfg,
		logger:   logger.Discard(),
		clock:    time.Now,
		locks:    newUserLocks(),
		sessions: make(map[id.UserID]session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the user's verification. New users see the default record.
func (s *Service) Get(ctx context.Context, userID id.UserID) (*View, error) {
	return s.run(ctx, userID, "get", false, func(context.Context, *state.Store, *wizard.Wizard) error {
		return nil
	})
}

// CanInvest reports whether the user may place investments.
func (s *Service) CanInvest(ctx context.Context, userID id.UserID) (bool, error) {
	snap, err := s.load(ctx, userID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return false, nil
	case err != nil:
		return false, err
	}
	return snap.Status.CanInvest(), nil
}

func (s *Service) SelectDocumentType(ctx context.Context, userID id.UserID, documentType string) (*View, error) {
	return s.run(ctx, userID, "select_document_type", false, func(_ context.Context, _ *state.Store, wz *wizard.Wizard) error {
		if !wz.SelectDocumentType(models.DocumentType(documentType)) {
			return fieldErrors(wz, "invalid document type")
		}
		return nil
	})
}

// Upload describes an uploaded file and its content.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Content     []byte
}

// UploadDocument screens the upload through the wizard and keeps the content
// in the blob store when accepted.
func (s *Service) UploadDocument(ctx context.Context, userID id.UserID, field models.DocumentField, up Upload) (*View, error) {
	return s.run(ctx, userID, "upload", false, func(ctx context.Context, _ *state.Store, wz *wizard.Wizard) error {
		handle := id.NewBlobID()
		accepted := wz.Upload(field, wizard.FileMeta{
			Handle:   handle,
			Name:     up.Name,
			MimeType: up.ContentType,
			Size:     up.Size,
		})
		if !accepted {
			return fieldErrors(wz, "upload rejected")
		}
		if err := s.blobs.Put(ctx, handle, blob.Blob{ContentType: up.ContentType, Data: up.Content}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store upload")
		}
		return nil
	})
}

// UpdatePersonalInfo merges fields into personal info. Unknown field names
// are rejected before anything is written.
func (s *Service) UpdatePersonalInfo(ctx context.Context, userID id.UserID, fields map[models.PersonalField]string) (*View, error) {
	for field := range fields {
		if _, ok := field.Patch(""); !ok {
			return nil, dErrors.New(dErrors.CodeBadRequest, "unknown personal info field "+string(field))
		}
	}
	return s.run(ctx, userID, "update_personal_info", false, func(_ context.Context, _ *state.Store, wz *wizard.Wizard) error {
		for field, value := range fields {
			wz.SetPersonalField(field, value)
		}
		return nil
	})
}

// Next advances the wizard when the current step validates.
func (s *Service) Next(ctx context.Context, userID id.UserID) (*View, error) {
	return s.run(ctx, userID, "wizard_next", false, func(_ context.Context, _ *state.Store, wz *wizard.Wizard) error {
		if !wz.Next() && len(wz.Errors()) > 0 {
			return fieldErrors(wz, "current step is incomplete")
		}
		return nil
	})
}

func (s *Service) Previous(ctx context.Context, userID id.UserID) (*View, error) {
	return s.run(ctx, userID, "wizard_previous", false, func(_ context.Context, _ *state.Store, wz *wizard.Wizard) error {
		wz.Previous()
		return nil
	})
}

// Submit runs the submission from the final wizard step. The request blocks
// until the external check returns. Once started, a submission is not
// cancelled by the caller; only Config.SubmitTimeout ends it early.
func (s *Service) Submit(ctx context.Context, userID id.UserID) (*SubmitOutcome, error) {
	if _, busy := s.inflight.LoadOrStore(userID, struct{}{}); busy {
		return nil, dErrors.New(dErrors.CodeConflict, "a submission is already in progress")
	}
	defer s.inflight.Delete(userID)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.SubmitTimeout)
	defer cancel()

	var result state.SubmitResult
	view, err := s.run(ctx, userID, "submit", false, func(ctx context.Context, _ *state.Store, wz *wizard.Wizard) error {
		var err error
		result, err = wz.Submit(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	outcome := &SubmitOutcome{Success: result.Success, View: view}
	if !result.Success {
		outcome.Error = view.Wizard.Errors[wizard.KeySubmit]
	}
	return outcome, nil
}

// Skip grants limited access and ends the user's wizard session.
func (s *Service) Skip(ctx context.Context, userID id.UserID) (*View, error) {
	view, err := s.run(ctx, userID, "skip", false, func(ctx context.Context, st *state.Store, _ *wizard.Wizard) error {
		st.SkipVerification(ctx)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.dropSession(userID)
	return view, nil
}

// Reset restores the default record and restarts the wizard. The restarted
// wizard equals a fresh one, so the session is dropped.
func (s *Service) Reset(ctx context.Context, userID id.UserID) (*View, error) {
	view, err := s.run(ctx, userID, "reset", false, func(ctx context.Context, st *state.Store, wz *wizard.Wizard) error {
		st.ResetVerification(ctx)
		wz.Restart()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.dropSession(userID)
	return view, nil
}

// Approve records the reviewer's acceptance.
func (s *Service) Approve(ctx context.Context, userID id.UserID) (*View, error) {
	return s.run(ctx, userID, "approve", true, func(ctx context.Context, st *state.Store, _ *wizard.Wizard) error {
		st.ApproveVerification(ctx)
		return nil
	})
}

// Reject records the reviewer's rejection with a free-text reason.
func (s *Service) Reject(ctx context.Context, userID id.UserID, reason string) (*View, error) {
	return s.run(ctx, userID, "reject", true, func(ctx context.Context, st *state.Store, _ *wizard.Wizard) error {
		st.RejectVerification(ctx, reason)
		return nil
	})
}

// SetStatus sets any known status; there is no transition table.
func (s *Service) SetStatus(ctx context.Context, userID id.UserID, status string) (*View, error) {
	parsed, err := models.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, userID, "set_status", true, func(ctx context.Context, st *state.Store, _ *wizard.Wizard) error {
		return st.SetStatus(ctx, parsed)
	})
}

// ReviewQueue lists users in the given statuses, pending by default.
func (s *Service) ReviewQueue(ctx context.Context, statuses []models.Status) ([]ReviewItem, error) {
	ctx, span := tracer.Start(ctx, "verification.review_queue")
	defer span.End()

	if len(statuses) == 0 {
		statuses = []models.Status{models.StatusPending}
	}
	entries, err := s.store.ListByStatus(ctx, statuses...)
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list verification records")
	}
	items := make([]ReviewItem, 0, len(entries))
	for _, e := range entries {
		item := ReviewItem{
			UserID:       e.UserID,
			Status:       e.Snapshot.Status,
			DocumentType: e.Snapshot.VerificationData.DocumentType,
			Progress:     models.Progress(e.Snapshot.VerificationData),
		}
		if last, ok := models.LastSubmission(e.Snapshot.History); ok {
			item.LastSubmission = &last
		}
		items = append(items, item)
	}
	return items, nil
}

// run serializes fn per user. A failing fn leaves the persisted record
// untouched but keeps the wizard errors it produced.
func (s *Service) run(
	ctx context.Context,
	userID id.UserID,
	op string,
	mustExist bool,
	fn func(ctx context.Context, st *state.Store, wz *wizard.Wizard) error,
) (*View, error) {
	ctx, span := tracer.Start(ctx, "verification."+op, trace.WithAttributes(attribute.String("user_id", userID.String())))
	defer span.End()

	unlock := s.locks.lock(userID)
	defer unlock()

	snap, err := s.load(ctx, userID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound) && !mustExist:
		snap = models.NewRecord().Snapshot()
	case err != nil:
		span.RecordError(err)
		return nil, err
	}
	before := snap.Clone()

	st, err := state.Restore(snap, s.stateOptions(userID)...)
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "stored verification record is invalid")
	}
	sess := s.session(userID)
	for field, pct := range sess.progress {
		st.SetUploadProgress(field, pct)
	}

	completed := false
	wz := wizard.Resume(st, sess.wizard,
		wizard.WithVariant(s.cfg.Variant),
		wizard.WithMaxUploadBytes(s.cfg.MaxUploadBytes),
		wizard.WithMetrics(s.metrics),
		wizard.WithLogger(s.logger),
		wizard.WithOnComplete(func(context.Context) { completed = true }),
	)

	if err := fn(ctx, st, wz); err != nil {
		s.saveSession(userID, wz, nil)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	after := st.Snapshot()
	if !snapshotsEqual(before, after) {
		if err := s.store.Save(ctx, userID, after); err != nil {
			span.RecordError(err)
			s.logger.ErrorContext(ctx, "failed to save verification record",
				"user_id", userID.String(),
				"op", op,
				"error", err,
			)
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save verification record")
		}
	}

	view := buildView(st, wz)
	if completed {
		s.dropSession(userID)
	} else {
		s.saveSession(userID, wz, view.UploadProgress)
	}
	return view, nil
}

func (s *Service) load(ctx context.Context, userID id.UserID) (models.Snapshot, error) {
	snap, err := s.store.Load(ctx, userID)
	switch {
	case err == nil:
		return snap, nil
	case errors.Is(err, sentinel.ErrNotFound):
		return models.Snapshot{}, dErrors.Wrap(err, dErrors.CodeNotFound, "verification record not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return models.Snapshot{}, dErrors.Wrap(err, dErrors.CodeInternal, "stored verification record is invalid")
	default:
		return models.Snapshot{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification record")
	}
}

func (s *Service) stateOptions(userID id.UserID) []state.Option {
	opts := []state.Option{
		state.WithUserID(userID),
		state.WithChecker(s.checker),
		state.WithClock(s.clock),
		state.WithLogger(s.logger),
		state.WithMetrics(s.metrics),
		state.WithResetPolicy(s.cfg.ResetPolicy),
	}
	if s.auditor != nil {
		opts = append(opts, state.WithAuditPublisher(s.auditor))
	}
	return opts
}

func (s *Service) session(userID id.UserID) session {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok || s.expired(sess, s.clock()) {
		delete(s.sessions, userID)
		return session{wizard: wizard.State{Step: 1}}
	}
	return sess
}

func (s *Service) saveSession(userID id.UserID, wz *wizard.Wizard, progress map[models.DocumentField]int) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	sess := s.sessions[userID]
	sess.wizard = wz.State()
	if progress != nil {
		sess.progress = maps.Clone(progress)
	}
	now := s.clock()
	sess.touched = now
	s.sessions[userID] = sess
	s.sweepLocked(now)
}

func (s *Service) expired(sess session, now time.Time) bool {
	return now.Sub(sess.touched) > s.cfg.SessionIdleTimeout
}

// sweepLocked drops idle sessions, at most once per sweep interval.
// Callers hold sessionsMu.
func (s *Service) sweepLocked(now time.Time) {
	if now.Sub(s.lastSweep) < sessionSweepInterval {
		return
	}
	s.lastSweep = now
	for userID, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, userID)
		}
	}
}

func (s *Service) dropSession(userID id.UserID) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	delete(s.sessions, userID)
}

func snapshotsEqual(a, b models.Snapshot) bool {
	return reflect.DeepEqual(a, b)
}

func fieldErrors(wz *wizard.Wizard, msg string) error {
	return dErrors.WithFields(dErrors.CodeValidation, msg, wz.Errors())
}
