package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"realtyvest/internal/audit"
	"realtyvest/internal/verification/blob"
	"realtyvest/internal/verification/checker"
	"realtyvest/internal/verification/models"
	"realtyvest/internal/verification/state"
	"realtyvest/internal/verification/store"
	"realtyvest/internal/verification/wizard"
	id "realtyvest/pkg/domain"
	dErrors "realtyvest/pkg/domain-errors"
	"realtyvest/pkg/platform/sentinel"
	"realtyvest/pkg/testutil"
)

type ServiceSuite struct {
	suite.Suite
	ctx    context.Context
	store  *store.InMemoryStore
	blobs  *blob.InMemoryStore
	now    time.Time
	userID id.UserID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewInMemoryStore()
	s.blobs = blob.NewInMemoryStore()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.userID = newUserID()
}

func (s *ServiceSuite) newService(c state.Checker, opts ...Option) *Service {
	opts = append([]Option{WithClock(func() time.Time { return s.now })}, opts...)
	return New(s.store, s.blobs, c, Config{}, opts...)
}

func newUserID() id.UserID {
	return id.UserID(uuid.New())
}

func accepting() state.Checker {
	return checker.NewSimulated(checker.WithDelay(0))
}

func pngUpload() Upload {
	return Upload{Name: "front.png", ContentType: "image/png", Size: 4, Content: []byte{0x89, 'P', 'N', 'G'}}
}

// completeWizard walks a user to the review step of the standard flow.
func (s *ServiceSuite) completeWizard(svc *Service, userID id.UserID) {
	_, err := svc.SelectDocumentType(s.ctx, userID, "passport")
	s.Require().NoError(err)
	_, err = svc.Next(s.ctx, userID)
	s.Require().NoError(err)
	for _, field := range []models.DocumentField{models.FieldDocumentFront, models.FieldDocumentBack, models.FieldSelfie} {
		_, err = svc.UploadDocument(s.ctx, userID, field, pngUpload())
		s.Require().NoError(err)
	}
	_, err = svc.Next(s.ctx, userID)
	s.Require().NoError(err)
	_, err = svc.UpdatePersonalInfo(s.ctx, userID, map[models.PersonalField]string{
		models.FieldFullName:    "Jane Doe",
		models.FieldDateOfBirth: "1990-01-01",
		models.FieldAddress:     "1 Main St",
		models.FieldPhoneNumber: "555-0100",
		models.FieldSSN:         "123-45-6789",
	})
	s.Require().NoError(err)
	view, err := svc.Next(s.ctx, userID)
	s.Require().NoError(err)
	s.Require().Equal(4, view.Wizard.Step)
}

func (s *ServiceSuite) TestGet() {
	s.Run("new users see the default record without persisting it", func() {
		svc := s.newService(accepting())
		view, err := svc.Get(s.ctx, s.userID)
		s.Require().NoError(err)
		s.Equal(models.StatusNotStarted, view.Status)
		s.True(view.IsVerificationRequired)
		s.False(view.CanInvest)
		s.Equal(0, view.Progress)
		s.Equal(1, view.Wizard.Step)
		s.Equal(4, view.Wizard.TotalSteps)
		s.Nil(view.LastSubmission)

		_, err = s.store.Load(s.ctx, s.userID)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("corrupt stored records surface as internal errors", func() {
		s.Require().NoError(s.store.Save(s.ctx, s.userID, models.Snapshot{Status: "bogus"}))
		svc := s.newService(accepting())
		_, err := svc.Get(s.ctx, s.userID)
		s.True(dErrors.Is(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestWizardSteps() {
	svc := s.newService(accepting())

	s.Run("next reports missing fields", func() {
		_, err := svc.Next(s.ctx, s.userID)
		de, ok := dErrors.As(err)
		s.Require().True(ok)
		s.Equal(dErrors.CodeValidation, de.Code)
		s.Equal("Please select a document type", de.Fields[wizard.KeyDocumentType])
	})

	s.Run("unknown document types are rejected", func() {
		_, err := svc.SelectDocumentType(s.ctx, s.userID, "library_card")
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})

	s.Run("selection is persisted and unlocks the next step", func() {
		view, err := svc.SelectDocumentType(s.ctx, s.userID, "drivers_license")
		s.Require().NoError(err)
		s.Equal(25, view.Progress)

		view, err = svc.Next(s.ctx, s.userID)
		s.Require().NoError(err)
		s.Equal(2, view.Wizard.Step)

		snap, err := s.store.Load(s.ctx, s.userID)
		s.Require().NoError(err)
		s.Equal(models.DocumentTypeDriversLicense, snap.VerificationData.DocumentType)
	})

	s.Run("previous moves back and the step is kept between calls", func() {
		view, err := svc.Previous(s.ctx, s.userID)
		s.Require().NoError(err)
		s.Equal(1, view.Wizard.Step)

		view, err = svc.Get(s.ctx, s.userID)
		s.Require().NoError(err)
		s.Equal(1, view.Wizard.Step)
	})
}

func (s *ServiceSuite) TestUploadDocument() {
	svc := s.newService(accepting())

	s.Run("accepted uploads keep content in the blob store", func() {
		view, err := svc.UploadDocument(s.ctx, s.userID, models.FieldDocumentFront, pngUpload())
		s.Require().NoError(err)
		ref := view.Data.DocumentFront
		s.Require().NotNil(ref)
		s.Equal("front.png", ref.Name)
		s.Equal(100, view.UploadProgress[models.FieldDocumentFront])

		b, err := s.blobs.Get(s.ctx, ref.Handle)
		s.Require().NoError(err)
		s.Equal("image/png", b.ContentType)
		s.Equal(pngUpload().Content, b.Data)
	})

	s.Run("progress survives between requests", func() {
		view, err := svc.Get(s.ctx, s.userID)
		s.Require().NoError(err)
		s.Equal(100, view.UploadProgress[models.FieldDocumentFront])
	})

	s.Run("wrong type is rejected without touching the record", func() {
		before, err := s.store.Load(s.ctx, s.userID)
		s.Require().NoError(err)

		up := pngUpload()
		up.ContentType = "text/plain"
		_, err = svc.UploadDocument(s.ctx, s.userID, models.FieldDocumentBack, up)
		de, ok := dErrors.As(err)
		s.Require().True(ok)
		s.Equal("Please upload a valid image (JPEG, PNG) or PDF file", de.Fields[string(models.FieldDocumentBack)])

		after, err := s.store.Load(s.ctx, s.userID)
		s.Require().NoError(err)
		s.Equal(before, after)
	})

	s.Run("oversized files are rejected", func() {
		up := pngUpload()
		up.Size = wizard.DefaultMaxUploadBytes + 1
		_, err := svc.UploadDocument(s.ctx, s.userID, models.FieldSelfie, up)
		de, ok := dErrors.As(err)
		s.Require().True(ok)
		s.Equal("File size must be less than 10MB", de.Fields[string(models.FieldSelfie)])
	})
}

func (s *ServiceSuite) TestUpdatePersonalInfo() {
	svc := s.newService(accepting())

	s.Run("unknown fields are rejected before writing", func() {
		_, err := svc.UpdatePersonalInfo(s.ctx, s.userID, map[models.PersonalField]string{
			models.FieldFullName: "Jane Doe",
			"favoriteColor":      "blue",
		})
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
		_, err = s.store.Load(s.ctx, s.userID)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("fields merge into existing personal info", func() {
		_, err := svc.UpdatePersonalInfo(s.ctx, s.userID, map[models.PersonalField]string{models.FieldFullName: "Jane Doe"})
		s.Require().NoError(err)
		view, err := svc.UpdatePersonalInfo(s.ctx, s.userID, map[models.PersonalField]string{models.FieldSSN: "123-45-6789"})
		s.Require().NoError(err)
		s.Equal("Jane Doe", view.Data.PersonalInfo.FullName)
		s.Equal("123-45-6789", view.Data.PersonalInfo.SSN)
		s.Equal(0, view.Progress)
	})
}

func (s *ServiceSuite) TestSubmit() {
	s.Run("only from the final step", func() {
		svc := s.newService(accepting())
		_, err := svc.Submit(s.ctx, s.userID)
		s.True(dErrors.Is(err, dErrors.CodeInvariantViolation))
	})

	s.Run("success leaves the record pending and restarts the wizard", func() {
		userID := newUserID()
		svc := s.newService(accepting())
		s.completeWizard(svc, userID)

		outcome, err := svc.Submit(s.ctx, userID)
		s.Require().NoError(err)
		s.True(outcome.Success)
		s.Empty(outcome.Error)
		s.Equal(models.StatusPending, outcome.View.Status)
		s.Require().NotNil(outcome.View.LastSubmission)
		s.Equal(s.now, outcome.View.LastSubmission.Timestamp)
		s.Equal(&models.SubmissionSummary{DocumentType: models.DocumentTypePassport, HasDocuments: true, HasSelfie: true},
			outcome.View.LastSubmission.Data)

		view, err := svc.Get(s.ctx, userID)
		s.Require().NoError(err)
		s.Equal(1, view.Wizard.Step)
		s.True(view.IsPending)
	})

	s.Run("a failed check rejects and reports the reason", func() {
		userID := newUserID()
		svc := s.newService(checker.NewSimulated(checker.WithDelay(0), checker.WithFailure(errors.New("document unreadable"))))
		s.completeWizard(svc, userID)

		outcome, err := svc.Submit(s.ctx, userID)
		s.Require().NoError(err)
		s.False(outcome.Success)
		s.Contains(outcome.Error, "document unreadable")
		s.Equal(models.StatusRejected, outcome.View.Status)
		s.Equal(4, outcome.View.Wizard.Step)

		snap, err := s.store.Load(s.ctx, userID)
		s.Require().NoError(err)
		s.Require().Len(snap.History, 2)
		s.Equal(models.ActionSubmission, snap.History[0].Action)
		s.Equal(models.ActionSubmissionFailed, snap.History[1].Action)
		s.Equal("document unreadable", snap.History[1].Reason)
	})

	s.Run("a caller going away does not fail the submission", func() {
		userID := newUserID()
		svc := s.newService(checker.NewSimulated(checker.WithDelay(100 * time.Millisecond)))
		s.completeWizard(svc, userID)

		ctx, cancel := context.WithTimeout(s.ctx, 10*time.Millisecond)
		defer cancel()
		outcome, err := svc.Submit(ctx, userID)
		s.Require().NoError(err)
		s.True(outcome.Success)
		s.Require().Error(ctx.Err())

		snap, err := s.store.Load(s.ctx, userID)
		s.Require().NoError(err)
		s.Equal(models.StatusPending, snap.Status)
		s.Require().Len(snap.History, 1)
		s.Equal(models.ActionSubmission, snap.History[0].Action)
	})

	s.Run("an already cancelled caller still submits", func() {
		userID := newUserID()
		svc := s.newService(accepting())
		s.completeWizard(svc, userID)

		ctx, cancel := context.WithCancel(s.ctx)
		cancel()
		outcome, err := svc.Submit(ctx, userID)
		s.Require().NoError(err)
		s.True(outcome.Success)
		s.Equal(models.StatusPending, outcome.View.Status)
	})

	s.Run("the submit timeout bounds a stuck check", func() {
		userID := newUserID()
		svc := New(s.store, s.blobs, blockingChecker{release: make(chan struct{})}, Config{SubmitTimeout: 20 * time.Millisecond})
		s.completeWizard(svc, userID)

		outcome, err := svc.Submit(s.ctx, userID)
		s.Require().NoError(err)
		s.False(outcome.Success)
		s.Equal(models.StatusRejected, outcome.View.Status)
	})

	s.Run("concurrent submissions for one user conflict", func() {
		userID := newUserID()
		release := make(chan struct{})
		svc := s.newService(blockingChecker{release: release})
		s.completeWizard(svc, userID)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Submit(s.ctx, userID)
		}()
		s.Eventually(func() bool {
			_, busy := svc.inflight.Load(userID)
			return busy
		}, time.Second, 5*time.Millisecond)

		_, err := svc.Submit(s.ctx, userID)
		s.True(dErrors.Is(err, dErrors.CodeConflict))
		close(release)
		wg.Wait()
	})
}

func (s *ServiceSuite) TestSkipAndReset() {
	svc := s.newService(accepting())

	s.Run("skip grants investing", func() {
		view, err := svc.Skip(s.ctx, s.userID)
		s.Require().NoError(err)
		s.Equal(models.StatusSkipped, view.Status)
		s.True(view.CanInvest)

		ok, err := svc.CanInvest(s.ctx, s.userID)
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("reset keeps history by default and is idempotent", func() {
		_, err := svc.SelectDocumentType(s.ctx, s.userID, "passport")
		s.Require().NoError(err)

		first, err := svc.Reset(s.ctx, s.userID)
		s.Require().NoError(err)
		s.Equal(models.StatusNotStarted, first.Status)
		s.Equal(0, first.Progress)
		s.Equal(1, first.Wizard.Step)
		s.Len(first.History, 1)

		second, err := svc.Reset(s.ctx, s.userID)
		s.Require().NoError(err)
		s.Equal(first.History, second.History)
	})

	s.Run("clear_history policy drops the history", func() {
		userID := newUserID()
		cleared := New(s.store, s.blobs, accepting(), Config{ResetPolicy: state.ResetClearHistory})
		_, err := cleared.Skip(s.ctx, userID)
		s.Require().NoError(err)
		view, err := cleared.Reset(s.ctx, userID)
		s.Require().NoError(err)
		s.Empty(view.History)
	})
}

func (s *ServiceSuite) TestWizardSessions() {
	s.Run("skip and reset end the session", func() {
		svc := s.newService(accepting())
		for _, end := range []func(context.Context, id.UserID) (*View, error){svc.Skip, svc.Reset} {
			userID := newUserID()
			_, err := svc.SelectDocumentType(s.ctx, userID, "passport")
			s.Require().NoError(err)
			_, err = svc.Next(s.ctx, userID)
			s.Require().NoError(err)
			s.Contains(svc.sessions, userID)

			_, err = end(s.ctx, userID)
			s.Require().NoError(err)
			s.NotContains(svc.sessions, userID)
		}
	})

	s.Run("idle sessions expire", func() {
		now := s.now
		svc := New(s.store, s.blobs, accepting(), Config{SessionIdleTimeout: time.Hour},
			WithClock(func() time.Time { return now }))
		idle, active := newUserID(), newUserID()

		_, err := svc.SelectDocumentType(s.ctx, idle, "passport")
		s.Require().NoError(err)
		_, err = svc.Next(s.ctx, idle)
		s.Require().NoError(err)

		now = now.Add(2 * time.Hour)
		_, err = svc.Get(s.ctx, active)
		s.Require().NoError(err)
		s.NotContains(svc.sessions, idle)
		s.Contains(svc.sessions, active)

		view, err := svc.Get(s.ctx, idle)
		s.Require().NoError(err)
		s.Equal(1, view.Wizard.Step)
	})
}

func (s *ServiceSuite) TestAdminOperations() {
	svc := s.newService(accepting())

	s.Run("approve requires an existing record", func() {
		_, err := svc.Approve(s.ctx, s.userID)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})

	s.Run("approve and reject append history", func() {
		_, err := svc.Skip(s.ctx, s.userID)
		s.Require().NoError(err)

		view, err := svc.Approve(s.ctx, s.userID)
		s.Require().NoError(err)
		s.True(view.IsComplete)

		view, err = svc.Reject(s.ctx, s.userID, "expired document")
		s.Require().NoError(err)
		s.Equal(models.StatusRejected, view.Status)
		last := view.History[len(view.History)-1]
		s.Equal(models.ActionRejection, last.Action)
		s.Equal("expired document", last.Reason)
	})

	s.Run("set status accepts any known status", func() {
		view, err := svc.SetStatus(s.ctx, s.userID, "completed")
		s.Require().NoError(err)
		s.Equal(models.StatusCompleted, view.Status)

		_, err = svc.SetStatus(s.ctx, s.userID, "archived")
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})

	s.Run("review queue defaults to pending users", func() {
		pendingUser := newUserID()
		s.completeWizard(svc, pendingUser)
		_, err := svc.Submit(s.ctx, pendingUser)
		s.Require().NoError(err)

		items, err := svc.ReviewQueue(s.ctx, nil)
		s.Require().NoError(err)
		s.Require().Len(items, 1)
		s.Equal(pendingUser, items[0].UserID)
		s.Equal(100, items[0].Progress)
		s.NotNil(items[0].LastSubmission)

		items, err = svc.ReviewQueue(s.ctx, []models.Status{models.StatusPending, models.StatusCompleted})
		s.Require().NoError(err)
		s.Len(items, 2)
	})
}

func (s *ServiceSuite) TestAuditEvents() {
	sink := audit.NewInMemoryStore()
	publisher := audit.NewPublisher(8)
	svc := s.newService(accepting(), WithAuditPublisher(publisher))

	_, err := svc.Skip(s.ctx, s.userID)
	s.Require().NoError(err)

	event := <-publisher.Events()
	s.Require().NoError(sink.Append(s.ctx, event))
	events, err := sink.ListByUser(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(string(models.ActionSkip), events[0].Action)
	s.Equal(string(models.StatusSkipped), events[0].Status)
}

func (s *ServiceSuite) TestSaveFailureLeavesNoPartialState() {
	svc := New(failingStore{InMemoryStore: s.store}, s.blobs, accepting(), Config{})
	_, err := svc.Skip(s.ctx, s.userID)
	s.True(dErrors.Is(err, dErrors.CodeInternal))

	ok, err := svc.CanInvest(s.ctx, s.userID)
	s.Require().NoError(err)
	s.False(ok)
}

func TestServiceEndToEnd(t *testing.T) {
	ctx := context.Background()
	svc := New(store.NewInMemoryStore(), blob.NewInMemoryStore(), checker.NewSimulated(checker.WithDelay(0)),
		Config{Variant: wizard.VariantExtended})
	userID := newUserID()

	testutil.Given(t, "a user on the extended flow", func(t *testing.T) {
		view, err := svc.Get(ctx, userID)
		require.NoError(t, err)
		require.Equal(t, 6, view.Wizard.TotalSteps)

		testutil.When(t, "every step is filled in and submitted", func(t *testing.T) {
			_, err := svc.SelectDocumentType(ctx, userID, "national_id")
			require.NoError(t, err)
			for _, field := range models.DocumentFields {
				_, err = svc.UploadDocument(ctx, userID, field, Upload{Name: string(field) + ".pdf", ContentType: "application/pdf", Size: 1024})
				require.NoError(t, err)
			}
			_, err = svc.UpdatePersonalInfo(ctx, userID, map[models.PersonalField]string{
				models.FieldFullName:    "Jane Doe",
				models.FieldDateOfBirth: "1990-01-01",
				models.FieldAddress:     "1 Main St",
				models.FieldCity:        "Springfield",
				models.FieldState:       "IL",
				models.FieldZipCode:     "62701",
				models.FieldPhoneNumber: "555-0100",
				models.FieldSSN:         "123-45-6789",
			})
			require.NoError(t, err)
			for range 5 {
				_, err = svc.Next(ctx, userID)
				require.NoError(t, err)
			}
			outcome, err := svc.Submit(ctx, userID)
			require.NoError(t, err)

			testutil.Then(t, "the record is pending and cannot invest yet", func(t *testing.T) {
				require.True(t, outcome.Success)
				require.True(t, outcome.View.IsPending)
				ok, err := svc.CanInvest(ctx, userID)
				require.NoError(t, err)
				require.False(t, ok)
			})

			testutil.Then(t, "approval allows investing", func(t *testing.T) {
				_, err := svc.Approve(ctx, userID)
				require.NoError(t, err)
				ok, err := svc.CanInvest(ctx, userID)
				require.NoError(t, err)
				require.True(t, ok)
			})
		})
	})
}

type blockingChecker struct {
	release chan struct{}
}

func (b blockingChecker) Check(ctx context.Context, _ models.Submission) error {
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type failingStore struct {
	*store.InMemoryStore
}

func (failingStore) Save(context.Context, id.UserID, models.Snapshot) error {
	return errors.New("disk full")
}
