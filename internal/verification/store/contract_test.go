package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"realtyvest/internal/verification/models"
	id "realtyvest/pkg/domain"
	"realtyvest/pkg/platform/sentinel"
)

// backend is the contract every store implements.
type backend interface {
	Load(ctx context.Context, userID id.UserID) (models.Snapshot, error)
	Save(ctx context.Context, userID id.UserID, snapshot models.Snapshot) error
	Delete(ctx context.Context, userID id.UserID) error
	ListByStatus(ctx context.Context, statuses ...models.Status) ([]Entry, error)
}

// contractSuite is embedded by the per-backend suites; they set store and
// reset the backend between tests.
type contractSuite struct {
	suite.Suite
	ctx   context.Context
	store backend
}

func submittedSnapshot() models.Snapshot {
	// Microsecond precision survives a round trip through Postgres.
	at := time.Date(2026, 4, 2, 10, 30, 0, 123000, time.UTC)
	return models.Snapshot{
		Status: models.StatusPending,
		VerificationData: models.VerificationData{
			DocumentType:  models.DocumentTypePassport,
			DocumentFront: &models.FileRef{Handle: id.NewBlobID(), Name: "front.png", MimeType: "image/png", Size: 4096},
			DocumentBack:  &models.FileRef{Handle: id.NewBlobID(), Name: "back.png", MimeType: "image/png", Size: 4096},
			Selfie:        &models.FileRef{Handle: id.NewBlobID(), Name: "selfie.jpg", MimeType: "image/jpeg", Size: 2048},
			PersonalInfo: models.PersonalInfo{
				FullName: "Jane Doe", DateOfBirth: "1990-01-01", Address: "1 Main St",
				PhoneNumber: "555-0100", SSN: "123-45-6789",
			},
		},
		History: []models.HistoryEntry{
			{Status: models.StatusRejected, Action: models.ActionRejection, Reason: "blurry", Timestamp: at},
			{
				Status: models.StatusPending, Action: models.ActionSubmission, Timestamp: at.Add(time.Minute),
				Data: &models.SubmissionSummary{DocumentType: models.DocumentTypePassport, HasDocuments: true, HasSelfie: true},
			},
		},
	}
}

func (s *contractSuite) assertSameSnapshot(want, got models.Snapshot) {
	s.Equal(want.Status, got.Status)
	s.Equal(want.VerificationData, got.VerificationData)
	s.Require().Len(got.History, len(want.History))
	for i := range want.History {
		s.Equal(want.History[i].Status, got.History[i].Status)
		s.Equal(want.History[i].Action, got.History[i].Action)
		s.Equal(want.History[i].Reason, got.History[i].Reason)
		s.Equal(want.History[i].Data, got.History[i].Data)
		s.True(want.History[i].Timestamp.Equal(got.History[i].Timestamp),
			"timestamp %d: want %s got %s", i, want.History[i].Timestamp, got.History[i].Timestamp)
	}
}

func (s *contractSuite) TestLoadUnknownUser() {
	_, err := s.store.Load(s.ctx, id.UserID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *contractSuite) TestSaveThenLoad() {
	userID := id.UserID(uuid.New())
	snap := submittedSnapshot()
	s.Require().NoError(s.store.Save(s.ctx, userID, snap))

	got, err := s.store.Load(s.ctx, userID)
	s.Require().NoError(err)
	s.assertSameSnapshot(snap, got)
}

func (s *contractSuite) TestLastWriteWins() {
	userID := id.UserID(uuid.New())
	s.Require().NoError(s.store.Save(s.ctx, userID, submittedSnapshot()))

	cleared := models.Snapshot{Status: models.StatusNotStarted, History: []models.HistoryEntry{}}
	s.Require().NoError(s.store.Save(s.ctx, userID, cleared))

	got, err := s.store.Load(s.ctx, userID)
	s.Require().NoError(err)
	s.Equal(models.StatusNotStarted, got.Status)
	s.Empty(got.History)
	s.Equal(models.VerificationData{}, got.VerificationData)
}

func (s *contractSuite) TestDelete() {
	userID := id.UserID(uuid.New())
	s.Require().NoError(s.store.Save(s.ctx, userID, submittedSnapshot()))
	s.Require().NoError(s.store.Delete(s.ctx, userID))

	_, err := s.store.Load(s.ctx, userID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	pending, err := s.store.ListByStatus(s.ctx, models.StatusPending)
	s.Require().NoError(err)
	s.Empty(pending)
}

func (s *contractSuite) TestListByStatus() {
	pendingA := id.UserID(uuid.New())
	pendingB := id.UserID(uuid.New())
	skipped := id.UserID(uuid.New())

	s.Require().NoError(s.store.Save(s.ctx, pendingA, submittedSnapshot()))
	s.Require().NoError(s.store.Save(s.ctx, pendingB, submittedSnapshot()))
	s.Require().NoError(s.store.Save(s.ctx, skipped, models.Snapshot{Status: models.StatusSkipped, History: []models.HistoryEntry{}}))

	s.Run("filters by status and orders by user", func() {
		entries, err := s.store.ListByStatus(s.ctx, models.StatusPending)
		s.Require().NoError(err)
		s.Require().Len(entries, 2)
		s.Less(entries[0].UserID.String(), entries[1].UserID.String())
		for _, e := range entries {
			s.Contains([]id.UserID{pendingA, pendingB}, e.UserID)
			s.Len(e.Snapshot.History, 2)
		}
	})

	s.Run("several statuses", func() {
		entries, err := s.store.ListByStatus(s.ctx, models.StatusPending, models.StatusSkipped)
		s.Require().NoError(err)
		s.Len(entries, 3)
	})

	s.Run("status change moves the user between queues", func() {
		approved := submittedSnapshot()
		approved.Status = models.StatusCompleted
		s.Require().NoError(s.store.Save(s.ctx, pendingA, approved))

		entries, err := s.store.ListByStatus(s.ctx, models.StatusPending)
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.Equal(pendingB, entries[0].UserID)
	})

	s.Run("no statuses", func() {
		entries, err := s.store.ListByStatus(s.ctx)
		s.Require().NoError(err)
		s.Empty(entries)
	})
}
