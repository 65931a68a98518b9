package service

import (
	"realtyvest/internal/verification/models"
	"realtyvest/internal/verification/state"
	"realtyvest/internal/verification/wizard"
	id "realtyvest/pkg/domain"
)

// View is the read model of a user's verification.
type View struct {
	Status                 models.Status
	IsComplete             bool
	IsPending              bool
	IsVerificationRequired bool
	CanInvest              bool
	Progress               int
	Data                   models.VerificationData
	History                []models.HistoryEntry
	LastSubmission         *models.HistoryEntry
	UploadProgress         map[models.DocumentField]int
	Wizard                 WizardView
}

type WizardView struct {
	Variant    wizard.Variant
	Step       int
	TotalSteps int
	StepName   string
	Errors     map[string]string
	Submitting bool
}

// SubmitOutcome reports a submission attempt. A failed attempt is not an
// error: the record is already rejected and the user may retry.
type SubmitOutcome struct {
	Success bool
	Error   string
	View    *View
}

// ReviewItem is one entry of the reviewer queue.
type ReviewItem struct {
	UserID         id.UserID
	Status         models.Status
	DocumentType   models.DocumentType
	Progress       int
	LastSubmission *models.HistoryEntry
}

func buildView(st *state.Store, wz *wizard.Wizard) *View {
	rec := st.Record()
	v := &View{
		Status:                 rec.Status,
		IsComplete:             rec.Status.IsComplete(),
		IsPending:              rec.Status.IsPending(),
		IsVerificationRequired: rec.Status.IsVerificationRequired(),
		CanInvest:              rec.Status.CanInvest(),
		Progress:               models.Progress(rec.Data),
		Data:                   rec.Data,
		History:                rec.History,
		UploadProgress:         rec.UploadProgress,
		Wizard: WizardView{
			Variant:    wz.Variant(),
			Step:       wz.Step(),
			TotalSteps: wz.TotalSteps(),
			StepName:   wz.StepName(),
			Errors:     wz.Errors(),
			Submitting: wz.IsSubmitting(),
		},
	}
	if last, ok := models.LastSubmission(rec.History); ok {
		v.LastSubmission = &last
	}
	return v
}
