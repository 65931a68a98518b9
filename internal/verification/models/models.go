// Package models holds the verification record, its history log and the
// derived predicates the rest of the system gates on.
package models

import (
	"fmt"
	"time"

	id "realtyvest/pkg/domain"
	dErrors "realtyvest/pkg/domain-errors"
)

// Status is the verification lifecycle state of one user.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusPending    Status = "pending"
	StatusCompleted  Status = "completed"
	StatusRejected   Status = "rejected"
	StatusSkipped    Status = "skipped"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{StatusNotStarted, StatusPending, StatusCompleted, StatusRejected, StatusSkipped}

func (s Status) IsValid() bool {
	switch s {
	case StatusNotStarted, StatusPending, StatusCompleted, StatusRejected, StatusSkipped:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

// ParseStatus validates s at a trust boundary.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown verification status %q", s))
	}
	return status, nil
}

// IsComplete reports a completed verification.
func (s Status) IsComplete() bool { return s == StatusCompleted }

// IsPending reports a submission awaiting a decision.
func (s Status) IsPending() bool { return s == StatusPending }

// IsVerificationRequired is true while the user still has to go through the
// wizard: never started, or rejected and expected to retry.
func (s Status) IsVerificationRequired() bool {
	return s == StatusNotStarted || s == StatusRejected
}

// CanInvest gates the investment flow. Skipping grants limited access.
func (s Status) CanInvest() bool {
	return s == StatusCompleted || s == StatusSkipped
}

// DocumentType is the kind of government ID the user uploads. Empty means
// not selected yet.
type DocumentType string

const (
	DocumentTypeDriversLicense DocumentType = "drivers_license"
	DocumentTypePassport       DocumentType = "passport"
	DocumentTypeStateID        DocumentType = "state_id"
	DocumentTypeNationalID     DocumentType = "national_id"
)

// DocumentTypes lists every selectable document type.
var DocumentTypes = []DocumentType{
	DocumentTypeDriversLicense,
	DocumentTypePassport,
	DocumentTypeStateID,
	DocumentTypeNationalID,
}

func (d DocumentType) IsValid() bool {
	switch d {
	case DocumentTypeDriversLicense, DocumentTypePassport, DocumentTypeStateID, DocumentTypeNationalID:
		return true
	}
	return false
}

// ParseDocumentType validates s at a trust boundary.
func ParseDocumentType(s string) (DocumentType, error) {
	dt := DocumentType(s)
	if !dt.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown document type %q", s))
	}
	return dt, nil
}

// DocumentField names an upload slot on the record.
type DocumentField string

const (
	FieldDocumentFront  DocumentField = "documentFront"
	FieldDocumentBack   DocumentField = "documentBack"
	FieldSelfie         DocumentField = "selfie"
	FieldProofOfAddress DocumentField = "proofOfAddress"
	FieldBankStatement  DocumentField = "bankStatement"
)

// DocumentFields lists every upload slot.
var DocumentFields = []DocumentField{
	FieldDocumentFront,
	FieldDocumentBack,
	FieldSelfie,
	FieldProofOfAddress,
	FieldBankStatement,
}

func (f DocumentField) IsValid() bool {
	for _, known := range DocumentFields {
		if f == known {
			return true
		}
	}
	return false
}

// FileRef is an opaque reference to uploaded content. The record never holds
// the bytes themselves.
type FileRef struct {
	Handle   id.BlobID `json:"handle"`
	Name     string    `json:"name"`
	MimeType string    `json:"mimeType"`
	Size     int64     `json:"size"`
}

type PersonalInfo struct {
	FullName    string `json:"fullName"`
	DateOfBirth string `json:"dateOfBirth"`
	Address     string `json:"address"`
	PhoneNumber string `json:"phoneNumber"`
	SSN         string `json:"ssn"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	ZipCode     string `json:"zipCode,omitempty"`
}

// VerificationData is everything the user has supplied so far.
type VerificationData struct {
	DocumentType   DocumentType `json:"documentType,omitempty"`
	DocumentFront  *FileRef     `json:"documentFront,omitempty"`
	DocumentBack   *FileRef     `json:"documentBack,omitempty"`
	Selfie         *FileRef     `json:"selfie,omitempty"`
	ProofOfAddress *FileRef     `json:"proofOfAddress,omitempty"`
	BankStatement  *FileRef     `json:"bankStatement,omitempty"`
	PersonalInfo   PersonalInfo `json:"personalInfo"`
}

// File returns the reference stored in field, or nil.
func (d VerificationData) File(field DocumentField) *FileRef {
	switch field {
	case FieldDocumentFront:
		return d.DocumentFront
	case FieldDocumentBack:
		return d.DocumentBack
	case FieldSelfie:
		return d.Selfie
	case FieldProofOfAddress:
		return d.ProofOfAddress
	case FieldBankStatement:
		return d.BankStatement
	}
	return nil
}

// Clone returns a copy that shares nothing with d.
func (d VerificationData) Clone() VerificationData {
	out := d
	out.DocumentFront = cloneRef(d.DocumentFront)
	out.DocumentBack = cloneRef(d.DocumentBack)
	out.Selfie = cloneRef(d.Selfie)
	out.ProofOfAddress = cloneRef(d.ProofOfAddress)
	out.BankStatement = cloneRef(d.BankStatement)
	return out
}

func cloneRef(ref *FileRef) *FileRef {
	if ref == nil {
		return nil
	}
	c := *ref
	return &c
}

// Action labels a history entry.
type Action string

const (
	ActionStatusChange     Action = "status_change"
	ActionSubmission       Action = "submission"
	ActionSubmissionFailed Action = "submission_failed"
	ActionApproval         Action = "approval"
	ActionRejection        Action = "rejection"
	ActionSkip             Action = "skip"
)

// SubmissionSummary records which artifacts were present at submission
// time, never their content.
type SubmissionSummary struct {
	DocumentType DocumentType `json:"documentType"`
	HasDocuments bool         `json:"hasDocuments"`
	HasSelfie    bool         `json:"hasSelfie"`
}

// HistoryEntry is immutable once appended.
type HistoryEntry struct {
	Status    Status             `json:"status"`
	Timestamp time.Time          `json:"timestamp"`
	Action    Action             `json:"action"`
	Reason    string             `json:"reason,omitempty"`
	Data      *SubmissionSummary `json:"data,omitempty"`
}

// Record is the full in-memory verification state of a user.
// UploadProgress is transient and never persisted.
type Record struct {
	Status         Status
	Data           VerificationData
	History        []HistoryEntry
	UploadProgress map[DocumentField]int
}

// NewRecord returns the default record of a user who has not started.
func NewRecord() Record {
	return Record{
		Status:         StatusNotStarted,
		History:        []HistoryEntry{},
		UploadProgress: map[DocumentField]int{},
	}
}

// Snapshot is the persisted subset of a record.
type Snapshot struct {
	Status           Status           `json:"status"`
	VerificationData VerificationData `json:"verificationData"`
	History          []HistoryEntry   `json:"history"`
}

// Snapshot copies the persisted subset of r.
func (r Record) Snapshot() Snapshot {
	return Snapshot{
		Status:           r.Status,
		VerificationData: r.Data.Clone(),
		History:          cloneHistory(r.History),
	}
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Status:           s.Status,
		VerificationData: s.VerificationData.Clone(),
		History:          cloneHistory(s.History),
	}
}

// Validate rejects snapshots that cannot be restored.
func (s Snapshot) Validate() error {
	if !s.Status.IsValid() {
		return dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("snapshot has unknown status %q", s.Status))
	}
	if s.VerificationData.DocumentType != "" && !s.VerificationData.DocumentType.IsValid() {
		return dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("snapshot has unknown document type %q", s.VerificationData.DocumentType))
	}
	return nil
}

// ToRecord restores a record; upload progress starts at zero.
func (s Snapshot) ToRecord() Record {
	return Record{
		Status:         s.Status,
		Data:           s.VerificationData.Clone(),
		History:        cloneHistory(s.History),
		UploadProgress: map[DocumentField]int{},
	}
}

func cloneHistory(history []HistoryEntry) []HistoryEntry {
	out := make([]HistoryEntry, len(history))
	for i, entry := range history {
		out[i] = entry
		if entry.Data != nil {
			summary := *entry.Data
			out[i].Data = &summary
		}
	}
	return out
}

// Progress is 25 points for each of documentType, documentFront,
// documentBack and selfie. Personal info never counts.
func Progress(d VerificationData) int {
	progress := 0
	if d.DocumentType != "" {
		progress += 25
	}
	if d.DocumentFront != nil {
		progress += 25
	}
	if d.DocumentBack != nil {
		progress += 25
	}
	if d.Selfie != nil {
		progress += 25
	}
	return progress
}

// LastSubmission returns the most recent submission entry.
func LastSubmission(history []HistoryEntry) (HistoryEntry, bool) {
	var last HistoryEntry
	found := false
	for _, entry := range history {
		if entry.Action != ActionSubmission {
			continue
		}
		if !found || !entry.Timestamp.Before(last.Timestamp) {
			last = entry
			found = true
		}
	}
	return last, found
}

// Summarize builds the history summary for a submission of d.
func Summarize(d VerificationData) SubmissionSummary {
	return SubmissionSummary{
		DocumentType: d.DocumentType,
		HasDocuments: d.DocumentFront != nil && d.DocumentBack != nil,
		HasSelfie:    d.Selfie != nil,
	}
}
