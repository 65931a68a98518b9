package handler

import (
	"strings"
	"time"
	"unicode"

	"realtyvest/internal/verification/models"
	"realtyvest/internal/verification/service"
)

type fileResponse struct {
	Handle   string `json:"handle"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

type personalInfoResponse struct {
	FullName    string `json:"full_name"`
	DateOfBirth string `json:"date_of_birth"`
	Address     string `json:"address"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	ZipCode     string `json:"zip_code,omitempty"`
	PhoneNumber string `json:"phone_number"`
	SSN         string `json:"ssn"`
}

type dataResponse struct {
	DocumentType   string               `json:"document_type,omitempty"`
	DocumentFront  *fileResponse        `json:"document_front,omitempty"`
	DocumentBack   *fileResponse        `json:"document_back,omitempty"`
	Selfie         *fileResponse        `json:"selfie,omitempty"`
	ProofOfAddress *fileResponse        `json:"proof_of_address,omitempty"`
	BankStatement  *fileResponse        `json:"bank_statement,omitempty"`
	PersonalInfo   personalInfoResponse `json:"personal_info"`
}

type summaryResponse struct {
	DocumentType string `json:"document_type"`
	HasDocuments bool   `json:"has_documents"`
	HasSelfie    bool   `json:"has_selfie"`
}

type historyResponse struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Action    string           `json:"action"`
	Reason    string           `json:"reason,omitempty"`
	Data      *summaryResponse `json:"data,omitempty"`
}

type wizardResponse struct {
	Variant    string            `json:"variant"`
	Step       int               `json:"step"`
	TotalSteps int               `json:"total_steps"`
	StepName   string            `json:"step_name"`
	Errors     map[string]string `json:"errors"`
	Submitting bool              `json:"submitting"`
}

type verificationResponse struct {
	Status                 string            `json:"status"`
	IsComplete             bool              `json:"is_complete"`
	IsPending              bool              `json:"is_pending"`
	IsVerificationRequired bool              `json:"is_verification_required"`
	CanInvest              bool              `json:"can_invest"`
	Progress               int               `json:"progress"`
	Data                   dataResponse      `json:"data"`
	History                []historyResponse `json:"history"`
	LastSubmission         *historyResponse  `json:"last_submission"`
	UploadProgress         map[string]int    `json:"upload_progress"`
	Wizard                 wizardResponse    `json:"wizard"`
}

type submitResponse struct {
	Success      bool                 `json:"success"`
	Error        string               `json:"error,omitempty"`
	Verification verificationResponse `json:"verification"`
}

type reviewItemResponse struct {
	UserID         string           `json:"user_id"`
	Status         string           `json:"status"`
	DocumentType   string           `json:"document_type,omitempty"`
	Progress       int              `json:"progress"`
	LastSubmission *historyResponse `json:"last_submission,omitempty"`
}

type reviewQueueResponse struct {
	Items []reviewItemResponse `json:"items"`
}

func toVerificationResponse(v *service.View) verificationResponse {
	resp := verificationResponse{
		Status:                 string(v.Status),
		IsComplete:             v.IsComplete,
		IsPending:              v.IsPending,
		IsVerificationRequired: v.IsVerificationRequired,
		CanInvest:              v.CanInvest,
		Progress:               v.Progress,
		Data:                   toDataResponse(v.Data),
		History:                make([]historyResponse, 0, len(v.History)),
		LastSubmission:         toHistoryPtr(v.LastSubmission),
		UploadProgress:         make(map[string]int, len(v.UploadProgress)),
		Wizard: wizardResponse{
			Variant:    string(v.Wizard.Variant),
			Step:       v.Wizard.Step,
			TotalSteps: v.Wizard.TotalSteps,
			StepName:   v.Wizard.StepName,
			Errors:     v.Wizard.Errors,
			Submitting: v.Wizard.Submitting,
		},
	}
	if resp.Wizard.Errors == nil {
		resp.Wizard.Errors = map[string]string{}
	}
	for _, entry := range v.History {
		resp.History = append(resp.History, toHistoryResponse(entry))
	}
	for field, pct := range v.UploadProgress {
		resp.UploadProgress[string(field)] = pct
	}
	return resp
}

func toDataResponse(d models.VerificationData) dataResponse {
	info := d.PersonalInfo
	return dataResponse{
		DocumentType:   string(d.DocumentType),
		DocumentFront:  toFileResponse(d.DocumentFront),
		DocumentBack:   toFileResponse(d.DocumentBack),
		Selfie:         toFileResponse(d.Selfie),
		ProofOfAddress: toFileResponse(d.ProofOfAddress),
		BankStatement:  toFileResponse(d.BankStatement),
		PersonalInfo: personalInfoResponse{
			FullName:    info.FullName,
			DateOfBirth: info.DateOfBirth,
			Address:     info.Address,
			City:        info.City,
			State:       info.State,
			ZipCode:     info.ZipCode,
			PhoneNumber: info.PhoneNumber,
			SSN:         maskSSN(info.SSN),
		},
	}
}

func toFileResponse(ref *models.FileRef) *fileResponse {
	if ref == nil {
		return nil
	}
	return &fileResponse{
		Handle:   ref.Handle.String(),
		Name:     ref.Name,
		MimeType: ref.MimeType,
		Size:     ref.Size,
	}
}

func toHistoryResponse(e models.HistoryEntry) historyResponse {
	resp := historyResponse{
		Status:    string(e.Status),
		Timestamp: e.Timestamp,
		Action:    string(e.Action),
		Reason:    e.Reason,
	}
	if e.Data != nil {
		resp.Data = &summaryResponse{
			DocumentType: string(e.Data.DocumentType),
			HasDocuments: e.Data.HasDocuments,
			HasSelfie:    e.Data.HasSelfie,
		}
	}
	return resp
}

func toHistoryPtr(e *models.HistoryEntry) *historyResponse {
	if e == nil {
		return nil
	}
	resp := toHistoryResponse(*e)
	return &resp
}

func toReviewQueueResponse(items []service.ReviewItem) reviewQueueResponse {
	resp := reviewQueueResponse{Items: make([]reviewItemResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, reviewItemResponse{
			UserID:         item.UserID.String(),
			Status:         string(item.Status),
			DocumentType:   string(item.DocumentType),
			Progress:       item.Progress,
			LastSubmission: toHistoryPtr(item.LastSubmission),
		})
	}
	return resp
}

// maskSSN keeps only the last four digits.
func maskSSN(ssn string) string {
	if ssn == "" {
		return ""
	}
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, ssn)
	if len(digits) < 4 {
		return "****"
	}
	return "***-**-" + digits[len(digits)-4:]
}
