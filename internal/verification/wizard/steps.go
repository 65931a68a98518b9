package wizard

import (
	"strings"

	"realtyvest/internal/verification/models"
	dErrors "realtyvest/pkg/domain-errors"
)

// Variant selects the step sequence.
type Variant string

const (
	// VariantStandard is the canonical four-step flow.
	VariantStandard Variant = "standard"
	// VariantExtended adds address components, proof of address and a bank
	// statement over six steps.
	VariantExtended Variant = "extended"
)

func ParseVariant(s string) (Variant, error) {
	switch v := Variant(s); v {
	case VariantStandard, VariantExtended:
		return v, nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "unknown wizard variant "+s)
}

// Error keys and messages shown next to each input.
const (
	KeyDocumentType = "documentType"
	KeySubmit       = "submit"

	msgInvalidFileType = "Please upload a valid image (JPEG, PNG) or PDF file"
	msgSubmitFailed    = "Failed to submit verification. Please try again."
	msgUnknownUpload   = "Unknown upload field"
	msgUnknownDocument = "Please select a valid document type"
)

type requirement struct {
	key     string
	message string
	present func(models.VerificationData) bool
}

type step struct {
	name         string
	requirements []requirement
}

func fileRequirement(field models.DocumentField, message string) requirement {
	return requirement{
		key:     string(field),
		message: message,
		present: func(d models.VerificationData) bool { return d.File(field) != nil },
	}
}

func textRequirement(field models.PersonalField, message string) requirement {
	return requirement{
		key:     string(field),
		message: message,
		present: func(d models.VerificationData) bool {
			v, _ := field.Value(d.PersonalInfo)
			return strings.TrimSpace(v) != ""
		},
	}
}

var (
	reqDocumentType = requirement{
		key:     KeyDocumentType,
		message: "Please select a document type",
		present: func(d models.VerificationData) bool { return d.DocumentType != "" },
	}
	reqDocumentFront  = fileRequirement(models.FieldDocumentFront, "Please upload the front of your document")
	reqDocumentBack   = fileRequirement(models.FieldDocumentBack, "Please upload the back of your document")
	reqSelfie         = fileRequirement(models.FieldSelfie, "Please take a selfie for verification")
	reqProofOfAddress = fileRequirement(models.FieldProofOfAddress, "Please upload a proof of address")
	reqBankStatement  = fileRequirement(models.FieldBankStatement, "Please upload a recent bank statement")

	reqFullName    = textRequirement(models.FieldFullName, "Full name is required")
	reqDateOfBirth = textRequirement(models.FieldDateOfBirth, "Date of birth is required")
	reqAddress     = textRequirement(models.FieldAddress, "Address is required")
	reqPhoneNumber = textRequirement(models.FieldPhoneNumber, "Phone number is required")
	reqSSN         = textRequirement(models.FieldSSN, "SSN is required")
	reqCity        = textRequirement(models.FieldCity, "City is required")
	reqState       = textRequirement(models.FieldState, "State is required")
	reqZipCode     = textRequirement(models.FieldZipCode, "ZIP code is required")
)

var standardSteps = []step{
	{name: "document_type", requirements: []requirement{reqDocumentType}},
	{name: "document_upload", requirements: []requirement{reqDocumentFront, reqDocumentBack}},
	{name: "selfie", requirements: []requirement{reqSelfie}},
	{name: "personal_info", requirements: []requirement{reqFullName, reqDateOfBirth, reqAddress, reqPhoneNumber, reqSSN}},
}

var extendedPersonal = []requirement{reqFullName, reqDateOfBirth, reqAddress, reqCity, reqState, reqZipCode, reqPhoneNumber}

var extendedSteps = []step{
	{name: "personal_details", requirements: extendedPersonal},
	{name: "government_id", requirements: []requirement{reqDocumentType, reqDocumentFront}},
	{name: "proof_of_address", requirements: []requirement{reqProofOfAddress}},
	{name: "selfie", requirements: []requirement{reqSelfie}},
	{name: "bank_statement", requirements: []requirement{reqBankStatement}},
	{name: "review", requirements: append(append([]requirement{}, extendedPersonal...),
		reqDocumentType, reqDocumentFront, reqProofOfAddress, reqSelfie, reqBankStatement, reqSSN)},
}

func stepsFor(v Variant) []step {
	if v == VariantExtended {
		return extendedSteps
	}
	return standardSteps
}

// requirementFor finds the rule for key in any step of steps.
func requirementFor(steps []step, key string) (requirement, bool) {
	for _, st := range steps {
		for _, req := range st.requirements {
			if req.key == key {
				return req, true
			}
		}
	}
	return requirement{}, false
}
