package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"realtyvest/internal/verification/models"
	dErrors "realtyvest/pkg/domain-errors"
)

type selectDocumentTypeRequest struct {
	DocumentType string `json:"document_type" field:"documentType" validate:"required,oneof=drivers_license passport state_id national_id"`
}

// personalInfoRequest is a partial update: absent fields are left alone.
type personalInfoRequest struct {
	FullName    *string `json:"full_name" field:"fullName" validate:"omitempty,max=200"`
	DateOfBirth *string `json:"date_of_birth" field:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	Address     *string `json:"address" field:"address" validate:"omitempty,max=300"`
	City        *string `json:"city" field:"city" validate:"omitempty,max=100"`
	State       *string `json:"state" field:"state" validate:"omitempty,max=100"`
	ZipCode     *string `json:"zip_code" field:"zipCode" validate:"omitempty,max=10"`
	PhoneNumber *string `json:"phone_number" field:"phoneNumber" validate:"omitempty,max=32"`
	SSN         *string `json:"ssn" field:"ssn" validate:"omitempty,min=4,max=11"`
}

func (r personalInfoRequest) fields() map[models.PersonalField]string {
	out := make(map[models.PersonalField]string)
	set := func(field models.PersonalField, v *string) {
		if v != nil {
			out[field] = strings.TrimSpace(*v)
		}
	}
	set(models.FieldFullName, r.FullName)
	set(models.FieldDateOfBirth, r.DateOfBirth)
	set(models.FieldAddress, r.Address)
	set(models.FieldCity, r.City)
	set(models.FieldState, r.State)
	set(models.FieldZipCode, r.ZipCode)
	set(models.FieldPhoneNumber, r.PhoneNumber)
	set(models.FieldSSN, r.SSN)
	return out
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("field"); name != "" {
			return name
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationError keys each failed rule by the wizard's field name, falling
// back to the JSON name for fields the wizard does not know.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = ruleMessage(fe)
	}
	return dErrors.WithFields(dErrors.CodeValidation, "invalid request", fields)
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "datetime":
		return "must be a date formatted as " + fe.Param()
	}
	return "is invalid"
}
