package models

// DataPatch is a shallow top-level merge: nil fields are left unchanged and a
// non-nil PersonalInfo replaces the nested object wholesale.
type DataPatch struct {
	DocumentType   *DocumentType
	DocumentFront  *FileRef
	DocumentBack   *FileRef
	Selfie         *FileRef
	ProofOfAddress *FileRef
	BankStatement  *FileRef
	PersonalInfo   *PersonalInfo
}

// FilePatch builds a patch that sets a single upload slot.
func FilePatch(field DocumentField, ref FileRef) DataPatch {
	var p DataPatch
	switch field {
	case FieldDocumentFront:
		p.DocumentFront = &ref
	case FieldDocumentBack:
		p.DocumentBack = &ref
	case FieldSelfie:
		p.Selfie = &ref
	case FieldProofOfAddress:
		p.ProofOfAddress = &ref
	case FieldBankStatement:
		p.BankStatement = &ref
	}
	return p
}

// Apply returns d with the patch merged in.
func (p DataPatch) Apply(d VerificationData) VerificationData {
	out := d.Clone()
	if p.DocumentType != nil {
		out.DocumentType = *p.DocumentType
	}
	if p.DocumentFront != nil {
		out.DocumentFront = cloneRef(p.DocumentFront)
	}
	if p.DocumentBack != nil {
		out.DocumentBack = cloneRef(p.DocumentBack)
	}
	if p.Selfie != nil {
		out.Selfie = cloneRef(p.Selfie)
	}
	if p.ProofOfAddress != nil {
		out.ProofOfAddress = cloneRef(p.ProofOfAddress)
	}
	if p.BankStatement != nil {
		out.BankStatement = cloneRef(p.BankStatement)
	}
	if p.PersonalInfo != nil {
		out.PersonalInfo = *p.PersonalInfo
	}
	return out
}

// PersonalInfoPatch merges into the nested personal info; nil fields are
// left unchanged.
type PersonalInfoPatch struct {
	FullName    *string
	DateOfBirth *string
	Address     *string
	PhoneNumber *string
	SSN         *string
	City        *string
	State       *string
	ZipCode     *string
}

// Apply returns info with the patch merged in.
func (p PersonalInfoPatch) Apply(info PersonalInfo) PersonalInfo {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&info.FullName, p.FullName)
	set(&info.DateOfBirth, p.DateOfBirth)
	set(&info.Address, p.Address)
	set(&info.PhoneNumber, p.PhoneNumber)
	set(&info.SSN, p.SSN)
	set(&info.City, p.City)
	set(&info.State, p.State)
	set(&info.ZipCode, p.ZipCode)
	return info
}

// PersonalField names one personal info field as the wizard keys its errors.
type PersonalField string

const (
	FieldFullName    PersonalField = "fullName"
	FieldDateOfBirth PersonalField = "dateOfBirth"
	FieldAddress     PersonalField = "address"
	FieldPhoneNumber PersonalField = "phoneNumber"
	FieldSSN         PersonalField = "ssn"
	FieldCity        PersonalField = "city"
	FieldState       PersonalField = "state"
	FieldZipCode     PersonalField = "zipCode"
)

// Value returns the current value of field in info.
func (f PersonalField) Value(info PersonalInfo) (string, bool) {
	switch f {
	case FieldFullName:
		return info.FullName, true
	case FieldDateOfBirth:
		return info.DateOfBirth, true
	case FieldAddress:
		return info.Address, true
	case FieldPhoneNumber:
		return info.PhoneNumber, true
	case FieldSSN:
		return info.SSN, true
	case FieldCity:
		return info.City, true
	case FieldState:
		return info.State, true
	case FieldZipCode:
		return info.ZipCode, true
	}
	return "", false
}

// Patch builds a patch that sets only field.
func (f PersonalField) Patch(value string) (PersonalInfoPatch, bool) {
	var p PersonalInfoPatch
	switch f {
	case FieldFullName:
		p.FullName = &value
	case FieldDateOfBirth:
		p.DateOfBirth = &value
	case FieldAddress:
		p.Address = &value
	case FieldPhoneNumber:
		p.PhoneNumber = &value
	case FieldSSN:
		p.SSN = &value
	case FieldCity:
		p.City = &value
	case FieldState:
		p.State = &value
	case FieldZipCode:
		p.ZipCode = &value
	default:
		return p, false
	}
	return p, true
}

// Submission is what the external checker receives: document references
// only, never content.
type Submission struct {
	UserID       string                    `json:"user_id"`
	DocumentType DocumentType              `json:"document_type"`
	PersonalInfo PersonalInfo              `json:"personal_info"`
	Documents    map[DocumentField]FileRef `json:"documents"`
}

// NewSubmission collects the present documents of d.
func NewSubmission(userID string, d VerificationData) Submission {
	docs := make(map[DocumentField]FileRef)
	for _, field := range DocumentFields {
		if ref := d.File(field); ref != nil {
			docs[field] = *ref
		}
	}
	return Submission{
		UserID:       userID,
		DocumentType: d.DocumentType,
		PersonalInfo: d.PersonalInfo,
		Documents:    docs,
	}
}
