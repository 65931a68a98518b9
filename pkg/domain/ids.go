package domain

import (
	"github.com/google/uuid"

	dErrors "realtyvest/pkg/domain-errors"
)

// UserID identifies an investor account issued by the authentication
// provider. Invariant: a valid, non-nil UUID.
type UserID uuid.UUID

// InvestmentID identifies a recorded investment.
type InvestmentID uuid.UUID

// BlobID identifies uploaded verification document content.
type BlobID uuid.UUID

func (u UserID) String() string       { return uuid.UUID(u).String() }
func (i InvestmentID) String() string { return uuid.UUID(i).String() }
func (b BlobID) String() string       { return uuid.UUID(b).String() }

// IsNil reports whether the ID is the zero UUID.
func (u UserID) IsNil() bool { return uuid.UUID(u) == uuid.Nil }

// NewInvestmentID returns a random investment ID.
func NewInvestmentID() InvestmentID { return InvestmentID(uuid.New()) }

// NewBlobID returns a random blob ID.
func NewBlobID() BlobID { return BlobID(uuid.New()) }

// ParseUserID validates s at a trust boundary.
func ParseUserID(s string) (UserID, error) {
	parsed, err := parseUUID(s, "user ID")
	return UserID(parsed), err
}

// ParseBlobID validates s at a trust boundary.
func ParseBlobID(s string) (BlobID, error) {
	parsed, err := parseUUID(s, "blob ID")
	return BlobID(parsed), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+label)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return parsed, nil
}

// MarshalText encodes the ID as its canonical UUID string.
func (u UserID) MarshalText() ([]byte, error) { return uuid.UUID(u).MarshalText() }

func (u *UserID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(u).UnmarshalText(b)
}

func (i InvestmentID) MarshalText() ([]byte, error) { return uuid.UUID(i).MarshalText() }

func (i *InvestmentID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(i).UnmarshalText(b)
}

func (b BlobID) MarshalText() ([]byte, error) { return uuid.UUID(b).MarshalText() }

func (b *BlobID) UnmarshalText(data []byte) error {
	return (*uuid.UUID)(b).UnmarshalText(data)
}
