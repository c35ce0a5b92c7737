package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile is the locally persisted record for a registered user.
// UserID is the identity provider's id for the same person; ID is ours.
// The profile is immutable after sign-up except for the payment-rail
// customer reference, which is attached once customer creation succeeds
// and never overwritten afterwards.
type UserProfile struct {
	ID          uuid.UUID
	UserID      string
	Email       string
	FirstName   string
	LastName    string
	Address1    string
	City        string
	State       string
	PostalCode  string
	DateOfBirth string
	SSN         string // masked fragment, stored encrypted at rest

	DwollaCustomerID  string
	DwollaCustomerURL string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName returns the display name used with external providers.
func (u *UserProfile) FullName() string {
	return u.FirstName + " " + u.LastName
}
