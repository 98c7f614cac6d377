package domain

import "time"

type Role string

const (
	RoleRider  Role = "rider"
	RoleSeeker Role = "seeker"
)

func (r Role) Valid() bool {
	return r == RoleRider || r == RoleSeeker
}

type KYCStatus string

const (
	KYCPending  KYCStatus = "pending"
	KYCVerified KYCStatus = "verified"
	KYCRejected KYCStatus = "rejected"
)

type User struct {
	ID             string     `json:"id" db:"id"`
	PhoneNumber    string     `json:"phone_number" db:"phone_number"`
	Role           Role       `json:"role" db:"role"`
	KYCStatus      *KYCStatus `json:"kyc_status,omitempty" db:"kyc_status"`
	KYCDocumentURL *string    `json:"kyc_document_url,omitempty" db:"kyc_document_url"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// NewUser builds a user for the given role. Riders start with KYC pending,
// seekers carry no KYC status at all.
func NewUser(id, phone string, role Role, now time.Time) *User {
	u := &User{
		ID:          id,
		PhoneNumber: phone,
		Role:        role,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if role == RoleRider {
		status := KYCPending
		u.KYCStatus = &status
	}
	return u
}

func (u *User) IsRider() bool  { return u.Role == RoleRider }
func (u *User) IsSeeker() bool { return u.Role == RoleSeeker }

// CanOfferRides reports whether the user passed KYC. Seekers are implicitly
// verified for ride purposes but never offer rides.
func (u *User) CanOfferRides() bool {
	return u.IsRider() && u.KYCStatus != nil && *u.KYCStatus == KYCVerified
}

func (u *User) IsVerifiedForRides() bool {
	if u.IsSeeker() {
		return true
	}
	return u.CanOfferRides()
}
