package domain

import (
	"strings"
	"time"
)

// Role is the authorization level attached to a donor profile.
type Role string

const (
	RoleDonor     Role = "donor"
	RoleVolunteer Role = "volunteer"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleDonor, RoleVolunteer, RoleAdmin:
		return true
	}
	return false
}

// ParseRole normalizes a role string. Empty or unknown values map to RoleDonor.
func ParseRole(raw string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !r.Valid() {
		return RoleDonor
	}
	return r
}

// Status is the lifecycle state of any list record. The record family decides which values apply.
type Status string

const (
	// StatusAll is the identity filter for list views, never a stored value.
	StatusAll Status = "all"

	// Blood requests
	StatusPending    Status = "pending"
	StatusInProgress Status = "inprogress"
	StatusDone       Status = "done"
	StatusCanceled   Status = "canceled"

	// Donation registrations (pending is shared)
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"

	// Donor accounts
	StatusActive  Status = "active"
	StatusBlocked Status = "blocked"

	// Support donations (pending is shared)
	StatusPaid Status = "paid"
)

// BloodGroups lists the accepted ABO/Rh groups.
var BloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

// Record is implemented by every type shown in a status-filtered list view.
type Record interface {
	GetID() string
	GetStatus() Status
}

// Identity is the signed-in account as reported by the auth provider.
type Identity struct {
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name,omitempty"`
	PhotoURL     string    `json:"photo_url,omitempty"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the access credential is past its expiry.
// A zero ExpiresAt means the provider did not say, which is treated as not expired.
func (i *Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// DonorProfile is the backend's user record keyed by email.
type DonorProfile struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	BloodGroup string `json:"blood_group"`
	District   string `json:"district"`
	Upazila    string `json:"upazila"`
	Role       Role   `json:"role"`
	Status     Status `json:"status"`
	PhotoURL   string `json:"photoURL,omitempty"`
}

func (p DonorProfile) GetID() string { return p.Email }

// GetStatus defaults to active; the backend omits status on freshly registered donors.
func (p DonorProfile) GetStatus() Status {
	if p.Status == "" {
		return StatusActive
	}
	return p.Status
}

// BloodRequest is a request for blood on behalf of a recipient.
type BloodRequest struct {
	ID             string `json:"_id,omitempty"`
	RequesterName  string `json:"requesterName,omitempty"`
	RequesterEmail string `json:"requesterEmail"`
	RecipientName  string `json:"recipientName"`
	BloodGroup     string `json:"bloodGroup"`
	Hospital       string `json:"hospital"`
	Address        string `json:"address"`
	District       string `json:"district"`
	Upazila        string `json:"upazila"`
	DonationDate   string `json:"donationDate"`
	DonationTime   string `json:"donationTime"`
	Message        string `json:"message,omitempty"`
	Status         Status `json:"status"`
}

func (r BloodRequest) GetID() string     { return r.ID }
func (r BloodRequest) GetStatus() Status { return r.Status }

// DonationRegistration is a user's sign-up as an eligible blood source.
type DonationRegistration struct {
	ID                string    `json:"_id,omitempty"`
	FullName          string    `json:"fullName"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone"`
	Address           string    `json:"address"`
	BloodGroup        string    `json:"bloodGroup"`
	Weight            float64   `json:"weight"`
	DOB               string    `json:"dob"`
	HealthDeclaration bool      `json:"healthDeclaration"`
	Status            Status    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
}

func (r DonationRegistration) GetID() string     { return r.ID }
func (r DonationRegistration) GetStatus() Status { return r.Status }

// SupportDonation is a monetary contribution. PaymentStatus is driven by the payment provider.
type SupportDonation struct {
	ID            string    `json:"_id,omitempty"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Amount        float64   `json:"amount"`
	TransactionID string    `json:"transactionId,omitempty"`
	PaymentStatus Status    `json:"payment_status"`
	CreatedAt     time.Time `json:"created_at"`
}

func (d SupportDonation) GetID() string     { return d.ID }
func (d SupportDonation) GetStatus() Status { return d.PaymentStatus }
