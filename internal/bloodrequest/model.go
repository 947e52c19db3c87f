// File: internal/bloodrequest/model.go
package bloodrequest

import (
	"blood_donation_dashboard/internal/domain"
)

// CreateRequest is the body of the request form.
type CreateRequest struct {
	RecipientName string `json:"recipientName" binding:"required,min=2,max=100"`
	BloodGroup    string `json:"bloodGroup" binding:"required,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Hospital      string `json:"hospital" binding:"required,max=200"`
	Address       string `json:"address" binding:"required,max=300"`
	District      string `json:"district" binding:"required"`
	Upazila       string `json:"upazila" binding:"required"`
	DonationDate  string `json:"donationDate" binding:"required,datetime=2006-01-02"`
	DonationTime  string `json:"donationTime" binding:"required,datetime=15:04"`
	Message       string `json:"message" binding:"omitempty,max=1000"`
}

// UpdateRequest is a partial change. Only non-nil fields are sent to the backend.
type UpdateRequest struct {
	RecipientName *string        `json:"recipientName,omitempty" binding:"omitempty,min=2,max=100"`
	BloodGroup    *string        `json:"bloodGroup,omitempty" binding:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Hospital      *string        `json:"hospital,omitempty" binding:"omitempty,max=200"`
	Address       *string        `json:"address,omitempty" binding:"omitempty,max=300"`
	District      *string        `json:"district,omitempty"`
	Upazila       *string        `json:"upazila,omitempty"`
	DonationDate  *string        `json:"donationDate,omitempty" binding:"omitempty,datetime=2006-01-02"`
	DonationTime  *string        `json:"donationTime,omitempty" binding:"omitempty,datetime=15:04"`
	Message       *string        `json:"message,omitempty" binding:"omitempty,max=1000"`
	Status        *domain.Status `json:"status,omitempty"`
}

func (u UpdateRequest) TargetStatus() (domain.Status, bool) {
	if u.Status == nil {
		return "", false
	}
	return *u.Status, true
}

func (u UpdateRequest) EditsFields() bool {
	return u.RecipientName != nil || u.BloodGroup != nil || u.Hospital != nil || u.Address != nil ||
		u.District != nil || u.Upazila != nil || u.DonationDate != nil || u.DonationTime != nil || u.Message != nil
}

// StatusRequest is the body of a status button.
type StatusRequest struct {
	Status domain.Status `json:"status" binding:"required,oneof=pending inprogress done canceled"`
}

// DeleteRequest carries the explicit confirmation of an irreversible delete.
type DeleteRequest struct {
	Confirm bool `json:"confirm"`
}

// Detail is a request together with what the viewer may do with it.
type Detail struct {
	Request            domain.BloodRequest `json:"request"`
	AllowedTransitions []domain.Status     `json:"allowed_transitions"`
	CanEdit            bool                `json:"can_edit"`
	CanDelete          bool                `json:"can_delete"`
}
