// File: internal/registration/model.go
package registration

import "blood_donation_dashboard/internal/domain"

// CreateRequest is the donor registration form. The email comes from the session.
type CreateRequest struct {
	FullName          string  `json:"fullName" binding:"required,min=2,max=100"`
	Phone             string  `json:"phone" binding:"required,min=6,max=20"`
	Address           string  `json:"address" binding:"required,max=300"`
	BloodGroup        string  `json:"bloodGroup" binding:"required,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Weight            float64 `json:"weight" binding:"required,gte=50,lte=300"`
	DOB               string  `json:"dob" binding:"required,datetime=2006-01-02"`
	HealthDeclaration bool    `json:"healthDeclaration" binding:"required"`
}

// StatusRequest is the body of an approve or reject button.
type StatusRequest struct {
	Status domain.Status `json:"status" binding:"required,oneof=approved rejected"`
}

// DeleteRequest carries the explicit confirmation of an irreversible delete.
type DeleteRequest struct {
	Confirm bool `json:"confirm"`
}

// Detail is a registration together with what the viewer may do with it.
type Detail struct {
	Registration       domain.DonationRegistration `json:"registration"`
	AllowedTransitions []domain.Status             `json:"allowed_transitions"`
	CanDelete          bool                        `json:"can_delete"`
}
