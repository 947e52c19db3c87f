// File: internal/donor/model.go
package donor

import "blood_donation_dashboard/internal/domain"

// SearchQuery is the public donor search form. Empty fields do not filter.
type SearchQuery struct {
	BloodGroup string `form:"blood_group"`
	District   string `form:"district"`
	Upazila    string `form:"upazila"`
}

// Actor is the signed-in user performing an admin action.
type Actor struct {
	Email string
	Role  domain.Role
}

// RoleRequest is the body of a role change.
type RoleRequest struct {
	Role domain.Role `json:"role" binding:"required,oneof=donor volunteer admin"`
}

// StatusRequest is the body of a block or unblock.
type StatusRequest struct {
	Status domain.Status `json:"status" binding:"required,oneof=active blocked"`
}
