// File: internal/lifecycle/engine.go
package lifecycle

import (
	"sort"

	"blood_donation_dashboard/internal/common"
	"blood_donation_dashboard/internal/domain"
)

// RecordType names a record family whose status is governed by the engine.
type RecordType string

const (
	BloodRequest         RecordType = "blood_request"
	DonationRegistration RecordType = "donation_registration"
	DonorAccount         RecordType = "donor_account"
	SupportDonation      RecordType = "support_donation"
)

// Patch is a pending change to a record. Implementations report which status they move
// to (if any) and whether they touch non-status fields.
type Patch interface {
	TargetStatus() (domain.Status, bool)
	EditsFields() bool
}

// StatusPatch is the patch sent by status buttons: it carries a status and nothing else.
type StatusPatch struct {
	Status domain.Status `json:"status"`
}

func (p StatusPatch) TargetStatus() (domain.Status, bool) { return p.Status, p.Status != "" }
func (p StatusPatch) EditsFields() bool                   { return false }

type edges map[domain.Status][]domain.Status

// Engine holds the transition table and the role policy for every record family.
type Engine struct {
	table   map[RecordType]edges
	movers  map[RecordType][]domain.Role
	editors map[RecordType][]domain.Role
}

// NewEngine returns the engine with the dashboard's transition table.
func NewEngine() *Engine {
	return &Engine{
		table: map[RecordType]edges{
			BloodRequest: {
				domain.StatusPending:    {domain.StatusInProgress, domain.StatusCanceled},
				domain.StatusInProgress: {domain.StatusDone, domain.StatusCanceled},
				domain.StatusDone:       nil,
				domain.StatusCanceled:   nil,
			},
			DonationRegistration: {
				domain.StatusPending:  {domain.StatusApproved, domain.StatusRejected},
				domain.StatusApproved: nil,
				domain.StatusRejected: nil,
			},
			DonorAccount: {
				domain.StatusActive:  {domain.StatusBlocked},
				domain.StatusBlocked: {domain.StatusActive},
			},
			// Payment status is driven by the payment provider and is read-only here.
			SupportDonation: {
				domain.StatusPending: nil,
				domain.StatusPaid:    nil,
			},
		},
		movers: map[RecordType][]domain.Role{
			BloodRequest:         {domain.RoleAdmin, domain.RoleVolunteer},
			DonationRegistration: {domain.RoleAdmin, domain.RoleVolunteer},
			DonorAccount:         {domain.RoleAdmin},
		},
		editors: map[RecordType][]domain.Role{
			BloodRequest:         {domain.RoleAdmin},
			DonationRegistration: {domain.RoleAdmin},
		},
	}
}

// AllowedTransitions returns the statuses reachable from current, sorted. Terminal and
// unknown statuses yield an empty set.
func (e *Engine) AllowedTransitions(current domain.Status, recordType RecordType) []domain.Status {
	next := e.table[recordType][current]
	out := make([]domain.Status, len(next))
	copy(out, next)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsTerminal reports whether no transition leaves current.
func (e *Engine) IsTerminal(current domain.Status, recordType RecordType) bool {
	_, known := e.table[recordType][current]
	return known && len(e.table[recordType][current]) == 0
}

// CanTransition reports whether role may change the status of recordType at all.
func (e *Engine) CanTransition(role domain.Role, recordType RecordType) bool {
	return hasRole(e.movers[recordType], role)
}

// CanEditFields reports whether role may submit full-record edits.
func (e *Engine) CanEditFields(role domain.Role, recordType RecordType) bool {
	return hasRole(e.editors[recordType], role)
}

// CanDelete reports whether role may hard-delete a record of recordType.
func (e *Engine) CanDelete(role domain.Role, recordType RecordType) bool {
	if recordType == SupportDonation || recordType == DonorAccount {
		return false
	}
	return role == domain.RoleAdmin
}

// CanChangeRole reports whether actor may move a profile from one role to another.
// Only admins manage roles, which covers every move to or from admin.
func (e *Engine) CanChangeRole(actor, from, to domain.Role) bool {
	if !to.Valid() || from == to {
		return false
	}
	return actor == domain.RoleAdmin
}

// Transition validates a single status change.
func (e *Engine) Transition(role domain.Role, recordType RecordType, from, to domain.Status) error {
	if !e.CanTransition(role, recordType) {
		return &common.TransitionError{
			RecordType: string(recordType), Role: string(role), From: string(from), To: string(to),
			Reason: "role may not change status",
		}
	}
	for _, s := range e.table[recordType][from] {
		if s == to {
			return nil
		}
	}
	reason := "transition not allowed"
	if e.IsTerminal(from, recordType) {
		reason = "current status is terminal"
	}
	return &common.TransitionError{
		RecordType: string(recordType), Role: string(role), From: string(from), To: string(to),
		Reason: reason,
	}
}

// ValidatePatch checks a patch against the role policy and the transition table.
// It never performs I/O; a non-nil error must stop the write before dispatch.
func (e *Engine) ValidatePatch(role domain.Role, recordType RecordType, current domain.Status, patch Patch) error {
	if patch == nil {
		return &common.TransitionError{RecordType: string(recordType), Role: string(role), Reason: "empty patch"}
	}
	if patch.EditsFields() && !e.CanEditFields(role, recordType) {
		return &common.TransitionError{
			RecordType: string(recordType), Role: string(role),
			Reason: "role may not edit record fields",
		}
	}
	to, changes := patch.TargetStatus()
	if !changes || to == current {
		if !patch.EditsFields() {
			return &common.TransitionError{RecordType: string(recordType), Role: string(role), Reason: "empty patch"}
		}
		return nil
	}
	return e.Transition(role, recordType, current, to)
}

func hasRole(roles []domain.Role, role domain.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
