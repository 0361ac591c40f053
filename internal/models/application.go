package models

import "time"

// FellingLicenceStatus captures the primary workflow state of an application.
type FellingLicenceStatus string

const (
	StatusDraft                    FellingLicenceStatus = "DRAFT"
	StatusSubmitted                FellingLicenceStatus = "SUBMITTED"
	StatusReceived                 FellingLicenceStatus = "RECEIVED"
	StatusWithApplicant            FellingLicenceStatus = "WITH_APPLICANT"
	StatusReturnedToApplicant      FellingLicenceStatus = "RETURNED_TO_APPLICANT"
	StatusAdminOfficerReview       FellingLicenceStatus = "ADMIN_OFFICER_REVIEW"
	StatusWoodlandOfficerReview    FellingLicenceStatus = "WOODLAND_OFFICER_REVIEW"
	StatusSentForApproval          FellingLicenceStatus = "SENT_FOR_APPROVAL"
	StatusApproved                 FellingLicenceStatus = "APPROVED"
	StatusRefused                  FellingLicenceStatus = "REFUSED"
	StatusReferredToLocalAuthority FellingLicenceStatus = "REFERRED_TO_LOCAL_AUTHORITY"
	StatusWithdrawn                FellingLicenceStatus = "WITHDRAWN"
)

// AssignedRole identifies the internal role an assignee holds on an application.
type AssignedRole string

const (
	AssignedRoleAdminOfficer    AssignedRole = "ADMIN_OFFICER"
	AssignedRoleWoodlandOfficer AssignedRole = "WOODLAND_OFFICER"
	AssignedRoleFieldManager    AssignedRole = "FIELD_MANAGER"
	AssignedRoleApprover        AssignedRole = "APPROVER"
)

// FellingLicenceApplication is the case record tracked through the workflow.
type FellingLicenceApplication struct {
	ID                 string    `db:"id" json:"id"`
	Reference          string    `db:"application_reference" json:"applicationReference"`
	WoodlandOwnerID    string    `db:"woodland_owner_id" json:"woodlandOwnerId"`
	CreatedByID        string    `db:"created_by_id" json:"createdById"`
	IsAgentApplication bool      `db:"is_agent_application" json:"isAgentApplication"`
	CreatedAt          time.Time `db:"created_at" json:"createdAt"`
}

// StatusHistory is a single entry in the application's status trail.
type StatusHistory struct {
	ID            string               `db:"id" json:"id"`
	ApplicationID string               `db:"felling_licence_application_id" json:"applicationId"`
	Status        FellingLicenceStatus `db:"status" json:"status"`
	CreatedByID   *string              `db:"created_by_id" json:"createdById,omitempty"`
	CreatedAt     time.Time            `db:"created" json:"created"`
}

// AssigneeHistory records an internal user being assigned to an application.
type AssigneeHistory struct {
	ID                  string       `db:"id" json:"id"`
	ApplicationID       string       `db:"felling_licence_application_id" json:"applicationId"`
	AssignedUserID      string       `db:"assigned_user_id" json:"assignedUserId"`
	Role                AssignedRole `db:"role" json:"role"`
	TimestampAssigned   time.Time    `db:"timestamp_assigned" json:"timestampAssigned"`
	TimestampUnassigned *time.Time   `db:"timestamp_unassigned" json:"timestampUnassigned,omitempty"`
}

// Active reports whether the assignment is still open.
func (a AssigneeHistory) Active() bool {
	return a.TimestampUnassigned == nil
}
