package models

import "time"

// ReviewStepStatus is the status of a single internal review step.
type ReviewStepStatus string

const (
	StepNotStarted     ReviewStepStatus = "NOT_STARTED"
	StepInProgress     ReviewStepStatus = "IN_PROGRESS"
	StepFailed         ReviewStepStatus = "FAILED"
	StepCompleted      ReviewStepStatus = "COMPLETED"
	StepCannotStartYet ReviewStepStatus = "CANNOT_START_YET"
)

// ReviewCheck names one of the recorded admin officer checks.
type ReviewCheck string

const (
	ReviewCheckAgentAuthority ReviewCheck = "agent_authority"
	ReviewCheckMapping        ReviewCheck = "mapping"
	ReviewCheckConstraints    ReviewCheck = "constraints"
)

// AdminOfficerReview stores the step outcomes recorded by the admin officer.
type AdminOfficerReview struct {
	ID                        string     `db:"id" json:"id"`
	ApplicationID             string     `db:"felling_licence_application_id" json:"applicationId"`
	AgentAuthorityFormChecked *bool      `db:"agent_authority_form_checked" json:"agentAuthorityFormChecked,omitempty"`
	AgentAuthorityCheckPassed *bool      `db:"agent_authority_check_passed" json:"agentAuthorityCheckPassed,omitempty"`
	MappingChecked            *bool      `db:"mapping_checked" json:"mappingChecked,omitempty"`
	MappingCheckPassed        *bool      `db:"mapping_check_passed" json:"mappingCheckPassed,omitempty"`
	ConstraintsChecked        *bool      `db:"constraints_checked" json:"constraintsChecked,omitempty"`
	ConstraintsCheckPassed    *bool      `db:"constraints_check_passed" json:"constraintsCheckPassed,omitempty"`
	ReviewComplete            bool       `db:"admin_officer_review_complete" json:"reviewComplete"`
	LastUpdatedByID           string     `db:"last_updated_by_id" json:"lastUpdatedById"`
	LastUpdatedDate           time.Time  `db:"last_updated_date" json:"lastUpdatedDate"`
	CompletedAt               *time.Time `db:"completed_at" json:"completedAt,omitempty"`
}

// AgentAuthority returns the tri-state of the agent authority form check.
func (r *AdminOfficerReview) AgentAuthority() CheckState {
	if r == nil {
		return CheckUnset
	}
	return NewCheckState(r.AgentAuthorityFormChecked, r.AgentAuthorityCheckPassed)
}

// Mapping returns the tri-state of the mapping check.
func (r *AdminOfficerReview) Mapping() CheckState {
	if r == nil {
		return CheckUnset
	}
	return NewCheckState(r.MappingChecked, r.MappingCheckPassed)
}

// Constraints returns the tri-state of the constraints check.
func (r *AdminOfficerReview) Constraints() CheckState {
	if r == nil {
		return CheckUnset
	}
	return NewCheckState(r.ConstraintsChecked, r.ConstraintsCheckPassed)
}

// SetCheck records the outcome of a single check and leaves the others untouched.
// It reports false for an unknown check.
func (r *AdminOfficerReview) SetCheck(check ReviewCheck, checked, passed *bool) bool {
	switch check {
	case ReviewCheckAgentAuthority:
		r.AgentAuthorityFormChecked, r.AgentAuthorityCheckPassed = checked, passed
	case ReviewCheckMapping:
		r.MappingChecked, r.MappingCheckPassed = checked, passed
	case ReviewCheckConstraints:
		r.ConstraintsChecked, r.ConstraintsCheckPassed = checked, passed
	default:
		return false
	}
	return true
}

// AdminOfficerReviewTaskListStates bundles one status per admin officer review step.
type AdminOfficerReviewTaskListStates struct {
	AgentApplication             bool             `json:"agentApplication"`
	AgentAuthorityFormStepStatus ReviewStepStatus `json:"agentAuthorityFormStepStatus"`
	MappingCheckStepStatus       ReviewStepStatus `json:"mappingCheckStepStatus"`
	ConstraintsCheckStepStatus   ReviewStepStatus `json:"constraintsCheckStepStatus"`
	AssignWoodlandOfficerStatus  ReviewStepStatus `json:"assignWoodlandOfficerStatus"`
	AssignedToCurrentUser        bool             `json:"assignedToCurrentUser"`
	ReviewEditable               bool             `json:"reviewEditable"`
}

// AllComplete reports whether every step has been completed.
func (s AdminOfficerReviewTaskListStates) AllComplete() bool {
	return s.AgentAuthorityFormStepStatus == StepCompleted &&
		s.MappingCheckStepStatus == StepCompleted &&
		s.ConstraintsCheckStepStatus == StepCompleted &&
		s.AssignWoodlandOfficerStatus == StepCompleted
}
