package service

import "github.com/noah-isme/felling-licence-api/internal/models"

// TaskListInput carries the application facts the admin officer task list depends on.
type TaskListInput struct {
	IsAgentApplication        bool
	IsWoodlandOfficerAssigned bool
	AssignedToCurrentUser     bool
	ReviewEditable            bool
}

// ComputeAdminOfficerReviewStatus derives the per-step status of an admin officer review.
// A nil review means the review has not been started.
func ComputeAdminOfficerReviewStatus(review *models.AdminOfficerReview, in TaskListInput) models.AdminOfficerReviewTaskListStates {
	agentAuthority := agentAuthorityStepStatus(review, in.IsAgentApplication)
	mapping := review.Mapping().StepStatus()

	constraints := models.StepCannotStartYet
	if constraintsCheckCanStart(mapping, agentAuthority, in.IsAgentApplication) {
		constraints = review.Constraints().StepStatus()
	}

	assign := models.StepNotStarted
	if in.IsWoodlandOfficerAssigned {
		assign = models.StepCompleted
	}

	return models.AdminOfficerReviewTaskListStates{
		AgentApplication:             in.IsAgentApplication,
		AgentAuthorityFormStepStatus: agentAuthority,
		MappingCheckStepStatus:       mapping,
		ConstraintsCheckStepStatus:   constraints,
		AssignWoodlandOfficerStatus:  assign,
		AssignedToCurrentUser:        in.AssignedToCurrentUser,
		ReviewEditable:               in.ReviewEditable,
	}
}

func agentAuthorityStepStatus(review *models.AdminOfficerReview, isAgentApplication bool) models.ReviewStepStatus {
	// Non-agent applications have no authority form to check.
	if !isAgentApplication {
		return models.StepCompleted
	}
	return review.AgentAuthority().StepStatus()
}

func constraintsCheckCanStart(mapping, agentAuthority models.ReviewStepStatus, isAgentApplication bool) bool {
	if mapping != models.StepCompleted {
		return false
	}
	if isAgentApplication && agentAuthority != models.StepCompleted {
		return false
	}
	return true
}
