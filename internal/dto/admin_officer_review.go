package dto

import "github.com/noah-isme/felling-licence-api/internal/models"

// CheckUpdateRequest records the outcome of a single admin officer check.
type CheckUpdateRequest struct {
	Checked *bool `json:"checked"`
	Passed  *bool `json:"passed"`
}

// AssignWoodlandOfficerRequest assigns a woodland officer to the application.
type AssignWoodlandOfficerRequest struct {
	WoodlandOfficerID string `json:"woodlandOfficerId" validate:"required"`
}

// AdminOfficerReviewSummary is the task list view of an admin officer review.
type AdminOfficerReviewSummary struct {
	ApplicationID        string                                  `json:"applicationId"`
	ApplicationReference string                                  `json:"applicationReference"`
	CurrentStatus        models.FellingLicenceStatus             `json:"currentStatus"`
	ReviewComplete       bool                                    `json:"reviewComplete"`
	TaskList             models.AdminOfficerReviewTaskListStates `json:"taskList"`
}
