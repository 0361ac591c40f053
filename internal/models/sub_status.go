package models

import (
	"sort"
	"time"
)

// SubStatus is a non-exclusive tag overlaid on the woodland officer review status.
type SubStatus string

const (
	SubStatusAmendmentsWithApplicant SubStatus = "AMENDMENTS_WITH_APPLICANT"
	SubStatusOnPublicRegister        SubStatus = "ON_PUBLIC_REGISTER"
	SubStatusConsultation            SubStatus = "CONSULTATION"
)

// SubStatusSet is an unordered collection of sub-statuses.
type SubStatusSet map[SubStatus]struct{}

// Has reports whether the tag is present.
func (s SubStatusSet) Has(tag SubStatus) bool {
	_, ok := s[tag]
	return ok
}

// Sorted returns the tags in lexical order for stable output.
func (s SubStatusSet) Sorted() []SubStatus {
	out := make([]SubStatus, 0, len(s))
	for tag := range s {
		out = append(out, tag)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ApplicationSnapshot is the fully loaded state of an application at a point in time.
type ApplicationSnapshot struct {
	Application           FellingLicenceApplication
	StatusHistories       []StatusHistory
	AssigneeHistories     []AssigneeHistory
	AdminOfficerReview    *AdminOfficerReview
	WoodlandOfficerReview *WoodlandOfficerReview
	PublicRegister        *PublicRegister
	ExternalAccessLinks   []ExternalAccessLink
}

// CurrentStatus returns the status of the most recently created history entry.
func (a *ApplicationSnapshot) CurrentStatus() (FellingLicenceStatus, bool) {
	if a == nil || len(a.StatusHistories) == 0 {
		return "", false
	}
	latest := a.StatusHistories[0]
	for _, entry := range a.StatusHistories[1:] {
		if entry.CreatedAt.After(latest.CreatedAt) {
			latest = entry
		}
	}
	return latest.Status, true
}

// ActiveAssignee returns the open assignment for the role, if any.
func (a *ApplicationSnapshot) ActiveAssignee(role AssignedRole) (AssigneeHistory, bool) {
	if a == nil {
		return AssigneeHistory{}, false
	}
	var (
		found  AssigneeHistory
		latest time.Time
		ok     bool
	)
	for _, entry := range a.AssigneeHistories {
		if entry.Role != role || !entry.Active() {
			continue
		}
		if !ok || entry.TimestampAssigned.After(latest) {
			found, latest, ok = entry, entry.TimestampAssigned, true
		}
	}
	return found, ok
}
