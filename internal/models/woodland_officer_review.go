package models

import "time"

// WoodlandOfficerReview tracks progress of the woodland officer stage.
type WoodlandOfficerReview struct {
	ID                    string            `db:"id" json:"id"`
	ApplicationID         string            `db:"felling_licence_application_id" json:"applicationId"`
	ConsultationsComplete bool              `db:"consultations_complete" json:"consultationsComplete"`
	LastUpdatedByID       string            `db:"last_updated_by_id" json:"lastUpdatedById"`
	LastUpdatedDate       time.Time         `db:"last_updated_date" json:"lastUpdatedDate"`
	AmendmentReviews      []AmendmentReview `db:"-" json:"amendmentReviews"`
}

// AmendmentReview is a round of felling and restocking amendments sent to the applicant.
type AmendmentReview struct {
	ID                        string     `db:"id" json:"id"`
	WoodlandOfficerReviewID   string     `db:"woodland_officer_review_id" json:"woodlandOfficerReviewId"`
	AmendmentsSentDate        time.Time  `db:"amendments_sent_date" json:"amendmentsSentDate"`
	ResponseDeadline          *time.Time `db:"response_deadline" json:"responseDeadline,omitempty"`
	ApplicantAgreed           *bool      `db:"applicant_agreed" json:"applicantAgreed,omitempty"`
	ApplicantDisagreementNote *string    `db:"applicant_disagreement_reason" json:"applicantDisagreementReason,omitempty"`
	AmendmentReviewCompleted  *bool      `db:"amendment_review_completed" json:"amendmentReviewCompleted,omitempty"`
	CompletedAt               *time.Time `db:"completed_at" json:"completedAt,omitempty"`
}

// Outstanding reports whether the amendment review is explicitly not completed.
func (a AmendmentReview) Outstanding() bool {
	return a.AmendmentReviewCompleted != nil && !*a.AmendmentReviewCompleted
}
