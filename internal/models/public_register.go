package models

import "time"

// PublicRegister holds consultation public register publication state.
type PublicRegister struct {
	ID                               string     `db:"id" json:"id"`
	ApplicationID                    string     `db:"felling_licence_application_id" json:"applicationId"`
	ConsultationPublicationTimestamp *time.Time `db:"consultation_public_register_publication_timestamp" json:"consultationPublicationTimestamp,omitempty"`
	ConsultationExpiryTimestamp      *time.Time `db:"consultation_public_register_expiry_timestamp" json:"consultationExpiryTimestamp,omitempty"`
	ConsultationRemovedTimestamp     *time.Time `db:"consultation_public_register_removed_timestamp" json:"consultationRemovedTimestamp,omitempty"`
}

// OnConsultationRegister reports whether the application is published and not yet taken down.
func (p *PublicRegister) OnConsultationRegister() bool {
	return p != nil && p.ConsultationPublicationTimestamp != nil && p.ConsultationRemovedTimestamp == nil
}
