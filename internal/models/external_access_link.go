package models

import "time"

// ExternalAccessLink grants a consultee time-limited access to an application.
type ExternalAccessLink struct {
	ID             string    `db:"id" json:"id"`
	ApplicationID  string    `db:"felling_licence_application_id" json:"applicationId"`
	Name           string    `db:"name" json:"name"`
	ContactEmail   string    `db:"contact_email" json:"contactEmail"`
	Purpose        string    `db:"purpose" json:"purpose"`
	AccessCodeHash string    `db:"access_code_hash" json:"-"`
	CreatedByID    string    `db:"created_by_id" json:"createdById"`
	CreatedAt      time.Time `db:"created_timestamp" json:"createdTimestamp"`
	ExpiresAt      time.Time `db:"expires_timestamp" json:"expiresTimestamp"`
}
