package dto

// PublishToRegisterRequest publishes an application to the consultation public register.
type PublishToRegisterRequest struct {
	PeriodDays int `json:"periodDays" validate:"omitempty,min=1,max=365"`
}
