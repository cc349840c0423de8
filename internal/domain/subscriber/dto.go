package subscriber

// RegisterRequest is the body of POST /subscribers
type RegisterRequest struct {
	Name  string  `json:"name" validate:"required,min=2,max=200"`
	TaxID string  `json:"tax_id" validate:"required,taxid"`
	Email string  `json:"email" validate:"required,email"`
	Phone *string `json:"phone" validate:"omitempty,min=8,max=20"`
}

// SetStatusRequest is the body of PATCH /admin/subscribers/{id}/status
type SetStatusRequest struct {
	Status Status `json:"status" validate:"required,subscriber_status"`
}

// PushTokenRequest is the body of PUT /subscribers/me/push-token
type PushTokenRequest struct {
	Token string `json:"token" validate:"max=4096"`
}

// MeResponse is the subscriber profile with derived plan info.
type MeResponse struct {
	*Subscriber
	DaysRemaining int `json:"days_remaining"`
}
