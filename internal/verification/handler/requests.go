package handler

// DecideRequest is the reviewer decision payload.
type DecideRequest struct {
	Status string `json:"status"`
	// Reason is required when status is REJECTED.
	Reason string `json:"reason,omitempty"`
}
