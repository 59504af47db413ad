package handler

import (
	"time"

	"rotalog/internal/verification/models"
)

// DecideResponse reports an applied decision.
type DecideResponse struct {
	LogEntryID     string `json:"log_entry_id"`
	PreviousStatus string `json:"previous_status"`
	NewStatus      string `json:"new_status"`
}

func FromTransitionResult(result *models.TransitionResult) DecideResponse {
	return DecideResponse{
		LogEntryID:     result.LogEntryID.String(),
		PreviousStatus: string(result.PreviousStatus),
		NewStatus:      string(result.NewStatus),
	}
}

// VerificationResponse is the read view of a verification record.
type VerificationResponse struct {
	ID         string    `json:"id"`
	LogEntryID string    `json:"log_entry_id"`
	VerifierID string    `json:"verifier_id,omitempty"`
	Status     string    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func FromVerification(v *models.Verification) VerificationResponse {
	resp := VerificationResponse{
		ID:         v.ID.String(),
		LogEntryID: v.LogEntryID.String(),
		Status:     string(v.Status),
		Reason:     v.Reason,
		Timestamp:  v.Timestamp,
	}
	if v.VerifierID != nil {
		resp.VerifierID = v.VerifierID.String()
	}
	return resp
}
