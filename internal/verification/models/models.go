// Package models defines the verification record and its state machine
// vocabulary.
package models

import (
	"time"

	id "rotalog/pkg/domain"
)

// Status is the verification state. PENDING is the only initial state; the
// three decision states are terminal; there is no reopen operation.
type Status string

const (
	StatusPending       Status = "PENDING"
	StatusApproved      Status = "APPROVED"
	StatusRejected      Status = "REJECTED"
	StatusNeedsRevision Status = "NEEDS_REVISION"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusNeedsRevision:
		return true
	}
	return false
}

// Decided reports whether s is a terminal decision state.
func (s Status) Decided() bool {
	return s.Valid() && s != StatusPending
}

// Unresolved reports whether s still counts toward a trainee's pending work:
// PENDING awaits a decision, NEEDS_REVISION awaits a corrected resubmission.
func (s Status) Unresolved() bool {
	return s == StatusPending || s == StatusNeedsRevision
}

// Verification is the reviewer decision object attached 1:1 to a log entry.
// VerifierID stays nil until a decision is made. Reason is required exactly
// when the status is REJECTED.
type Verification struct {
	ID         id.VerificationID
	LogEntryID id.LogEntryID
	VerifierID *id.VerifierID
	Status     Status
	Reason     string
	// Timestamp is set on creation and on every transition.
	Timestamp time.Time
}

// NewPending constructs the initial verification record for a log entry.
func NewPending(verificationID id.VerificationID, logEntryID id.LogEntryID, now time.Time) *Verification {
	return &Verification{
		ID:         verificationID,
		LogEntryID: logEntryID,
		Status:     StatusPending,
		Timestamp:  now,
	}
}

// TransitionResult reports a successfully applied decision. The caller uses
// it to drive cache invalidation and audit emission.
type TransitionResult struct {
	PreviousStatus Status
	NewStatus      Status
	LogEntryID     id.LogEntryID
	InternID       id.InternID
	ProcedureID    id.ProcedureID
}
