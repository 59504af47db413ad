// Package domain defines typed identifiers shared across modules.
//
// Each ID is a distinct UUID-backed type so the compiler rejects cross-type
// assignment (an InternID can never be passed where a VerifierID is expected).
// Parse helpers enforce the trust-boundary invariant: IDs must be valid,
// non-empty, non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "rotalog/pkg/domain-errors"
)

type (
	// InternID identifies a trainee who submits procedure logs.
	InternID uuid.UUID

	// VerifierID identifies a reviewer (tutor or admin) who decides logs.
	VerifierID uuid.UUID

	// RotationID identifies a clinical training block.
	RotationID uuid.UUID

	// ProcedureID identifies a clinical skill within a rotation.
	ProcedureID uuid.UUID

	// LogEntryID identifies a single submitted procedure log.
	LogEntryID uuid.UUID

	// VerificationID identifies the decision record attached to a log entry.
	VerificationID uuid.UUID
)

func (id InternID) String() string       { return uuid.UUID(id).String() }
func (id VerifierID) String() string     { return uuid.UUID(id).String() }
func (id RotationID) String() string     { return uuid.UUID(id).String() }
func (id ProcedureID) String() string    { return uuid.UUID(id).String() }
func (id LogEntryID) String() string     { return uuid.UUID(id).String() }
func (id VerificationID) String() string { return uuid.UUID(id).String() }

// IsZero reports whether the ID is the nil UUID.
func (id InternID) IsZero() bool       { return uuid.UUID(id) == uuid.Nil }
func (id VerifierID) IsZero() bool     { return uuid.UUID(id) == uuid.Nil }
func (id RotationID) IsZero() bool     { return uuid.UUID(id) == uuid.Nil }
func (id ProcedureID) IsZero() bool    { return uuid.UUID(id) == uuid.Nil }
func (id LogEntryID) IsZero() bool     { return uuid.UUID(id) == uuid.Nil }
func (id VerificationID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

// NewInternID returns a fresh random InternID.
func NewInternID() InternID { return InternID(uuid.New()) }

// NewVerifierID returns a fresh random VerifierID.
func NewVerifierID() VerifierID { return VerifierID(uuid.New()) }

// NewRotationID returns a fresh random RotationID.
func NewRotationID() RotationID { return RotationID(uuid.New()) }

// NewProcedureID returns a fresh random ProcedureID.
func NewProcedureID() ProcedureID { return ProcedureID(uuid.New()) }

// NewLogEntryID returns a fresh random LogEntryID.
func NewLogEntryID() LogEntryID { return LogEntryID(uuid.New()) }

// NewVerificationID returns a fresh random VerificationID.
func NewVerificationID() VerificationID { return VerificationID(uuid.New()) }

// MarshalText implements encoding.TextMarshaler so IDs render in canonical
// UUID form in JSON payloads.
func (id InternID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id VerifierID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id RotationID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id ProcedureID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id LogEntryID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id VerificationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *InternID) UnmarshalText(text []byte) error {
	parsed, err := parseUUID(string(text), "intern")
	*id = InternID(parsed)
	return err
}

func (id *VerifierID) UnmarshalText(text []byte) error {
	parsed, err := parseUUID(string(text), "verifier")
	*id = VerifierID(parsed)
	return err
}

func (id *RotationID) UnmarshalText(text []byte) error {
	parsed, err := parseUUID(string(text), "rotation")
	*id = RotationID(parsed)
	return err
}

func (id *ProcedureID) UnmarshalText(text []byte) error {
	parsed, err := parseUUID(string(text), "procedure")
	*id = ProcedureID(parsed)
	return err
}

func (id *LogEntryID) UnmarshalText(text []byte) error {
	parsed, err := parseUUID(string(text), "log entry")
	*id = LogEntryID(parsed)
	return err
}

func (id *VerificationID) UnmarshalText(text []byte) error {
	parsed, err := parseUUID(string(text), "verification")
	*id = VerificationID(parsed)
	return err
}

// parseUUID is the single validation point for all typed ID parsers.
func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id must not be empty")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id must not be the nil UUID")
	}
	return parsed, nil
}

// ParseInternID parses and validates a trainee ID from its string form.
func ParseInternID(raw string) (InternID, error) {
	parsed, err := parseUUID(raw, "intern")
	return InternID(parsed), err
}

// ParseVerifierID parses and validates a reviewer ID from its string form.
func ParseVerifierID(raw string) (VerifierID, error) {
	parsed, err := parseUUID(raw, "verifier")
	return VerifierID(parsed), err
}

// ParseRotationID parses and validates a rotation ID from its string form.
func ParseRotationID(raw string) (RotationID, error) {
	parsed, err := parseUUID(raw, "rotation")
	return RotationID(parsed), err
}

// ParseProcedureID parses and validates a procedure ID from its string form.
func ParseProcedureID(raw string) (ProcedureID, error) {
	parsed, err := parseUUID(raw, "procedure")
	return ProcedureID(parsed), err
}

// ParseLogEntryID parses and validates a log entry ID from its string form.
func ParseLogEntryID(raw string) (LogEntryID, error) {
	parsed, err := parseUUID(raw, "log entry")
	return LogEntryID(parsed), err
}

// ParseVerificationID parses and validates a verification ID from its string form.
func ParseVerificationID(raw string) (VerificationID, error) {
	parsed, err := parseUUID(raw, "verification")
	return VerificationID(parsed), err
}
