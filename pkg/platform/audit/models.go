package audit

import (
	"time"

	id "rotalog/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance for the
	// training record. These require tamper-proof storage and long retention.
	// Examples: verification decisions, log submissions.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring.
	// Examples: failed admin token checks, unauthorized decide attempts.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational
	// visibility. These can be sampled with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	// ActorID is the reviewer or trainee who performed the action.
	ActorID string
	// InternID is the trainee whose record the event concerns.
	InternID id.InternID
	Action   string
	// Entity names the affected record kind, e.g. "LogEntry".
	Entity   string
	EntityID string
	// Reason carries the reviewer-supplied reason on rejections.
	Reason string
	// Detail carries free-form context, e.g. the previous and new status.
	Detail    string
	RequestID string
	IP        string
	UserAgent string
}

type AuditEvent string

const (
	// Verification events
	EventVerificationApproved      AuditEvent = "verification_approved"
	EventVerificationRejected      AuditEvent = "verification_rejected"
	EventVerificationNeedsRevision AuditEvent = "verification_needs_revision"

	// Logbook events
	EventLogSubmitted AuditEvent = "log_submitted"

	// Admin events
	EventCacheCleared     AuditEvent = "cache_cleared"
	EventAdminTokenDenied AuditEvent = "admin_token_denied"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	// Compliance events - the verifiable training record
	EventVerificationApproved:      CategoryCompliance,
	EventVerificationRejected:      CategoryCompliance,
	EventVerificationNeedsRevision: CategoryCompliance,
	EventLogSubmitted:              CategoryCompliance,

	// Security events
	EventAdminTokenDenied: CategorySecurity,

	// Operations events
	EventCacheCleared: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
