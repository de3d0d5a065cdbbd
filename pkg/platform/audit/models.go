package audit

import (
	"time"

	id "clinica/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance.
	// These require tamper-proof storage and long retention.
	// Examples: tenant registration, record creation in a medical context.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring and
	// forensics. These feed into SIEM systems and alerting pipelines.
	// Examples: scope binding failures, operator bypass usage, suspensions.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational
	// visibility. These can be sampled or aggregated with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	TenantID  id.TenantID
	Action    string
	Subject   string
	Reason    string
	RequestID string
	// ActorID tracks who performed the action. For tenant-facing calls this
	// is the authenticated user; for operator calls it is "operator".
	ActorID string
	// Scope records the data-access scope the action ran under: the tenant
	// id, or "all:<reason>" for operator bypass.
	Scope string
}

type AuditEvent string

const (
	// Tenant lifecycle events
	EventTenantRegistered  AuditEvent = "tenant_registered"
	EventTenantSuspended   AuditEvent = "tenant_suspended"
	EventTenantReactivated AuditEvent = "tenant_reactivated"
	EventTenantCancelled   AuditEvent = "tenant_cancelled"

	// Clinical record events
	EventDoctorCreated      AuditEvent = "doctor_created"
	EventPatientCreated     AuditEvent = "patient_created"
	EventAppointmentCreated AuditEvent = "appointment_created"
	EventCatalogItemCreated AuditEvent = "catalog_item_created"

	// Isolation and scope events
	EventOperatorBypassUsed  AuditEvent = "operator_bypass_used"
	EventScopeBindingFailed  AuditEvent = "scope_binding_failed"
	EventCrossTenantRejected AuditEvent = "cross_tenant_rejected"
	EventPlanLimitExceeded   AuditEvent = "plan_limit_exceeded"
	EventSharedCatalogSeeded AuditEvent = "shared_catalog_seeded"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	// Compliance events - require tamper-proof storage
	EventTenantRegistered:   CategoryCompliance,
	EventDoctorCreated:      CategoryCompliance,
	EventPatientCreated:     CategoryCompliance,
	EventAppointmentCreated: CategoryCompliance,

	// Security events - feed into SIEM and alerting
	EventTenantSuspended:     CategorySecurity,
	EventTenantCancelled:     CategorySecurity,
	EventOperatorBypassUsed:  CategorySecurity,
	EventScopeBindingFailed:  CategorySecurity,
	EventCrossTenantRejected: CategorySecurity,

	// Operations events - routine activity, can be sampled
	EventTenantReactivated:   CategoryOperations,
	EventCatalogItemCreated:  CategoryOperations,
	EventPlanLimitExceeded:   CategoryOperations,
	EventSharedCatalogSeeded: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
