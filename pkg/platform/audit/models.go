package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	id "clinic/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose so sinks
// can apply different retention and routing.
type EventCategory string

const (
	// CategoryCompliance covers account and registry changes with legal weight.
	CategoryCompliance EventCategory = "compliance"
	// CategorySecurity covers authentication outcomes and account locks.
	CategorySecurity EventCategory = "security"
	// CategoryOperations covers routine activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from services to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	// UserID is the account the event is about, when there is one.
	UserID id.UserID
	// ActorID is who performed the action when different from UserID.
	ActorID string
	// Subject names the affected aggregate, e.g. "organization:<uuid>".
	Subject   string
	Action    string
	Reason    string
	Email     string
	RequestID string
	IP        string
	// Device is a short browser/OS summary derived from the User-Agent.
	Device string
}

type AuditEvent string

const (
	EventUserCreated         AuditEvent = "user_created"
	EventUserUpdated         AuditEvent = "user_updated"
	EventUserPasswordChanged AuditEvent = "user_password_changed"
	EventUserDeactivated     AuditEvent = "user_deactivated"
	EventUserReactivated     AuditEvent = "user_reactivated"
	EventUserBlocked         AuditEvent = "user_blocked"
	EventUserDeleted         AuditEvent = "user_deleted"

	EventLoginSucceeded AuditEvent = "login_succeeded"
	EventLoginFailed    AuditEvent = "login_failed"
	EventLoginLocked    AuditEvent = "login_locked"

	EventOrganizationCreated        AuditEvent = "organization_created"
	EventOrganizationUpdated        AuditEvent = "organization_updated"
	EventOrganizationDeactivated    AuditEvent = "organization_deactivated"
	EventOrganizationReactivated    AuditEvent = "organization_reactivated"
	EventOrganizationPhoneChanged   AuditEvent = "organization_phone_changed"
	EventProfessionalLinked         AuditEvent = "professional_linked"
	EventProfessionalUnlinked       AuditEvent = "professional_unlinked"
	EventOrganizationRosterExported AuditEvent = "organization_roster_exported"

	EventProfessionalCreated        AuditEvent = "professional_created"
	EventProfessionalUpdated        AuditEvent = "professional_updated"
	EventProfessionalDeactivated    AuditEvent = "professional_deactivated"
	EventProfessionalReactivated    AuditEvent = "professional_reactivated"
	EventProfessionalContactChanged AuditEvent = "professional_contact_changed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventUserCreated:                CategoryCompliance,
	EventUserDeleted:                CategoryCompliance,
	EventOrganizationCreated:        CategoryCompliance,
	EventProfessionalCreated:        CategoryCompliance,
	EventProfessionalLinked:         CategoryCompliance,
	EventProfessionalUnlinked:       CategoryCompliance,
	EventOrganizationRosterExported: CategoryCompliance,

	EventLoginFailed:         CategorySecurity,
	EventLoginSucceeded:      CategorySecurity,
	EventLoginLocked:         CategorySecurity,
	EventUserPasswordChanged: CategorySecurity,
	EventUserBlocked:         CategorySecurity,
	EventUserDeactivated:     CategorySecurity,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// OutboxEntry is an audit event waiting to be relayed to the message bus.
type OutboxEntry struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
}

// Payload is the JSON document relayed for each event.
type Payload struct {
	ID        string `json:"id"`
	Category  string `json:"category"`
	Timestamp string `json:"timestamp"`
	UserID    string `json:"user_id,omitempty"`
	ActorID   string `json:"actor_id,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Action    string `json:"action"`
	Reason    string `json:"reason,omitempty"`
	Email     string `json:"email,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	IP        string `json:"ip,omitempty"`
	Device    string `json:"device,omitempty"`
}

// NewOutboxEntry encodes event for the outbox. The aggregate is taken from
// Subject ("type:id"), then from UserID, and falls back to the entry itself.
func NewOutboxEntry(event Event, now time.Time) (OutboxEntry, error) {
	entryID := uuid.New()
	category := event.Category
	if category == "" {
		category = AuditEvent(event.Action).Category()
	}
	payload := Payload{
		ID:        entryID.String(),
		Category:  string(category),
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
		ActorID:   event.ActorID,
		Subject:   event.Subject,
		Action:    event.Action,
		Reason:    event.Reason,
		Email:     event.Email,
		RequestID: event.RequestID,
		IP:        event.IP,
		Device:    event.Device,
	}
	if !event.UserID.IsNil() {
		payload.UserID = event.UserID.String()
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return OutboxEntry{}, fmt.Errorf("marshal audit payload: %w", err)
	}

	entry := OutboxEntry{
		ID:            entryID,
		AggregateType: "audit",
		AggregateID:   entryID.String(),
		EventType:     event.Action,
		Payload:       raw,
		CreatedAt:     now,
	}
	switch {
	case event.Subject != "":
		if kind, key, ok := strings.Cut(event.Subject, ":"); ok {
			entry.AggregateType, entry.AggregateID = kind, key
		} else {
			entry.AggregateID = event.Subject
		}
	case !event.UserID.IsNil():
		entry.AggregateType, entry.AggregateID = "user", event.UserID.String()
	}
	return entry, nil
}
