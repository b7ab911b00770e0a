// Package compliance records an immutable audit trail of EMR chart writes.
package compliance

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditEventType represents the type of chart audit event.
type AuditEventType string

const (
	// EventAppointmentCreated is logged when an appointment is created.
	EventAppointmentCreated AuditEventType = "chart.appointment_created"
	// EventAppointmentUpdated is logged when an appointment is updated.
	EventAppointmentUpdated AuditEventType = "chart.appointment_updated"
	// EventSurgHospHistoryAdded is logged when surgical/hospitalization rows are appended.
	EventSurgHospHistoryAdded AuditEventType = "chart.surg_hosp_history_added"
	// EventFamilyHistorySaved is logged when family history notes are saved.
	EventFamilyHistorySaved AuditEventType = "chart.family_history_saved"
	// EventSocialHistorySaved is logged when social history notes are saved.
	EventSocialHistorySaved AuditEventType = "chart.social_history_saved"
	// EventMedHxAllergiesUpdated is logged when medical history or allergies change.
	EventMedHxAllergiesUpdated AuditEventType = "chart.medhx_allergies_updated"
	// EventCredentialRegistered is logged when a credential set is stored.
	EventCredentialRegistered AuditEventType = "credential.registered"
)

// AuditEvent represents an immutable chart audit record. Free-text chart
// content is never stored here, only identifiers and shape metadata.
type AuditEvent struct {
	ID           string          `json:"id"`
	EventType    AuditEventType  `json:"event_type"`
	CredentialID string          `json:"credential_id"`
	PatientID    string          `json:"patient_id,omitempty"`
	EncounterID  string          `json:"encounter_id,omitempty"`
	Details      json.RawMessage `json:"details,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// AuditService handles chart audit logging.
type AuditService struct {
	db *sql.DB
}

// NewAuditService creates a new audit service.
func NewAuditService(db *sql.DB) *AuditService {
	return &AuditService{db: db}
}

// LogEvent records a chart audit event.
func (s *AuditService) LogEvent(ctx context.Context, event AuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO chart_audit_events (
			id, event_type, credential_id, patient_id, encounter_id, details, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.EventType,
		event.CredentialID,
		nullString(event.PatientID),
		nullString(event.EncounterID),
		event.Details,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("compliance: failed to log audit event: %w", err)
	}

	return nil
}

// LogChartWrite records one chart-section write with counted payload shape.
func (s *AuditService) LogChartWrite(ctx context.Context, eventType AuditEventType, credentialID, patientID, encounterID string, itemCounts map[string]int) error {
	var details json.RawMessage
	if len(itemCounts) > 0 {
		details, _ = json.Marshal(itemCounts)
	}
	return s.LogEvent(ctx, AuditEvent{
		EventType:    eventType,
		CredentialID: credentialID,
		PatientID:    patientID,
		EncounterID:  encounterID,
		Details:      details,
	})
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
