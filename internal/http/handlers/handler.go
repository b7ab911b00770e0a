// Package handlers exposes the bridge's REST surface over the ECW client.
package handlers

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/carebridge/ecw-bridge/internal/compliance"
	"github.com/carebridge/ecw-bridge/internal/credentials"
	"github.com/carebridge/ecw-bridge/internal/ecw"
	"github.com/carebridge/ecw-bridge/pkg/logging"
)

// ECWClient is the upstream surface the handlers call. The concrete client
// is bound to one credential set, so a fresh one is built per request from
// the tokens the credential middleware resolved.
type ECWClient interface {
	GetFacilities(ctx context.Context) (map[string]any, error)
	GetProviders(ctx context.Context, page int) (map[string]any, error)
	GetProviderByName(ctx context.Context, name string) (map[string]any, error)
	GetReasons(ctx context.Context) (map[string]any, error)
	SearchAllergies(ctx context.Context, searchText, limit string) (map[string]any, error)
	GetAppointments(ctx context.Context, req ecw.GetAppointmentsRequest) (map[string]any, error)
	SaveAppointment(ctx context.Context, req ecw.AppointmentRequest) (map[string]any, error)
	SearchPatients(ctx context.Context, req ecw.GetPatientsRequest) (map[string]any, error)
	GetProgressNotes(ctx context.Context, encounterID string) (*ecw.ProgressNote, error)
	AddSurgicalHospitalizationItems(ctx context.Context, req ecw.AddSurgHospItemsRequest) (*ecw.SurgHospResult, error)
	AddFamilyHistoryNote(ctx context.Context, req ecw.AddFamilyHistoryNoteRequest) (*ecw.NoteSaveResult, error)
	AddSocialHistoryNote(ctx context.Context, req ecw.AddSocialHistoryNoteRequest) (any, error)
	UpdateMedHxAllergies(ctx context.Context, req ecw.UpdateMedHxAllergiesRequest) (*ecw.MedHxAllergiesResult, error)
}

// ClientFactory builds an upstream client bound to one token set.
type ClientFactory func(tokens ecw.AuthTokens) (ECWClient, error)

// Auditor is the slice of the compliance service the handlers use.
type Auditor interface {
	LogChartWrite(ctx context.Context, eventType compliance.AuditEventType, credentialID, patientID, encounterID string, itemCounts map[string]int) error
}

// Handler serves the bridge's REST endpoints.
type Handler struct {
	creds     *credentials.Service
	newClient ClientFactory
	audit     Auditor
	validate  *validator.Validate
	logger    *logging.Logger
}

// New wires the handler set. audit may be nil; chart writes then go
// unaudited (dev setups without Postgres).
func New(creds *credentials.Service, factory ClientFactory, audit Auditor, logger *logging.Logger) *Handler {
	if factory == nil {
		panic("handlers: client factory required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		creds:     creds,
		newClient: factory,
		audit:     audit,
		validate:  validator.New(),
		logger:    logger,
	}
}

// client builds the upstream client for the request's resolved tokens.
func (h *Handler) client(ctx context.Context) (ECWClient, bool) {
	tokens, ok := credentials.TokensFromContext(ctx)
	if !ok {
		return nil, false
	}
	c, err := h.newClient(tokens)
	if err != nil {
		h.logger.Error("failed to build upstream client", "error", err)
		return nil, false
	}
	return c, true
}

// recordChartWrite audits a successful chart write; failures are logged but
// never fail the request that already hit the EMR.
func (h *Handler) recordChartWrite(ctx context.Context, eventType compliance.AuditEventType, credentialID, patientID, encounterID string, counts map[string]int) {
	if h.audit == nil {
		return
	}
	if err := h.audit.LogChartWrite(ctx, eventType, credentialID, patientID, encounterID, counts); err != nil {
		h.logger.Error("failed to record chart audit event", "error", err, "event_type", string(eventType))
	}
}
