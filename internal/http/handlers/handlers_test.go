package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/ecw-bridge/internal/compliance"
	"github.com/carebridge/ecw-bridge/internal/credentials"
	"github.com/carebridge/ecw-bridge/internal/ecw"
	"github.com/carebridge/ecw-bridge/pkg/logging"
)

// fakeECW answers every upstream call from canned values.
type fakeECW struct {
	facilities map[string]any
	err        error
	saveReqs   []ecw.AppointmentRequest
}

func (f *fakeECW) GetFacilities(ctx context.Context) (map[string]any, error) {
	return f.facilities, f.err
}

func (f *fakeECW) GetProviders(ctx context.Context, page int) (map[string]any, error) {
	return map[string]any{"page": page}, f.err
}

func (f *fakeECW) GetProviderByName(ctx context.Context, name string) (map[string]any, error) {
	return map[string]any{"looked_up": name}, f.err
}

func (f *fakeECW) GetReasons(ctx context.Context) (map[string]any, error) {
	return map[string]any{"reasons": []any{}}, f.err
}

func (f *fakeECW) SearchAllergies(ctx context.Context, searchText, limit string) (map[string]any, error) {
	return map[string]any{"search": searchText, "limit": limit}, f.err
}

func (f *fakeECW) GetAppointments(ctx context.Context, req ecw.GetAppointmentsRequest) (map[string]any, error) {
	return map[string]any{"provider_id": req.ProviderID}, f.err
}

func (f *fakeECW) SaveAppointment(ctx context.Context, req ecw.AppointmentRequest) (map[string]any, error) {
	f.saveReqs = append(f.saveReqs, req)
	return map[string]any{"status": "saved"}, f.err
}

func (f *fakeECW) SearchPatients(ctx context.Context, req ecw.GetPatientsRequest) (map[string]any, error) {
	return map[string]any{"last_name": req.LastName}, f.err
}

func (f *fakeECW) GetProgressNotes(ctx context.Context, encounterID string) (*ecw.ProgressNote, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ecw.ProgressNote{EncounterID: encounterID}, nil
}

func (f *fakeECW) AddSurgicalHospitalizationItems(ctx context.Context, req ecw.AddSurgHospItemsRequest) (*ecw.SurgHospResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ecw.SurgHospResult{Response: "ok"}, nil
}

func (f *fakeECW) AddFamilyHistoryNote(ctx context.Context, req ecw.AddFamilyHistoryNoteRequest) (*ecw.NoteSaveResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ecw.NoteSaveResult{Status: "success"}, nil
}

func (f *fakeECW) AddSocialHistoryNote(ctx context.Context, req ecw.AddSocialHistoryNoteRequest) (any, error) {
	return map[string]any{"status": "ok"}, f.err
}

func (f *fakeECW) UpdateMedHxAllergies(ctx context.Context, req ecw.UpdateMedHxAllergiesRequest) (*ecw.MedHxAllergiesResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ecw.MedHxAllergiesResult{}, nil
}

type fakeAuditor struct {
	events []compliance.AuditEventType
}

func (a *fakeAuditor) LogChartWrite(ctx context.Context, eventType compliance.AuditEventType, credentialID, patientID, encounterID string, itemCounts map[string]int) error {
	a.events = append(a.events, eventType)
	return nil
}

type stubRepo struct {
	cred          *credentials.Credential
	statusUpdates []string
}

func (r *stubRepo) Create(ctx context.Context, req *credentials.AddCredentialsRequest, status string) (*credentials.Credential, error) {
	cred := &credentials.Credential{
		ID:         "cred-1",
		Label:      req.Label,
		Cookie:     req.Cookie,
		CSRFToken:  req.CSRFToken,
		SessionDID: req.SessionDID,
		TrUserID:   req.TrUserID,
		Status:     status,
		CreatedAt:  time.Now().UTC(),
	}
	r.cred = cred
	return cred, nil
}

func (r *stubRepo) GetByID(ctx context.Context, id string) (*credentials.Credential, error) {
	if r.cred == nil || r.cred.ID != id {
		return nil, credentials.ErrCredentialNotFound
	}
	return r.cred, nil
}

func (r *stubRepo) UpdateStatus(ctx context.Context, id, status string) error {
	r.statusUpdates = append(r.statusUpdates, id+"="+status)
	return nil
}

var handlerTokens = ecw.AuthTokens{
	Cookie:     "JSESSIONID=abc",
	CSRFToken:  "csrf",
	SessionDID: "9917",
	TrUserID:   "452",
}

func newTestHandler(fake *fakeECW, audit Auditor, verify credentials.Verifier) *Handler {
	if verify == nil {
		verify = func(ctx context.Context, tokens ecw.AuthTokens) error { return nil }
	}
	creds := credentials.NewService(&stubRepo{}, nil, verify, logging.New("error"), nil)
	factory := func(tokens ecw.AuthTokens) (ECWClient, error) { return fake, nil }
	return New(creds, factory, audit, logging.New("error"))
}

// authedRequest builds a request whose context already carries tokens, the
// way the credential middleware leaves it.
func authedRequest(method, target string, body []byte) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set(credentials.HeaderCredentialID, "cred-1")
	return req.WithContext(credentials.WithTokens(req.Context(), handlerTokens))
}

func TestFacilities(t *testing.T) {
	h := newTestHandler(&fakeECW{facilities: map[string]any{"facilities": []any{}}}, nil, nil)
	rec := httptest.NewRecorder()
	h.Facilities(rec, authedRequest(http.MethodGet, "/facilities", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"facilities": []}`, rec.Body.String())
}

func TestFacilitiesUpstream4xxPassthrough(t *testing.T) {
	fake := &fakeECW{err: &ecw.APIError{Status: http.StatusForbidden, Detail: map[string]any{"error": "expired"}}}
	h := newTestHandler(fake, nil, nil)
	rec := httptest.NewRecorder()
	h.Facilities(rec, authedRequest(http.MethodGet, "/facilities", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "error")
}

func TestFacilitiesUpstream5xxTranslated(t *testing.T) {
	fake := &fakeECW{err: &ecw.IntegrationError{Integration: "ecw", Message: "down", Status: 501, Code: "502"}}
	h := newTestHandler(fake, nil, nil)
	rec := httptest.NewRecorder()
	h.Facilities(rec, authedRequest(http.MethodGet, "/facilities", nil))

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestUpstreamAuthRejectionMarksCredentialFailed(t *testing.T) {
	repo := &stubRepo{}
	creds := credentials.NewService(repo, nil,
		func(ctx context.Context, tokens ecw.AuthTokens) error { return nil },
		logging.New("error"), nil)
	fake := &fakeECW{err: &ecw.APIError{Status: http.StatusUnauthorized, Detail: "session expired"}}
	h := New(creds,
		func(tokens ecw.AuthTokens) (ECWClient, error) { return fake, nil },
		nil, logging.New("error"))

	rec := httptest.NewRecorder()
	h.Facilities(rec, authedRequest(http.MethodGet, "/facilities", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	// The dead session must demote the credential so later calls fail fast.
	require.Len(t, repo.statusUpdates, 1)
	assert.Equal(t, "cred-1="+credentials.StatusFailed, repo.statusUpdates[0])
}

func TestUpstreamServerErrorKeepsCredential(t *testing.T) {
	repo := &stubRepo{}
	creds := credentials.NewService(repo, nil,
		func(ctx context.Context, tokens ecw.AuthTokens) error { return nil },
		logging.New("error"), nil)
	fake := &fakeECW{err: &ecw.IntegrationError{Integration: "ecw", Message: "down", Status: 501, Code: "GW02"}}
	h := New(creds,
		func(tokens ecw.AuthTokens) (ECWClient, error) { return fake, nil },
		nil, logging.New("error"))

	rec := httptest.NewRecorder()
	h.Facilities(rec, authedRequest(http.MethodGet, "/facilities", nil))

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	assert.Empty(t, repo.statusUpdates)
}

func TestProvidersLookupByName(t *testing.T) {
	h := newTestHandler(&fakeECW{}, nil, nil)
	rec := httptest.NewRecorder()
	h.Providers(rec, authedRequest(http.MethodGet, "/providers?name=Dr.+Wong", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Dr. Wong")
}

func TestProvidersPaged(t *testing.T) {
	h := newTestHandler(&fakeECW{}, nil, nil)
	rec := httptest.NewRecorder()
	h.Providers(rec, authedRequest(http.MethodGet, "/providers?page=3", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"page": 3}`, rec.Body.String())
}

func TestVisitTypes(t *testing.T) {
	h := newTestHandler(&fakeECW{}, nil, nil)
	rec := httptest.NewRecorder()
	h.VisitTypes(rec, authedRequest(http.MethodGet, "/visit-types", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string][]ecw.VisitType
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["visit_types"])
}

func TestAllergiesRequiresSearchText(t *testing.T) {
	h := newTestHandler(&fakeECW{}, nil, nil)
	rec := httptest.NewRecorder()
	h.Allergies(rec, authedRequest(http.MethodGet, "/allergies", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAllergies(t *testing.T) {
	h := newTestHandler(&fakeECW{}, nil, nil)
	rec := httptest.NewRecorder()
	h.Allergies(rec, authedRequest(http.MethodGet, "/allergies?searchText=penicillin&limit=5", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"search": "penicillin", "limit": "5"}`, rec.Body.String())
}

func TestGetAppointmentsRequiresProvider(t *testing.T) {
	h := newTestHandler(&fakeECW{}, nil, nil)
	rec := httptest.NewRecorder()
	h.GetAppointments(rec, authedRequest(http.MethodGet, "/get-appointments", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPatientsRequiresLastName(t *testing.T) {
	h := newTestHandler(&fakeECW{}, nil, nil)
	rec := httptest.NewRecorder()
	h.GetPatients(rec, authedRequest(http.MethodGet, "/get-patients", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProgressNotes(t *testing.T) {
	h := newTestHandler(&fakeECW{}, nil, nil)
	rec := httptest.NewRecorder()
	h.ProgressNotes(rec, authedRequest(http.MethodGet, "/progress_notes?encounter_id=555", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var note ecw.ProgressNote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &note))
	assert.Equal(t, "555", note.EncounterID)
}

func validAppointmentBody(t *testing.T, encounterID string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]string{
		"patient_name":  "Rivera, Ana",
		"date":          "09/01/2026",
		"start_time":    "09:00 AM",
		"end_time":      "09:30 AM",
		"provider":      "Dr. Wong",
		"facility_name": "Downtown Clinic",
		"reason":        "Follow Up",
		"visit_type":    "Office Visit",
		"encounter_id":  encounterID,
	})
	require.NoError(t, err)
	return body
}

func TestCreateAppointment(t *testing.T) {
	fake := &fakeECW{}
	audit := &fakeAuditor{}
	h := newTestHandler(fake, audit, nil)
	rec := httptest.NewRecorder()
	h.CreateAppointment(rec, authedRequest(http.MethodPost, "/create-appointment", validAppointmentBody(t, "555")))

	assert.Equal(t, http.StatusOK, rec.Code)
	// Create ignores a stray encounter_id; that path belongs to update.
	require.Len(t, fake.saveReqs, 1)
	assert.Empty(t, fake.saveReqs[0].EncounterID)
	assert.Equal(t, []compliance.AuditEventType{compliance.EventAppointmentCreated}, audit.events)
}

func TestCreateAppointmentValidation(t *testing.T) {
	h := newTestHandler(&fakeECW{}, nil, nil)
	rec := httptest.NewRecorder()
	h.CreateAppointment(rec, authedRequest(http.MethodPost, "/create-appointment", []byte(`{"patient_name": "Rivera, Ana"}`)))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_fields")
}

func TestUpdateAppointmentRequiresEncounterID(t *testing.T) {
	h := newTestHandler(&fakeECW{}, nil, nil)
	rec := httptest.NewRecorder()
	h.UpdateAppointment(rec, authedRequest(http.MethodPost, "/update-appointment", validAppointmentBody(t, "")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAppointment(t *testing.T) {
	fake := &fakeECW{}
	audit := &fakeAuditor{}
	h := newTestHandler(fake, audit, nil)
	rec := httptest.NewRecorder()
	h.UpdateAppointment(rec, authedRequest(http.MethodPost, "/update-appointment", validAppointmentBody(t, "555")))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, fake.saveReqs, 1)
	assert.Equal(t, "555", fake.saveReqs[0].EncounterID)
	assert.Equal(t, []compliance.AuditEventType{compliance.EventAppointmentUpdated}, audit.events)
}

func TestSaveAppointmentPatientMiss(t *testing.T) {
	h := newTestHandler(&fakeECW{err: ecw.ErrPatientNotFound}, nil, nil)
	rec := httptest.NewRecorder()
	h.CreateAppointment(rec, authedRequest(http.MethodPost, "/create-appointment", validAppointmentBody(t, "")))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddSurgHospItemsAudited(t *testing.T) {
	audit := &fakeAuditor{}
	h := newTestHandler(&fakeECW{}, audit, nil)
	body := []byte(`{
		"patient_id": "1001",
		"encounter_id": "555",
		"new_surgical_items": [{"reason": "Appendectomy", "date": "2019-04-02"}]
	}`)
	rec := httptest.NewRecorder()
	h.AddSurgHospItems(rec, authedRequest(http.MethodPost, "/add-surg-hosp-items", body))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []compliance.AuditEventType{compliance.EventSurgHospHistoryAdded}, audit.events)
}

func TestAddFamilyHistoryNotesValidation(t *testing.T) {
	h := newTestHandler(&fakeECW{}, nil, nil)
	rec := httptest.NewRecorder()
	h.AddFamilyHistoryNotes(rec, authedRequest(http.MethodPost, "/add-family-history-notes", []byte(`{"patient_id": "1001"}`)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAddSocialHistoryNotes(t *testing.T) {
	audit := &fakeAuditor{}
	h := newTestHandler(&fakeECW{}, audit, nil)
	body := []byte(`{"patient_id": "1001", "encounter_id": "555", "plain_text_notes": "Non-smoker."}`)
	rec := httptest.NewRecorder()
	h.AddSocialHistoryNotes(rec, authedRequest(http.MethodPost, "/add-social-history-notes", body))

	assert.Equal(t, http.StatusOK, rec.Code)
	// The upstream result is the response body, same as the other writes.
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
	assert.Equal(t, []compliance.AuditEventType{compliance.EventSocialHistorySaved}, audit.events)
}

func TestAddMedHxAllergies(t *testing.T) {
	audit := &fakeAuditor{}
	h := newTestHandler(&fakeECW{}, audit, nil)
	body := []byte(`{
		"patient_id": "1001",
		"encounter_id": "555",
		"medical_history_text": "Asthma.",
		"new_allergies": [{"drug_name": "Penicillin"}]
	}`)
	rec := httptest.NewRecorder()
	h.AddMedHxAllergies(rec, authedRequest(http.MethodPost, "/add-med-hx-allergies", body))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []compliance.AuditEventType{compliance.EventMedHxAllergiesUpdated}, audit.events)
}

func TestAddCredentialsSuccess(t *testing.T) {
	h := newTestHandler(&fakeECW{}, &fakeAuditor{}, nil)
	body := []byte(`{
		"label": "front-desk",
		"cookie": "JSESSIONID=abc",
		"csrf_token": "csrf",
		"session_did": "9917",
		"tr_user_id": "452"
	}`)
	rec := httptest.NewRecorder()
	h.AddCredentials(rec, httptest.NewRequest(http.MethodPost, "/add-credentials", bytes.NewReader(body)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, credentials.StatusAuthorized, resp["status"])
	assert.NotEmpty(t, resp["id"])
}

func TestAddCredentialsRejectedByEMR(t *testing.T) {
	verify := func(ctx context.Context, tokens ecw.AuthTokens) error {
		return errors.New("HTTP 403")
	}
	h := newTestHandler(&fakeECW{}, nil, verify)
	body := []byte(`{
		"cookie": "JSESSIONID=abc",
		"csrf_token": "csrf",
		"session_did": "9917",
		"tr_user_id": "452"
	}`)
	rec := httptest.NewRecorder()
	h.AddCredentials(rec, httptest.NewRequest(http.MethodPost, "/add-credentials", bytes.NewReader(body)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, credentials.StatusFailed, resp["status"])
}

func TestAddCredentialsValidation(t *testing.T) {
	h := newTestHandler(&fakeECW{}, nil, nil)
	rec := httptest.NewRecorder()
	h.AddCredentials(rec, httptest.NewRequest(http.MethodPost, "/add-credentials", bytes.NewReader([]byte(`{"cookie": "only"}`))))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
