package ecw

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultAppointmentCount = 100

// GetAppointments lists appointments for a provider and facility on a date.
func (c *Client) GetAppointments(ctx context.Context, req GetAppointmentsRequest) (map[string]any, error) {
	date := req.Date
	if date == "" {
		date = DefaultAppointmentDate(time.Now())
	}
	maxCount := req.MaxCount
	if maxCount <= 0 {
		maxCount = c.maxAppointments
	}

	c.logger.Debug("fetching appointments",
		"date", date,
		"provider_id", req.ProviderID,
		"max_count", maxCount,
	)

	payload := url.Values{}
	payload.Set("eDate", date)
	payload.Set("doctorId", req.ProviderID)
	payload.Set("sortBy", "time")
	payload.Set("facilityId", req.FacilityID)
	payload.Set("apptTime", "0")
	payload.Set("checkinstatus", "0")
	payload.Set("FacilityGrpId", "0")
	payload.Set("maxCount", strconv.Itoa(maxCount))
	payload.Set("nCounter", "0")
	payload.Set("DeptId", "0")
	payload.Set("fromWeb", "yes")
	payload.Set("fromAfterCare", "officeVisit")
	payload.Set("tabId", "3")
	payload.Set("toDate", "")
	payload.Set("selectedChkShowASCvisits", "false")
	payload.Set("includeResourceAppt", "true")

	reqURL := c.buildURL(pathAppointments, c.authQuery())
	res, err := c.do(ctx, "get_appointments", http.MethodPost, reqURL, c.setupHeaders(formContentType), payload.Encode())
	if err != nil {
		return nil, err
	}
	return asMap(res), nil
}

// SaveAppointment creates an appointment, or updates the one identified by
// req.EncounterID. Patient, facility, provider, resource, reason and visit
// type are all resolved by name against the EMR before the write; any miss
// aborts with the matching sentinel error.
func (c *Client) SaveAppointment(ctx context.Context, req AppointmentRequest) (map[string]any, error) {
	action := "creating"
	if req.EncounterID != "" {
		action = "updating"
	}
	c.logger.Debug(action+" appointment", "patient", req.PatientName)

	patientID, err := c.resolvePatient(ctx, req.PatientName)
	if err != nil {
		return nil, err
	}

	// The webemr scheduler loads the appointment form before it will accept
	// a save for the slot; skipping this step gets the save rejected.
	if err := c.openAppointmentForm(ctx, req, patientID); err != nil {
		return nil, err
	}

	facility, err := c.resolveFacility(ctx, req.FacilityName)
	if err != nil {
		return nil, err
	}
	providerID, err := c.resolveProvider(ctx, req.Provider)
	if err != nil {
		return nil, err
	}
	resourceName := req.Resource
	if resourceName == "" {
		resourceName = req.Provider
	}
	resourceID, err := c.resolveProvider(ctx, resourceName)
	if err != nil {
		// Only an empty lookup means the resource does not exist; upstream
		// failures keep their own translation.
		if errors.Is(err, ErrProviderNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}
	reason, err := c.resolveReason(ctx, req.Reason)
	if err != nil {
		return nil, err
	}
	visitType, err := resolveVisitType(req.VisitType)
	if err != nil {
		return nil, err
	}

	formXML, err := buildAppointmentXML(appointmentParams{
		PatientID:   patientID,
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		VisitType:   visitType,
		Reason:      reason,
		DoctorID:    providerID,
		ResourceID:  resourceID,
		VisitStatus: req.VisitStatus,
		FacilityID:  facility.ID,
		POS:         facility.POS,
		Diagnosis:   req.Diagnosis,
		Email:       req.Email,
		TrUserID:    c.tokens.TrUserID,
	})
	if err != nil {
		return nil, err
	}
	body := "FormData=" + url.QueryEscape(formXML)

	q := c.authQuery()
	op := "set_appointment"
	if req.EncounterID != "" {
		q.Set("encounterId", req.EncounterID)
		op = "update_appointment"
	}
	saveURL := c.buildURL(pathSetAppointment, q)

	headers := c.ajaxHeaders()
	headers.Set("Origin", c.baseURL)
	headers.Set("isajaxrequest", "true")

	res, err := c.do(ctx, op, http.MethodPost, saveURL, headers, body)
	if err != nil {
		return nil, err
	}
	return asMap(res), nil
}

// resolvePatient finds the id of the first active patient matching a
// "Last, First" name.
func (c *Client) resolvePatient(ctx context.Context, patientName string) (string, error) {
	parts := strings.SplitN(patientName, ",", 2)
	search := GetPatientsRequest{LastName: strings.TrimSpace(parts[0])}
	if len(parts) == 2 {
		search.FirstName = strings.TrimSpace(parts[1])
	}

	res, err := c.SearchPatients(ctx, search)
	if err != nil {
		return "", err
	}
	patients := listField(res, "patients")
	if len(patients) == 0 {
		c.logger.Debug("no patients found", "name", patientName)
		return "", ErrPatientNotFound
	}
	m, ok := patients[0].(map[string]any)
	if !ok {
		return "", ErrPatientNotFound
	}
	id := stringField(m, "id")
	if id == "" {
		return "", ErrPatientNotFound
	}
	return id, nil
}

func (c *Client) openAppointmentForm(ctx context.Context, req AppointmentRequest, patientID string) error {
	q := c.authQuery()
	q.Set("start", req.StartTime)
	q.Set("id", c.tokens.SessionDID)
	q.Set("patient_name", strings.ToUpper(req.PatientName))
	q.Set("date", req.Date)
	q.Set("patient_id", patientID)

	formURL := c.buildURL(pathAppointmentForm, q)
	c.logger.Debug("loading appointment form", "url", formURL)
	_, err := c.do(ctx, "get_appointment_form", http.MethodGet, formURL, c.setupHeaders(""), "")
	return err
}
