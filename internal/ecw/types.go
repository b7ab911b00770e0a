package ecw

import "time"

// AuthTokens is the session material captured from an authenticated ECW web
// login. Every upstream call carries all four values.
type AuthTokens struct {
	Cookie     string `json:"cookie"`
	CSRFToken  string `json:"csrf_token"`
	SessionDID string `json:"session_did"`
	TrUserID   string `json:"tr_user_id"`
}

// Valid reports whether the token set is complete enough to attempt a call.
func (t AuthTokens) Valid() bool {
	return t.Cookie != "" && t.CSRFToken != "" && t.SessionDID != "" && t.TrUserID != ""
}

// GetAppointmentsRequest filters the appointment listing.
type GetAppointmentsRequest struct {
	Date       string `json:"date,omitempty"` // YYYY-MM-DD, defaults to today UTC
	ProviderID string `json:"provider_id"`
	FacilityID string `json:"facility_id"`
	MaxCount   int    `json:"max_count,omitempty"` // defaults to 100
}

// GetPatientsRequest searches patients by name.
type GetPatientsRequest struct {
	LastName  string `json:"last_name" validate:"required"`
	FirstName string `json:"first_name,omitempty"`
	MaxCount  int    `json:"max_count,omitempty"`
}

// AppointmentRequest creates an appointment, or updates one when EncounterID
// is set. Names are resolved against the EMR's own catalogs before the write.
type AppointmentRequest struct {
	PatientName  string `json:"patient_name" validate:"required"` // "Last, First"
	Date         string `json:"date" validate:"required"`         // MM/DD/YYYY
	StartTime    string `json:"start_time" validate:"required"`   // e.g. "09:15 AM"
	EndTime      string `json:"end_time" validate:"required"`
	Provider     string `json:"provider" validate:"required"`
	Resource     string `json:"resource,omitempty"` // defaults to the provider
	FacilityName string `json:"facility_name" validate:"required"`
	Reason       string `json:"reason" validate:"required"`
	VisitType    string `json:"visit_type" validate:"required"`
	VisitStatus  string `json:"visit_status,omitempty"`
	Diagnosis    string `json:"diagnosis,omitempty"`
	Email        string `json:"email,omitempty"`
	EncounterID  string `json:"encounter_id,omitempty"`
}

// SurgicalItem is one surgical-history row to append.
type SurgicalItem struct {
	Reason  string `json:"reason" validate:"required"`
	Date    string `json:"date" validate:"required"`
	CPTCode string `json:"cptcode,omitempty"`
}

// HospitalizationItem is one hospitalization-history row to append.
type HospitalizationItem struct {
	Reason string `json:"reason" validate:"required"`
	Date   string `json:"date" validate:"required"`
}

// AddSurgHospItemsRequest appends items to the surgical and hospitalization
// history sections of an encounter. Existing rows are preserved; new rows get
// display indexes after the current maximum.
type AddSurgHospItemsRequest struct {
	PatientID            string                `json:"patient_id" validate:"required"`
	EncounterID          string                `json:"encounter_id" validate:"required"`
	SurgicalItems        []SurgicalItem        `json:"new_surgical_items,omitempty" validate:"dive"`
	HospitalizationItems []HospitalizationItem `json:"new_hospitalization_items,omitempty" validate:"dive"`
}

// AddFamilyHistoryNoteRequest saves plain-text family history notes.
type AddFamilyHistoryNoteRequest struct {
	PatientID   string `json:"patient_id" validate:"required"`
	EncounterID string `json:"encounter_id" validate:"required"`
	Notes       string `json:"plain_text_notes" validate:"required"`
}

// AddSocialHistoryNoteRequest saves plain-text social history notes.
type AddSocialHistoryNoteRequest struct {
	PatientID   string `json:"patient_id" validate:"required"`
	EncounterID string `json:"encounter_id" validate:"required"`
	Notes       string `json:"plain_text_notes" validate:"required"`
}

// AllergyItem is one allergy to record on an encounter.
type AllergyItem struct {
	DrugName  string `json:"drug_name" validate:"required"`
	ItemID    string `json:"item_id,omitempty"`
	Reaction  string `json:"reaction,omitempty"`
	Status    string `json:"status,omitempty"` // defaults to Active
	OnsetDate string `json:"onset_date,omitempty"`
}

// UpdateMedHxAllergiesRequest sets the medical history free text and/or adds
// allergies for an encounter.
type UpdateMedHxAllergiesRequest struct {
	PatientID          string        `json:"patient_id" validate:"required"`
	EncounterID        string        `json:"encounter_id" validate:"required"`
	MedicalHistoryText *string       `json:"medical_history_text,omitempty"`
	NewAllergies       []AllergyItem `json:"new_allergies,omitempty" validate:"dive"`
}

// Facility is the subset of the facility catalog the bridge resolves against.
type Facility struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	POS  string `json:"pos"`
}

// VisitType pairs ECW's internal visit-type name with its user-facing
// description.
type VisitType struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ProgressNoteSection is one titled block of a rendered progress note.
type ProgressNoteSection struct {
	Title string   `json:"title"`
	Lines []string `json:"lines"`
}

// ProgressNote is the parsed form of the HTML progress-note document. When
// the EMR answers with XML or JSON instead, the parsed payload lands in Raw.
type ProgressNote struct {
	EncounterID string                `json:"encounter_id"`
	Sections    []ProgressNoteSection `json:"sections"`
	Text        string                `json:"text"`
	Raw         any                   `json:"raw,omitempty"`
}

// SurgHospResult reports what the append call actually did.
type SurgHospResult struct {
	Message  string `json:"message,omitempty"`
	Response any    `json:"response,omitempty"`
}

// NoteSaveResult is returned by the family-history save, whose only success
// signal is an empty upstream body.
type NoteSaveResult struct {
	Status      string `json:"status"`
	Message     string `json:"message,omitempty"`
	RawResponse any    `json:"raw_response,omitempty"`
}

// AllergySetResult pairs one added allergy with the upstream acknowledgement.
type AllergySetResult struct {
	Item     string `json:"item"`
	Response any    `json:"response"`
}

// MedHxAllergiesResult collects the per-step responses of the combined
// medical history + allergies write.
type MedHxAllergiesResult struct {
	MedicalHistorySet any                `json:"medical_history_set,omitempty"`
	FlagsBatchSet     any                `json:"flags_batch_set,omitempty"`
	SetAllergies      []AllergySetResult `json:"set_allergies,omitempty"`
}

// DefaultAppointmentDate is today's date in the format the listing expects.
func DefaultAppointmentDate(now time.Time) string {
	return now.UTC().Format("2006-01-02")
}
