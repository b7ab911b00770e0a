package ecw

import (
	"encoding/xml"
	"fmt"
)

// The webemr screens submit their edits as url-encoded XML documents in a
// FormData field. The builders below reproduce the documents those screens
// generate for each chart section.

type appointmentFormData struct {
	XMLName      xml.Name `xml:"Appointment"`
	PatientID    string   `xml:"PatientId"`
	Date         string   `xml:"Date"`
	StartTime    string   `xml:"StartTime"`
	EndTime      string   `xml:"EndTime"`
	VisitType    string   `xml:"VisitType"`
	Reason       string   `xml:"Reason"`
	DoctorID     string   `xml:"DoctorId"`
	ResourceID   string   `xml:"ResourceId"`
	VisitStatus  string   `xml:"VisitStatus"`
	FacilityID   string   `xml:"FacilityId"`
	POS          string   `xml:"POS"`
	Diagnosis    string   `xml:"Diagnosis,omitempty"`
	PatientEmail string   `xml:"PatientEmail,omitempty"`
	TrUserID     string   `xml:"TrUserId"`
}

type appointmentParams struct {
	PatientID   string
	Date        string
	StartTime   string
	EndTime     string
	VisitType   string
	Reason      string
	DoctorID    string
	ResourceID  string
	VisitStatus string
	FacilityID  string
	POS         string
	Diagnosis   string
	Email       string
	TrUserID    string
}

func buildAppointmentXML(p appointmentParams) (string, error) {
	doc := appointmentFormData{
		PatientID:    p.PatientID,
		Date:         p.Date,
		StartTime:    p.StartTime,
		EndTime:      p.EndTime,
		VisitType:    p.VisitType,
		Reason:       p.Reason,
		DoctorID:     p.DoctorID,
		ResourceID:   p.ResourceID,
		VisitStatus:  p.VisitStatus,
		FacilityID:   p.FacilityID,
		POS:          p.POS,
		Diagnosis:    p.Diagnosis,
		PatientEmail: p.Email,
		TrUserID:     p.TrUserID,
	}
	return marshalFormData(doc)
}

// historyRow is one surgical or hospitalization entry, existing or new.
type historyRow struct {
	Reason       string `xml:"Reason"`
	Date         string `xml:"Date"`
	CPTCode      string `xml:"CptCode,omitempty"`
	DisplayIndex string `xml:"DisplayIndex"`
}

type historyFormData struct {
	XMLName xml.Name     `xml:"History"`
	Type    string       `xml:"type,attr"`
	Items   []historyRow `xml:"Item"`
}

func buildHistoryXML(items []historyRow, kind string) (string, error) {
	return marshalFormData(historyFormData{Type: kind, Items: items})
}

type encounterSectionFlag struct {
	XMLName     xml.Name `xml:"EncounterDetails"`
	EncounterID string   `xml:"EncounterId"`
	Section     struct {
		Name    string `xml:"name,attr"`
		Changed string `xml:"changed,attr"`
	} `xml:"Section"`
}

func buildEncounterSectionFlagXML(encounterID, sectionName string, changed bool) (string, error) {
	doc := encounterSectionFlag{EncounterID: encounterID}
	doc.Section.Name = sectionName
	doc.Section.Changed = boolString(changed)
	return marshalFormData(doc)
}

type familyHistoryNotes struct {
	XMLName     xml.Name `xml:"FamilyHistory"`
	EncounterID string   `xml:"EncounterId"`
	Notes       string   `xml:"Notes"`
}

func buildFamilyHistoryNotesXML(encounterID, notes string) (string, error) {
	return marshalFormData(familyHistoryNotes{EncounterID: encounterID, Notes: notes})
}

type annualNotes struct {
	XMLName     xml.Name `xml:"AnnualNotes"`
	EncounterID string   `xml:"EncounterId"`
	Type        string   `xml:"type,attr"`
	Notes       string   `xml:"Notes"`
}

func buildSocialHistoryXML(encounterID, notes string) (string, error) {
	return marshalFormData(annualNotes{EncounterID: encounterID, Type: "Social", Notes: notes})
}

type medicalHistoryText struct {
	XMLName     xml.Name `xml:"MedicalHistory"`
	EncounterID string   `xml:"EncounterId"`
	Text        string   `xml:"Text"`
}

func buildMedicalHistoryTextXML(encounterID, text string) (string, error) {
	return marshalFormData(medicalHistoryText{EncounterID: encounterID, Text: text})
}

type medHxFlag struct {
	XMLName         xml.Name `xml:"MedicalHistoryFlag"`
	EncounterID     string   `xml:"EncounterId"`
	NoReportedMedHx string   `xml:"NoReportedMedHx"`
}

func buildMedHxFlagXML(encounterID string, noReported bool) (string, error) {
	flag := "N"
	if noReported {
		flag = "Y"
	}
	return marshalFormData(medHxFlag{EncounterID: encounterID, NoReportedMedHx: flag})
}

type allergyFlags struct {
	XMLName       xml.Name `xml:"AllergyFlags"`
	EncounterID   string   `xml:"EncounterId"`
	AllergiesNone string   `xml:"AllergiesNone"`
	NKDA          string   `xml:"NKDA"`
}

func buildAllergyFlagsXML(encounterID string, hasAllergies bool, nkda string) (string, error) {
	none := "Y"
	if hasAllergies {
		none = "N"
	}
	return marshalFormData(allergyFlags{EncounterID: encounterID, AllergiesNone: none, NKDA: nkda})
}

type allergyItemXML struct {
	XMLName      xml.Name `xml:"Allergy"`
	PatientID    string   `xml:"PatientId"`
	EncounterID  string   `xml:"EncounterId"`
	DrugName     string   `xml:"DrugName"`
	ItemID       string   `xml:"ItemId,omitempty"`
	Reaction     string   `xml:"Reaction,omitempty"`
	Status       string   `xml:"Status"`
	OnsetDate    string   `xml:"OnsetDate,omitempty"`
	DisplayIndex string   `xml:"DisplayIndex"`
}

func buildAllergyItemXML(patientID, encounterID string, item AllergyItem, displayIndex int) (string, error) {
	status := item.Status
	if status == "" {
		status = "Active"
	}
	return marshalFormData(allergyItemXML{
		PatientID:    patientID,
		EncounterID:  encounterID,
		DrugName:     item.DrugName,
		ItemID:       item.ItemID,
		Reaction:     item.Reaction,
		Status:       status,
		OnsetDate:    item.OnsetDate,
		DisplayIndex: fmt.Sprintf("%d", displayIndex),
	})
}

func marshalFormData(doc any) (string, error) {
	out, err := xml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("ecw: formdata marshal failed: %w", err)
	}
	return string(out), nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
