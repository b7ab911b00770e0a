package ecw

import "strings"

// reducedVisitTypes is the static slice of the tenant's visit-type catalog
// the scheduling flow accepts. The webemr screen ships the full catalog to
// the browser; only these are bookable through the bridge.
var reducedVisitTypes = []VisitType{
	{Name: "OV", Description: "Office Visit"},
	{Name: "NP", Description: "New Patient Visit"},
	{Name: "EST", Description: "Established Patient Visit"},
	{Name: "FU", Description: "Follow-Up Visit"},
	{Name: "PE", Description: "Physical Exam"},
	{Name: "TELEMED", Description: "Telemedicine Visit"},
	{Name: "PROC", Description: "Procedure Visit"},
	{Name: "LAB", Description: "Lab Work"},
}

// VisitTypes returns the bookable visit-type catalog.
func VisitTypes() []VisitType {
	out := make([]VisitType, len(reducedVisitTypes))
	copy(out, reducedVisitTypes)
	return out
}

// resolveVisitType maps a user-facing description to the EMR's internal
// visit-type name.
func resolveVisitType(description string) (string, error) {
	for _, vt := range reducedVisitTypes {
		if strings.EqualFold(vt.Description, description) {
			return vt.Name, nil
		}
	}
	return "", ErrVisitTypeNotFound
}
