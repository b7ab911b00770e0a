package ecw

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

const defaultAllergySearchLimit = "9"

// SearchAllergies runs the medication quick search in allergy mode.
func (c *Client) SearchAllergies(ctx context.Context, searchText, limit string) (map[string]any, error) {
	c.logger.Debug("searching allergies", "search_text", searchText)
	if limit == "" {
		limit = defaultAllergySearchLimit
	}

	// The allergy search reuses the medication search servlet; this fixed
	// parameter set is what the MedReconciliation screen sends.
	q := c.authQuery()
	q = deviceQuery(q)
	q.Set("searchType", "0")
	q.Set("calledFrom", "MedReconciliation")
	q.Set("searchText", searchText)
	q.Set("RxTypeID", "12846")
	q.Set("nEncounterId", "0")
	q.Set("nLimit", limit)
	q.Set("rxDrugSearchType", "1")
	q.Set("hideMSClinical", "false")
	q.Set("facilityId", "0")
	q.Set("bObsolete", "0")
	q.Set("showDeletedDrug", "0")
	q.Set("enhancedMedicationSearchType", "searchAllergy")
	q.Set("startsWithContainsSearchEnabled", "-1")
	q.Set("fuzzySearchEnabled", "-1")
	q.Set("mnemonicSearchEnabled", "-1")
	q.Set("proximitySearchEnabled", "-1")
	q.Set("genericWithBrandSearchEnabled", "-1")
	q.Set("section", "AllergyDrugRxNotes1")

	searchURL := c.buildURL(pathAllergySearch, q)
	res, err := c.do(ctx, "search_allergies", http.MethodGet, searchURL, c.setupHeaders(""), "")
	if err != nil {
		return nil, err
	}
	return asMap(res), nil
}

// UpdateMedHxAllergies sets the medical history free text and/or records new
// allergies for an encounter. Three upstream phases: the optional direct
// medical-history post, a batch of section flags, then one post per allergy.
func (c *Client) UpdateMedHxAllergies(ctx context.Context, req UpdateMedHxAllergiesRequest) (*MedHxAllergiesResult, error) {
	c.logger.Debug("updating medical history and/or allergy information",
		"encounter_id", req.EncounterID,
	)

	result := &MedHxAllergiesResult{}

	if req.MedicalHistoryText != nil {
		medHxXML, err := buildMedicalHistoryTextXML(req.EncounterID, *req.MedicalHistoryText)
		if err != nil {
			return nil, err
		}

		q := c.authQuery()
		q = deviceQuery(q)
		q.Set("historyChanged", "true")
		q.Set("sectionName", "Medical History")
		q.Set("Id", req.EncounterID)
		q.Set("mode", "webEMR")
		q.Set("ptId", req.PatientID)
		q.Set("allergyChanged", "undefined")

		body := url.Values{}
		body.Set("FormData", medHxXML)

		medHxURL := c.buildURL(pathSetEncounterDtls, q)
		res, err := c.do(ctx, "set_medical_history", http.MethodPost, medHxURL, c.ajaxHeaders(), body.Encode())
		if err != nil {
			return nil, err
		}
		result.MedicalHistorySet = res
	}

	flags, err := c.medHxAllergyFlagItems(req)
	if err != nil {
		return nil, err
	}
	flagsRes, err := c.postBatch(ctx, "set_medhx_allergy_flags", flags)
	if err != nil {
		return nil, err
	}
	result.FlagsBatchSet = flagsRes

	for i, allergy := range req.NewAllergies {
		// Display indexes restart at 1; fetching the encounter's current
		// allergy count first would make this append-safe.
		itemXML, err := buildAllergyItemXML(req.PatientID, req.EncounterID, allergy, i+1)
		if err != nil {
			return nil, err
		}

		q := c.authQuery()
		q = deviceQuery(q)
		q.Set("patientId", req.PatientID)
		q.Set("encounterId", req.EncounterID)
		q.Set("allergyChanged", "true")

		body := url.Values{}
		body.Set("FormData", itemXML)

		allergyURL := c.buildURL(pathSetAllergies, q)
		res, err := c.do(ctx, "set_allergy_item", http.MethodPost, allergyURL, c.ajaxHeaders(), body.Encode())
		if err != nil {
			return nil, err
		}
		result.SetAllergies = append(result.SetAllergies, AllergySetResult{
			Item:     allergy.DrugName,
			Response: res,
		})
	}

	return result, nil
}

// medHxAllergyFlagItems builds the flag batch: the NoReportedMedHx marker and
// the allergy section flags.
func (c *Client) medHxAllergyFlagItems(req UpdateMedHxAllergiesRequest) ([]batchItem, error) {
	noReported := req.MedicalHistoryText == nil || strings.TrimSpace(*req.MedicalHistoryText) == ""
	medHxFlagXML, err := buildMedHxFlagXML(req.EncounterID, noReported)
	if err != nil {
		return nil, err
	}

	medHxQuery := c.authQuery()
	medHxQuery = deviceQuery(medHxQuery)
	medHxQuery.Set("historyChanged", "true")
	medHxQuery.Set("sectionName", "Medical History")
	medHxQuery.Set("Id", req.EncounterID)
	medHxQuery.Set("mode", "webEMR")
	medHxQuery.Set("ptId", req.PatientID)

	allergyFlagsXML, err := buildAllergyFlagsXML(req.EncounterID, len(req.NewAllergies) > 0, "N")
	if err != nil {
		return nil, err
	}

	allergyQuery := c.authQuery()
	allergyQuery = deviceQuery(allergyQuery)
	allergyQuery.Set("allergyChanged", "true")
	allergyQuery.Set("sectionName", "Allergies")
	allergyQuery.Set("Id", req.EncounterID)
	allergyQuery.Set("mode", "webEMR")
	allergyQuery.Set("ptId", req.PatientID)

	return []batchItem{
		newBatchItem(c.buildURL(pathSetEncounterDtls, medHxQuery), medHxFlagXML),
		newBatchItem(c.buildURL(pathSetEncounterDtls, allergyQuery), allergyFlagsXML),
	}, nil
}
