package ecw

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// AddSurgicalHospitalizationItems appends rows to the surgical and
// hospitalization history sections of an encounter. The EMR replaces the
// whole section on save, so existing rows are fetched first and the new ones
// appended after the current max display index.
func (c *Client) AddSurgicalHospitalizationItems(ctx context.Context, req AddSurgHospItemsRequest) (*SurgHospResult, error) {
	c.logger.Debug("updating surgical history and hospitalization info",
		"encounter_id", req.EncounterID,
	)

	var items []batchItem

	if len(req.SurgicalItems) > 0 {
		newRows := make([]historyRow, 0, len(req.SurgicalItems))
		for _, item := range req.SurgicalItems {
			newRows = append(newRows, historyRow{Reason: item.Reason, Date: item.Date, CPTCode: item.CPTCode})
		}
		sectionItems, err := c.historySectionBatch(ctx, req, historySection{
			kind:         "surgical",
			sectionName:  "Surgical History",
			changedParam: "surgicalHxChanged",
			getPath:      pathSurgicalHx,
			setPath:      pathSetSurgicalHx,
			existingKey:  "surgical_history",
		}, newRows)
		if err != nil {
			return nil, err
		}
		items = append(items, sectionItems...)
	}

	if len(req.HospitalizationItems) > 0 {
		newRows := make([]historyRow, 0, len(req.HospitalizationItems))
		for _, item := range req.HospitalizationItems {
			newRows = append(newRows, historyRow{Reason: item.Reason, Date: item.Date})
		}
		sectionItems, err := c.historySectionBatch(ctx, req, historySection{
			kind:         "hospitalization",
			sectionName:  "Hospitalization",
			changedParam: "hospHxChanged",
			getPath:      pathHospitalizationHx,
			setPath:      pathSetHospitalization,
			existingKey:  "hospitalization_history",
		}, newRows)
		if err != nil {
			return nil, err
		}
		items = append(items, sectionItems...)
	}

	if len(items) == 0 {
		return &SurgHospResult{Message: "No new history items to add."}, nil
	}

	res, err := c.postBatch(ctx, "set_surg_hosp_history", items)
	if err != nil {
		return nil, err
	}
	return &SurgHospResult{Response: res}, nil
}

type historySection struct {
	kind         string
	sectionName  string
	changedParam string
	getPath      string
	setPath      string
	existingKey  string
}

// historySectionBatch builds the two batch items for one history section:
// the merged section XML and the encounter-details "section changed" flag.
func (c *Client) historySectionBatch(ctx context.Context, req AddSurgHospItemsRequest, section historySection, newRows []historyRow) ([]batchItem, error) {
	existing := c.fetchExistingHistory(ctx, req.EncounterID, section)

	maxIdx := 0
	combined := make([]historyRow, 0, len(existing)+len(newRows))
	for _, row := range existing {
		combined = append(combined, row)
		if idx, err := strconv.Atoi(row.DisplayIndex); err == nil && idx > maxIdx {
			maxIdx = idx
		}
	}
	for _, row := range newRows {
		maxIdx++
		row.DisplayIndex = strconv.Itoa(maxIdx)
		combined = append(combined, row)
	}

	sectionXML, err := buildHistoryXML(combined, section.kind)
	if err != nil {
		return nil, err
	}

	setQuery := c.authQuery()
	setQuery = deviceQuery(setQuery)
	setQuery.Set("mode", "webemr")
	setQuery.Set("patientId", req.PatientID)
	setQuery.Set("EncounterId", req.EncounterID)
	setQuery.Set(section.changedParam, "true")

	flagXML, err := buildEncounterSectionFlagXML(req.EncounterID, section.sectionName, true)
	if err != nil {
		return nil, err
	}

	flagQuery := c.authQuery()
	flagQuery = deviceQuery(flagQuery)
	flagQuery.Set("mode", "webEMR")
	flagQuery.Set("Id", req.EncounterID)
	flagQuery.Set("sectionName", section.sectionName)
	flagQuery.Set("historyChanged", "true")
	flagQuery.Set("ptId", req.PatientID)

	return []batchItem{
		newBatchItem(c.buildURL(section.setPath, setQuery), sectionXML),
		newBatchItem(c.buildURL(pathSetEncounterDtls, flagQuery), flagXML),
	}, nil
}

// fetchExistingHistory loads the current rows of a history section. A fetch
// failure degrades to an empty section rather than blocking the append; the
// original rows are then lost upstream only if the EMR itself had none.
func (c *Client) fetchExistingHistory(ctx context.Context, encounterID string, section historySection) []historyRow {
	q := c.authQuery()
	q = deviceQuery(q)
	q.Set("encounterId", encounterID)
	q.Set("calledFromHospCtrl", "true")

	getURL := c.buildURL(section.getPath, q)
	c.logger.Debug("fetching existing history", "section", section.kind, "url", getURL)

	res, err := c.do(ctx, "get_"+section.kind+"_history", http.MethodGet, getURL, c.setupHeaders(""), "")
	if err != nil {
		c.logger.Debug("failed to fetch existing history", "section", section.kind, "error", err)
		return nil
	}

	var rows []historyRow
	for _, item := range listField(asMap(res), section.existingKey) {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		rows = append(rows, historyRow{
			Reason:       stringField(m, "reason"),
			Date:         stringField(m, "date"),
			CPTCode:      stringField(m, "cptcode"),
			DisplayIndex: stringField(m, "displayIndex", "displayindex"),
		})
	}
	return rows
}

// AddFamilyHistoryNote saves plain-text family history notes for an
// encounter. The save endpoint acknowledges with an empty body.
func (c *Client) AddFamilyHistoryNote(ctx context.Context, req AddFamilyHistoryNoteRequest) (*NoteSaveResult, error) {
	c.logger.Debug("adding family history note", "encounter_id", req.EncounterID)

	notesXML, err := buildFamilyHistoryNotesXML(req.EncounterID, req.Notes)
	if err != nil {
		return nil, err
	}

	payload := url.Values{}
	payload.Set("Id", req.EncounterID)
	payload.Set("TrUserId", c.tokens.TrUserID)
	payload.Set("patientId", req.PatientID)
	payload.Set("action", "SAVE")
	payload.Set("isDashboard", "false")
	payload.Set("familymodified", "true")
	payload.Set("FormDataNotes", notesXML)

	targetURL := c.baseURL + pathFamilyHxNotes
	res, err := c.do(ctx, "add_family_history", http.MethodPost, targetURL, c.ajaxHeaders(), payload.Encode())
	if err != nil {
		return nil, err
	}

	if s, ok := res.(string); ok && s == "" {
		return &NoteSaveResult{
			Status:  "success",
			Message: "Family history note likely saved (empty response received).",
		}, nil
	}
	return &NoteSaveResult{Status: "unknown", RawResponse: res}, nil
}

// AddSocialHistoryNote saves plain-text social history notes through the
// batch AJAX controller's annual-notes setter.
func (c *Client) AddSocialHistoryNote(ctx context.Context, req AddSocialHistoryNoteRequest) (any, error) {
	c.logger.Debug("adding social history note", "encounter_id", req.EncounterID)

	notesXML, err := buildSocialHistoryXML(req.EncounterID, req.Notes)
	if err != nil {
		return nil, err
	}

	q := c.authQuery()
	q = deviceQuery(q)
	q.Set("encounterId", req.EncounterID)
	q.Set("type", "Social")
	q.Set("patientId", req.PatientID)

	item := newBatchItem(c.buildURL(pathSetAnnualNotes, q), notesXML)
	return c.postBatch(ctx, "add_social_history", []batchItem{item})
}
