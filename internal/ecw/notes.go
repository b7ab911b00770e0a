package ecw

import (
	"context"
	"net/http"
)

// GetProgressNotes fetches and parses the rendered progress note for an
// encounter.
func (c *Client) GetProgressNotes(ctx context.Context, encounterID string) (*ProgressNote, error) {
	c.logger.Debug("fetching progress notes", "encounter_id", encounterID)

	q := c.authQuery()
	q.Set("encounterId", encounterID)
	url := c.buildURL(pathProgressNote, q)

	res, err := c.do(ctx, "get_progress_notes", http.MethodGet, url, c.setupHeaders(""), "")
	if err != nil {
		return nil, err
	}
	note, ok := res.(*ProgressNote)
	if !ok {
		// Some tenants answer with an XML or JSON document instead of HTML;
		// pass the parsed payload through untouched.
		return &ProgressNote{EncounterID: encounterID, Raw: res}, nil
	}
	note.EncounterID = encounterID
	return note, nil
}
