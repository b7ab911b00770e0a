package ecw

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

const defaultPatientSearchLimit = 50

// SearchPatients searches active patients by last name, optionally narrowed
// by first name, through the webemr patient-search screen.
func (c *Client) SearchPatients(ctx context.Context, req GetPatientsRequest) (map[string]any, error) {
	c.logger.Debug("searching patients",
		"last_name", req.LastName,
		"first_name", req.FirstName,
	)

	maxCount := req.MaxCount
	if maxCount <= 0 {
		maxCount = defaultPatientSearchLimit
	}

	primary := req.LastName
	if req.FirstName != "" {
		primary += ", " + req.FirstName
	}

	payload := url.Values{}
	payload.Set("counter", "1")
	payload.Set("firstName", req.FirstName)
	payload.Set("lastName", req.LastName)
	payload.Set("primarySearchValue", primary)
	payload.Set("SearchBy", "Name")
	payload.Set("StatusSearch", "Active")
	payload.Set("limitstart", "0")
	payload.Set("limitrange", strconv.Itoa(maxCount))
	payload.Set("MAXCOUNT", strconv.Itoa(maxCount))
	payload.Set("device", "webemr")
	payload.Set("callFromScreen", "PatientSearch")
	payload.Set("action", "Patient")
	payload.Set("donorProfileStatus", "2")
	payload.Set("AddlSearchBy", "DateOfBirth")
	payload.Set("AddlSearchVal", "")
	payload.Set("userType", "")
	payload.Set("orderBy", "")

	reqURL := c.buildURL(pathPatients, c.authQuery())
	res, err := c.do(ctx, "get_patients", http.MethodPost, reqURL, c.setupHeaders(formContentType), payload.Encode())
	if err != nil {
		return nil, err
	}
	return asMap(res), nil
}
