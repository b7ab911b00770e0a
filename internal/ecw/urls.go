package ecw

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Paths into the ECW web EMR's internal XML catalog. These mirror the routes
// the webemr front end itself calls; they are not a published API.
const (
	pathFacilities         = "/mobiledoc/jsp/catalog/xml/getFacilities"
	pathProviders          = "/mobiledoc/jsp/catalog/xml/getProvidersList"
	pathProviderLookup     = "/mobiledoc/jsp/catalog/xml/getProviderByName"
	pathReasons            = "/mobiledoc/jsp/catalog/xml/getReasons"
	pathAppointments       = "/mobiledoc/jsp/catalog/xml/getApptsList"
	pathAppointmentForm    = "/mobiledoc/jsp/catalog/xml/getAppointment"
	pathSetAppointment     = "/mobiledoc/jsp/catalog/xml/setAppointment"
	pathPatients           = "/mobiledoc/jsp/catalog/xml/getPatientsList"
	pathProgressNote       = "/mobiledoc/jsp/catalog/xml/getProgressNote"
	pathSurgicalHx         = "/mobiledoc/jsp/catalog/xml/getSurgicalHistory"
	pathSetSurgicalHx      = "/mobiledoc/jsp/catalog/xml/setSurgicalHistory"
	pathHospitalizationHx  = "/mobiledoc/jsp/catalog/xml/getHospitalization"
	pathSetHospitalization = "/mobiledoc/jsp/catalog/xml/setHospitalization"
	pathSetEncounterDtls   = "/mobiledoc/jsp/catalog/xml/setEncounterDetails"
	pathSetAnnualNotes     = "/mobiledoc/jsp/catalog/xml/setAnnualNotes"
	pathSetAllergies       = "/mobiledoc/jsp/catalog/xml/setAllergiesForEncounter"
	pathAllergySearch      = "/mobiledoc/jsp/catalog/xml/enhancedMedicationQuickSearch"
	pathFamilyHxNotes      = "/mobiledoc/jsp/webemr/services/saveFamilyHistoryNotes"
	pathBatchAjax          = "/mobiledoc/jsp/webemr/ajax/batchAjaxController.jsp"
	pathWebEMRIndex        = "/mobiledoc/jsp/webemr/index.jsp"
)

// nowMillis is stubbed in tests to pin the timestamp query param.
var nowMillis = func() int64 {
	return time.Now().UnixMilli()
}

// authQuery returns the session identification params every catalog URL needs.
func (c *Client) authQuery() url.Values {
	q := url.Values{}
	q.Set("sessionDID", c.tokens.SessionDID)
	q.Set("TrUserId", c.tokens.TrUserID)
	q.Set("timestamp", strconv.FormatInt(nowMillis(), 10))
	q.Set("clientTimezone", "UTC")
	return q
}

// deviceQuery adds the params the webemr write flows carry on top of auth.
func deviceQuery(q url.Values) url.Values {
	q.Set("Device", "webemr")
	q.Set("ecwappprocessid", "0")
	return q
}

// buildURL joins a catalog path with query params onto the configured base.
func (c *Client) buildURL(path string, q url.Values) string {
	if len(q) == 0 {
		return c.baseURL + path
	}
	return fmt.Sprintf("%s%s?%s", c.baseURL, path, q.Encode())
}
