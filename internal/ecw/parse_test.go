package ecw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const facilitiesXML = `<?xml version="1.0" encoding="UTF-8"?>
<root>
  <facilities>
    <facility><Id>21</Id><Name>Downtown Clinic</Name><POS>11</POS></facility>
    <facility><Id>22</Id><Name>Uptown Clinic</Name><POS>22</POS></facility>
  </facilities>
</root>`

func TestParseXMLResponseRepeatedElements(t *testing.T) {
	parsed, err := parseXMLResponse([]byte(facilitiesXML))
	require.NoError(t, err)

	facilities := listField(parsed, "facilities")
	require.Len(t, facilities, 2)

	first, ok := facilities[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "21", stringField(first, "Id"))
	assert.Equal(t, "Downtown Clinic", stringField(first, "Name"))
	assert.Equal(t, "11", stringField(first, "POS"))
}

func TestParseXMLResponseSingleElementStillListable(t *testing.T) {
	doc := `<root><facilities><facility><Id>5</Id><Name>Only One</Name><POS>11</POS></facility></facilities></root>`
	parsed, err := parseXMLResponse([]byte(doc))
	require.NoError(t, err)

	facilities := listField(parsed, "facilities")
	require.Len(t, facilities, 1)
	m := facilities[0].(map[string]any)
	assert.Equal(t, "Only One", stringField(m, "Name"))
}

func TestParseXMLResponseAttributes(t *testing.T) {
	doc := `<root status="ok"><message>saved</message></root>`
	parsed, err := parseXMLResponse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "ok", parsed["status"])
	assert.Equal(t, "saved", parsed["message"])
}

func TestParseXMLResponseMalformed(t *testing.T) {
	_, err := parseXMLResponse([]byte(`<root><unclosed>`))
	assert.Error(t, err)
}

func TestParseProgressNoteHTML(t *testing.T) {
	doc := `<HTML><HEAD><TITLE>note</TITLE></HEAD><BODY>
<B>Chief Complaint:</B> Annual physical.
<B>Assessment:</B>
Patient in good health.
Continue current medications.
<script>ignore()</script>
</BODY></HTML>`

	note, err := parseProgressNoteHTML([]byte(doc))
	require.NoError(t, err)
	require.Len(t, note.Sections, 2)

	assert.Equal(t, "Chief Complaint", note.Sections[0].Title)
	assert.Equal(t, []string{"Annual physical."}, note.Sections[0].Lines)

	assert.Equal(t, "Assessment", note.Sections[1].Title)
	assert.Equal(t, []string{"Patient in good health.", "Continue current medications."}, note.Sections[1].Lines)

	assert.Contains(t, note.Text, "Chief Complaint")
	assert.NotContains(t, note.Text, "ignore()")
}

func TestStringFieldCaseFallback(t *testing.T) {
	m := map[string]any{"name": "Main St"}
	assert.Equal(t, "Main St", stringField(m, "Name"))
	assert.Equal(t, "", stringField(m, "Missing"))
}

func TestListFieldShapes(t *testing.T) {
	// JSON shape: array directly under the key.
	jsonShape := map[string]any{"patients": []any{map[string]any{"id": "1"}}}
	assert.Len(t, listField(jsonShape, "patients"), 1)

	// XML shape: repeated elements under a container.
	xmlShape := map[string]any{"patients": map[string]any{"patient": []any{
		map[string]any{"id": "1"}, map[string]any{"id": "2"},
	}}}
	assert.Len(t, listField(xmlShape, "patients"), 2)

	assert.Nil(t, listField(map[string]any{}, "patients"))
}
