package ecw

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// batchParam is one FormData payload inside a batch AJAX item.
type batchParam struct {
	ParamName  string `json:"paramName"`
	ParamValue string `json:"paramValue"`
}

// batchItem is one sub-request of the webemr batch AJAX controller. The
// controller replays each item's url with its params server-side.
type batchItem struct {
	URL   string         `json:"url"`
	Param []batchParam   `json:"param"`
	Args  map[string]any `json:"args,omitempty"`
}

func newBatchItem(targetURL string, formDataXML string) batchItem {
	return batchItem{
		URL:   targetURL,
		Param: []batchParam{{ParamName: "FormData", ParamValue: formDataXML}},
		Args:  map[string]any{},
	}
}

// postBatch submits items to the batch AJAX controller as
// `_csrf=<token>&x=<json array>`.
func (c *Client) postBatch(ctx context.Context, op string, items []batchItem) (any, error) {
	encoded, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("ecw: encode batch payload: %w", err)
	}

	body := fmt.Sprintf("_csrf=%s&x=%s",
		url.QueryEscape(c.tokens.CSRFToken),
		url.QueryEscape(string(encoded)),
	)

	batchURL := c.baseURL + pathBatchAjax
	return c.do(ctx, op, http.MethodPost, batchURL, c.ajaxHeaders(), body)
}
