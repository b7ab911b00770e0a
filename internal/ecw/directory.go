package ecw

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

// GetFacilities lists every facility visible to the session.
func (c *Client) GetFacilities(ctx context.Context) (map[string]any, error) {
	c.logger.Debug("fetching list of all facilities")
	url := c.buildURL(pathFacilities, c.authQuery())
	res, err := c.do(ctx, "get_facilities", http.MethodGet, url, c.setupHeaders(""), "")
	if err != nil {
		return nil, err
	}
	return asMap(res), nil
}

// GetProviders fetches one page of the provider directory.
func (c *Client) GetProviders(ctx context.Context, page int) (map[string]any, error) {
	c.logger.Debug("fetching providers page", "page", page)
	q := c.authQuery()
	q.Set("page", strconv.Itoa(page))
	url := c.buildURL(pathProviders, q)
	res, err := c.do(ctx, "get_providers", http.MethodPost, url, c.setupHeaders(""), "")
	if err != nil {
		return nil, err
	}
	return asMap(res), nil
}

// GetProviderByName looks a provider (or schedulable resource) up by name.
func (c *Client) GetProviderByName(ctx context.Context, name string) (map[string]any, error) {
	c.logger.Debug("looking up provider", "provider", name)
	q := c.authQuery()
	q.Set("provider", strings.ToLower(name))
	url := c.buildURL(pathProviderLookup, q)
	res, err := c.do(ctx, "get_provider", http.MethodPost, url, c.setupHeaders(""), "")
	if err != nil {
		return nil, err
	}
	return asMap(res), nil
}

// GetReasons lists the visit reasons configured for the practice.
func (c *Client) GetReasons(ctx context.Context) (map[string]any, error) {
	c.logger.Debug("fetching reasons")
	url := c.buildURL(pathReasons, c.authQuery())
	res, err := c.do(ctx, "get_reasons", http.MethodGet, url, c.setupHeaders(""), "")
	if err != nil {
		return nil, err
	}
	return asMap(res), nil
}

// resolveFacility matches a facility by name, case-insensitively, returning
// its id and place-of-service code.
func (c *Client) resolveFacility(ctx context.Context, name string) (*Facility, error) {
	c.logger.Debug("validating facility", "facility", name)
	res, err := c.GetFacilities(ctx)
	if err != nil {
		return nil, err
	}
	for _, item := range listField(res, "facilities") {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if strings.EqualFold(stringField(m, "Name"), name) {
			return &Facility{
				ID:   stringField(m, "Id"),
				Name: stringField(m, "Name"),
				POS:  stringField(m, "POS"),
			}, nil
		}
	}
	return nil, ErrFacilityNotFound
}

// resolveProvider returns the id of the first provider matching the name.
func (c *Client) resolveProvider(ctx context.Context, name string) (string, error) {
	c.logger.Debug("validating provider/resource", "name", name)
	res, err := c.GetProviderByName(ctx, name)
	if err != nil {
		return "", err
	}
	results := listField(res, "result")
	if len(results) == 0 {
		return "", ErrProviderNotFound
	}
	m, ok := results[0].(map[string]any)
	if !ok {
		return "", ErrProviderNotFound
	}
	id := stringField(m, "id")
	if id == "" {
		return "", ErrProviderNotFound
	}
	return id, nil
}

// resolveReason matches a visit reason by name, case-insensitively, and
// returns it in the EMR's own capitalization.
func (c *Client) resolveReason(ctx context.Context, reason string) (string, error) {
	c.logger.Debug("validating reason", "reason", reason)
	res, err := c.GetReasons(ctx)
	if err != nil {
		return "", err
	}
	for _, item := range listField(res, "reasons") {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if name := stringField(m, "name"); strings.EqualFold(name, reason) {
			return name, nil
		}
	}
	return "", ErrReasonNotFound
}
