package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"hangout-api/core/config"
	"hangout-api/modules/event/entity"
)

// HTTPPlaceDirectory resolves external venues against the configured place
// directory service. With no base URL configured it trusts caller-supplied
// venue data as-is, so local setups work without the directory.
type HTTPPlaceDirectory struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPPlaceDirectory(cfg config.PlacesConfig) *HTTPPlaceDirectory {
	timeout := 5 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &HTTPPlaceDirectory{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (d *HTTPPlaceDirectory) LookupExternalPlace(ctx context.Context, provider, externalID string) (*entity.ExternalVenue, error) {
	if d.baseURL == "" {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/v1/places/%s/%s",
		d.baseURL, url.PathEscape(provider), url.PathEscape(externalID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if d.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+d.apiKey)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("place directory returned status %d", resp.StatusCode)
	}

	var venue entity.ExternalVenue
	if err := json.NewDecoder(resp.Body).Decode(&venue); err != nil {
		return nil, err
	}
	venue.Provider = provider
	venue.ExternalID = externalID

	return &venue, nil
}
