package rates

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// SettingsClient writes settings through the API's pipeline endpoint.
type SettingsClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewSettingsClient creates a client for the API at baseURL.
func NewSettingsClient(baseURL, apiKey string, httpClient *http.Client) *SettingsClient {
	return &SettingsClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// PutSetting upserts key with value.
func (c *SettingsClient) PutSetting(ctx context.Context, key, value string) error {
	body, err := json.Marshal(map[string]string{"value": value})
	if err != nil {
		return fmt.Errorf("marshaling setting: %w", err)
	}

	endpoint := c.baseURL + "/api/pipeline/settings/" + url.PathEscape(key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("updating setting %s: %w", key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("updating setting %s: unexpected status %d", key, resp.StatusCode)
	}
	return nil
}
