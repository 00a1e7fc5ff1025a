package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kmorand/attache/internal/errors"
)

// Client fetches the three upstream sources through the combined-context
// proxy. One aggregate request per synthesis pass avoids partial-source
// races between independent round-trips.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a sources client. A zero timeout disables transport
// timeouts; cancellation belongs to the caller's context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FetchCombined issues the single aggregate fetch against the proxy.
// A non-nil error means the combined fetch itself failed (proxy down);
// per-source failures come back inside the response's Errors list.
func (c *Client) FetchCombined(ctx context.Context) (*CombinedResponse, error) {
	url := c.baseURL + "/api/context/combined"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build combined request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewAllSourcesUnavailable(fmt.Errorf("combined fetch: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.NewAllSourcesUnavailable(fmt.Errorf("combined fetch: status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var combined CombinedResponse
	if err := json.NewDecoder(resp.Body).Decode(&combined); err != nil {
		return nil, fmt.Errorf("decode combined response: %w", err)
	}

	return &combined, nil
}
