// Package preview talks to the preview-processing service.
package preview

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-video-intake/internal/domain"
)

const maxResponseBytes = 1 << 20

// Client calls POST {baseURL}/preview.
type Client struct {
	baseURL string
	http    *http.Client
}

type previewResponse struct {
	PreviewID string `json:"previewId"`
	Pricing   *struct {
		SuggestedPriceUSD *float64 `json:"suggested_price_usd"`
	} `json:"pricing"`
}

// NewClient returns a Client. Deadlines come from the caller's context; a nil
// httpClient uses http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Process submits req and returns the preview id and price estimate.
// Every failure wraps domain.ErrPreviewFailed.
func (c *Client) Process(ctx context.Context, req domain.PreviewRequest) (*domain.PreviewResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", domain.ErrPreviewFailed, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/preview", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrPreviewFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPreviewFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", domain.ErrPreviewFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrPreviewFailed, resp.StatusCode, truncate(string(raw), 200))
	}
	var pr previewResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrPreviewFailed, err)
	}
	if pr.PreviewID == "" {
		return nil, fmt.Errorf("%w: response without previewId", domain.ErrPreviewFailed)
	}
	res := &domain.PreviewResult{PreviewID: pr.PreviewID}
	if pr.Pricing != nil {
		res.SuggestedPriceUSD = pr.Pricing.SuggestedPriceUSD
	}
	return res, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
