package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"simex/internal/adapters"
	"simex/internal/domain"
)

// SnapshotClient reads snapshot history from a remote history server:
//
//	GET {base}/snapshots         -> {"snapshots": ["0001", "0002", ...]}
//	GET {base}/snapshots/{name}  -> [{"pair": "BTC_USD", "rate": "9000.5"}, ...]
//
// Rates may be JSON strings or numbers.
type SnapshotClient struct {
	http    *http.Client
	baseURL string
}

type indexResponse struct {
	Snapshots []string `json:"snapshots"`
}

func (c *SnapshotClient) Index(ctx context.Context) ([]string, error) {
	var body indexResponse
	if err := c.get(ctx, "snapshots", &body); err != nil {
		return nil, fmt.Errorf("failed to fetch snapshot index: %w", err)
	}
	return body.Snapshots, nil
}

func (c *SnapshotClient) Load(ctx context.Context, name string) ([]domain.RateRecord, error) {
	var body []adapters.JSONRecord
	if err := c.get(ctx, "snapshots/"+url.PathEscape(name), &body); err != nil {
		return nil, fmt.Errorf("failed to fetch snapshot %q: %w", name, err)
	}

	records := make([]domain.RateRecord, 0, len(body))
	for _, r := range body {
		records = append(records, r.RateRecord())
	}
	return records, nil
}

func (c *SnapshotClient) get(ctx context.Context, path string, out any) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("failed to parse base URL: %w", err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, resp.Status)
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func NewSnapshotClient(httpClient *http.Client, baseURL string) *SnapshotClient {
	return &SnapshotClient{http: httpClient, baseURL: baseURL}
}
