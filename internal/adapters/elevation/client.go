// Package elevation implements the batched HTTP client for the remote
// elevation query service (Google Elevation API wire format).
package elevation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nvalera/contourcad/internal/core/domain"
)

// Client fetches elevations in bounded-size batches. The remote service does
// not accept unbounded node counts per call, so requests are partitioned
// into chunks of at most chunkSize points, issued sequentially, and the
// results concatenated in original order. Any chunk failure aborts the whole
// operation; partial results are discarded.
type Client struct {
	baseURL   string
	apiKey    string
	chunkSize int
	client    *http.Client
}

// NewClient creates an elevation client. chunkSize must be positive.
func NewClient(baseURL, apiKey string, chunkSize int) *Client {
	if chunkSize <= 0 {
		chunkSize = 100
	}
	return &Client{
		baseURL:   baseURL,
		apiKey:    apiKey,
		chunkSize: chunkSize,
		client:    &http.Client{Timeout: 60 * time.Second},
	}
}

// apiResponse mirrors the elevation service's JSON payload. Elevation is a
// pointer so a JSON null (no data for the point) is distinguishable from a
// legitimate 0 m (sea level).
type apiResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Elevation *float64 `json:"elevation"`
		Location  struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"results"`
}

// Elevations returns one sample per input point, in input order.
func (c *Client) Elevations(ctx context.Context, points []domain.GeoPoint) ([]domain.ElevationSample, error) {
	samples := make([]domain.ElevationSample, 0, len(points))

	for i := 0; i < len(points); i += c.chunkSize {
		end := i + c.chunkSize
		if end > len(points) {
			end = len(points)
		}
		chunkIdx := i / c.chunkSize

		chunk, err := c.fetchChunk(ctx, points[i:end])
		if err != nil {
			return nil, &domain.SamplingError{Chunk: chunkIdx, Err: err}
		}
		samples = append(samples, chunk...)
	}

	return samples, nil
}

// fetchChunk issues a single batched request and parses its results.
func (c *Client) fetchChunk(ctx context.Context, points []domain.GeoPoint) ([]domain.ElevationSample, error) {
	locs := make([]string, len(points))
	for i, p := range points {
		locs[i] = strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lon, 'f', -1, 64)
	}

	q := url.Values{}
	q.Set("locations", strings.Join(locs, "|"))
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if body.Status != "OK" {
		return nil, fmt.Errorf("service status %q", body.Status)
	}
	if len(body.Results) != len(points) {
		return nil, fmt.Errorf("malformed response: %d results for %d points", len(body.Results), len(points))
	}

	samples := make([]domain.ElevationSample, len(points))
	for i, r := range body.Results {
		samples[i] = domain.ElevationSample{
			Location:  points[i],
			Elevation: r.Elevation,
		}
	}
	return samples, nil
}
