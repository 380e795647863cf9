package redfin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"undervalued-homes/config"
	"undervalued-homes/models"
	"undervalued-homes/utils"
)

const (
	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// maxBodyBytes bounds how much of a search response is read.
	maxBodyBytes = 32 << 20
)

// jsonGuard is prepended to every search response to defeat JSON hijacking.
var jsonGuard = []byte("{}&&")

var (
	// ErrUpstreamFetch means the search endpoint was unreachable or answered
	// with a non-success status.
	ErrUpstreamFetch = errors.New("listings search failed")

	// ErrMalformedPayload means the response was not JSON or lacked the
	// payload.homes collection.
	ErrMalformedPayload = errors.New("malformed listings payload")
)

// fixedParams are sent with every search, matching a plain "for sale" query.
var fixedParams = map[string]string{
	"al":                    "1",
	"has_deal":              "false",
	"has_dishwasher":        "false",
	"has_laundry_facility":  "false",
	"has_laundry_hookups":   "false",
	"has_parking":           "false",
	"has_pool":              "false",
	"has_short_term_lease":  "false",
	"include_pending_homes": "false",
	"isRentals":             "false",
	"is_furnished":          "false",
	"is_income_restricted":  "false",
	"is_senior_living":      "false",
	"ord":                   "redfin-recommended-asc",
	"page_number":           "1",
	"region_type":           "2",
	"sf":                    "1,3,7",
	"status":                "9",
	"travel_with_traffic":   "false",
	"travel_within_region":  "false",
	"utilities_included":    "false",
	"v":                     "8",
}

type searchResponse struct {
	Payload *struct {
		Homes []models.RawListing `json:"homes"`
	} `json:"payload"`
}

// Client queries the listings search endpoint. It does not retry.
type Client struct {
	endpoint string
	http     *http.Client
	logger   *utils.Logger
}

// New creates a search Client bounded by cfg.FetchTimeout.
func New(cfg *config.Config, logger *utils.Logger) *Client {
	return NewWithHTTPClient(cfg.SearchEndpoint, &http.Client{Timeout: cfg.FetchTimeout}, logger)
}

// NewWithHTTPClient creates a Client using the given endpoint and http.Client.
func NewWithHTTPClient(endpoint string, hc *http.Client, logger *utils.Logger) *Client {
	if hc.Timeout == 0 {
		hc.Timeout = 20 * time.Second
	}
	return &Client{endpoint: endpoint, http: hc, logger: logger}
}

// SearchURL builds the full search URL for q.
func (c *Client) SearchURL(q models.SearchQuery) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("%w: bad endpoint %q: %v", ErrUpstreamFetch, c.endpoint, err)
	}

	params := u.Query()
	for k, v := range fixedParams {
		params.Set(k, v)
	}
	params.Set("num_homes", q.NumHomes)
	params.Set("uipt", q.PropertyType)
	params.Set("region_id", q.RegionID)
	u.RawQuery = params.Encode()

	return u.String(), nil
}

// Search fetches the listing objects for q, in response order.
func (c *Client) Search(ctx context.Context, q models.SearchQuery) ([]models.RawListing, error) {
	searchURL, err := c.SearchURL(q)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUpstreamFetch, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")

	c.logger.Info("[redfin] Searching region %s (uipt=%s, num_homes=%s)", q.RegionID, q.PropertyType, q.NumHomes)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrUpstreamFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUpstreamFetch, err)
	}

	homes, err := DecodeHomes(body)
	if err != nil {
		return nil, err
	}

	c.logger.Info("[redfin] Received %d listings in %v", len(homes), time.Since(start).Round(time.Millisecond))
	return homes, nil
}

// DecodeHomes strips the JSON guard prefix and extracts payload.homes.
func DecodeHomes(body []byte) ([]models.RawListing, error) {
	body = bytes.TrimSpace(body)
	body = bytes.TrimPrefix(body, jsonGuard)

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if sr.Payload == nil || sr.Payload.Homes == nil {
		return nil, fmt.Errorf("%w: missing payload.homes", ErrMalformedPayload)
	}
	return sr.Payload.Homes, nil
}
