// Package openfoodfacts looks up calories in the Open Food Facts search API.
package openfoodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmynk/calories/internal/lookup"
)

const (
	defaultBaseURL = "https://world.openfoodfacts.org"
	userAgent      = "calories-api/1.0"
)

// Client queries Open Food Facts.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

var _ lookup.Provider = (*Client)(nil)

func (c *Client) Name() string { return "openfoodfacts" }

// LookupCalories returns the kcal per serving, or per 100g when no serving
// size is known, of the first named product that reports energy.
func (c *Client) LookupCalories(ctx context.Context, query string) (float64, error) {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}

	u := fmt.Sprintf("%s/cgi/search.pl?search_terms=%s&search_simple=1&action=process&json=1&page_size=%d",
		base,
		url.QueryEscape(strings.TrimSpace(query)),
		10,
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("create openfoodfacts search request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("execute openfoodfacts search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return 0, fmt.Errorf("read openfoodfacts search response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("openfoodfacts search request failed with status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("decode openfoodfacts search response: %w", err)
	}

	for _, p := range parsed.Products {
		if strings.TrimSpace(p.ProductName) == "" {
			continue
		}
		if kcal := nutrientValue(p.Nutriments, "energy-kcal"); kcal > 0 {
			return kcal, nil
		}
	}
	return 0, fmt.Errorf("%w for %q", lookup.ErrNoResult, query)
}

func nutrientValue(n map[string]any, base string) float64 {
	for _, key := range []string{base + "_serving", base + "_100g"} {
		if v, ok := parseFloatAny(n[key]); ok {
			return v
		}
	}
	return 0
}

// parseFloatAny accepts numbers and numeric strings; the API returns both.
func parseFloatAny(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

type searchResponse struct {
	Products []product `json:"products"`
}

type product struct {
	Code        string         `json:"code"`
	ProductName string         `json:"product_name"`
	Nutriments  map[string]any `json:"nutriments"`
}
