// Package usda looks up calories in the USDA FoodData Central search API.
package usda

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmynk/calories/internal/lookup"
)

const defaultBaseURL = "https://api.nal.usda.gov"

// Client queries FoodData Central.
type Client struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

var _ lookup.Provider = (*Client)(nil)

func (c *Client) Name() string { return "usda" }

// LookupCalories returns the energy of the first search hit that reports one,
// in kcal.
func (c *Client) LookupCalories(ctx context.Context, query string) (float64, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return 0, fmt.Errorf("missing USDA API key")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}

	payload, err := json.Marshal(map[string]any{
		"query":    strings.TrimSpace(query),
		"pageSize": 10,
	})
	if err != nil {
		return 0, fmt.Errorf("marshal USDA search payload: %w", err)
	}

	u := fmt.Sprintf("%s/fdc/v1/foods/search?api_key=%s", baseURL, url.QueryEscape(c.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("create USDA request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("execute USDA request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return 0, fmt.Errorf("read USDA response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("USDA request failed with status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("decode USDA response: %w", err)
	}

	for _, food := range parsed.Foods {
		if kcal, ok := energyKcal(food.FoodNutrients); ok {
			return kcal, nil
		}
	}
	return 0, fmt.Errorf("%w for %q", lookup.ErrNoResult, query)
}

// energyKcal picks the Energy nutrient reported in kcal. FoodData Central
// also reports energy in kJ under the same name.
func energyKcal(nutrients []usdaNutrient) (float64, bool) {
	for _, n := range nutrients {
		if !strings.EqualFold(strings.TrimSpace(n.NutrientName), "energy") {
			continue
		}
		unit := strings.ToLower(strings.TrimSpace(n.UnitName))
		if unit != "" && unit != "kcal" {
			continue
		}
		if n.Value > 0 {
			return n.Value, true
		}
	}
	return 0, false
}

type searchResponse struct {
	Foods []usdaFood `json:"foods"`
}

type usdaFood struct {
	FDCID         int64          `json:"fdcId"`
	Description   string         `json:"description"`
	FoodNutrients []usdaNutrient `json:"foodNutrients"`
}

type usdaNutrient struct {
	NutrientName string  `json:"nutrientName"`
	UnitName     string  `json:"unitName"`
	Value        float64 `json:"value"`
}
