// Package places pulls venue details from the Google Places API (v1) to
// enrich owner-entered venue records with authoritative address, location
// and opening-hours data.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const fieldMask = "id,displayName,formattedAddress,location,regularOpeningHours,websiteUri,editorialSummary"

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    "https://places.googleapis.com/v1",
		httpClient: http.DefaultClient,
	}
}

// Details is the subset of a Place this service cares about.
type Details struct {
	ID          string `json:"id"`
	DisplayName struct {
		Text string `json:"text"`
	} `json:"displayName"`
	FormattedAddress string `json:"formattedAddress"`
	Location         struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
	RegularOpeningHours struct {
		WeekdayDescriptions []string `json:"weekdayDescriptions"`
	} `json:"regularOpeningHours"`
	WebsiteURI       string `json:"websiteUri"`
	EditorialSummary struct {
		Text string `json:"text"`
	} `json:"editorialSummary"`
}

// Fetch retrieves the masked place details for a Place ID.
func (c *Client) Fetch(ctx context.Context, placeID string) (*Details, error) {
	url := fmt.Sprintf("%s/places/%s", c.baseURL, placeID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("places fetch request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("places fetch failed: http=%d body=%s", resp.StatusCode, string(raw))
	}

	var details Details
	if err := json.Unmarshal(raw, &details); err != nil {
		return nil, fmt.Errorf("places fetch decode: %w", err)
	}
	return &details, nil
}

// MergeUpdates maps place details onto venue columns, skipping fields the
// API left empty so owner-entered values survive a partial response.
func MergeUpdates(d *Details) map[string]interface{} {
	updates := make(map[string]interface{})
	if d.FormattedAddress != "" {
		updates["address"] = d.FormattedAddress
	}
	if d.Location.Latitude != 0 || d.Location.Longitude != 0 {
		updates["latitude"] = d.Location.Latitude
		updates["longitude"] = d.Location.Longitude
	}
	if len(d.RegularOpeningHours.WeekdayDescriptions) > 0 {
		updates["operating_hours"] = strings.Join(d.RegularOpeningHours.WeekdayDescriptions, "\n")
	}
	if d.WebsiteURI != "" {
		updates["website_url"] = d.WebsiteURI
	}
	return updates
}
