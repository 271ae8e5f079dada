package sheetsync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const DefaultSheetsBaseURL = "https://sheets.googleapis.com"

// SheetsClient reads cell values through the Sheets v4 REST API.
type SheetsClient struct {
	http    *http.Client
	baseURL string
}

// NewSheetsClient wraps an authorized HTTP client, normally the one returned
// by Credentials.Client.
func NewSheetsClient(httpClient *http.Client) *SheetsClient {
	return &SheetsClient{http: httpClient, baseURL: DefaultSheetsBaseURL}
}

// WithBaseURL points the client at another API root.
func (c *SheetsClient) WithBaseURL(baseURL string) *SheetsClient {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

type valueRange struct {
	Range  string          `json:"range"`
	Values [][]interface{} `json:"values"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Values returns the formatted cell values of rng, one slice per row.
// Trailing empty cells are omitted by the API, so rows may be ragged.
func (c *SheetsClient) Values(ctx context.Context, sheetID, rng string) ([][]string, error) {
	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s",
		c.baseURL, url.PathEscape(sheetID), url.PathEscape(rng))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("sheets API returned %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("sheets API returned %d", resp.StatusCode)
	}

	var vr valueRange
	if err := json.Unmarshal(body, &vr); err != nil {
		return nil, fmt.Errorf("failed to decode sheet values: %w", err)
	}

	rows := make([][]string, len(vr.Values))
	for i, row := range vr.Values {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			if cell == nil {
				continue
			}
			rows[i][j] = strings.TrimSpace(fmt.Sprint(cell))
		}
	}
	return rows, nil
}
