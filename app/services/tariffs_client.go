// Package services contains external service clients used by the application
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/wbtools/tariff-sync/app/dto"
	businessflow "github.com/wbtools/tariff-sync/business_flow"
	"github.com/wbtools/tariff-sync/config"
)

// TariffsClient fetches the WB box-tariffs feed for one target date
type TariffsClient interface {
	// FetchBoxTariffs returns both the decoded response and the verbatim
	// body; the raw bytes go to the ingest audit log untouched.
	FetchBoxTariffs(ctx context.Context, date string) (*dto.BoxTariffsResponse, json.RawMessage, error)
}

type httpTariffsClient struct {
	cfg    config.WBFeedConfig
	client *http.Client
}

// NewTariffsClient creates an HTTP client for the WB box-tariffs feed
func NewTariffsClient(cfg config.WBFeedConfig) TariffsClient {
	return &httpTariffsClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (c *httpTariffsClient) buildURL(date string) (string, error) {
	u, err := url.Parse(c.cfg.BoxTariffsURL)
	if err != nil {
		return "", fmt.Errorf("invalid tariffs feed url: %w", err)
	}
	q := u.Query()
	q.Set("date", date)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *httpTariffsClient) FetchBoxTariffs(ctx context.Context, date string) (*dto.BoxTariffsResponse, json.RawMessage, error) {
	feedURL, err := c.buildURL(date)
	if err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", c.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read tariffs feed response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, &businessflow.FetchError{
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
		}
	}

	var decoded dto.BoxTariffsResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", businessflow.ErrMalformedPayload, err)
	}

	return &decoded, body, nil
}

// MockTariffsClient serves a fixed response, for tests and local runs
type MockTariffsClient struct {
	Response *dto.BoxTariffsResponse
	Raw      json.RawMessage
	Err      error

	FetchedDates []string
}

func NewMockTariffsClient(raw json.RawMessage) (*MockTariffsClient, error) {
	var decoded dto.BoxTariffsResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	return &MockTariffsClient{Response: &decoded, Raw: raw}, nil
}

func (m *MockTariffsClient) FetchBoxTariffs(_ context.Context, date string) (*dto.BoxTariffsResponse, json.RawMessage, error) {
	m.FetchedDates = append(m.FetchedDates, date)
	if m.Err != nil {
		return nil, nil, m.Err
	}
	return m.Response, m.Raw, nil
}
