// Package fetch downloads BankFind datasets and their field-definition
// documents, following the API's offset pagination.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.fdic.gov/banks"
	DefaultDocsURL = "https://api.fdic.gov/banks/docs"

	// API maximum page size per request.
	maxLimit = 10000
)

// Client fetches from the BankFind API.
type Client struct {
	BaseURL string
	DocsURL string
	Limit   int

	HTTPClient *http.Client
	Logger     *zap.Logger
}

func NewClient() *Client {
	return &Client{
		BaseURL:    DefaultBaseURL,
		DocsURL:    DefaultDocsURL,
		Limit:      maxLimit,
		HTTPClient: &http.Client{Timeout: 5 * time.Minute},
		Logger:     zap.NewNop(),
	}
}

type page struct {
	Data []json.RawMessage `json:"data"`
	Meta struct {
		Total int `json:"total"`
	} `json:"meta"`
}

// Records fetches every record from an endpoint, increasing the offset
// until the reported total is reached. Record envelopes are returned
// verbatim; unwrapping happens at parse time.
func (c *Client) Records(ctx context.Context, endpoint string) ([]json.RawMessage, error) {
	var all []json.RawMessage
	offset := 0

	for {
		c.Logger.Info("fetching page",
			zap.String("endpoint", endpoint),
			zap.Int("offset", offset))

		p, err := c.fetchPage(ctx, endpoint, offset)
		if err != nil {
			return nil, err
		}

		if len(p.Data) == 0 {
			break
		}

		all = append(all, p.Data...)
		offset += len(p.Data)

		if offset >= p.Meta.Total {
			break
		}
	}

	c.Logger.Info("fetched records",
		zap.String("endpoint", endpoint),
		zap.Int("count", len(all)))

	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, endpoint string, offset int) (*page, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("limit", strconv.Itoa(c.Limit))
	q.Set("offset", strconv.Itoa(offset))

	u := fmt.Sprintf("%s/%s?%s", c.BaseURL, endpoint, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %s", u, resp.Status)
	}

	var p page
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("%s: %w", u, err)
	}

	return &p, nil
}

// Definition downloads a field-definition document to dest.
func (c *Client) Definition(ctx context.Context, filename, dest string) error {
	u := fmt.Sprintf("%s/%s", c.DocsURL, filename)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %s", u, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// SaveRecords writes the fetched records as an indented JSON array.
func SaveRecords(records []json.RawMessage, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, b, 0o644)
}
