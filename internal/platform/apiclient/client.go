// Package apiclient talks to the central registration server from a field
// device: it pulls registrations for offline lookup and pushes cached
// records in sync batches.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/swarnabindu/prashan/internal/domain/offlinesync"
	"github.com/swarnabindu/prashan/internal/domain/registration"
)

const (
	apiPrefix      = "/api/v1"
	deviceIDHeader = "X-Device-ID"
)

// StatusError is returned when the server answers outside 2xx.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Code)
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

type Client struct {
	baseURL  string
	deviceID string
	http     *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithDeviceID tags every request with the tablet's id so the server can
// rate limit and report per device.
func WithDeviceID(id string) Option {
	return func(c *Client) { c.deviceID = id }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Pull is the full set of server-side changes, collected across pages.
type Pull struct {
	Registrations []*registration.Registration
	Total         int
	ServerTime    time.Time
}

type pullPage struct {
	Success    bool                         `json:"success"`
	Data       []*registration.Registration `json:"data"`
	Total      int                          `json:"total"`
	ServerTime time.Time                    `json:"server_time"`
}

// FetchRegistrations pulls registrations changed since the given time, or
// all of them when since is nil, following offset pages until the server's
// total is reached. Every returned record is marked synced. ServerTime is
// taken from the first page so the next pull does not skip rows written
// while paging.
func (c *Client) FetchRegistrations(ctx context.Context, since *time.Time) (*Pull, error) {
	pull := &Pull{}
	seen := make(map[string]bool)
	offset := 0
	for {
		q := url.Values{}
		if since != nil {
			q.Set("last_sync", since.UTC().Format(time.RFC3339))
		}
		if offset > 0 {
			q.Set("offset", strconv.Itoa(offset))
		}
		endpoint := c.baseURL + apiPrefix + "/sync"
		if len(q) > 0 {
			endpoint += "?" + q.Encode()
		}

		var page pullPage
		if err := c.do(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, fmt.Errorf("fetch registrations at offset %d: %w", offset, err)
		}
		if offset == 0 {
			pull.ServerTime = page.ServerTime
		}
		pull.Total = page.Total

		// Rows inserted while paging shift later pages, so a row can repeat.
		for _, r := range page.Data {
			key := r.SerialNo
			if key == "" {
				key = r.ID.String()
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			r.Synced = true
			pull.Registrations = append(pull.Registrations, r)
		}

		offset += len(page.Data)
		if len(page.Data) == 0 || offset >= page.Total {
			break
		}
	}
	if offset < pull.Total {
		return nil, fmt.Errorf("fetch registrations: server reported %d, received %d", pull.Total, offset)
	}
	return pull, nil
}

// PushBatch uploads one sync batch and returns the server's per-kind tallies.
func (c *Client) PushBatch(ctx context.Context, b offlinesync.Batch) (offlinesync.Results, error) {
	payload, err := json.Marshal(b)
	if err != nil {
		return offlinesync.Results{}, fmt.Errorf("encode batch: %w", err)
	}
	var resp offlinesync.Response
	if err := c.do(ctx, http.MethodPost, c.baseURL+apiPrefix+"/sync", payload, &resp); err != nil {
		return offlinesync.Results{}, fmt.Errorf("push batch: %w", err)
	}
	return resp.Results, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.deviceID != "" {
		req.Header.Set(deviceIDHeader, c.deviceID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env struct {
			Message string `json:"message"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = json.Unmarshal(raw, &env)
		return &StatusError{Code: resp.StatusCode, Message: env.Message}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Registrations fetches every registration on the server, page by page.
func (c *Client) Registrations(ctx context.Context) ([]*registration.Registration, error) {
	pull, err := c.FetchRegistrations(ctx, nil)
	if err != nil {
		return nil, err
	}
	return pull.Registrations, nil
}
