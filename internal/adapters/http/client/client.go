// Package client is the typed HTTP client for the scouting server API.
package client

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

	"github.com/okian/scoutsync/internal/domain/model"
)

// Header names shared with the server.
const (
	DeviceHeader = "X-Device-Id"
	PinHeader    = "X-Pin"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultHealthTimeout  = 2 * time.Second
	maxErrorBody          = 4 << 10
)

// Client talks to one server. It is safe for concurrent use.
type Client struct {
	base           string
	deviceID       string
	http           *http.Client
	requestTimeout time.Duration
	healthTimeout  time.Duration
}

// New creates a Client for the API rooted at baseURL, e.g.
// "http://10.0.0.2:3001/api".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("client: invalid base url %q", baseURL)
	}
	c := &Client{
		base:           strings.TrimRight(baseURL, "/"),
		http:           &http.Client{},
		requestTimeout: defaultRequestTimeout,
		healthTimeout:  defaultHealthTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Health reports whether the server answered 2xx within the health timeout.
// It never returns an error.
func (c *Client) Health(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// FetchPit returns every pit record keyed by team number.
func (c *Client) FetchPit(ctx context.Context) (map[int]model.PitRecord, error) {
	var raw map[string]model.PitRecord
	if err := c.do(ctx, http.MethodGet, "/pit-data", nil, "", &raw); err != nil {
		return nil, fmt.Errorf("fetch pit: %w", err)
	}
	out := make(map[int]model.PitRecord, len(raw))
	for k, rec := range raw {
		team, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("fetch pit: bad team key %q", k)
		}
		out[team] = rec
	}
	return out, nil
}

// FetchMatches returns every match record, newest first.
func (c *Client) FetchMatches(ctx context.Context) ([]model.MatchRecord, error) {
	out := []model.MatchRecord{}
	if err := c.do(ctx, http.MethodGet, "/match-data", nil, "", &out); err != nil {
		return nil, fmt.Errorf("fetch match: %w", err)
	}
	return out, nil
}

// SavePit posts one pit record.
func (c *Client) SavePit(ctx context.Context, rec model.PitRecord) error {
	if err := c.do(ctx, http.MethodPost, "/pit-data", rec, "", nil); err != nil {
		return fmt.Errorf("save pit %d: %w", rec.TeamNumber, err)
	}
	return nil
}

// SaveMatch posts one match record.
func (c *Client) SaveMatch(ctx context.Context, rec model.MatchRecord) error {
	if err := c.do(ctx, http.MethodPost, "/match-data", rec, "", nil); err != nil {
		return fmt.Errorf("save match %s: %w", rec.ID, err)
	}
	return nil
}

type syncRequest struct {
	Items []model.SyncItem `json:"items"`
}

type syncResponse struct {
	OK     bool `json:"ok"`
	Synced int  `json:"synced"`
}

// Sync transmits items as one batch and returns the count the server applied.
func (c *Client) Sync(ctx context.Context, items []model.SyncItem) (int, error) {
	if items == nil {
		items = []model.SyncItem{}
	}
	var res syncResponse
	if err := c.do(ctx, http.MethodPost, "/sync", syncRequest{Items: items}, "", &res); err != nil {
		return 0, fmt.Errorf("sync %d items: %w", len(items), err)
	}
	return res.Synced, nil
}

type pinBody struct {
	Pin string `json:"pin"`
}

// PinStatus reports whether the server has an admin PIN.
func (c *Client) PinStatus(ctx context.Context) (bool, error) {
	var res struct {
		IsSet bool `json:"isSet"`
	}
	if err := c.do(ctx, http.MethodGet, "/pin/status", nil, "", &res); err != nil {
		return false, fmt.Errorf("pin status: %w", err)
	}
	return res.IsSet, nil
}

// PinSetup sets the admin PIN once.
func (c *Client) PinSetup(ctx context.Context, pin string) error {
	if err := c.do(ctx, http.MethodPost, "/pin/setup", pinBody{Pin: pin}, "", nil); err != nil {
		return fmt.Errorf("pin setup: %w", err)
	}
	return nil
}

// PinVerify reports whether pin matches the server's admin PIN.
func (c *Client) PinVerify(ctx context.Context, pin string) (bool, error) {
	var res struct {
		Valid bool `json:"valid"`
	}
	if err := c.do(ctx, http.MethodPost, "/pin/verify", pinBody{Pin: pin}, "", &res); err != nil {
		return false, fmt.Errorf("pin verify: %w", err)
	}
	return res.Valid, nil
}

// AdminUpdatePit overwrites the pit record for rec.TeamNumber.
func (c *Client) AdminUpdatePit(ctx context.Context, pin string, rec model.PitRecord) error {
	path := "/admin/pit-data/" + strconv.Itoa(rec.TeamNumber)
	if err := c.do(ctx, http.MethodPut, path, rec, pin, nil); err != nil {
		return fmt.Errorf("admin update pit %d: %w", rec.TeamNumber, err)
	}
	return nil
}

// AdminDeletePit removes the pit record for team.
func (c *Client) AdminDeletePit(ctx context.Context, pin string, team int) error {
	if err := c.do(ctx, http.MethodDelete, "/admin/pit-data/"+strconv.Itoa(team), nil, pin, nil); err != nil {
		return fmt.Errorf("admin delete pit %d: %w", team, err)
	}
	return nil
}

// AdminUpdateMatch overwrites the match record rec.ID.
func (c *Client) AdminUpdateMatch(ctx context.Context, pin string, rec model.MatchRecord) error {
	if err := c.do(ctx, http.MethodPut, "/admin/match-data/"+url.PathEscape(rec.ID), rec, pin, nil); err != nil {
		return fmt.Errorf("admin update match %s: %w", rec.ID, err)
	}
	return nil
}

// AdminDeleteMatch removes the match record id.
func (c *Client) AdminDeleteMatch(ctx context.Context, pin, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/admin/match-data/"+url.PathEscape(id), nil, pin, nil); err != nil {
		return fmt.Errorf("admin delete match %s: %w", id, err)
	}
	return nil
}

// AdminClearAll removes every pit and match record.
func (c *Client) AdminClearAll(ctx context.Context, pin string) error {
	if err := c.do(ctx, http.MethodDelete, "/admin/all-data", nil, pin, nil); err != nil {
		return fmt.Errorf("admin clear all: %w", err)
	}
	return nil
}

// do sends one JSON request and decodes a 2xx body into out when out is
// non-nil.
func (c *Client) do(ctx context.Context, method, path string, in any, pin string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.deviceID != "" {
		req.Header.Set(DeviceHeader, c.deviceID)
	}
	if pin != "" {
		req.Header.Set(PinHeader, pin)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	se := &StatusError{Code: resp.StatusCode}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	switch {
	case json.Unmarshal(b, &body) == nil && body.Message != "":
		se.Message = body.Message
	case body.Error != "":
		se.Message = body.Error
	default:
		se.Message = strings.TrimSpace(string(b))
	}
	return se
}
