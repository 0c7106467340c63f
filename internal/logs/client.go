package logs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bericht/internal/api"
	"bericht/internal/logging"
)

var ErrAPIUnavailable = errors.New("log API unavailable")

const defaultClientTimeout = 30 * time.Second

// Client queries a running gateway.
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
}

// NewClient builds a client for bind, which may be host:port or a URL.
// An empty bind yields a nil client.
func NewClient(bind, token string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, nil
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, err
	}
	if base.Host == "" {
		return nil, fmt.Errorf("server address %q has no host", bind)
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	return &Client{
		base:  base,
		token: strings.TrimSpace(token),
		http:  &http.Client{Timeout: defaultClientTimeout},
	}, nil
}

// Fetch runs q against the gateway. A negative limit is sent as-is so the
// server can reject it.
func (c *Client) Fetch(ctx context.Context, q logging.Query) (api.LogResponse, error) {
	if c == nil {
		return api.LogResponse{}, ErrAPIUnavailable
	}

	values := url.Values{}
	values.Set("limit", strconv.Itoa(q.Limit))
	if strings.TrimSpace(q.Level) != "" {
		values.Set("level", q.Level)
	}
	if !q.From.IsZero() {
		values.Set("from_time", q.From.Format(time.RFC3339Nano))
	}
	if !q.To.IsZero() {
		values.Set("to_time", q.To.Format(time.RFC3339Nano))
	}
	if strings.TrimSpace(q.RequestID) != "" {
		values.Set("request_id", q.RequestID)
	}

	endpoint := c.base.ResolveReference(&url.URL{Path: "/logs", RawQuery: values.Encode()})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return api.LogResponse{}, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return api.LogResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr api.ErrorResponse
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return api.LogResponse{}, fmt.Errorf("logs request failed (status %d): %s", resp.StatusCode, apiErr.Error)
		}
		return api.LogResponse{}, fmt.Errorf("logs request failed (status %d)", resp.StatusCode)
	}

	var payload api.LogResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return api.LogResponse{}, fmt.Errorf("decode logs response: %w", err)
	}
	return payload, nil
}

// IsAPIUnavailable reports whether err means nothing answered at the address.
func IsAPIUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.Is(err, ErrAPIUnavailable) || errors.As(err, &opErr)
}
