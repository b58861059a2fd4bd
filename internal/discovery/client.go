package discovery

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

// RawStatusPayload mirrors the wire response of GetUserStatus. JSON holds
// the decoded tree when the body parsed; Raw always holds the response text
// so shape drift upstream degrades the display instead of breaking it.
type RawStatusPayload struct {
	JSON map[string]any
	Raw  string
}

// StatusClient issues the authenticated status RPC against a confirmed
// endpoint. No connection is reused between cycles.
type StatusClient struct {
	Timeout time.Duration
}

// NewStatusClient returns a client with the given RPC timeout.
func NewStatusClient(timeout time.Duration) *StatusClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &StatusClient{Timeout: timeout}
}

// FetchStatus POSTs the status RPC and returns the raw payload. A transport
// failure, timeout, or non-2xx response yields a *NetworkError. A body that
// is not valid JSON is NOT an error: the text comes back as an opaque
// payload for the parser to deal with.
func (c *StatusClient) FetchStatus(ctx context.Context, endpoint Endpoint, securityToken string) (*RawStatusPayload, error) {
	url := endpoint.URL() + statusPath

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(statusBody))
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	setRPCHeaders(req, securityToken)

	client := &http.Client{Timeout: c.Timeout}
	if endpoint.UsesSecureTransport {
		client = insecureClient(c.Timeout)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	defer closeBody(resp)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkError{URL: url, StatusCode: resp.StatusCode, Body: string(body)}
	}

	payload := &RawStatusPayload{Raw: string(body)}
	var tree map[string]any
	if err := json.Unmarshal(body, &tree); err == nil {
		payload.JSON = tree
	}
	return payload, nil
}
