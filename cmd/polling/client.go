package main

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
)

const requestTimeout = 2 * time.Minute

type daemonClient struct {
	baseURL string
	client  *http.Client
}

func newDaemonClient(baseURL string) (*daemonClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid daemon url %q", baseURL)
	}

	return &daemonClient{
		baseURL: strings.TrimRight(u.String(), "/"),
		client:  &http.Client{Timeout: requestTimeout},
	}, nil
}

// do sends body, if any, JSON encoded and decodes the reply into out, if any.
// Replies with a status >= 400 are turned into errors carrying the message
// returned by the daemon.
func (c *daemonClient) do(
	ctx context.Context, method, path string, body, out interface{},
) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("unable to connect to daemon: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var errResp struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil ||
			errResp.Error == "" {
			return fmt.Errorf("daemon replied with status %s", resp.Status)
		}
		return fmt.Errorf("%s", errResp.Error)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
