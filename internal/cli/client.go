package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxVaultBytes bounds the body read from the server.
const maxVaultBytes = 10 << 20

// ErrResponseTooLarge is returned when the server sends more than maxVaultBytes.
var ErrResponseTooLarge = errors.New("server response exceeds 10 MiB")

// HTTPError is a non-2xx answer from the server.
type HTTPError struct {
	Status  int
	Code    string
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Client talks to a teamvault server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a Client. hc may be nil.
func NewClient(baseURL, token string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    hc,
	}
}

// FetchVault downloads the rendered .env document of an application.
func (c *Client) FetchVault(ctx context.Context, applicationID string) (string, error) {
	endpoint := c.baseURL + "/api/vault/" + url.PathEscape(applicationID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxVaultBytes+1))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if len(body) > maxVaultBytes {
		return "", ErrResponseTooLarge
	}

	if resp.StatusCode != http.StatusOK {
		return "", newHTTPError(resp.StatusCode, body)
	}
	return string(body), nil
}

func newHTTPError(status int, body []byte) *HTTPError {
	herr := &HTTPError{Status: status}
	var env struct {
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &env) == nil && env.Error != nil {
		herr.Code = env.Error.Code
		herr.Message = env.Error.Message
	}
	return herr
}
