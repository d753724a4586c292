package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"photoboard/api/internal/config"
)

var (
	// ErrMissingCredentials means the account id or API token is not
	// configured. Checked per call so the server can start without them.
	ErrMissingCredentials = errors.New("missing image host credentials")

	// ErrImageMissing is returned by Delete when the catalog no longer
	// knows the id. Callers in the reject flow treat it as success.
	ErrImageMissing = errors.New("image not found on host")
)

// UpstreamError is any non-success answer from the image host.
type UpstreamError struct {
	StatusCode int
	Detail     string
}

func (e *UpstreamError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("image host error (status %d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("image host error (status %d)", e.StatusCode)
}

// RemoteImage is one entry of the host's catalog listing.
type RemoteImage struct {
	ID         string         `json:"id"`
	Variants   []string       `json:"variants"`
	Metadata   map[string]any `json:"meta"`
	UploadedAt time.Time      `json:"uploaded"`
}

type listResponse struct {
	Success bool `json:"success"`
	Errors  []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
	Result struct {
		Images []RemoteImage `json:"images"`
	} `json:"result"`
}

// Client talks to a Cloudflare-Images-shaped HTTP API. It holds no state
// beyond configuration and the HTTP client.
type Client struct {
	cfg  config.UpstreamConfig
	http *http.Client
}

func NewClient(cfg config.UpstreamConfig) *Client {
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (c *Client) credentialsPresent() bool {
	return c.cfg.AccountID != "" && c.cfg.APIToken != ""
}

// ListAll fetches the host's catalog. Only the first page is requested.
// TODO: follow pagination for accounts holding more than one page of images.
func (c *Client) ListAll(ctx context.Context) ([]RemoteImage, error) {
	if !c.credentialsPresent() {
		return nil, ErrMissingCredentials
	}

	url := fmt.Sprintf("%s/accounts/%s/images/v1?per_page=%d",
		strings.TrimSuffix(c.cfg.BaseURL, "/"), c.cfg.AccountID, c.cfg.PageSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build list request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &UpstreamError{Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Detail: readDetail(resp.Body)}
	}

	var payload listResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Detail: fmt.Sprintf("decode response: %v", err)}
	}
	if !payload.Success {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Detail: firstError(payload)}
	}

	return payload.Result.Images, nil
}

// Delete removes an image from the host. A 404 maps to ErrImageMissing.
func (c *Client) Delete(ctx context.Context, id string) error {
	if !c.credentialsPresent() {
		return ErrMissingCredentials
	}

	url := fmt.Sprintf("%s/accounts/%s/images/v1/%s",
		strings.TrimSuffix(c.cfg.BaseURL, "/"), c.cfg.AccountID, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return &UpstreamError{Detail: err.Error()}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrImageMissing
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &UpstreamError{StatusCode: resp.StatusCode, Detail: readDetail(resp.Body)}
	}
	return nil
}

func readDetail(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 1024))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(body))
}

func firstError(payload listResponse) string {
	if len(payload.Errors) == 0 {
		return "upstream reported failure"
	}
	return fmt.Sprintf("%d: %s", payload.Errors[0].Code, payload.Errors[0].Message)
}
