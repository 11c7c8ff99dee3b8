// pattern: Imperative Shell
package instance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client is a thin HTTP client for a running plantree instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client targeting the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Tree fetches the sorted tree, selection and display flags as raw JSON.
func (c *Client) Tree() ([]byte, error) {
	return c.do(http.MethodGet, "/api/tree", nil)
}

// Selection fetches the current selection as raw JSON.
func (c *Client) Selection() ([]byte, error) {
	return c.do(http.MethodGet, "/api/selection", nil)
}

// Select moves the running instance's selection cursor.
func (c *Client) Select(id string) error {
	_, err := c.do(http.MethodPost, "/api/selection", map[string]string{"id": id})
	return err
}

// Attach attaches a project through the running instance.
func (c *Client) Attach(path, name string) ([]byte, error) {
	return c.do(http.MethodPost, "/api/projects", map[string]string{"path": path, "name": name})
}

// Detach detaches a project through the running instance.
func (c *Client) Detach(root string) error {
	_, err := c.do(http.MethodDelete, "/api/projects?root="+url.QueryEscape(root), nil)
	return err
}

// do performs a request with an optional JSON body and returns the
// response body.
func (c *Client) do(method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to plantree: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("plantree returned status %d: %s", resp.StatusCode, extractErrorMessage(respBody))
	}

	return respBody, nil
}

// extractErrorMessage returns the "error" field of a JSON body, or the raw
// body when there is none.
func extractErrorMessage(body []byte) string {
	var errResp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return errResp.Error
	}
	return string(body)
}
