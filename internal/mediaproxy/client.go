// Package mediaproxy talks to the remote media store on behalf of the API:
// it forwards uploads and fetches stored images with the server-side access
// token, so the token never reaches clients.
package mediaproxy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Fetch retrieves a stored image and reports its content type.
func (c *Client) Fetch(ctx context.Context, path string) (string, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+path, nil)
	if err != nil {
		return "", nil, fmt.Errorf("mediaproxy: create request: %w", err)
	}
	req.Header.Set("Authorization", "token "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("mediaproxy: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("mediaproxy: fetch failed with status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("mediaproxy: read body: %w", err)
	}
	return resp.Header.Get("Content-Type"), body, nil
}

// Upload forwards one file to the remote store as a multipart form.
func (c *Client) Upload(ctx context.Context, filename string, file io.Reader) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("filename", filename)
	if err != nil {
		return fmt.Errorf("mediaproxy: create form file: %w", err)
	}
	if _, err := io.Copy(fw, file); err != nil {
		return fmt.Errorf("mediaproxy: copy file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("mediaproxy: close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/put", &buf)
	if err != nil {
		return fmt.Errorf("mediaproxy: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mediaproxy: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mediaproxy: upload failed with status: %d", resp.StatusCode)
	}
	return nil
}
