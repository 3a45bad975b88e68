package services

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

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/desertthunder/signx/internal/adapter"
	"github.com/desertthunder/signx/internal/models"
	"github.com/desertthunder/signx/internal/shared"
	"github.com/desertthunder/signx/internal/xmljson"
)

// ClientOpts configures a [Client]. Zero values fall back to defaults.
type ClientOpts struct {
	BaseURL   string
	Token     string
	Timeout   time.Duration
	RateLimit float64 // Requests per second; <= 0 disables throttling

	// HTTPClient overrides the transport stack entirely (tests). The token is ignored when set.
	HTTPClient *http.Client
	Logger     *log.Logger
}

// Client implements [Service] against the signage API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

var _ Service = (*Client)(nil)

// NewClient builds a [Client]. BaseURL is required.
func NewClient(opts ClientOpts) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, fmt.Errorf("%w: api base url", shared.ErrMissingConfig)
	}

	if opts.Timeout <= 0 {
		opts.Timeout = shared.DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
		if opts.Token != "" {
			httpClient.Transport = &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Bearer"}),
				Base:   http.DefaultTransport,
			}
		}
	}

	c := &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: httpClient,
		logger:     opts.Logger,
	}
	if opts.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return c, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends a request and returns the body of a 2xx response.
// payload, when non-nil, is JSON encoded.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	body, status, _, err := c.send(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		apiErr := newAPIError(status, body)
		c.logger.Warn("api request failed", "method", method, "path", path, "status", status, "message", apiErr.Message)
		return nil, apiErr
	}
	return body, nil
}

func (c *Client) send(ctx context.Context, method, path string, payload any) ([]byte, int, http.Header, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	var reader io.Reader
	if payload != nil {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false) // tag keys are sent as "<Key>"
		if err := enc.Encode(payload); err != nil {
			return nil, 0, nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/xml")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("%w: request failed: %w", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("api request", "method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))
	return body, resp.StatusCode, resp.Header, nil
}

// getTree performs a GET and decodes the XML body.
func (c *Client) getTree(ctx context.Context, path string) (map[string]any, error) {
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	tree, err := xmljson.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", shared.ErrMalformedResponse, path, err)
	}
	return tree, nil
}

// GetDevices fetches GET /Devices.
func (c *Client) GetDevices(ctx context.Context) ([]models.Device, error) {
	tree, err := c.getTree(ctx, "/Devices")
	if err != nil {
		return nil, err
	}
	return adapter.Devices(tree), nil
}

// DeleteDeviceTag sends DELETE /Devices/{id}/Tags/ with a one-element JSON array of keys.
func (c *Client) DeleteDeviceTag(ctx context.Context, deviceID, key string) error {
	if deviceID == "" || key == "" {
		return fmt.Errorf("%w: device id and tag key are required", shared.ErrInvalidArgument)
	}
	_, err := c.do(ctx, http.MethodDelete, tagsPath(deviceID), []string{key})
	return err
}

// AddDeviceTags sends POST /Devices/{id}/Tags/ with a JSON object of key/value pairs.
func (c *Client) AddDeviceTags(ctx context.Context, deviceID string, tags []models.Tag) error {
	if deviceID == "" {
		return fmt.Errorf("%w: device id is required", shared.ErrInvalidArgument)
	}
	if len(tags) == 0 {
		return fmt.Errorf("%w: no tags given", shared.ErrInvalidArgument)
	}

	payload := make(map[string]string, len(tags))
	for _, tag := range tags {
		payload[tag.Key] = tag.Value
	}
	_, err := c.do(ctx, http.MethodPost, tagsPath(deviceID), payload)
	return err
}

// GetPlaylists fetches GET /UserPlaylists.
func (c *Client) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	tree, err := c.getTree(ctx, "/UserPlaylists")
	if err != nil {
		return nil, err
	}
	return adapter.Playlists(tree), nil
}

// GetPlaylist fetches GET /UserPlaylists/{id}.
func (c *Client) GetPlaylist(ctx context.Context, playlistID string) (*models.PlaylistDetail, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id is required", shared.ErrInvalidArgument)
	}

	tree, err := c.getTree(ctx, "/UserPlaylists/"+url.PathEscape(playlistID))
	if err != nil {
		return nil, err
	}

	detail, err := adapter.PlaylistDetail(tree)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", shared.ErrPlaylistNotFound, playlistID, err)
	}
	return detail, nil
}

// GetContent fetches GET /Contents/{id}.
func (c *Client) GetContent(ctx context.Context, contentID string) (*models.Content, error) {
	if contentID == "" {
		return nil, fmt.Errorf("%w: content id is required", shared.ErrInvalidArgument)
	}

	tree, err := c.getTree(ctx, "/Contents/"+url.PathEscape(contentID))
	if err != nil {
		return nil, err
	}

	content, err := adapter.Content(tree)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", shared.ErrContentNotFound, contentID, err)
	}
	return content, nil
}

// UpdatePlaylist sends PUT /UserPlaylists/{id} with the replacement content list.
func (c *Client) UpdatePlaylist(ctx context.Context, playlistID string, update PlaylistUpdate) error {
	if playlistID == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrInvalidArgument)
	}
	if update.Content == nil {
		update.Content = []models.PlaylistContent{}
	}
	_, err := c.do(ctx, http.MethodPut, "/UserPlaylists/"+url.PathEscape(playlistID), update)
	return err
}

func tagsPath(deviceID string) string {
	return "/Devices/" + url.PathEscape(deviceID) + "/Tags/"
}
