package layout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/soar/touchremote/backend/internal/axis"
	"github.com/soar/touchremote/backend/internal/surface"
)

// API paths served by the layout endpoints.
const (
	PathConfig              = "/api/config"
	PathAddButton           = "/api/add_button"
	PathUpdateButton        = "/api/update_button"
	PathDeleteButton        = "/api/delete_button"
	PathUpdateDrivingConfig = "/api/update_driving_config"
)

// Response is the body every mutating endpoint answers with.
type Response struct {
	Status  string `json:"status"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

var ErrRequestFailed = errors.New("layout request failed")

// Client talks to a remote layout API.
type Client struct {
	base string
	http *http.Client
	log  *slog.Logger
}

func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
		log:  logger,
	}
}

// Config fetches the config payload. Malformed fields are defaulted and
// returned as warnings alongside the config.
func (c *Client) Config(ctx context.Context) (Config, []error, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+PathConfig, nil)
	if err != nil {
		return Config{}, nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Config{}, nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Config{}, nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return Config{}, nil, fmt.Errorf("%w: %s", ErrRequestFailed, resp.Status)
	}
	cfg, warnings := DecodeConfig(body)
	return cfg, warnings, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) (Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Response{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	var r Response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil && resp.StatusCode == http.StatusOK {
		return Response{}, fmt.Errorf("%w: %s: %w", ErrRequestFailed, path, err)
	}
	if resp.StatusCode != http.StatusOK || r.Status != StatusSuccess {
		msg := r.Message
		if msg == "" {
			msg = resp.Status
		}
		return r, fmt.Errorf("%w: %s: %s", ErrRequestFailed, path, msg)
	}
	c.log.Debug("layout request", "path", path, "status", r.Status)
	return r, nil
}

func (c *Client) AddControl(ctx context.Context, ctl surface.Control) (string, error) {
	r, err := c.post(ctx, PathAddButton, ctl)
	if err != nil {
		return "", err
	}
	if r.ID == "" {
		return "", fmt.Errorf("%w: %s: no id returned", ErrRequestFailed, PathAddButton)
	}
	return r.ID, nil
}

func (c *Client) UpdateControl(ctx context.Context, ctl surface.Control) error {
	_, err := c.post(ctx, PathUpdateButton, ctl)
	return err
}

func (c *Client) DeleteControl(ctx context.Context, id string) error {
	_, err := c.post(ctx, PathDeleteButton, map[string]string{"id": id})
	return err
}

func (c *Client) UpdateDrivingConfig(ctx context.Context, s axis.Settings) error {
	_, err := c.post(ctx, PathUpdateDrivingConfig, s)
	return err
}

// Document fetches the stored layout part of the config.
func (c *Client) Document(ctx context.Context) (Document, error) {
	cfg, warnings, err := c.Config(ctx)
	if err != nil {
		return Document{}, err
	}
	for _, w := range warnings {
		c.log.Warn("config field defaulted", "error", w)
	}
	return cfg.Document, nil
}

// SaveLayout stores every control through update_button. The API has no
// bulk endpoint, so controls deleted elsewhere are not removed.
func (c *Client) SaveLayout(ctx context.Context, controls []surface.Control) error {
	var errs []error
	for _, ctl := range controls {
		if ctl.ID == "" {
			continue
		}
		if err := c.UpdateControl(ctx, ctl); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
