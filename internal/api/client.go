package api

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

	"github.com/csams/podcast-admin/internal/models"
)

// CSRFHeader carries the anti-forgery token required by the chat endpoint.
const CSRFHeader = "X-CSRFToken"

// Client talks to the podcast site's JSON endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	userAgent  string
	csrfToken  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithCSRFToken sets the token sent on chat requests.
func WithCSRFToken(token string) Option {
	return func(c *Client) { c.csrfToken = token }
}

// NewClient creates a client for the site rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host required", baseURL)
	}
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    u,
		userAgent:  "podcast-admin",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Episodes fetches the whole episode catalogue.
func (c *Client) Episodes(ctx context.Context) ([]*models.Episode, error) {
	var episodes []*models.Episode
	if err := c.getJSON(ctx, "episodes", "/api/episodios", &episodes); err != nil {
		return nil, err
	}
	return episodes, nil
}

// EditEpisode submits the full field set of the episode at index.
func (c *Client) EditEpisode(ctx context.Context, index int, fields models.EpisodeFields) error {
	path := "/admin/editar_episodio/" + strconv.Itoa(index)
	var result struct {
		Message string `json:"mensaje"`
		Error   string `json:"error"`
	}
	status, err := c.postJSON(ctx, "edit episode", path, fields, &result)
	if err != nil {
		return err
	}
	if result.Error != "" {
		return &RemoteError{Op: "edit episode", Status: status, Message: result.Error}
	}
	return nil
}

// DeleteEpisode removes the episode at index on the site.
func (c *Client) DeleteEpisode(ctx context.Context, index int) error {
	path := "/admin/eliminar_episodio/" + strconv.Itoa(index)
	var result struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	status, err := c.postJSON(ctx, "delete episode", path, nil, &result)
	if err != nil {
		return err
	}
	if !result.Success {
		return &RemoteError{Op: "delete episode", Status: status, Message: result.Error}
	}
	return nil
}

// Chat asks the site's assistant a question.
func (c *Client) Chat(ctx context.Context, message string) (*models.ChatReply, error) {
	var reply models.ChatReply
	status, err := c.postJSON(ctx, "chat", "/api/chat", map[string]string{"message": message}, &reply)
	if err != nil {
		return nil, err
	}
	if reply.Failed() {
		msg, _ := reply.Error.(string)
		return nil, &RemoteError{Op: "chat", Status: status, Message: msg}
	}
	return &reply, nil
}

// Recommendations fetches guest testimonials.
func (c *Client) Recommendations(ctx context.Context) ([]models.Recommendation, error) {
	var out []models.Recommendation
	if err := c.getJSON(ctx, "recommendations", "/api/recommendations", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Awards fetches the awards list.
func (c *Client) Awards(ctx context.Context) ([]models.Award, error) {
	var out []models.Award
	if err := c.getJSON(ctx, "awards", "/api/awards", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Videos fetches the external video feed.
func (c *Client) Videos(ctx context.Context) ([]models.Video, error) {
	var out []models.Video
	if err := c.getJSON(ctx, "videos", "/api/youtube_videos", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Participate submits a participation request after validating it.
func (c *Client) Participate(ctx context.Context, p models.Participation) error {
	if err := models.Validate(p); err != nil {
		return err
	}
	var result struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	status, err := c.postJSON(ctx, "participation", "/api/participation", p, &result)
	if err != nil {
		return err
	}
	if !result.Success {
		return &RemoteError{Op: "participation", Status: status, Message: result.Error}
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	_, err = c.do(op, req, out)
	return err
}

func (c *Client) postJSON(ctx context.Context, op, path string, body, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), reader)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.csrfToken != "" {
		req.Header.Set(CSRFHeader, c.csrfToken)
	}
	return c.do(op, req, out)
}

// do sends req and decodes a JSON body into out. Non-2xx statuses become a
// RemoteError carrying the body's "error" field when there is one.
func (c *Client) do(op string, req *http.Request, out interface{}) (int, error) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, &NetworkError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &body)
		return resp.StatusCode, &RemoteError{Op: op, Status: resp.StatusCode, Message: body.Error}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, &RemoteError{Op: op, Status: resp.StatusCode, Message: "invalid response: " + err.Error()}
	}
	return resp.StatusCode, nil
}

func (c *Client) endpoint(path string) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String()
}
