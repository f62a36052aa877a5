// Package client talks to the board API over REST and subscribes to its realtime channel.
package client

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
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/noah-isme/housing-board-api/internal/dto"
	"github.com/noah-isme/housing-board-api/internal/models"
	"github.com/noah-isme/housing-board-api/pkg/response"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("board api %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("board api %d: %s", e.Status, e.Message)
}

// Event is one realtime frame. Data is kept raw because its shape depends on Kind.
type Event struct {
	Kind models.EventKind `json:"event"`
	Data json.RawMessage  `json:"data"`
}

// Config configures a Client.
type Config struct {
	// BaseURL is the server root, e.g. http://localhost:3001.
	BaseURL      string
	APIPrefix    string
	RealtimePath string
	HTTPClient   *http.Client
	Dialer       *websocket.Dialer
}

// Client is a typed REST and websocket client.
type Client struct {
	base         *url.URL
	apiPrefix    string
	realtimePath string
	http         *http.Client
	dialer       *websocket.Dialer
}

// New validates the config and builds a client.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", base.Scheme)
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api"
	}
	if cfg.RealtimePath == "" {
		cfg.RealtimePath = "/socket"
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	return &Client{
		base:         base,
		apiPrefix:    "/" + strings.Trim(cfg.APIPrefix, "/"),
		realtimePath: "/" + strings.Trim(cfg.RealtimePath, "/"),
		http:         cfg.HTTPClient,
		dialer:       cfg.Dialer,
	}, nil
}

// CreateAnnouncement posts a new announcement and returns its id.
func (c *Client) CreateAnnouncement(ctx context.Context, req dto.CreateAnnouncementRequest) (int64, error) {
	var out response.MessageBody
	if err := c.do(ctx, http.MethodPost, "/announcements", req, &out); err != nil {
		return 0, err
	}
	if out.ID == nil {
		return 0, fmt.Errorf("board api: create announcement returned no id")
	}
	return *out.ID, nil
}

// ListAnnouncements returns announcements ascending by event time.
func (c *Client) ListAnnouncements(ctx context.Context, futureOnly bool) ([]models.AnnouncementWithOrganizer, error) {
	path := "/announcements"
	if futureOnly {
		path += "?filter=" + string(models.AnnouncementFilterFutureOnly)
	}
	var out []models.AnnouncementWithOrganizer
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetAnnouncement fetches one announcement.
func (c *Client) GetAnnouncement(ctx context.Context, id int64) (*models.AnnouncementWithOrganizer, error) {
	var out models.AnnouncementWithOrganizer
	if err := c.do(ctx, http.MethodGet, "/announcements/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkRead records that studentID has read the announcement. Repeating it is harmless.
func (c *Client) MarkRead(ctx context.Context, announcementID, studentID int64) error {
	path := "/announcements/" + strconv.FormatInt(announcementID, 10) + "/read"
	return c.do(ctx, http.MethodPost, path, dto.MarkReadRequest{StudentID: studentID}, nil)
}

// Readers returns the names of everyone who read the announcement.
func (c *Client) Readers(ctx context.Context, announcementID int64) ([]string, error) {
	path := "/announcements/" + strconv.FormatInt(announcementID, 10) + "/readers"
	var out []string
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Report files a disturbance report and returns its id.
func (c *Client) Report(ctx context.Context, req dto.CreateReportRequest) (int64, error) {
	var out response.MessageBody
	if err := c.do(ctx, http.MethodPost, "/reports", req, &out); err != nil {
		return 0, err
	}
	if out.ID == nil {
		return 0, nil
	}
	return *out.ID, nil
}

// Student resolves a resident.
func (c *Client) Student(ctx context.Context, id int64) (*models.Student, error) {
	var out models.Student
	if err := c.do(ctx, http.MethodGet, "/students/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Subscription is a live realtime connection.
type Subscription struct {
	conn   *websocket.Conn
	events chan Event
	wmu    sync.Mutex
}

// Subscribe connects to the realtime channel. Events emitted before Subscribe returns are not
// replayed. The events channel is closed when the connection ends or ctx is cancelled.
func (c *Client) Subscribe(ctx context.Context) (*Subscription, error) {
	u := *c.base
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + c.realtimePath

	conn, _, err := c.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial realtime %s: %w", u.String(), err)
	}

	sub := &Subscription{conn: conn, events: make(chan Event, 16)}
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	go func() {
		defer close(done)
		defer close(sub.events)
		defer conn.Close()
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var ev Event
			if err := json.Unmarshal(raw, &ev); err != nil || ev.Kind == "" {
				continue
			}
			select {
			case sub.events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return sub, nil
}

// Events yields the frames pushed by the server.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// SetLights asks the server to relay a lights status to the actuator.
func (s *Subscription) SetLights(status string) error {
	data, err := json.Marshal(models.LightsCommand{Status: status})
	if err != nil {
		return err
	}
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return s.conn.WriteJSON(Event{Kind: models.EventLights, Data: data})
}

// Close ends the connection.
func (s *Subscription) Close() error {
	return s.conn.Close()
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(raw)
	}

	target := c.base.String() + c.apiPrefix + path
	req, err := http.NewRequestWithContext(ctx, method, target, payload)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		var errBody response.ErrorBody
		if json.Unmarshal(raw, &errBody) == nil && errBody.Error != "" {
			apiErr.Code = errBody.Code
			apiErr.Message = errBody.Error
		}
		return apiErr
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
