// Package client talks to a keep server over HTTP and the websocket feed.
package client

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

	"github.com/gorilla/websocket"

	"github.com/MrSnakeDoc/keep/internal/domain"
	"github.com/MrSnakeDoc/keep/internal/utils"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("keep: %d %s", e.Status, e.Message)
}

// Client is an authenticated API client.
type Client struct {
	base   *url.URL
	token  string
	http   *http.Client
	dialer *websocket.Dialer
}

// New creates a client for baseURL authenticating with a bearer token.
func New(baseURL, token string) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}

	return &Client{
		base:  u,
		token: token,
		http:  &http.Client{Timeout: 15 * time.Second},
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
	}, nil
}

func (c *Client) endpoint(path string) string {
	return c.base.String() + path
}

func (c *Client) header() http.Header {
	h := http.Header{}
	if c.token != "" {
		h.Set("Authorization", "Bearer "+c.token)
	}
	return h
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return err
	}
	req.Header = c.header()
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// List returns the caller's bookmarks, newest first.
func (c *Client) List(ctx context.Context) ([]domain.Bookmark, error) {
	var list []domain.Bookmark
	if err := c.do(ctx, http.MethodGet, "/bookmarks", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Create saves a bookmark and returns the stored record.
func (c *Client) Create(ctx context.Context, in domain.NewBookmark) (domain.Bookmark, error) {
	var b domain.Bookmark
	err := c.do(ctx, http.MethodPost, "/bookmarks", in, &b)
	return b, err
}

// Delete removes a bookmark. Unknown ids are not an error.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/bookmarks/"+url.PathEscape(id), nil, nil)
}

// Feed is an open change feed connection.
type Feed struct {
	Events <-chan domain.Event

	conn *websocket.Conn
	done chan struct{}
	err  error
}

// Err reports why Events was closed. Valid after Events is drained.
func (f *Feed) Err() error {
	<-f.done
	return f.err
}

// Close terminates the connection.
func (f *Feed) Close() error {
	_ = f.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return f.conn.Close()
}

// Subscribe opens the websocket change feed.
func (c *Client) Subscribe(ctx context.Context) (*Feed, error) {
	u := *c.base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/bookmarks/feed"

	conn, resp, err := c.dialer.DialContext(ctx, u.String(), c.header())
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return nil, &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return nil, fmt.Errorf("failed to dial feed: %w", err)
	}

	events := make(chan domain.Event, 16)
	f := &Feed{Events: events, conn: conn, done: make(chan struct{})}

	go func() {
		defer close(f.done)
		defer close(events)
		for {
			var ev domain.Event
			if err := conn.ReadJSON(&ev); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					f.err = err
				}
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				f.err = ctx.Err()
				return
			}
		}
	}()

	return f, nil
}
