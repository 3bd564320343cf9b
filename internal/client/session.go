package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/MrSnakeDoc/keep/internal/domain"
	"github.com/MrSnakeDoc/keep/internal/logger"
	"github.com/MrSnakeDoc/keep/internal/view"
)

// Session keeps a View in sync with the server.
type Session struct {
	client   *Client
	view     *view.View
	log      logger.Logger
	onChange func([]domain.Bookmark)

	ready     chan struct{}
	readyOnce sync.Once

	minBackoff time.Duration
	maxBackoff time.Duration
}

// NewSession creates a session. onChange, if set, is called with the new list
// after every change.
func NewSession(c *Client, log logger.Logger, onChange func([]domain.Bookmark)) *Session {
	return &Session{
		client:   c,
		view:     view.New(),
		log:      log,
		onChange: onChange,
		ready:    make(chan struct{}),

		minBackoff: 500 * time.Millisecond,
		maxBackoff: 30 * time.Second,
	}
}

// View returns the reconciled list.
func (s *Session) View() *view.View { return s.view }

// Ready is closed once the initial snapshot is loaded.
func (s *Session) Ready() <-chan struct{} { return s.ready }

// Run keeps the view in sync until ctx ends. Each pass subscribes, loads
// the snapshot and applies events until the feed drops; the feed is opened
// before listing so no change made in between is missed. A dropped feed or
// an unreachable server is retried with backoff. Only rejected credentials
// end Run with an error.
func (s *Session) Run(ctx context.Context) error {
	delay := s.minBackoff
	for {
		synced, err := s.pass(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if rejected(err) {
			return err
		}
		if synced {
			delay = s.minBackoff
		}

		fields := []logger.Field{logger.Duration("retry_in", delay)}
		if err != nil {
			fields = append(fields, logger.Error(err))
		}
		s.log.Warn("feed dropped, reconnecting", fields...)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
		delay = min(delay*2, s.maxBackoff)
	}
}

// pass runs one subscription. synced reports whether the snapshot was
// loaded before the feed ended.
func (s *Session) pass(ctx context.Context) (synced bool, err error) {
	f, err := s.client.Subscribe(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = f.Close() }()

	list, err := s.client.List(ctx)
	if err != nil {
		return false, err
	}
	s.view.Reset(list)
	s.log.Info("bookmarks synced", logger.Int("count", s.view.Len()))
	s.notify()
	s.readyOnce.Do(func() { close(s.ready) })

	for {
		select {
		case <-ctx.Done():
			return true, nil
		case ev, ok := <-f.Events:
			if !ok {
				if err := f.Err(); err != nil {
					return true, fmt.Errorf("feed closed: %w", err)
				}
				return true, nil
			}
			if s.view.Apply(ev) {
				s.log.Debug("feed event applied", logger.String("type", string(ev.Kind)), logger.String("id", ev.ID))
				s.notify()
			}
		}
	}
}

// rejected reports whether the server refused the credentials.
func rejected(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
}

// Create saves a bookmark and merges the response.
func (s *Session) Create(ctx context.Context, in domain.NewBookmark) (domain.Bookmark, error) {
	b, err := s.client.Create(ctx, in)
	if err != nil {
		return domain.Bookmark{}, err
	}
	if s.view.ApplyCreated(b) {
		s.notify()
	}
	return b, nil
}

// Delete removes a bookmark and merges the confirmation.
func (s *Session) Delete(ctx context.Context, id string) error {
	if err := s.client.Delete(ctx, id); err != nil {
		return err
	}
	if s.view.Apply(domain.Event{Kind: domain.EventDelete, ID: id}) {
		s.notify()
	}
	return nil
}

func (s *Session) notify() {
	if s.onChange != nil {
		s.onChange(s.view.Items())
	}
}
