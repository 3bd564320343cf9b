// Package service binds the store and the change feed: every successful
// mutation is followed by an explicit publish.
package service

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/keep/internal/domain"
	"github.com/MrSnakeDoc/keep/internal/feed"
	"github.com/MrSnakeDoc/keep/internal/logger"
	"github.com/MrSnakeDoc/keep/internal/sources/homepage"
)

// Publisher is the publishing half of feed.Broker.
type Publisher interface {
	Publish(ctx context.Context, ev domain.Event) error
}

var _ Publisher = (feed.Broker)(nil)

// storeTimeout bounds a mutation once it has been detached from its request.
const storeTimeout = 10 * time.Second

// Bookmarks is the use-case layer behind the HTTP handlers.
type Bookmarks struct {
	store     domain.Store
	publisher Publisher
	log       logger.Logger
}

// NewBookmarks creates the service.
func NewBookmarks(store domain.Store, publisher Publisher, log logger.Logger) *Bookmarks {
	return &Bookmarks{store: store, publisher: publisher, log: log}
}

// List returns the caller's bookmarks, newest first.
func (s *Bookmarks) List(ctx context.Context, owner string) ([]domain.Bookmark, error) {
	return s.store.List(ctx, owner)
}

// Create validates in, stores it and publishes an insert event.
func (s *Bookmarks) Create(ctx context.Context, owner string, in domain.NewBookmark) (domain.Bookmark, error) {
	// Reject before touching the store
	if err := in.Validate(); err != nil {
		return domain.Bookmark{}, err
	}

	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	b, err := s.store.Create(sctx, owner, in)
	if err != nil {
		return domain.Bookmark{}, err
	}

	s.publish(ctx, domain.InsertEvent(b))
	return b, nil
}

// Delete removes the caller's bookmark id. Absent and foreign ids are not
// errors; only an actual removal is published.
func (s *Bookmarks) Delete(ctx context.Context, owner, id string) error {
	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	deleted, err := s.store.Delete(sctx, owner, id)
	if err != nil {
		return err
	}

	if deleted {
		s.publish(ctx, domain.DeleteEvent(owner, id))
	}
	return nil
}

// ImportResult summarizes an import.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Import parses a Homepage YAML payload and creates every usable entry
// through Create, so each import publishes like a normal create.
// A storage failure aborts the import and is returned with the partial result.
func (s *Bookmarks) Import(ctx context.Context, owner string, format homepage.Format, data []byte) (ImportResult, error) {
	entries, skipped, err := homepage.Parse(format, data)
	if err != nil {
		return ImportResult{}, &domain.ValidationError{Field: "body", Message: "invalid import file", Err: err}
	}

	res := ImportResult{Skipped: skipped}
	for _, in := range entries {
		// Entries already written stay written, the rest are dropped
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if _, err := s.Create(ctx, owner, in); err != nil {
			if domain.IsValidation(err) {
				res.Skipped++
				continue
			}
			return res, err
		}
		res.Imported++
	}

	s.log.Info("bookmarks imported",
		logger.String("owner_id", owner),
		logger.String("format", string(format)),
		logger.Int("imported", res.Imported),
		logger.Int("skipped", res.Skipped),
	)
	return res, nil
}

// Ping checks the backing store.
func (s *Bookmarks) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// storeContext detaches a mutation from its caller. A client that goes
// away mid-request must not leave a write half applied or applied but
// never published.
func (s *Bookmarks) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
}

func (s *Bookmarks) publish(ctx context.Context, ev domain.Event) {
	if s.publisher == nil {
		return
	}
	// The mutation already succeeded, subscribers recover on their next list
	if err := s.publisher.Publish(context.WithoutCancel(ctx), ev); err != nil {
		s.log.Warn("failed to publish feed event",
			logger.String("type", string(ev.Kind)),
			logger.String("owner_id", ev.OwnerID),
			logger.String("id", ev.ID),
			logger.Error(err),
		)
	}
}
