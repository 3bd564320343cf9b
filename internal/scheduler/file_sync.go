package scheduler

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/MrSnakeDoc/keep/internal/domain"
	"github.com/MrSnakeDoc/keep/internal/logger"
	"github.com/MrSnakeDoc/keep/internal/sources/homepage"
)

// Bookmarks is the part of the bookmark service the sync needs.
type Bookmarks interface {
	List(ctx context.Context, owner string) ([]domain.Bookmark, error)
	Create(ctx context.Context, owner string, in domain.NewBookmark) (domain.Bookmark, error)
}

// SyncResult summarises one pass.
type SyncResult struct {
	Added   int
	Present int
	Skipped int
	Changed bool
}

// FileSync periodically imports a Homepage YAML file into one owner's
// bookmarks. Only URLs the owner does not have yet are created; nothing is
// ever deleted, removals stay a user decision.
type FileSync struct {
	path     string
	format   homepage.Format
	owner    string
	service  Bookmarks
	logger   logger.Logger
	interval time.Duration

	mu       sync.Mutex
	lastHash [sha256.Size]byte
	synced   bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewFileSync creates a file sync
func NewFileSync(
	path string,
	format homepage.Format,
	owner string,
	service Bookmarks,
	log logger.Logger,
	interval time.Duration,
) *FileSync {
	return &FileSync{
		path:     path,
		format:   format,
		owner:    owner,
		service:  service,
		logger:   log.With(logger.String("file", path), logger.String("owner_id", owner)),
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start runs a first pass and then one every interval.
// A failing first pass is logged, the file may appear later.
func (fs *FileSync) Start(ctx context.Context) error {
	if fs.interval <= 0 {
		return fmt.Errorf("sync interval must be positive, got %s", fs.interval)
	}

	if _, err := fs.Sync(ctx); err != nil {
		fs.logger.Warn("initial file sync failed", logger.Error(err))
	}

	ticker := time.NewTicker(fs.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := fs.Sync(ctx); err != nil {
					fs.logger.Error("file sync failed", logger.Error(err))
				}
			case <-fs.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the periodic sync
func (fs *FileSync) Stop() {
	fs.stopOnce.Do(func() { close(fs.stopCh) })
}

// Sync reads the file and creates the missing bookmarks. An unchanged file
// since the last successful pass is a no-op.
func (fs *FileSync) Sync(ctx context.Context) (SyncResult, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := os.ReadFile(fs.path)
	if err != nil {
		return SyncResult{}, fmt.Errorf("failed to read %s: %w", fs.path, err)
	}

	hash := sha256.Sum256(data)
	if fs.synced && hash == fs.lastHash {
		return SyncResult{}, nil
	}

	entries, skipped, err := homepage.Parse(fs.format, data)
	if err != nil {
		return SyncResult{}, err
	}

	existing, err := fs.service.List(ctx, fs.owner)
	if err != nil {
		return SyncResult{}, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	have := make(map[string]struct{}, len(existing))
	for _, b := range existing {
		have[normalizeURL(b.URL)] = struct{}{}
	}

	res := SyncResult{Skipped: skipped, Changed: true}
	for _, in := range entries {
		key := normalizeURL(in.URL)
		if _, ok := have[key]; ok {
			res.Present++
			continue
		}
		if _, err := fs.service.Create(ctx, fs.owner, in); err != nil {
			if domain.IsValidation(err) {
				res.Skipped++
				continue
			}
			// Retry the whole file next tick
			return res, fmt.Errorf("failed to create bookmark: %w", err)
		}
		have[key] = struct{}{}
		res.Added++
	}

	fs.lastHash = hash
	fs.synced = true

	fs.logger.Info("file synced",
		logger.Int("added", res.Added),
		logger.Int("present", res.Present),
		logger.Int("skipped", res.Skipped),
	)
	return res, nil
}

// normalizeURL ignores a trailing slash and host case when comparing.
func normalizeURL(raw string) string {
	s := strings.TrimRight(strings.TrimSpace(raw), "/")
	if i := strings.Index(s, "://"); i >= 0 {
		rest := s[i+3:]
		host, path, _ := strings.Cut(rest, "/")
		if path != "" {
			return strings.ToLower(s[:i+3]+host) + "/" + path
		}
		return strings.ToLower(s)
	}
	return s
}
