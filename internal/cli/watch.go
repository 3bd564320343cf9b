package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/keep/internal/client"
	"github.com/MrSnakeDoc/keep/internal/domain"
	"github.com/MrSnakeDoc/keep/internal/logger"
)

// newWatchCommand prints the caller's list and reprints it on every change,
// whichever session made it.
func newWatchCommand() *cobra.Command {
	var (
		server   string
		token    string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow your bookmarks live",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if token == "" {
				return errors.New("a bearer token is required (--token or KEEP_TOKEN)")
			}
			c, err := client.New(server, token)
			if err != nil {
				return err
			}

			log := logger.New(logLevel, true)
			defer func() { _ = log.Sync() }()

			out := cmd.OutOrStdout()
			var mu sync.Mutex
			session := client.NewSession(c, log, func(list []domain.Bookmark) {
				mu.Lock()
				defer mu.Unlock()
				renderList(out, list)
			})
			go func() {
				select {
				case <-session.Ready():
					log.Info("watching for changes", logger.String("server", server))
				case <-cmd.Context().Done():
				}
			}()
			return session.Run(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.StringVar(&server, "server", envOr("KEEP_SERVER", "http://localhost:8080"), "keep base URL")
	f.StringVar(&token, "token", os.Getenv("KEEP_TOKEN"), "bearer token")
	f.StringVar(&logLevel, "log-level", "warn", "debug | info | warn | error")
	return cmd
}

func renderList(w io.Writer, list []domain.Bookmark) {
	fmt.Fprintf(w, "── %d bookmark(s) ──\n", len(list))
	for _, b := range list {
		fmt.Fprintf(w, "%s  %-30s  %s\n", b.CreatedAt.Local().Format("2006-01-02 15:04"), b.Title, b.URL)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
