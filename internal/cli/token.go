package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/keep/internal/auth"
	"github.com/MrSnakeDoc/keep/internal/domain"
)

// newTokenCommand mints a bearer token for scripts and the watch command.
// It only needs the signing secret, not a running server.
func newTokenCommand() *cobra.Command {
	var (
		secret   string
		issuer   string
		audience string
		email    string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Sign a bearer token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return errors.New("a signing secret is required (--secret or KEEP_JWT_SECRET)")
			}
			if ttl <= 0 {
				return fmt.Errorf("--ttl must be positive, got %s", ttl)
			}

			tok, err := auth.NewSigner(secret, issuer, audience).
				Sign(domain.Identity{ID: args[0], Email: email}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&secret, "secret", os.Getenv("KEEP_JWT_SECRET"), "HS256 signing secret")
	f.StringVar(&issuer, "issuer", os.Getenv("KEEP_JWT_ISSUER"), "iss claim")
	f.StringVar(&audience, "audience", os.Getenv("KEEP_JWT_AUDIENCE"), "aud claim")
	f.StringVar(&email, "email", "", "email claim")
	f.DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
