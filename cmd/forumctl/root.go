package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/forumfront/internal/backend"
	"github.com/sakif/forumfront/internal/model"
	"github.com/sakif/forumfront/internal/repository/memory"
	"github.com/sakif/forumfront/internal/service"
	"github.com/sakif/forumfront/internal/session"
)

var (
	apiURL   string
	username string
	password string
	verbose  bool
	timeout  time.Duration
)

// app is built once per invocation in PersistentPreRunE.
type app struct {
	client *backend.Client
	logger *slog.Logger
	sess   *session.Session
	auth   *service.AuthService
}

var current *app

var rootCmd = &cobra.Command{
	Use:           "forumctl",
	Short:         "Browse and post to the marketplace forum",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if apiURL == "" {
			return errors.New("API URL not set: use --api or FORUM_API_URL")
		}

		var out io.Writer = io.Discard
		if verbose {
			out = os.Stderr
		}
		logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))

		client, err := backend.New(backend.Config{BaseURL: apiURL, Timeout: timeout}, logger)
		if err != nil {
			return err
		}

		current = &app{
			client: client,
			logger: logger,
			sess:   session.NewStore(1, 0, logger).New(),
			auth:   service.NewAuthService(client, memory.NewUserCache(0, 0), logger),
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", os.Getenv("FORUM_API_URL"), "marketplace API base URL")
	rootCmd.PersistentFlags().StringVarP(&username, "user", "u", os.Getenv("FORUM_USER"), "username to sign in as")
	rootCmd.PersistentFlags().StringVar(&password, "password", os.Getenv("FORUM_PASSWORD"), "password for --user")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log backend requests to stderr")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 15*time.Second, "per-request timeout")
}

// signIn logs the session in when credentials were given. It returns the
// user, or nil for an anonymous run.
func (a *app) signIn(ctx context.Context) (*model.User, error) {
	if username == "" {
		return nil, nil
	}
	return a.auth.Login(ctx, a.sess, model.Credentials{Username: username, Password: password})
}

// requireUser is signIn for commands that cannot run anonymously.
func (a *app) requireUser(ctx context.Context) (*model.User, error) {
	if username == "" {
		return nil, errors.New("this command needs --user (or FORUM_USER)")
	}
	return a.signIn(ctx)
}
