// File: cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log" // Standard log for critical startup/shutdown messages before/after zap is active
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blood_donation_dashboard/internal/config"
	"blood_donation_dashboard/internal/firebase"
	"blood_donation_dashboard/internal/session"

	"github.com/spf13/cobra"
)

const cliTimeout = 30 * time.Second

func main() {
	root := &cobra.Command{
		Use:           "dashboard",
		Short:         "Blood donation dashboard backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer()
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer()
		},
	})

	var email, password string
	signIn := &cobra.Command{
		Use:   "sign-in",
		Short: "Sign in and persist the session locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, sess *session.Session) error {
				identity, err := sess.SignIn(ctx, email, password)
				if err != nil {
					return err
				}
				fmt.Printf("signed in as %s\n", identity.Email)
				return nil
			})
		},
	}
	signIn.Flags().StringVar(&email, "email", "", "account email")
	signIn.Flags().StringVar(&password, "password", "", "account password")
	_ = signIn.MarkFlagRequired("email")
	_ = signIn.MarkFlagRequired("password")
	root.AddCommand(signIn)

	root.AddCommand(&cobra.Command{
		Use:   "sign-out",
		Short: "Sign out and forget the persisted session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, sess *session.Session) error {
				if err := sess.Restore(ctx); err != nil {
					return err
				}
				if err := sess.SignOut(ctx); err != nil {
					return err
				}
				fmt.Println("signed out")
				return nil
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "whoami",
		Short: "Print the persisted identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, sess *session.Session) error {
				if err := sess.Restore(ctx); err != nil {
					return err
				}
				identity := sess.Current()
				if identity == nil {
					fmt.Println("not signed in")
					return nil
				}
				// Prefer the email inside the token over the stored one.
				who := identity.Email
				if tokenEmail, err := firebase.TokenEmail(identity.AccessToken); err == nil && tokenEmail != "" {
					who = tokenEmail
				}
				fmt.Printf("%s", who)
				if identity.DisplayName != "" {
					fmt.Printf(" (%s)", identity.DisplayName)
				}
				if !identity.ExpiresAt.IsZero() {
					fmt.Printf(" until %s", identity.ExpiresAt.Format(time.RFC3339))
				}
				fmt.Println()
				return nil
			})
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// withSession runs fn against a session built for the CLI.
func withSession(fn func(ctx context.Context, sess *session.Session) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	sess, cleanup, err := initializeSession(cfg)
	if err != nil {
		return fmt.Errorf("initialize session: %w", err)
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), cliTimeout)
	defer cancel()
	return fn(ctx, sess)
}

func startServer() error {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	server, cleanup, err := initializeServer(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize server: %v", err)
	}
	defer cleanup()

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Printf("INFO: Received signal '%s'. Shutting down server...", sig)
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Server forced to shutdown due to error: %v", err)
	} else {
		log.Println("INFO: Server shutdown complete.")
	}
	log.Println("INFO: Application exiting.")
	return nil
}
