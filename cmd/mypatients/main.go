package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	appconfig "github.com/wolfman30/mypatients/internal/config"
	"github.com/wolfman30/mypatients/internal/mypatients"
	"github.com/wolfman30/mypatients/internal/transport"
)

const version = "0.1.0"

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	app := newApp(cfg, os.Stdout)
	if err := app.Run(os.Args); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(cfg *appconfig.Config, stdout io.Writer) *cli.App {
	return &cli.App{
		Name:    "mypatients",
		Usage:   "Practice administration from the terminal",
		Version: version,
		Writer:  stdout,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api-url", Value: cfg.APIBaseURL, Usage: "API base URL"},
			&cli.StringFlag{Name: "profile", Value: cfg.Profile, Usage: "session profile name"},
			&cli.StringFlag{Name: "session-store", Value: cfg.SessionStore, Usage: "token storage: file, redis or memory"},
			&cli.StringFlag{Name: "log-level", Value: cfg.LogLevel, Usage: "debug, info, warn or error"},
			&cli.BoolFlag{Name: "strict-paths", Usage: "fail requests with unresolved path parameters"},
		},
		Before: func(c *cli.Context) error {
			cfg.APIBaseURL = c.String("api-url")
			cfg.Profile = c.String("profile")
			cfg.SessionStore = c.String("session-store")
			cfg.LogLevel = c.String("log-level")
			return nil
		},
		Commands: []*cli.Command{
			loginCmd(cfg),
			registerCmd(cfg),
			forgotCmd(cfg),
			logoutCmd(cfg),
			whoamiCmd(cfg),
			sessionCmd(cfg),
			patientsCmd(cfg),
			appointmentsCmd(cfg),
			officesCmd(cfg),
			invoiceCmd(cfg),
			businessInfoCmd(cfg),
			signatureCmd(cfg),
			mockServerCmd(cfg),
		},
	}
}

// printError reports API failures as "error (code): msg".
func printError(w io.Writer, err error) {
	switch {
	case errors.Is(err, mypatients.ErrInvalidCredentials):
		fmt.Fprintln(w, "error: invalid email or password")
		return
	case errors.Is(err, mypatients.ErrAccessKeyRequired):
		fmt.Fprintln(w, "error: account not verified, run `mypatients login --access-key KEY`")
		return
	case errors.Is(err, mypatients.ErrNotAuthenticated):
		fmt.Fprintln(w, "error: not logged in, run `mypatients login`")
		return
	case errors.Is(err, transport.ErrUnauthorized):
		fmt.Fprintln(w, "session expired, please log in again")
		return
	}
	if apiErr, ok := transport.AsError(err); ok && apiErr.Status != 0 {
		fmt.Fprintf(w, "error (%d): %s\n", apiErr.Code, apiErr.Msg)
		return
	}
	fmt.Fprintf(w, "error: %v\n", err)
}
