package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
	appconfig "github.com/wolfman30/mypatients/internal/config"
	"github.com/wolfman30/mypatients/internal/mypatients"
	"github.com/wolfman30/mypatients/internal/session"
)

func loginCmd(cfg *appconfig.Config) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Log in and store the session token",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", EnvVars: []string{"MYPATIENTS_PASSWORD"}},
			&cli.StringFlag{Name: "access-key", Usage: "verify a new account with the key received by email"},
		},
		Action: withClient(cfg, func(c *cli.Context, rt *runtime) error {
			var (
				res *mypatients.AuthResponse
				err error
			)
			if key := c.String("access-key"); key != "" {
				res, err = rt.client.CheckAccessKey(c.Context, c.String("email"), key)
			} else {
				if c.String("password") == "" {
					return errors.New("--password or MYPATIENTS_PASSWORD is required")
				}
				res, err = rt.client.Login(c.Context, c.String("email"), c.String("password"))
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "logged in as %s\n", res.Name)
			return nil
		}),
	}
}

func registerCmd(cfg *appconfig.Config) *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Create a practitioner account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", EnvVars: []string{"MYPATIENTS_PASSWORD"}, Required: true},
			&cli.StringFlag{Name: "first-name", Required: true},
			&cli.StringFlag{Name: "last-name", Required: true},
			&cli.StringFlag{Name: "phone"},
		},
		Action: withClient(cfg, func(c *cli.Context, rt *runtime) error {
			err := rt.client.Register(c.Context, mypatients.RegisterParams{
				Email:       c.String("email"),
				Password:    c.String("password"),
				FirstName:   c.String("first-name"),
				LastName:    c.String("last-name"),
				PhoneNumber: c.String("phone"),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, "account created, check your email for the access key")
			return nil
		}),
	}
}

func forgotCmd(cfg *appconfig.Config) *cli.Command {
	return &cli.Command{
		Name:  "forgot",
		Usage: "Request a password reset email",
		Flags: []cli.Flag{&cli.StringFlag{Name: "email", Required: true}},
		Action: withClient(cfg, func(c *cli.Context, rt *runtime) error {
			if err := rt.client.Forgot(c.Context, c.String("email")); err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, "if the account exists, a reset email is on its way")
			return nil
		}),
	}
}

func logoutCmd(cfg *appconfig.Config) *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Forget the stored session",
		Action: withClient(cfg, func(c *cli.Context, rt *runtime) error {
			if err := rt.client.Logout(c.Context); err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, "logged out")
			return nil
		}),
	}
}

func whoamiCmd(cfg *appconfig.Config) *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the logged in practitioner",
		Action: withClient(cfg, func(c *cli.Context, rt *runtime) error {
			me, err := rt.client.Me(c.Context)
			if err != nil {
				return err
			}
			return printJSON(c.App.Writer, me)
		}),
	}
}

func sessionCmd(cfg *appconfig.Config) *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "Show the stored token's claims without calling the API",
		Action: withClient(cfg, func(c *cli.Context, rt *runtime) error {
			claims, err := rt.client.Session().Claims(c.Context)
			if errors.Is(err, session.ErrNoToken) {
				fmt.Fprintln(c.App.Writer, "not logged in")
				return nil
			}
			if err != nil {
				return err
			}
			state := "valid"
			if claims.Expired(time.Now()) {
				state = "expired"
			}
			fmt.Fprintf(c.App.Writer, "profile: %s\npid: %s\nexpires: %s (%s)\n",
				rt.cfg.Profile, claims.PID, claims.ExpiresAt.Format(time.RFC3339), state)
			return nil
		}),
	}
}
