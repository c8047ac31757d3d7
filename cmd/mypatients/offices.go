package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
	appconfig "github.com/wolfman30/mypatients/internal/config"
	"github.com/wolfman30/mypatients/internal/mypatients"
)

func officeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "name", Required: true},
		&cli.StringFlag{Name: "address"},
		&cli.StringFlag{Name: "zip"},
		&cli.StringFlag{Name: "city"},
	}
}

func officeParams(c *cli.Context) mypatients.OfficeParams {
	return mypatients.OfficeParams{
		Name:           c.String("name"),
		AddressLine1:   c.String("address"),
		AddressZipCode: c.String("zip"),
		AddressCity:    c.String("city"),
	}
}

func officesCmd(cfg *appconfig.Config) *cli.Command {
	return &cli.Command{
		Name:  "offices",
		Usage: "Manage practice offices",
		Subcommands: []*cli.Command{
			{
				Name: "list",
				Action: withClient(cfg, func(c *cli.Context, rt *runtime) error {
					offices, err := rt.client.MyOffices(c.Context)
					if err != nil {
						return err
					}
					return printOffices(c.App.Writer, offices)
				}),
			},
			{
				Name:  "create",
				Flags: officeFlags(),
				Action: withClient(cfg, func(c *cli.Context, rt *runtime) error {
					if err := rt.client.CreateOffice(c.Context, officeParams(c)); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "office created")
					return nil
				}),
			},
			{
				Name:      "update",
				ArgsUsage: "OFFICE_ID",
				Flags:     officeFlags(),
				Action: withClient(cfg, func(c *cli.Context, rt *runtime) error {
					id, err := argID(c, 0, "office id")
					if err != nil {
						return err
					}
					if err := rt.client.UpdateOffice(c.Context, id, officeParams(c)); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "office updated")
					return nil
				}),
			},
			{
				Name:      "delete",
				ArgsUsage: "OFFICE_ID",
				Action: withClient(cfg, func(c *cli.Context, rt *runtime) error {
					id, err := argID(c, 0, "office id")
					if err != nil {
						return err
					}
					if err := rt.client.DeleteOffice(c.Context, id); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "office deleted")
					return nil
				}),
			},
		},
	}
}
