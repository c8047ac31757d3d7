package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"
	appconfig "github.com/wolfman30/mypatients/internal/config"
	"github.com/wolfman30/mypatients/internal/mypatients"
)

func businessInfoCmd(cfg *appconfig.Config) *cli.Command {
	return &cli.Command{
		Name:  "business-info",
		Usage: "Practitioner registration numbers",
		Subcommands: []*cli.Command{
			{
				Name: "save",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "rpps", Required: true, Usage: "11-digit RPPS number"},
					&cli.StringFlag{Name: "siret", Required: true, Usage: "14-digit SIRET number"},
					&cli.StringFlag{Name: "adeli"},
					&cli.StringFlag{Name: "profession", Required: true},
				},
				Action: withClient(cfg, func(c *cli.Context, rt *runtime) error {
					err := rt.client.SaveBusinessInformation(c.Context, mypatients.SaveBusinessInformationParams{
						RPPSNumber:  c.String("rpps"),
						SiretNumber: c.String("siret"),
						AdeliNumber: c.String("adeli"),
						Profession:  c.String("profession"),
					})
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "business information saved")
					return nil
				}),
			},
		},
	}
}

func signatureCmd(cfg *appconfig.Config) *cli.Command {
	return &cli.Command{
		Name:  "signature",
		Usage: "Invoice signature image",
		Subcommands: []*cli.Command{
			{
				Name:      "upload",
				ArgsUsage: "IMAGE",
				Action: withClient(cfg, func(c *cli.Context, rt *runtime) error {
					path := c.Args().First()
					if path == "" {
						return fmt.Errorf("missing image argument")
					}
					data, err := os.ReadFile(path)
					if err != nil {
						return err
					}
					if err := rt.client.UploadSignature(c.Context, filepath.Base(path), data); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "signature uploaded")
					return nil
				}),
			},
			{
				Name: "url",
				Action: withClient(cfg, func(c *cli.Context, rt *runtime) error {
					url, err := rt.client.SignatureURL(c.Context)
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, url)
					return nil
				}),
			},
		},
	}
}
