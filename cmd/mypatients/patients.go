package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
	appconfig "github.com/wolfman30/mypatients/internal/config"
	"github.com/wolfman30/mypatients/internal/mypatients"
)

func patientFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "first-name", Required: required},
		&cli.StringFlag{Name: "last-name", Required: required},
		&cli.StringFlag{Name: "ssn", Required: required},
		&cli.StringFlag{Name: "address"},
		&cli.StringFlag{Name: "zip"},
		&cli.StringFlag{Name: "city"},
		&cli.StringFlag{Name: "email"},
	}
}

func patientParams(c *cli.Context) mypatients.PatientParams {
	return mypatients.PatientParams{
		FirstName:      c.String("first-name"),
		LastName:       c.String("last-name"),
		SSN:            c.String("ssn"),
		AddressLine1:   c.String("address"),
		AddressZipCode: c.String("zip"),
		AddressCity:    c.String("city"),
		Email:          c.String("email"),
	}
}

func patientsCmd(cfg *appconfig.Config) *cli.Command {
	return &cli.Command{
		Name:  "patients",
		Usage: "Search and manage patients",
		Subcommands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Search patients by name",
				ArgsUsage: "QUERY",
				Flags:     []cli.Flag{&cli.IntFlag{Name: "page", Value: 1}},
				Action: withClient(cfg, func(c *cli.Context, rt *runtime) error {
					res, err := rt.client.SearchPatients(c.Context, c.Args().First(), c.Int("page"))
					if err != nil {
						return err
					}
					if err := printPatients(c.App.Writer, res.Data); err != nil {
						return err
					}
					p := res.Pagination
					fmt.Fprintf(c.App.Writer, "page %d/%d", p.Page, p.TotalPages)
					if p.HasMore {
						fmt.Fprintf(c.App.Writer, " (next: --page %d)", p.Page+1)
					}
					fmt.Fprintln(c.App.Writer)
					return nil
				}),
			},
			{
				Name:      "ssn",
				Usage:     "Find patients by social security number",
				ArgsUsage: "SSN",
				Action: withClient(cfg, func(c *cli.Context, rt *runtime) error {
					ssn := c.Args().First()
					if !mypatients.SSNComplete(ssn) {
						return fmt.Errorf("a social security number has %d characters", mypatients.SSNLength)
					}
					res, err := rt.client.SearchPatientsBySSN(c.Context, ssn)
					if err != nil {
						return err
					}
					return printPatients(c.App.Writer, res)
				}),
			},
			{
				Name:      "show",
				ArgsUsage: "PATIENT_ID",
				Action: withClient(cfg, func(c *cli.Context, rt *runtime) error {
					id, err := argID(c, 0, "patient id")
					if err != nil {
						return err
					}
					p, err := rt.client.Patient(c.Context, id)
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, p)
				}),
			},
			{
				Name:  "create",
				Flags: patientFlags(true),
				Action: withClient(cfg, func(c *cli.Context, rt *runtime) error {
					if err := rt.client.CreatePatient(c.Context, patientParams(c)); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "patient created")
					return nil
				}),
			},
			{
				Name:      "update",
				ArgsUsage: "PATIENT_ID",
				Flags:     patientFlags(true),
				Action: withClient(cfg, func(c *cli.Context, rt *runtime) error {
					id, err := argID(c, 0, "patient id")
					if err != nil {
						return err
					}
					if err := rt.client.UpdatePatient(c.Context, id, patientParams(c)); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "patient updated")
					return nil
				}),
			},
			{
				Name:      "delete",
				ArgsUsage: "PATIENT_ID",
				Action: withClient(cfg, func(c *cli.Context, rt *runtime) error {
					id, err := argID(c, 0, "patient id")
					if err != nil {
						return err
					}
					if err := rt.client.DeletePatient(c.Context, id); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "patient deleted")
					return nil
				}),
			},
		},
	}
}
