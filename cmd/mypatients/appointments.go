package main

import (
	"fmt"
	"math"

	"github.com/urfave/cli/v2"
	appconfig "github.com/wolfman30/mypatients/internal/config"
	"github.com/wolfman30/mypatients/internal/mypatients"
)

func appointmentFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "date", Required: true, Usage: "YYYY-MM-DD or RFC 3339"},
		&cli.Int64Flag{Name: "office", Required: true, Usage: "office id"},
		&cli.Float64Flag{Name: "price", Required: true, Usage: "price in euros"},
	}
}

func appointmentParams(c *cli.Context) mypatients.AppointmentParams {
	return mypatients.AppointmentParams{
		Date:                 c.String("date"),
		PractitionerOfficeID: c.Int64("office"),
		PriceInCents:         int64(math.Round(c.Float64("price") * 100)),
	}
}

func appointmentsCmd(cfg *appconfig.Config) *cli.Command {
	return &cli.Command{
		Name:  "appointments",
		Usage: "Manage a patient's appointments",
		Subcommands: []*cli.Command{
			{
				Name:      "list",
				ArgsUsage: "PATIENT_ID",
				Action: withClient(cfg, func(c *cli.Context, rt *runtime) error {
					id, err := argID(c, 0, "patient id")
					if err != nil {
						return err
					}
					list, err := rt.client.Appointments(c.Context, id)
					if err != nil {
						return err
					}
					return printAppointments(c.App.Writer, list)
				}),
			},
			{
				Name:      "create",
				ArgsUsage: "PATIENT_ID",
				Flags:     appointmentFlags(),
				Action: withClient(cfg, func(c *cli.Context, rt *runtime) error {
					id, err := argID(c, 0, "patient id")
					if err != nil {
						return err
					}
					if err := rt.client.CreateAppointment(c.Context, id, appointmentParams(c)); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "appointment created")
					return nil
				}),
			},
			{
				Name:      "update",
				ArgsUsage: "PATIENT_ID APPOINTMENT_ID",
				Flags:     appointmentFlags(),
				Action: withClient(cfg, func(c *cli.Context, rt *runtime) error {
					patientID, err := argID(c, 0, "patient id")
					if err != nil {
						return err
					}
					appointmentID, err := argID(c, 1, "appointment id")
					if err != nil {
						return err
					}
					if err := rt.client.UpdateAppointment(c.Context, patientID, appointmentID, appointmentParams(c)); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "appointment updated")
					return nil
				}),
			},
			{
				Name:      "delete",
				ArgsUsage: "PATIENT_ID APPOINTMENT_ID",
				Action: withClient(cfg, func(c *cli.Context, rt *runtime) error {
					patientID, err := argID(c, 0, "patient id")
					if err != nil {
						return err
					}
					appointmentID, err := argID(c, 1, "appointment id")
					if err != nil {
						return err
					}
					if err := rt.client.DeleteAppointment(c.Context, patientID, appointmentID); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "appointment deleted")
					return nil
				}),
			},
		},
	}
}
