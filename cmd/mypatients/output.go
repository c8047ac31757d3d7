package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
	"github.com/wolfman30/mypatients/internal/mypatients"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printPatients(w io.Writer, patients []mypatients.Patient) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSSN\tCITY\tOFFICE")
	for _, p := range patients {
		office := ""
		if p.Office != nil {
			office = *p.Office
		}
		fmt.Fprintf(tw, "%d\t%s %s\t%s\t%s\t%s\n", p.ID, p.FirstName, p.LastName, p.SSN, p.AddressCity, office)
	}
	return tw.Flush()
}

func printAppointments(w io.Writer, appointments []mypatients.Appointment) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tPRICE\tOFFICE")
	for _, a := range appointments {
		fmt.Fprintf(tw, "%d\t%s\t%d.%02d\t%s\n", a.ID, a.Date, a.PriceInCents/100, a.PriceInCents%100, a.Office.Name)
	}
	return tw.Flush()
}

func printOffices(w io.Writer, offices []mypatients.Office) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tADDRESS")
	for _, o := range offices {
		fmt.Fprintf(tw, "%d\t%s\t%s, %s %s\n", o.ID, o.Name, o.AddressLine1, o.AddressZipCode, o.AddressCity)
	}
	return tw.Flush()
}

// argID parses the i-th positional argument as a resource ID.
func argID(c *cli.Context, i int, name string) (int64, error) {
	raw := c.Args().Get(i)
	if raw == "" {
		return 0, fmt.Errorf("missing %s argument", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}
