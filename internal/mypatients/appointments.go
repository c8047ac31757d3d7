package mypatients

import (
	"context"

	"github.com/wolfman30/mypatients/internal/endpoint"
)

func (c *Client) Appointments(ctx context.Context, patientID int64) ([]Appointment, error) {
	return c.appointments.Fetch(ctx, none{}, endpoint.WithPathParams(endpoint.PathParams{PatientIDParam: patientID}))
}

func (c *Client) UseAppointments(patientID int64) *endpoint.QueryState[none, []Appointment] {
	return c.appointments.Use(none{}, endpoint.WithPathParams(endpoint.PathParams{PatientIDParam: patientID}))
}

func (c *Client) CreateAppointment(ctx context.Context, patientID int64, params AppointmentParams) error {
	pp := endpoint.PathParams{PatientIDParam: patientID}
	if _, err := endpoint.BindMutation(c.binder, CreateAppointment, pp).Do(ctx, params); err != nil {
		return err
	}
	c.invalidate(appointmentsPath(patientID))
	return nil
}

func (c *Client) UpdateAppointment(ctx context.Context, patientID, appointmentID int64, params AppointmentParams) error {
	pp := endpoint.PathParams{PatientIDParam: patientID, AppointmentIDParam: appointmentID}
	if _, err := endpoint.BindMutation(c.binder, UpdateAppointment, pp).Do(ctx, params); err != nil {
		return err
	}
	c.invalidate(appointmentsPath(patientID))
	return nil
}

func (c *Client) DeleteAppointment(ctx context.Context, patientID, appointmentID int64) error {
	pp := endpoint.PathParams{PatientIDParam: patientID, AppointmentIDParam: appointmentID}
	if _, err := endpoint.BindMutation(c.binder, DeleteAppointment, pp).Do(ctx, none{}); err != nil {
		return err
	}
	c.invalidate(appointmentsPath(patientID))
	return nil
}
