package mypatients

import (
	"context"

	"github.com/wolfman30/mypatients/internal/endpoint"
)

// MyOffices lists the practitioner's offices.
func (c *Client) MyOffices(ctx context.Context) ([]Office, error) {
	return c.offices.Fetch(ctx, none{})
}

func (c *Client) CreateOffice(ctx context.Context, params OfficeParams) error {
	if _, err := endpoint.BindMutation(c.binder, CreateOffice, nil).Do(ctx, params); err != nil {
		return err
	}
	c.invalidate(MyOffices.Path)
	return nil
}

func (c *Client) UpdateOffice(ctx context.Context, officeID int64, params OfficeParams) error {
	pp := endpoint.PathParams{OfficeIDParam: officeID}
	if _, err := endpoint.BindMutation(c.binder, UpdateOffice, pp).Do(ctx, params); err != nil {
		return err
	}
	c.invalidate(MyOffices.Path)
	return nil
}

func (c *Client) DeleteOffice(ctx context.Context, officeID int64) error {
	pp := endpoint.PathParams{OfficeIDParam: officeID}
	if _, err := endpoint.BindMutation(c.binder, DeleteOffice, pp).Do(ctx, none{}); err != nil {
		return err
	}
	c.invalidate(MyOffices.Path)
	return nil
}
