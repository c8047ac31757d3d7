package mypatients

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/wolfman30/mypatients/internal/endpoint"
)

// SSNLength is the number of digits of a full social security number; SSN
// searches only run on complete numbers.
const SSNLength = 15

// SearchPatients returns one page of the practitioner's patients matching q.
func (c *Client) SearchPatients(ctx context.Context, q string, page int) (*Paginated[Patient], error) {
	res, err := c.search.Fetch(ctx, SearchParams{Q: q, Page: page})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) UseSearchPatients(params SearchParams) *endpoint.QueryState[SearchParams, Paginated[Patient]] {
	return c.search.Use(params)
}

// SearchPatientsBySSN looks patients up by social security number.
func (c *Client) SearchPatientsBySSN(ctx context.Context, ssn string) ([]Patient, error) {
	return c.ssnSearch.Fetch(ctx, SSNSearchParams{SSN: ssn})
}

// UseSSNSearch is enabled only once ssn has all its digits.
func (c *Client) UseSSNSearch(ssn string) *endpoint.QueryState[SSNSearchParams, []Patient] {
	return c.ssnSearch.Use(SSNSearchParams{SSN: ssn}, endpoint.WithEnabled(SSNComplete(ssn)))
}

// SSNComplete reports whether ssn, ignoring separators, has SSNLength
// characters.
func SSNComplete(ssn string) bool {
	n := 0
	for _, r := range ssn {
		if unicode.IsSpace(r) || r == '-' || r == '.' {
			continue
		}
		n++
	}
	return n == SSNLength
}

func (c *Client) Patient(ctx context.Context, patientID int64) (*Patient, error) {
	p, err := c.patient.Fetch(ctx, none{}, endpoint.WithPathParams(endpoint.PathParams{PatientIDParam: patientID}))
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) CreatePatient(ctx context.Context, params PatientParams) error {
	if _, err := endpoint.BindMutation(c.binder, CreatePatient, nil).Do(ctx, params); err != nil {
		return err
	}
	c.invalidate(SearchPatients.Path, SearchBySSN.Path)
	return nil
}

func (c *Client) UpdatePatient(ctx context.Context, patientID int64, params PatientParams) error {
	pp := endpoint.PathParams{PatientIDParam: patientID}
	if _, err := endpoint.BindMutation(c.binder, UpdatePatient, pp).Do(ctx, params); err != nil {
		return err
	}
	c.invalidate(SearchPatients.Path, SearchBySSN.Path, patientPath(patientID))
	return nil
}

func (c *Client) DeletePatient(ctx context.Context, patientID int64) error {
	pp := endpoint.PathParams{PatientIDParam: patientID}
	if _, err := endpoint.BindMutation(c.binder, DeletePatient, pp).Do(ctx, none{}); err != nil {
		return err
	}
	c.invalidate(SearchPatients.Path, SearchBySSN.Path, patientPath(patientID), appointmentsPath(patientID))
	return nil
}

// GenerateInvoice has the server render an invoice for the patient and
// returns the decoded PDF. With ShouldBeSentByEmail the server also mails it.
func (c *Client) GenerateInvoice(ctx context.Context, patientID int64, params GenerateInvoiceParams) (*Invoice, error) {
	pp := endpoint.PathParams{PatientIDParam: patientID}
	res, err := endpoint.BindMutation(c.binder, GenerateInvoice, pp).Do(ctx, params)
	if err != nil {
		return nil, err
	}
	return DecodeInvoice(res)
}

// DecodeInvoice decodes the base64 PDF of a generated invoice.
func DecodeInvoice(g GeneratedInvoice) (*Invoice, error) {
	if strings.TrimSpace(g.PDFData) == "" {
		return nil, errors.New("mypatients: invoice has no pdf data")
	}
	pdf, err := base64.StdEncoding.DecodeString(strings.TrimSpace(g.PDFData))
	if err != nil {
		return nil, fmt.Errorf("mypatients: decode invoice pdf: %w", err)
	}
	filename := strings.TrimSpace(g.Filename)
	if filename == "" {
		filename = "invoice.pdf"
	}
	return &Invoice{Filename: filename, PDF: pdf}, nil
}
