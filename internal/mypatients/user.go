package mypatients

import (
	"context"

	"github.com/wolfman30/mypatients/internal/endpoint"
)

func (c *Client) SaveBusinessInformation(ctx context.Context, params SaveBusinessInformationParams) error {
	if _, err := endpoint.BindMutation(c.binder, SaveBusinessInformation, nil).Do(ctx, params); err != nil {
		return err
	}
	c.invalidate(Me.Path)
	return nil
}

// SignatureURL returns where the practitioner's signature image is served.
func (c *Client) SignatureURL(ctx context.Context) (string, error) {
	url, err := c.signatureURL.Fetch(ctx, none{})
	return string(url), err
}

// UploadSignature validates the image locally before sending it.
func (c *Client) UploadSignature(ctx context.Context, filename string, data []byte) error {
	upload, err := NewSignatureUpload(filename, data)
	if err != nil {
		return err
	}
	if _, err := endpoint.BindMutation(c.binder, UploadSignature, nil).Do(ctx, upload); err != nil {
		return err
	}
	c.invalidate(Me.Path, SignatureURL.Path)
	return nil
}
