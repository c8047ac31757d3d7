package mypatients

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
)

// MaxSignatureSize is the largest signature image accepted for upload.
const MaxSignatureSize = 200 * 1024

var (
	ErrSignatureType     = errors.New("mypatients: signature must be a png or jpeg image")
	ErrSignatureTooLarge = errors.New("mypatients: signature exceeds 200KB")
	ErrSignatureEmpty    = errors.New("mypatients: signature is empty")
)

var signatureTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
}

// SignatureUpload is the multipart body of UploadSignature. The image goes
// in the "signature" field.
type SignatureUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// NewSignatureUpload sniffs the content type of data and validates it.
func NewSignatureUpload(filename string, data []byte) (*SignatureUpload, error) {
	u := &SignatureUpload{
		Filename:    filepath.Base(filename),
		ContentType: http.DetectContentType(data),
		Data:        data,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *SignatureUpload) Validate() error {
	if len(u.Data) == 0 {
		return ErrSignatureEmpty
	}
	contentType := strings.ToLower(strings.TrimSpace(strings.Split(u.ContentType, ";")[0]))
	if !signatureTypes[contentType] {
		return fmt.Errorf("%w: got %q", ErrSignatureType, u.ContentType)
	}
	if len(u.Data) > MaxSignatureSize {
		return fmt.Errorf("%w: %d bytes", ErrSignatureTooLarge, len(u.Data))
	}
	return nil
}

func (u *SignatureUpload) EncodeBody() ([]byte, string, error) {
	if err := u.Validate(); err != nil {
		return nil, "", err
	}
	filename := u.Filename
	if filename == "" {
		filename = "signature"
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="signature"; filename=%q`, filename))
	header.Set("Content-Type", u.ContentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("mypatients: create signature part: %w", err)
	}
	if _, err := part.Write(u.Data); err != nil {
		return nil, "", fmt.Errorf("mypatients: write signature: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("mypatients: close multipart writer: %w", err)
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}
