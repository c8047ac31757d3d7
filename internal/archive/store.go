package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ErrEmptyInvoice is returned for records without PDF bytes.
var ErrEmptyInvoice = errors.New("archive: invoice has no content")

// S3API is the subset of the S3 client used by Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store copies generated invoices to S3.
type Store struct {
	bucket   string
	s3Client S3API
	logger   *slog.Logger
	now      func() time.Time
}

// NewStore creates an archive Store. If bucket is empty, all operations are no-ops.
func NewStore(s3Client S3API, bucket string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{bucket: strings.TrimSpace(bucket), s3Client: s3Client, logger: logger, now: time.Now}
}

// Enabled returns true if archival is configured (bucket is set).
func (s *Store) Enabled() bool {
	return s != nil && s.bucket != "" && s.s3Client != nil
}

// InvoiceKey is the object key of an invoice issued at t.
func InvoiceKey(patientID int64, filename string, t time.Time) string {
	t = t.UTC()
	name := path.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == "/" {
		name = "invoice.pdf"
	}
	return fmt.Sprintf("invoices/v1/%d/%02d/%02d/%d/%s", t.Year(), t.Month(), t.Day(), patientID, name)
}

// ArchiveInvoice uploads the PDF and appends it to the monthly manifest. It
// returns the object key, or "" when archival is disabled.
func (s *Store) ArchiveInvoice(ctx context.Context, record InvoiceRecord) (string, error) {
	if !s.Enabled() {
		return "", nil
	}
	if len(record.PDF) == 0 {
		return "", ErrEmptyInvoice
	}

	issued := record.IssuedAt
	if issued.IsZero() {
		issued = s.now()
	}
	key := InvoiceKey(record.PatientID, record.Filename, issued)

	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(record.PDF),
		ContentType: aws.String("application/pdf"),
		Metadata: map[string]string{
			"patient-id": fmt.Sprint(record.PatientID),
		},
	})
	if err != nil {
		return "", fmt.Errorf("archive: s3 put %s: %w", key, err)
	}

	s.logger.Info("archived invoice to S3",
		"patient_id", record.PatientID,
		"s3_key", key,
		"size_bytes", len(record.PDF),
	)

	entry := ManifestEntry{
		PatientID:   record.PatientID,
		S3Key:       key,
		Filename:    path.Base(key),
		SizeBytes:   len(record.PDF),
		SentByEmail: record.SentByEmail,
		ArchivedAt:  s.now().UTC().Format(time.RFC3339),
	}
	if err := s.AppendManifest(ctx, entry); err != nil {
		// the invoice itself is stored
		s.logger.Warn("failed to append manifest", "error", err, "s3_key", key)
	}
	return key, nil
}

// AppendManifest appends a JSONL line to the monthly manifest file.
// S3 has no append, so this is a read-modify-write.
func (s *Store) AppendManifest(ctx context.Context, entry ManifestEntry) error {
	if !s.Enabled() {
		return nil
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("archive: marshal manifest entry: %w", err)
	}

	now := s.now().UTC()
	manifestKey := fmt.Sprintf("invoices/v1/manifests/%d-%02d.jsonl", now.Year(), now.Month())

	var existing []byte
	getResp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(manifestKey),
	})
	switch {
	case err == nil:
		existing, err = io.ReadAll(getResp.Body)
		getResp.Body.Close()
		if err != nil {
			return fmt.Errorf("archive: read manifest: %w", err)
		}
	case isNotFound(err):
		s.logger.Debug("manifest not found, creating new", "key", manifestKey)
	default:
		return fmt.Errorf("archive: s3 get manifest: %w", err)
	}

	var buf bytes.Buffer
	if len(existing) > 0 {
		buf.Write(existing)
		if existing[len(existing)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}
	buf.Write(line)
	buf.WriteByte('\n')

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(manifestKey),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("archive: s3 put manifest: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *s3types.NotFound
	return errors.As(err, &nf)
}
