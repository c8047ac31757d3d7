package archive

import "time"

// InvoiceRecord is one generated invoice to keep.
type InvoiceRecord struct {
	PatientID int64
	Filename  string
	PDF       []byte
	// IssuedAt selects the date partition; zero means now.
	IssuedAt time.Time
	// SentByEmail records whether the API was asked to email the invoice.
	SentByEmail bool
}

// ManifestEntry is one JSONL line of the monthly invoice manifest.
type ManifestEntry struct {
	PatientID   int64  `json:"patient_id"`
	S3Key       string `json:"s3_key"`
	Filename    string `json:"filename"`
	SizeBytes   int    `json:"size_bytes"`
	SentByEmail bool   `json:"sent_by_email"`
	ArchivedAt  string `json:"archived_at"`
}
