package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockS3Client records PutObject/GetObject calls for testing.
type mockS3Client struct {
	putCalls []putCall
	objects  map[string][]byte
	getErr   error
}

type putCall struct {
	bucket      string
	key         string
	contentType string
	body        []byte
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, _ := io.ReadAll(input.Body)
	m.putCalls = append(m.putCalls, putCall{
		bucket:      *input.Bucket,
		key:         *input.Key,
		contentType: *input.ContentType,
		body:        body,
	})
	m.objects[*input.Key] = body
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func fixedStore(mock S3API, bucket string) *Store {
	store := NewStore(mock, bucket, nil)
	store.now = func() time.Time { return time.Date(2026, 2, 12, 15, 0, 0, 0, time.UTC) }
	return store
}

func TestStore_ArchiveInvoice(t *testing.T) {
	mock := newMockS3()
	store := fixedStore(mock, "invoices-bucket")

	pdf := []byte("%PDF-1.4 test")
	key, err := store.ArchiveInvoice(context.Background(), InvoiceRecord{
		PatientID: 6,
		Filename:  "facture_doe_jane_2026_01_15.pdf",
		PDF:       pdf,
		IssuedAt:  time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "invoices/v1/2026/01/15/6/facture_doe_jane_2026_01_15.pdf", key)

	require.Len(t, mock.putCalls, 2)
	assert.Equal(t, "invoices-bucket", mock.putCalls[0].bucket)
	assert.Equal(t, "application/pdf", mock.putCalls[0].contentType)
	assert.Equal(t, pdf, mock.putCalls[0].body)

	manifest := mock.putCalls[1]
	assert.Equal(t, "invoices/v1/manifests/2026-02.jsonl", manifest.key)
	var entry ManifestEntry
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(manifest.body), &entry))
	assert.Equal(t, int64(6), entry.PatientID)
	assert.Equal(t, key, entry.S3Key)
	assert.Equal(t, len(pdf), entry.SizeBytes)
	assert.Equal(t, "2026-02-12T15:00:00Z", entry.ArchivedAt)
}

func TestStore_ManifestAppends(t *testing.T) {
	mock := newMockS3()
	store := fixedStore(mock, "invoices-bucket")
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		_, err := store.ArchiveInvoice(ctx, InvoiceRecord{PatientID: i, Filename: "invoice.pdf", PDF: []byte("%PDF")})
		require.NoError(t, err)
	}

	lines := strings.Split(strings.TrimSpace(string(mock.objects["invoices/v1/manifests/2026-02.jsonl"])), "\n")
	assert.Len(t, lines, 3)
}

func TestStore_DisabledWithoutBucket(t *testing.T) {
	mock := newMockS3()
	store := NewStore(mock, "  ", nil)

	assert.False(t, store.Enabled())
	key, err := store.ArchiveInvoice(context.Background(), InvoiceRecord{PatientID: 1, PDF: []byte("x")})
	require.NoError(t, err)
	assert.Empty(t, key)
	assert.Empty(t, mock.putCalls)

	var nilStore *Store
	assert.False(t, nilStore.Enabled())
}

func TestStore_RejectsEmptyInvoice(t *testing.T) {
	store := fixedStore(newMockS3(), "invoices-bucket")
	_, err := store.ArchiveInvoice(context.Background(), InvoiceRecord{PatientID: 1, Filename: "a.pdf"})
	require.ErrorIs(t, err, ErrEmptyInvoice)
}

func TestStore_ManifestFailureKeepsInvoice(t *testing.T) {
	mock := newMockS3()
	mock.getErr = errors.New("access denied")
	store := fixedStore(mock, "invoices-bucket")

	key, err := store.ArchiveInvoice(context.Background(), InvoiceRecord{PatientID: 2, Filename: "a.pdf", PDF: []byte("%PDF")})
	require.NoError(t, err)
	assert.Contains(t, mock.objects, key)
	assert.Len(t, mock.putCalls, 1)
}

func TestInvoiceKey(t *testing.T) {
	at := time.Date(2026, 3, 2, 23, 30, 0, 0, time.FixedZone("CET", 3600))
	assert.Equal(t, "invoices/v1/2026/03/02/9/a.pdf", InvoiceKey(9, "../../a.pdf", at))
	assert.Equal(t, "invoices/v1/2026/03/02/9/invoice.pdf", InvoiceKey(9, "", at))
}
