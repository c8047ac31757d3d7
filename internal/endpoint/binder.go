package endpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wolfman30/mypatients/internal/querycache"
	"github.com/wolfman30/mypatients/internal/transport"
)

// Doer performs one HTTP request. *transport.Client implements it.
type Doer interface {
	Do(ctx context.Context, req transport.Request) ([]byte, error)
}

// BodyEncoder is implemented by request bodies that are not JSON, such as
// multipart uploads.
type BodyEncoder interface {
	EncodeBody() (body []byte, contentType string, err error)
}

// DecodeError reports a 2xx response whose body did not match the expected
// type. It is never retried.
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("endpoint: decode %s response: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error   { return e.Err }
func (e *DecodeError) Retryable() bool { return false }

// Binder holds what every bound operation shares.
type Binder struct {
	doer   Doer
	cache  *querycache.Cache
	logger *slog.Logger
	strict bool
}

// Option configures a Binder.
type Option func(*Binder)

// WithLogger sets the logger for request debug lines; nil is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Binder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithStrictPaths makes unresolved path placeholders fail with
// ErrMissingPathParam before anything is sent.
func WithStrictPaths() Option {
	return func(b *Binder) { b.strict = true }
}

// NewBinder panics if doer is nil. A nil cache gets the default policy.
func NewBinder(doer Doer, cache *querycache.Cache, opts ...Option) *Binder {
	if doer == nil {
		panic("endpoint: doer is required")
	}
	if cache == nil {
		var err error
		cache, err = querycache.New(querycache.DefaultConfig())
		if err != nil {
			panic(err)
		}
	}
	b := &Binder{
		doer:   doer,
		cache:  cache,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Binder) Cache() *querycache.Cache { return b.cache }

// Invalidate marks cached reads under prefix as stale.
func (b *Binder) Invalidate(prefix ...string) int {
	return b.cache.Invalidate(querycache.Key(prefix))
}

func (b *Binder) resolve(path string, params PathParams) (string, error) {
	resolved := resolvePath(path, params)
	if !b.strict {
		return resolved, nil
	}
	if missing := placeholders(resolved); len(missing) > 0 {
		return "", fmt.Errorf("%w: %s in %s", ErrMissingPathParam, strings.Join(missing, ", "), path)
	}
	return resolved, nil
}

// RawDecoder is implemented by response types that are not JSON.
type RawDecoder interface {
	DecodeRaw(data []byte) error
}

// Text is a plain text response body. A JSON string body is unquoted.
type Text string

func (t *Text) DecodeRaw(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	*t = Text(data)
	return nil
}

func decode[R any](endpoint string, data []byte) (R, error) {
	var out R
	if len(bytes.TrimSpace(data)) == 0 {
		return out, nil
	}
	if raw, ok := any(&out).(RawDecoder); ok {
		if err := raw.DecodeRaw(data); err != nil {
			return out, &DecodeError{Endpoint: endpoint, Err: err}
		}
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, &DecodeError{Endpoint: endpoint, Err: err}
	}
	return out, nil
}
