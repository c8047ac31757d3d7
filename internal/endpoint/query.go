package endpoint

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/wolfman30/mypatients/internal/querycache"
	"github.com/wolfman30/mypatients/internal/transport"
)

// Status is the lifecycle of one invocation.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

type queryOptions struct {
	enabled    bool
	pathParams PathParams
}

type QueryOption func(*queryOptions)

// WithEnabled(false) keeps the query idle; no request is made.
func WithEnabled(enabled bool) QueryOption {
	return func(o *queryOptions) { o.enabled = enabled }
}

// WithPathParams resolves placeholders in the query path.
func WithPathParams(params PathParams) QueryOption {
	return func(o *queryOptions) { o.pathParams = params }
}

func newQueryOptions(opts []QueryOption) queryOptions {
	o := queryOptions{enabled: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Query is a cached, idempotent read bound to a descriptor. P is encoded as
// the query string using `url` struct tags.
type Query[P, R any] struct {
	b *Binder
	d Descriptor[P, R]
}

func BindQuery[P, R any](b *Binder, d Descriptor[P, R]) Query[P, R] {
	return Query[P, R]{b: b, d: d}
}

func (q Query[P, R]) Descriptor() Descriptor[P, R] { return q.d }

// Key is the cache key for params: the resolved path followed by the sorted,
// encoded parameters.
func (q Query[P, R]) Key(params P, pathParams PathParams) (querycache.Key, error) {
	path, values, err := q.prepare(params, pathParams)
	if err != nil {
		return nil, err
	}
	return keyFor(path, values), nil
}

func keyFor(path string, values url.Values) querycache.Key {
	return querycache.Key{path, values.Encode()}
}

func (q Query[P, R]) prepare(params P, pathParams PathParams) (string, url.Values, error) {
	path, err := q.b.resolve(q.d.Path, pathParams)
	if err != nil {
		return "", nil, err
	}
	values, err := query.Values(params)
	if err != nil {
		return "", nil, fmt.Errorf("endpoint: encode %s params: %w", q.d, err)
	}
	return path, values, nil
}

// Fetch returns the cached value for params or reads it through the cache.
// A disabled query returns the zero R without a request.
func (q Query[P, R]) Fetch(ctx context.Context, params P, opts ...QueryOption) (R, error) {
	return q.fetch(ctx, params, newQueryOptions(opts))
}

func (q Query[P, R]) fetch(ctx context.Context, params P, o queryOptions) (R, error) {
	var zero R
	if !o.enabled {
		return zero, nil
	}
	path, values, err := q.prepare(params, o.pathParams)
	if err != nil {
		return zero, err
	}
	name := q.d.Method + " " + path

	v, err := q.b.cache.Read(ctx, keyFor(path, values), func(ctx context.Context) (any, error) {
		q.b.logger.Debug("query dispatch", "method", q.d.Method, "path", path)
		data, err := q.b.doer.Do(ctx, transport.Request{
			Method: q.d.Method,
			Path:   path,
			Query:  values,
		})
		if err != nil {
			return nil, err
		}
		return decode[R](name, data)
	})
	if err != nil {
		return zero, err
	}
	out, ok := v.(R)
	if !ok {
		return zero, fmt.Errorf("endpoint: cached value for %s is %T", name, v)
	}
	return out, nil
}

// Use creates an invocation object for params. Nothing is fetched until Run.
func (q Query[P, R]) Use(params P, opts ...QueryOption) *QueryState[P, R] {
	return &QueryState[P, R]{
		q:      q,
		params: params,
		opts:   newQueryOptions(opts),
		status: StatusIdle,
	}
}

// Snapshot is a consistent view of a QueryState.
type Snapshot[R any] struct {
	Status    Status
	Data      R
	Err       error
	UpdatedAt time.Time
}

// QueryState tracks one caller's use of a query across parameter changes and
// refetches: idle, pending, then success or error, and back to pending.
type QueryState[P, R any] struct {
	q Query[P, R]

	mu        sync.Mutex
	params    P
	opts      queryOptions
	status    Status
	data      R
	err       error
	updatedAt time.Time
	seq       uint64
}

// Run fetches the current params. Results of a run superseded by a later
// Run or SetParams are dropped.
func (s *QueryState[P, R]) Run(ctx context.Context) (R, error) {
	s.mu.Lock()
	if !s.opts.enabled {
		data := s.data
		s.mu.Unlock()
		return data, nil
	}
	s.seq++
	seq := s.seq
	params, opts := s.params, s.opts
	s.status = StatusPending
	s.mu.Unlock()

	data, err := s.q.fetch(ctx, params, opts)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return data, err
	}
	if err != nil {
		s.status = StatusError
		s.err = err
	} else {
		s.status = StatusSuccess
		s.data = data
		s.err = nil
	}
	s.updatedAt = time.Now()
	return data, err
}

// Refetch invalidates the cached value for the current params and runs again.
func (s *QueryState[P, R]) Refetch(ctx context.Context) (R, error) {
	s.mu.Lock()
	params, opts := s.params, s.opts
	s.mu.Unlock()

	if opts.enabled {
		key, err := s.q.Key(params, opts.pathParams)
		if err != nil {
			var zero R
			return zero, err
		}
		s.q.b.cache.Invalidate(key)
	}
	return s.Run(ctx)
}

// SetParams switches to new params and runs. Data from the old params is
// dropped.
func (s *QueryState[P, R]) SetParams(ctx context.Context, params P) (R, error) {
	s.mu.Lock()
	var zero R
	s.params = params
	s.data = zero
	s.err = nil
	s.status = StatusIdle
	s.seq++
	s.mu.Unlock()
	return s.Run(ctx)
}

// SetEnabled toggles the query. Disabling does not clear loaded data.
func (s *QueryState[P, R]) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.enabled = enabled
}

func (s *QueryState[P, R]) Params() P {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

func (s *QueryState[P, R]) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *QueryState[P, R]) Data() R {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

func (s *QueryState[P, R]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *QueryState[P, R]) Snapshot() Snapshot[R] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot[R]{Status: s.status, Data: s.data, Err: s.err, UpdatedAt: s.updatedAt}
}
