package endpoint

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wolfman30/mypatients/internal/transport"
)

// Mutation is an uncached write bound to a descriptor and its path
// parameters. It never invalidates the cache; callers do.
type Mutation[P, R any] struct {
	b          *Binder
	d          Descriptor[P, R]
	pathParams PathParams
}

func BindMutation[P, R any](b *Binder, d Descriptor[P, R], pathParams PathParams) Mutation[P, R] {
	return Mutation[P, R]{b: b, d: d, pathParams: pathParams}
}

func (m Mutation[P, R]) Descriptor() Descriptor[P, R] { return m.d }

// Do sends body and decodes the response. Failures keep the transport's
// *transport.Error shape.
func (m Mutation[P, R]) Do(ctx context.Context, body P) (R, error) {
	var zero R
	path, err := m.b.resolve(m.d.Path, m.pathParams)
	if err != nil {
		return zero, err
	}

	req := transport.Request{Method: m.d.Method, Path: path}
	switch m.d.Encoding {
	case JSON:
		payload, err := json.Marshal(body)
		if err != nil {
			return zero, fmt.Errorf("endpoint: encode %s body: %w", m.d, err)
		}
		req.Body = payload
		req.ContentType = "application/json"
	case MultipartBody:
		enc, ok := any(body).(BodyEncoder)
		if !ok {
			return zero, fmt.Errorf("endpoint: %s body %T does not implement BodyEncoder", m.d, body)
		}
		payload, contentType, err := enc.EncodeBody()
		if err != nil {
			return zero, fmt.Errorf("endpoint: encode %s body: %w", m.d, err)
		}
		req.Body = payload
		req.ContentType = contentType
	}

	m.b.logger.Debug("mutation dispatch", "method", m.d.Method, "path", path)
	data, err := m.b.doer.Do(ctx, req)
	if err != nil {
		return zero, err
	}
	return decode[R](m.d.Method+" "+path, data)
}

// Start runs Do in the background and returns the call to observe.
func (m Mutation[P, R]) Start(ctx context.Context, body P) *MutationCall[R] {
	call := &MutationCall[R]{done: make(chan struct{})}
	go func() {
		defer close(call.done)
		call.data, call.err = m.Do(ctx, body)
	}()
	return call
}

// MutationCall is one single-shot invocation of a mutation.
type MutationCall[R any] struct {
	done chan struct{}
	data R
	err  error
}

func (c *MutationCall[R]) Done() <-chan struct{} { return c.done }

// Wait blocks until the call finishes.
func (c *MutationCall[R]) Wait() (R, error) {
	<-c.done
	return c.data, c.err
}

func (c *MutationCall[R]) Status() Status {
	select {
	case <-c.done:
		if c.err != nil {
			return StatusError
		}
		return StatusSuccess
	default:
		return StatusPending
	}
}
