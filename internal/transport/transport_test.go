package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/mypatients/internal/observability/metrics"
	"github.com/wolfman30/mypatients/internal/session"
)

func newTestClient(t *testing.T, server *httptest.Server, sess *session.Session) *Client {
	t.Helper()
	client, err := New(Config{BaseURL: server.URL + "/api/", HTTPClient: server.Client()}, sess)
	require.NoError(t, err)
	return client
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{}, nil)
	require.Error(t, err)

	client, err := New(Config{BaseURL: "http://localhost:5150/api/"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5150/api", client.BaseURL())
	assert.NotNil(t, client.Session())
	assert.Equal(t, defaultUserAgent, client.userAgent)
}

func TestDoAttachesBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/patient/_search", r.URL.Path)
		assert.Equal(t, "Doe", r.URL.Query().Get("q"))
		assert.Equal(t, "Bearer T", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	sess := session.New(session.NewMemoryStore())
	require.NoError(t, sess.Login(context.Background(), "T"))
	client := newTestClient(t, server, sess)

	data, err := client.Do(context.Background(), Request{
		Method: http.MethodGet,
		Path:   "/patient/_search",
		Query:  url.Values{"q": {"Doe"}},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(data))
}

func TestDoWithoutTokenSendsNoAuthorization(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"email":"a@b.com"}`, string(body))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newTestClient(t, server, nil)
	data, err := client.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "auth/forgot",
		Body:   []byte(`{"email":"a@b.com"}`),
	})
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestDoNormalizesErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":400,"msg":"unprocessable_entity"}`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server, nil).Do(context.Background(), Request{Method: http.MethodPost, Path: "/patient/create", Body: []byte(`{}`)})
	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, 400, apiErr.Status)
	assert.Equal(t, 400, apiErr.Code)
	assert.Equal(t, "unprocessable_entity", apiErr.Msg)
	assert.True(t, HasMessage(err, "unprocessable_entity"))
	assert.False(t, apiErr.Retryable())
	assert.False(t, errors.Is(err, ErrUnauthorized))
}

func TestDoKeepsRawBodyForUnstructuredErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down\n"))
	}))
	defer server.Close()

	_, err := newTestClient(t, server, nil).Do(context.Background(), Request{Path: "/auth/me"})
	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, 502, apiErr.Code)
	assert.Equal(t, "upstream down", apiErr.Msg)
	assert.True(t, apiErr.Retryable())
}

func TestUnauthorizedTearsDownSession(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			assert.Equal(t, "Bearer stale", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"code":401,"msg":"invalid_token"}`))
			return
		}
		assert.Empty(t, r.Header.Get("Authorization"), "stale token must not be sent again")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":401,"msg":"missing_token"}`))
	}))
	defer server.Close()

	ctx := context.Background()
	sess := session.New(session.NewMemoryStore())
	require.NoError(t, sess.Login(ctx, "stale"))
	var teardowns []session.Teardown
	sess.OnTeardown(func(_ context.Context, td session.Teardown) { teardowns = append(teardowns, td) })

	client := newTestClient(t, server, sess)
	_, err := client.Do(ctx, Request{Path: "/auth/me"})
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.True(t, HasMessage(err, "invalid_token"))
	assert.False(t, sess.Authenticated(ctx))

	_, err = client.Do(ctx, Request{Path: "/user/my_offices"})
	require.ErrorIs(t, err, ErrUnauthorized)
	require.Len(t, teardowns, 2)
	assert.True(t, teardowns[0].HadToken)
	assert.False(t, teardowns[1].HadToken)
}

func TestDoRecordsMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/me" {
			w.Write([]byte(`{"pid":"1"}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":401,"msg":"invalid_token"}`))
	}))
	defer server.Close()

	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := metrics.NewClientMetrics(reg)
	sess := session.New(session.NewMemoryStore(), session.WithMetrics(m))
	require.NoError(t, sess.Login(ctx, "T"))
	client, err := New(Config{BaseURL: server.URL + "/api", HTTPClient: server.Client(), Metrics: m}, sess)
	require.NoError(t, err)

	_, err = client.Do(ctx, Request{Path: "/auth/me"})
	require.NoError(t, err)
	_, err = client.Do(ctx, Request{Path: "/user/my_offices"})
	require.ErrorIs(t, err, ErrUnauthorized)

	expected := `
# HELP mypatients_client_requests_total Total API requests by method and response status (0 = no response)
# TYPE mypatients_client_requests_total counter
mypatients_client_requests_total{method="GET",status="200"} 1
mypatients_client_requests_total{method="GET",status="401"} 1
# HELP mypatients_client_session_teardowns_total Session teardowns by reason
# TYPE mypatients_client_session_teardowns_total counter
mypatients_client_session_teardowns_total{reason="unauthorized"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"mypatients_client_requests_total", "mypatients_client_session_teardowns_total"))
}

func TestUnauthorizedRunsTeardownWithCanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	sess := session.New(session.NewMemoryStore())
	require.NoError(t, sess.Login(context.Background(), "T"))
	client := newTestClient(t, server, sess)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client.expire(ctx, "T", "/auth/me")
	assert.False(t, sess.Authenticated(context.Background()))
}

func TestNetworkFailureIsUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	client := newTestClient(t, server, nil)
	server.Close()

	_, err := client.Do(context.Background(), Request{Path: "/auth/me"})
	require.ErrorIs(t, err, ErrUnreachable)
	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, 0, apiErr.Status)
	assert.True(t, apiErr.Retryable())
}

func TestCanceledRequestIsNotRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	defer server.Close()
	client := newTestClient(t, server, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Do(ctx, Request{Path: "/auth/me"})
	require.ErrorIs(t, err, context.Canceled)
	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.False(t, apiErr.Retryable())
}
