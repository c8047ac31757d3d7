// Package mypatients is the typed client of the MyPatients practice API: the
// endpoint catalog plus a facade that owns the session, the transport and
// the query cache.
package mypatients

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/wolfman30/mypatients/internal/endpoint"
	"github.com/wolfman30/mypatients/internal/observability/metrics"
	"github.com/wolfman30/mypatients/internal/querycache"
	"github.com/wolfman30/mypatients/internal/session"
	"github.com/wolfman30/mypatients/internal/transport"
)

// ErrNotAuthenticated is returned by reads that need a session when none is
// stored. No request is made.
var ErrNotAuthenticated = errors.New("mypatients: not logged in")

// Config wires a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	UserAgent  string

	// Store keeps the session token; nil keeps it in memory.
	Store session.TokenStore
	// Cache overrides the default read policy.
	Cache       *querycache.Config
	StrictPaths bool

	Logger  *slog.Logger
	Metrics *metrics.ClientMetrics

	// OnSessionExpired runs when the server rejects a stored token, after the
	// token and the cache are cleared. It must not call back into the
	// session.
	OnSessionExpired func(ctx context.Context, t session.Teardown)
}

// Client exposes every API operation with its cache keys and invalidations.
type Client struct {
	session   *session.Session
	transport *transport.Client
	cache     *querycache.Cache
	binder    *endpoint.Binder
	logger    *slog.Logger

	me           endpoint.Query[none, CurrentUser]
	patient      endpoint.Query[none, Patient]
	search       endpoint.Query[SearchParams, Paginated[Patient]]
	ssnSearch    endpoint.Query[SSNSearchParams, []Patient]
	appointments endpoint.Query[none, []Appointment]
	offices      endpoint.Query[none, []Office]
	signatureURL endpoint.Query[none, endpoint.Text]
}

func New(cfg Config) (*Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sess := session.New(cfg.Store, session.WithLogger(logger), session.WithMetrics(cfg.Metrics))
	tc, err := transport.New(transport.Config{
		BaseURL:    cfg.BaseURL,
		Timeout:    cfg.Timeout,
		HTTPClient: cfg.HTTPClient,
		UserAgent:  cfg.UserAgent,
		Logger:     logger,
		Metrics:    cfg.Metrics,
	}, sess)
	if err != nil {
		return nil, fmt.Errorf("mypatients: %w", err)
	}

	cacheCfg := querycache.DefaultConfig()
	if cfg.Cache != nil {
		cacheCfg = *cfg.Cache
	}
	cacheCfg.Logger = logger
	cacheCfg.Metrics = cfg.Metrics
	cache, err := querycache.New(cacheCfg)
	if err != nil {
		return nil, fmt.Errorf("mypatients: %w", err)
	}

	opts := []endpoint.Option{endpoint.WithLogger(logger)}
	if cfg.StrictPaths {
		opts = append(opts, endpoint.WithStrictPaths())
	}
	binder := endpoint.NewBinder(tc, cache, opts...)

	sess.OnTeardown(func(ctx context.Context, t session.Teardown) {
		cache.Clear()
	})
	if cfg.OnSessionExpired != nil {
		sess.OnTeardown(func(ctx context.Context, t session.Teardown) {
			// a 401 without a stored token is a failed login, not an expiry
			if t.Reason == session.ReasonUnauthorized && t.HadToken {
				cfg.OnSessionExpired(ctx, t)
			}
		})
	}

	return &Client{
		session:      sess,
		transport:    tc,
		cache:        cache,
		binder:       binder,
		logger:       logger,
		me:           endpoint.BindQuery(binder, Me),
		patient:      endpoint.BindQuery(binder, GetPatient),
		search:       endpoint.BindQuery(binder, SearchPatients),
		ssnSearch:    endpoint.BindQuery(binder, SearchBySSN),
		appointments: endpoint.BindQuery(binder, ListAppointments),
		offices:      endpoint.BindQuery(binder, MyOffices),
		signatureURL: endpoint.BindQuery(binder, SignatureURL),
	}, nil
}

func (c *Client) Session() *session.Session { return c.session }

func (c *Client) Cache() *querycache.Cache { return c.cache }

func (c *Client) Binder() *endpoint.Binder { return c.binder }

func (c *Client) BaseURL() string { return c.transport.BaseURL() }

// Authenticated reports whether a token is stored. Only the server knows if
// it is still valid.
func (c *Client) Authenticated(ctx context.Context) bool {
	return c.session.Authenticated(ctx)
}

// Focus tells the cache the user came back to the application.
func (c *Client) Focus() int {
	return c.cache.Focus()
}

func (c *Client) invalidate(paths ...string) {
	for _, p := range paths {
		c.binder.Invalidate(p)
	}
}

func patientPath(patientID int64) string {
	return GetPatient.Resolve(endpoint.PathParams{PatientIDParam: patientID})
}

func appointmentsPath(patientID int64) string {
	return ListAppointments.Resolve(endpoint.PathParams{PatientIDParam: patientID})
}
