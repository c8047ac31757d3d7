package mypatients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/mypatients/internal/endpoint"
	"github.com/wolfman30/mypatients/internal/mockapi"
	"github.com/wolfman30/mypatients/internal/querycache"
	"github.com/wolfman30/mypatients/internal/session"
	"github.com/wolfman30/mypatients/internal/transport"
)

var pngSignature = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

func testCacheConfig() *querycache.Config {
	cfg := querycache.DefaultConfig()
	cfg.RetryDelay = time.Millisecond
	return &cfg
}

func newMockClient(t *testing.T, cfg Config) (*Client, *mockapi.Server) {
	t.Helper()
	mock := mockapi.New(mockapi.Config{Secret: []byte("test-secret")})
	srv := httptest.NewServer(mock.Handler())
	t.Cleanup(srv.Close)

	cfg.BaseURL = srv.URL + "/api"
	if cfg.Cache == nil {
		cfg.Cache = testCacheConfig()
	}
	client, err := New(cfg)
	require.NoError(t, err)
	return client, mock
}

func loggedIn(t *testing.T, cfg Config) (*Client, *mockapi.Server) {
	t.Helper()
	client, mock := newMockClient(t, cfg)
	_, err := client.Login(context.Background(), mockapi.SeedEmail, mockapi.SeedPassword)
	require.NoError(t, err)
	return client, mock
}

func TestNewValidatesBaseURL(t *testing.T) {
	_, err := New(Config{BaseURL: "://bad"})
	require.Error(t, err)
}

func TestLoginPersistsTokenAndSendsBearer(t *testing.T) {
	var mu sync.Mutex
	var meAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"token":"T","pid":"1","name":"A","is_verified":true}`))
		case "/api/auth/me":
			mu.Lock()
			meAuth = r.Header.Get("Authorization")
			mu.Unlock()
			_, _ = w.Write([]byte(`{"pid":"1","name":"A","email":"a@b.com","business_information":null}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	store := session.NewMemoryStore()
	client, err := New(Config{BaseURL: srv.URL + "/api", Store: store, Cache: testCacheConfig()})
	require.NoError(t, err)

	res, err := client.Login(context.Background(), "a@b.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "T", res.Token)
	assert.True(t, res.IsVerified)

	token, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "T", token)

	me, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", me.Email)
	mu.Lock()
	assert.Equal(t, "Bearer T", meAuth)
	mu.Unlock()
}

func TestSessionExpiryClearsTokenAndCache(t *testing.T) {
	var expired atomic.Int32
	client, mock := loggedIn(t, Config{
		OnSessionExpired: func(ctx context.Context, td session.Teardown) {
			expired.Add(1)
			assert.True(t, td.HadToken)
		},
	})
	ctx := context.Background()

	_, err := client.MyOffices(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, client.Cache().Stats().Size)

	mock.RevokeTokens()
	client.Binder().Invalidate(MyOffices.Path)
	_, err = client.MyOffices(ctx)
	require.ErrorIs(t, err, transport.ErrUnauthorized)

	assert.EqualValues(t, 1, expired.Load())
	assert.False(t, client.Authenticated(ctx))
	assert.Equal(t, 0, client.Cache().Stats().Size)
	assert.Equal(t, 2, mock.Hits(http.MethodGet, "/api/user/my_offices"), "401 is not retried")

	// nothing else is sent with the rejected token
	_, err = client.Me(ctx)
	require.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Equal(t, 0, mock.Hits(http.MethodGet, "/api/auth/me"))

	_, err = client.MyOffices(ctx)
	require.ErrorIs(t, err, transport.ErrUnauthorized)
	terr, ok := transport.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "missing_token", terr.Msg)
	assert.EqualValues(t, 1, expired.Load(), "no stored token, nothing expired")
}

func TestPaginatedSearchExposesEnvelope(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/api/patient/_search" || r.URL.Query().Get("q") != "Doe" || r.URL.Query().Get("page") != "2" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"paginated_data": [
				{"id": 1, "first_name": "John", "last_name": "Doe"},
				{"id": 2, "first_name": "Jane", "last_name": "Doe"},
				{"id": 3, "first_name": "Max", "last_name": "Doe"}
			],
			"pagination": {"page": 2, "per_page": 20, "total_pages": 5, "has_more": true}
		}`))
	}))
	defer srv.Close()

	client, err := New(Config{BaseURL: srv.URL + "/api", Cache: testCacheConfig()})
	require.NoError(t, err)

	res, err := client.SearchPatients(context.Background(), "Doe", 2)
	require.NoError(t, err)
	assert.Len(t, res.Data, 3)
	assert.Equal(t, Pagination{Page: 2, PerPage: 20, TotalPages: 5, HasMore: true}, res.Pagination)

	_, err = client.SearchPatients(context.Background(), "Doe", 2)
	require.NoError(t, err)
	assert.EqualValues(t, 1, hits.Load())
}

func TestUpdatePatientInvalidatesSearch(t *testing.T) {
	var searches, puts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/patient/_search":
			searches.Add(1)
			_, _ = w.Write([]byte(`{"paginated_data":[],"pagination":{"page":1,"per_page":10,"total_pages":0,"has_more":false}}`))
		case r.Method == http.MethodPut && r.URL.Path == "/api/patient/42":
			puts.Add(1)
			_, _ = w.Write([]byte(`{"success":true}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client, err := New(Config{BaseURL: srv.URL + "/api", Cache: testCacheConfig()})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = client.SearchPatients(ctx, "Doe", 1)
	require.NoError(t, err)
	_, err = client.SearchPatients(ctx, "Doe", 1)
	require.NoError(t, err)
	require.EqualValues(t, 1, searches.Load())

	require.NoError(t, client.UpdatePatient(ctx, 42, PatientParams{FirstName: "John", LastName: "Doe", SSN: "1"}))
	require.EqualValues(t, 1, puts.Load())

	_, err = client.SearchPatients(ctx, "Doe", 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, searches.Load())
}

func TestLoginErrorMapping(t *testing.T) {
	var expired atomic.Int32
	client, _ := newMockClient(t, Config{
		OnSessionExpired: func(ctx context.Context, td session.Teardown) {
			expired.Add(1)
		},
	})
	ctx := context.Background()

	_, err := client.MyOffices(ctx)
	require.ErrorIs(t, err, transport.ErrUnauthorized)

	_, err = client.Login(ctx, mockapi.SeedEmail, "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.ErrorIs(t, err, transport.ErrUnauthorized)
	assert.Zero(t, expired.Load(), "a rejected login is not a session expiry")

	_, err = client.Login(ctx, mockapi.LockedEmail, mockapi.LockedPassword)
	require.ErrorIs(t, err, ErrAccessKeyRequired)
	terr, ok := transport.AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, terr.Status)
	assert.False(t, client.Authenticated(ctx))

	res, err := client.CheckAccessKey(ctx, mockapi.LockedEmail, mockapi.LockedAccessKey)
	require.NoError(t, err)
	assert.Equal(t, "John Roe", res.Name)
	assert.True(t, client.Authenticated(ctx))

	claims, err := client.Session().Claims(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.PID, claims.PID)
	assert.False(t, claims.Expired(time.Now()))
}

func TestLogout(t *testing.T) {
	client, _ := loggedIn(t, Config{})
	ctx := context.Background()

	_, err := client.Me(ctx)
	require.NoError(t, err)
	require.NoError(t, client.Logout(ctx))

	assert.False(t, client.Authenticated(ctx))
	assert.Equal(t, 0, client.Cache().Stats().Size)
}

func TestPatientLifecycle(t *testing.T) {
	require := require.New(t)
	client, mock := loggedIn(t, Config{})
	ctx := context.Background()

	before, err := client.SearchPatients(ctx, "Curie", 1)
	require.NoError(err)
	require.Empty(before.Data)

	require.NoError(client.CreatePatient(ctx, PatientParams{
		FirstName:      "Marie",
		LastName:       "Curie",
		SSN:            "2 67 11 75 123 456 78",
		AddressLine1:   "1 rue Pierre et Marie Curie",
		AddressZipCode: "75005",
		AddressCity:    "Paris",
	}))

	after, err := client.SearchPatients(ctx, "Curie", 1)
	require.NoError(err)
	require.Len(after.Data, 1)
	require.Equal(2, mock.Hits(http.MethodGet, "/api/patient/_search"))
	created := after.Data[0]

	bySSN, err := client.SearchPatientsBySSN(ctx, "267117512345678")
	require.NoError(err)
	require.Len(bySSN, 1)
	require.Equal(created.ID, bySSN[0].ID)

	p, err := client.Patient(ctx, created.ID)
	require.NoError(err)
	require.Equal("Marie", p.FirstName)

	require.NoError(client.UpdatePatient(ctx, created.ID, PatientParams{
		FirstName: "Marie", LastName: "Sklodowska-Curie", SSN: created.SSN,
	}))
	p, err = client.Patient(ctx, created.ID)
	require.NoError(err)
	require.Equal("Sklodowska-Curie", p.LastName)

	require.NoError(client.DeletePatient(ctx, created.ID))
	_, err = client.Patient(ctx, created.ID)
	terr, ok := transport.AsError(err)
	require.True(ok)
	require.Equal(http.StatusNotFound, terr.Status)
}

func TestSSNSearchWaitsForCompleteNumber(t *testing.T) {
	client, mock := loggedIn(t, Config{})
	ctx := context.Background()

	state := client.UseSSNSearch("1 80 01")
	_, err := state.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, endpoint.StatusIdle, state.Status())
	assert.Equal(t, 0, mock.Hits(http.MethodGet, "/api/patient/_search_by_ssn"))

	assert.True(t, SSNComplete("1 80 01 75 100 200 10"))
	assert.False(t, SSNComplete("1800175100200"))
}

func TestOfficesInvalidateMyOffices(t *testing.T) {
	require := require.New(t)
	client, mock := loggedIn(t, Config{})
	ctx := context.Background()

	offices, err := client.MyOffices(ctx)
	require.NoError(err)
	require.Len(offices, 2)

	require.NoError(client.CreateOffice(ctx, OfficeParams{Name: "Paris 15", AddressLine1: "1 rue", AddressZipCode: "75015", AddressCity: "Paris"}))
	offices, err = client.MyOffices(ctx)
	require.NoError(err)
	require.Len(offices, 3)
	newest := offices[2]

	require.NoError(client.UpdateOffice(ctx, newest.ID, OfficeParams{Name: "Paris XV", AddressLine1: "1 rue", AddressZipCode: "75015", AddressCity: "Paris"}))
	offices, err = client.MyOffices(ctx)
	require.NoError(err)
	require.Equal("Paris XV", offices[2].Name)

	require.NoError(client.DeleteOffice(ctx, newest.ID))
	offices, err = client.MyOffices(ctx)
	require.NoError(err)
	require.Len(offices, 2)
	require.Equal(4, mock.Hits(http.MethodGet, "/api/user/my_offices"))

	err = client.DeleteOffice(ctx, newest.ID)
	terr, ok := transport.AsError(err)
	require.True(ok)
	require.Equal("not_found", terr.Msg)
}

func TestAppointments(t *testing.T) {
	require := require.New(t)
	client, _ := loggedIn(t, Config{})
	ctx := context.Background()

	page, err := client.SearchPatients(ctx, "Martin", 1)
	require.NoError(err)
	require.NotEmpty(page.Data)
	patientID := page.Data[0].ID
	offices, err := client.MyOffices(ctx)
	require.NoError(err)

	list, err := client.Appointments(ctx, patientID)
	require.NoError(err)
	initial := len(list)
	require.Equal(3+int(patientID%6), initial)

	require.NoError(client.CreateAppointment(ctx, patientID, AppointmentParams{
		Date:                 "2026-02-01T10:00:00Z",
		PractitionerOfficeID: offices[0].ID,
		PriceInCents:         6500,
	}))
	list, err = client.Appointments(ctx, patientID)
	require.NoError(err)
	require.Len(list, initial+1)

	target := list[0]
	require.NoError(client.UpdateAppointment(ctx, patientID, target.ID, AppointmentParams{
		Date: target.Date, PractitionerOfficeID: offices[1].ID, PriceInCents: 7000,
	}))
	require.NoError(client.DeleteAppointment(ctx, patientID, target.ID))
	list, err = client.Appointments(ctx, patientID)
	require.NoError(err)
	require.Len(list, initial)
}

func TestGenerateInvoiceDecodesPDF(t *testing.T) {
	client, _ := loggedIn(t, Config{})
	ctx := context.Background()

	page, err := client.SearchPatients(ctx, "Doe", 1)
	require.NoError(t, err)
	offices, err := client.MyOffices(ctx)
	require.NoError(t, err)

	inv, err := client.GenerateInvoice(ctx, page.Data[0].ID, GenerateInvoiceParams{
		Amount:               60,
		InvoiceDate:          "2026-03-02",
		PractitionerOfficeID: offices[0].ID,
	})
	require.NoError(t, err)
	assert.Contains(t, inv.Filename, "2026_03_02")
	assert.Equal(t, "%PDF", string(inv.PDF[:4]))
}

func TestDecodeInvoice(t *testing.T) {
	inv, err := DecodeInvoice(GeneratedInvoice{PDFData: "JVBERi0=", Filename: ""})
	require.NoError(t, err)
	assert.Equal(t, "invoice.pdf", inv.Filename)
	assert.Equal(t, []byte("%PDF-"), inv.PDF)

	_, err = DecodeInvoice(GeneratedInvoice{PDFData: "not base64!"})
	require.Error(t, err)
	_, err = DecodeInvoice(GeneratedInvoice{})
	require.Error(t, err)
}

func TestBusinessInformationAndSignature(t *testing.T) {
	require := require.New(t)
	client, mock := loggedIn(t, Config{})
	ctx := context.Background()

	me, err := client.Me(ctx)
	require.NoError(err)
	require.Nil(me.BusinessInformation)

	err = client.SaveBusinessInformation(ctx, SaveBusinessInformationParams{RPPSNumber: "123", SiretNumber: "12345678901234", Profession: "general_practitioner"})
	require.True(transport.HasMessage(err, "RPPS_number_not_valid"))

	require.NoError(client.SaveBusinessInformation(ctx, SaveBusinessInformationParams{
		RPPSNumber:  "12345678901",
		SiretNumber: "12345678901234",
		Profession:  "general_practitioner",
	}))
	me, err = client.Me(ctx)
	require.NoError(err)
	require.NotNil(me.BusinessInformation)
	require.Equal("12345678901", me.BusinessInformation.RPPSNumber)
	require.Equal(2, mock.Hits(http.MethodGet, "/api/auth/me"))

	require.ErrorIs(client.UploadSignature(ctx, "sig.gif", []byte("GIF89a....")), ErrSignatureType)
	require.ErrorIs(client.UploadSignature(ctx, "sig.png", append(pngSignature, make([]byte, MaxSignatureSize)...)), ErrSignatureTooLarge)
	require.Equal(0, mock.Hits(http.MethodPost, "/api/user/signature/_upload"))

	require.NoError(client.UploadSignature(ctx, "sig.png", pngSignature))
	url, err := client.SignatureURL(ctx)
	require.NoError(err)
	require.Contains(url, "/signatures/jane_doe_")

	me, err = client.Me(ctx)
	require.NoError(err)
	require.NotNil(me.BusinessInformation.SignatureFilename)
}

func TestForgotAndReset(t *testing.T) {
	client, _ := newMockClient(t, Config{})
	ctx := context.Background()

	require.NoError(t, client.Forgot(ctx, "unknown@mypatients.test"))
	err := client.ResetPassword(ctx, "token", "new")
	require.Error(t, err)
	assert.True(t, transport.HasMessage(err, "not implemented"))
}

func TestStrictPathsOption(t *testing.T) {
	client, _ := loggedIn(t, Config{StrictPaths: true})
	p, err := client.Patient(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "John", p.FirstName)
}
