// Package mockapi is an in-memory MyPatients API for tests and local
// development. Routes live under /api like the real server.
package mockapi

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/wolfman30/mypatients/pkg/logging"
)

// Seeded accounts.
const (
	SeedEmail       = "jane.doe@mypatients.test"
	SeedPassword    = "secret"
	LockedEmail     = "john.roe@mypatients.test"
	LockedPassword  = "secret"
	LockedAccessKey = "ACCESS-1234"
)

// PerPage is the page size of patient search.
const PerPage = 10

type Config struct {
	// Secret signs issued tokens; random when empty.
	Secret   []byte
	TokenTTL time.Duration
	Logger   *logging.Logger
	Now      func() time.Time
}

type user struct {
	ID                int64
	PID               string
	Email             string
	Password          string
	FirstName         string
	LastName          string
	PhoneNumber       string
	AccessKey         string
	AccessKeyVerified bool
	Business          *businessInformation
}

type businessInformation struct {
	RPPSNumber        string  `json:"rpps_number"`
	SiretNumber       string  `json:"siret_number"`
	AdeliNumber       *string `json:"adeli_number"`
	SignatureFilename *string `json:"signature_filename"`
	Profession        string  `json:"profession"`
}

type patient struct {
	ID             int64   `json:"id"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	SSN            string  `json:"ssn"`
	AddressLine1   string  `json:"address_line_1"`
	AddressZipCode string  `json:"address_zip_code"`
	AddressCity    string  `json:"address_city"`
	AddressCountry string  `json:"address_country"`
	Office         *string `json:"office"`
	Email          string  `json:"-"`
	UserID         int64   `json:"-"`
}

type office struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	AddressLine1   string `json:"address_line_1"`
	AddressZipCode string `json:"address_zip_code"`
	AddressCity    string `json:"address_city"`
	UserID         int64  `json:"-"`
}

type appointment struct {
	ID           int64
	PatientID    int64
	OfficeID     int64
	Date         string
	PriceInCents int64
}

// Server holds the fake state. All handlers lock mu.
type Server struct {
	secret   []byte
	tokenTTL time.Duration
	logger   *logging.Logger
	now      func() time.Time

	mu           sync.Mutex
	tokenGen     int64
	nextID       int64
	users        map[string]*user
	patients     map[int64]*patient
	offices      map[int64]*office
	appointments map[int64][]*appointment
	hits         map[string]int
}

func New(cfg Config) *Server {
	secret := cfg.Secret
	if len(secret) == 0 {
		buf := make([]byte, 32)
		_, _ = rand.Read(buf)
		secret = []byte(hex.EncodeToString(buf))
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	s := &Server{
		secret:       secret,
		tokenTTL:     ttl,
		logger:       logger,
		now:          now,
		nextID:       1,
		users:        make(map[string]*user),
		patients:     make(map[int64]*patient),
		offices:      make(map[int64]*office),
		appointments: make(map[int64][]*appointment),
		hits:         make(map[string]int),
	}
	s.seed()
	return s
}

// Handler returns the router with every route under /api.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(s.countHits)

	r.Route("/api", func(api chi.Router) {
		api.Group(func(public chi.Router) {
			public.Post("/auth/register", s.register)
			public.Post("/auth/login", s.login)
			public.Post("/auth/_check_access_key", s.checkAccessKey)
			public.Post("/auth/forgot", s.forgot)
			public.Post("/auth/reset", s.reset)
		})

		api.Group(func(protected chi.Router) {
			protected.Use(s.bearerAuth)

			protected.Get("/auth/me", s.me)

			protected.Route("/patient", func(r chi.Router) {
				r.Post("/create", s.createPatient)
				r.Get("/_search", s.searchPatients)
				r.Get("/_search_by_ssn", s.searchBySSN)
				r.Route("/{patient_id}", func(r chi.Router) {
					r.Get("/", s.getPatient)
					r.Put("/", s.updatePatient)
					r.Delete("/", s.deletePatient)
					r.Post("/_generate_invoice", s.generateInvoice)
					r.Get("/medical_appointments", s.listAppointments)
					r.Post("/medical_appointments", s.createAppointment)
					r.Put("/medical_appointments/{appointment_id}", s.updateAppointment)
					r.Delete("/medical_appointments/{appointment_id}", s.deleteAppointment)
				})
			})

			protected.Route("/practitioner_office", func(r chi.Router) {
				r.Post("/create", s.createOffice)
				r.Put("/{office_id}", s.updateOffice)
				r.Delete("/{office_id}", s.deleteOffice)
			})

			protected.Route("/user", func(r chi.Router) {
				r.Get("/my_offices", s.myOffices)
				r.Post("/_save_business_information", s.saveBusinessInformation)
				r.Get("/signature", s.signatureURL)
				r.Post("/signature/_upload", s.uploadSignature)
			})
		})
	})
	return r
}

// RevokeTokens invalidates every token issued so far.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenGen++
}

// Hits returns how many requests reached method and path, e.g.
// Hits("GET", "/api/patient/_search").
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+path]
}

// AccessKey returns the access key of a registered account.
func (s *Server) AccessKey(email string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return "", false
	}
	return u.AccessKey, true
}

func (s *Server) countHits(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.Method+" "+r.URL.Path]++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) newIDLocked() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError writes the API error envelope.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"code": status, "msg": msg})
}

func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
