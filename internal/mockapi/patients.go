package mockapi

import (
	"encoding/base64"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

type patientParams struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	SSN            string `json:"ssn"`
	AddressLine1   string `json:"address_line_1"`
	AddressZipCode string `json:"address_zip_code"`
	AddressCity    string `json:"address_city"`
	Email          string `json:"email"`
}

func (p patientParams) valid() bool {
	return strings.TrimSpace(p.FirstName) != "" &&
		strings.TrimSpace(p.LastName) != "" &&
		strings.TrimSpace(p.SSN) != ""
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil
}

// ownPatientLocked returns the patient in the path if it belongs to u.
func (s *Server) ownPatientLocked(r *http.Request, u *user) *patient {
	id, ok := pathID(r, "patient_id")
	if !ok {
		return nil
	}
	p, ok := s.patients[id]
	if !ok || p.UserID != u.ID {
		return nil
	}
	return p
}

func (s *Server) ownedPatientsLocked(u *user) []*patient {
	out := make([]*patient, 0, len(s.patients))
	for _, p := range s.patients {
		if p.UserID == u.ID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Server) createPatient(w http.ResponseWriter, r *http.Request) {
	var req patientParams
	if err := decodeBody(r, &req); err != nil || !req.valid() {
		writeError(w, http.StatusUnprocessableEntity, "invalid_patient")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := currentUser(r)
	id := s.newIDLocked()
	p := &patient{ID: id, UserID: u.ID, AddressCountry: "France"}
	applyPatient(p, req)
	s.patients[id] = p
	writeSuccess(w)
}

func applyPatient(p *patient, req patientParams) {
	p.FirstName = strings.TrimSpace(req.FirstName)
	p.LastName = strings.TrimSpace(req.LastName)
	p.SSN = strings.TrimSpace(req.SSN)
	p.AddressLine1 = strings.TrimSpace(req.AddressLine1)
	p.AddressZipCode = strings.TrimSpace(req.AddressZipCode)
	p.AddressCity = strings.TrimSpace(req.AddressCity)
	p.Email = strings.TrimSpace(req.Email)
	if p.Email == "" {
		p.Email = "default@mail.com"
	}
}

func (s *Server) getPatient(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.ownPatientLocked(r, currentUser(r))
	if p == nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) updatePatient(w http.ResponseWriter, r *http.Request) {
	var req patientParams
	if err := decodeBody(r, &req); err != nil || !req.valid() {
		writeError(w, http.StatusUnprocessableEntity, "invalid_patient")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.ownPatientLocked(r, currentUser(r))
	if p == nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	applyPatient(p, req)
	writeSuccess(w)
}

func (s *Server) deletePatient(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.ownPatientLocked(r, currentUser(r))
	if p == nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	delete(s.patients, p.ID)
	delete(s.appointments, p.ID)
	writeSuccess(w)
}

func (s *Server) searchPatients(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid_page")
			return
		}
		page = n
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []*patient
	for _, p := range s.ownedPatientsLocked(currentUser(r)) {
		if q == "" ||
			strings.Contains(strings.ToLower(p.FirstName), q) ||
			strings.Contains(strings.ToLower(p.LastName), q) ||
			strings.Contains(strings.ToLower(p.FirstName+" "+p.LastName), q) {
			matched = append(matched, p)
		}
	}

	totalPages := (len(matched) + PerPage - 1) / PerPage
	start := (page - 1) * PerPage
	data := []*patient{}
	if start < len(matched) {
		end := start + PerPage
		if end > len(matched) {
			end = len(matched)
		}
		data = matched[start:end]
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"paginated_data": data,
		"pagination": map[string]any{
			"page":        page,
			"per_page":    PerPage,
			"total_pages": totalPages,
			"has_more":    page < totalPages,
		},
	})
}

func normalizeSSN(ssn string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' || r == '.' {
			return -1
		}
		return r
	}, ssn)
}

// searchBySSN looks across every practitioner, like the real API.
func (s *Server) searchBySSN(w http.ResponseWriter, r *http.Request) {
	ssn := normalizeSSN(r.URL.Query().Get("ssn"))
	if ssn == "" {
		writeError(w, http.StatusBadRequest, "missing_ssn")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*patient{}
	for _, p := range s.patients {
		if normalizeSSN(p.SSN) == ssn {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) generateInvoice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount               float64 `json:"amount"`
		InvoiceDate          string  `json:"invoice_date"`
		ShouldBeSentByEmail  bool    `json:"should_be_sent_by_email"`
		PractitionerOfficeID int64   `json:"practitioner_office_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}
	date, err := time.Parse("2006-01-02", req.InvoiceDate)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_invoice_date")
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusUnprocessableEntity, "invalid_amount")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := currentUser(r)
	p := s.ownPatientLocked(r, u)
	if p == nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	o, ok := s.offices[req.PractitionerOfficeID]
	if !ok || o.UserID != u.ID {
		writeError(w, http.StatusNotFound, "office_not_found")
		return
	}
	pdf := renderInvoice(u, p, o, req.Amount, date)
	writeJSON(w, http.StatusOK, map[string]string{
		"pdf_data": base64.StdEncoding.EncodeToString(pdf),
		"filename": invoiceFilename(p, date),
	})
}
