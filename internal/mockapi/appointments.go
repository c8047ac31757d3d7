package mockapi

import (
	"net/http"
	"sort"
	"time"
)

type appointmentResponse struct {
	ID           int64   `json:"id"`
	Date         string  `json:"date"`
	PriceInCents int64   `json:"price_in_cents"`
	Office       *office `json:"office"`
}

type appointmentParams struct {
	Date                 string `json:"date"`
	PractitionerOfficeID int64  `json:"practitioner_office_id"`
	PriceInCents         int64  `json:"price_in_cents"`
}

// parseAppointmentDate accepts RFC 3339 timestamps, like the real API, and
// plain dates.
func parseAppointmentDate(raw string) (string, bool) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC().Format("2006-01-02"), true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.Format("2006-01-02"), true
	}
	return "", false
}

// appointmentsLocked returns the patient's appointments, generating a
// deterministic history on first access.
func (s *Server) appointmentsLocked(p *patient) []*appointment {
	if list, ok := s.appointments[p.ID]; ok {
		return list
	}
	var officeIDs []int64
	for id, o := range s.offices {
		if o.UserID == p.UserID {
			officeIDs = append(officeIDs, id)
		}
	}
	sort.Slice(officeIDs, func(i, j int) bool { return officeIDs[i] < officeIDs[j] })

	var list []*appointment
	if len(officeIDs) > 0 {
		count := 3 + int(p.ID%6)
		today := s.now().UTC()
		for i := 0; i < count; i++ {
			daysAgo := i*30 + int(p.ID%10)
			list = append(list, &appointment{
				ID:           p.ID*1000 + int64(i),
				PatientID:    p.ID,
				OfficeID:     officeIDs[i%len(officeIDs)],
				Date:         today.AddDate(0, 0, -daysAgo).Format("2006-01-02"),
				PriceInCents: 6000 + int64((i+int(p.ID))%5)*500,
			})
		}
	}
	s.appointments[p.ID] = list
	return list
}

func (s *Server) listAppointments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.ownPatientLocked(r, currentUser(r))
	if p == nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	out := []appointmentResponse{}
	for _, a := range s.appointmentsLocked(p) {
		out = append(out, appointmentResponse{
			ID:           a.ID,
			Date:         a.Date,
			PriceInCents: a.PriceInCents,
			Office:       s.offices[a.OfficeID],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) readAppointment(w http.ResponseWriter, r *http.Request, u *user) (appointmentParams, string, bool) {
	var req appointmentParams
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return req, "", false
	}
	date, ok := parseAppointmentDate(req.Date)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "invalid_date")
		return req, "", false
	}
	if req.PriceInCents < 0 {
		writeError(w, http.StatusUnprocessableEntity, "invalid_price")
		return req, "", false
	}
	s.mu.Lock()
	o, found := s.offices[req.PractitionerOfficeID]
	owned := found && o.UserID == u.ID
	s.mu.Unlock()
	if !owned {
		writeError(w, http.StatusNotFound, "office_not_found")
		return req, "", false
	}
	return req, date, true
}

func (s *Server) createAppointment(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	req, date, ok := s.readAppointment(w, r, u)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.ownPatientLocked(r, u)
	if p == nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	list := s.appointmentsLocked(p)
	s.appointments[p.ID] = append(list, &appointment{
		ID:           s.newIDLocked(),
		PatientID:    p.ID,
		OfficeID:     req.PractitionerOfficeID,
		Date:         date,
		PriceInCents: req.PriceInCents,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) findAppointmentLocked(r *http.Request, p *patient) *appointment {
	id, ok := pathID(r, "appointment_id")
	if !ok {
		return nil
	}
	for _, a := range s.appointmentsLocked(p) {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func (s *Server) updateAppointment(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	req, date, ok := s.readAppointment(w, r, u)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.ownPatientLocked(r, u)
	if p == nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	a := s.findAppointmentLocked(r, p)
	if a == nil {
		writeError(w, http.StatusNotFound, "appointment_not_found")
		return
	}
	a.Date = date
	a.OfficeID = req.PractitionerOfficeID
	a.PriceInCents = req.PriceInCents
	writeSuccess(w)
}

func (s *Server) deleteAppointment(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.ownPatientLocked(r, currentUser(r))
	if p == nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	a := s.findAppointmentLocked(r, p)
	if a == nil {
		writeError(w, http.StatusNotFound, "appointment_not_found")
		return
	}
	list := s.appointments[p.ID]
	kept := list[:0]
	for _, other := range list {
		if other.ID != a.ID {
			kept = append(kept, other)
		}
	}
	s.appointments[p.ID] = kept
	writeSuccess(w)
}
