package mockapi

import (
	"net/http"
	"sort"
	"strings"
)

type officeParams struct {
	Name           string `json:"name"`
	AddressLine1   string `json:"address_line_1"`
	AddressZipCode string `json:"address_zip_code"`
	AddressCity    string `json:"address_city"`
}

func (p officeParams) apply(o *office) {
	o.Name = strings.TrimSpace(p.Name)
	o.AddressLine1 = strings.TrimSpace(p.AddressLine1)
	o.AddressZipCode = strings.TrimSpace(p.AddressZipCode)
	o.AddressCity = strings.TrimSpace(p.AddressCity)
}

func (s *Server) ownOfficeLocked(r *http.Request, u *user) *office {
	id, ok := pathID(r, "office_id")
	if !ok {
		return nil
	}
	o, ok := s.offices[id]
	if !ok || o.UserID != u.ID {
		return nil
	}
	return o
}

func (s *Server) createOffice(w http.ResponseWriter, r *http.Request) {
	var req officeParams
	if err := decodeBody(r, &req); err != nil || strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusUnprocessableEntity, "invalid_office")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o := &office{ID: s.newIDLocked(), UserID: currentUser(r).ID}
	req.apply(o)
	s.offices[o.ID] = o
	writeSuccess(w)
}

func (s *Server) updateOffice(w http.ResponseWriter, r *http.Request) {
	var req officeParams
	if err := decodeBody(r, &req); err != nil || strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusUnprocessableEntity, "invalid_office")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.ownOfficeLocked(r, currentUser(r))
	if o == nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	req.apply(o)
	writeSuccess(w)
}

func (s *Server) deleteOffice(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.ownOfficeLocked(r, currentUser(r))
	if o == nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	delete(s.offices, o.ID)
	writeSuccess(w)
}

func (s *Server) myOffices(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := currentUser(r)
	out := []*office{}
	for _, o := range s.offices {
		if o.UserID == u.ID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}
