package mockapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type authResponse struct {
	Token      string `json:"token"`
	PID        string `json:"pid"`
	Name       string `json:"name"`
	IsVerified bool   `json:"is_verified"`
}

type currentResponse struct {
	PID                 string               `json:"pid"`
	Name                string               `json:"name"`
	Email               string               `json:"email"`
	BusinessInformation *businessInformation `json:"business_information"`
}

func (u *user) name() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		FirstName   string `json:"first_name"`
		LastName    string `json:"last_name"`
		PhoneNumber string `json:"phone_number"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		writeError(w, http.StatusUnprocessableEntity, "missing_fields")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// an existing email still answers 200 so accounts cannot be enumerated
	if _, exists := s.users[email]; !exists {
		id := s.newIDLocked()
		s.users[email] = &user{
			ID:          id,
			PID:         uuid.NewString(),
			Email:       email,
			Password:    req.Password,
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			PhoneNumber: req.PhoneNumber,
			AccessKey:   fmt.Sprintf("ACCESS-%04d", id),
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.ToLower(strings.TrimSpace(req.Email))]
	if !ok || u.Password != req.Password {
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}
	if !u.AccessKeyVerified {
		writeError(w, http.StatusForbidden, "access_key_needs_to_be_verified")
		return
	}
	s.writeAuthLocked(w, u)
}

func (s *Server) checkAccessKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserEmail string `json:"user_email"`
		AccessKey string `json:"access_key"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.ToLower(strings.TrimSpace(req.UserEmail))]
	if !ok || u.AccessKey == "" || u.AccessKey != strings.TrimSpace(req.AccessKey) {
		writeError(w, http.StatusBadRequest, "invalid_access_key")
		return
	}
	u.AccessKeyVerified = true
	s.writeAuthLocked(w, u)
}

func (s *Server) writeAuthLocked(w http.ResponseWriter, u *user) {
	token, err := s.issueTokenLocked(u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_generation_failed")
		return
	}
	writeJSON(w, http.StatusOK, authResponse{
		Token:      token,
		PID:        u.PID,
		Name:       u.name(),
		IsVerified: u.AccessKeyVerified,
	})
}

func (s *Server) forgot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}
	// unknown emails succeed too
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusBadRequest, "not implemented")
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := currentUser(r)
	writeJSON(w, http.StatusOK, currentResponse{
		PID:                 u.PID,
		Name:                u.name(),
		Email:               u.Email,
		BusinessInformation: u.Business,
	})
}
