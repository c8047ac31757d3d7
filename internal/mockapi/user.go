package mockapi

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode"
)

// maxUploadSize bounds the multipart body of signature uploads.
const maxUploadSize = 1 << 20

func allDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func (s *Server) saveBusinessInformation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RPPSNumber  string `json:"rpps_number"`
		SiretNumber string `json:"siret_number"`
		AdeliNumber string `json:"adeli_number"`
		Profession  string `json:"profession"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}
	if !allDigits(req.RPPSNumber, 11) {
		writeError(w, http.StatusUnprocessableEntity, "RPPS_number_not_valid")
		return
	}
	if !allDigits(req.SiretNumber, 14) {
		writeError(w, http.StatusUnprocessableEntity, "SIRET_number_not_valid")
		return
	}
	if strings.TrimSpace(req.Profession) == "" {
		writeError(w, http.StatusUnprocessableEntity, "invalid_profession")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := currentUser(r)
	var signature *string
	if u.Business != nil {
		signature = u.Business.SignatureFilename
	}
	var adeli *string
	if a := strings.TrimSpace(req.AdeliNumber); a != "" {
		adeli = &a
	}
	u.Business = &businessInformation{
		RPPSNumber:        req.RPPSNumber,
		SiretNumber:       req.SiretNumber,
		AdeliNumber:       adeli,
		SignatureFilename: signature,
		Profession:        req.Profession,
	}
	writeSuccess(w)
}

func (s *Server) signatureURL(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	u := currentUser(r)
	var filename string
	if u.Business != nil && u.Business.SignatureFilename != nil {
		filename = *u.Business.SignatureFilename
	}
	s.mu.Unlock()
	if filename == "" {
		writeError(w, http.StatusUnprocessableEntity, "no_signature")
		return
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "%s://%s/signatures/%s.png", scheme, r.Host, filename)
}

func (s *Server) uploadSignature(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	reader, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request")
		return
	}
	part, err := reader.NextPart()
	if err != nil || part.FormName() != "signature" {
		writeError(w, http.StatusBadRequest, "bad_request")
		return
	}
	data, err := io.ReadAll(part)
	if err != nil || len(data) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "unprocessable_entity")
		return
	}
	switch http.DetectContentType(data) {
	case "image/png", "image/jpeg":
	default:
		writeError(w, http.StatusUnprocessableEntity, "unprocessable_entity")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := currentUser(r)
	if u.Business == nil {
		writeError(w, http.StatusUnprocessableEntity, "unprocessable_entity")
		return
	}
	filename := fmt.Sprintf("%s_%s_%d", strings.ToLower(u.FirstName), strings.ToLower(u.LastName), u.ID)
	u.Business.SignatureFilename = &filename
	w.WriteHeader(http.StatusNoContent)
}
