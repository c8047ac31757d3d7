package mockapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/wolfman30/mypatients/pkg/logging"
)

type contextKey string

const userKey contextKey = "user"

type tokenClaims struct {
	PID string `json:"pid"`
	Gen int64  `json:"gen"`
	jwt.RegisteredClaims
}

// requestLogger emits one structured log line per request.
func requestLogger(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("mock api request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"request_id", r.Header.Get("X-Request-ID"),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// bearerAuth accepts HMAC-signed tokens of the current generation.
func (s *Server) bearerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}
		claims := tokenClaims{}
		token, err := jwt.ParseWithClaims(strings.TrimPrefix(auth, "Bearer "), &claims, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return s.secret, nil
		}, jwt.WithTimeFunc(s.now))
		if err != nil || !token.Valid {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}

		s.mu.Lock()
		u := s.userByPIDLocked(claims.PID)
		gen := s.tokenGen
		s.mu.Unlock()
		if claims.Gen != gen {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		if u == nil {
			writeError(w, http.StatusUnauthorized, "invalid_claims_inside_token")
			return
		}
		if !u.AccessKeyVerified {
			writeError(w, http.StatusUnauthorized, "access_key_not_verified")
			return
		}
		ctx := context.WithValue(r.Context(), userKey, u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func currentUser(r *http.Request) *user {
	u, _ := r.Context().Value(userKey).(*user)
	return u
}

func (s *Server) issueTokenLocked(u *user) (string, error) {
	now := s.now()
	claims := tokenClaims{
		PID: u.PID,
		Gen: s.tokenGen,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.PID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) userByPIDLocked(pid string) *user {
	for _, u := range s.users {
		if u.PID == pid {
			return u
		}
	}
	return nil
}
