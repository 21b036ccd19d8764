package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// authorize checks the shared token, taken from the "token" query parameter
// or a bearer Authorization header. An empty configured token allows all.
func (s *Server) authorize(r *http.Request) error {
	if s.cfg.Token == "" {
		return nil
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		token, _ = strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.Token)) != 1 {
		return ErrUnauthorized
	}
	return nil
}
