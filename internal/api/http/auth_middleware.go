package httpapi

import (
	"net/http"
	"strings"
)

// requireAuth resolves "Authorization: Bearer <keyId>:<secret>" to a caller
// address. Authority over any particular wallet stays a domain decision.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keyID, secret, ok := extractCredential(r)
		if !ok {
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer credential")
			return
		}
		caller, err := s.keys.Resolve(keyID, secret)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credential")
			return
		}
		next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), caller)))
	})
}

func extractCredential(r *http.Request) (keyID, secret string, ok bool) {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		return "", "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	parts := strings.SplitN(token, ":", 2)
	if len(parts) != 2 || parts[0] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
