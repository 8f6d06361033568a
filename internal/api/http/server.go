package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	appFactory "github.com/agent-wallet/agent-wallet/internal/application/factory"
	appWallet "github.com/agent-wallet/agent-wallet/internal/application/wallet"
	"github.com/agent-wallet/agent-wallet/internal/infrastructure/keystore"
	"github.com/agent-wallet/agent-wallet/internal/infrastructure/sse"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	walletSvc  *appWallet.Service
	factorySvc *appFactory.Service
	sseHub     *sse.Hub
	keys       *keystore.StaticKeyStore
}

func NewServer(
	walletSvc *appWallet.Service,
	factorySvc *appFactory.Service,
	sseHub *sse.Hub,
	keys *keystore.StaticKeyStore,
) *Server {
	return &Server{
		walletSvc:  walletSvc,
		factorySvc: factorySvc,
		sseHub:     sseHub,
		keys:       keys,
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Route("/wallets", func(r chi.Router) {
				r.Post("/", s.createWallet)
				r.Get("/", s.listWallets)
				r.Get("/{walletId}", s.getWalletStatus)

				r.Post("/{walletId}/sessions", s.createSession)
				r.Get("/{walletId}/sessions/{sessionId}", s.getSession)
				r.Delete("/{walletId}/sessions/{sessionId}", s.revokeSession)
				r.Delete("/{walletId}/sessions", s.revokeAllSessions)

				r.Post("/{walletId}/execute", s.execute)
				r.Post("/{walletId}/execute-batch", s.executeBatch)
				r.Get("/{walletId}/actions", s.listActions)
				r.Get("/{walletId}/nonce", s.getNonce)

				r.Put("/{walletId}/limits", s.setLimits)
				r.Put("/{walletId}/whitelist", s.setWhitelistEnabled)
				r.Get("/{walletId}/whitelist/targets", s.listWhitelistTargets)
				r.Post("/{walletId}/whitelist/targets", s.addWhitelistTargets)
				r.Delete("/{walletId}/whitelist/targets/{addr}", s.removeWhitelistTarget)

				r.Post("/{walletId}/freeze", s.freeze)
				r.Post("/{walletId}/unfreeze", s.unfreeze)
				r.Post("/{walletId}/guardian/propose", s.proposeGuardian)
				r.Post("/{walletId}/guardian/accept", s.acceptGuardianship)

				r.Post("/{walletId}/deposit", s.deposit)
				r.Post("/{walletId}/recover", s.recoverFunds)

				r.Get("/{walletId}/events", s.eventsEndpoint)
			})

			r.Route("/registry", func(r chi.Router) {
				r.Get("/stats", s.getStats)
			})
		})
	})

	return r
}

// Helpers
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

func parseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	val := chi.URLParam(r, key)
	return uuid.Parse(val)
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func parseLimitOffset(r *http.Request, defaultLimit, maxLimit int) (int, int) {
	limit := defaultLimit
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil {
			limit = l
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if o, err := strconv.Atoi(v); err == nil {
			offset = o
		}
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
