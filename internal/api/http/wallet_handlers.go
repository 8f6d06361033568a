package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	appFactory "github.com/agent-wallet/agent-wallet/internal/application/factory"
	appWallet "github.com/agent-wallet/agent-wallet/internal/application/wallet"
	"github.com/agent-wallet/agent-wallet/internal/domain/wallet"
	"github.com/agent-wallet/agent-wallet/internal/infrastructure/sse"
)

// Request types

type createWalletRequest struct {
	Guardian     string `json:"guardian"`
	Label        string `json:"label"`
	PerTxCeiling uint64 `json:"perTxCeiling"`
	DailyCeiling uint64 `json:"dailyCeiling"`
}

type createSessionRequest struct {
	Agent           string `json:"agent"`
	Label           string `json:"label"`
	DurationSeconds int64  `json:"durationSeconds"`
	PerTxOverride   uint64 `json:"perTxOverride,omitempty"`
	DailyOverride   uint64 `json:"dailyOverride,omitempty"`
}

type executeRequest struct {
	Target  string        `json:"target"`
	Value   uint64        `json:"value"`
	Payload hexutil.Bytes `json:"payload,omitempty"`
	Nonce   uint64        `json:"nonce"`
}

type executeBatchRequest struct {
	Targets  []string        `json:"targets"`
	Values   []uint64        `json:"values"`
	Payloads []hexutil.Bytes `json:"payloads"`
	Nonce    uint64          `json:"nonce"`
}

type setLimitsRequest struct {
	PerTxCeiling   uint64 `json:"perTxCeiling"`
	DailyCeiling   uint64 `json:"dailyCeiling"`
	MonthlyCeiling uint64 `json:"monthlyCeiling"`
}

type whitelistEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

type whitelistTargetsRequest struct {
	Targets []string `json:"targets"`
}

type proposeGuardianRequest struct {
	Candidate string `json:"candidate"`
}

type amountRequest struct {
	Amount uint64 `json:"amount"`
}

// respondDomainError maps domain rejections onto HTTP statuses. Each
// rejection class gets a distinct status so clients can branch without
// string matching.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appWallet.ErrWalletNotFound),
		errors.Is(err, wallet.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case wallet.IsAuthorizationError(err):
		respondError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, wallet.ErrNonceMismatch):
		respondError(w, http.StatusConflict, "NONCE_MISMATCH", err.Error())
	case errors.Is(err, wallet.ErrRateLimited):
		respondError(w, http.StatusTooManyRequests, "RATE_LIMITED", err.Error())
	case errors.Is(err, wallet.ErrTimelockActive):
		respondError(w, http.StatusTooEarly, "TIMELOCK_ACTIVE", err.Error())
	case errors.Is(err, wallet.ErrOverflow):
		respondError(w, http.StatusUnprocessableEntity, "OVERFLOW", err.Error())
	default:
		if limitErr, ok := wallet.IsLimitError(err); ok {
			respondJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"error":   "LIMIT_EXCEEDED",
				"message": limitErr.Error(),
				"kind":    limitErr.Kind,
				"value":   limitErr.Value,
				"spent":   limitErr.Spent,
				"ceiling": limitErr.Ceiling,
			})
			return
		}
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
	}
}

func parseAddress(raw string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, errors.New("invalid address: " + raw)
	}
	return common.HexToAddress(raw), nil
}

func (s *Server) walletIDFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := parseUUIDParam(r, "walletId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid walletId")
		return uuid.Nil, false
	}
	return id, true
}

// Factory handlers

func (s *Server) createWallet(w http.ResponseWriter, r *http.Request) {
	var req createWalletRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	guardian, err := parseAddress(req.Guardian)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	record, err := s.factorySvc.CreateWallet(r.Context(), appFactory.CreateWalletInput{
		Guardian:     guardian,
		Label:        req.Label,
		PerTxCeiling: req.PerTxCeiling,
		DailyCeiling: req.DailyCeiling,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, record)
}

func (s *Server) listWallets(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 50, 100)
	records, err := s.factorySvc.ListWallets(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"wallets": records})
}

func (s *Server) getWalletStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := s.walletIDFromRequest(w, r)
	if !ok {
		return
	}
	status, err := s.walletSvc.Status(id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// Session handlers

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	id, ok := s.walletIDFromRequest(w, r)
	if !ok {
		return
	}
	var req createSessionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	agent, err := parseAddress(req.Agent)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	sessionID, err := s.walletSvc.CreateSession(
		r.Context(), id, callerFromContext(r.Context()), agent, req.Label,
		time.Duration(req.DurationSeconds)*time.Second,
		req.PerTxOverride, req.DailyOverride,
	)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{"sessionId": sessionID})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id, ok := s.walletIDFromRequest(w, r)
	if !ok {
		return
	}
	sessionID, err := strconv.ParseUint(chi.URLParam(r, "sessionId"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid sessionId")
		return
	}
	sess, err := s.walletSvc.Session(id, sessionID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

func (s *Server) revokeSession(w http.ResponseWriter, r *http.Request) {
	id, ok := s.walletIDFromRequest(w, r)
	if !ok {
		return
	}
	sessionID, err := strconv.ParseUint(chi.URLParam(r, "sessionId"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid sessionId")
		return
	}
	if err := s.walletSvc.RevokeSession(r.Context(), id, callerFromContext(r.Context()), sessionID); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"revoked": sessionID})
}

func (s *Server) revokeAllSessions(w http.ResponseWriter, r *http.Request) {
	id, ok := s.walletIDFromRequest(w, r)
	if !ok {
		return
	}
	count, err := s.walletSvc.RevokeAllSessions(r.Context(), id, callerFromContext(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"count": count})
}

// Execution handlers

func (s *Server) execute(w http.ResponseWriter, r *http.Request) {
	id, ok := s.walletIDFromRequest(w, r)
	if !ok {
		return
	}
	var req executeRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	target, err := parseAddress(req.Target)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	result, err := s.walletSvc.Execute(r.Context(), id, callerFromContext(r.Context()), target, req.Value, req.Payload, req.Nonce)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) executeBatch(w http.ResponseWriter, r *http.Request) {
	id, ok := s.walletIDFromRequest(w, r)
	if !ok {
		return
	}
	var req executeBatchRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	targets := make([]common.Address, len(req.Targets))
	for i, raw := range req.Targets {
		target, err := parseAddress(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
			return
		}
		targets[i] = target
	}
	payloads := make([][]byte, len(req.Payloads))
	for i, p := range req.Payloads {
		payloads[i] = p
	}
	successes, err := s.walletSvc.ExecuteBatch(r.Context(), id, callerFromContext(r.Context()), targets, req.Values, payloads, req.Nonce)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"successes": successes})
}

func (s *Server) listActions(w http.ResponseWriter, r *http.Request) {
	id, ok := s.walletIDFromRequest(w, r)
	if !ok {
		return
	}
	start := 0
	count := 100
	if v := r.URL.Query().Get("start"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			start = n
		}
	}
	if v := r.URL.Query().Get("count"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			count = n
		}
	}
	entries, total, err := s.walletSvc.Actions(id, start, count)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"actions": entries,
		"total":   total,
	})
}

func (s *Server) getNonce(w http.ResponseWriter, r *http.Request) {
	id, ok := s.walletIDFromRequest(w, r)
	if !ok {
		return
	}
	agentParam := r.URL.Query().Get("agent")
	agent := callerFromContext(r.Context())
	if agentParam != "" {
		parsed, err := parseAddress(agentParam)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
			return
		}
		agent = parsed
	}
	nonce, err := s.walletSvc.Nonce(id, agent)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"agent": agent.Hex(), "nonce": nonce})
}

// Guardian admin handlers

func (s *Server) setLimits(w http.ResponseWriter, r *http.Request) {
	id, ok := s.walletIDFromRequest(w, r)
	if !ok {
		return
	}
	var req setLimitsRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if err := s.walletSvc.SetLimits(r.Context(), id, callerFromContext(r.Context()), req.PerTxCeiling, req.DailyCeiling, req.MonthlyCeiling); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"updated": true})
}

func (s *Server) setWhitelistEnabled(w http.ResponseWriter, r *http.Request) {
	id, ok := s.walletIDFromRequest(w, r)
	if !ok {
		return
	}
	var req whitelistEnabledRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if err := s.walletSvc.SetWhitelistEnabled(r.Context(), id, callerFromContext(r.Context()), req.Enabled); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"enabled": req.Enabled})
}

func (s *Server) listWhitelistTargets(w http.ResponseWriter, r *http.Request) {
	id, ok := s.walletIDFromRequest(w, r)
	if !ok {
		return
	}
	targets, err := s.walletSvc.WhitelistTargets(id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	hexTargets := make([]string, len(targets))
	for i, t := range targets {
		hexTargets[i] = t.Hex()
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"targets": hexTargets})
}

func (s *Server) addWhitelistTargets(w http.ResponseWriter, r *http.Request) {
	id, ok := s.walletIDFromRequest(w, r)
	if !ok {
		return
	}
	var req whitelistTargetsRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	targets := make([]common.Address, len(req.Targets))
	for i, raw := range req.Targets {
		target, err := parseAddress(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
			return
		}
		targets[i] = target
	}
	if err := s.walletSvc.AddWhitelistTargets(r.Context(), id, callerFromContext(r.Context()), targets); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"added": len(targets)})
}

func (s *Server) removeWhitelistTarget(w http.ResponseWriter, r *http.Request) {
	id, ok := s.walletIDFromRequest(w, r)
	if !ok {
		return
	}
	target, err := parseAddress(chi.URLParam(r, "addr"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if err := s.walletSvc.RemoveWhitelistTarget(r.Context(), id, callerFromContext(r.Context()), target); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"removed": target.Hex()})
}

func (s *Server) freeze(w http.ResponseWriter, r *http.Request) {
	id, ok := s.walletIDFromRequest(w, r)
	if !ok {
		return
	}
	if err := s.walletSvc.Freeze(r.Context(), id, callerFromContext(r.Context())); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"frozen": true})
}

func (s *Server) unfreeze(w http.ResponseWriter, r *http.Request) {
	id, ok := s.walletIDFromRequest(w, r)
	if !ok {
		return
	}
	if err := s.walletSvc.Unfreeze(r.Context(), id, callerFromContext(r.Context())); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"frozen": false})
}

func (s *Server) proposeGuardian(w http.ResponseWriter, r *http.Request) {
	id, ok := s.walletIDFromRequest(w, r)
	if !ok {
		return
	}
	var req proposeGuardianRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	candidate, err := parseAddress(req.Candidate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if err := s.walletSvc.ProposeNewGuardian(r.Context(), id, callerFromContext(r.Context()), candidate); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"proposed": candidate.Hex()})
}

func (s *Server) acceptGuardianship(w http.ResponseWriter, r *http.Request) {
	id, ok := s.walletIDFromRequest(w, r)
	if !ok {
		return
	}
	caller := callerFromContext(r.Context())
	if err := s.walletSvc.AcceptGuardianship(r.Context(), id, caller); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"guardian": caller.Hex()})
}

// Balance handlers

func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	id, ok := s.walletIDFromRequest(w, r)
	if !ok {
		return
	}
	var req amountRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if err := s.walletSvc.Deposit(r.Context(), id, req.Amount); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"deposited": req.Amount})
}

func (s *Server) recoverFunds(w http.ResponseWriter, r *http.Request) {
	id, ok := s.walletIDFromRequest(w, r)
	if !ok {
		return
	}
	var req amountRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	recovered, err := s.walletSvc.RecoverFunds(r.Context(), id, callerFromContext(r.Context()), req.Amount)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"recovered": recovered})
}

// Registry handlers

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.factorySvc.Stats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// SSE

func (s *Server) eventsEndpoint(w http.ResponseWriter, r *http.Request) {
	id, ok := s.walletIDFromRequest(w, r)
	if !ok {
		return
	}
	// The wallet must exist before a stream is opened for it.
	if _, err := s.walletSvc.Status(id); err != nil {
		respondDomainError(w, err)
		return
	}

	flusher, flushable := w.(http.Flusher)
	if !flushable {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "streaming not supported")
		return
	}

	client := sse.NewClient(id, 64)
	s.sseHub.Register(client)
	defer s.sseHub.Unregister(client.ClientID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Send an initial comment to flush headers and keep the connection alive.
	_, _ = w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case msg := <-client.MessageChan:
			if msg == nil {
				return
			}
			payload, _ := json.Marshal(msg)
			_, _ = w.Write([]byte("event: "))
			_, _ = w.Write([]byte(msg.Event))
			_, _ = w.Write([]byte("\ndata: "))
			_, _ = w.Write(payload)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}
