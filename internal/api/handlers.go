package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/roach88/fundledger/internal/ident"
	"github.com/roach88/fundledger/internal/ledger"
	"github.com/roach88/fundledger/internal/receipt"
	"github.com/roach88/fundledger/internal/runtime"
	"github.com/roach88/fundledger/internal/store"
)

// defaultExecutionLimit applies when /v1/executions has no limit parameter.
const defaultExecutionLimit = 50

// maxBodyBytes bounds a submitted transaction.
const maxBodyBytes = 1 << 20

type handler struct {
	host   *runtime.Host
	logger *slog.Logger
}

// SubmitResponse is the body of POST /v1/transactions. Receipt is present
// whenever the execution was recorded, including rejected commands.
type SubmitResponse struct {
	Receipt *receipt.Receipt `json:"receipt,omitempty"`
	Error   *StandardError   `json:"error,omitempty"`
}

func (h *handler) submit(w http.ResponseWriter, r *http.Request) {
	var tx runtime.Transaction
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&tx); err != nil {
		respondInvalid(w, "invalid transaction: "+err.Error())
		return
	}

	rec, err := h.host.Submit(r.Context(), tx)
	if err == nil {
		respondJSON(w, http.StatusOK, SubmitResponse{Receipt: rec})
		return
	}
	if rec == nil {
		h.logger.Error("submit failed", "error", err)
		respondError(w, err)
		return
	}

	status, body := errorBody(err)
	respondJSON(w, status, SubmitResponse{Receipt: rec, Error: &body.Error})
}

func (h *handler) cell(w http.ResponseWriter, r *http.Request) {
	addr, err := ident.Parse(chi.URLParam(r, "address"))
	if err != nil {
		respondInvalid(w, err.Error())
		return
	}
	view, err := h.host.View(r.Context(), addr)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *handler) organizations(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner != "" {
		if _, err := ident.Parse(owner); err != nil {
			respondInvalid(w, "owner: "+err.Error())
			return
		}
	}
	orgs, err := h.host.Organizations(r.Context(), owner)
	if err != nil {
		respondError(w, err)
		return
	}
	if orgs == nil {
		orgs = []ledger.OrganizationEntry{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"organizations": orgs})
}

func (h *handler) executions(w http.ResponseWriter, r *http.Request) {
	limit := defaultExecutionLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			respondInvalid(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	execs, err := h.host.Executions(r.Context(), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	if execs == nil {
		execs = []store.Execution{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"executions": execs})
}
