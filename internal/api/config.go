package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"beyondwords/pkg/policy"
	"beyondwords/pkg/store"
)

// ConfigHandler handles tier policy API requests.
type ConfigHandler struct {
	policies *policy.Store
	store    store.StateStore
}

// NewConfigHandler creates a new ConfigHandler.
func NewConfigHandler(policies *policy.Store, st store.StateStore) *ConfigHandler {
	return &ConfigHandler{policies: policies, store: st}
}

// ConfigResponse represents the policy snapshot.
type ConfigResponse struct {
	ActiveTier              string `json:"active_tier"`
	ExternalServicesEnabled bool   `json:"external_services_enabled"`
}

// ConfigRequest represents a policy mutation. Pointer fields distinguish
// absent from false.
type ConfigRequest struct {
	ActiveTier              string `json:"active_tier,omitempty"`
	ExternalServicesEnabled *bool  `json:"external_services_enabled,omitempty"`
	Credential              string `json:"credential,omitempty"`
}

// HandleConfig is a unified handler for all config-related methods.
func (h *ConfigHandler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		h.handleGet(w, r)
	case http.MethodPost:
		h.handlePost(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ConfigHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	pol := h.policies.Policy(r.Context())
	writeJSON(w, ConfigResponse{
		ActiveTier:              string(pol.ActiveTier),
		ExternalServicesEnabled: pol.ExternalServicesEnabled,
	})
}

func (h *ConfigHandler) handlePost(w http.ResponseWriter, r *http.Request) {
	var req ConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.ActiveTier != "" {
		ok, err := h.policies.SetActiveTier(r.Context(), req.ActiveTier)
		if err != nil {
			slog.Error("Config: failed to persist tier change", "error", err)
			http.Error(w, "failed to persist policy", http.StatusInternalServerError)
			return
		}
		if !ok {
			http.Error(w, "unknown tier", http.StatusBadRequest)
			return
		}
	}

	if req.ExternalServicesEnabled != nil {
		ok, err := h.policies.SetServicesEnabled(r.Context(), *req.ExternalServicesEnabled, req.Credential)
		if err != nil {
			slog.Error("Config: failed to persist services toggle", "error", err)
			http.Error(w, "failed to persist policy", http.StatusInternalServerError)
			return
		}
		if !ok {
			http.Error(w, "invalid credential", http.StatusForbidden)
			return
		}
	}

	if h.store != nil {
		if err := h.store.SetState(r.Context(), "last_policy_change", time.Now().UTC().Format(time.RFC3339)); err != nil {
			slog.Warn("Config: failed to record policy change time", "error", err)
		}
	}

	h.handleGet(w, r)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}
