package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"beyondwords/pkg/policy"
	"beyondwords/pkg/tracker"
	"beyondwords/pkg/usage"
)

// StatsHandler serves dispatch statistics and usage accounting.
type StatsHandler struct {
	tracker  *tracker.Tracker
	ledger   *usage.Ledger
	policies *policy.Store
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(t *tracker.Tracker, l *usage.Ledger, p *policy.Store) *StatsHandler {
	return &StatsHandler{tracker: t, ledger: l, policies: p}
}

// TierStatsDTO mirrors tracker counters for one tier.
type TierStatsDTO struct {
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
	Synthesized int64 `json:"synthesized"`
	Failures    int64 `json:"failures"`
	Fallbacks   int64 `json:"fallbacks"`
}

// StatsResponse combines counters with the persisted usage ledger.
type StatsResponse struct {
	Tiers usage.Snapshot          `json:"usage"`
	Stats map[string]TierStatsDTO `json:"tiers"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snapshot := h.tracker.Snapshot()
	stats := make(map[string]TierStatsDTO, len(snapshot))
	for tier, s := range snapshot {
		stats[tier] = TierStatsDTO{
			CacheHits:   s.CacheHits,
			CacheMisses: s.CacheMisses,
			Synthesized: s.Synthesized,
			Failures:    s.Failures,
			Fallbacks:   s.Fallbacks,
		}
	}

	writeJSON(w, StatsResponse{
		Tiers: h.ledger.Snapshot(r.Context()),
		Stats: stats,
	})
}

// UsageResetRequest carries the admin credential for a ledger reset.
type UsageResetRequest struct {
	Credential string `json:"credential"`
}

// HandleUsageReset handles POST /api/usage/reset. Daily buckets are
// cleared; the lifetime total is preserved.
func (h *StatsHandler) HandleUsageReset(w http.ResponseWriter, r *http.Request) {
	var req UsageResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if !h.policies.VerifyCredential(req.Credential) {
		http.Error(w, "invalid credential", http.StatusForbidden)
		return
	}

	if err := h.ledger.Reset(r.Context()); err != nil {
		slog.Error("Stats: usage reset failed", "error", err)
		http.Error(w, "failed to persist reset", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.ledger.Snapshot(r.Context()))
}
