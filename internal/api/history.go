package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"beyondwords/pkg/store"
)

// HistoryHandler serves recent dispatch records.
type HistoryHandler struct {
	store store.HistoryStore
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(st store.HistoryStore) *HistoryHandler {
	return &HistoryHandler{store: st}
}

// HistoryRecordDTO is one dispatch record.
type HistoryRecordDTO struct {
	RequestID      string  `json:"request_id"`
	Fingerprint    string  `json:"fingerprint"`
	TextLength     int     `json:"text_length"`
	Language       string  `json:"language"`
	Destination    string  `json:"destination"`
	Tier           string  `json:"tier"`
	FallbackReason string  `json:"fallback_reason,omitempty"`
	OutputPath     string  `json:"output_path"`
	Container      string  `json:"container"`
	Cost           float64 `json:"cost"`
	CreatedAt      string  `json:"created_at"`
}

// HandleRecent handles GET /api/history/recent?limit=N.
func (h *HistoryHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, err := h.store.RecentHistory(r.Context(), limit)
	if err != nil {
		slog.Error("History: query failed", "error", err)
		http.Error(w, "failed to read history", http.StatusInternalServerError)
		return
	}

	out := make([]HistoryRecordDTO, 0, len(records))
	for _, rec := range records {
		out = append(out, HistoryRecordDTO{
			RequestID:      rec.RequestID,
			Fingerprint:    rec.Fingerprint,
			TextLength:     rec.TextLength,
			Language:       rec.Language,
			Destination:    rec.Destination,
			Tier:           rec.Tier,
			FallbackReason: rec.FallbackReason,
			OutputPath:     rec.OutputPath,
			Container:      rec.Container,
			Cost:           rec.Cost,
			CreatedAt:      rec.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	writeJSON(w, out)
}
