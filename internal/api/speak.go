package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"beyondwords/pkg/dispatch"
	"beyondwords/pkg/textproc"
)

// SpeakHandler handles synthesis dispatch requests.
type SpeakHandler struct {
	dispatcher      *dispatch.Dispatcher
	defaultLanguage string
}

// NewSpeakHandler creates a new SpeakHandler.
func NewSpeakHandler(d *dispatch.Dispatcher, defaultLanguage string) *SpeakHandler {
	return &SpeakHandler{dispatcher: d, defaultLanguage: defaultLanguage}
}

// SpeakRequest represents a synthesis request.
type SpeakRequest struct {
	Text         string `json:"text"`
	LanguageCode string `json:"language_code"`
	Destination  string `json:"destination"`
}

// SpeakResponse represents the dispatch outcome.
type SpeakResponse struct {
	Success        bool   `json:"success"`
	OutputPath     string `json:"output_path"`
	TierUsed       string `json:"tier_used"`
	FallbackReason string `json:"fallback_reason,omitempty"`
	CostEstimate   string `json:"cost_estimate"`
	RequestID      string `json:"request_id"`
}

// HandleSpeak handles POST /api/speak.
func (h *SpeakHandler) HandleSpeak(w http.ResponseWriter, r *http.Request) {
	var req SpeakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	req.Text = textproc.Sanitize(req.Text)
	if req.Text == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}
	if req.LanguageCode == "" {
		req.LanguageCode = h.defaultLanguage
	}

	res, err := h.dispatcher.Dispatch(r.Context(), dispatch.Request{
		Text:         req.Text,
		LanguageCode: req.LanguageCode,
		Destination:  req.Destination,
	})
	if err != nil {
		slog.Error("Speak: dispatch failed structurally", "error", err)
		http.Error(w, "dispatch failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(SpeakResponse{
		Success:        res.Success,
		OutputPath:     res.OutputPath,
		TierUsed:       res.Debug.TierUsed,
		FallbackReason: res.Debug.FallbackReason,
		CostEstimate:   res.Debug.CostEstimate,
		RequestID:      res.Debug.RequestID,
	}); err != nil {
		slog.Error("Speak: failed to write response", "error", err)
	}
}
