// Package api exposes the dispatch pipeline over HTTP.
package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"beyondwords/pkg/version"
)

// NewServer creates and configures the HTTP server.
// It accepts handlers for all API endpoints and a shutdownFunc for graceful shutdown.
func NewServer(addr string, speak *SpeakHandler, cfg *ConfigHandler, stats *StatsHandler, audioH *AudioHandler, historyH *HistoryHandler, shutdown func()) *http.Server {
	mux := http.NewServeMux()

	// 1. Health Endpoint
	mux.HandleFunc("GET /health", handleHealth)

	// 2. Version Endpoint
	mux.HandleFunc("GET /api/version", handleVersion)

	// 3. Dispatch Endpoint
	mux.HandleFunc("POST /api/speak", speak.HandleSpeak)

	// 4. Config Endpoints
	mux.HandleFunc("/api/config", cfg.HandleConfig)

	// 5. Stats Endpoints
	mux.Handle("GET /api/stats", stats)
	mux.HandleFunc("POST /api/usage/reset", stats.HandleUsageReset)

	// 6. History Endpoint
	mux.HandleFunc("GET /api/history/recent", historyH.HandleRecent)

	// 7. Audio Endpoint
	mux.HandleFunc("GET /api/audio/serve", audioH.HandleServe)

	// 8. Shutdown Endpoint
	mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Graceful shutdown initiated via API")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("Shutting down...")); err != nil {
			slog.Error("Failed to write shutdown response", "error", err)
		}
		// Call shutdown in a goroutine to allow response to flush
		go func() {
			time.Sleep(100 * time.Millisecond)
			shutdown()
		}()
	})

	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := fmt.Fprintf(w, `{"version": "%s"}`, version.Version); err != nil {
		slog.Error("Failed to write version response", "error", err)
	}
}
