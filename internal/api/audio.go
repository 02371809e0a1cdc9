package api

import (
	"net/http"
	"os"
	"path/filepath"
)

// AudioHandler serves produced audio artifacts.
type AudioHandler struct {
	outputDir string
}

// NewAudioHandler creates a new AudioHandler confined to the output directory.
func NewAudioHandler(outputDir string) *AudioHandler {
	return &AudioHandler{outputDir: outputDir}
}

// HandleServe serves the artifact at the requested file name.
// GET /api/audio/serve?file=...
func (h *AudioHandler) HandleServe(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("file")
	if name == "" {
		http.Error(w, "missing file parameter", http.StatusBadRequest)
		return
	}

	// Only bare file names are accepted; everything resolves inside the
	// output directory.
	if name != filepath.Base(name) {
		http.Error(w, "invalid file name", http.StatusBadRequest)
		return
	}

	path := filepath.Join(h.outputDir, name)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		http.Error(w, "audio not found", http.StatusNotFound)
		return
	}
	if err != nil || info.IsDir() {
		http.Error(w, "invalid audio path", http.StatusBadRequest)
		return
	}

	http.ServeFile(w, r, path)
}
