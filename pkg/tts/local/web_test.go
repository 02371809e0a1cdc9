package local

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beyondwords/pkg/tts"
)

func TestTranslateStrategy_Success(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"q":  r.URL.Query().Get("q"),
			"tl": r.URL.Query().Get("tl"),
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(make([]byte, tts.MinAudioSize+100))
	}))
	defer srv.Close()

	s := &translateStrategy{
		baseURL:  srv.URL,
		timeout:  5 * time.Second,
		maxChars: 200,
		client:   srv.Client(),
	}

	out := filepath.Join(t.TempDir(), "clip")
	container, err := s.attempt(context.Background(), "guten Tag", "de-DE", out)
	require.NoError(t, err)
	assert.Equal(t, "mp3", container)
	assert.Equal(t, "guten Tag", gotQuery["q"])
	assert.Equal(t, "de", gotQuery["tl"])
	assert.NoError(t, tts.VerifyAudioFile(out+".mp3"))
}

func TestTranslateStrategy_TruncatesLongText(t *testing.T) {
	var gotLen int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLen = len([]rune(r.URL.Query().Get("q")))
		_, _ = w.Write(make([]byte, tts.MinAudioSize+100))
	}))
	defer srv.Close()

	s := &translateStrategy{baseURL: srv.URL, timeout: 5 * time.Second, maxChars: 50, client: srv.Client()}

	long := ""
	for i := 0; i < 40; i++ {
		long += "word "
	}
	_, err := s.attempt(context.Background(), long, "en-US", filepath.Join(t.TempDir(), "clip"))
	require.NoError(t, err)
	assert.LessOrEqual(t, gotLen, 50)
}

func TestTranslateStrategy_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := &translateStrategy{baseURL: srv.URL, timeout: 5 * time.Second, maxChars: 200, client: srv.Client()}

	_, err := s.attempt(context.Background(), "hello", "en-US", filepath.Join(t.TempDir(), "clip"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestTranslateStrategy_RejectsTinyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("nope"))
	}))
	defer srv.Close()

	s := &translateStrategy{baseURL: srv.URL, timeout: 5 * time.Second, maxChars: 200, client: srv.Client()}

	_, err := s.attempt(context.Background(), "hello", "en-US", filepath.Join(t.TempDir(), "clip"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too small")
}

func TestEdgeStrategy_UnavailableWithoutEnv(t *testing.T) {
	t.Setenv("EDGE_TTS_BASE_URL", "")
	s := &edgeStrategy{timeout: time.Second, maxChars: 200}
	assert.False(t, s.available())
}

func TestEdgeVoiceSelection(t *testing.T) {
	voice, ok := edgeVoices[baseLanguage("ja-JP")]
	require.True(t, ok)
	assert.Equal(t, "ja-JP-NanamiNeural", voice)
}

func TestBuildSSML_EscapesText(t *testing.T) {
	ssml := buildSSML("en-US-AvaMultilingualNeural", `say "<hi> & bye"`)
	assert.Contains(t, ssml, "&quot;&lt;hi&gt; &amp; bye&quot;")
	assert.NotContains(t, ssml, "<hi>")
}
