package cloud

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beyondwords/pkg/config"
	"beyondwords/pkg/tts"
)

func TestMain(m *testing.M) {
	tts.SetEnabled(false)
	os.Exit(m.Run())
}

func newTestProvider(t *testing.T, srv *httptest.Server) *Provider {
	t.Helper()
	t.Setenv("BEYONDWORDS_CLOUD_TTS_KEY", "test-key")
	p, err := NewProvider(config.CloudTTSConfig{
		Endpoint: srv.URL,
		VoiceID:  "en-US-JennyNeural",
		Timeout:  config.Duration(5 * time.Second),
	})
	require.NoError(t, err)
	p.client = srv.Client()
	return p
}

func TestNewProvider_UnavailableWithoutKey(t *testing.T) {
	t.Setenv("BEYONDWORDS_CLOUD_TTS_KEY", "")
	t.Setenv("AZURE_SPEECH_KEY", "")

	_, err := NewProvider(config.CloudTTSConfig{Region: "eastus", VoiceID: "v"})
	assert.ErrorIs(t, err, tts.ErrUnavailable)
}

func TestNewProvider_FallsBackToSecondKeyVar(t *testing.T) {
	t.Setenv("BEYONDWORDS_CLOUD_TTS_KEY", "")
	t.Setenv("AZURE_SPEECH_KEY", "second")

	p, err := NewProvider(config.CloudTTSConfig{Region: "eastus", VoiceID: "v"})
	require.NoError(t, err)
	assert.Equal(t, "second", p.key)
}

func TestSynthesize_Success(t *testing.T) {
	var gotKey, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Ocp-Apim-Subscription-Key")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		_, _ = w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv)
	out := filepath.Join(t.TempDir(), "clip")

	container, err := p.Synthesize(context.Background(), "hello there", "en-GB", out)
	require.NoError(t, err)
	assert.Equal(t, "mp3", container)
	assert.Equal(t, "test-key", gotKey)
	assert.Contains(t, gotBody, "xml:lang='en-GB'")
	assert.Contains(t, gotBody, "<voice name='en-US-JennyNeural'>hello there</voice>")

	data, err := os.ReadFile(out + ".mp3")
	require.NoError(t, err)
	assert.Equal(t, "mp3-bytes", string(data))
}

func TestSynthesize_EscapesSSML(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv)

	_, err := p.Synthesize(context.Background(), `"cats & dogs" <loudly>`, "en-US", filepath.Join(t.TempDir(), "clip"))
	require.NoError(t, err)
	assert.Contains(t, gotBody, "&quot;cats &amp; dogs&quot; &lt;loudly&gt;")
}

func TestSynthesize_NonOKIsFatal(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := newTestProvider(t, srv)

	_, err := p.Synthesize(context.Background(), "hello", "en-US", filepath.Join(t.TempDir(), "clip"))
	require.Error(t, err)
	assert.True(t, tts.IsFatalError(err), "non-2xx must be fatal, got: %v", err)
	assert.Equal(t, 1, calls, "fatal errors must not be retried")
}

func TestSynthesize_RetriesTransportErrorOnce(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		// Kill the connection to force a transport error.
		hj, ok := w.(http.Hijacker)
		require.True(t, ok)
		conn, _, err := hj.Hijack()
		require.NoError(t, err)
		conn.Close()
	}))
	defer srv.Close()

	p := newTestProvider(t, srv)

	_, err := p.Synthesize(context.Background(), "hello", "en-US", filepath.Join(t.TempDir(), "clip"))
	require.Error(t, err)
	assert.False(t, tts.IsFatalError(err))
	assert.Equal(t, 2, calls)
}

func TestSynthesize_StripsSpeakerLabels(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv)

	_, err := p.Synthesize(context.Background(), "Coach: breathe in", "en-US", filepath.Join(t.TempDir(), "clip"))
	require.NoError(t, err)
	assert.NotContains(t, gotBody, "Coach:")
	assert.Contains(t, gotBody, "breathe in")
}
