package local

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beyondwords/pkg/audioconv"
	"beyondwords/pkg/config"
	"beyondwords/pkg/tts"
)

func TestMain(m *testing.M) {
	tts.SetEnabled(false)
	os.Exit(m.Run())
}

type stubStrategy struct {
	id        string
	avail     bool
	container string
	err       error
	calls     int
	gotText   string
}

func (s *stubStrategy) name() string    { return s.id }
func (s *stubStrategy) available() bool { return s.avail }
func (s *stubStrategy) attempt(ctx context.Context, text, languageCode, outputPath string) (string, error) {
	s.calls++
	s.gotText = text
	return s.container, s.err
}

func TestSynthesize_StopsAtFirstSuccess(t *testing.T) {
	first := &stubStrategy{id: "first", avail: true, container: "wav"}
	second := &stubStrategy{id: "second", avail: true, container: "mp3"}
	p := &Provider{strategies: []strategy{first, second}}

	container, err := p.Synthesize(context.Background(), "hello", "en-US", filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	assert.Equal(t, "wav", container)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)
}

func TestSynthesize_SkipsUnavailable(t *testing.T) {
	skipped := &stubStrategy{id: "native", avail: false, container: "wav"}
	used := &stubStrategy{id: "web", avail: true, container: "mp3"}
	p := &Provider{strategies: []strategy{skipped, used}}

	container, err := p.Synthesize(context.Background(), "hello", "en-US", filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	assert.Equal(t, "mp3", container)
	assert.Equal(t, 0, skipped.calls)
}

func TestSynthesize_CollectsFailureReasons(t *testing.T) {
	a := &stubStrategy{id: "say", avail: true, err: errors.New("voice missing")}
	b := &stubStrategy{id: "edge", avail: true, err: errors.New("handshake refused")}
	p := &Provider{strategies: []strategy{a, b}}

	_, err := p.Synthesize(context.Background(), "hello", "en-US", filepath.Join(t.TempDir(), "out"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "say: voice missing")
	assert.Contains(t, err.Error(), "edge: handshake refused")
}

func TestSynthesize_NoStrategyAvailable(t *testing.T) {
	p := &Provider{strategies: []strategy{&stubStrategy{id: "sapi", avail: false}}}

	_, err := p.Synthesize(context.Background(), "hello", "en-US", filepath.Join(t.TempDir(), "out"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no local synthesis strategy available")
}

func TestSynthesize_StripsSpeakerLabels(t *testing.T) {
	s := &stubStrategy{id: "stub", avail: true, container: "wav"}
	p := &Provider{strategies: []strategy{s}}

	_, err := p.Synthesize(context.Background(), "Tutor: repeat after me", "en-US", filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	assert.Equal(t, "repeat after me", s.gotText)
}

func TestBaseLanguage(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"en-US", "en"},
		{"en_GB", "en"},
		{"ja", "ja"},
		{"ZH-cn", "zh"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := baseLanguage(tt.in); got != tt.want {
			t.Errorf("baseLanguage(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewProvider_ChainEndsWithWebFallbacks(t *testing.T) {
	cfg := config.DefaultConfig()
	p := NewProvider(&cfg.TTS, audioconv.New())

	require.GreaterOrEqual(t, len(p.strategies), 3)
	last := p.strategies[len(p.strategies)-1]
	assert.Equal(t, "translate", last.name())
	assert.Equal(t, "edge", p.strategies[len(p.strategies)-2].name())
}
