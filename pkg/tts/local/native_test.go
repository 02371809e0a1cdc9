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
)

func failingNormalizer() *audioconv.Normalizer {
	return audioconv.NewWithHooks(
		func(string) (string, error) { return "", errors.New("not found") },
		func(context.Context, string, ...string) error { return errors.New("unused") },
	)
}

func TestSayStrategy_UsesVoiceTable(t *testing.T) {
	var calls [][]string
	s := &sayStrategy{
		conv:     failingNormalizer(),
		lookPath: func(string) (string, error) { return "/usr/bin/say", nil },
		run: func(ctx context.Context, bin string, args ...string) error {
			calls = append(calls, args)
			return os.WriteFile(args[len(args)-2], []byte("aiff"), 0o644)
		},
	}

	out := filepath.Join(t.TempDir(), "clip")
	container, err := s.attempt(context.Background(), "hola", "es-MX", out)
	require.NoError(t, err)

	// Conversion unavailable, AIFF kept as the playable artifact.
	assert.Equal(t, "aiff", container)
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"-v", "Mónica", "-o", out + ".aiff", "hola"}, calls[0])
}

func TestSayStrategy_RetriesWithDefaultVoice(t *testing.T) {
	var calls [][]string
	s := &sayStrategy{
		conv:     failingNormalizer(),
		lookPath: func(string) (string, error) { return "/usr/bin/say", nil },
		run: func(ctx context.Context, bin string, args ...string) error {
			calls = append(calls, args)
			if args[0] == "-v" {
				return errors.New("voice not installed")
			}
			return nil
		},
	}

	out := filepath.Join(t.TempDir(), "clip")
	_, err := s.attempt(context.Background(), "hello", "en-US", out)
	require.NoError(t, err)
	require.Len(t, calls, 2)
	assert.Equal(t, []string{"-o", out + ".aiff", "hello"}, calls[1])
}

func TestSayStrategy_UnknownLanguageFallsBackToDefault(t *testing.T) {
	var calls [][]string
	s := &sayStrategy{
		conv:     failingNormalizer(),
		lookPath: func(string) (string, error) { return "/usr/bin/say", nil },
		run: func(ctx context.Context, bin string, args ...string) error {
			calls = append(calls, args)
			return nil
		},
	}

	_, err := s.attempt(context.Background(), "hej", "sv-SE", filepath.Join(t.TempDir(), "clip"))
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.NotEqual(t, "-v", calls[0][0])
}

func TestCommandStrategy(t *testing.T) {
	var gotArgs []string
	s := &commandStrategy{
		bin:      "espeak-ng",
		lookPath: func(string) (string, error) { return "/usr/bin/espeak-ng", nil },
		run: func(ctx context.Context, bin string, args ...string) error {
			gotArgs = args
			return nil
		},
		buildArgs: func(text, languageCode, wavPath string) []string {
			return []string{"-v", baseLanguage(languageCode), "-w", wavPath, text}
		},
	}

	out := filepath.Join(t.TempDir(), "clip")
	container, err := s.attempt(context.Background(), "bonjour", "fr-FR", out)
	require.NoError(t, err)
	assert.Equal(t, "wav", container)
	assert.Equal(t, []string{"-v", "fr", "-w", out + ".wav", "bonjour"}, gotArgs)
}

func TestCommandStrategy_Unavailable(t *testing.T) {
	s := &commandStrategy{
		bin:      "flite",
		lookPath: func(string) (string, error) { return "", errors.New("not found") },
	}
	assert.False(t, s.available())
}
