// Package tts defines the contract shared by all synthesis tiers.
package tts

import (
	"context"
	"errors"
	"fmt"
	"os"
)

const (
	// MinAudioSize is the minimum size of a synthesized audio file (1KB).
	// Files smaller than this are likely failed synthesis attempts.
	MinAudioSize = 1024

	// DefaultMaxWebChars is the truncation limit applied before calling
	// out to web-based synthesis services.
	DefaultMaxWebChars = 200
)

// ErrUnavailable marks a provider that cannot run at all in this
// environment (missing credentials, no engine installed). Known at
// construction time, never per-request.
var ErrUnavailable = errors.New("tts: provider unavailable")

// Provider defines the interface for Text-To-Speech backends.
type Provider interface {
	// Synthesize generates audio from text and writes it to outputPath
	// (appending a container extension when outputPath lacks one).
	// Returns the audio container ("mp3", "wav", "aiff") and error.
	Synthesize(ctx context.Context, text, languageCode, outputPath string) (string, error)

	// Voices returns a list of available voices for the provider.
	Voices(ctx context.Context) ([]Voice, error)
}

// Voice represents an available TTS voice.
type Voice struct {
	ID       string
	Name     string
	Language string
	IsNeural bool
}

// FatalError represents a provider error that is not worth retrying with
// the same provider. Examples: rate limits (429), server errors (5xx),
// auth failures (401/403).
type FatalError struct {
	StatusCode int
	Message    string
}

func (e *FatalError) Error() string {
	return e.Message
}

// NewFatalError creates a new FatalError with the given status code and message.
func NewFatalError(statusCode int, message string) *FatalError {
	return &FatalError{StatusCode: statusCode, Message: message}
}

// IsFatalError checks if an error is a provider fatal error.
func IsFatalError(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// VerifyAudioFile checks that a produced artifact exists and is plausibly
// real audio rather than an empty or error response body.
func VerifyAudioFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("audio file missing: %w", err)
	}
	if info.Size() < MinAudioSize {
		return fmt.Errorf("audio file too small (%d bytes): %s", info.Size(), path)
	}
	return nil
}
