package local

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"beyondwords/pkg/audioconv"
)

// sayVoices maps primary language subtags to macOS system voices.
var sayVoices = map[string]string{
	"en": "Samantha",
	"es": "Mónica",
	"fr": "Thomas",
	"de": "Anna",
	"it": "Alice",
	"pt": "Luciana",
	"ja": "Kyoko",
	"ko": "Yuna",
	"zh": "Tingting",
}

func runCommand(ctx context.Context, bin string, args ...string) error {
	cmd := exec.CommandContext(ctx, bin, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %w (%s)", bin, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func nativeStrategies(conv *audioconv.Normalizer) []strategy {
	switch runtime.GOOS {
	case "darwin":
		return []strategy{&sayStrategy{conv: conv, lookPath: exec.LookPath, run: runCommand}}
	case "windows":
		return []strategy{&sapiStrategy{}}
	default:
		return []strategy{
			&commandStrategy{
				bin:      "espeak-ng",
				lookPath: exec.LookPath,
				run:      runCommand,
				buildArgs: func(text, languageCode, wavPath string) []string {
					return []string{"-v", baseLanguage(languageCode), "-w", wavPath, text}
				},
			},
			&commandStrategy{
				bin:      "flite",
				lookPath: exec.LookPath,
				run:      runCommand,
				buildArgs: func(text, languageCode, wavPath string) []string {
					return []string{"-t", text, "-o", wavPath}
				},
			},
		}
	}
}

// sayStrategy drives the macOS `say` command. say only emits AIFF, so the
// result is converted to wav afterwards; if conversion fails the AIFF is
// kept as a playable artifact.
type sayStrategy struct {
	conv     *audioconv.Normalizer
	lookPath func(string) (string, error)
	run      func(ctx context.Context, bin string, args ...string) error
}

func (s *sayStrategy) name() string { return "say" }

func (s *sayStrategy) available() bool {
	_, err := s.lookPath("say")
	return err == nil
}

func (s *sayStrategy) attempt(ctx context.Context, text, languageCode, outputPath string) (string, error) {
	aiffPath := outputPath + ".aiff"

	err := fmt.Errorf("no voice for language %q", languageCode)
	if voice, ok := sayVoices[baseLanguage(languageCode)]; ok {
		err = s.run(ctx, "say", "-v", voice, "-o", aiffPath, text)
	}
	if err != nil {
		// Unknown language or broken voice. Retry with the system default.
		if err = s.run(ctx, "say", "-o", aiffPath, text); err != nil {
			return "", err
		}
	}

	if _, convErr := s.conv.Convert(ctx, aiffPath, "wav"); convErr != nil {
		return "aiff", nil
	}
	return "wav", nil
}

// commandStrategy runs a synthesizer binary that writes wav directly
// (espeak-ng, flite).
type commandStrategy struct {
	bin       string
	buildArgs func(text, languageCode, wavPath string) []string
	lookPath  func(string) (string, error)
	run       func(ctx context.Context, bin string, args ...string) error
}

func (s *commandStrategy) name() string { return s.bin }

func (s *commandStrategy) available() bool {
	_, err := s.lookPath(s.bin)
	return err == nil
}

func (s *commandStrategy) attempt(ctx context.Context, text, languageCode, outputPath string) (string, error) {
	wavPath := outputPath + ".wav"
	if err := s.run(ctx, s.bin, s.buildArgs(text, languageCode, wavPath)...); err != nil {
		return "", err
	}
	return "wav", nil
}
