// Package audioconv normalizes audio containers using whichever converter
// is available on the host, with a pure-Go fallback for mp3 to wav.
package audioconv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"
)

// ErrNoConverter is returned when no converter tool can handle the request.
var ErrNoConverter = errors.New("audioconv: no usable converter available")

// Normalizer converts audio files between containers.
// The exec hooks are injectable for tests.
type Normalizer struct {
	lookPath func(string) (string, error)
	run      func(ctx context.Context, bin string, args ...string) error
}

// New creates a Normalizer using the host's converter tools.
func New() *Normalizer {
	return &Normalizer{
		lookPath: exec.LookPath,
		run: func(ctx context.Context, bin string, args ...string) error {
			cmd := exec.CommandContext(ctx, bin, args...)
			out, err := cmd.CombinedOutput()
			if err != nil {
				return fmt.Errorf("%s failed: %w (%s)", bin, err, strings.TrimSpace(string(out)))
			}
			return nil
		},
	}
}

// NewWithHooks creates a Normalizer with custom tool lookup and execution.
func NewWithHooks(lookPath func(string) (string, error), run func(ctx context.Context, bin string, args ...string) error) *Normalizer {
	return &Normalizer{lookPath: lookPath, run: run}
}

// Convert transcodes inputPath into the desired container.
// If the input already matches, the path is returned unchanged. The
// intermediate input file is deleted only after a successful conversion.
func (n *Normalizer) Convert(ctx context.Context, inputPath, container string) (string, error) {
	container = strings.ToLower(strings.TrimPrefix(container, "."))
	current := strings.ToLower(strings.TrimPrefix(filepath.Ext(inputPath), "."))
	if current == container {
		return inputPath, nil
	}

	outputPath := strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + "." + container

	for _, tool := range n.toolChain(container) {
		bin, err := n.lookPath(tool.name)
		if err != nil {
			continue
		}
		if err := n.run(ctx, bin, tool.args(inputPath, outputPath)...); err != nil {
			slog.Warn("Audioconv: converter failed, trying next", "tool", tool.name, "error", err)
			continue
		}
		_ = os.Remove(inputPath)
		return outputPath, nil
	}

	// No external tool worked. mp3 to wav can still be done in-process.
	if current == "mp3" && container == "wav" {
		if err := decodeMP3ToWAV(inputPath, outputPath); err != nil {
			return "", fmt.Errorf("audioconv: in-process decode failed: %w", err)
		}
		_ = os.Remove(inputPath)
		return outputPath, nil
	}

	return "", fmt.Errorf("%w (%s -> %s)", ErrNoConverter, current, container)
}

type converterTool struct {
	name string
	args func(in, out string) []string
}

// toolChain returns converters in preference order for the target container.
func (n *Normalizer) toolChain(container string) []converterTool {
	tools := []converterTool{
		{"ffmpeg", func(in, out string) []string {
			return []string{"-y", "-loglevel", "error", "-i", in, out}
		}},
		{"sox", func(in, out string) []string {
			return []string{in, out}
		}},
	}
	// afconvert only targets Core Audio formats; offer it for wav output.
	if container == "wav" {
		tools = append(tools, converterTool{"afconvert", func(in, out string) []string {
			return []string{"-f", "WAVE", "-d", "LEI16", in, out}
		}})
	}
	return tools
}

func decodeMP3ToWAV(inputPath, outputPath string) error {
	in, err := os.Open(inputPath)
	if err != nil {
		return err
	}

	streamer, format, err := mp3.Decode(in)
	if err != nil {
		in.Close()
		return err
	}
	defer streamer.Close()

	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()

	return wav.Encode(out, streamer, format)
}
