package wavegen

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func readHeader(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read wav: %v", err)
	}
	if len(data) < 44 {
		t.Fatalf("wav too short: %d bytes", len(data))
	}
	return data
}

func TestGenerateSilence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "silence.wav")
	if err := GenerateSilence(path, time.Second); err != nil {
		t.Fatalf("GenerateSilence failed: %v", err)
	}

	data := readHeader(t, path)
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE magic")
	}
	if got := binary.LittleEndian.Uint32(data[24:28]); got != SampleRate {
		t.Errorf("sample rate = %d, want %d", got, SampleRate)
	}

	wantData := SampleRate * Channels * BitsPerSample / 8
	if got := binary.LittleEndian.Uint32(data[40:44]); got != uint32(wantData) {
		t.Errorf("data chunk size = %d, want %d", got, wantData)
	}
	// All silence.
	for i, b := range data[44:] {
		if b != 0 {
			t.Fatalf("non-zero sample byte at %d", i)
		}
	}
}

func TestGenerateSilence_ZeroDurationGetsMinimum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "min.wav")
	if err := GenerateSilence(path, 0); err != nil {
		t.Fatalf("GenerateSilence failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() < 44+SampleRate {
		t.Errorf("expected at least one second of audio, got %d bytes", info.Size())
	}
}

func TestGenerateTone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	if err := GenerateTone(path, 440, 100*time.Millisecond); err != nil {
		t.Fatalf("GenerateTone failed: %v", err)
	}

	data := readHeader(t, path)
	nonZero := false
	for _, b := range data[44:] {
		if b != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Error("tone must contain non-silent samples")
	}
}

func TestWritePCM_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "out.wav")
	if err := WritePCM(path, make([]byte, 64), 24000, 1, 16); err != nil {
		t.Fatalf("WritePCM failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file: %v", err)
	}
}
