// Package wavegen writes PCM data as WAV files and generates the silent
// placeholder artifact used when every real synthesis attempt fails.
package wavegen

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"
)

// Placeholder audio parameters. Any player can decode this.
const (
	SampleRate    = 22050
	Channels      = 1
	BitsPerSample = 16
)

// WritePCM wraps raw little-endian PCM data in a RIFF/WAVE container.
func WritePCM(path string, pcm []byte, sampleRate, channels, bitsPerSample int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create wav file: %w", err)
	}
	defer f.Close()

	blockAlign := channels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign

	var header [44]byte
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+len(pcm)))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16) // PCM chunk size
	binary.LittleEndian.PutUint16(header[20:22], 1)  // PCM format
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], uint16(bitsPerSample))
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(len(pcm)))

	if _, err := f.Write(header[:]); err != nil {
		return fmt.Errorf("failed to write wav header: %w", err)
	}
	if _, err := f.Write(pcm); err != nil {
		return fmt.Errorf("failed to write wav data: %w", err)
	}
	return nil
}

// GenerateSilence writes a WAV file of true silence with the given duration.
// This is the backstop artifact: it only fails when the filesystem does.
func GenerateSilence(path string, d time.Duration) error {
	samples := int(float64(SampleRate) * d.Seconds())
	if samples <= 0 {
		samples = SampleRate // 1 second minimum
	}
	pcm := make([]byte, samples*Channels*BitsPerSample/8)
	return WritePCM(path, pcm, SampleRate, Channels, BitsPerSample)
}

// GenerateTone writes a low-amplitude sine tone. Used by diagnostics to
// distinguish "placeholder played" from "audio output broken".
func GenerateTone(path string, freq float64, d time.Duration) error {
	samples := int(float64(SampleRate) * d.Seconds())
	if samples <= 0 {
		samples = SampleRate
	}

	pcm := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		v := int16(3000 * math.Sin(2*math.Pi*freq*float64(i)/float64(SampleRate)))
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(v))
	}
	return WritePCM(path, pcm, SampleRate, Channels, BitsPerSample)
}
