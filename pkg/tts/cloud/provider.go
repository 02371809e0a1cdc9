// Package cloud implements the paid mid-tier synthesis provider against an
// Azure-shaped speech endpoint.
package cloud

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"beyondwords/pkg/config"
	"beyondwords/pkg/tts"
)

// keyEnvVars lists the environment variables consulted for the
// subscription key, in priority order.
var keyEnvVars = []string{"BEYONDWORDS_CLOUD_TTS_KEY", "AZURE_SPEECH_KEY"}

// Provider implements tts.Provider for an Azure-shaped speech service.
type Provider struct {
	key     string
	voiceID string
	client  *http.Client
	url     string
}

// NewProvider creates a cloud provider. Returns tts.ErrUnavailable when no
// subscription key is configured in the environment.
func NewProvider(cfg config.CloudTTSConfig) (*Provider, error) {
	key := config.FirstEnv(keyEnvVars...)
	if key == "" {
		return nil, fmt.Errorf("no cloud speech key configured: %w", tts.ErrUnavailable)
	}

	url := cfg.Endpoint
	if url == "" {
		url = fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", cfg.Region)
	}

	return &Provider{
		key:     key,
		voiceID: cfg.VoiceID,
		client:  &http.Client{Timeout: time.Duration(cfg.Timeout)},
		url:     url,
	}, nil
}

// Synthesize generates speech by POSTing SSML to the speech endpoint.
// Non-2xx responses are FatalError; transport errors get one retry.
func (p *Provider) Synthesize(ctx context.Context, text, languageCode, outputPath string) (string, error) {
	if p.voiceID == "" {
		return "", fmt.Errorf("no voice ID configured for cloud speech")
	}

	text = tts.StripSpeakerLabels(text)
	ssml := buildSSML(p.voiceID, languageCode, text)

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(500 * time.Millisecond):
			}
		}

		ext, retry, err := p.executeAttempt(ctx, ssml, outputPath)
		if err == nil {
			return ext, nil
		}
		if !retry {
			return "", err
		}
		lastErr = err
	}

	return "", fmt.Errorf("cloud speech failed after retries: %w", lastErr)
}

func (p *Provider) executeAttempt(ctx context.Context, ssml, outputPath string) (ext string, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewBufferString(ssml))
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Ocp-Apim-Subscription-Key", p.key)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", "audio-24khz-160kbitrate-mono-mp3")
	req.Header.Set("User-Agent", "BeyondWords")

	resp, err := p.client.Do(req)
	if err != nil {
		tts.Log("CLOUD", ssml, 0, err)
		return "", true, fmt.Errorf("api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		tts.Log("CLOUD", ssml, resp.StatusCode, nil)
		body, readErr := io.ReadAll(resp.Body)
		bodyStr := string(body)
		if readErr != nil {
			bodyStr = fmt.Sprintf("[failed to read body: %v]", readErr)
		}
		if bodyStr == "" {
			bodyStr = "[empty body]"
		}
		errMsg := fmt.Sprintf("cloud speech api error (status %d): %s", resp.StatusCode, bodyStr)
		return "", false, tts.NewFatalError(resp.StatusCode, errMsg)
	}

	tts.Log("CLOUD", ssml, 200, nil)

	filename := outputPath
	if filepath.Ext(filename) != ".mp3" {
		filename += ".mp3"
	}
	f, err := os.Create(filename)
	if err != nil {
		return "", false, fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", false, fmt.Errorf("failed to write audio to file: %w", err)
	}

	return "mp3", false, nil
}

// Voices returns the configured voice.
func (p *Provider) Voices(ctx context.Context) ([]tts.Voice, error) {
	return []tts.Voice{
		{
			ID:       p.voiceID,
			Name:     "Configured Cloud Voice",
			Language: "en-US",
			IsNeural: true,
		},
	}, nil
}

func buildSSML(voiceID, languageCode, text string) string {
	if languageCode == "" {
		languageCode = "en-US"
	}
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&apos;",
	)
	escaped := replacer.Replace(text)
	return fmt.Sprintf(
		`<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='%s'><voice name='%s'>%s</voice></speak>`,
		languageCode, voiceID, escaped,
	)
}
