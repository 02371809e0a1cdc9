// Package premium implements the top synthesis tier using Gemini TTS.
package premium

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/api/iterator"
	"google.golang.org/genai"

	"beyondwords/pkg/config"
	"beyondwords/pkg/tts"
	"beyondwords/pkg/wavegen"
)

// keyEnvVars lists the environment variables consulted for the API key,
// in priority order.
var keyEnvVars = []string{"BEYONDWORDS_PREMIUM_TTS_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"}

// Gemini TTS returns raw 24kHz 16-bit mono PCM.
const pcmSampleRate = 24000

// Provider implements tts.Provider for Gemini TTS.
type Provider struct {
	client  *genai.Client
	model   string
	voiceID string
}

// NewProvider creates a premium provider. Returns tts.ErrUnavailable when
// no API key is configured in the environment.
func NewProvider(ctx context.Context, cfg config.PremiumTTSConfig) (*Provider, error) {
	apiKey := config.FirstEnv(keyEnvVars...)
	if apiKey == "" {
		return nil, fmt.Errorf("no premium speech key configured: %w", tts.ErrUnavailable)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	p := &Provider{
		client:  client,
		model:   cfg.Model,
		voiceID: cfg.VoiceID,
	}
	if p.model == "" {
		p.model = "gemini-2.5-flash-preview-tts"
	}

	if err := p.validateModel(ctx); err != nil {
		slog.Warn("Premium model validation failed (proceeding anyway)", "error", err)
		// Startup continues even if the API is flaky or rate-limited.
		// A truly invalid key or model fails on the first synthesis call.
	}

	return p, nil
}

// Synthesize generates speech via Gemini and wraps the returned PCM as wav.
func (p *Provider) Synthesize(ctx context.Context, text, languageCode, outputPath string) (string, error) {
	text = tts.StripSpeakerLabels(text)
	voice := GetVoiceByID(p.voiceID)

	genConfig := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
					VoiceName: voice.Name,
				},
			},
		},
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(text), genConfig)
	if err != nil {
		tts.Log("PREMIUM", text, 0, err)
		return "", tts.NewFatalError(502, fmt.Sprintf("gemini tts error: %v", err))
	}

	pcm, err := extractPCM(resp)
	if err != nil {
		tts.Log("PREMIUM", text, 0, err)
		return "", err
	}

	tts.Log("PREMIUM", text, 200, nil)

	wavPath := outputPath + ".wav"
	if err := wavegen.WritePCM(wavPath, pcm, pcmSampleRate, 1, 16); err != nil {
		return "", fmt.Errorf("failed to write wav: %w", err)
	}
	return "wav", nil
}

func extractPCM(resp *genai.GenerateContentResponse) ([]byte, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini response contains no candidates")
	}
	var pcm []byte
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			pcm = append(pcm, part.InlineData.Data...)
		}
	}
	if len(pcm) == 0 {
		return nil, fmt.Errorf("gemini response contains no audio data")
	}
	return pcm, nil
}

// Voices lists the Gemini voice profiles.
func (p *Provider) Voices(ctx context.Context) ([]tts.Voice, error) {
	voices := make([]tts.Voice, 0, len(GeminiVoices))
	for _, v := range GeminiVoices {
		voices = append(voices, tts.Voice{
			ID:       v.ID,
			Name:     fmt.Sprintf("%s (%s)", v.Name, v.Gender),
			Language: "multilingual",
			IsNeural: true,
		})
	}
	return voices, nil
}

// validateModel checks if the configured model is available for the API key.
func (p *Provider) validateModel(ctx context.Context) error {
	name := p.model
	if !strings.HasPrefix(name, "models/") {
		name = "models/" + name
	}

	_, err := p.client.Models.Get(ctx, name, nil)
	if err == nil {
		slog.Debug("Premium model validation success", "model", p.model)
		return nil
	}

	slog.Warn("Premium model validation failed, fetching available models...", "model", p.model, "error", err)

	iter, listErr := p.client.Models.List(ctx, nil)
	if listErr != nil {
		slog.Warn("Failed to list models for recovery", "error", listErr)
		return nil
	}

	var availableModels []string
	for {
		m, nextErr := iter.Next(ctx)
		if nextErr == iterator.Done {
			break
		}
		if nextErr != nil {
			break
		}
		if strings.Contains(strings.ToLower(m.Name), "tts") {
			availableModels = append(availableModels, m.Name)
		}
	}

	slog.Error("Configured model not found", "configured", p.model)
	for _, m := range availableModels {
		slog.Error("- " + m)
	}

	return nil
}
