// Package local implements the zero-cost synthesis tier. It walks an
// ordered chain of strategies: native platform synthesizers first, then
// web-based fallbacks.
package local

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"beyondwords/pkg/audioconv"
	"beyondwords/pkg/config"
	"beyondwords/pkg/tts"
)

// strategy is a single way of producing audio on the local tier.
type strategy interface {
	name() string
	available() bool
	attempt(ctx context.Context, text, languageCode, outputPath string) (string, error)
}

// Provider implements tts.Provider by trying each strategy in order.
type Provider struct {
	strategies []strategy
}

// NewProvider creates a local provider with the platform-appropriate
// strategy chain.
func NewProvider(cfg *config.TTSConfig, conv *audioconv.Normalizer) *Provider {
	chain := nativeStrategies(conv)
	chain = append(chain,
		newEdgeStrategy(cfg),
		newTranslateStrategy(cfg),
	)
	return &Provider{strategies: chain}
}

// Synthesize tries each available strategy until one produces audio.
// All strategies exhausted means the local tier failed outright.
func (p *Provider) Synthesize(ctx context.Context, text, languageCode, outputPath string) (string, error) {
	text = tts.StripSpeakerLabels(text)

	var reasons []string
	for _, s := range p.strategies {
		if !s.available() {
			continue
		}
		container, err := s.attempt(ctx, text, languageCode, outputPath)
		if err != nil {
			slog.Warn("LocalTTS: strategy failed", "strategy", s.name(), "error", err)
			reasons = append(reasons, fmt.Sprintf("%s: %v", s.name(), err))
			continue
		}
		tts.Log("LOCAL/"+strings.ToUpper(s.name()), text, 200, nil)
		return container, nil
	}

	if len(reasons) == 0 {
		return "", fmt.Errorf("no local synthesis strategy available on this host")
	}
	return "", fmt.Errorf("all local strategies failed: %s", strings.Join(reasons, "; "))
}

// Voices returns the voices the local tier can name. Native engines pick
// their own voice per language, so this lists the web fallback set.
func (p *Provider) Voices(ctx context.Context) ([]tts.Voice, error) {
	voices := make([]tts.Voice, 0, len(edgeVoices))
	for lang, id := range edgeVoices {
		voices = append(voices, tts.Voice{ID: id, Name: id, Language: lang, IsNeural: true})
	}
	return voices, nil
}

// baseLanguage reduces a BCP-47 tag to its primary subtag ("en-US" -> "en").
func baseLanguage(languageCode string) string {
	lang := strings.ToLower(languageCode)
	if idx := strings.IndexAny(lang, "-_"); idx >= 0 {
		lang = lang[:idx]
	}
	return lang
}
