// Package dispatch routes synthesis requests through the active tier and
// guarantees every caller gets a playable artifact.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"beyondwords/pkg/audioconv"
	"beyondwords/pkg/config"
	"beyondwords/pkg/policy"
	"beyondwords/pkg/store"
	"beyondwords/pkg/tracker"
	"beyondwords/pkg/tts"
	"beyondwords/pkg/usage"
	"beyondwords/pkg/wavegen"
)

// Request is one synthesis request.
type Request struct {
	Text         string
	LanguageCode string
	Destination  string
}

// Debug carries the metadata operators need to detect silent degradation.
type Debug struct {
	TierUsed       string            `json:"tier_used"`
	FallbackReason string            `json:"fallback_reason,omitempty"`
	PolicySnapshot policy.TierPolicy `json:"policy_snapshot"`
	CostEstimate   string            `json:"cost_estimate"`
	RequestID      string            `json:"request_id"`
}

// Result is the externally visible outcome of a dispatch. Success is true
// on every path that completes; failures are absorbed into the fallback
// artifact.
type Result struct {
	Success    bool   `json:"success"`
	OutputPath string `json:"output_path"`
	Debug      Debug  `json:"debug"`
}

// Dispatcher routes synthesis requests. Request-scoped and stateless apart
// from the shared policy store, ledger, cache and tracker.
type Dispatcher struct {
	policies  *policy.Store
	ledger    *usage.Ledger
	providers map[policy.Tier]tts.Provider
	conv      *audioconv.Normalizer
	cache     *resultCache
	history   store.HistoryStore
	tracker   *tracker.Tracker
	rates     map[policy.Tier]float64
	timeouts  map[policy.Tier]time.Duration
	outputDir string
}

// New creates a Dispatcher. The providers map holds one entry per tier
// that is actually available on this host.
func New(
	cfg *config.Config,
	policies *policy.Store,
	ledger *usage.Ledger,
	providers map[policy.Tier]tts.Provider,
	conv *audioconv.Normalizer,
	history store.HistoryStore,
	t *tracker.Tracker,
) *Dispatcher {
	return &Dispatcher{
		policies:  policies,
		ledger:    ledger,
		providers: providers,
		conv:      conv,
		cache:     newResultCache(),
		history:   history,
		tracker:   t,
		rates: map[policy.Tier]float64{
			policy.TierLocal:   0,
			policy.TierCloud:   cfg.TTS.Cloud.RatePerChar,
			policy.TierPremium: cfg.TTS.Premium.RatePerChar,
		},
		timeouts: map[policy.Tier]time.Duration{
			policy.TierLocal:   2 * time.Duration(cfg.TTS.Local.WebTimeout),
			policy.TierCloud:   time.Duration(cfg.TTS.Cloud.Timeout),
			policy.TierPremium: time.Duration(cfg.TTS.Premium.Timeout),
		},
		outputDir: cfg.Output.Dir,
	}
}

// Dispatch runs the full pipeline: cache check, policy check, tier attempt,
// container normalization, usage recording, cache store. The only error
// return is structural (cannot write the fallback artifact or persist
// state); every other path yields Success true.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*Result, error) {
	requestID := uuid.New().String()
	fp := Fingerprint(req.Text, req.LanguageCode, req.Destination)

	pol := d.policies.Policy(ctx)

	if art, ok := d.cache.lookup(fp); ok {
		d.tracker.TrackCacheHit(art.ProducedBy)
		return &Result{
			Success:    true,
			OutputPath: art.Path,
			Debug: Debug{
				TierUsed:       "cached",
				PolicySnapshot: pol,
				CostEstimate:   formatCost(0),
				RequestID:      requestID,
			},
		}, nil
	}

	effective := pol.ActiveTier
	var fallbackReason string
	if !pol.ExternalServicesEnabled && effective != policy.TierLocal {
		fallbackReason = fmt.Sprintf("external services disabled, %s tier skipped", effective)
		effective = policy.TierLocal
	}
	d.tracker.TrackCacheMiss(string(effective))

	basePath, desired := d.artifactBase(req.Destination, fp)

	art, attemptErr := d.attemptTier(ctx, effective, req, basePath)
	if attemptErr != nil {
		if fallbackReason == "" {
			fallbackReason = attemptErr.Error()
		} else {
			fallbackReason += "; " + attemptErr.Error()
		}
		var err error
		art, err = d.fallbackArtifact(basePath)
		if err != nil {
			return nil, err
		}
		d.tracker.TrackFallback(string(effective))
	} else if art.Container != desired {
		// Normalization failure is absorbed, the artifact stays as produced.
		if converted, err := d.conv.Convert(ctx, art.Path, desired); err != nil {
			slog.Warn("Dispatch: container normalization failed", "error", err, "container", art.Container)
		} else {
			art.Path = converted
			art.Container = desired
		}
	}

	if art.ProducedBy != "fallback" {
		art.Cost = d.rates[effective] * float64(utf8.RuneCountInString(req.Text))
	}

	// Persistence failure is the one fatal class and must propagate.
	if err := d.ledger.Record(ctx, art.ProducedBy, art.Cost); err != nil {
		return nil, fmt.Errorf("failed to record usage: %w", err)
	}

	d.cache.store(fp, art)
	d.appendHistory(ctx, requestID, fp, req, art, fallbackReason)

	return &Result{
		Success:    true,
		OutputPath: art.Path,
		Debug: Debug{
			TierUsed:       art.ProducedBy,
			FallbackReason: fallbackReason,
			PolicySnapshot: pol,
			CostEstimate:   formatCost(art.Cost),
			RequestID:      requestID,
		},
	}, nil
}

// CacheSize reports the number of cached artifacts.
func (d *Dispatcher) CacheSize() int {
	return d.cache.size()
}

// attemptTier invokes the selected tier's provider under its timeout.
// There is no cross-tier waterfall: a failed cloud or premium attempt goes
// straight to the silent fallback.
func (d *Dispatcher) attemptTier(ctx context.Context, tier policy.Tier, req Request, basePath string) (Artifact, error) {
	provider, ok := d.providers[tier]
	if !ok {
		d.tracker.TrackFailure(string(tier))
		return Artifact{}, fmt.Errorf("%s tier unavailable", tier)
	}

	tctx := ctx
	if timeout := d.timeouts[tier]; timeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	container, err := provider.Synthesize(tctx, req.Text, req.LanguageCode, basePath)
	if err != nil {
		d.tracker.TrackFailure(string(tier))
		return Artifact{}, fmt.Errorf("%s tier failed: %w", tier, err)
	}
	d.tracker.TrackSynthesis(string(tier))

	return Artifact{
		Path:       basePath + "." + container,
		Container:  container,
		ProducedBy: string(tier),
	}, nil
}

// fallbackArtifact writes the silent placeholder. A failure here is the
// structural error class and propagates.
func (d *Dispatcher) fallbackArtifact(basePath string) (Artifact, error) {
	path := basePath + ".wav"
	if err := wavegen.GenerateSilence(path, time.Second); err != nil {
		return Artifact{}, fmt.Errorf("failed to write fallback artifact: %w", err)
	}
	return Artifact{
		Path:       path,
		Container:  "wav",
		ProducedBy: "fallback",
		Cost:       0,
	}, nil
}

// artifactBase resolves the extension-free output path and the desired
// container for a destination. An empty destination gets a deterministic
// name derived from the fingerprint so dedup still works.
func (d *Dispatcher) artifactBase(destination, fingerprint string) (basePath, container string) {
	if destination == "" {
		destination = fingerprint[:16] + ".wav"
	}
	ext := filepath.Ext(destination)
	container = strings.TrimPrefix(strings.ToLower(ext), ".")
	if container == "" {
		container = "wav"
	}
	name := strings.TrimSuffix(filepath.Base(destination), ext)
	return filepath.Join(d.outputDir, name), container
}

func (d *Dispatcher) appendHistory(ctx context.Context, requestID, fp string, req Request, art Artifact, fallbackReason string) {
	if d.history == nil {
		return
	}
	rec := &store.HistoryRecord{
		RequestID:      requestID,
		Fingerprint:    fp,
		TextLength:     utf8.RuneCountInString(req.Text),
		Language:       req.LanguageCode,
		Destination:    req.Destination,
		Tier:           art.ProducedBy,
		FallbackReason: fallbackReason,
		OutputPath:     art.Path,
		Container:      art.Container,
		Cost:           art.Cost,
		CreatedAt:      time.Now().UTC(),
	}
	if err := d.history.AppendHistory(ctx, rec); err != nil {
		slog.Warn("Dispatch: failed to append history", "error", err)
	}
}

// formatCost renders a cost estimate with enough precision for per-char
// rates while keeping zero as "0.00".
func formatCost(cost float64) string {
	if cost == 0 {
		return "0.00"
	}
	return strconv.FormatFloat(cost, 'f', 6, 64)
}
