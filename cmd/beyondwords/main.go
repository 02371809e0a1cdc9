package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"beyondwords/internal/api"
	"beyondwords/pkg/audioconv"
	"beyondwords/pkg/config"
	"beyondwords/pkg/db"
	"beyondwords/pkg/dispatch"
	"beyondwords/pkg/logging"
	"beyondwords/pkg/policy"
	"beyondwords/pkg/probe"
	"beyondwords/pkg/statefile"
	"beyondwords/pkg/store"
	"beyondwords/pkg/tracker"
	"beyondwords/pkg/tts"
	"beyondwords/pkg/tts/cloud"
	"beyondwords/pkg/tts/local"
	"beyondwords/pkg/tts/premium"
	"beyondwords/pkg/usage"
	"beyondwords/pkg/version"
)

var (
	initConfig = flag.Bool("init-config", false, "Generate default config file and exit")
	configPath = flag.String("config", "configs/beyondwords.yaml", "Path to config file")
)

func main() {
	flag.Parse()

	// Handle --init-config flag
	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated:", *configPath)
		return
	}

	if err := run(context.Background(), *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Credentials live in the environment, optionally seeded from .env.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	// Configure History Logging
	tts.SetLogPath(appCfg.History.TTS.Path)
	tts.SetEnabled(appCfg.History.TTS.Enabled)

	slog.Info("BeyondWords Started", "version", version.Version)

	if err := os.MkdirAll(appCfg.Output.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	dbConn, err := db.Init(appCfg.DB.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbConn.Close()
	st := store.NewSQLiteStore(dbConn)

	stateDoc, err := statefile.Open(appCfg.Policy.Path)
	if err != nil {
		return fmt.Errorf("failed to open policy document: %w", err)
	}

	policies := policy.NewStore(stateDoc)
	ledger := usage.NewLedger(stateDoc)
	tr := tracker.New()
	conv := audioconv.New()

	providers := buildProviders(ctx, appCfg, conv)

	results := probe.Run(ctx, startupProbes(appCfg, stateDoc, providers))
	if err := probe.AnalyzeResults(results); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	dispatcher := dispatch.New(appCfg, policies, ledger, providers, conv, st, tr)

	return runServer(ctx, appCfg, dispatcher, policies, ledger, tr, st)
}

// startupProbes verifies the pieces the fallback guarantee depends on.
// The output directory and policy document must be writable; paid tiers
// are reported but never block startup.
func startupProbes(cfg *config.Config, stateDoc *statefile.File, providers map[policy.Tier]tts.Provider) []probe.Probe {
	probes := []probe.Probe{
		{
			Name:     "Output Directory",
			Critical: true,
			Check: func(ctx context.Context) error {
				f, err := os.CreateTemp(cfg.Output.Dir, ".probe-*")
				if err != nil {
					return err
				}
				f.Close()
				return os.Remove(f.Name())
			},
		},
		{
			Name:     "Policy Document",
			Critical: true,
			Check: func(ctx context.Context) error {
				return stateDoc.Update(func(doc *statefile.Document) error { return nil })
			},
		},
	}

	for _, tier := range []policy.Tier{policy.TierCloud, policy.TierPremium} {
		tier := tier
		probes = append(probes, probe.Probe{
			Name: fmt.Sprintf("%s tier", tier),
			Check: func(ctx context.Context) error {
				if _, ok := providers[tier]; !ok {
					return fmt.Errorf("not configured")
				}
				return nil
			},
		})
	}

	return probes
}

// buildProviders constructs one provider per tier that is usable on this
// host. Missing credentials disable a tier rather than failing startup.
func buildProviders(ctx context.Context, cfg *config.Config, conv *audioconv.Normalizer) map[policy.Tier]tts.Provider {
	providers := map[policy.Tier]tts.Provider{
		policy.TierLocal: local.NewProvider(&cfg.TTS, conv),
	}

	if cloudProv, err := cloud.NewProvider(cfg.TTS.Cloud); err != nil {
		slog.Warn("Cloud tier disabled", "error", err)
	} else {
		providers[policy.TierCloud] = cloudProv
	}

	if premiumProv, err := premium.NewProvider(ctx, cfg.TTS.Premium); err != nil {
		slog.Warn("Premium tier disabled", "error", err)
	} else {
		providers[policy.TierPremium] = premiumProv
	}

	return providers
}

func runServer(ctx context.Context, cfg *config.Config, dispatcher *dispatch.Dispatcher, policies *policy.Store, ledger *usage.Ledger, tr *tracker.Tracker, st store.Store) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	shutdownFunc := func() { quit <- syscall.SIGTERM }

	srv := api.NewServer(cfg.Server.Address,
		api.NewSpeakHandler(dispatcher, cfg.TTS.DefaultLanguage),
		api.NewConfigHandler(policies, st),
		api.NewStatsHandler(tr, ledger, policies),
		api.NewAudioHandler(cfg.Output.Dir),
		api.NewHistoryHandler(st),
		shutdownFunc,
	)

	srv.Handler = loggingMiddleware(srv.Handler)
	return runServerLifecycle(ctx, srv, quit)
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Info("Request Processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
