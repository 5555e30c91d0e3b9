package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"extractor-engine/internal/catalog"
	"extractor-engine/internal/config"
	"extractor-engine/internal/domain"
	"extractor-engine/internal/engine"
	"extractor-engine/internal/events"
	"extractor-engine/internal/httpapi"
	"extractor-engine/internal/nav/htmlfeed"
	"extractor-engine/internal/report"
	"extractor-engine/internal/run"
	"extractor-engine/internal/scheduler"
	"extractor-engine/internal/secrets"
	"extractor-engine/internal/sink"
)

func main() {
	var (
		cfgFlag  = flag.String("config", "", "path to extractor.yml (default: <data-dir>/extractor.yml)")
		daily    = flag.String("daily", "", "run every day at HH:MM instead of once")
		parallel = flag.Int("parallel", 1, "candidate lanes; >1 requires fully isolated sessions")
		listen   = flag.String("listen", "", "serve the control API on this address (e.g. 127.0.0.1:8790)")
	)
	flag.Parse()

	// .env carries DSNs and tokens in local setups
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[startup] .env: %v", err)
	}

	dataDir := os.Getenv("EXTRACTOR_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	cfgPath := *cfgFlag
	if cfgPath == "" {
		p, err := config.EnsureUserConfig(dataDir, filepath.Join("config", "extractor.yml"))
		if err != nil {
			log.Fatalf("config bootstrap failed: %v", err)
		}
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load failed (%s): %v", cfgPath, err)
	}
	config.OverlayEnv(&cfg)

	cfg, validation := config.NormalizeAndValidate(cfg)
	for _, w := range validation.Warnings {
		log.Printf("[config] warning: %s", w)
	}
	if !validation.OK() {
		for _, e := range validation.Errors {
			log.Printf("[config] error: %s", e)
		}
		os.Exit(2)
	}
	if cfg.App.DataDir != "" && cfg.App.DataDir != "." {
		dataDir = cfg.App.DataDir
	}

	orch, cleanup, err := buildOrchestrator(dataDir, cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer cleanup()

	cands := make([]domain.Candidate, 0, len(cfg.Candidates))
	for _, c := range cfg.Candidates {
		cands = append(cands, domain.Candidate{
			ID:        c.ID,
			Keywords:  c.Keywords,
			Locations: c.Locations,
			FeedURL:   c.FeedURL,
			Username:  c.Username,
			Enabled:   c.Enabled,
			MaxItems:  c.MaxItems,
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var tracker run.StatusTracker
	batch := func(ctx context.Context) error {
		tracker.MarkRunning()
		res, err := orch.RunBatch(ctx, cands, *parallel)
		tracker.MarkDone(res.TotalSaved(), err)
		log.Printf("[batch] done: candidates=%d saved=%d skipped=%d failed=%d",
			len(res.Runs), res.TotalSaved(), res.Skipped, res.Failed)
		return err
	}

	if *listen != "" {
		trigger := make(chan struct{}, 1)
		go func() {
			err := httpapi.Serve(ctx, *listen, httpapi.Deps{
				Status:    &tracker,
				Hub:       orch.Hub,
				ReportDir: filepath.Join(dataDir, cfg.Report.Dir),
				Trigger: func() bool {
					if tracker.Get().Running {
						return false
					}
					select {
					case trigger <- struct{}{}:
						return true
					default:
						return false
					}
				},
			})
			if err != nil {
				log.Printf("[api] %v", err)
			}
		}()
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-trigger:
					_ = batch(ctx)
				}
			}
		}()
	}

	if *daily != "" {
		hour, min, err := parseClock(*daily)
		if err != nil {
			log.Fatalf("invalid -daily value %q: %v", *daily, err)
		}
		scheduler.DailyAt(ctx, hour, min, "batch", batch)
		return
	}

	if err := batch(ctx); err != nil {
		if errors.Is(err, run.ErrCancelled) {
			log.Printf("[batch] cancelled")
			return
		}
		os.Exit(1)
	}
}

func buildOrchestrator(dataDir string, cfg config.Config) (*run.Orchestrator, func(), error) {
	cat, err := catalog.Open(filepath.Join(dataDir, "catalog.db"), catalog.Scope(cfg.Engine.DedupScope))
	if err != nil {
		return nil, nil, err
	}
	if n, err := cat.Count(context.Background()); err == nil {
		log.Printf("[startup] catalog: %d items seen", n)
	}

	sinks := []sink.Sink{}
	sqliteSink, err := sink.NewSQLite(filepath.Join(dataDir, "extracted.db"))
	if err != nil {
		_ = cat.Close()
		return nil, nil, err
	}
	sinks = append(sinks, sqliteSink)

	if n, err := sqliteSink.CleanupOld(3); err != nil {
		log.Printf("[startup] export retention sweep failed: %v", err)
	} else if n > 0 {
		log.Printf("[startup] removed %d exported rows older than 3 days", n)
	}

	if cfg.Sinks.CSV.Enabled {
		path := cfg.Sinks.CSV.Path
		if path == "" {
			path = filepath.Join(dataDir, "exports", "extracted_items.csv")
		}
		csvSink, err := sink.NewCSV(path)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, csvSink)
	}
	if cfg.Sinks.Postgres.Enabled {
		pgSink, err := sink.NewPostgres(cfg.Sinks.Postgres.DSN)
		if err != nil {
			// secondary sink: degrade, don't refuse to start
			log.Printf("[startup] postgres sink unavailable, continuing without it: %v", err)
		} else {
			sinks = append(sinks, pgSink)
		}
	}
	if cfg.Sinks.API.Enabled {
		sinks = append(sinks, sink.NewAPI(cfg.Sinks.API.BaseURL))
	}

	coord := sink.NewCoordinator("sqlite", cfg.Sinks.RetryBound, cfg.SinkRetryBackoff(), sinks...)
	log.Printf("[startup] sinks: %s (primary=sqlite)", strings.Join(coord.Names(), ", "))

	hub := events.NewHub()
	writers := report.Multi{report.LogWriter{}, report.FileWriter{Dir: filepath.Join(dataDir, cfg.Report.Dir)}}

	var stopNotify func()
	if cfg.Report.Telegram.Enabled {
		tg, err := report.NewTelegram(cfg.Report.Telegram.Token, cfg.Report.Telegram.ChatID)
		if err != nil {
			log.Printf("[startup] telegram disabled: %v", err)
		} else {
			writers = append(writers, tg)
			stopNotify = startItemNotifier(hub, tg)
		}
	}

	lockDir := filepath.Join(dataDir, "locks")
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, nil, err
	}

	orch := &run.Orchestrator{
		Catalog: cat,
		Sinks:   coord,
		Opener: &htmlfeed.Opener{
			Limiter:        htmlfeed.NewHostLimiter(cfg.Feed.RequestsPerSec, cfg.Feed.Burst),
			DefaultFeedURL: cfg.Feed.DefaultURL,
		},
		Hub:     hub,
		Reports: writers,
		Engine: engine.Config{
			StallThreshold: cfg.Engine.StallThreshold,
			MaxPages:       cfg.Engine.MaxPages,
			MaxScrolls:     cfg.Engine.MaxScrolls,
			FetchTimeout:   cfg.FetchTimeout(),
			FetchRetries:   cfg.Engine.FetchRetries,
			RetryBackoff:   cfg.FetchBackoff(),
		},
		LockDir:     lockDir,
		Credentials: secrets.PortalPassword,
	}

	cleanup := func() {
		if stopNotify != nil {
			stopNotify()
		}
		if err := coord.Close(); err != nil {
			log.Printf("[shutdown] %v", err)
		}
		_ = cat.Close()
	}
	return orch, cleanup, nil
}

// startItemNotifier forwards item_saved events to telegram as live pings.
func startItemNotifier(hub *events.Hub, tg *report.Telegram) (stop func()) {
	ch := hub.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for evt := range ch {
			if evt.Type != events.TypeItemSaved {
				continue
			}
			if err := tg.Notify(fmt.Sprintf("Saved: %s (%s)", evt.Detail, evt.CandidateID)); err != nil {
				log.Printf("[notify] telegram: %v", err)
			}
		}
	}()
	return func() {
		hub.Unsubscribe(ch)
		<-done
	}
}

func parseClock(s string) (hour, min int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("want HH:MM")
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("bad hour")
	}
	min, err = strconv.Atoi(parts[1])
	if err != nil || min < 0 || min > 59 {
		return 0, 0, fmt.Errorf("bad minute")
	}
	return hour, min, nil
}
