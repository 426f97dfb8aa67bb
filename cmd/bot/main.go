package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"EtfSentinel/internal/config"
	"EtfSentinel/internal/controller"
	"EtfSentinel/internal/engine"
	"EtfSentinel/internal/notifier"
	"EtfSentinel/internal/pricesource"
	"EtfSentinel/internal/recorder"
	"EtfSentinel/internal/scheduler"
	"EtfSentinel/internal/statestore"
)

// Exit codes for one-shot mode, so an external trigger can tell the three
// terminal outcomes apart.
const (
	exitDecision = 0 // a decision was made (or a pending buy recovered)
	exitFailure  = 1 // hard failure
	exitNoOp     = 3 // already decided today
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	daemon := flag.Bool("daemon", false, "run continuously on the cron schedule with Telegram commands")
	status := flag.Bool("status", false, "print the current investment state and exit")
	flag.Parse()

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init price source
	var src pricesource.Source
	if cfg.QuoteAPI.BaseURL != "" {
		src = pricesource.NewQuoteAPISource(cfg.QuoteAPI.BaseURL, cfg.QuoteAPI.APIKey, cfg.Proxy)
	} else {
		src = pricesource.NewYahooSource(cfg.Proxy)
	}
	log.Printf("[INFO] price source: %s", src.Name())

	// Init state store
	store, err := statestore.NewFileStore(cfg.Store.StateDir)
	if err != nil {
		log.Fatalf("[FATAL] init state store: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *status {
		printStatus(ctx, store, cfg.Ticker)
		return
	}

	// Init Telegram notifier
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	ctrl := controller.New(src, store, tn, rec, cfg.Ticker, engine.Params{
		WaitPeriodDays:   cfg.Strategy.WaitPeriodDays,
		VolatilityFactor: cfg.Strategy.VolatilityFactor,
		MinHistory:       cfg.Strategy.MinHistory,
		WindowSize:       cfg.Strategy.WindowSize,
	})

	if !*daemon {
		code := runOnce(ctx, ctrl)
		if sr, ok := rec.(*recorder.SQLiteRecorder); ok {
			sr.Close()
		}
		os.Exit(code)
	}

	// Daemon mode: cron schedule + Telegram command polling.
	sched := scheduler.NewScheduler(ctx, ctrl, store, tn)
	if err := sched.Register(cfg.Schedule.DailyCron); err != nil {
		log.Fatalf("[FATAL] register cron task: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Println("[INFO] Telegram polling started")

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing decision task now")
		go sched.RunNow()
	}

	log.Println("[INFO] EtfSentinel is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] EtfSentinel stopped")
}

func runOnce(ctx context.Context, ctrl *controller.Controller) int {
	outcome, err := ctrl.Run(ctx)
	if err != nil {
		log.Printf("[ERROR] decision cycle failed: %v", err)
		return exitFailure
	}
	if outcome.NoOp {
		log.Printf("[INFO] already decided today: %s (%s)", outcome.Action, outcome.Reason)
		return exitNoOp
	}
	log.Printf("[INFO] decision: %s (%s), waited %d days", outcome.Action, outcome.Reason, outcome.DaysWaited)
	return exitDecision
}

func printStatus(ctx context.Context, store statestore.Store, ticker string) {
	state, err := store.Read(ctx, ticker)
	if err != nil {
		if errors.Is(err, statestore.ErrNotFound) {
			fmt.Printf("no state recorded for %s yet\n", ticker)
			return
		}
		log.Fatalf("[FATAL] read state: %v", err)
	}
	fmt.Printf("ticker:         %s\n", state.Ticker)
	fmt.Printf("baseline:       %s @ %s\n", state.BaselinePrice.StringFixed(2), state.BaselineDate.Format("2006-01-02"))
	fmt.Printf("last decision:  %s (%s)\n", state.LastDecisionDate.Format("2006-01-02"), state.LastAction)
	fmt.Printf("price window:   %d samples\n", len(state.RecentPrices))
	fmt.Printf("status:         %s\n", state.Status)
}
