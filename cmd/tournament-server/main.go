package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"sweeps-casino/internal/app/lobby"
	"sweeps-casino/internal/archive"
	"sweeps-casino/internal/config"
	"sweeps-casino/internal/events"
	"sweeps-casino/internal/ledger"
	"sweeps-casino/internal/logging"
	"sweeps-casino/internal/notify"
	"sweeps-casino/internal/store"
	"sweeps-casino/internal/tournament"
	httptransport "sweeps-casino/internal/transport/http"
	"sweeps-casino/internal/ws"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	if err := logging.Init(cfg.Log); err != nil {
		panic(err)
	}
	defer func() { _ = logging.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Scheduler.Location()
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Scheduler.Timezone).Msg("invalid scheduler timezone")
	}
	split, err := tournament.ParsePayoutSplit(cfg.Scheduler.PayoutSplit)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid payout split")
	}
	scale, err := tournament.ParsePayoutScale(cfg.Scheduler.PayoutScale)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid payout scale")
	}

	var (
		st      *store.Store
		journal ledger.Journal
		repo    tournament.Repository
		deps    httptransport.Deps
	)
	if cfg.Server.PostgresDSN != "" {
		st, err = store.New(cfg.Server.PostgresDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("store init failed")
		}
		defer st.Close()
		journal = st
		repo = store.NewTournamentRepository(st)
		deps.DB = st
		deps.Journal = st
	} else {
		log.Warn().Msg("POSTGRES_DSN not set; tournaments and balances are kept in memory")
	}

	led := ledger.New(journal)
	if st != nil {
		balances, err := st.LatestBalances(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("restore balances failed")
		}
		for id, st := range balances {
			led.Restore(id, st)
		}
		log.Info().Int("accounts", len(balances)).Msg("ledger balances restored")
	}

	bus := events.NewBus(cfg.Server.EventBufferSize)
	defer bus.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	sched, err := tournament.NewScheduler(led, tournament.Options{
		Location:            loc,
		Repository:          repo,
		Publisher:           bus,
		Metrics:             tournament.NewMetrics(reg),
		StatusSweepInterval: cfg.Scheduler.StatusSweepInterval,
		LevelSweepInterval:  cfg.Scheduler.LevelSweepInterval,
		SettleDelay:         cfg.Scheduler.SettleDelay,
		PayoutSplit:         split,
		PayoutScale:         scale,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("scheduler init failed")
	}

	if cfg.Archive.Enabled {
		arc, err := archive.NewFromConfig(ctx, cfg.Archive)
		if err != nil {
			log.Fatal().Err(err).Msg("archive init failed")
		}
		arc.Attach(bus)
		arc.Start(ctx)
		defer arc.Wait()
		log.Info().Str("bucket", cfg.Archive.Bucket).Msg("result archive enabled")
	}

	notifyCfg, err := notify.ConfigFrom(cfg.Notify)
	if err != nil {
		log.Fatal().Err(err).Msg("notify config invalid")
	}
	notifier := notify.NewManager(notifyCfg)
	notifier.Attach(bus)
	if err := notifier.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("notify start failed")
	}

	feed := ws.NewServer(bus)
	feed.Attach()
	defer feed.Close()

	n, err := sched.Rehydrate(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("rehydrate failed")
	}
	log.Info().Int("tournaments", n).Msg("tournaments rehydrated")
	if cfg.Scheduler.SeedRecurring {
		seeded, err := sched.SeedRecurring(ctx, tournament.DefaultTemplates())
		if err != nil {
			log.Error().Err(err).Msg("seed recurring tournaments failed")
		}
		log.Info().Int("seeded", len(seeded)).Msg("recurring tournaments seeded")
	}
	if err := sched.StartSweeps(ctx); err != nil {
		log.Fatal().Err(err).Msg("start sweeps failed")
	}

	deps.Lobby = lobby.NewService(sched, led)
	deps.Bus = bus
	deps.Feed = feed
	deps.Gatherer = reg
	r := httptransport.NewRouter(cfg.Server, deps)
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("http shutdown")
		}
	}()

	log.Info().Str("addr", cfg.Server.HTTPAddr).Msg("tournament server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("server stopped")
	}
}
