package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dvloznov/saldo-certo/internal/api"
	"github.com/dvloznov/saldo-certo/internal/app"
	"github.com/dvloznov/saldo-certo/internal/assistant"
	"github.com/dvloznov/saldo-certo/internal/config"
	"github.com/dvloznov/saldo-certo/internal/interpreter"
	"github.com/dvloznov/saldo-certo/internal/logger"
	"github.com/dvloznov/saldo-certo/internal/metrics"
	"github.com/dvloznov/saldo-certo/internal/session"
	"github.com/dvloznov/saldo-certo/internal/telegram"
)

const sweepInterval = time.Minute

func main() {
	configPath := flag.String("config", os.Getenv("SALDOCERTO_CONFIG"), "Path to YAML config file (or set SALDOCERTO_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to load config")
	}

	log, err := logger.NewFromConfig(cfg.Log, os.Stdout)
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to create logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx, log)

	m := metrics.New()

	st, err := app.OpenStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer st.Close()
	log.Info().Str("driver", cfg.Storage.Driver).Msg("Store opened")

	interp := interpreter.New(st)
	pending := session.NewStore(cfg.Session.PendingTTL, cfg.Session.MaxPending)
	go app.SweepPending(ctx, pending, sweepInterval, log, m)

	archive, err := app.NewArchive(ctx, cfg.Export, st, log, m)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start export archive")
	}

	opts := []assistant.Option{assistant.WithMetrics(m)}
	if pub := archive.Publisher(); pub != nil {
		opts = append(opts, assistant.WithArchive(pub))
	}
	bot := assistant.New(interp, st, pending, log, opts...)

	botDone := make(chan struct{})
	if cfg.Telegram.Token != "" {
		tg, err := telegram.New(cfg.Telegram, bot, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Telegram bot")
		}
		go func() {
			tg.Run(ctx)
			close(botDone)
		}()
	} else {
		log.Warn().Msg("No Telegram token configured - chat bot disabled")
		close(botDone)
	}

	server := &http.Server{
		Addr: ":" + strconv.Itoa(cfg.Server.Port),
		Handler: api.NewRouter(api.Deps{
			Interpreter: interp,
			Ledger:      st,
			Jobs:        archive.Jobs,
			Publisher:   archive.Publisher(),
			Archive:     archive.Storage(),
			Metrics:     m,
			APIToken:    cfg.Server.APIToken,
			Log:         log,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("API server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	select {
	case <-botDone:
	case <-shutdownCtx.Done():
		log.Warn().Msg("Telegram bot did not stop in time")
	}

	if err := archive.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping export archive")
	}

	log.Info().Msg("Server exited")
}
