package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"race-report/config"
	"race-report/health"
	"race-report/metrics"
	"race-report/queues"
	qpubsub "race-report/queues/pubsub"
	"race-report/report"
	"race-report/reporter"
	"race-report/web"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

var version = "source"

func setLogger(level string) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if os.Getenv("DEBUG") != "" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		log.Warn().Str("level", level).Msg("unknown log level; using info")
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func main() {
	fs := pflag.NewFlagSet("race-report", pflag.ExitOnError)
	envFile := fs.String("env-file", config.DefaultEnvFile, "dotenv file loaded before reading the environment")
	dataDir := fs.String("data-dir", "", "directory holding start.log, end.log and abbreviations.txt (overrides REPORT_DATA_DIR)")
	printVersion := fs.Bool("version", false, "print version and exit")
	_ = fs.Parse(os.Args[1:])
	if *printVersion {
		fmt.Println(version)
		return
	}

	cfg := config.Load(*envFile)
	if *dataDir != "" {
		cfg.SetDataDir(*dataDir)
	}
	setLogger(cfg.LogLevel)
	log.Info().Msgf("Starting race-report version: %s", version)
	log.Info().Interface("config", cfg.Redacted()).Msg("config loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	builder := report.NewBuilder(cfg.StartLog, cfg.EndLog, cfg.Roster)
	site, err := web.NewServer(builder)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load page templates")
	}

	router := mux.NewRouter()
	router.Use(web.RequestLogger)
	metrics.Register(router)
	health.Register(router, cfg.DataFiles()...)
	site.Register(router)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr()).Msg("starting report server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	if cfg.AsyncEnabled() {
		if cfg.CredentialsFile != "" {
			log.Info().Str("credsFile", cfg.CredentialsFile).Msg("using explicit Google credentials file")
		} else {
			log.Info().Msg("using default Google credentials (ambient)")
		}
		publisher := qpubsub.NewPublisher(cfg.GoogleProjectID, cfg.PubsubTopic, cfg.CredentialsFile)
		defer publisher.Close()
		controller := reporter.NewController(publisher, builder)
		subscriber := qpubsub.NewSubscriber(cfg.GoogleProjectID, cfg.Subscription, cfg.CredentialsFile)

		go func() {
			log.Info().Str("subscription", cfg.Subscription).Msg("starting subscriber loop")
			if err := subscriber.Start(ctx, func(ctx context.Context, req *queues.ReportRequest) error {
				return controller.Handle(ctx, req)
			}); err != nil {
				// Non-recoverable: if we can't receive from Pub/Sub, terminate the process
				log.Fatal().Err(err).Msg("subscriber exited with fatal error; shutting down")
			}
		}()
	} else {
		log.Info().Msg("queued reporting disabled; set REPORT_REQUEST_SUBSCRIPTION and REPORT_RESULT_TOPIC to enable")
	}

	// Block until shutdown
	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server graceful shutdown failed")
	}
	log.Info().Msg("shutdown complete")
}
