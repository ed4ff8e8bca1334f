package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/kikundi/sacco-engine/internal/config"
	"github.com/kikundi/sacco-engine/internal/repository"
	"github.com/kikundi/sacco-engine/internal/service"
	"github.com/kikundi/sacco-engine/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log := logger.New(logger.Options{
		ServiceName: "sacco-scheduler",
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
	})

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	store := repository.NewStore(db)
	settings := service.NewSettingsService(store)
	notifier := service.NewNotifier(store, log)
	fines := service.NewFineService(store, settings, notifier, log)

	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Scheduler.Timezone).Msg("invalid scheduler timezone")
	}

	c := cron.New(cron.WithLocation(location))
	setupCronJobs(c, cfg, log, settings, notifier, fines)

	c.Start()
	log.Info().Msg("scheduler started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down scheduler")
	<-c.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

func setupCronJobs(
	c *cron.Cron,
	cfg *config.Config,
	log zerolog.Logger,
	settings *service.SettingsService,
	notifier *service.Notifier,
	fines *service.FineService,
) {
	// Weekly compliance sweep: fine members below the minimum deposit.
	_, err := c.AddFunc(cfg.Scheduler.SweepSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		imposed, err := fines.RunComplianceSweep(ctx)
		if err != nil {
			log.Error().Err(err).Msg("compliance sweep failed")
			return
		}
		log.Info().Int("fines_imposed", imposed).Msg("compliance sweep done")
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to schedule compliance sweep")
	}

	// Weekly deposit reminder ahead of the sweep.
	_, err = c.AddFunc(cfg.Scheduler.ReminderSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		minDeposit := settings.Decimal(ctx, service.SettingMinWeeklyDeposit)
		notifier.NotifyAll(ctx, fmt.Sprintf(
			"Reminder: make your weekly deposit of at least %s before Sunday to avoid a fine.",
			minDeposit.StringFixed(2)))
		log.Info().Msg("weekly deposit reminder sent")
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to schedule deposit reminder")
	}
}
