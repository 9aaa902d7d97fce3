package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nyeinchan/shwecart-backend/internal/settings"
	"github.com/nyeinchan/shwecart-backend/pkg/config"
	"github.com/nyeinchan/shwecart-backend/pkg/db"
	"github.com/nyeinchan/shwecart-backend/pkg/enums"
	"github.com/nyeinchan/shwecart-backend/pkg/logger"
	"github.com/nyeinchan/shwecart-backend/pkg/migrate"
)

// The scheduler flips the checkout gate at the configured store hours. Its
// writes carry source=schedule, so an admin override is never clobbered.
func main() {
	logg := logger.New(logger.Options{ServiceName: "scheduler"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "scheduler",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	settingsSvc, err := settings.NewService(settings.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create settings service", err)
		os.Exit(1)
	}

	location, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		logg.Error(context.Background(), "invalid schedule timezone", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx = logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"open_hour":  cfg.Schedule.OpenHour,
		"close_hour": cfg.Schedule.CloseHour,
		"timezone":   cfg.Schedule.Timezone,
	})
	logg.Info(ctx, "scheduler started")

	ticker := time.NewTicker(cfg.Schedule.Interval)
	defer ticker.Stop()

	apply(ctx, logg, settingsSvc, cfg.Schedule, location)
	for {
		select {
		case <-ctx.Done():
			logg.Info(ctx, "scheduler stopping")
			return
		case <-ticker.C:
			apply(ctx, logg, settingsSvc, cfg.Schedule, location)
		}
	}
}

func apply(ctx context.Context, logg *logger.Logger, svc settings.Service, cfg config.ScheduleConfig, location *time.Location) {
	hour := time.Now().In(location).Hour()
	open := withinWindow(hour, cfg.OpenHour, cfg.CloseHour)

	if err := svc.SetOrdersEnabled(ctx, open, enums.SettingSourceSchedule); err != nil {
		logg.Error(ctx, "apply schedule window", err)
		return
	}
}

// withinWindow handles windows that cross midnight, e.g. 21 to 2.
func withinWindow(hour, open, close int) bool {
	if open == close {
		return true
	}
	if open < close {
		return hour >= open && hour < close
	}
	return hour >= open || hour < close
}
