package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"plannercal/internal/config"
	appLog "plannercal/internal/log"
	"plannercal/internal/pipeline"
)

type flagConfig struct {
	configPath string
	daemon     bool
}

func main() {
	// Optional .env for local overrides (PLANNERCAL_CONFIG, PLANNERCAL_LOG_LEVEL).
	_ = godotenv.Load()

	flags := parseFlags()

	appLog.Info("plannercal starting", "config_path", flags.configPath, "daemon", flags.daemon)

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	appLog.Info("effective config",
		"output_dir", conf.OutputDir,
		"merged_file", conf.MergedFile,
		"timezone", conf.Timezone,
		"horizon_months", conf.HorizonMonths,
		"fetch_timeout_s", conf.FetchTimeoutSeconds,
		"source_count", len(conf.Sources),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	runner := pipeline.New(conf)

	if !flags.daemon {
		os.Exit(runOnce(ctx, runner))
	}

	// Daemon mode: run immediately, then on the configured cron schedule.
	if code := runOnce(ctx, runner); code != 0 {
		appLog.Warn("initial run produced no rows; staying up for scheduled retries")
	}

	c := cron.New()
	if _, err := c.AddFunc(conf.RefreshCron, func() {
		runOnce(ctx, runner)
	}); err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	c.Start()
	appLog.Info("refresh schedule active", "refresh", conf.RefreshCron)

	<-ctx.Done()
	<-c.Stop().Done()
	appLog.Info("plannercal exiting")
}

// runOnce executes one pipeline pass and returns the process exit code:
// zero as long as at least one source produced rows (even from fallback
// data), non-zero when every source failed outright.
func runOnce(ctx context.Context, runner *pipeline.Runner) int {
	res, err := runner.Run(ctx)
	if err != nil {
		appLog.Error("run failed", err)
		return 1
	}

	appLog.Info("run complete", "total_rows", res.TotalRows, "sources", len(res.Summaries))

	if res.TotalRows == 0 {
		appLog.Error("no rows produced by any source", nil)
		return 1
	}
	return 0
}

func parseFlags() flagConfig {
	var cfg flagConfig

	defaultConfig := os.Getenv("PLANNERCAL_CONFIG")
	if defaultConfig == "" {
		defaultConfig = "plannercal.yaml"
	}

	flag.StringVar(&cfg.configPath, "config", defaultConfig, "Path to config file")
	flag.BoolVar(&cfg.daemon, "cron", false, "Keep running and refresh on the configured cron schedule")

	flag.Parse()

	return cfg
}
