package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"portalsync/internal/auth"
	"portalsync/internal/config"
	appLog "portalsync/internal/log"
	"portalsync/internal/notify"
	"portalsync/internal/remind"
	"portalsync/internal/sheets"
	"portalsync/internal/store"
	"portalsync/internal/syncer"
	"portalsync/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	once       bool
	verbose    bool
}

func main() {
	appLog.Info("portalsync starting", "version", "0.1.0")

	flags := parseFlags()
	if flags.verbose {
		appLog.SetLevel(appLog.LevelDebug)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		appLog.Error("invalid timezone, falling back to UTC", err, "timezone", conf.Timezone)
		loc = time.UTC
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"refresh", conf.RefreshCron,
		"store_path", conf.StorePath,
		"course_count", len(conf.Courses),
		"notify_enabled", conf.Notify.Enabled,
		"once", flags.once,
	)

	st, err := store.Open(conf.StorePath)
	if err != nil {
		appLog.Error("failed to open snapshot store", err, "store_path", conf.StorePath)
		os.Exit(1)
	}
	defer st.Close()

	source := sheets.NewClient("", loc, conf.Partners)
	desktop := notify.NewDesktop(conf.Notify.Enabled, conf.Notify.Icon)
	scheduler := remind.NewScheduler(desktop)
	defer scheduler.Stop()

	coord := syncer.NewCoordinator(conf, source, st, scheduler, loc)
	authClient := auth.NewClient(conf.ScriptURL, source, conf.MembersSheet)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if flags.once {
		if err := coord.RefreshAll(ctx); err != nil {
			appLog.Error("one-shot refresh finished with failures", err)
			os.Exit(1)
		}
		appLog.Info("one-shot refresh complete")
		return
	}

	// Initial refresh so the first request already sees live data.
	go func() {
		if err := coord.RefreshAll(ctx); err != nil {
			appLog.Warn("initial refresh incomplete", "err", err)
		}
	}()

	c := cron.New()
	if _, err := c.AddFunc(conf.RefreshCron, func() {
		appLog.Debug("periodic refresh tick")
		if err := coord.RefreshAll(ctx); err != nil {
			appLog.Warn("periodic refresh incomplete", "err", err)
		}
	}); err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	c.Start()
	defer c.Stop()

	server := web.NewServer(conf, coord, st, authClient)
	httpSrv := &http.Server{
		Addr:         conf.Listen,
		Handler:      server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("HTTP server listening", "addr", conf.Listen)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("HTTP server failed", err)
		}
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("HTTP shutdown failed", err)
	}

	appLog.Info("portalsync exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one refresh cycle and exit")
	flag.BoolVar(&cfg.verbose, "verbose", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
