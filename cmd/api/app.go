package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"metroroute.org/internal/app"
	"metroroute.org/internal/appconf"
	"metroroute.org/internal/clock"
	"metroroute.org/internal/logging"
	"metroroute.org/internal/metrics"
	"metroroute.org/internal/restapi"
	"metroroute.org/internal/transit"
	"metroroute.org/internal/webui"
)

const dbStatsInterval = 15 * time.Second

// BuildApplication loads the network and wires the shared dependencies.
func BuildApplication(cfg appconf.Config, transitCfg transit.Config) (*app.Application, error) {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := logging.NewStructuredLogger(os.Stdout, level)

	m := metrics.NewWithLogger(logger)
	c := clock.RealClock{}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	manager, err := transit.InitManager(ctx, transitCfg, m, c)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize transit manager: %w", err)
	}
	m.StartDBStatsCollector(manager.DB.DB, dbStatsInterval)

	return &app.Application{
		Config:        cfg,
		TransitConfig: transitCfg,
		Logger:        logger,
		Manager:       manager,
		Clock:         c,
		Metrics:       m,
	}, nil
}

// CreateServer builds the HTTP server and the API whose Shutdown must be called
// once the server has stopped.
func CreateServer(coreApp *app.Application, cfg appconf.Config) (*http.Server, *restapi.RestAPI) {
	api := restapi.NewRestAPI(coreApp)

	mux := http.NewServeMux()
	api.SetRoutes(mux)
	ui := &webui.WebUI{Application: coreApp}
	ui.SetWebUIRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.Handler(mux),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(coreApp.Logger.Handler(), slog.LevelError),
	}
	return srv, api
}

// Run serves until SIGINT or SIGTERM, then drains connections and stops background work.
func Run(srv *http.Server, coreApp *app.Application, api *restapi.RestAPI) error {
	logger := coreApp.Logger.With(slog.String("component", "server"))

	serverErr := make(chan error, 1)
	go func() {
		logging.LogOperation(logger, "starting_server",
			slog.String("addr", srv.Addr),
			slog.String("env", coreApp.Config.Env.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case err, ok := <-serverErr:
		if ok {
			runErr = fmt.Errorf("server failed: %w", err)
		}
	case sig := <-quit:
		logging.LogOperation(logger, "shutting_down_server", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.LogError(logger, "server shutdown failed", err)
		if runErr == nil {
			runErr = err
		}
	}

	api.Shutdown()
	coreApp.Metrics.Shutdown()
	coreApp.Manager.Shutdown()
	logging.LogOperation(logger, "server_stopped")
	return runErr
}

// ParseAPIKeys splits a comma separated key list. Blank entries are kept so the
// caller sees exactly what was configured.
func ParseAPIKeys(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		keys = append(keys, strings.TrimSpace(p))
	}
	return keys
}
