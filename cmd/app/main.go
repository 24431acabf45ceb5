package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"courierdesk/cmd"
	httpin "courierdesk/internal/adapters/in/http"
	"courierdesk/internal/pkg/logging"

	"github.com/labstack/gommon/log"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configs := cmd.LoadConfig()

	logger, syncLogger, err := logging.New(logging.Options{
		Level:     configs.LogLevel,
		Format:    configs.LogFormat,
		Namespace: "courierdesk",
	})
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = syncLogger() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cmd.NewCompositionRoot(ctx, configs, logger)
	if err != nil {
		logger.Error("failed to build application", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil {
			logger.Error("failed to release resources", "error", closeErr)
		}
	}()

	if err = app.JobManager().StartAll(ctx); err != nil {
		logger.Error("failed to start jobs", "error", err)
		return
	}
	defer app.JobManager().StopAll()

	if err = startWebServer(ctx, app, configs.HTTPPort); err != nil {
		logger.Error("web server stopped", "error", err)
	}
}

// startWebServer serves until ctx is cancelled, then drains open requests.
func startWebServer(ctx context.Context, app *cmd.CompositionRoot, port string) error {
	// Event streams end with ctx so that they do not hold up Shutdown.
	server := app.NewServer().WithStreamContext(ctx)
	e, err := httpin.NewRouter(server, app.Verifier(), app.Logger())
	if err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- e.Start(fmt.Sprintf("0.0.0.0:%s", port))
	}()

	select {
	case err = <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
