package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/jrsteele09/go-nagbot/internal/app"
	"github.com/jrsteele09/go-nagbot/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("Failed to load .env")
	}

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New()
	if err != nil {
		return err
	}
	configureLogging(c.IsDev())
	displayAppname(c.GetAppName())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, c)
	if err != nil {
		return err
	}
	defer a.Close()

	server := &http.Server{
		Addr:              c.GetPort(),
		Handler:           a.Server,
		ReadHeaderTimeout: 5 * time.Second,
	}
	serverErrs := make(chan error, 1)
	go func() { serverErrs <- listenAndServe(server) }()
	go func() {
		if err := a.Scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Err(err).Msg("Nag scheduler exited")
		}
	}()

	select {
	case <-waitForStopSignal():
	case returnError = <-serverErrs:
	}
	if err := shutdown(server, a); err != nil && returnError == nil {
		returnError = err
	}
	return returnError
}

func configureLogging(dev bool) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if dev {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

// shutdown stops accepting requests, then lets an in-flight nag pass reach a safe point
func shutdown(server *http.Server, a *app.App) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("server.Shutdown: %w", err))
	}
	if err := a.Scheduler.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
