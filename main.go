package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/breml/rootcerts"
	"github.com/qdm12/gosplash"
	"github.com/qdm12/log"

	"github.com/akl7777777/ippure-info/internal/config"
	"github.com/akl7777777/ippure-info/internal/enrich"
	"github.com/akl7777777/ippure-info/internal/ippure"
	"github.com/akl7777777/ippure-info/internal/notify"
	"github.com/akl7777777/ippure-info/internal/output"
	"github.com/akl7777777/ippure-info/internal/panel"
	"github.com/akl7777777/ippure-info/internal/server"
)

//nolint:gochecknoglobals
var (
	version = "unknown"
	commit  = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Environ(), os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args, environ []string, stdout, stderr io.Writer) error {
	command := "run"
	if len(args) > 0 {
		switch args[0] {
		case "help", "-h", "--help":
			printUsage(stdout)
			return nil
		case "run", "serve":
			command = args[0]
			args = args[1:]
		}
	}

	flagSet := flag.NewFlagSet(command, flag.ContinueOnError)
	flagSet.SetOutput(stderr)
	configPath := flagSet.String("config", "", "Path to a YAML settings file")
	argument := flagSet.String("argument", "", "Run options as KEY=VALUE&KEY=VALUE")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	settings, err := config.Load(config.FindFile(*configPath), environ)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	level, _ := config.ParseLogLevel(settings.LogLevel) // validated by Load
	logger := log.New(log.SetLevel(level), log.SetWriters(stderr))
	logger.Debug(settings.String())

	notifier, err := newNotifier(settings.Notify.URLs, logger)
	if err != nil {
		return err
	}

	var enricher panel.Enricher
	if localDB := enrich.NewLocalDB(settings.Enrich.MMDBPath, logger); localDB != nil {
		defer localDB.Close()
		enricher = localDB
	}

	client := ippure.New(&http.Client{}, settings.Endpoint, settings.UserAgent, logger)
	runner := panel.New(client, notifier, enricher, logger)

	if command == "serve" {
		return serve(ctx, runner, settings, logger, stdout)
	}

	rawArgument := *argument
	if rawArgument == "" && flagSet.NArg() > 0 {
		rawArgument = flagSet.Arg(0)
	}
	if rawArgument == "" {
		rawArgument = settings.Argument
	}
	return runner.Run(ctx, rawArgument, output.NewJSON(stdout))
}

func newNotifier(urls []string, logger *log.Logger) (panel.Notifier, error) { //nolint:ireturn
	if len(urls) == 0 {
		return notify.NewLog(logger), nil
	}
	notifier, err := notify.NewShoutrrr(urls)
	if err != nil {
		return nil, fmt.Errorf("setting up notifications: %w", err)
	}
	return notifier, nil
}

func serve(ctx context.Context, runner *panel.Runner, settings config.Settings,
	logger *log.Logger, stdout io.Writer,
) error {
	splashSettings := gosplash.Settings{
		User:       "akl7777777",
		Repository: "ippure-info",
		Version:    version,
		Commit:     commit,
	}
	for _, line := range gosplash.MakeLines(splashSettings) {
		fmt.Fprintln(stdout, line)
	}

	handler := server.New(runner, settings.Server.AuthKey, *settings.Server.RateLimit, logger)
	httpServer := &http.Server{
		Addr:              settings.Server.ListenAddress,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("[main] IPPure panel server listening on " + settings.Server.ListenAddress)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("[main] shutting down...")
	const shutdownTimeout = 5 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	logger.Info("[main] server stopped")
	return nil
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: ippure [run|serve] [-config path] [-argument options] [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run        Query IPPure once and print the panel result as JSON (default)")
	fmt.Fprintln(w, "  serve      Serve panel results over HTTP at /api/v1/panel?argument=...")
	fmt.Fprintln(w, "  help       Show this help")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options: TYPE=PANEL|EVENT FLAG ASN ORG RISK RESIDENTIAL GEO (0 disables)")
	fmt.Fprintln(w, "         MASK=1 TIMEOUT=10 ICON=globe.asia.australia ICON_COLOR=#6699FF EVENT_DELAY=3")
}
