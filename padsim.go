package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"golang.org/x/sync/errgroup"

	"padsim/internal/config"
	"padsim/internal/glossy"
)

func run(ctx context.Context) error {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %v [options]\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Options:")
		flag.PrintDefaults()
	}

	defaultConfig, err := config.DefaultPath()
	if err != nil {
		defaultConfig = ""
	}
	configPath := flag.String("config", defaultConfig, "configuration file to load and watch")
	sink := flag.String("sink", "", "write haptic and overlay commands as JSON lines to this path")
	debug := flag.Bool("debug", false, "enable debug logging")
	journald := flag.Bool("journal", os.Getenv("JOURNAL_STREAM") != "", "log to the systemd journal")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(glossy.Handler{Level: level, UseJournal: *journald})
	slog.SetDefault(logger)
	ctx = WithLogger(ctx, logger)

	var emitter Emitter = logEmitter{logger: logger}
	if *sink != "" {
		f, err := os.OpenFile(*sink, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open sink: %w", err)
		}
		defer f.Close()
		emitter = newJSONEmitter(f)
	}

	updates := make(chan config.Config)
	sup := NewSupervisor(emitter)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return Reloader{Path: *configPath, Updates: updates}.Run(ctx) })
	eg.Go(func() error { return sup.Run(ctx, updates) })

	err = eg.Wait()
	if (err != nil) && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	err := run(ctx)
	if err != nil {
		slog.Error("fatal", slogErr(err))
		os.Exit(1)
	}
}
