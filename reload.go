package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"padsim/internal/config"
)

const reloadDebounce = 100 * time.Millisecond

// Reloader loads the configuration, publishes it, and republishes it
// whenever the file changes on disk. A missing file means defaults; a
// file that fails to parse leaves the previous configuration live.
type Reloader struct {
	Path    string
	Updates chan<- config.Config
}

func (r Reloader) Run(ctx context.Context) error {
	logger := Logger(ctx).With("config", r.Path)
	ctx = WithLogger(ctx, logger)

	c, err := config.Load(r.Path)
	switch {
	case (r.Path == "") || errors.Is(err, fs.ErrNotExist):
		logger.Info("no config file, using defaults")
		c = config.Default()
	case err != nil:
		return fmt.Errorf("load config: %w", err)
	}
	if err := r.send(ctx, c); err != nil {
		return err
	}

	if r.Path == "" {
		<-ctx.Done()
		return ctx.Err()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	// Watch the directory, not the file: editors tend to replace the
	// file, which drops a watch on the file itself.
	if err := w.Add(filepath.Dir(r.Path)); err != nil {
		return fmt.Errorf("watch config directory: %w", err)
	}

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.Events:
			if !ok {
				return errors.New("config watcher closed")
			}
			if filepath.Clean(ev.Name) != filepath.Clean(r.Path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			pending = time.After(reloadDebounce)

		case err, ok := <-w.Errors:
			if !ok {
				return errors.New("config watcher closed")
			}
			logger.Warn("watch config", slogErr(err))

		case <-pending:
			pending = nil

			c, err := config.Load(r.Path)
			if err != nil {
				logger.Warn("reload config", slogErr(err))
				continue
			}

			logger.Info("configuration reloaded")
			if err := r.send(ctx, c); err != nil {
				return err
			}
		}
	}
}

func (r Reloader) send(ctx context.Context, c config.Config) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case r.Updates <- c:
		return nil
	}
}
