package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"padsim/internal/config"
)

func TestReloaderPublishesInitialAndChanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")
	if err := os.WriteFile(path, []byte("sensitivity 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan config.Config, 1)
	errc := make(chan error, 1)
	go func() { errc <- Reloader{Path: path, Updates: updates}.Run(ctx) }()

	c := waitForUpdate(t, updates, errc)
	if c.Sensitivity != 2 {
		t.Errorf("initial sensitivity = %v, want 2", c.Sensitivity)
	}

	if err := os.WriteFile(path, []byte("sensitivity 3\nenable true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c = waitForUpdate(t, updates, errc)
	if c.Sensitivity != 3 || !c.Enable {
		t.Errorf("reloaded config = %+v", c)
	}
}

func TestReloaderMissingFileMeansDefaults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan config.Config, 1)
	errc := make(chan error, 1)
	path := filepath.Join(t.TempDir(), "config")
	go func() { errc <- Reloader{Path: path, Updates: updates}.Run(ctx) }()

	c := waitForUpdate(t, updates, errc)
	if c != config.Default() {
		t.Errorf("got %+v, want defaults", c)
	}
}

func TestReloaderKeepsOldConfigOnParseError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")
	if err := os.WriteFile(path, []byte("sensitivity 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan config.Config, 1)
	errc := make(chan error, 1)
	go func() { errc <- Reloader{Path: path, Updates: updates}.Run(ctx) }()

	waitForUpdate(t, updates, errc)

	if err := os.WriteFile(path, []byte("sensitivity broken\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	// The broken file must not produce an update.
	select {
	case c := <-updates:
		t.Errorf("unexpected update from broken config: %+v", c)
	case err := <-errc:
		t.Errorf("reloader exited: %v", err)
	case <-time.After(500 * time.Millisecond):
	}
}

func waitForUpdate(t *testing.T, updates <-chan config.Config, errc <-chan error) config.Config {
	t.Helper()

	select {
	case c := <-updates:
		return c
	case err := <-errc:
		t.Fatalf("reloader exited: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config update")
	}
	panic("unreachable")
}
