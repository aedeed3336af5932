package main

import (
	"context"
	"errors"
	"sync/atomic"

	"padsim/internal/config"
)

// Supervisor applies configuration updates. Tuning changes take
// effect live through an atomic snapshot; enable and device changes
// restart the translation loop. At most one loop runs at a time: the
// previous one is always stopped and joined before a new one starts.
type Supervisor struct {
	Emit Emitter

	tuning atomic.Pointer[Tuning]

	// start launches a translation loop. Replaced in tests.
	start func(ctx context.Context, c config.Config) *loop

	enabled bool
	device  string
	current *loop
}

// loop is a handle to one running translation loop.
type loop struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (l *loop) stop() {
	l.cancel()
	<-l.done
}

func NewSupervisor(emit Emitter) *Supervisor {
	s := Supervisor{Emit: emit}
	s.tuning.Store(&Tuning{Sensitivity: 1, Haptics: true})
	s.start = s.startTranslator
	return &s
}

func (s *Supervisor) Run(ctx context.Context, updates <-chan config.Config) error {
	defer s.stopCurrent(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c := <-updates:
			s.apply(ctx, c)
		}
	}
}

func (s *Supervisor) apply(ctx context.Context, c config.Config) {
	s.tuning.Store(&Tuning{
		Sensitivity:  c.Sensitivity,
		Haptics:      c.Haptics,
		DebugBorders: c.DebugBorders,
	})

	if (c.Enable == s.enabled) && (c.Device == s.device) {
		return
	}
	s.enabled, s.device = c.Enable, c.Device

	s.stopCurrent(ctx)
	if s.enabled {
		Logger(ctx).Info("starting translation", "device", c.Device)
		s.current = s.start(ctx, c)
	}
}

func (s *Supervisor) stopCurrent(ctx context.Context) {
	if s.current == nil {
		return
	}

	Logger(ctx).Info("stopping translation", "device", s.device)
	s.current.stop()
	s.current = nil
}

func (s *Supervisor) startTranslator(ctx context.Context, c config.Config) *loop {
	ctx, cancel := context.WithCancel(ctx)
	l := loop{cancel: cancel, done: make(chan struct{})}

	tr := Translator{
		Device: c.Device,
		Width:  c.ScreenWidth,
		Height: c.ScreenHeight,
		Tuning: &s.tuning,
		Emit:   s.Emit,
		Retry:  c.Retry,
	}

	go func() {
		defer close(l.done)

		err := tr.Run(ctx)
		if (err != nil) && !errors.Is(err, context.Canceled) {
			Logger(ctx).Error("translation failed", slogErr(err))
		}
	}()

	return &l
}
