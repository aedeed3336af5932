package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"sync/atomic"
	"time"

	"deedles.dev/xiter"
	"golang.org/x/sys/unix"

	"padsim/internal/evdev"
)

// The virtual pad identifies itself as a Steam Deck controller so
// that consumers pick it up like the real thing.
const (
	padVendor  = 0x28de
	padProduct = 0x1142
	padName    = "padsim virtual pad"
)

const hapticPulse = 50 * time.Millisecond

// Tuning is the part of the configuration the translator reads live.
// A fresh snapshot is published atomically on every config update, so
// the loop never sees a half-applied change.
type Tuning struct {
	Sensitivity  float64
	Haptics      bool
	DebugBorders bool
}

type side uint8

const (
	noSide side = iota
	sideLeft
	sideRight
)

func (s side) String() string {
	switch s {
	case sideLeft:
		return "left"
	case sideRight:
		return "right"
	default:
		return "none"
	}
}

// resolveSide maps a touch X coordinate to the screen half it falls
// in. The split is strict: the midpoint itself is the right half.
func resolveSide(x int32, width int) side {
	if int(x) < width/2 {
		return sideLeft
	}
	return sideRight
}

// touchState tracks the single touch the translator follows. lastX
// and lastY are the coordinates at the previous frame while touching;
// deltas are computed against them so motion is never double-counted.
type touchState struct {
	touching     side
	x, y         int32
	lastX, lastY int32
}

// outputDevice is where synthesized motion goes. Satisfied by
// *evdev.Uinput.
type outputDevice interface {
	WriteEvent(t, code uint16, value int32) error
	Sync() error
	Close() error
}

// Translator reads raw touch events from one touchpad device and
// replays them as relative motion on a virtual pad.
type Translator struct {
	Device        string
	Width, Height int
	Tuning        *atomic.Pointer[Tuning]
	Emit          Emitter
	Retry         time.Duration
}

func (tr *Translator) Run(ctx context.Context) error {
	logger := Logger(ctx).With("device", tr.Device)
	ctx = WithLogger(ctx, logger)

	for {
		retry, err := tr.translate(ctx)
		if (tr.Retry <= 0) || !retry {
			return err
		}

		logger.Info("waiting before reattaching", "duration", tr.Retry, slogErr(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(tr.Retry):
		}
	}
}

func (tr *Translator) translate(ctx context.Context) (retry bool, err error) {
	logger := Logger(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d, err := evdev.Open(tr.Device)
	if err != nil {
		if isTemporary(err) || errors.Is(err, fs.ErrNotExist) {
			return true, err
		}

		logger.Warn("ignoring device", "reason", "failed to open", slogErr(err))
		return false, nil
	}
	defer d.Close()

	go func() {
		<-ctx.Done()
		d.Close()
	}()

	logger.Info(
		"initialized device",
		"name", d.Name,
		"bus", d.ID.BusType,
		"vendor", d.ID.Vendor,
		"product", d.ID.Product,
	)

	if !d.HasEventCode(evdev.EvKey, evdev.BtnTouch) {
		logger.Warn("ignoring device", "reason", "does not report touches")
		return false, nil
	}
	if info, err := d.AbsInfo(evdev.AbsX); err == nil {
		logger.Debug("touch axis range", "min", info.Minimum, "max", info.Maximum)
	}

	out, err := evdev.Create(padConfig())
	if err != nil {
		logger.Error("create virtual pad", slogErr(err))
		return false, nil
	}

	var streamErr error
	events := func(yield func(evdev.InputEvent) bool) {
		for {
			ev, err := d.NextEvent()
			if err != nil {
				switch {
				case ctx.Err() != nil:
				case errors.Is(err, fs.ErrClosed):
					logger.Warn("device closed while reading")
				case isGone(err):
					logger.Warn("device disappeared while reading", slogErr(err))
					streamErr = err
				case isTemporary(err):
					streamErr = err
				default:
					logger.Warn("read event", slogErr(err))
					continue
				}
				return
			}

			if !yield(ev) {
				return
			}
		}
	}

	tr.run(ctx, xiter.Filter(events, relevant), out)
	return streamErr != nil, streamErr
}

// relevant keeps only the events the state machine consumes: the X
// and Y axes, the touch button, and frame markers. Touchpads emit
// plenty else.
func relevant(ev evdev.InputEvent) bool {
	switch ev.Type {
	case evdev.EvAbs:
		return (ev.Code == evdev.AbsX) || (ev.Code == evdev.AbsY)
	case evdev.EvKey:
		return ev.Code == evdev.BtnTouch
	case evdev.EvSyn:
		return true
	default:
		return false
	}
}

// run drives the touch state machine over an event stream. It owns
// out and closes it exactly once, on every exit path. Cancellation is
// observed once per event, before the event is processed.
func (tr *Translator) run(ctx context.Context, events iter.Seq[evdev.InputEvent], out outputDevice) {
	logger := Logger(ctx)
	defer func() {
		if err := out.Close(); err != nil {
			logger.Warn("close virtual pad", slogErr(err))
		}
		logger.Info("translation stopped")
	}()

	var st touchState
	for ev := range events {
		if ctx.Err() != nil {
			return
		}

		switch ev.Type {
		case evdev.EvAbs:
			switch ev.Code {
			case evdev.AbsX:
				st.x = ev.Value
			case evdev.AbsY:
				st.y = ev.Value
			}

		case evdev.EvKey:
			switch {
			case (ev.Value == 1) && (st.touching == noSide):
				tr.startTouch(ctx, &st)
			case (ev.Value == 0) && (st.touching != noSide):
				tr.endTouch(ctx, &st)
			}

		case evdev.EvSyn:
			if st.touching == noSide {
				continue
			}
			tr.frame(ctx, &st, out)
		}
	}
}

// startTouch begins tracking. The side is resolved from the X
// coordinate as it stands right now, not from any later sample.
func (tr *Translator) startTouch(ctx context.Context, st *touchState) {
	st.touching = resolveSide(st.x, tr.Width)
	st.lastX, st.lastY = st.x, st.y

	tun := tr.Tuning.Load()
	if tun.Haptics {
		tr.emit(ctx, rumble(0.6, 0.6))
		// The pause is deliberate. The pulse has a fixed length, and
		// events arriving meanwhile stay queued on the device.
		time.Sleep(hapticPulse)
		tr.emit(ctx, rumble(0, 0))
	}
	if tun.DebugBorders {
		tr.emit(ctx, tr.overlay(st.touching))
	}

	Logger(ctx).Debug("touch started", "side", st.touching)
}

func (tr *Translator) endTouch(ctx context.Context, st *touchState) {
	if tr.Tuning.Load().DebugBorders {
		tr.emit(ctx, overlayRemove(st.touching))
	}

	Logger(ctx).Debug("touch ended", "side", st.touching)
	st.touching = noSide
}

// frame flushes one device frame: scaled deltas for whichever axes
// moved, then a sync marker. The marker goes out even when nothing
// moved, so consumers see a steady frame cadence.
func (tr *Translator) frame(ctx context.Context, st *touchState, out outputDevice) {
	logger := Logger(ctx)
	sens := tr.Tuning.Load().Sensitivity

	dx := int32(float64(st.x-st.lastX) * sens)
	dy := int32(float64(st.y-st.lastY) * sens)

	if dx != 0 {
		if err := out.WriteEvent(evdev.EvRel, evdev.RelX, dx); err != nil {
			logger.Warn("write relative motion", slogErr(err))
		}
	}
	if dy != 0 {
		if err := out.WriteEvent(evdev.EvRel, evdev.RelY, dy); err != nil {
			logger.Warn("write relative motion", slogErr(err))
		}
	}
	if err := out.Sync(); err != nil {
		logger.Warn("write sync", slogErr(err))
	}

	st.lastX, st.lastY = st.x, st.y
}

func (tr *Translator) emit(ctx context.Context, cmd any) {
	if err := tr.Emit.Emit(cmd); err != nil {
		Logger(ctx).Warn("emit command", slogErr(err))
	}
}

func (tr *Translator) overlay(s side) OverlayCommand {
	var x int
	if s == sideRight {
		x = tr.Width / 2
	}

	return OverlayCommand{
		Type:       "overlay",
		ID:         overlayID(s),
		X:          x,
		Y:          0,
		Width:      tr.Width / 2,
		Height:     tr.Height,
		Color:      [4]uint8{255, 0, 0, 100},
		BorderSize: 5,
	}
}

func overlayID(s side) string {
	return fmt.Sprintf("debug-%v", s)
}

func overlayRemove(s side) OverlayRemoveCommand {
	return OverlayRemoveCommand{Type: "overlay", ID: overlayID(s), Remove: true}
}

func padConfig() evdev.UinputConfig {
	axis := evdev.AbsInfo{Minimum: -32768, Maximum: 32767, Fuzz: 16, Flat: 128}

	return evdev.UinputConfig{
		Name: padName,
		ID: evdev.InputID{
			BusType: evdev.BusVirtual,
			Vendor:  padVendor,
			Product: padProduct,
			Version: 1,
		},
		Keys: []uint16{evdev.BtnA, evdev.BtnB, evdev.BtnLeft},
		Rel:  []uint16{evdev.RelX, evdev.RelY},
		Abs: []evdev.AbsAxis{
			{Code: evdev.AbsX, Info: axis},
			{Code: evdev.AbsY, Info: axis},
		},
		FF:           []uint16{evdev.FFRumble},
		FFEffectsMax: 16,
	}
}

func isTemporary(err error) bool {
	var errno unix.Errno
	return errors.As(err, &errno) && errno.Temporary()
}

// isGone reports whether a read failed because the device itself went
// away, which ends the stream rather than being skipped.
func isGone(err error) bool {
	return errors.Is(err, unix.ENODEV) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}
