package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
)

// Emitter is the sink for side-effect commands produced by the
// translator. Implementations must be safe for use from the
// translation goroutine.
type Emitter interface {
	Emit(cmd any) error
}

// RumbleCommand drives the haptic motors. Magnitudes are in [0, 1];
// zero magnitudes stop the rumble.
type RumbleCommand struct {
	Type            string  `json:"type"`
	Code            string  `json:"code"`
	StrongMagnitude float64 `json:"strong_magnitude"`
	WeakMagnitude   float64 `json:"weak_magnitude"`
}

func rumble(strong, weak float64) RumbleCommand {
	return RumbleCommand{
		Type:            "rumble",
		Code:            "main",
		StrongMagnitude: strong,
		WeakMagnitude:   weak,
	}
}

// OverlayCommand shows a rectangle on screen. Color is RGBA.
type OverlayCommand struct {
	Type       string   `json:"type"`
	ID         string   `json:"id"`
	X          int      `json:"x"`
	Y          int      `json:"y"`
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	Color      [4]uint8 `json:"color"`
	BorderSize int      `json:"border_size"`
}

// OverlayRemoveCommand hides the overlay previously shown with the
// same ID.
type OverlayRemoveCommand struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Remove bool   `json:"remove"`
}

// jsonEmitter writes commands to a stream as JSON lines.
type jsonEmitter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func newJSONEmitter(w io.Writer) *jsonEmitter {
	return &jsonEmitter{enc: json.NewEncoder(w)}
}

func (e *jsonEmitter) Emit(cmd any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enc.Encode(cmd)
}

// logEmitter records commands to the debug log. Used when no sink is
// configured.
type logEmitter struct {
	logger *slog.Logger
}

func (e logEmitter) Emit(cmd any) error {
	e.logger.Debug("side-effect command", "cmd", cmd)
	return nil
}
