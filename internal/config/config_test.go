package config_test

import (
	"strings"
	"testing"
	"time"

	"padsim/internal/config"
)

func TestParseDefaults(t *testing.T) {
	c, err := config.Parse(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if c != config.Default() {
		t.Errorf("empty input should yield defaults, got %+v", c)
	}

	d := config.Default()
	if d.Enable {
		t.Error("enable should default to off")
	}
	if d.Device != "/dev/input/event5" {
		t.Errorf("default device = %q", d.Device)
	}
	if d.Sensitivity != 1 {
		t.Errorf("default sensitivity = %v", d.Sensitivity)
	}
	if !d.Haptics {
		t.Error("haptics should default to on")
	}
	if d.DebugBorders {
		t.Error("debug borders should default to off")
	}
	if d.ScreenWidth != 1920 || d.ScreenHeight != 1080 {
		t.Errorf("default screen = %vx%v", d.ScreenWidth, d.ScreenHeight)
	}
	if d.Retry != 0 {
		t.Errorf("default retry = %v", d.Retry)
	}
}

func TestParse(t *testing.T) {
	in := `# comment
enable true
device /dev/input/by-path/platform-touchpad

sensitivity 2.5
haptics false
debug-borders true
screen-width 2560
screen-height 1440
retry 5s
`
	c, err := config.Parse(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}

	want := config.Config{
		Enable:       true,
		Device:       "/dev/input/by-path/platform-touchpad",
		Sensitivity:  2.5,
		Haptics:      false,
		DebugBorders: true,
		ScreenWidth:  2560,
		ScreenHeight: 1440,
		Retry:        5 * time.Second,
	}
	if c != want {
		t.Errorf("parsed config = %+v, want %+v", c, want)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"unknown directive", "bogus 1\n"},
		{"duplicate directive", "sensitivity 1.5\nsensitivity 2\n"},
		{"bad bool", "enable maybe\n"},
		{"bad sensitivity", "sensitivity fast\n"},
		{"negative sensitivity", "sensitivity -1\n"},
		{"zero width", "screen-width 0\n"},
		{"empty device", "device \n"},
		{"negative retry", "retry -2s\n"},
		{"bad retry", "retry soon\n"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := config.Parse(strings.NewReader(test.in))
			if err == nil {
				t.Errorf("Parse(%q) should have failed", test.in)
			}
		})
	}
}

func TestDefaultFileParses(t *testing.T) {
	c, err := config.Parse(strings.NewReader(config.DefaultFile()))
	if err != nil {
		t.Fatal(err)
	}
	if c != config.Default() {
		t.Errorf("default file should be all comments, got %+v", c)
	}
}
