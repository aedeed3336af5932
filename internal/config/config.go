// Package config loads the padsim configuration file, a plain text
// file with one directive per line.
package config

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

//go:embed default
var defaultFile string

// Config is the runtime configuration. A new value is produced on
// every reload; running components receive it wholesale and never see
// partial updates.
type Config struct {
	Enable       bool
	Device       string
	Sensitivity  float64
	Haptics      bool
	DebugBorders bool
	ScreenWidth  int
	ScreenHeight int
	Retry        time.Duration
}

// Default returns the configuration used when a directive is absent.
func Default() Config {
	return Config{
		Device:       "/dev/input/event5",
		Sensitivity:  1,
		Haptics:      true,
		ScreenWidth:  1920,
		ScreenHeight: 1080,
	}
}

func DefaultFile() string {
	return defaultFile
}

func DefaultPath() (string, error) {
	c, err := os.UserConfigDir()
	return filepath.Join(c, "padsim", "config"), err
}

func Load(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	return Parse(file)
}

func Parse(r io.Reader) (Config, error) {
	c := Default()
	seen := make(map[string]bool)

	var num int
	s := bufio.NewScanner(r)
	for s.Scan() {
		num++

		line := strings.TrimSpace(s.Text())
		if (len(line) == 0) || (line[0] == '#') {
			continue
		}

		directive, rem, _ := strings.Cut(line, " ")
		if seen[directive] {
			return c, fmt.Errorf("line %v: attempted to set %v twice", num, directive)
		}
		seen[directive] = true

		var err error
		switch directive {
		case "enable":
			c.Enable, err = parseBool(rem)
		case "device":
			err = c.device(rem)
		case "sensitivity":
			err = c.sensitivity(rem)
		case "haptics":
			c.Haptics, err = parseBool(rem)
		case "debug-borders":
			c.DebugBorders, err = parseBool(rem)
		case "screen-width":
			c.ScreenWidth, err = parseDimension(rem)
		case "screen-height":
			c.ScreenHeight, err = parseDimension(rem)
		case "retry":
			err = c.retry(rem)
		default:
			return c, fmt.Errorf("unknown directive %q on line %v", directive, num)
		}
		if err != nil {
			return c, fmt.Errorf("line %v: %w", num, err)
		}
	}
	if err := s.Err(); err != nil {
		return c, fmt.Errorf("scan: %w", err)
	}

	return c, nil
}

func (c *Config) device(str string) error {
	str = strings.TrimSpace(str)
	if str == "" {
		return fmt.Errorf("device requires a path")
	}
	c.Device = str
	return nil
}

func (c *Config) sensitivity(str string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil {
		return fmt.Errorf("parse sensitivity: %w", err)
	}
	if v <= 0 {
		return fmt.Errorf("sensitivity must be positive, got %v", v)
	}
	c.Sensitivity = v
	return nil
}

func (c *Config) retry(str string) error {
	r, err := time.ParseDuration(strings.TrimSpace(str))
	if err != nil {
		return fmt.Errorf("parse retry: %w", err)
	}
	if r < 0 {
		return fmt.Errorf("retry must not be negative, got %v", r)
	}
	c.Retry = r
	return nil
}

func parseBool(str string) (bool, error) {
	v, err := strconv.ParseBool(strings.TrimSpace(str))
	if err != nil {
		return false, fmt.Errorf("parse bool: %w", err)
	}
	return v, nil
}

func parseDimension(str string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(str))
	if err != nil {
		return 0, fmt.Errorf("parse dimension: %w", err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("dimension must be positive, got %v", v)
	}
	return v, nil
}
