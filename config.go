package pixeltobin

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// Action is the scroll action attached to a text frame.
type Action uint8

const (
	ActionStay Action = iota
	ActionLeft
	ActionRight
	ActionUp
	ActionDown
)

// ParseAction parses the config.json form of an action.
func ParseAction(s string) (Action, error) {
	switch s {
	case "stay":
		return ActionStay, nil
	case "left":
		return ActionLeft, nil
	case "right":
		return ActionRight, nil
	case "up":
		return ActionUp, nil
	case "down":
		return ActionDown, nil
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

func (a Action) String() string {
	switch a {
	case ActionStay:
		return "stay"
	case ActionLeft:
		return "left"
	case ActionRight:
		return "right"
	case ActionUp:
		return "up"
	case ActionDown:
		return "down"
	}
	return fmt.Sprintf("action(%d)", uint8(a))
}

// SampleConfig is the validated form of a sample's config.json.
//
// ColorDepth (bits per channel) applies to pixel domains, SymbolSet to
// text domains; exactly one of the two must be present in the file.
// Duration and Action, when given, must have one entry per image asset.
type SampleConfig struct {
	Domain         Domain
	Width          int
	Height         int
	ColorDepth     int
	SymbolSet      []string
	EncoderVersion uint16

	Loop      int
	LoopDelay int // milliseconds of black frames appended per loop
	CountDown bool
	FPS       int
	Duration  []int // milliseconds per text frame
	Action    []Action
	Cluster   map[int][]int
}

// DefaultFPS is used when config.json does not declare a frame rate,
// matching the 0.2s-per-frame default of the board player.
const DefaultFPS = 5

const defaultTextDuration = 1000

type rawConfig struct {
	Domain         *string          `json:"domain"`
	Width          *int             `json:"width"`
	Height         *int             `json:"height"`
	ColorDepth     *int             `json:"colorDepth"`
	SymbolSet      []string         `json:"symbolSet"`
	EncoderVersion *int             `json:"encoderVersion"`
	Loop           *int             `json:"loop"`
	LoopDelay      *int             `json:"loopDelay"`
	CountDown      *bool            `json:"countDown"`
	FPS            *int             `json:"fps"`
	Duration       []int            `json:"duration"`
	Action         []string         `json:"action"`
	Cluster        map[string][]int `json:"cluster"`
}

// LoadConfig reads and validates a sample's config.json.
func LoadConfig(path string) (*SampleConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, wrap("config.load", KindConfig, path, err)
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		var pe *PipelineError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	return cfg, nil
}

// ParseConfig parses and validates a config.json document. Unknown fields
// and missing required fields are hard errors, never defaulted.
func ParseConfig(data []byte) (*SampleConfig, error) {
	const op = "config.parse"

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var raw rawConfig
	if err := dec.Decode(&raw); err != nil {
		return nil, wrap(op, KindConfig, "", err)
	}

	if raw.Domain == nil {
		return nil, errf(op, KindConfig, "missing required field %q", "domain")
	}
	if raw.Width == nil {
		return nil, errf(op, KindConfig, "missing required field %q", "width")
	}
	if raw.Height == nil {
		return nil, errf(op, KindConfig, "missing required field %q", "height")
	}
	if raw.EncoderVersion == nil {
		return nil, errf(op, KindConfig, "missing required field %q", "encoderVersion")
	}

	domain, err := ParseDomain(*raw.Domain)
	if err != nil {
		return nil, wrap(op, KindConfig, "", err)
	}

	cfg := &SampleConfig{
		Domain: domain,
		Width:  *raw.Width,
		Height: *raw.Height,
		Loop:   1,
		FPS:    DefaultFPS,
	}

	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errf(op, KindConfig, "dimensions must be positive, got %dx%d", cfg.Width, cfg.Height)
	}
	if *raw.EncoderVersion < 1 || *raw.EncoderVersion > 0xFFFF {
		return nil, errf(op, KindConfig, "encoderVersion %d out of range", *raw.EncoderVersion)
	}
	cfg.EncoderVersion = uint16(*raw.EncoderVersion)

	if domain.Text() {
		if raw.ColorDepth != nil {
			return nil, errf(op, KindConfig, "colorDepth is not valid for domain %s", domain)
		}
		if len(raw.SymbolSet) == 0 {
			return nil, errf(op, KindConfig, "missing required field %q", "symbolSet")
		}
		if len(raw.SymbolSet) > 0xFFFF {
			return nil, errf(op, KindConfig, "symbolSet has %d symbols, limit is 65535", len(raw.SymbolSet))
		}
		seen := make(map[string]bool, len(raw.SymbolSet))
		for _, sym := range raw.SymbolSet {
			if sym == "" {
				return nil, errf(op, KindConfig, "symbolSet contains an empty symbol")
			}
			if len(sym) > 0xFF {
				return nil, errf(op, KindConfig, "symbol %q exceeds 255 bytes", sym)
			}
			if seen[sym] {
				return nil, errf(op, KindConfig, "symbolSet contains duplicate symbol %q", sym)
			}
			seen[sym] = true
		}
		cfg.SymbolSet = raw.SymbolSet
	} else {
		if raw.SymbolSet != nil {
			return nil, errf(op, KindConfig, "symbolSet is not valid for domain %s", domain)
		}
		if raw.ColorDepth == nil {
			return nil, errf(op, KindConfig, "missing required field %q", "colorDepth")
		}
		cfg.ColorDepth = *raw.ColorDepth
		if cfg.ColorDepth != 1 && cfg.ColorDepth != 8 {
			return nil, errf(op, KindConfig, "unsupported colorDepth %d (want 1 or 8)", cfg.ColorDepth)
		}
	}

	if raw.Loop != nil {
		cfg.Loop = *raw.Loop
	}
	if raw.LoopDelay != nil {
		if *raw.LoopDelay < 0 {
			return nil, errf(op, KindConfig, "loopDelay must not be negative")
		}
		cfg.LoopDelay = *raw.LoopDelay
	}
	if raw.CountDown != nil {
		cfg.CountDown = *raw.CountDown
	}
	if raw.FPS != nil {
		if *raw.FPS < 1 {
			return nil, errf(op, KindConfig, "fps must be at least 1")
		}
		cfg.FPS = *raw.FPS
	}

	if raw.Duration != nil {
		if !domain.Text() {
			return nil, errf(op, KindConfig, "duration is not valid for domain %s", domain)
		}
		for _, d := range raw.Duration {
			if d <= 0 {
				return nil, errf(op, KindConfig, "duration entries must be positive")
			}
		}
		cfg.Duration = raw.Duration
	}
	if raw.Action != nil {
		if !domain.Text() {
			return nil, errf(op, KindConfig, "action is not valid for domain %s", domain)
		}
		cfg.Action = make([]Action, len(raw.Action))
		for i, s := range raw.Action {
			a, err := ParseAction(s)
			if err != nil {
				return nil, wrap(op, KindConfig, "", err)
			}
			cfg.Action[i] = a
		}
	}

	if raw.Cluster != nil {
		if domain.Text() {
			return nil, errf(op, KindConfig, "cluster is not valid for domain %s", domain)
		}
		cfg.Cluster = make(map[int][]int, len(raw.Cluster))
		for key, cells := range raw.Cluster {
			id, err := strconv.Atoi(key)
			if err != nil {
				return nil, errf(op, KindConfig, "cluster key %q is not an integer", key)
			}
			cfg.Cluster[id] = cells
		}
	}

	return cfg, nil
}

// ClusterIDs returns the cluster identifiers in ascending order.
func (c *SampleConfig) ClusterIDs() []int {
	ids := make([]int, 0, len(c.Cluster))
	for id := range c.Cluster {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// frameDuration returns the duration for text frame i, defaulted when the
// config omits the list.
func (c *SampleConfig) frameDuration(i int) int {
	if i < len(c.Duration) {
		return c.Duration[i]
	}
	return defaultTextDuration
}

func (c *SampleConfig) frameAction(i int) Action {
	if i < len(c.Action) {
		return c.Action[i]
	}
	return ActionStay
}
