package magicpages

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/golobby/cast"
	"gopkg.in/yaml.v3"

	"github.com/GoCodeAlone/magicpages/feeders"
)

// EnvPrefix prefixes every environment override, e.g. MAGICPAGES_ASSETS_PATH.
const EnvPrefix = "MAGICPAGES"

// Toggle is an opt-out switch. It is on unless explicitly set to boolean
// false or integer zero; an absent value and any other value leave it on.
type Toggle struct {
	off bool
}

// On and Off are the two toggle states.
var (
	On  = Toggle{}
	Off = Toggle{off: true}
)

// ToggleOf interprets a decoded configuration value.
func ToggleOf(v any) Toggle {
	switch x := v.(type) {
	case bool:
		return Toggle{off: !x}
	case int:
		return Toggle{off: x == 0}
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return Toggle{off: reflect.ValueOf(x).IsZero()}
	case float64:
		// JSON numbers decode as float64; only an integral zero counts.
		return Toggle{off: x == 0 && math.Trunc(x) == x}
	}
	return On
}

// Enabled reports whether the switch is on.
func (t Toggle) Enabled() bool { return !t.off }

func (t Toggle) String() string {
	if t.off {
		return "off"
	}
	return "on"
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *Toggle) UnmarshalYAML(node *yaml.Node) error {
	var v any
	if err := node.Decode(&v); err != nil {
		return err
	}
	*t = ToggleOf(v)
	return nil
}

// UnmarshalTOML implements toml.Unmarshaler.
func (t *Toggle) UnmarshalTOML(v any) error {
	*t = ToggleOf(v)
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Toggle) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*t = ToggleOf(v)
	return nil
}

// UnmarshalText reads environment text. "false" and "0" switch off.
func (t *Toggle) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if v, err := cast.FromType(s, reflect.TypeFor[int]()); err == nil {
		*t = ToggleOf(v)
		return nil
	}
	if v, err := cast.FromType(s, reflect.TypeFor[bool]()); err == nil {
		*t = ToggleOf(v)
		return nil
	}
	*t = On
	return nil
}

// MarshalJSON encodes the toggle as a boolean.
func (t Toggle) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Enabled())
}

// Config configures the magic page core.
type Config struct {
	// UseMagicClasses switches discovery off when false or 0.
	UseMagicClasses Toggle `yaml:"useMagicClasses" toml:"useMagicClasses" json:"useMagicClasses" env:"USE_MAGIC_CLASSES"`

	// ClassesPath is the non web accessible directory holding page type
	// sources and their assets.
	ClassesPath string `yaml:"classesPath" toml:"classesPath" json:"classesPath" env:"CLASSES_PATH"`

	// AssetsPath is the public directory assets are copied to.
	AssetsPath string `yaml:"assetsPath" toml:"assetsPath" json:"assetsPath" env:"ASSETS_PATH"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		UseMagicClasses: On,
		ClassesPath:     "site/classes",
		AssetsPath:      "site/assets",
	}
}

// LoadConfig reads path (YAML, TOML or JSON, chosen by extension) over the
// defaults and applies MAGICPAGES_* environment overrides. An empty path
// loads defaults and environment only.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	var fs []feeders.Feeder
	if path != "" {
		f, err := feeders.ForFile(path)
		if err != nil {
			return cfg, fmt.Errorf("%w: %w", ErrUnsupportedConfigFormat, err)
		}
		fs = append(fs, f)
	}
	fs = append(fs, feeders.NewAffixedEnvFeeder(EnvPrefix, ""))

	for _, f := range fs {
		if err := f.Feed(&cfg); err != nil {
			return cfg, fmt.Errorf("%w: %w", ErrConfigLoad, err)
		}
	}
	return cfg, nil
}
