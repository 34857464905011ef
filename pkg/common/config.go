package common

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	kjson "github.com/knadh/koanf/parsers/json"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

//go:embed config.default.yaml
var defaultConfig []byte

const (
	// ConfigPathEnv overrides the workspace config file location
	ConfigPathEnv = "QUIVER_CONFIG_PATH"

	defaultConfigFile = "quiver.yaml"
)

// ConfigManager layers the embedded defaults, the workspace config file
// (quiver.yaml, or whatever ConfigPathEnv points at), and any raw
// overrides, then unmarshals the merged tree into T via `key:` tags.
type ConfigManager[T any] struct {
	kf     *koanf.Koanf
	config T
}

// NewConfigManager creates a config manager and loads the merged config.
func NewConfigManager[T any]() (*ConfigManager[T], error) {
	kf := koanf.New(".")

	if err := kf.Load(rawbytes.Provider(defaultConfig), kyaml.Parser()); err != nil {
		return nil, fmt.Errorf("load default config: %w", err)
	}

	path := os.Getenv(ConfigPathEnv)
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}
	if path != "" {
		if err := kf.Load(file.Provider(path), parserFor(path)); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	cm := &ConfigManager[T]{kf: kf}
	if err := cm.unmarshal(); err != nil {
		return nil, err
	}
	return cm, nil
}

// LoadOverrides merges raw YAML on top of the current config tree.
func (cm *ConfigManager[T]) LoadOverrides(data []byte) error {
	if err := cm.kf.Load(rawbytes.Provider(data), kyaml.Parser()); err != nil {
		return fmt.Errorf("load config overrides: %w", err)
	}
	return cm.unmarshal()
}

// GetConfig returns the merged configuration.
func (cm *ConfigManager[T]) GetConfig() T {
	return cm.config
}

func (cm *ConfigManager[T]) unmarshal() error {
	var cfg T
	err := cm.kf.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "key",
		DecoderConfig: &mapstructure.DecoderConfig{
			TagName:          "key",
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		},
	})
	if err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	cm.config = cfg
	return nil
}

// JSON config files are accepted for generated configs; everything else
// is treated as YAML.
func parserFor(path string) koanf.Parser {
	if strings.HasSuffix(path, ".json") {
		return kjson.Parser()
	}
	return kyaml.Parser()
}
