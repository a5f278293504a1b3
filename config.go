package zhap

import (
	"errors"
	"fmt"
	"github.com/shimmeringbee/zhap/resolver"
	"github.com/shimmeringbee/zhap/rules"
	"gopkg.in/yaml.v3"
	"io"
	"os"
	"time"
)

const (
	DefaultNamespace      = "zhap"
	DefaultPlatform       = "ZWave"
	DefaultControllerName = "Z-Wave Controller"
	DefaultLockout        = 2 * time.Second
	DefaultWriteTimeout   = 5 * time.Second
	DefaultWriteRetries   = 2
)

type Config struct {
	// Namespace prefixes every identity seed, changing it changes every accessory identifier.
	Namespace      string `yaml:"namespace"`
	Platform       string `yaml:"platform"`
	ControllerName string `yaml:"controllerName"`

	// Lockout is how long change events for a point are ignored after writing it.
	Lockout      time.Duration `yaml:"lockout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	WriteRetries int           `yaml:"writeRetries"`

	ObsoleteCharacteristics []string        `yaml:"obsoleteCharacteristics"`
	NotificationPairs       []resolver.Pair `yaml:"notificationPairs"`
	// Rules are extra rulesets, compiled alongside the default ruleset.
	Rules []rules.RuleSet `yaml:"rules"`
}

func DefaultConfig() Config {
	return Config{
		Namespace:      DefaultNamespace,
		Platform:       DefaultPlatform,
		ControllerName: DefaultControllerName,
		Lockout:        DefaultLockout,
		WriteTimeout:   DefaultWriteTimeout,
		WriteRetries:   DefaultWriteRetries,
	}
}

// withDefaults fills any unset field from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()

	if c.Namespace == "" {
		c.Namespace = d.Namespace
	}

	if c.Platform == "" {
		c.Platform = d.Platform
	}

	if c.ControllerName == "" {
		c.ControllerName = d.ControllerName
	}

	if c.Lockout <= 0 {
		c.Lockout = d.Lockout
	}

	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}

	if c.WriteRetries <= 0 {
		c.WriteRetries = d.WriteRetries
	}

	return c
}

// Pairs returns the recognised notification pairs, the defaults followed by configured ones.
func (c Config) Pairs() []resolver.Pair {
	pairs := append([]resolver.Pair{}, resolver.DefaultPairs...)
	return append(pairs, c.NotificationPairs...)
}

// LoadConfig decodes a YAML configuration, an empty document yields the defaults.
func LoadConfig(r io.Reader) (Config, error) {
	var c Config

	if err := yaml.NewDecoder(r).Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	return c.withDefaults(), nil
}

func LoadConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	return LoadConfig(f)
}
