package service

import (
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"memkit/infra/kafka"
)

const (
	AllocatorGo   = "go"
	AllocatorPool = "pool"
)

// Config controls one exercise run. Zero fields take the defaults
// below.
type Config struct {
	// Count is how many values are pushed into the buffer. 0 selects
	// the default of 1000; a run always pushes at least one value.
	Count int `yaml:"count"`
	// SharedHandles is how many Rc clones share the counter.
	SharedHandles int `yaml:"shared_handles"`
	// Allocator is "go" or "pool".
	Allocator string `yaml:"allocator"`
	// StoreDir enables the pebble trace store when set.
	StoreDir string       `yaml:"store_dir"`
	Kafka    kafka.Config `yaml:"kafka"`
}

const (
	defaultCount         = 1000
	defaultSharedHandles = 8
	defaultTopic         = "memkit.trace"
)

// LoadConfig reads a YAML config file. Defaults are not applied here so
// that command-line flags can still tell set from unset.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

func (c Config) withDefaults() Config {
	if c.Count == 0 {
		c.Count = defaultCount
	}
	if c.SharedHandles == 0 {
		c.SharedHandles = defaultSharedHandles
	}
	if c.Allocator == "" {
		c.Allocator = AllocatorGo
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = defaultTopic
	}
	if c.Kafka.Client == "" {
		c.Kafka.Client = kafka.ClientKafkaGo
	}
	return c
}

func (c Config) validate() error {
	if c.Count < 0 {
		return errors.Newf("count must not be negative, got %d", c.Count)
	}
	if c.SharedHandles < 0 {
		return errors.Newf("shared_handles must not be negative, got %d", c.SharedHandles)
	}
	if len(c.Kafka.Brokers) > 0 && c.StoreDir == "" {
		return errors.New("kafka brokers need store_dir: only stored events are relayed")
	}
	switch c.Allocator {
	case AllocatorGo, AllocatorPool:
	default:
		return errors.Newf("unknown allocator %q", c.Allocator)
	}
	return nil
}
