package feed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/text/encoding/htmlindex"
	"gopkg.in/yaml.v3"
)

const configExt = ".yml"

const (
	defaultMaxItems = 100
	defaultTimeout  = 30 // seconds
)

var filterFields = map[string]bool{
	"title":   true,
	"content": true,
	"author":  true,
	"url":     true,
}

// ConfigCache holds the feed configurations of a directory, one YAML file
// per feed named after the file.
type ConfigCache struct {
	dir string

	mu      sync.RWMutex
	configs map[string]*Config
}

func NewConfigCache(dir string) *ConfigCache {
	return &ConfigCache{
		dir:     dir,
		configs: make(map[string]*Config),
	}
}

// Run loads every configuration in the directory. A missing directory
// leaves the cache empty. The cache is only replaced when all files load.
func (cc *ConfigCache) Run() error {
	entries, err := os.ReadDir(cc.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read feeds directory: %w", err)
	}

	loaded := make(map[string]*Config)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != configExt {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), configExt)

		config, err := cc.read(name)
		if err != nil {
			return err
		}
		loaded[name] = config

		slog.Debug("Configuration loaded", "feed", name, "enabled", config.Settings.Enabled,
			"id_exclude", len(config.Settings.IDExclude), "reject_entities", config.Settings.RejectEntities)
	}

	cc.mu.Lock()
	cc.configs = loaded
	cc.mu.Unlock()

	return nil
}

// LoadConfig rereads a single feed configuration and stores it.
func (cc *ConfigCache) LoadConfig(name string) (*Config, error) {
	config, err := cc.read(name)
	if err != nil {
		return nil, err
	}

	cc.mu.Lock()
	cc.configs[name] = config
	cc.mu.Unlock()

	return config, nil
}

func (cc *ConfigCache) GetConfig(name string) (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	config, ok := cc.configs[name]
	if !ok {
		return nil, fmt.Errorf("feed config with name '%s' not found", name)
	}
	return config, nil
}

func (cc *ConfigCache) GetConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return maps.Clone(cc.configs)
}

func (cc *ConfigCache) GetEnabledConfigs() map[string]*Config {
	configs := cc.GetConfigs()
	maps.DeleteFunc(configs, func(_ string, c *Config) bool { return !c.Settings.Enabled })
	return configs
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.configs)
}

func (cc *ConfigCache) read(name string) (*Config, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("invalid feed name: %q", name)
	}
	path := filepath.Join(cc.dir, name+configExt)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	config, err := decodeConfig(data)
	if err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	config.Name = name

	return config, nil
}

// decodeConfig parses a feed configuration, rejecting unknown keys, and
// applies defaults before validating it.
func decodeConfig(data []byte) (*Config, error) {
	var config Config

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty configuration")
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if config.Settings.MaxItems == 0 {
		config.Settings.MaxItems = defaultMaxItems
	}
	if config.Settings.Timeout == 0 {
		config.Settings.Timeout = defaultTimeout
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// validate reports every problem found, not only the first.
func (c *Config) validate() error {
	var errs []error

	if c.URL == "" {
		errs = append(errs, errors.New("feed URL is required"))
	}
	if c.Settings.MaxItems < 0 {
		errs = append(errs, errors.New("max items must be non-negative"))
	}
	if c.Settings.Timeout < 0 {
		errs = append(errs, errors.New("timeout must be non-negative"))
	}
	if c.Settings.Encoding != "" {
		if _, err := htmlindex.Get(c.Settings.Encoding); err != nil {
			errs = append(errs, fmt.Errorf("unsupported encoding: %s", c.Settings.Encoding))
		}
	}
	for i, exclusion := range c.Settings.IDExclude {
		if strings.TrimSpace(exclusion) == "" {
			errs = append(errs, fmt.Errorf("empty id_exclude entry at index %d", i))
		}
	}

	for i, filter := range c.Filters {
		if !filterFields[filter.Field] {
			errs = append(errs, fmt.Errorf("invalid filter field at index %d: %s", i, filter.Field))
		}
		if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
			errs = append(errs, fmt.Errorf("filter at index %d must have at least one include or exclude rule", i))
		}
	}

	return errors.Join(errs...)
}

// ParserOptions returns the parser settings this feed adds to the service
// defaults. Entity prescanning can be switched on per feed, never off.
func (c *Config) ParserOptions() []Option {
	var opts []Option
	if len(c.Settings.IDExclude) > 0 {
		opts = append(opts, WithIDExclusions(c.Settings.IDExclude))
	}
	if c.Settings.RejectEntities {
		opts = append(opts, WithEntityPrescan(true))
	}
	return opts
}
