package network

import (
	"encoding/hex"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/parachain-tools/xcm-automation/chain/substrate"
)

// Manifest is the file representation of network configuration.
type Manifest struct {
	// An array of networks.
	Networks []Network `yaml:"networks" toml:"networks"`
}

// Config represents the configuration of a collection of networks. This is loaded from the
// manifest file/s.
type Config struct {
	// networks is a map of networks by their key, so that keys are unique and lookups are cheap.
	networks map[string]Network
}

// NewConfig creates a new config from a slice of networks. Any duplicate keys will be
// overwritten.
func NewConfig(networks []Network) *Config {
	nmap := make(map[string]Network)

	for _, network := range networks {
		nmap[network.Key] = network
	}

	return &Config{
		networks: nmap,
	}
}

// Validate ensures that all networks are valid.
func (c *Config) Validate() error {
	for _, network := range c.Networks() {
		if err := network.Validate(); err != nil {
			return fmt.Errorf("network %q: %w", network.Key, err)
		}
	}

	return nil
}

// Networks returns all networks in the config, sorted by key.
func (c *Config) Networks() []Network {
	networks := make([]Network, 0, len(c.networks))
	for _, key := range c.Keys() {
		networks = append(networks, c.networks[key])
	}

	return networks
}

// Keys returns the sorted network keys.
func (c *Config) Keys() []string {
	return slices.Sorted(maps.Keys(c.networks))
}

// NetworkByKey retrieves a network by its key. If the network is not found, an error is
// returned.
func (c *Config) NetworkByKey(key string) (Network, error) {
	network, ok := c.networks[key]
	if !ok {
		return Network{}, fmt.Errorf("network %q not found in configuration", key)
	}

	return network, nil
}

// EndpointByKey returns the chain endpoint of the network with key.
func (c *Config) EndpointByKey(key string) (substrate.ChainEndpoint, error) {
	network, err := c.NetworkByKey(key)
	if err != nil {
		return substrate.ChainEndpoint{}, err
	}

	return network.Endpoint()
}

// Merge merges another config into the current config.
// It overwrites any networks with the same key.
func (c *Config) Merge(other *Config) {
	maps.Copy(c.networks, other.networks)
}

// MarshalYAML implements the yaml.Marshaler interface for the Config struct.
// It converts the internal map structure to a YAML format with a top-level "networks" key.
func (c *Config) MarshalYAML() (any, error) {
	return Manifest{Networks: c.Networks()}, nil
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for the Config struct.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	node := Manifest{}

	if err := value.Decode(&node); err != nil {
		return err
	}

	*c = *NewConfig(node.Networks)

	return nil
}

// NetworkFilter defines a function type that filters networks based on certain criteria.
type NetworkFilter func(Network) bool

// FilterWith returns a new Config containing only Networks that pass all provided filter functions.
func (c *Config) FilterWith(filters ...NetworkFilter) *Config {
	networks := c.Networks()

	for _, filter := range filters {
		networks = slices.DeleteFunc(networks, func(network Network) bool {
			return !filter(network)
		})
	}

	return NewConfig(networks)
}

// TypesFilter returns a filter function that matches chains with the specified network types.
func TypesFilter(networkTypes ...NetworkType) NetworkFilter {
	return func(network Network) bool {
		return slices.Contains(networkTypes, network.Type)
	}
}

// KeysFilter returns a filter function that matches chains with one of keys.
func KeysFilter(keys ...string) NetworkFilter {
	return func(network Network) bool {
		return slices.Contains(keys, network.Key)
	}
}

// ParachainFilter matches parachains, excluding relay chains.
func ParachainFilter() NetworkFilter {
	return func(network Network) bool {
		return !network.Relay
	}
}

// transformURLs rewrites every endpoint URL.
func (c *Config) transformURLs(transform URLTransformer) {
	for k, n := range c.networks {
		endpoints := make([]string, len(n.Endpoints))
		for i, url := range n.Endpoints {
			endpoints[i] = transform(url)
		}
		n.Endpoints = endpoints

		c.networks[k] = n
	}
}

// Load loads configuration from the specified file paths, and merges them into a single Config.
// Files ending in .toml are parsed as TOML, everything else as YAML.
func Load(filePaths []string, opts ...LoadOption) (*Config, error) {
	cfg := NewConfig([]Network{})

	loadCfg := &loadConfig{}
	for _, opt := range opts {
		opt(loadCfg)
	}

	for _, fp := range filePaths {
		data, err := os.ReadFile(fp)
		if err != nil {
			return nil, fmt.Errorf("failed to read networks file: %w", err)
		}

		fileCfg, err := decode(fp, data)
		if err != nil {
			return nil, err
		}

		cfg.Merge(fileCfg)
	}

	if loadCfg.URLTransformer != nil {
		cfg.transformURLs(loadCfg.URLTransformer)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate networks configuration: %w", err)
	}

	return cfg, nil
}

func decode(path string, data []byte) (*Config, error) {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		var m Manifest
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal networks TOML: %w", err)
		}

		return NewConfig(m.Networks), nil
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal networks YAML: %w", err)
	}
	if cfg.networks == nil {
		return NewConfig(nil), nil
	}

	return &cfg, nil
}

// LoadOption defines a function which modifies the load configuration.
type LoadOption func(*loadConfig)

type loadConfig struct {
	URLTransformer URLTransformer
}

// URLTransformer is a function that transforms a URL.
type URLTransformer func(string) string

// WithURLTransformer transforms the endpoint URLs of the networks after loading, e.g. to inject
// credentials kept out of the manifest.
func WithURLTransformer(t URLTransformer) LoadOption {
	return func(opts *loadConfig) {
		opts.URLTransformer = t
	}
}

func decodeHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}
