package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"time"

	"github.com/spf13/viper"
)

// SubstrateConfig holds the signing secrets for substrate chains. Mnemonic takes precedence over
// SignerURI.
type SubstrateConfig struct {
	SignerURI      string `mapstructure:"signer_uri" yaml:"signer_uri"`           // Secret: A dev account ("//Alice"), a 0x seed or a phrase with a derivation path.
	Mnemonic       string `mapstructure:"mnemonic" yaml:"mnemonic"`               // Secret: BIP-39 mnemonic of the signer.
	DerivationPath string `mapstructure:"derivation_path" yaml:"derivation_path"` // Appended to Mnemonic, e.g. "//automation".
	Finalization   bool   `mapstructure:"finalization" yaml:"finalization"`       // Wait for finalization instead of inclusion.
}

type OnchainConfig struct {
	Substrate SubstrateConfig `mapstructure:"substrate" yaml:"substrate"`
}

// AutomationConfig tunes the task orchestrator.
type AutomationConfig struct {
	GracePeriod          time.Duration `mapstructure:"grace_period" yaml:"grace_period"`                     // Added to every confirmation timeout.
	VerifyTaskID         bool          `mapstructure:"verify_task_id" yaml:"verify_task_id"`                 // Cross-check generated task ids with the chain.
	FeeMarginNumerator   uint64        `mapstructure:"fee_margin_numerator" yaml:"fee_margin_numerator"`     // Execution fee multiplier numerator.
	FeeMarginDenominator uint64        `mapstructure:"fee_margin_denominator" yaml:"fee_margin_denominator"` // Execution fee multiplier denominator.
}

type StoreConfig struct {
	DSN string `mapstructure:"dsn" yaml:"dsn"` // Secret: Postgres connection string. Empty keeps task records in memory.
}

type NotifyConfig struct {
	NATSURL string `mapstructure:"nats_url" yaml:"nats_url"` // NATS server URL. Empty disables notifications.
}

type LogConfig struct {
	Level    string `mapstructure:"level" yaml:"level"`       // debug, info, warn or error.
	Encoding string `mapstructure:"encoding" yaml:"encoding"` // json or console.
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"` // Listen address of the /metrics endpoint. Empty disables it.
}

// Config is the runtime configuration of the automation tool, loaded from a YAML file and the
// environment.
type Config struct {
	Onchain    OnchainConfig    `mapstructure:"onchain" yaml:"onchain"`
	Automation AutomationConfig `mapstructure:"automation" yaml:"automation"`
	Store      StoreConfig      `mapstructure:"store" yaml:"store"`
	Notify     NotifyConfig     `mapstructure:"notify" yaml:"notify"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
	Metrics    MetricsConfig    `mapstructure:"metrics" yaml:"metrics"`
}

// Validate checks the values that cannot be checked by decoding alone.
func (c *Config) Validate() error {
	var errs []error
	if c.Automation.GracePeriod < 0 {
		errs = append(errs, errors.New("automation.grace_period cannot be negative"))
	}
	num, den := c.Automation.FeeMarginNumerator, c.Automation.FeeMarginDenominator
	if (num == 0) != (den == 0) {
		errs = append(errs, errors.New("automation fee margin needs both numerator and denominator"))
	}
	if den != 0 && num < den {
		errs = append(errs, fmt.Errorf("automation fee margin %d/%d is below 1", num, den))
	}

	return errors.Join(errs...)
}

// Load loads the config from the file path, falling back to env vars if the file does not exist.
// Env vars take precedence over values in the file.
func Load(filePath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(filePath)

	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	if _, err := os.Stat(filePath); !errors.Is(err, fs.ErrNotExist) {
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	return unmarshal(v)
}

// LoadEnv loads the config from environment variables only.
func LoadEnv() (*Config, error) {
	v := viper.New()

	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	return unmarshal(v)
}

// LoadFile loads the config from the file path only. An error is returned if the file is missing.
func LoadFile(filePath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(filePath)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

var (
	// envBindings maps config keys to env vars. The first env var is the preferred name, the rest
	// are accepted for compatibility with existing deployments.
	envBindings = map[string][]string{
		"onchain.substrate.signer_uri":      {"ONCHAIN_SUBSTRATE_SIGNER_URI", "SUBSTRATE_SIGNER_URI"},
		"onchain.substrate.mnemonic":        {"ONCHAIN_SUBSTRATE_MNEMONIC", "SUBSTRATE_MNEMONIC"},
		"onchain.substrate.derivation_path": {"ONCHAIN_SUBSTRATE_DERIVATION_PATH"},
		"onchain.substrate.finalization":    {"ONCHAIN_SUBSTRATE_FINALIZATION"},
		"automation.grace_period":           {"AUTOMATION_GRACE_PERIOD"},
		"automation.verify_task_id":         {"AUTOMATION_VERIFY_TASK_ID"},
		"automation.fee_margin_numerator":   {"AUTOMATION_FEE_MARGIN_NUMERATOR"},
		"automation.fee_margin_denominator": {"AUTOMATION_FEE_MARGIN_DENOMINATOR"},
		"store.dsn":                         {"STORE_DSN", "DATABASE_URL"},
		"notify.nats_url":                   {"NOTIFY_NATS_URL", "NATS_URL"},
		"log.level":                         {"LOG_LEVEL"},
		"log.encoding":                      {"LOG_ENCODING"},
		"metrics.addr":                      {"METRICS_ADDR"},
	}
)

// bindEnvs binds the environment variables to the viper config keys.
func bindEnvs(v *viper.Viper) error {
	for key, envs := range envBindings {
		// The first element is the key, the rest are the env vars
		inputs := slices.Insert(envs, 0, key)

		if err := v.BindEnv(inputs...); err != nil {
			return err
		}
	}

	return nil
}
