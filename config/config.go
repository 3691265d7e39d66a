// Package config maps the on-disk configuration of horcrux-recovery: the
// master extended keys a derivation starts from and the output preferences.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/strangelove-ventures/horcrux-recovery/derivation"
	"github.com/strangelove-ventures/horcrux-recovery/extkey"
	"github.com/strangelove-ventures/horcrux-recovery/recovery"
	"gopkg.in/yaml.v2"
)

const (
	OutputJSON = "json"
	OutputYAML = "yaml"

	DefaultLogLevel = "info"
)

var logLevels = map[string]bool{"debug": true, "info": true, "error": true, "none": true}

// Config maps to the on-disk YAML format
type Config struct {
	KeySets  KeySetsConfig `json:"keysets,omitempty" yaml:"keysets,omitempty" mapstructure:"keysets"`
	LogLevel string        `json:"log-level,omitempty" yaml:"log-level,omitempty" mapstructure:"log-level"`
	Testnet  bool          `json:"testnet,omitempty" yaml:"testnet,omitempty" mapstructure:"testnet"`
	Output   string        `json:"output,omitempty" yaml:"output,omitempty" mapstructure:"output"`
}

// KeySetConfig is one generation of master extended keys.
type KeySetConfig struct {
	ID              int    `json:"id" yaml:"id" mapstructure:"id"`
	MinAccountECDSA uint32 `json:"min-account-ecdsa,omitempty" yaml:"min-account-ecdsa,omitempty" mapstructure:"min-account-ecdsa"`
	MinAccountEdDSA uint32 `json:"min-account-eddsa,omitempty" yaml:"min-account-eddsa,omitempty" mapstructure:"min-account-eddsa"`
	Xpub            string `json:"xpub,omitempty" yaml:"xpub,omitempty" mapstructure:"xpub"`
	Fpub            string `json:"fpub,omitempty" yaml:"fpub,omitempty" mapstructure:"fpub"`
	Xprv            string `json:"xprv,omitempty" yaml:"xprv,omitempty" mapstructure:"xprv"`
	Fprv            string `json:"fprv,omitempty" yaml:"fprv,omitempty" mapstructure:"fprv"`
}

type KeySetsConfig []KeySetConfig

func (c *Config) MustMarshalYaml() []byte {
	out, err := yaml.Marshal(c)
	if err != nil {
		panic(err)
	}
	return out
}

// Validate reports every problem with the config at once.
func (c *Config) Validate() error {
	var errs []error
	if c.LogLevel != "" && !logLevels[c.LogLevel] {
		errs = append(errs, fmt.Errorf("invalid log-level %q", c.LogLevel))
	}
	if c.Output != "" && c.Output != OutputJSON && c.Output != OutputYAML {
		errs = append(errs, fmt.Errorf("invalid output %q, must be %s or %s", c.Output, OutputJSON, OutputYAML))
	}
	if err := c.KeySets.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (kss KeySetsConfig) Validate() error {
	var errs []error
	seen := make(map[int]bool)
	for _, ks := range kss {
		if ks.ID <= 0 {
			errs = append(errs, fmt.Errorf("keyset id must be positive, got %d", ks.ID))
		}
		if seen[ks.ID] {
			errs = append(errs, fmt.Errorf("duplicate keyset id %d", ks.ID))
		}
		seen[ks.ID] = true
		if err := ks.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("keyset %d: %w", ks.ID, err))
		}
	}
	return errors.Join(errs...)
}

// Validate checks that the keyset carries at least one extended key and that
// every key decodes to the family and visibility of its field.
func (ks KeySetConfig) Validate() error {
	if ks.Xpub == "" && ks.Fpub == "" && ks.Xprv == "" && ks.Fprv == "" {
		return errors.New("at least one extended key is required")
	}
	var errs []error
	for _, k := range []struct {
		name    string
		value   string
		family  extkey.Family
		private bool
	}{
		{"xpub", ks.Xpub, extkey.FamilyECDSA, false},
		{"fpub", ks.Fpub, extkey.FamilyEdDSA, false},
		{"xprv", ks.Xprv, extkey.FamilyECDSA, true},
		{"fprv", ks.Fprv, extkey.FamilyEdDSA, true},
	} {
		if k.value == "" {
			continue
		}
		decoded, err := extkey.Decode(k.value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", k.name, err))
			continue
		}
		if decoded.Family() != k.family || decoded.IsPrivate() != k.private {
			errs = append(errs, fmt.Errorf("%s: %w: wrong key type", k.name, extkey.ErrInvalidExtendedKey))
		}
	}
	return errors.Join(errs...)
}

// DerivationKeySets converts the config keysets for the derivation engine.
func (kss KeySetsConfig) DerivationKeySets() []derivation.KeySet {
	out := make([]derivation.KeySet, 0, len(kss))
	for _, ks := range kss {
		out = append(out, derivation.KeySet{
			ID:              ks.ID,
			Xpub:            ks.Xpub,
			Fpub:            ks.Fpub,
			Xprv:            ks.Xprv,
			Fprv:            ks.Fprv,
			ECDSAMinAccount: ks.MinAccountECDSA,
			EdDSAMinAccount: ks.MinAccountEdDSA,
		})
	}
	return out
}

// KeySetsFromRecovery builds keyset config from a recovery result, ordered by
// keyset id. Private keys are dropped unless withPrivate is set.
func KeySetsFromRecovery(res *recovery.Result, withPrivate bool) KeySetsConfig {
	ids := res.KeySetIDs()
	out := make(KeySetsConfig, 0, len(ids))
	for _, id := range ids {
		rks := res.KeySets[id]
		ks := KeySetConfig{
			ID:              id,
			MinAccountECDSA: uint32(rks.ECDSAMinAccount),
			MinAccountEdDSA: uint32(rks.EdDSAMinAccount),
			Xpub:            rks.Xpub,
			Fpub:            rks.Fpub,
		}
		if withPrivate {
			ks.Xprv = rks.Xprv
			ks.Fprv = rks.Fprv
		}
		if ks.Xpub == "" && ks.Fpub == "" && ks.Xprv == "" && ks.Fprv == "" {
			continue
		}
		out = append(out, ks)
	}
	return out
}

type RuntimeConfig struct {
	HomeDir    string
	ConfigFile string
	Config     Config
}

func NewRuntimeConfig(home string) RuntimeConfig {
	return RuntimeConfig{
		HomeDir:    home,
		ConfigFile: filepath.Join(home, "config.yaml"),
	}
}

// ConfigExists reports whether the config file is present.
func (c RuntimeConfig) ConfigExists() bool {
	_, err := os.Stat(c.ConfigFile)
	return !os.IsNotExist(err)
}

// WriteConfigFile writes the config with owner-only permissions since it may
// hold private extended keys.
func (c RuntimeConfig) WriteConfigFile() error {
	if err := os.MkdirAll(c.HomeDir, 0700); err != nil {
		return err
	}
	return os.WriteFile(c.ConfigFile, c.Config.MustMarshalYaml(), 0600)
}

// ReadConfigFile loads the config file into c.Config.
func (c *RuntimeConfig) ReadConfigFile() error {
	bz, err := os.ReadFile(c.ConfigFile)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(bz, &c.Config)
}
