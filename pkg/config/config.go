package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nspcc-dev/spendkit/pkg/puzzle"
	"github.com/nspcc-dev/spendkit/pkg/storage/dbconfig"
	"github.com/nspcc-dev/spendkit/pkg/util"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is the default path to the config directory.
	DefaultConfigPath = "./config"
	// FileName is the name of the config file in the config directory.
	FileName = "spendkit.yml"
	// DefaultCacheSize is the default number of coin records cached.
	DefaultCacheSize = 1024
)

// Version is the version of the binary, set at build time.
var Version string

// Config top level struct representing the config of the tool.
type Config struct {
	Constants   ConstantsConfig          `yaml:"Constants"`
	Application ApplicationConfiguration `yaml:"ApplicationConfiguration"`
}

// ConstantsConfig overrides the default puzzle constants, unset fields keep
// their defaults.
type ConstantsConfig struct {
	StandardModHash                *util.Bytes32 `yaml:"StandardModHash"`
	CatModHash                     *util.Bytes32 `yaml:"CatModHash"`
	SingletonModHash               *util.Bytes32 `yaml:"SingletonModHash"`
	LauncherModHash                *util.Bytes32 `yaml:"LauncherModHash"`
	NftStateModHash                *util.Bytes32 `yaml:"NftStateModHash"`
	DidModHash                     *util.Bytes32 `yaml:"DidModHash"`
	OptionModHash                  *util.Bytes32 `yaml:"OptionModHash"`
	OptionUnderlyingModHash        *util.Bytes32 `yaml:"OptionUnderlyingModHash"`
	GenesisByCoinIDModHash         *util.Bytes32 `yaml:"GenesisByCoinIDModHash"`
	EverythingWithSignatureModHash *util.Bytes32 `yaml:"EverythingWithSignatureModHash"`
	AggSigMeExtraData              *util.Bytes32 `yaml:"AggSigMeExtraData"`
}

// ToConstants returns the default constants with overrides applied. Module
// hashes must stay distinct.
func (cc ConstantsConfig) ToConstants() (*puzzle.Constants, error) {
	c := puzzle.DefaultConstants()
	for _, o := range []struct {
		dst *util.Bytes32
		src *util.Bytes32
	}{
		{&c.StandardModHash, cc.StandardModHash},
		{&c.CatModHash, cc.CatModHash},
		{&c.SingletonModHash, cc.SingletonModHash},
		{&c.LauncherModHash, cc.LauncherModHash},
		{&c.NftStateModHash, cc.NftStateModHash},
		{&c.DidModHash, cc.DidModHash},
		{&c.OptionModHash, cc.OptionModHash},
		{&c.OptionUnderlyingModHash, cc.OptionUnderlyingModHash},
		{&c.GenesisByCoinIDModHash, cc.GenesisByCoinIDModHash},
		{&c.EverythingWithSignatureModHash, cc.EverythingWithSignatureModHash},
		{&c.AggSigMeExtraData, cc.AggSigMeExtraData},
	} {
		if o.src != nil {
			*o.dst = *o.src
		}
	}
	seen := make(map[util.Bytes32]string)
	for name, h := range c.Mods() {
		if other, ok := seen[h]; ok {
			return nil, fmt.Errorf("%s and %s mods have the same hash %s", name, other, h)
		}
		seen[h] = name
	}
	return c, nil
}

// Load attempts to load the config from the given directory.
func Load(path string) (Config, error) {
	return LoadFile(filepath.Join(path, FileName))
}

// LoadFile loads config from the provided path. Unknown fields are an error.
func LoadFile(configPath string) (Config, error) {
	configData, err := os.ReadFile(configPath)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}
	config := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(configData))
	decoder.KnownFields(true)
	err = decoder.Decode(&config)
	if err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}
	if err := config.Application.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid application configuration: %w", err)
	}
	return config, nil
}

// Default returns the configuration used when there is no config file: an
// in-memory ledger with default constants.
func Default() Config {
	return Config{
		Application: ApplicationConfiguration{
			DBConfiguration: dbconfig.DBConfiguration{Type: dbconfig.InMemoryDB},
			CacheSize:       DefaultCacheSize,
		},
	}
}
