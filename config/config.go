package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jRPC "github.com/0xPolygon/cdk-rpc/rpc"
	"github.com/horizontalsystems/chainsync/blockchain"
	"github.com/horizontalsystems/chainsync/common"
	"github.com/horizontalsystems/chainsync/engine"
	"github.com/horizontalsystems/chainsync/log"
	"github.com/horizontalsystems/chainsync/syncsource"
	"github.com/mitchellh/mapstructure"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
)

const (
	// FlagCfg is the flag for cfg.
	FlagCfg = "cfg"
	// FlagComponents is the flag for components.
	FlagComponents = "components"
	// FlagSaveConfigPath is the flag to save the final configuration file
	FlagSaveConfigPath = "save-config-path"
	// FlagBlockchain is the flag for the blockchain uid
	FlagBlockchain = "blockchain"

	EnvVarPrefix       = "CHAINSYNC"
	ConfigType         = "toml"
	SaveConfigFileName = "chainsync_config.toml"

	DefaultCreationFilePermissions = os.FileMode(0600)
)

var (
	ErrNoAccounts = errors.New("chain without accounts")
)

// SyncSourcesConfig is the configuration of the sync source selection
type SyncSourcesConfig struct {
	// DBPath is the path of the database holding the selected and custom sources
	DBPath string `mapstructure:"DBPath"`
	// CustomSourcesFile is an optional YAML file with custom sources loaded at startup
	CustomSourcesFile string `mapstructure:"CustomSourcesFile"`
	// Keys of the providers used by the default sources
	Keys syncsource.Keys `mapstructure:"Keys"`
}

// MetricsConfig is the configuration of the prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `mapstructure:"Enabled"`
	Host    string `mapstructure:"Host"`
	Port    int    `mapstructure:"Port"`
}

/*
Config represents the configuration of chainsync
The file is [TOML format]

[TOML format]: https://en.wikipedia.org/wiki/TOML
*/
type Config struct {
	// Configure Log level for all the services, allow also to store the logs in a file
	Log log.Config
	// Common Config that affects all the services
	Common common.Config
	// SyncSources configures the selection of the source of every blockchain
	SyncSources SyncSourcesConfig
	// Engine configures the chains synced and the components syncing them
	Engine engine.Config
	// RPC is the config for the RPC server
	RPC jRPC.Config
	// Metrics is the config for the prometheus endpoint
	Metrics MetricsConfig
}

// Validate checks what the components can't check on their own
func (c *Config) Validate() error {
	for _, chain := range c.Engine.Chains {
		if _, err := blockchain.ParseType(string(chain.Blockchain)); err != nil {
			return err
		}
		if len(chain.Accounts) == 0 {
			return fmt.Errorf("%w: %s", ErrNoAccounts, chain.Blockchain)
		}
	}
	return nil
}

// Load loads the configuration
func Load(ctx *cli.Context) (*Config, error) {
	configFilePath := ctx.StringSlice(FlagCfg)
	filesData, err := readFiles(configFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading files: %w", err)
	}
	saveConfigPath := ctx.String(FlagSaveConfigPath)
	return LoadFile(filesData, saveConfigPath)
}

func readFiles(files []string) ([]FileData, error) {
	result := make([]FileData, 0, len(files))
	for _, file := range files {
		fileContent, err := readFileToString(file)
		if err != nil {
			return nil, fmt.Errorf("error reading file content: %s. Err:%w", file, err)
		}
		fileExtension := getFileExtension(file)
		if fileExtension != ConfigType {
			fileContent, err = convertFileToToml(fileContent, fileExtension)
			if err != nil {
				return nil, fmt.Errorf("error converting file: %s from %s to TOML. Err:%w", file, fileExtension, err)
			}
		}
		result = append(result, FileData{Name: file, Content: fileContent})
	}
	return result, nil
}

func getFileExtension(fileName string) string {
	return strings.TrimPrefix(filepath.Ext(fileName), ".")
}

// LoadFile merges files over the defaults, resolves the vars and decodes the result.
// The rendered file is written to saveConfigPath when set
func LoadFile(files []FileData, saveConfigPath string) (*Config, error) {
	fileData := make([]FileData, 0, len(files)+2) //nolint:mnd
	fileData = append(fileData, FileData{Name: "default_vars", Content: DefaultVars})
	fileData = append(fileData, FileData{Name: "default_values", Content: DefaultValues})
	fileData = append(fileData, files...)

	renderedCfg, err := NewConfigRender(fileData, EnvVarPrefix).Render()
	if err != nil {
		return nil, err
	}
	if saveConfigPath != "" {
		fullPath := filepath.Join(saveConfigPath, SaveConfigFileName)
		if err := os.WriteFile(fullPath, []byte(renderedCfg), DefaultCreationFilePermissions); err != nil {
			err = fmt.Errorf("error writing config file: %s. Err: %w", fullPath, err)
			log.Error(err)
			return nil, err
		}
	}
	cfg, err := LoadFileFromString(renderedCfg, ConfigType)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFileFromString decodes an already rendered config. Environment variables
// prefixed with CHAINSYNC_ override its values
func LoadFileFromString(configFileData string, configType string) (*Config, error) {
	cfg := &Config{}
	expectedKeys, err := defaultKeys()
	if err != nil {
		return nil, err
	}
	if err := loadString(cfg, configFileData, configType, true, EnvVarPrefix, expectedKeys); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfigToString renders cfg as TOML
func SaveConfigToString(cfg Config) (string, error) {
	b, err := toml.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func defaultKeys() ([]string, error) {
	defaults, err := NewConfigRender([]FileData{
		{Name: "default_vars", Content: DefaultVars},
		{Name: "default_values", Content: DefaultValues},
	}, EnvVarPrefix).Render()
	if err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetConfigType(ConfigType)
	if err := v.ReadConfig(bytes.NewBufferString(defaults)); err != nil {
		return nil, err
	}
	return v.AllKeys(), nil
}

func loadString(cfg *Config, configData string, configType string,
	allowEnvVars bool, envPrefix string, expectedKeys []string) error {
	v := viper.New()
	v.SetConfigType(configType)
	if allowEnvVars {
		replacer := strings.NewReplacer(".", "_")
		v.SetEnvKeyReplacer(replacer)
		v.SetEnvPrefix(envPrefix)
		v.AutomaticEnv()
	}
	if err := v.ReadConfig(bytes.NewBufferString(configData)); err != nil {
		return err
	}
	decodeHooks := []viper.DecoderConfigOption{
		// this allows arrays to be decoded from env var separated by ",", example: MY_VAR="value1,value2,value3"
		viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(), mapstructure.StringToSliceHookFunc(","))),
	}
	if err := v.Unmarshal(cfg, decodeHooks...); err != nil {
		return err
	}

	for _, field := range getUnexpectedFields(v.AllKeys(), expectedKeys) {
		// chains are arrays of tables, their keys are never on the defaults
		if strings.HasPrefix(field, "engine.chains") {
			continue
		}
		log.Warnf("field %s in config file is unknown", field)
	}
	return nil
}

func getUnexpectedFields(keysOnFile, expectedConfigKeys []string) []string {
	wrongFields := make([]string, 0)
	for _, key := range keysOnFile {
		if !contains(expectedConfigKeys, key) {
			wrongFields = append(wrongFields, key)
		}
	}
	return wrongFields
}
