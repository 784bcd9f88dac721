package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	// configPathEnv names the environment variable holding the config file path.
	configPathEnv = "CONFIG_FILE_PATH"
	// defaultConfigPath is used when configPathEnv is not set.
	defaultConfigPath = "./configs/configs.yaml"
)

// loadWithViper loads the config file and panics upon failure.
//
// Every key can be overridden through the environment, for example PROVIDER_CLIENT_ID overrides
// provider.client_id.
func loadWithViper() Config {
	path := os.Getenv(configPathEnv)
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := loadFile(path)
	if err != nil {
		panic("failed to load configs: " + err.Error())
	}
	return cfg
}

func loadFile(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("error in viper.ReadInConfig call: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decoderOptions); err != nil {
		return Config{}, fmt.Errorf("error in viper.Unmarshal call: %w", err)
	}
	return cfg, nil
}

// decoderOptions makes mapstructure read the yaml tags.
func decoderOptions(dc *mapstructure.DecoderConfig) {
	dc.TagName = "yaml"
	dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}
