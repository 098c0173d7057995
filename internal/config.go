package internal

import (
	"fmt"

	"github.com/spf13/viper"
)

type H2Config struct {
	AppName string `mapstructure:"app_name"`

	Database struct {
		Workdir       string `mapstructure:"workdir"`
		DefaultSchema string `mapstructure:"default_schema"`
	} `mapstructure:"database"`

	Server struct {
		Port  int  `mapstructure:"port"`
		Debug bool `mapstructure:"debug"`
	} `mapstructure:"server"`
}

func LoadConfig(path string) (*H2Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg H2Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
