package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	DataDir    string        `mapstructure:"data_dir"`
	IndexDir   string        `mapstructure:"index_dir"`
	UploadsDir string        `mapstructure:"uploads_dir"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	SendBuffer int           `mapstructure:"send_buffer"`

	HistoryLimit int           `mapstructure:"history_limit"`
	SearchLimit  int           `mapstructure:"search_limit"`
	StoreTimeout time.Duration `mapstructure:"store_timeout"`

	SendRateLimit  int           `mapstructure:"send_rate_limit"`
	SendRateWindow time.Duration `mapstructure:"send_rate_window"`

	Secret string `mapstructure:"secret"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("data_dir", "./data/messages")
	v.SetDefault("index_dir", "./data/index")
	v.SetDefault("uploads_dir", "./data/uploads")
	v.SetDefault("read_limit", 65536)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("send_buffer", 32)
	v.SetDefault("history_limit", 50)
	v.SetDefault("search_limit", 50)
	v.SetDefault("store_timeout", "5s")
	v.SetDefault("send_rate_limit", 20)
	v.SetDefault("send_rate_window", "10s")

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
