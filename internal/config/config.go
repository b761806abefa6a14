package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// IceServer is one STUN/TURN endpoint descriptor sent to every client
// on connect. Loaded once at startup, constant for the process lifetime.
type IceServer struct {
	URLs       []string `mapstructure:"urls"`
	Username   string   `mapstructure:"username"`
	Credential string   `mapstructure:"credential"`
}

type Config struct {
	Mode           string        `mapstructure:"mode"`
	Port           int           `mapstructure:"port"`
	RedisURL       string        `mapstructure:"redis_url"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	ReadLimit      int64         `mapstructure:"read_limit"`
	IceServers     []IceServer   `mapstructure:"ice_servers"`
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
	v.SetDefault("port", 3000)
	v.SetDefault("redis_url", "redis://localhost:6379")
	v.SetDefault("connect_timeout", "5s")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ice_servers", []map[string]any{
		{"urls": []string{"stun:rtc.crispytalk.info:3478"}},
		{
			"urls":       []string{"turn:rtc.crispytalk.info:3478"},
			"username":   "webrtcuser",
			"credential": "webrtcpassword",
		},
	})

	// PORT and REDIS_URL come from the environment in production.
	_ = v.BindEnv("port", "PORT")
	_ = v.BindEnv("redis_url", "REDIS_URL")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Redis: %s\n", cfg.Mode, cfg.Port, cfg.RedisURL)
	return &cfg, nil
}
