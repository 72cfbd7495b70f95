package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	MongoDB MongoDBConfig `mapstructure:"mongodb"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Auth    AuthConfig    `mapstructure:"auth"`
	AMQP    AMQPConfig    `mapstructure:"amqp"`
	Uploads UploadsConfig `mapstructure:"uploads"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Name string `mapstructure:"name"`
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type MongoDBConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// AuthConfig holds the shared signing secret and the authorization policy.
// AdminOnly keeps the revocation rule that rejects valid non-admin tokens on
// protected routes; ExemptOrderCreate allows unauthenticated order placement.
type AuthConfig struct {
	Secret            string        `mapstructure:"secret"`
	TokenTTL          time.Duration `mapstructure:"token_ttl"`
	AdminOnly         bool          `mapstructure:"admin_only"`
	ExemptOrderCreate bool          `mapstructure:"exempt_order_create"`
}

type AMQPConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

type UploadsConfig struct {
	Dir     string `mapstructure:"dir"`
	BaseURL string `mapstructure:"base_url"`
}

type LogConfig struct {
	Level       string   `mapstructure:"level"`
	Encoding    string   `mapstructure:"encoding"`
	OutputPaths []string `mapstructure:"output_paths"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetDefault("server.port", 3000)
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.admin_only", true)
	v.SetDefault("uploads.dir", "public/uploads")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Auth.Secret == "" {
		return nil, fmt.Errorf("auth.secret must be set")
	}

	return &config, nil
}
