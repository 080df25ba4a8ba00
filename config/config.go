package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	TTS      TTSConfig      `mapstructure:"tts"`
	Google   GoogleConfig   `mapstructure:"google"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Storage  StorageConfig  `mapstructure:"storage"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
	// BaseURL is prepended to issued signed URLs so clients can fetch them
	// directly, e.g. "http://localhost:8080".
	BaseURL string `mapstructure:"base_url"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Dbname   string `mapstructure:"dbname"`
	SslMode  string `mapstructure:"sslmode"`
}

type AuthConfig struct {
	JWTSecret        string `mapstructure:"jwt_secret"`
	TokenExpireHours int    `mapstructure:"token_expire_hours"`
}

type TTSConfig struct {
	// Strategy selects how speech is produced: "google" calls the hosted
	// Cloud TTS API, "capture" records a local voice engine.
	Strategy string `mapstructure:"strategy"`
	Locale   string `mapstructure:"locale"`
}

type GoogleConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
}

type EngineConfig struct {
	// Addr is the websocket endpoint of the local engine daemon. When empty
	// the exec fallback (BinPath) is used instead.
	Addr        string        `mapstructure:"addr"`
	AppID       string        `mapstructure:"app_id"`
	AccessToken string        `mapstructure:"access_token"`
	ClusterID   string        `mapstructure:"cluster_id"`
	BinPath     string        `mapstructure:"bin_path"`
	Voices      []EngineVoice `mapstructure:"voices"`
}

// EngineVoice pins one locally installed voice. Local engines have no
// catalog endpoint, so deployments declare their voices here.
type EngineVoice struct {
	ID      string `mapstructure:"id"`
	Name    string `mapstructure:"name"`
	Lang    string `mapstructure:"lang"`
	Gender  string `mapstructure:"gender"`
	Local   bool   `mapstructure:"local"`
	Default bool   `mapstructure:"default"`
}

type StorageConfig struct {
	Dir           string `mapstructure:"dir"`
	URLSecret     string `mapstructure:"url_secret"`
	SignTTLHours  int    `mapstructure:"sign_ttl_hours"`
	SweepMinutes  int    `mapstructure:"sweep_minutes"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// LoadConfig reads and parses the YAML config file.
func LoadConfig(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %v", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %v", err)
	}

	return &cfg, nil
}
