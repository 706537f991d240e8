package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ModeDev     = "dev"
	ModeRelease = "release"

	DefaultPath = "config/config.yaml"
	envPrefix   = "TIFFIN_"
)

type DatabaseConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Username    string `yaml:"user"`
	Password    string `yaml:"password"`
	DBName      string `yaml:"dbname"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

type Certs struct {
	Cert string `yaml:"cert"`
	Key  string `yaml:"key"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	OpsAddr      string        `yaml:"ops_addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	TLS          Certs         `yaml:"tls"`
	WebRoot      string        `yaml:"web_root"`
}

type AdminConfig struct {
	ID       string `yaml:"id"`
	Password string `yaml:"password"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	Admin     AdminConfig   `yaml:"admin"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type NatsConfig struct {
	URL string `yaml:"url"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type CORSConfig struct {
	Origins []string `yaml:"origins"`
}

type Config struct {
	Version  string         `yaml:"version"`
	Mode     string         `yaml:"mode"`
	LogLevel string         `yaml:"log_level"`
	Timezone string         `yaml:"timezone"`
	Server   ServerConfig   `yaml:"server"`
	DB       DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Redis    RedisConfig    `yaml:"redis"`
	Nats     NatsConfig     `yaml:"nats"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	CORS     CORSConfig     `yaml:"cors"`
}

// Load reads the YAML file at path, then applies TIFFIN_* environment
// overrides (a .env file in the working directory is loaded first if present).
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(buf)
}

func Parse(buf []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Mode, "MODE")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.Timezone, "TIMEZONE")
	setString(&c.Server.Addr, "ADDR")
	setString(&c.Server.OpsAddr, "OPS_ADDR")
	setString(&c.DB.Host, "DB_HOST")
	setInt(&c.DB.Port, "DB_PORT")
	setString(&c.DB.Username, "DB_USER")
	setString(&c.DB.Password, "DB_PASSWORD")
	setString(&c.DB.DBName, "DB_NAME")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Auth.Admin.ID, "ADMIN_ID")
	setString(&c.Auth.Admin.Password, "ADMIN_PASSWORD")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Nats.URL, "NATS_URL")
	if v, ok := os.LookupEnv(envPrefix + "CORS_ORIGINS"); ok && v != "" {
		c.CORS.Origins = strings.Split(v, ",")
	}
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = ModeDev
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8443"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.DB.Port == 0 {
		c.DB.Port = 3306
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}
	if len(c.CORS.Origins) == 0 {
		c.CORS.Origins = []string{"http://localhost:3000"}
	}
}

func (c *Config) Validate() error {
	if c.Mode != ModeDev && c.Mode != ModeRelease {
		return fmt.Errorf("invalid mode %q, must be 'dev' or 'release'", c.Mode)
	}
	if c.DB.Host == "" || c.DB.Username == "" || c.DB.DBName == "" {
		return fmt.Errorf("missing required database settings: host/user/dbname")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("missing auth.jwt_secret (or %sJWT_SECRET)", envPrefix)
	}
	if c.Mode == ModeRelease && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 bytes in release mode")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Location never fails after Validate.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) TLSEnabled() bool {
	return c.Server.TLS.Cert != "" && c.Server.TLS.Key != ""
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(envPrefix + key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok || v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}
