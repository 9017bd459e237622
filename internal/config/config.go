package config

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`

	JWT struct {
		Secret     string `yaml:"secret"`
		TTL        int    `yaml:"ttl"`         // access token lifetime, minutes
		RefreshTTL int    `yaml:"refresh_ttl"` // refresh token lifetime, hours
	} `yaml:"jwt"`

	Matching struct {
		DefaultSearchRadiusKm      float64 `yaml:"default_search_radius_km"`
		MaxSearchRadiusKm          float64 `yaml:"max_search_radius_km"`
		EscalationTimeoutMinutes   int     `yaml:"escalation_timeout_minutes"`
		MaxAutoEscalations         int     `yaml:"max_auto_escalations"`
		EscalationSweepIntervalSec int     `yaml:"escalation_sweep_interval_seconds"`
	} `yaml:"matching"`

	Storage struct {
		Type      string `yaml:"type"`       // local, s3, cloudflare_r2
		BasePath  string `yaml:"base_path"`  // local storage root
		BaseURL   string `yaml:"base_url"`   // public URL base
		Bucket    string `yaml:"bucket"`     // S3/R2
		Region    string `yaml:"region"`     // S3
		AccessKey string `yaml:"access_key"` // S3/R2
		SecretKey string `yaml:"secret_key"` // S3/R2
		Endpoint  string `yaml:"endpoint"`   // R2 or custom S3
		UseSSL    bool   `yaml:"use_ssl"`
	} `yaml:"storage"`

	FirstAdminEmail    string `yaml:"first_admin_email"`
	FirstAdminPassword string `yaml:"first_admin_password"`
}

var AppConfig *Config

// LoadConfig reads config.yaml, or falls back to environment variables
// when DATABASE_URL is set.
func LoadConfig() {
	var cfg Config

	dbURL := os.Getenv("DATABASE_URL")

	if dbURL == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}

		applyDefaults(&cfg)
		AppConfig = &cfg
		return
	}

	cfg.Database.DSN = dbURL
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	cfg.JWT.TTL = 60
	cfg.JWT.RefreshTTL = 24 * 7

	cfg.Matching.DefaultSearchRadiusKm = envFloat("DEFAULT_SEARCH_RADIUS_KM", 10)
	cfg.Matching.MaxSearchRadiusKm = envFloat("MAX_SEARCH_RADIUS_KM", 100)
	cfg.Matching.EscalationTimeoutMinutes = envInt("ESCALATION_TIMEOUT_MINUTES", 30)
	cfg.Matching.MaxAutoEscalations = envInt("MAX_AUTO_ESCALATIONS", 3)
	cfg.Matching.EscalationSweepIntervalSec = envInt("ESCALATION_SWEEP_INTERVAL_SECONDS", 60)

	cfg.Storage.Type = "local"
	cfg.Storage.BasePath = "./uploads"
	cfg.Storage.BaseURL = "/api/v1/files"

	cfg.FirstAdminEmail = os.Getenv("FIRST_ADMIN_EMAIL")
	cfg.FirstAdminPassword = os.Getenv("FIRST_ADMIN_PASSWORD")

	applyDefaults(&cfg)
	AppConfig = &cfg
}

// applyDefaults fills matching knobs left at zero.
func applyDefaults(cfg *Config) {
	if cfg.Matching.DefaultSearchRadiusKm <= 0 {
		cfg.Matching.DefaultSearchRadiusKm = 10
	}
	if cfg.Matching.MaxSearchRadiusKm <= 0 {
		cfg.Matching.MaxSearchRadiusKm = 100
	}
	if cfg.Matching.EscalationTimeoutMinutes <= 0 {
		cfg.Matching.EscalationTimeoutMinutes = 30
	}
	if cfg.Matching.MaxAutoEscalations <= 0 {
		cfg.Matching.MaxAutoEscalations = 3
	}
	if cfg.Matching.EscalationSweepIntervalSec <= 0 {
		cfg.Matching.EscalationSweepIntervalSec = 60
	}
	if cfg.JWT.TTL <= 0 {
		cfg.JWT.TTL = 60
	}
	if cfg.JWT.RefreshTTL <= 0 {
		cfg.JWT.RefreshTTL = 24 * 7
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "local"
		cfg.Storage.BasePath = "./uploads"
		cfg.Storage.BaseURL = "/api/v1/files"
	}
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
