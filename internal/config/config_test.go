package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Port:           "8080",
		Env:            "development",
		LogLevel:       "info",
		JWTSecret:      DefaultJWTSecret,
		JWTExpiry:      DefaultJWTExpiry,
		RateLimitRPM:   DefaultRateLimitRPM,
		MaxUploadBytes: DefaultMaxUpload,
	}
}

func TestValidate_Development(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected valid development config, got %v", err)
	}
}

func TestValidate_ProductionRequiresSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Env = "production"
	cfg.DatabaseURL = "postgres://localhost/carbonrisk"

	if err := cfg.Validate(); err == nil {
		t.Fatal("Expected error for default JWT secret in production")
	}

	cfg.JWTSecret = "an-actual-secret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected valid production config, got %v", err)
	}
}

func TestValidate_ProductionRequiresDatabase(t *testing.T) {
	cfg := validConfig()
	cfg.Env = "production"
	cfg.JWTSecret = "an-actual-secret"

	if err := cfg.Validate(); err == nil {
		t.Fatal("Expected error for missing DATABASE_URL in production")
	}
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cfg := validConfig()
	cfg.JWTExpiry = -time.Hour
	if err := cfg.Validate(); err == nil {
		t.Fatal("Expected error for negative JWT expiry")
	}

	cfg = validConfig()
	cfg.MaxUploadBytes = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("Expected error for zero upload cap")
	}

	cfg = validConfig()
	cfg.Port = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("Expected error for empty port")
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port == "" {
		t.Error("Expected default port")
	}
	if cfg.JWTExpiry != DefaultJWTExpiry {
		t.Errorf("Expected default JWT expiry, got %v", cfg.JWTExpiry)
	}
}

func TestIsDevelopment(t *testing.T) {
	cfg := validConfig()
	if !cfg.IsDevelopment() {
		t.Error("Expected development mode")
	}
	cfg.Env = "production"
	if !cfg.IsProduction() {
		t.Error("Expected production mode")
	}
}
