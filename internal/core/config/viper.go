package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/solatis/vizconf/internal/types"
)

// LoadConfig loads configuration using viper.
// CLI flags > environment (VZ_*, including .env) > config file > defaults.
func LoadConfig(configPath string) (*Config, error) {
	// Missing .env is the common case
	_ = godotenv.Load()

	v := viper.New()

	d := DefaultConfig()
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout.String())
	v.SetDefault("server.max_document_rules", d.Server.MaxDocumentRules)
	v.SetDefault("engine.base_namespace", d.Engine.BaseNamespace)
	v.SetDefault("engine.root_type", d.Engine.RootType)
	v.SetDefault("engine.cache_size", d.Engine.CacheSize)
	v.SetDefault("engine.rules_dir", d.Engine.RulesDir)
	v.SetDefault("database.url", d.Database.URL)

	v.SetEnvPrefix("VZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets are environment-only
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:             v.GetString("server.host"),
			Port:             v.GetInt("server.port"),
			RequestTimeout:   v.GetDuration("server.request_timeout"),
			MaxDocumentRules: v.GetInt("server.max_document_rules"),
		},
		Engine: EngineConfig{
			BaseNamespace: v.GetString("engine.base_namespace"),
			RootType:      v.GetString("engine.root_type"),
			CacheSize:     v.GetInt("engine.cache_size"),
			RulesDir:      v.GetString("engine.rules_dir"),
		},
		Database: DatabaseConfig{
			URL: v.GetString("database.url"),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks ranges and namespace shape.
func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.Server.RequestTimeout)
	}
	if cfg.Server.MaxDocumentRules <= 0 || cfg.Server.MaxDocumentRules > types.MaxDocumentRules {
		return fmt.Errorf("max_document_rules must be between 1 and %d, got %d", types.MaxDocumentRules, cfg.Server.MaxDocumentRules)
	}
	if cfg.Engine.CacheSize < 0 {
		return fmt.Errorf("cache_size must not be negative, got %d", cfg.Engine.CacheSize)
	}
	if !strings.HasSuffix(cfg.Engine.BaseNamespace, types.TypeSeparator) {
		return fmt.Errorf("base_namespace must end with %q, got %q", types.TypeSeparator, cfg.Engine.BaseNamespace)
	}
	if !strings.Contains(cfg.Engine.RootType, types.TypeSeparator) {
		return fmt.Errorf("root_type must be an absolute type id, got %q", cfg.Engine.RootType)
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets.
// Only the config file is inspected: VZ_HMAC_SECRET itself is legitimate.
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.InConfig("hmac_secret") || v.InConfig("server.hmac_secret") {
		return fmt.Errorf("HMAC secrets not allowed in config files (use VZ_HMAC_SECRET environment variable)")
	}
	return nil
}
