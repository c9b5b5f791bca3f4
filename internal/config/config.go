// Package config loads and validates the application configuration.
package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Study    StudyConfig    `mapstructure:"study"    validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret"                     validate:"required,min=32"`
	TokenLifetimeMinutes        int    `mapstructure:"token_lifetime_minutes"         validate:"required,gt=0"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0"`
	BCryptCost                  int    `mapstructure:"bcrypt_cost"                    validate:"omitempty,gte=4,lte=31"`
}

// StudyConfig contains the tunable limits of the study session engine.
// Defaults match the product rules; they are configurable mainly for tests
// and staging environments.
type StudyConfig struct {
	DailyFreeQuota      int `mapstructure:"daily_free_quota"      validate:"required,gt=0"`
	SessionBatchSize    int `mapstructure:"session_batch_size"    validate:"required,gt=0"`
	UnlockDurationHours int `mapstructure:"unlock_duration_hours" validate:"required,gt=0"`
	StaleSessionHours   int `mapstructure:"stale_session_hours"   validate:"required,gt=0"`
}

// LLMConfig contains settings for the optional example-sentence enrichment.
// Enrichment is disabled when no API key is configured.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	ModelName    string `mapstructure:"model_name"`
	MaxRetries   int    `mapstructure:"max_retries"`
}

// Enabled reports whether sentence enrichment is configured.
func (c LLMConfig) Enabled() bool {
	return c.GeminiAPIKey != ""
}
