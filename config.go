package triviagen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Port      string
	GinMode   string
	LogLevel  string
	LogFormat string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	Generation    GenerationParams
	MaxAttempts   int

	QuestionLogPath string
	StatsPath       string
	TranscriptDir   string

	// AllowedOrigins is the CORS allow list. Empty means all origins.
	AllowedOrigins []string
	SessionSecret  string

	GenerateRatePerMinute int
	GenerateRateBurst     int
}

func setDefaults(v *viper.Viper) {
	gen := DefaultGenerationParams()

	v.SetDefault("port", "5000")
	v.SetDefault("gin_mode", "release")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "pretty")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_base_url", "")
	v.SetDefault("openai_model", gen.Model)
	v.SetDefault("generation_temperature", gen.Temperature)
	v.SetDefault("generation_max_tokens", gen.MaxTokens)
	v.SetDefault("generation_timeout", gen.Timeout)
	v.SetDefault("max_attempts", DefaultMaxAttempts)
	v.SetDefault("question_log_path", "trivia_questions.csv")
	v.SetDefault("stats_path", "stats.json")
	v.SetDefault("transcript_dir", "")
	v.SetDefault("allowed_origins", "")
	v.SetDefault("session_secret", "")
	v.SetDefault("generate_rate_per_minute", 30)
	v.SetDefault("generate_rate_burst", 5)
}

// LoadConfig reads configuration from the environment, an optional .env file
// and an optional config file named by TRIVIA_CONFIG. Environment variables
// win over the config file, which wins over defaults.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // .env is optional

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := v.GetString("trivia_config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	return &Config{
		Port:          v.GetString("port"),
		GinMode:       v.GetString("gin_mode"),
		LogLevel:      v.GetString("log_level"),
		LogFormat:     v.GetString("log_format"),
		OpenAIAPIKey:  cleanAPIKey(v.GetString("openai_api_key")),
		OpenAIBaseURL: v.GetString("openai_base_url"),
		Generation: GenerationParams{
			Model:       v.GetString("openai_model"),
			Temperature: float32(v.GetFloat64("generation_temperature")),
			MaxTokens:   v.GetInt("generation_max_tokens"),
			Timeout:     v.GetDuration("generation_timeout"),
		},
		MaxAttempts:           v.GetInt("max_attempts"),
		QuestionLogPath:       v.GetString("question_log_path"),
		StatsPath:             v.GetString("stats_path"),
		TranscriptDir:         v.GetString("transcript_dir"),
		AllowedOrigins:        parseOrigins(v.GetString("allowed_origins")),
		SessionSecret:         v.GetString("session_secret"),
		GenerateRatePerMinute: v.GetInt("generate_rate_per_minute"),
		GenerateRateBurst:     v.GetInt("generate_rate_burst"),
	}, nil
}

// Validate reports every setting that would make the service unusable.
func (c *Config) Validate() error {
	var errs []error
	if c.OpenAIAPIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required"))
	}
	if c.Generation.Model == "" {
		errs = append(errs, errors.New("OPENAI_MODEL must not be empty"))
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		errs = append(errs, fmt.Errorf("GENERATION_TEMPERATURE must be within [0, 2], got %v", c.Generation.Temperature))
	}
	if c.Generation.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("GENERATION_MAX_TOKENS must be positive, got %d", c.Generation.MaxTokens))
	}
	if c.Generation.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("GENERATION_TIMEOUT must be positive, got %s", c.Generation.Timeout))
	}
	if c.MaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("MAX_ATTEMPTS must be positive, got %d", c.MaxAttempts))
	}
	if c.QuestionLogPath == "" || c.StatsPath == "" {
		errs = append(errs, errors.New("QUESTION_LOG_PATH and STATS_PATH must not be empty"))
	}
	return errors.Join(errs...)
}

// cleanAPIKey drops a leading "OPENAI_API_KEY=" left over from a pasted
// .env line.
func cleanAPIKey(key string) string {
	key = strings.TrimSpace(key)
	if rest, ok := strings.CutPrefix(key, "OPENAI_API_KEY="); ok {
		return strings.TrimSpace(rest)
	}
	return key
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		return nil
	}
	return origins
}
