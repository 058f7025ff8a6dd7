package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is built once at startup and never mutated afterwards.
type Config struct {
	Logger     LoggerConfig
	LLM        LLMConfig
	Generation GenerationConfig
}

type LoggerConfig struct {
	Level string
	Env   string
}

// LLMConfig holds the identities of both backends and the fallback policy.
type LLMConfig struct {
	Primary         PrimaryConfig
	Fallback        FallbackConfig
	FallbackEnabled bool
	Temperature     float64
	MaxOutputTokens int
}

// PrimaryConfig selects the remote generative backend.
// Provider is "gemini" or "openai".
type PrimaryConfig struct {
	Provider string
	Gemini   GeminiConfig
	OpenAI   OpenAIConfig
}

type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// FallbackConfig points at the local Ollama host.
type FallbackConfig struct {
	Host    string
	Model   string
	Timeout time.Duration
}

type GenerationConfig struct {
	SourceTextLimit     int
	DefaultNumQuestions int
	MaxNumQuestions     int
	PromptTemplateFile  string
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// envKeys maps config keys to the environment variables that override them.
var envKeys = map[string]string{
	"logger.level":                 "LOG_LEVEL",
	"logger.env":                   "ENV",
	"llm.primary.provider":         "LLM_PROVIDER",
	"llm.primary.gemini.api_key":   "GEMINI_API_KEY",
	"llm.primary.gemini.model":     "GEMINI_MODEL",
	"llm.primary.gemini.timeout":   "GEMINI_TIMEOUT_SECONDS",
	"llm.primary.openai.api_key":   "OPENAI_API_KEY",
	"llm.primary.openai.model":     "OPENAI_MODEL",
	"llm.primary.openai.base_url":  "OPENAI_BASE_URL",
	"llm.primary.openai.timeout":   "OPENAI_TIMEOUT_SECONDS",
	"llm.fallback.host":            "OLLAMA_HOST",
	"llm.fallback.model":           "OLLAMA_MODEL",
	"llm.fallback.timeout":         "OLLAMA_TIMEOUT_SECONDS",
	"llm.fallback_enabled":         "USE_OLLAMA_FALLBACK",
	"llm.temperature":              "LLM_TEMPERATURE",
	"llm.max_output_tokens":        "LLM_MAX_OUTPUT_TOKENS",
	"generation.source_text_limit": "QUIZ_SOURCE_TEXT_LIMIT",
	"generation.default_questions": "QUIZ_DEFAULT_QUESTIONS",
	"generation.max_questions":     "QUIZ_MAX_QUESTIONS",
	"generation.prompt_template":   "QUIZ_PROMPT_TEMPLATE",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.env", "development")
	v.SetDefault("llm.primary.provider", ProviderGemini)
	v.SetDefault("llm.primary.gemini.model", "gemini-1.5-flash")
	v.SetDefault("llm.primary.gemini.timeout", 60)
	v.SetDefault("llm.primary.openai.model", "gpt-4o-mini")
	v.SetDefault("llm.primary.openai.timeout", 60)
	v.SetDefault("llm.fallback.host", "http://localhost:11434")
	v.SetDefault("llm.fallback.model", "mistral")
	v.SetDefault("llm.fallback.timeout", 60)
	v.SetDefault("llm.fallback_enabled", "1")
	v.SetDefault("llm.temperature", 0.15)
	v.SetDefault("llm.max_output_tokens", 1500)
	v.SetDefault("generation.source_text_limit", 12000)
	v.SetDefault("generation.default_questions", 5)
	v.SetDefault("generation.max_questions", 50)
}

// LoadConfig reads an optional config.yaml from . or ./configs and overlays
// the environment on top of it.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	cfg := &Config{
		Logger: LoggerConfig{
			Level: v.GetString("logger.level"),
			Env:   v.GetString("logger.env"),
		},
		LLM: LLMConfig{
			Primary: PrimaryConfig{
				Provider: strings.ToLower(v.GetString("llm.primary.provider")),
				Gemini: GeminiConfig{
					APIKey:  str(v, "llm.primary.gemini.api_key"),
					Model:   str(v, "llm.primary.gemini.model"),
					Timeout: seconds(v, "llm.primary.gemini.timeout"),
				},
				OpenAI: OpenAIConfig{
					APIKey:  str(v, "llm.primary.openai.api_key"),
					Model:   str(v, "llm.primary.openai.model"),
					BaseURL: str(v, "llm.primary.openai.base_url"),
					Timeout: seconds(v, "llm.primary.openai.timeout"),
				},
			},
			Fallback: FallbackConfig{
				Host:    str(v, "llm.fallback.host"),
				Model:   str(v, "llm.fallback.model"),
				Timeout: seconds(v, "llm.fallback.timeout"),
			},
			FallbackEnabled: ParseFlag(v.GetString("llm.fallback_enabled")),
			Temperature:     v.GetFloat64("llm.temperature"),
			MaxOutputTokens: v.GetInt("llm.max_output_tokens"),
		},
		Generation: GenerationConfig{
			SourceTextLimit:     v.GetInt("generation.source_text_limit"),
			DefaultNumQuestions: v.GetInt("generation.default_questions"),
			MaxNumQuestions:     v.GetInt("generation.max_questions"),
			PromptTemplateFile:  str(v, "generation.prompt_template"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func str(v *viper.Viper, key string) string {
	return strings.TrimSpace(v.GetString(key))
}

// seconds reads an integer number of seconds. Plain numbers are the norm
// (GEMINI_TIMEOUT_SECONDS=60) but duration strings such as "90s" work too.
func seconds(v *viper.Viper, key string) time.Duration {
	raw := strings.TrimSpace(v.GetString(key))
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return time.Duration(v.GetInt(key)) * time.Second
}

// ParseFlag accepts 1/true/yes/on, case-insensitive.
func ParseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Validate only checks types and presence. A missing primary API key is
// allowed: the primary then fails with an auth error and fallback takes over.
func (c *Config) Validate() error {
	switch c.LLM.Primary.Provider {
	case ProviderGemini:
		if c.LLM.Primary.Gemini.Model == "" {
			return fmt.Errorf("GEMINI_MODEL cannot be empty")
		}
		if c.LLM.Primary.Gemini.Timeout <= 0 {
			return fmt.Errorf("GEMINI_TIMEOUT_SECONDS must be positive")
		}
	case ProviderOpenAI:
		if c.LLM.Primary.OpenAI.Model == "" {
			return fmt.Errorf("OPENAI_MODEL cannot be empty")
		}
		if c.LLM.Primary.OpenAI.Timeout <= 0 {
			return fmt.Errorf("OPENAI_TIMEOUT_SECONDS must be positive")
		}
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.LLM.Primary.Provider)
	}

	if c.LLM.FallbackEnabled {
		if c.LLM.Fallback.Host == "" {
			return fmt.Errorf("OLLAMA_HOST cannot be empty when fallback is enabled")
		}
		if c.LLM.Fallback.Model == "" {
			return fmt.Errorf("OLLAMA_MODEL cannot be empty when fallback is enabled")
		}
		if c.LLM.Fallback.Timeout <= 0 {
			return fmt.Errorf("OLLAMA_TIMEOUT_SECONDS must be positive")
		}
	}

	if c.Generation.SourceTextLimit <= 0 {
		return fmt.Errorf("QUIZ_SOURCE_TEXT_LIMIT must be positive")
	}
	if c.Generation.MaxNumQuestions < 1 {
		return fmt.Errorf("QUIZ_MAX_QUESTIONS must be at least 1")
	}
	if c.Generation.DefaultNumQuestions < 1 || c.Generation.DefaultNumQuestions > c.Generation.MaxNumQuestions {
		return fmt.Errorf("QUIZ_DEFAULT_QUESTIONS must be between 1 and %d", c.Generation.MaxNumQuestions)
	}
	return nil
}

// PrimaryTimeout returns the timeout of whichever primary provider is selected.
func (c LLMConfig) PrimaryTimeout() time.Duration {
	if c.Primary.Provider == ProviderOpenAI {
		return c.Primary.OpenAI.Timeout
	}
	return c.Primary.Gemini.Timeout
}
