package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the tutor system
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge"`
	Session   SessionConfig   `mapstructure:"session"`
	Speech    SpeechConfig    `mapstructure:"speech"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

// LLMConfig contains language model and embedding settings
type LLMConfig struct {
	Provider        string        `mapstructure:"provider"` // openai
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	CompletionModel string        `mapstructure:"completion_model"`
	EmbeddingModel  string        `mapstructure:"embedding_model"`
	Temperature     float32       `mapstructure:"temperature"`
	MaxTokens       int           `mapstructure:"max_tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// KnowledgeConfig locates the document corpus and the persisted vector index
type KnowledgeConfig struct {
	BaseDir    string `mapstructure:"base_dir"`    // directory of .txt/.pdf documents
	PersistDir string `mapstructure:"persist_dir"` // vector index persistence path
	TopK       int    `mapstructure:"top_k"`
}

// SessionConfig selects and tunes the session store backend
type SessionConfig struct {
	Store      string        `mapstructure:"store"` // inmemory, redis
	MaxHistory int           `mapstructure:"max_history"`
	TTL        time.Duration `mapstructure:"ttl"` // redis only; 0 means no expiry
	Redis      RedisConfig   `mapstructure:"redis"`
}

// RedisConfig contains redis connection settings
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SpeechConfig contains STT/TTS provider selection and credentials
type SpeechConfig struct {
	STTEnabled     bool   `mapstructure:"stt_enabled"`
	TTSEnabled     bool   `mapstructure:"tts_enabled"`
	STTProvider    string `mapstructure:"stt_provider"` // openai, google, huggingface, local
	TTSProvider    string `mapstructure:"tts_provider"` // google, elevenlabs, openai, local
	GoogleAPIKey   string `mapstructure:"google_api_key"`
	ElevenLabsKey  string `mapstructure:"elevenlabs_api_key"`
	HuggingFaceKey string `mapstructure:"huggingface_api_key"`
}

// TelemetryConfig contains metrics settings
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func (c *Config) Validate() error {
	if c.Knowledge.TopK <= 0 {
		return fmt.Errorf("knowledge.top_k must be > 0")
	}
	if c.Session.MaxHistory <= 0 {
		return fmt.Errorf("session.max_history must be > 0")
	}
	switch c.Session.Store {
	case "inmemory", "redis":
	default:
		return fmt.Errorf("session.store must be inmemory or redis, got %q", c.Session.Store)
	}
	return nil
}

// LoadConfig reads configuration from file and environment (TUTOR_* overrides).
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.default_timeout", "60s")
	viper.SetDefault("server.listen", ":8000")
	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.completion_model", "gpt-3.5-turbo")
	viper.SetDefault("llm.embedding_model", "text-embedding-3-small")
	viper.SetDefault("llm.temperature", 0.7)
	viper.SetDefault("llm.timeout", "30s")
	viper.SetDefault("knowledge.base_dir", "knowledge_base")
	viper.SetDefault("knowledge.persist_dir", "vector_db")
	viper.SetDefault("knowledge.top_k", 3)
	viper.SetDefault("session.store", "inmemory")
	viper.SetDefault("session.max_history", 20)
	viper.SetDefault("speech.stt_provider", "openai")
	viper.SetDefault("speech.tts_provider", "google")
	viper.SetDefault("telemetry.enabled", true)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("TUTOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Config file is optional; defaults plus env are enough to run.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	if config.LLM.APIKey == "" {
		config.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if err := config.Validate(); err != nil {
		panic(err)
	}
	return &config
}
