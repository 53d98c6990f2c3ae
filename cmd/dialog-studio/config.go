package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	apiOpenAI = "openai"
	apiGemini = "gemini"
)

// Config is read from an optional YAML file, then overridden by the environment.
type Config struct {
	LearningPath string `yaml:"learning_path" env:"DIALOG_STUDIO_LEARNING"`
	DataDir      string `yaml:"data_dir"      env:"DIALOG_STUDIO_DATA_DIR"`

	APIKey      string `yaml:"openai_api_key" env:"OPENAI_API_KEY"`
	BasicModel  string `yaml:"basic_model"    env:"DIALOG_STUDIO_BASIC_MODEL"`
	HeavyModel  string `yaml:"heavy_model"    env:"DIALOG_STUDIO_HEAVY_MODEL"`
	SpeechModel string `yaml:"speech_model"   env:"DIALOG_STUDIO_SPEECH_MODEL"`

	// CompletionAPI routes dialog and plot completions to "openai" or "gemini".
	// Alignment and speech always use OpenAI.
	CompletionAPI    string `yaml:"completion_api"     env:"DIALOG_STUDIO_COMPLETION_API"`
	GeminiAPIKey     string `yaml:"gemini_api_key"     env:"GEMINI_API_KEY"`
	GeminiBasicModel string `yaml:"gemini_basic_model" env:"DIALOG_STUDIO_GEMINI_BASIC_MODEL"`
	GeminiHeavyModel string `yaml:"gemini_heavy_model" env:"DIALOG_STUDIO_GEMINI_HEAVY_MODEL"`

	SaveDelay           time.Duration `yaml:"save_delay"           env:"DIALOG_STUDIO_SAVE_DELAY"`
	AudioCachePath      string        `yaml:"audio_cache_path"     env:"DIALOG_STUDIO_AUDIO_CACHE"`
	Player              string        `yaml:"player"               env:"DIALOG_STUDIO_PLAYER"`
	PrefetchConcurrency int           `yaml:"prefetch_concurrency" env:"DIALOG_STUDIO_PREFETCH_CONCURRENCY"`

	// StreamAlign translates through a streamed completion instead of a JSON schema response.
	StreamAlign bool `yaml:"stream_align" env:"DIALOG_STUDIO_STREAM_ALIGN"`

	LogMode string `yaml:"log_mode" env:"DIALOG_STUDIO_LOG_MODE"`
}

func (c Config) Validate() error {
	if c.LearningPath == "" {
		return errors.New("missing learning_path")
	}
	if c.DataDir == "" {
		return errors.New("missing data_dir")
	}
	if c.BasicModel == "" || c.HeavyModel == "" {
		return errors.New("missing basic_model/heavy_model")
	}
	if c.SpeechModel == "" {
		return errors.New("missing speech_model")
	}
	switch c.CompletionAPI {
	case apiOpenAI:
	case apiGemini:
		if c.GeminiBasicModel == "" || c.GeminiHeavyModel == "" {
			return errors.New("missing gemini_basic_model/gemini_heavy_model")
		}
	default:
		return fmt.Errorf("completion_api must be %s or %s, got %q", apiOpenAI, apiGemini, c.CompletionAPI)
	}
	if c.SaveDelay <= 0 {
		return errors.New("save_delay must be > 0")
	}
	if c.PrefetchConcurrency <= 0 {
		return errors.New("prefetch_concurrency must be > 0")
	}
	switch c.LogMode {
	case "dev", "prod":
	default:
		return fmt.Errorf("log_mode must be dev or prod, got %q", c.LogMode)
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		LearningPath:        "learning.json",
		DataDir:             "data",
		BasicModel:          "gpt-4.1-mini",
		HeavyModel:          "gpt-4.1",
		SpeechModel:         "gpt-4o-mini-tts",
		CompletionAPI:       apiOpenAI,
		GeminiBasicModel:    "gemini-2.0-flash",
		GeminiHeavyModel:    "gemini-2.5-pro",
		SaveDelay:           10 * time.Second,
		AudioCachePath:      filepath.Join(os.TempDir(), "dialog-studio-audio.db"),
		PrefetchConcurrency: 4,
		LogMode:             "prod",
	}
}

// loadConfig layers ENV over YAML over defaults. An explicit path that does not exist is
// an error; without one only the environment is read.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		path = os.Getenv("DIALOG_STUDIO_CONFIG")
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return Config{}, fmt.Errorf("config: file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}
