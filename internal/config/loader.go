package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config is the structure of config.yaml.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Queryd     QuerydConfig     `yaml:"queryd"`
	Model      ModelConfig      `yaml:"model"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Transcript TranscriptConfig `yaml:"transcript"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig holds the agent HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// QuerydConfig holds the query-execution service settings.
type QuerydConfig struct {
	Addr string `yaml:"addr"`
}

// ModelConfig holds chat model settings shared by all pipeline calls.
type ModelConfig struct {
	Provider             string  `yaml:"provider"` // openai or ollama
	Name                 string  `yaml:"name"`
	BaseURL              string  `yaml:"base_url"`
	MaxTokens            int     `yaml:"max_tokens"`
	Temperature          float64 `yaml:"temperature"`
	SmallTalkTemperature float64 `yaml:"small_talk_temperature"`
	InsightTemperature   float64 `yaml:"insight_temperature"`
}

// PipelineConfig holds orchestration settings.
type PipelineConfig struct {
	MemoryPairs       int `yaml:"memory_pairs"`        // user/assistant pairs kept in memory
	TersePromptTokens int `yaml:"terse_prompt_tokens"` // max tokens for context enrichment
}

// TranscriptConfig selects the transcript sink.
type TranscriptConfig struct {
	Sink     string `yaml:"sink"` // csv, redis, or none
	CSVPath  string `yaml:"csv_path"`
	RedisKey string `yaml:"redis_key"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // console or json
	Output     string `yaml:"output"` // stdout, stderr, or file
	TimeFormat string `yaml:"time_format"`
	FilePath   string `yaml:"file_path"`
}

// Env holds secrets and endpoints taken from the environment.
type Env struct {
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	BackendURL   string `envconfig:"BACKEND_URL" default:"http://localhost:8000/query"`
	RedisURL     string `envconfig:"REDIS_URL"`
	DatabaseURL  string `envconfig:"DATABASE_URL"`
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := defaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing YAML: %w", err)
	}

	return config, nil
}

// LoadEnv processes environment variables into Env.
func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %w", err)
	}
	return &env, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8100"},
		Queryd: QuerydConfig{Addr: ":8000"},
		Model: ModelConfig{
			Provider:             "openai",
			Name:                 "gpt-4o-mini",
			MaxTokens:            1500,
			Temperature:          0,
			SmallTalkTemperature: 0.8,
			InsightTemperature:   0.3,
		},
		Pipeline: PipelineConfig{
			MemoryPairs:       4,
			TersePromptTokens: 4,
		},
		Transcript: TranscriptConfig{
			Sink:     "csv",
			CSVPath:  "conversation_history.csv",
			RedisKey: "orderboard:transcript",
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			Output:     "stdout",
			TimeFormat: "rfc3339",
		},
	}
}
