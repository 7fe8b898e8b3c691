package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Chat      ChatConfig      `yaml:"chat"`
	Weather   WeatherConfig   `yaml:"weather"`
	News      NewsConfig      `yaml:"news"`
	LLM       LLMConfig       `yaml:"llm"`
	Home      HomeConfig      `yaml:"home"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Pushover  PushoverConfig  `yaml:"pushover"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	Schedules []ScheduleEntry `yaml:"schedules"`
	Log       LogConfig       `yaml:"log"`
}

type ChatConfig struct {
	Source     string `yaml:"source"` // http, file or microphone
	HTTPAddr   string `yaml:"http_addr"`
	AuthToken  string `yaml:"auth_token"`
	ScriptDir  string `yaml:"script_dir"`
	SampleRate int    `yaml:"sample_rate"`
}

type WeatherConfig struct {
	APIKey string `yaml:"api_key"`
}

type NewsConfig struct {
	APIKey  string `yaml:"api_key"`
	Country string `yaml:"country"`
}

type LLMConfig struct {
	Provider     string          `yaml:"provider"` // anthropic or gemini
	SystemPrompt string          `yaml:"system_prompt"`
	Anthropic    AnthropicConfig `yaml:"anthropic"`
	Gemini       GeminiConfig    `yaml:"gemini"`
}

type AnthropicConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type HomeConfig struct {
	Backend string `yaml:"backend"` // simulated or homeassistant
	URL     string `yaml:"url"`
	Token   string `yaml:"token"`
}

type OpenAIConfig struct {
	APIKey   string `yaml:"api_key"`
	Language string `yaml:"language"`
}

type PushoverConfig struct {
	Token   string `yaml:"token"`
	UserKey string `yaml:"user_key"`
	Enabled bool   `yaml:"enabled"`
}

type AlertsConfig struct {
	Enabled         bool             `yaml:"enabled"`
	Locations       []string         `yaml:"locations"`
	IntervalMinutes int              `yaml:"interval_minutes"`
	CooldownMinutes int              `yaml:"cooldown_minutes"`
	Thresholds      ThresholdsConfig `yaml:"thresholds"`
}

// ThresholdsConfig fields left at zero fall back to the built-in
// defaults, except temp_low where 0°C is the default itself.
type ThresholdsConfig struct {
	TempHigh     float64 `yaml:"temp_high"`
	TempLow      float64 `yaml:"temp_low"`
	WindHigh     float64 `yaml:"wind_high"`
	HumidityHigh float64 `yaml:"humidity_high"`
	HumidityLow  float64 `yaml:"humidity_low"`
}

// ScheduleEntry mirrors application.ScheduleEntry; kept separate so the
// config package stays free of domain imports.
type ScheduleEntry struct {
	EntityID    string   `yaml:"entity_id"`
	Action      string   `yaml:"action"`
	At          string   `yaml:"at"`
	Days        []string `yaml:"days"`
	Temperature float64  `yaml:"temperature"`
	Brightness  int      `yaml:"brightness"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Chat.Source == "" {
		c.Chat.Source = "http"
	}
	if c.Chat.HTTPAddr == "" {
		c.Chat.HTTPAddr = ":8080"
	}
	if c.Chat.ScriptDir == "" {
		c.Chat.ScriptDir = "./scripts"
	}
	if c.Chat.SampleRate == 0 {
		c.Chat.SampleRate = 16000
	}
	if c.News.Country == "" {
		c.News.Country = "us"
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "anthropic"
	}
	if c.LLM.Anthropic.Model == "" {
		c.LLM.Anthropic.Model = "claude-sonnet-4-20250514"
	}
	if c.LLM.Gemini.Model == "" {
		c.LLM.Gemini.Model = "gemini-2.0-flash"
	}
	if c.Home.Backend == "" {
		c.Home.Backend = "simulated"
	}
	if c.OpenAI.Language == "" {
		c.OpenAI.Language = "en"
	}
	if c.Alerts.IntervalMinutes == 0 {
		c.Alerts.IntervalMinutes = 15
	}
	if c.Alerts.CooldownMinutes == 0 {
		c.Alerts.CooldownMinutes = 60
	}
	if c.Alerts.Thresholds.TempHigh == 0 {
		c.Alerts.Thresholds.TempHigh = 35
	}
	if c.Alerts.Thresholds.WindHigh == 0 {
		c.Alerts.Thresholds.WindHigh = 20
	}
	if c.Alerts.Thresholds.HumidityHigh == 0 {
		c.Alerts.Thresholds.HumidityHigh = 90
	}
	if c.Alerts.Thresholds.HumidityLow == 0 {
		c.Alerts.Thresholds.HumidityLow = 20
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}
