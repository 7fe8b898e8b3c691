package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"miso-assistant/config"
	"miso-assistant/internal/application"
	"miso-assistant/internal/domain"
	"miso-assistant/internal/infra/anthropic"
	"miso-assistant/internal/infra/chat"
	"miso-assistant/internal/infra/gemini"
	"miso-assistant/internal/infra/homeassistant"
	"miso-assistant/internal/infra/homesim"
	"miso-assistant/internal/infra/newsapi"
	"miso-assistant/internal/infra/openai"
	"miso-assistant/internal/infra/openweather"
	"miso-assistant/internal/infra/pushover"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// API keys usually live in .env during development; missing file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	source := createChatSource(cfg.Chat, logger)

	var stt application.SpeechToText
	if cfg.OpenAI.APIKey != "" {
		stt = openai.NewWhisperClient(cfg.OpenAI.APIKey, cfg.OpenAI.Language)
	} else {
		stt = &application.NoopSTT{}
	}

	registry := createRegistry(cfg.Home, logger)
	weather := openweather.NewClient(cfg.Weather.APIKey)
	news := newsapi.NewClient(cfg.News.APIKey, cfg.News.Country)
	fallback := application.NewFallbackGenerator()

	interpreter := application.NewInterpreter(registry, weather, news, fallback, logger)

	var completer application.Completer
	switch cfg.LLM.Provider {
	case "gemini":
		completer = gemini.NewClient(cfg.LLM.Gemini.APIKey, cfg.LLM.Gemini.Model)
	default:
		completer = anthropic.NewClaudeClient(cfg.LLM.Anthropic.APIKey, cfg.LLM.Anthropic.Model)
	}

	dispatcher := application.NewDispatcher(interpreter, completer, cfg.LLM.SystemPrompt, logger)

	var notifier application.Notifier
	if cfg.Pushover.Enabled {
		notifier = pushover.NewClient(cfg.Pushover.Token, cfg.Pushover.UserKey)
	} else {
		notifier = &application.NoopNotifier{}
	}

	assistant := application.NewAssistant(source, stt, dispatcher, notifier, logger)

	if cfg.Alerts.Enabled && len(cfg.Alerts.Locations) > 0 {
		monitor := application.NewAlertMonitor(
			weather,
			notifier,
			alertThresholds(cfg.Alerts.Thresholds),
			cfg.Alerts.Locations,
			time.Duration(cfg.Alerts.IntervalMinutes)*time.Minute,
			time.Duration(cfg.Alerts.CooldownMinutes)*time.Minute,
			logger,
		)
		go func() {
			if err := monitor.Run(ctx); err != nil && err != context.Canceled {
				logger.Error("alert monitor error", "error", err)
			}
		}()
	}

	if len(cfg.Schedules) > 0 {
		scheduler, err := application.NewScheduler(registry, scheduleEntries(cfg.Schedules), logger)
		if err != nil {
			logger.Error("invalid schedule", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := scheduler.Run(ctx); err != nil && err != context.Canceled {
				logger.Error("scheduler error", "error", err)
			}
		}()
	}

	logger.Info("starting miso assistant",
		"chat_source", cfg.Chat.Source,
		"home_backend", cfg.Home.Backend,
		"llm_provider", cfg.LLM.Provider,
	)

	if err := assistant.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("assistant error", "error", err)
		os.Exit(1)
	}
}

func alertThresholds(cfg config.ThresholdsConfig) application.AlertThresholds {
	return application.AlertThresholds{
		TempHigh:     cfg.TempHigh,
		TempLow:      cfg.TempLow,
		WindHigh:     cfg.WindHigh,
		HumidityHigh: cfg.HumidityHigh,
		HumidityLow:  cfg.HumidityLow,
	}
}

func scheduleEntries(cfg []config.ScheduleEntry) []application.ScheduleEntry {
	entries := make([]application.ScheduleEntry, 0, len(cfg))
	for _, e := range cfg {
		entries = append(entries, application.ScheduleEntry{
			EntityID:    e.EntityID,
			Action:      domain.Action(e.Action),
			At:          e.At,
			Days:        e.Days,
			Temperature: e.Temperature,
			Brightness:  e.Brightness,
		})
	}
	return entries
}

func createChatSource(cfg config.ChatConfig, logger *slog.Logger) application.ChatSource {
	switch cfg.Source {
	case "http":
		return chat.NewHTTPSource(cfg.HTTPAddr, cfg.AuthToken, logger)
	case "file":
		return chat.NewFileSource(cfg.ScriptDir)
	case "microphone":
		format := application.DefaultAudioFormat()
		if cfg.SampleRate > 0 {
			format.SampleRate = cfg.SampleRate
		}
		return chat.NewMicrophoneSource(format, logger)
	default:
		logger.Warn("unknown chat source, using http", "source", cfg.Source)
		return chat.NewHTTPSource(cfg.HTTPAddr, cfg.AuthToken, logger)
	}
}

func createRegistry(cfg config.HomeConfig, logger *slog.Logger) application.DeviceRegistry {
	if cfg.Backend == "homeassistant" && cfg.URL != "" {
		return homeassistant.NewClient(cfg.URL, cfg.Token)
	}
	return homesim.NewRegistry(logger)
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
