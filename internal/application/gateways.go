package application

import (
	"context"

	"miso-assistant/internal/domain"
)

// WeatherGateway wraps an external weather data provider. Errors are
// recovered by the interpreter via the fallback generator, never
// surfaced to the user.
type WeatherGateway interface {
	CurrentWeather(ctx context.Context, location string) (*domain.WeatherRecord, error)
	Forecast(ctx context.Context, location string, days int) ([]domain.ForecastEntry, error)
	IconURL(code string) string
}

// NewsGateway wraps an external news provider. The edition country is
// the gateway's own configuration. Unlike weather there is no fallback;
// errors surface as an apologetic command result.
type NewsGateway interface {
	TopHeadlines(ctx context.Context, category string, pageSize int) ([]domain.NewsArticle, error)
	Search(ctx context.Context, query string, pageSize int) ([]domain.NewsArticle, error)
}

// DeviceRegistry is the catalog of home entities. All mutation goes
// through CallService; callers never touch entities directly.
type DeviceRegistry interface {
	States(ctx context.Context) ([]domain.Entity, error)
	CallService(ctx context.Context, d domain.EntityDomain, action domain.Action, data map[string]any) error
	FriendlyNames(ctx context.Context) (map[string]string, error)
	Summary() string
}

// Completer is the language-model gateway used when no special command
// matches.
type Completer interface {
	Complete(ctx context.Context, messages []domain.ChatMessage, systemPrompt string) (string, error)
}
