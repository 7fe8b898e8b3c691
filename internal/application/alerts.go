package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"miso-assistant/internal/domain"
)

// AlertThresholds are the limits a weather record is checked against.
// A zero threshold disables that check, except TempLow where 0°C is a
// meaningful freezing limit.
type AlertThresholds struct {
	TempHigh     float64
	TempLow      float64
	WindHigh     float64
	HumidityHigh float64
	HumidityLow  float64
}

func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		TempHigh:     35,
		TempLow:      0,
		WindHigh:     20,
		HumidityHigh: 90,
		HumidityLow:  20,
	}
}

// WeatherAlert is one threshold breach for a location.
type WeatherAlert struct {
	Location  string
	Parameter string
	Condition string // high or low
	Value     float64
	Threshold float64
	Message   string
}

// key identifies the alert for cooldown tracking; repeated breaches of
// the same parameter in the same direction are deduplicated per
// location.
func (a WeatherAlert) key() string {
	return a.Location + "|" + a.Parameter + "|" + a.Condition
}

// Check compares a weather record against the thresholds and returns
// one alert per breached limit. Temperature breaches report either high
// or low, never both.
func (t AlertThresholds) Check(record *domain.WeatherRecord) []WeatherAlert {
	var alerts []WeatherAlert

	temp := float64(record.Temperature)
	switch {
	case t.TempHigh != 0 && temp > t.TempHigh:
		alerts = append(alerts, WeatherAlert{
			Location: record.Location, Parameter: "temperature", Condition: "high",
			Value: temp, Threshold: t.TempHigh,
			Message: fmt.Sprintf("High temperature alert: %.0f°C exceeds threshold of %.0f°C", temp, t.TempHigh),
		})
	case temp < t.TempLow:
		alerts = append(alerts, WeatherAlert{
			Location: record.Location, Parameter: "temperature", Condition: "low",
			Value: temp, Threshold: t.TempLow,
			Message: fmt.Sprintf("Low temperature alert: %.0f°C is below threshold of %.0f°C", temp, t.TempLow),
		})
	}

	if t.WindHigh != 0 && record.WindSpeed > t.WindHigh {
		alerts = append(alerts, WeatherAlert{
			Location: record.Location, Parameter: "wind_speed", Condition: "high",
			Value: record.WindSpeed, Threshold: t.WindHigh,
			Message: fmt.Sprintf("High wind alert: %.1f m/s exceeds threshold of %.1f m/s", record.WindSpeed, t.WindHigh),
		})
	}

	humidity := float64(record.Humidity)
	switch {
	case t.HumidityHigh != 0 && humidity > t.HumidityHigh:
		alerts = append(alerts, WeatherAlert{
			Location: record.Location, Parameter: "humidity", Condition: "high",
			Value: humidity, Threshold: t.HumidityHigh,
			Message: fmt.Sprintf("High humidity alert: %.0f%% exceeds threshold of %.0f%%", humidity, t.HumidityHigh),
		})
	case t.HumidityLow != 0 && humidity < t.HumidityLow:
		alerts = append(alerts, WeatherAlert{
			Location: record.Location, Parameter: "humidity", Condition: "low",
			Value: humidity, Threshold: t.HumidityLow,
			Message: fmt.Sprintf("Low humidity alert: %.0f%% is below threshold of %.0f%%", humidity, t.HumidityLow),
		})
	}

	return alerts
}

// AlertMonitor polls current conditions for a set of locations and
// notifies on threshold breaches. Repeated breaches are suppressed for
// the cooldown period so a sustained heat wave fires once an hour, not
// once a sweep.
type AlertMonitor struct {
	weather    WeatherGateway
	notifier   Notifier
	thresholds AlertThresholds
	locations  []string
	interval   time.Duration
	cooldown   time.Duration
	logger     *slog.Logger

	lastSent map[string]time.Time
}

func NewAlertMonitor(
	weather WeatherGateway,
	notifier Notifier,
	thresholds AlertThresholds,
	locations []string,
	interval time.Duration,
	cooldown time.Duration,
	logger *slog.Logger,
) *AlertMonitor {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if cooldown <= 0 {
		cooldown = time.Hour
	}
	return &AlertMonitor{
		weather:    weather,
		notifier:   notifier,
		thresholds: thresholds,
		locations:  locations,
		interval:   interval,
		cooldown:   cooldown,
		logger:     logger,
		lastSent:   make(map[string]time.Time),
	}
}

func (m *AlertMonitor) Run(ctx context.Context) error {
	m.logger.Info("weather alert monitor started",
		"locations", m.locations,
		"interval", m.interval,
	)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Sweep(ctx, time.Now())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			m.Sweep(ctx, now)
		}
	}
}

// Sweep checks every configured location once. Gateway failures skip
// the location: alerting on synthesized fallback data would be noise.
func (m *AlertMonitor) Sweep(ctx context.Context, now time.Time) {
	for _, location := range m.locations {
		record, err := m.weather.CurrentWeather(ctx, location)
		if err != nil {
			m.logger.Warn("alert sweep: weather gateway failed", "location", location, "error", err)
			continue
		}
		record.Location = location

		for _, alert := range m.thresholds.Check(record) {
			if last, ok := m.lastSent[alert.key()]; ok && now.Sub(last) < m.cooldown {
				continue
			}

			message := fmt.Sprintf("Weather alert for %s: %s", location, alert.Message)
			if err := m.notifier.Notify(ctx, message); err != nil {
				m.logger.Error("sending weather alert", "location", location, "error", err)
				continue
			}
			m.logger.Info("weather alert sent",
				"location", location,
				"parameter", alert.Parameter,
				"condition", alert.Condition,
			)
			m.lastSent[alert.key()] = now
		}
	}
}
