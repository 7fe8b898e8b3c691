package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"miso-assistant/internal/domain"
	"miso-assistant/internal/infra"
)

// Client fetches current conditions and forecasts from OpenWeatherMap,
// always in metric units.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

func NewClient(apiKey string) *Client {
	return NewClientWithURL(apiKey, "https://api.openweathermap.org/data/2.5")
}

func NewClientWithURL(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
	}
}

type currentResponse struct {
	Name    string `json:"name"`
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

func (c *Client) CurrentWeather(ctx context.Context, location string) (*domain.WeatherRecord, error) {
	var result currentResponse
	if err := c.get(ctx, "/weather", url.Values{"q": {location}}, &result); err != nil {
		return nil, err
	}

	record := &domain.WeatherRecord{
		Location:    result.Name,
		Temperature: round(result.Main.Temp),
		Humidity:    result.Main.Humidity,
		WindSpeed:   result.Wind.Speed,
		FeelsLike:   round(result.Main.FeelsLike),
		TempMin:     round(result.Main.TempMin),
		TempMax:     round(result.Main.TempMax),
	}
	if record.Location == "" {
		record.Location = location
	}
	if len(result.Weather) > 0 {
		record.Description = result.Weather[0].Description
		record.Icon = result.Weather[0].Icon
	}
	return record, nil
}

type forecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
	} `json:"list"`
}

// Forecast collapses the provider's 3-hourly list into one entry per
// future day, taking the midday point of each day. Today is never
// included.
func (c *Client) Forecast(ctx context.Context, location string, days int) ([]domain.ForecastEntry, error) {
	var result forecastResponse
	params := url.Values{"q": {location}, "cnt": {"40"}}
	if err := c.get(ctx, "/forecast", params, &result); err != nil {
		return nil, err
	}

	today := time.Now().Format("2006-01-02")
	byDay := make(map[string]domain.ForecastEntry)
	bestHour := make(map[string]int)
	var order []string

	for _, item := range result.List {
		ts := time.Unix(item.Dt, 0)
		day := ts.Format("2006-01-02")
		if day == today {
			continue
		}
		// Prefer the reading closest to midday for the day's summary.
		dist := absHour(ts)
		if prev, seen := bestHour[day]; seen && dist >= prev {
			continue
		}
		if _, seen := bestHour[day]; !seen {
			order = append(order, day)
		}
		bestHour[day] = dist

		e := domain.ForecastEntry{
			Date:        ts.Format("Mon, Jan 2"),
			Temperature: round(item.Main.Temp),
		}
		if len(item.Weather) > 0 {
			e.Description = item.Weather[0].Description
			e.Icon = item.Weather[0].Icon
		}
		byDay[day] = e
	}

	entries := make([]domain.ForecastEntry, 0, days)
	for _, day := range order {
		entries = append(entries, byDay[day])
		if len(entries) == days {
			break
		}
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("forecast for %s: empty result", location)
	}
	return entries, nil
}

// IconURL maps a provider icon code to its image URL.
func (c *Client) IconURL(code string) string {
	return fmt.Sprintf("https://openweathermap.org/img/wn/%s@2x.png", code)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")
	endpoint := c.baseURL + path + "?" + params.Encode()

	return infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			if infra.IsRetryableHTTPStatus(resp.StatusCode) {
				return fmt.Errorf("openweathermap error %d: %s (retryable)", resp.StatusCode, string(respBody))
			}
			return fmt.Errorf("openweathermap error %d: %s", resp.StatusCode, string(respBody))
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		return nil
	})
}

func round(v float64) int {
	return int(math.Round(v))
}

func absHour(t time.Time) int {
	h := t.Hour() - 12
	if h < 0 {
		return -h
	}
	return h
}
