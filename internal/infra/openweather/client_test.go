package openweather_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"miso-assistant/internal/infra/openweather"
)

func TestClient_CurrentWeather(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/weather" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if r.URL.Query().Get("q") != "Paris" {
			t.Errorf("q = %q, want Paris", r.URL.Query().Get("q"))
		}
		if r.URL.Query().Get("units") != "metric" {
			t.Errorf("units = %q, want metric", r.URL.Query().Get("units"))
		}

		json.NewEncoder(w).Encode(map[string]any{
			"name": "Paris",
			"weather": []map[string]any{
				{"description": "scattered clouds", "icon": "03d"},
			},
			"main": map[string]any{
				"temp":       17.6,
				"feels_like": 16.4,
				"temp_min":   14.2,
				"temp_max":   19.8,
				"humidity":   62,
			},
			"wind": map[string]any{"speed": 4.1},
		})
	}))
	defer server.Close()

	client := openweather.NewClientWithURL("test-key", server.URL)

	record, err := client.CurrentWeather(context.Background(), "Paris")
	if err != nil {
		t.Fatalf("CurrentWeather error: %v", err)
	}

	if record.Location != "Paris" {
		t.Errorf("location = %q", record.Location)
	}
	if record.Temperature != 18 {
		t.Errorf("temperature = %d, want rounded 18", record.Temperature)
	}
	if record.FeelsLike != 16 {
		t.Errorf("feels-like = %d, want rounded 16", record.FeelsLike)
	}
	if record.Description != "scattered clouds" || record.Icon != "03d" {
		t.Errorf("conditions = %q/%q", record.Description, record.Icon)
	}
	if record.Estimated {
		t.Error("live record marked estimated")
	}
}

func TestClient_CurrentWeatherError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"cod":"404","message":"city not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := openweather.NewClientWithURL("test-key", server.URL)

	if _, err := client.CurrentWeather(context.Background(), "Nowhere"); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestClient_Forecast(t *testing.T) {
	now := time.Now()
	var list []map[string]any
	// Three-hourly points: some today (must be skipped), then two future days.
	for day := 0; day <= 2; day++ {
		for _, hour := range []int{9, 12, 15} {
			ts := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.Local).AddDate(0, 0, day)
			list = append(list, map[string]any{
				"dt":   ts.Unix(),
				"main": map[string]any{"temp": 10.0 + float64(day)},
				"weather": []map[string]any{
					{"description": "clear sky", "icon": "01d"},
				},
			})
		}
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forecast" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"list": list})
	}))
	defer server.Close()

	client := openweather.NewClientWithURL("test-key", server.URL)

	entries, err := client.Forecast(context.Background(), "Berlin", 5)
	if err != nil {
		t.Fatalf("Forecast error: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2 future days", len(entries))
	}

	today := now.Format("Mon, Jan 2")
	for i, e := range entries {
		if e.Date == today {
			t.Errorf("entry %d is today", i)
		}
		want := now.AddDate(0, 0, i+1).Format("Mon, Jan 2")
		if e.Date != want {
			t.Errorf("entry %d date = %q, want %q", i, e.Date, want)
		}
	}
	if entries[0].Temperature != 11 || entries[1].Temperature != 12 {
		t.Errorf("temperatures = %d/%d, want 11/12", entries[0].Temperature, entries[1].Temperature)
	}
}

func TestClient_IconURL(t *testing.T) {
	client := openweather.NewClientWithURL("test-key", "http://example.com")
	want := "https://openweathermap.org/img/wn/10d@2x.png"
	if got := client.IconURL("10d"); got != want {
		t.Errorf("IconURL = %q, want %q", got, want)
	}
}
