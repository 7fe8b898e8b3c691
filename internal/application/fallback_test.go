package application_test

import (
	"testing"
	"time"

	"miso-assistant/internal/application"
)

func TestFallbackGenerator_DeterministicBase(t *testing.T) {
	g := application.NewFallbackGenerator()

	for _, location := range []string{"Paris", "Atlantis", "Springfield"} {
		a := g.Current(location)
		b := g.Current(location)

		if a.Temperature != b.Temperature {
			t.Errorf("%s: temperature %d != %d", location, a.Temperature, b.Temperature)
		}
		if a.Description != b.Description {
			t.Errorf("%s: description %q != %q", location, a.Description, b.Description)
		}
		if a.Icon != b.Icon {
			t.Errorf("%s: icon %q != %q", location, a.Icon, b.Icon)
		}
	}
}

func TestFallbackGenerator_KnownCity(t *testing.T) {
	g := application.NewFallbackGenerator()

	record := g.Current("weather in London please")
	if record.Temperature != 15 {
		t.Errorf("London temperature = %d, want curated 15", record.Temperature)
	}
	if record.Description != "light rain" {
		t.Errorf("London description = %q, want light rain", record.Description)
	}
	if !record.Estimated {
		t.Error("fallback record not marked estimated")
	}
}

func TestFallbackGenerator_UnknownCityRanges(t *testing.T) {
	g := application.NewFallbackGenerator()

	for _, location := range []string{"Xyzzy", "Quux Ville", "Shangri-La"} {
		record := g.Current(location)

		if record.Temperature < 15 || record.Temperature > 34 {
			t.Errorf("%s: temperature %d outside 15..34", location, record.Temperature)
		}
		if record.Humidity < 40 || record.Humidity > 70 {
			t.Errorf("%s: humidity %d outside 40..70", location, record.Humidity)
		}
		if record.WindSpeed < 2 || record.WindSpeed > 12 {
			t.Errorf("%s: wind speed %.1f outside 2..12", location, record.WindSpeed)
		}
		if record.FeelsLike > record.Temperature || record.FeelsLike < record.Temperature-2 {
			t.Errorf("%s: feels-like %d not within 2 below %d", location, record.FeelsLike, record.Temperature)
		}
		if record.Description == "" || record.Icon == "" {
			t.Errorf("%s: missing description or icon", location)
		}
	}
}

func TestFallbackGenerator_Forecast(t *testing.T) {
	g := application.NewFallbackGenerator()
	const days = 5

	entries := g.Forecast("Berlin", days)
	if len(entries) != days {
		t.Fatalf("forecast length = %d, want %d", len(entries), days)
	}

	today := time.Now().Format("Mon, Jan 2")
	for i, e := range entries {
		want := time.Now().AddDate(0, 0, i+1).Format("Mon, Jan 2")
		if e.Date != want {
			t.Errorf("entry %d date = %q, want %q", i, e.Date, want)
		}
		if e.Date == today {
			t.Errorf("entry %d is today (%q); forecasts start tomorrow", i, e.Date)
		}
		if e.Description == "" || e.Icon == "" {
			t.Errorf("entry %d missing description or icon", i)
		}
		// Berlin's curated base is 14; jitter is bounded by ±3.
		if e.Temperature < 11 || e.Temperature > 17 {
			t.Errorf("entry %d temperature %d outside 11..17", i, e.Temperature)
		}
	}
}
