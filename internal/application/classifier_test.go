package application_test

import (
	"testing"

	"miso-assistant/internal/application"
	"miso-assistant/internal/domain"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		text string
		want domain.Category
	}{
		{"turn on the kitchen lights", domain.CategoryHome},
		{"dim the bedroom lamp", domain.CategoryHome},
		{"set the thermostat to 21 degrees", domain.CategoryHome},
		{"switch off the coffee maker", domain.CategoryHome},
		{"what's the weather in Paris", domain.CategoryWeather},
		{"will it rain tomorrow", domain.CategoryWeather},
		{"how humid is it today", domain.CategoryWeather},
		{"show me the latest headlines", domain.CategoryNews},
		{"any news about elections", domain.CategoryNews},
		{"sports report please", domain.CategoryNews},
		{"tell me a joke", domain.CategoryUnclassified},
		{"", domain.CategoryUnclassified},
		{"   ", domain.CategoryUnclassified},
		{"WHAT IS THE WEATHER LIKE", domain.CategoryWeather},
	}

	for _, tc := range cases {
		if got := application.Classify(tc.text); got != tc.want {
			t.Errorf("Classify(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

// An utterance with both home and weather keywords always classifies as
// home: categories are tested in priority order.
func TestClassify_HomeBeatsWeather(t *testing.T) {
	cases := []string{
		"set the temperature to 20 degrees",
		"turn on the lights, what's the weather",
		"is the thermostat showing the right temperature",
	}

	for _, text := range cases {
		if got := application.Classify(text); got != domain.CategoryHome {
			t.Errorf("Classify(%q) = %s, want home", text, got)
		}
	}
}

func TestClassify_Deterministic(t *testing.T) {
	text := "what's the forecast for London?"
	first := application.Classify(text)
	for i := 0; i < 10; i++ {
		if got := application.Classify(text); got != first {
			t.Fatalf("Classify(%q) changed from %s to %s", text, first, got)
		}
	}
}
