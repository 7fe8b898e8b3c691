package application

import (
	"strings"

	"miso-assistant/internal/domain"
)

// Keyword sets for each special-command category. "temperature" appears
// in both the home and weather sets on purpose: categories are tested
// in a fixed priority order (home, weather, news) and the first hit
// wins, so "set the temperature to 20" lands on the thermostat.
var (
	homeKeywords = []string{
		"turn on", "turn off", "switch on", "switch off",
		"dim", "brighten", "set", "temperature", "thermostat",
		"light", "lights", "lamp", "tv", "television",
		"coffee", "maker",
		"living room", "kitchen", "bedroom", "bathroom",
	}

	weatherKeywords = []string{
		"weather", "temperature", "forecast", "rain", "sunny",
		"cloudy", "humidity", "wind", "hot", "cold", "warm", "cool",
	}

	newsKeywords = []string{
		"news", "headlines", "latest", "article", "story", "report",
		"business", "sports", "technology", "science", "health",
		"entertainment",
	}
)

// Classify assigns a category to an utterance by substring keyword
// matching. It is pure and total: same input, same category, never
// fails.
func Classify(text string) domain.Category {
	lower := strings.ToLower(strings.TrimSpace(text))

	if containsAny(lower, homeKeywords) {
		return domain.CategoryHome
	}
	if containsAny(lower, weatherKeywords) {
		return domain.CategoryWeather
	}
	if containsAny(lower, newsKeywords) {
		return domain.CategoryNews
	}
	return domain.CategoryUnclassified
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
