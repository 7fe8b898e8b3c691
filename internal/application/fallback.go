package application

import (
	"math/rand"
	"strings"
	"time"

	"miso-assistant/internal/domain"
)

// FallbackGenerator synthesizes plausible weather records when the live
// gateway is unavailable. The base temperature, description and icon
// are deterministic for a given location string; humidity, wind and the
// temperature spread get bounded random jitter.
type FallbackGenerator struct {
	rng *rand.Rand
	now func() time.Time
}

func NewFallbackGenerator() *FallbackGenerator {
	return &FallbackGenerator{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
}

type cityConditions struct {
	name        string
	temperature int
	description string
	icon        string
}

// Curated conditions for well-known cities, matched by case-insensitive
// substring. Anything else falls through to the hash-derived path.
var knownCities = []cityConditions{
	{"new york", 22, "partly cloudy", "02d"},
	{"london", 15, "light rain", "10d"},
	{"paris", 18, "scattered clouds", "03d"},
	{"tokyo", 24, "clear sky", "01d"},
	{"sydney", 20, "few clouds", "02d"},
	{"mumbai", 31, "haze", "50d"},
	{"dubai", 38, "clear sky", "01d"},
	{"moscow", 5, "snow", "13d"},
	{"berlin", 14, "overcast clouds", "04d"},
	{"madrid", 26, "clear sky", "01d"},
	{"rome", 25, "few clouds", "02d"},
	{"toronto", 12, "scattered clouds", "03d"},
	{"singapore", 30, "thunderstorm", "11d"},
	{"cairo", 33, "clear sky", "01d"},
	{"rio de janeiro", 27, "partly cloudy", "02d"},
	{"amsterdam", 13, "drizzle", "09d"},
}

var fallbackConditions = []struct {
	description string
	icon        string
}{
	{"clear sky", "01d"},
	{"few clouds", "02d"},
	{"scattered clouds", "03d"},
	{"overcast clouds", "04d"},
	{"light rain", "10d"},
}

// locationHash sums the character codes of the trimmed location. It is
// intentionally non-cryptographic; it only needs to be stable.
func locationHash(location string) int {
	sum := 0
	for _, r := range strings.TrimSpace(location) {
		sum += int(r)
	}
	return sum
}

// baseConditions resolves the deterministic part of a fallback record.
func baseConditions(location string) (int, string, string) {
	lower := strings.ToLower(strings.TrimSpace(location))
	for _, c := range knownCities {
		if strings.Contains(lower, c.name) {
			return c.temperature, c.description, c.icon
		}
	}

	hash := locationHash(location)
	temp := 15 + hash%20
	cond := fallbackConditions[hash%len(fallbackConditions)]
	return temp, cond.description, cond.icon
}

// Current synthesizes a current-conditions record for a location.
func (g *FallbackGenerator) Current(location string) *domain.WeatherRecord {
	temp, desc, icon := baseConditions(location)
	hash := locationHash(location)

	return &domain.WeatherRecord{
		Location:    location,
		Temperature: temp,
		Description: desc,
		Icon:        icon,
		Humidity:    40 + g.rng.Intn(31),
		WindSpeed:   float64(2+g.rng.Intn(10)) + float64(hash%10)/10,
		FeelsLike:   temp - g.rng.Intn(3),
		TempMin:     temp - g.rng.Intn(5),
		TempMax:     temp + g.rng.Intn(5),
		Estimated:   true,
	}
}

// Forecast synthesizes entries for the next days count of days,
// starting tomorrow, in ascending calendar order.
func (g *FallbackGenerator) Forecast(location string, days int) []domain.ForecastEntry {
	baseTemp, _, _ := baseConditions(location)

	entries := make([]domain.ForecastEntry, 0, days)
	for i := 1; i <= days; i++ {
		day := g.now().AddDate(0, 0, i)
		cond := fallbackConditions[g.rng.Intn(len(fallbackConditions))]
		entries = append(entries, domain.ForecastEntry{
			Date:        day.Format("Mon, Jan 2"),
			Temperature: baseTemp + g.rng.Intn(7) - 3,
			Description: cond.description,
			Icon:        cond.icon,
		})
	}
	return entries
}
