package application

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"miso-assistant/internal/domain"
)

const (
	defaultLocation    = "New York"
	defaultTargetTemp  = 22.0
	forecastDays       = 5
	newsPageSize       = 5
	dimBrightness      = 30
	brightenBrightness = 100
)

// Interpreter turns a classified utterance into a structured command
// result by keyword extraction and dispatch to the matching gateway.
type Interpreter struct {
	registry DeviceRegistry
	weather  WeatherGateway
	news     NewsGateway
	fallback *FallbackGenerator
	logger   *slog.Logger
}

func NewInterpreter(
	registry DeviceRegistry,
	weather WeatherGateway,
	news NewsGateway,
	fallback *FallbackGenerator,
	logger *slog.Logger,
) *Interpreter {
	return &Interpreter{
		registry: registry,
		weather:  weather,
		news:     news,
		fallback: fallback,
		logger:   logger,
	}
}

// ProcessCommand is the interpreter's sole entry point. A result with
// Success=false and an empty Response means the utterance is not a
// special command and should go to the language model instead.
func (i *Interpreter) ProcessCommand(ctx context.Context, text string) *domain.CommandResult {
	lower := strings.ToLower(strings.TrimSpace(text))

	switch Classify(lower) {
	case domain.CategoryHome:
		return i.processHome(ctx, lower)
	case domain.CategoryWeather:
		return i.processWeather(ctx, lower)
	case domain.CategoryNews:
		return i.processNews(ctx, lower)
	default:
		return &domain.CommandResult{
			Success:  false,
			Category: domain.CategoryUnclassified,
		}
	}
}

var rooms = []string{"living room", "kitchen", "bedroom", "bathroom"}

// processHome resolves a target entity and an action from the
// utterance. Home commands never fail once classified: if nothing
// resolves, the request is acknowledged as simulated, and registry
// errors are swallowed because the backend is a simulation.
func (i *Interpreter) processHome(ctx context.Context, text string) *domain.CommandResult {
	names, err := i.registry.FriendlyNames(ctx)
	if err != nil {
		i.logger.Warn("fetching friendly names", "error", err)
		names = map[string]string{}
	}

	entityID := i.resolveEntity(text, names)
	if entityID == "" {
		return &domain.CommandResult{
			Success:  true,
			Response: "I'll help you with that smart home request.",
			Category: domain.CategoryHome,
			Home:     &domain.HomeResult{Simulated: true},
		}
	}

	friendly := names[entityID]
	if friendly == "" {
		friendly = entityID
	}
	entityDomain, _ := domain.SplitEntityID(entityID)

	action, data, response := resolveAction(text, entityDomain, friendly)
	if action == "" {
		return &domain.CommandResult{
			Success:  true,
			Response: "I'll help you with that smart home request.",
			Category: domain.CategoryHome,
			Home:     &domain.HomeResult{Simulated: true},
		}
	}

	data["entity_id"] = entityID
	if err := i.registry.CallService(ctx, entityDomain, action, data); err != nil {
		// Commands are simulated, not physically critical; confirm anyway.
		i.logger.Warn("service call failed", "entity", entityID, "action", action, "error", err)
	}

	home := &domain.HomeResult{EntityID: entityID, Action: action}
	if t, ok := data["temperature"].(float64); ok {
		home.Temperature = t
	}
	if b, ok := data["brightness"].(int); ok {
		home.Brightness = b
	}

	return &domain.CommandResult{
		Success:  true,
		Response: response,
		Category: domain.CategoryHome,
		Home:     home,
	}
}

// resolveEntity finds the target entity: direct friendly-name match
// first, then a room reference, then the living room light if the
// utterance mentions lights at all.
func (i *Interpreter) resolveEntity(text string, names map[string]string) string {
	ids := make([]string, 0, len(names))
	for id := range names {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		// An empty name would match everything.
		if names[id] == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(names[id])) {
			return id
		}
	}

	for _, room := range rooms {
		if !strings.Contains(text, room) {
			continue
		}
		for _, id := range ids {
			if strings.Contains(strings.ToLower(names[id]), room) {
				return id
			}
		}
	}

	if strings.Contains(text, "light") {
		return domain.EntityID(domain.DomainLight, "living_room")
	}
	return ""
}

var (
	turnOnWords  = []string{"turn on", "switch on", "start", "enable"}
	turnOffWords = []string{"turn off", "switch off", "stop", "disable"}
	degreesRe    = regexp.MustCompile(`(\d+)\s*degrees`)
)

// resolveAction picks the action by substring tests in a fixed
// priority: on, off, dim, brighten, set-temperature. Dim/brighten apply
// to lights only, set-temperature to climate only.
func resolveAction(text string, d domain.EntityDomain, friendly string) (domain.Action, map[string]any, string) {
	data := map[string]any{}

	switch {
	case containsAny(text, turnOnWords):
		return domain.ActionTurnOn, data, fmt.Sprintf("Okay, turning on the %s.", friendly)

	case containsAny(text, turnOffWords):
		return domain.ActionTurnOff, data, fmt.Sprintf("Okay, turning off the %s.", friendly)

	case strings.Contains(text, "dim") && d == domain.DomainLight:
		data["brightness"] = dimBrightness
		return domain.ActionTurnOn, data, fmt.Sprintf("Dimming the %s.", friendly)

	case strings.Contains(text, "brighten") && d == domain.DomainLight:
		data["brightness"] = brightenBrightness
		return domain.ActionTurnOn, data, fmt.Sprintf("Brightening the %s.", friendly)

	case strings.Contains(text, "set") && d == domain.DomainClimate:
		temp := defaultTargetTemp
		if m := degreesRe.FindStringSubmatch(text); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				temp = v
			}
		}
		data["temperature"] = temp
		return domain.ActionSetTemperature, data,
			fmt.Sprintf("Setting the %s to %.0f degrees.", friendly, temp)
	}

	return "", nil, ""
}

var (
	locationRe       = regexp.MustCompile(`\b(?:in|for|at)\s+([a-zA-Z][a-zA-Z\s]*?)(?:[.?!,]|$)`)
	forecastKeywords = []string{"forecast", "tomorrow", "week", "next few days"}
)

// extractLocation pulls a location out of "(in|for|at) <words>",
// stopping at sentence-terminal punctuation.
func extractLocation(text string) string {
	if m := locationRe.FindStringSubmatch(text); m != nil {
		loc := strings.TrimSpace(m[1])
		if loc != "" {
			return titleCase(loc)
		}
	}
	return defaultLocation
}

// titleCase capitalizes each word; classification lower-cases the
// utterance, so extracted locations need their casing restored.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// processWeather always succeeds: on gateway failure the response is
// composed from synthesized data and marked as estimated.
func (i *Interpreter) processWeather(ctx context.Context, text string) *domain.CommandResult {
	location := extractLocation(text)

	if containsAny(text, forecastKeywords) {
		return i.weatherForecast(ctx, location)
	}
	return i.currentWeather(ctx, location)
}

func (i *Interpreter) currentWeather(ctx context.Context, location string) *domain.CommandResult {
	record, err := i.weather.CurrentWeather(ctx, location)
	if err != nil {
		i.logger.Warn("weather gateway failed, using fallback", "location", location, "error", err)
		record = i.fallback.Current(location)
	}

	qualifier := ""
	if record.Estimated {
		qualifier = " (estimated)"
	}
	response := fmt.Sprintf(
		"The weather in %s is currently %d°C with %s%s. Humidity is %d%% and wind speed is %.1f m/s. It feels like %d°C.",
		location, record.Temperature, record.Description, qualifier,
		record.Humidity, record.WindSpeed, record.FeelsLike,
	)

	return &domain.CommandResult{
		Success:  true,
		Response: response,
		Category: domain.CategoryWeather,
		Weather: &domain.WeatherResult{
			Location:  location,
			Current:   record,
			Estimated: record.Estimated,
		},
	}
}

func (i *Interpreter) weatherForecast(ctx context.Context, location string) *domain.CommandResult {
	estimated := false
	entries, err := i.weather.Forecast(ctx, location, forecastDays)
	if err != nil {
		i.logger.Warn("forecast gateway failed, using fallback", "location", location, "error", err)
		entries = i.fallback.Forecast(location, forecastDays)
		estimated = true
	}

	var sb strings.Builder
	if estimated {
		fmt.Fprintf(&sb, "Here's an estimated %d-day forecast for %s:\n", len(entries), location)
	} else {
		fmt.Fprintf(&sb, "Here's the %d-day forecast for %s:\n", len(entries), location)
	}
	for _, e := range entries {
		fmt.Fprintf(&sb, "%s: %d°C, %s\n", e.Date, e.Temperature, e.Description)
	}

	return &domain.CommandResult{
		Success:  true,
		Response: strings.TrimRight(sb.String(), "\n"),
		Category: domain.CategoryWeather,
		Weather: &domain.WeatherResult{
			Location:  location,
			Forecast:  entries,
			Estimated: estimated,
		},
	}
}

var (
	newsCategories = []string{
		"business", "entertainment", "general", "health",
		"science", "sports", "technology",
	}
	queryRe = regexp.MustCompile(`\b(?:about|on)\s+([a-zA-Z][a-zA-Z\s]*?)(?:[.?!,]|$)`)
)

// processNews prefers an explicit search query over category headlines.
// News failures are surfaced: there is no point in synthesizing fake
// headlines.
func (i *Interpreter) processNews(ctx context.Context, text string) *domain.CommandResult {
	category := ""
	for _, c := range newsCategories {
		if strings.Contains(text, c) {
			category = c
			break
		}
	}

	query := ""
	if m := queryRe.FindStringSubmatch(text); m != nil {
		query = strings.TrimSpace(m[1])
	}

	var articles []domain.NewsArticle
	var err error
	if query != "" {
		articles, err = i.news.Search(ctx, query, newsPageSize)
	} else {
		articles, err = i.news.TopHeadlines(ctx, category, newsPageSize)
	}
	if err != nil || len(articles) == 0 {
		if err != nil {
			i.logger.Warn("news gateway failed", "error", err)
		}
		return &domain.CommandResult{
			Success:  false,
			Response: "I'm sorry, I couldn't fetch the news right now. Please try again later.",
			Category: domain.CategoryNews,
		}
	}

	var sb strings.Builder
	if query != "" {
		fmt.Fprintf(&sb, "Here's what I found about %s:\n", query)
	} else if category != "" {
		fmt.Fprintf(&sb, "Here are the latest %s headlines:\n", category)
	} else {
		sb.WriteString("Here are the latest headlines:\n")
	}
	for n, a := range articles {
		fmt.Fprintf(&sb, "%d. %s (%s)\n", n+1, a.Title, a.Source)
	}
	sb.WriteString("Would you like me to read any of these in detail?")

	return &domain.CommandResult{
		Success:  true,
		Response: sb.String(),
		Category: domain.CategoryNews,
		News: &domain.NewsResult{
			Articles: articles,
			Category: category,
			Query:    query,
		},
	}
}
