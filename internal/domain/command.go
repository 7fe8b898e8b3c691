package domain

// Category tags an utterance with the kind of special command it
// represents. Exactly one category is assigned per utterance.
type Category string

const (
	CategoryHome         Category = "home"
	CategoryWeather      Category = "weather"
	CategoryNews         Category = "news"
	CategoryUnclassified Category = "unclassified"
)

// Service actions issued against the device registry.
type Action string

const (
	ActionTurnOn         Action = "turn_on"
	ActionTurnOff        Action = "turn_off"
	ActionSetTemperature Action = "set_temperature"
)

// CommandResult is the interpreter's sole output contract.
// Success=false with an empty Response means the utterance could not be
// interpreted and the caller should fall through to the language model.
// Success=false with a Response carries a surfaced failure (news).
type CommandResult struct {
	Success  bool           `json:"success"`
	Response string         `json:"response"`
	Category Category       `json:"commandType"`
	Home     *HomeResult    `json:"home,omitempty"`
	Weather  *WeatherResult `json:"weather,omitempty"`
	News     *NewsResult    `json:"news,omitempty"`
}

// HomeResult describes what the home branch did. Simulated is set when
// no concrete entity could be resolved and the command was acknowledged
// without touching the registry.
type HomeResult struct {
	EntityID    string  `json:"entityId,omitempty"`
	Action      Action  `json:"action,omitempty"`
	Simulated   bool    `json:"simulated,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	Brightness  int     `json:"brightness,omitempty"`
}

// WeatherResult carries either a current record or a forecast; a
// fallback-synthesized payload is structurally identical to a live one.
type WeatherResult struct {
	Location  string          `json:"location"`
	Current   *WeatherRecord  `json:"current,omitempty"`
	Forecast  []ForecastEntry `json:"forecast,omitempty"`
	Estimated bool            `json:"estimated"`
}

type NewsResult struct {
	Articles []NewsArticle `json:"articles"`
	Category string        `json:"category,omitempty"`
	Query    string        `json:"query,omitempty"`
}

// ChatMessage is one turn of the conversation transcript forwarded to
// the language model when no special command matches.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
