package domain

// WeatherRecord is a normalized current-conditions snapshot. Records
// produced by the live gateway and by the fallback generator share this
// shape so rendering never branches on provenance; Estimated is the
// only provenance marker.
type WeatherRecord struct {
	Location    string  `json:"location"`
	Temperature int     `json:"temperature"` // °C, rounded
	Description string  `json:"description"`
	Humidity    int     `json:"humidity"` // percent
	WindSpeed   float64 `json:"windSpeed"` // m/s
	Icon        string  `json:"icon"`
	FeelsLike   int     `json:"feelsLike"`
	TempMin     int     `json:"tempMin"`
	TempMax     int     `json:"tempMax"`
	Estimated   bool    `json:"estimated"`
}

// ForecastEntry is one future day of a forecast. A forecast is ordered
// chronologically ascending and never includes the current day.
type ForecastEntry struct {
	Date        string `json:"date"` // short label, e.g. "Mon, Jan 2"
	Temperature int    `json:"temperature"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}
