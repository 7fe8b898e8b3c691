package domain

import "strings"

type EntityDomain string

const (
	DomainLight       EntityDomain = "light"
	DomainClimate     EntityDomain = "climate"
	DomainSwitch      EntityDomain = "switch"
	DomainMediaPlayer EntityDomain = "media_player"
	DomainSensor      EntityDomain = "sensor"
)

// ValidStates returns the finite set of states entities of this domain
// may take. Sensors report free-form readings and are unconstrained.
func (d EntityDomain) ValidStates() []string {
	switch d {
	case DomainLight, DomainSwitch:
		return []string{"on", "off"}
	case DomainMediaPlayer:
		return []string{"on", "off", "idle"}
	case DomainClimate:
		return []string{"heat", "cool", "auto", "off"}
	default:
		return nil
	}
}

// Entity is a single addressable device, keyed by "domain.name"
// (e.g. "light.living_room"). Exactly one of the attribute records is
// set, matching the entity's domain.
type Entity struct {
	ID      string
	Domain  EntityDomain
	Name    string
	State   string
	Light   *LightAttributes
	Climate *ClimateAttributes
	Media   *MediaAttributes
	Sensor  *SensorAttributes
}

type LightAttributes struct {
	Brightness int
}

type ClimateAttributes struct {
	TargetTemp float64
	Mode       string
}

type MediaAttributes struct {
	Volume int
}

type SensorAttributes struct {
	Unit string
}

// EntityID joins a domain and an object name into the composite key.
func EntityID(d EntityDomain, name string) string {
	return string(d) + "." + name
}

// SplitEntityID splits a composite key into its domain and object name.
func SplitEntityID(id string) (EntityDomain, string) {
	parts := strings.SplitN(id, ".", 2)
	if len(parts) != 2 {
		return "", id
	}
	return EntityDomain(parts[0]), parts[1]
}
