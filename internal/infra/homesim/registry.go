package homesim

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"miso-assistant/internal/domain"
)

// Registry is an in-memory device catalog. It stands in for a real
// smart-home backend: service calls mutate entity state under a lock
// and every read hands out copies.
type Registry struct {
	logger *slog.Logger

	mu       sync.RWMutex
	entities map[string]*domain.Entity
}

func NewRegistry(logger *slog.Logger) *Registry {
	r := &Registry{
		logger:   logger,
		entities: make(map[string]*domain.Entity),
	}
	for _, e := range defaultEntities() {
		entity := e
		r.entities[entity.ID] = &entity
	}
	return r
}

// defaultEntities seeds the demo catalog with at least one entity per
// domain.
func defaultEntities() []domain.Entity {
	return []domain.Entity{
		{
			ID: "light.living_room", Domain: domain.DomainLight,
			Name: "Living Room Light", State: "off",
			Light: &domain.LightAttributes{Brightness: 0},
		},
		{
			ID: "light.kitchen", Domain: domain.DomainLight,
			Name: "Kitchen Light", State: "off",
			Light: &domain.LightAttributes{Brightness: 0},
		},
		{
			ID: "light.bedroom", Domain: domain.DomainLight,
			Name: "Bedroom Light", State: "off",
			Light: &domain.LightAttributes{Brightness: 0},
		},
		{
			ID: "light.bathroom", Domain: domain.DomainLight,
			Name: "Bathroom Light", State: "off",
			Light: &domain.LightAttributes{Brightness: 0},
		},
		{
			ID: "climate.living_room", Domain: domain.DomainClimate,
			Name: "Living Room Thermostat", State: "auto",
			Climate: &domain.ClimateAttributes{TargetTemp: 20, Mode: "auto"},
		},
		{
			ID: "switch.coffee_maker", Domain: domain.DomainSwitch,
			Name: "Coffee Maker", State: "off",
		},
		{
			ID: "media_player.living_room_tv", Domain: domain.DomainMediaPlayer,
			Name: "Living Room TV", State: "idle",
			Media: &domain.MediaAttributes{Volume: 30},
		},
		{
			ID: "sensor.outdoor_temperature", Domain: domain.DomainSensor,
			Name: "Outdoor Temperature", State: "18",
			Sensor: &domain.SensorAttributes{Unit: "°C"},
		},
	}
}

func (r *Registry) States(_ context.Context) ([]domain.Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	states := make([]domain.Entity, 0, len(r.entities))
	for _, e := range r.entities {
		states = append(states, copyEntity(e))
	}
	sort.Slice(states, func(i, j int) bool { return states[i].ID < states[j].ID })
	return states, nil
}

func (r *Registry) FriendlyNames(_ context.Context) (map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make(map[string]string, len(r.entities))
	for id, e := range r.entities {
		names[id] = e.Name
	}
	return names, nil
}

// CallService applies an action to the entity named by data["entity_id"].
func (r *Registry) CallService(_ context.Context, d domain.EntityDomain, action domain.Action, data map[string]any) error {
	entityID, _ := data["entity_id"].(string)
	if entityID == "" {
		return fmt.Errorf("service call missing entity_id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entity, ok := r.entities[entityID]
	if !ok {
		return fmt.Errorf("unknown entity: %s", entityID)
	}
	if entity.Domain != d {
		return fmt.Errorf("entity %s is not in domain %s", entityID, d)
	}

	switch action {
	case domain.ActionTurnOn:
		// Climate entities have no "on" state; turning one on resumes
		// its mode.
		if entity.Climate != nil {
			mode := entity.Climate.Mode
			if mode == "" || mode == "off" {
				mode = "auto"
			}
			entity.Climate.Mode = mode
			entity.State = mode
		} else {
			entity.State = "on"
		}
		if entity.Light != nil {
			brightness := 100
			if b, ok := data["brightness"].(int); ok {
				brightness = b
			}
			entity.Light.Brightness = clamp(brightness, 0, 100)
		}

	case domain.ActionTurnOff:
		entity.State = "off"
		if entity.Climate != nil {
			entity.Climate.Mode = "off"
		}
		if entity.Light != nil {
			entity.Light.Brightness = 0
		}

	case domain.ActionSetTemperature:
		if entity.Climate == nil {
			return fmt.Errorf("entity %s does not support set_temperature", entityID)
		}
		if t, ok := data["temperature"].(float64); ok {
			entity.Climate.TargetTemp = t
		}

	default:
		return fmt.Errorf("unknown action: %s", action)
	}

	if !stateValid(entity.Domain, entity.State) {
		return fmt.Errorf("entity %s: state %q not valid for domain %s", entityID, entity.State, entity.Domain)
	}

	r.logger.Info("service call applied",
		"entity", entityID,
		"action", action,
		"state", entity.State,
	)
	return nil
}

// Summary renders the catalog for inclusion in a language-model prompt.
func (r *Registry) Summary() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.entities))
	for id := range r.entities {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var sb strings.Builder
	sb.WriteString("## Available devices:\n")
	for _, id := range ids {
		e := r.entities[id]
		sb.WriteString(fmt.Sprintf("- %s (id: %s, domain: %s, state: %s)\n", e.Name, e.ID, e.Domain, e.State))
	}
	return sb.String()
}

func copyEntity(e *domain.Entity) domain.Entity {
	c := *e
	if e.Light != nil {
		v := *e.Light
		c.Light = &v
	}
	if e.Climate != nil {
		v := *e.Climate
		c.Climate = &v
	}
	if e.Media != nil {
		v := *e.Media
		c.Media = &v
	}
	if e.Sensor != nil {
		v := *e.Sensor
		c.Sensor = &v
	}
	return c
}

func stateValid(d domain.EntityDomain, state string) bool {
	valid := d.ValidStates()
	if valid == nil {
		return true
	}
	for _, s := range valid {
		if state == s {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
