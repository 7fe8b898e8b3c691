package homesim_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"miso-assistant/internal/domain"
	"miso-assistant/internal/infra/homesim"
)

func newRegistry() *homesim.Registry {
	return homesim.NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func findEntity(t *testing.T, r *homesim.Registry, id string) domain.Entity {
	t.Helper()
	states, err := r.States(context.Background())
	if err != nil {
		t.Fatalf("States error: %v", err)
	}
	for _, e := range states {
		if e.ID == id {
			return e
		}
	}
	t.Fatalf("entity %s not found", id)
	return domain.Entity{}
}

func TestRegistry_SeededCatalog(t *testing.T) {
	r := newRegistry()

	states, err := r.States(context.Background())
	if err != nil {
		t.Fatalf("States error: %v", err)
	}
	if len(states) == 0 {
		t.Fatal("empty catalog")
	}

	seen := map[domain.EntityDomain]bool{}
	for _, e := range states {
		seen[e.Domain] = true
	}
	for _, d := range []domain.EntityDomain{
		domain.DomainLight, domain.DomainClimate, domain.DomainSwitch,
		domain.DomainMediaPlayer, domain.DomainSensor,
	} {
		if !seen[d] {
			t.Errorf("no seeded entity for domain %s", d)
		}
	}

	names, err := r.FriendlyNames(context.Background())
	if err != nil {
		t.Fatalf("FriendlyNames error: %v", err)
	}
	if names["light.kitchen"] != "Kitchen Light" {
		t.Errorf("light.kitchen name = %q", names["light.kitchen"])
	}
}

func TestRegistry_TurnOnLight(t *testing.T) {
	r := newRegistry()

	err := r.CallService(context.Background(), domain.DomainLight, domain.ActionTurnOn,
		map[string]any{"entity_id": "light.kitchen"})
	if err != nil {
		t.Fatalf("CallService error: %v", err)
	}

	e := findEntity(t, r, "light.kitchen")
	if e.State != "on" {
		t.Errorf("state = %q, want on", e.State)
	}
	if e.Light == nil || e.Light.Brightness != 100 {
		t.Errorf("brightness = %+v, want 100", e.Light)
	}
}

func TestRegistry_DimClampsBrightness(t *testing.T) {
	r := newRegistry()

	err := r.CallService(context.Background(), domain.DomainLight, domain.ActionTurnOn,
		map[string]any{"entity_id": "light.bedroom", "brightness": 150})
	if err != nil {
		t.Fatalf("CallService error: %v", err)
	}

	e := findEntity(t, r, "light.bedroom")
	if e.Light.Brightness != 100 {
		t.Errorf("brightness = %d, want clamped 100", e.Light.Brightness)
	}
}

func TestRegistry_TurnOffResetsBrightness(t *testing.T) {
	r := newRegistry()
	ctx := context.Background()

	r.CallService(ctx, domain.DomainLight, domain.ActionTurnOn,
		map[string]any{"entity_id": "light.kitchen"})
	r.CallService(ctx, domain.DomainLight, domain.ActionTurnOff,
		map[string]any{"entity_id": "light.kitchen"})

	e := findEntity(t, r, "light.kitchen")
	if e.State != "off" || e.Light.Brightness != 0 {
		t.Errorf("state = %q brightness = %d, want off/0", e.State, e.Light.Brightness)
	}
}

// Turning a climate entity on resumes a mode from its valid state set
// rather than forcing a literal "on".
func TestRegistry_ClimateTurnOnStaysInValidStates(t *testing.T) {
	r := newRegistry()
	ctx := context.Background()

	err := r.CallService(ctx, domain.DomainClimate, domain.ActionTurnOn,
		map[string]any{"entity_id": "climate.living_room"})
	if err != nil {
		t.Fatalf("CallService error: %v", err)
	}

	e := findEntity(t, r, "climate.living_room")
	if e.State != "auto" {
		t.Errorf("state = %q, want resumed mode auto", e.State)
	}
	assertStateValid(t, e)

	// Off then on again: the mode resumes as auto, not "off".
	r.CallService(ctx, domain.DomainClimate, domain.ActionTurnOff,
		map[string]any{"entity_id": "climate.living_room"})
	e = findEntity(t, r, "climate.living_room")
	if e.State != "off" || e.Climate.Mode != "off" {
		t.Errorf("after turn off: state = %q mode = %q, want off/off", e.State, e.Climate.Mode)
	}

	r.CallService(ctx, domain.DomainClimate, domain.ActionTurnOn,
		map[string]any{"entity_id": "climate.living_room"})
	e = findEntity(t, r, "climate.living_room")
	if e.State != "auto" || e.Climate.Mode != "auto" {
		t.Errorf("after turn on: state = %q mode = %q, want auto/auto", e.State, e.Climate.Mode)
	}
	assertStateValid(t, e)
}

func assertStateValid(t *testing.T, e domain.Entity) {
	t.Helper()
	valid := e.Domain.ValidStates()
	if valid == nil {
		return
	}
	for _, s := range valid {
		if e.State == s {
			return
		}
	}
	t.Errorf("entity %s state %q not in %v", e.ID, e.State, valid)
}

func TestRegistry_SetTemperature(t *testing.T) {
	r := newRegistry()

	err := r.CallService(context.Background(), domain.DomainClimate, domain.ActionSetTemperature,
		map[string]any{"entity_id": "climate.living_room", "temperature": 24.5})
	if err != nil {
		t.Fatalf("CallService error: %v", err)
	}

	e := findEntity(t, r, "climate.living_room")
	if e.Climate == nil || e.Climate.TargetTemp != 24.5 {
		t.Errorf("target temp = %+v, want 24.5", e.Climate)
	}
}

func TestRegistry_CallServiceErrors(t *testing.T) {
	r := newRegistry()
	ctx := context.Background()

	if err := r.CallService(ctx, domain.DomainLight, domain.ActionTurnOn, map[string]any{}); err == nil {
		t.Error("expected error for missing entity_id")
	}
	if err := r.CallService(ctx, domain.DomainLight, domain.ActionTurnOn,
		map[string]any{"entity_id": "light.garage"}); err == nil {
		t.Error("expected error for unknown entity")
	}
	if err := r.CallService(ctx, domain.DomainClimate, domain.ActionTurnOn,
		map[string]any{"entity_id": "light.kitchen"}); err == nil {
		t.Error("expected error for domain mismatch")
	}
	if err := r.CallService(ctx, domain.DomainSwitch, domain.ActionSetTemperature,
		map[string]any{"entity_id": "switch.coffee_maker"}); err == nil {
		t.Error("expected error for unsupported action")
	}
}

// Reads hand out copies; mutating them must not leak into the registry.
func TestRegistry_StatesAreCopies(t *testing.T) {
	r := newRegistry()

	e := findEntity(t, r, "light.kitchen")
	e.State = "on"
	if e.Light != nil {
		e.Light.Brightness = 55
	}

	again := findEntity(t, r, "light.kitchen")
	if again.State != "off" || again.Light.Brightness != 0 {
		t.Error("mutation of a returned entity leaked into the registry")
	}
}

func TestRegistry_StateInvariants(t *testing.T) {
	r := newRegistry()

	states, _ := r.States(context.Background())
	for _, e := range states {
		valid := e.Domain.ValidStates()
		if valid == nil {
			continue
		}
		found := false
		for _, s := range valid {
			if e.State == s {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("entity %s state %q not in %v", e.ID, e.State, valid)
		}
	}
}
