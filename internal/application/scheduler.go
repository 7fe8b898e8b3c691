package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"miso-assistant/internal/domain"
)

// ScheduleEntry is one recurring device action. At is a wall-clock time
// in "15:04" form; Days holds lowercase weekday names, empty meaning
// every day.
type ScheduleEntry struct {
	EntityID    string
	Action      domain.Action
	At          string
	Days        []string
	Temperature float64
	Brightness  int
}

func (e ScheduleEntry) validate() error {
	if e.EntityID == "" {
		return fmt.Errorf("schedule entry: missing entity_id")
	}
	if _, err := time.Parse("15:04", e.At); err != nil {
		return fmt.Errorf("schedule entry %s: bad time %q", e.EntityID, e.At)
	}
	switch e.Action {
	case domain.ActionTurnOn, domain.ActionTurnOff, domain.ActionSetTemperature:
	default:
		return fmt.Errorf("schedule entry %s: unknown action %q", e.EntityID, e.Action)
	}
	return nil
}

// due reports whether the entry should fire at the given instant. An
// entry fires at most once per minute; lastRun guards against the
// ticker landing twice inside the same wall-clock minute.
func (e ScheduleEntry) due(now, lastRun time.Time) bool {
	if now.Format("15:04") != e.At {
		return false
	}
	if len(e.Days) > 0 {
		day := strings.ToLower(now.Weekday().String())
		found := false
		for _, d := range e.Days {
			if strings.ToLower(d) == day {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return now.Sub(lastRun) >= time.Minute
}

// Scheduler fires device actions on a time-of-day calendar. It drives
// the same CallService surface the interpreter uses, so a scheduled
// turn-on behaves exactly like a spoken one.
type Scheduler struct {
	registry DeviceRegistry
	entries  []ScheduleEntry
	logger   *slog.Logger

	lastRun []time.Time
}

func NewScheduler(registry DeviceRegistry, entries []ScheduleEntry, logger *slog.Logger) (*Scheduler, error) {
	for _, e := range entries {
		if err := e.validate(); err != nil {
			return nil, err
		}
	}
	return &Scheduler{
		registry: registry,
		entries:  entries,
		logger:   logger,
		lastRun:  make([]time.Time, len(entries)),
	}, nil
}

func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", "entries", len(s.entries))

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			s.Tick(ctx, now)
		}
	}
}

// Tick executes every entry due at the given instant.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	for i, entry := range s.entries {
		if !entry.due(now, s.lastRun[i]) {
			continue
		}
		s.lastRun[i] = now

		entityDomain, _ := domain.SplitEntityID(entry.EntityID)
		data := map[string]any{"entity_id": entry.EntityID}
		if entry.Action == domain.ActionSetTemperature {
			data["temperature"] = entry.Temperature
		}
		if entry.Brightness > 0 {
			data["brightness"] = entry.Brightness
		}

		if err := s.registry.CallService(ctx, entityDomain, entry.Action, data); err != nil {
			s.logger.Error("scheduled action failed",
				"entity", entry.EntityID,
				"action", entry.Action,
				"error", err,
			)
			continue
		}
		s.logger.Info("scheduled action executed", "entity", entry.EntityID, "action", entry.Action)
	}
}
