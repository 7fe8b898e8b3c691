package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"miso-assistant/internal/application"
	"miso-assistant/internal/domain"
)

type mockCompleter struct {
	reply string
	err   error
	calls [][]domain.ChatMessage
}

func (m *mockCompleter) Complete(_ context.Context, messages []domain.ChatMessage, _ string) (string, error) {
	m.calls = append(m.calls, messages)
	return m.reply, m.err
}

func newTestDispatcher(registry *mockRegistry, weather *mockWeather, news *mockNews, completer *mockCompleter) *application.Dispatcher {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	interp := application.NewInterpreter(registry, weather, news, application.NewFallbackGenerator(), logger)
	return application.NewDispatcher(interp, completer, "", logger)
}

func TestDispatcher_SpecialCommand(t *testing.T) {
	registry := &mockRegistry{names: testNames()}
	completer := &mockCompleter{}
	d := newTestDispatcher(registry, &mockWeather{}, &mockNews{}, completer)

	result, err := d.ProcessMessage(context.Background(), "m1", "turn on the kitchen lights", nil)
	if err != nil {
		t.Fatalf("ProcessMessage error: %v", err)
	}

	if !result.IsSpecialCommand {
		t.Fatal("expected a special command")
	}
	if result.CommandType != domain.CategoryHome {
		t.Errorf("command type = %s, want home", result.CommandType)
	}
	if len(completer.calls) != 0 {
		t.Error("language model called for a special command")
	}
	if result.Result == nil || result.Result.Category != domain.CategoryHome {
		t.Error("missing interpreter result payload")
	}
}

func TestDispatcher_FallsThroughToLLM(t *testing.T) {
	completer := &mockCompleter{reply: "Here's a joke."}
	d := newTestDispatcher(&mockRegistry{}, &mockWeather{}, &mockNews{}, completer)

	history := []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "hello!"},
	}

	result, err := d.ProcessMessage(context.Background(), "m2", "tell me a joke", history)
	if err != nil {
		t.Fatalf("ProcessMessage error: %v", err)
	}

	if result.IsSpecialCommand {
		t.Fatal("unclassified message should not be a special command")
	}
	if result.Response != "Here's a joke." {
		t.Errorf("response = %q", result.Response)
	}
	if len(completer.calls) != 1 {
		t.Fatalf("completer calls = %d, want 1", len(completer.calls))
	}
	// History plus the current message, in order.
	messages := completer.calls[0]
	if len(messages) != 3 {
		t.Fatalf("forwarded messages = %d, want 3", len(messages))
	}
	if messages[2].Content != "tell me a joke" || messages[2].Role != domain.RoleUser {
		t.Errorf("last message = %+v", messages[2])
	}
}

func TestDispatcher_LLMFailureSurfaces(t *testing.T) {
	completer := &mockCompleter{err: errors.New("api down")}
	d := newTestDispatcher(&mockRegistry{}, &mockWeather{}, &mockNews{}, completer)

	_, err := d.ProcessMessage(context.Background(), "m3", "tell me a joke", nil)
	if err == nil {
		t.Fatal("expected an error when the language model fails")
	}
}

// A news failure is still a handled special command; it must not fall
// through to the language model.
func TestDispatcher_NewsFailureStaysSpecial(t *testing.T) {
	news := &mockNews{err: errors.New("gateway down")}
	completer := &mockCompleter{}
	d := newTestDispatcher(&mockRegistry{}, &mockWeather{}, news, completer)

	result, err := d.ProcessMessage(context.Background(), "m4", "show me the latest headlines", nil)
	if err != nil {
		t.Fatalf("ProcessMessage error: %v", err)
	}

	if !result.IsSpecialCommand {
		t.Fatal("surfaced news failure should remain a special command")
	}
	if len(completer.calls) != 0 {
		t.Error("language model called despite a surfaced news failure")
	}
	if result.Result == nil || result.Result.Success {
		t.Error("expected an unsuccessful interpreter result")
	}
}

// The facade's command type is re-derived from the raw message by a
// looser keyword pass and can disagree with the interpreter's category.
func TestDispatcher_CommandTypeDerivation(t *testing.T) {
	registry := &mockRegistry{names: testNames()}
	d := newTestDispatcher(registry, &mockWeather{}, &mockNews{}, &mockCompleter{})

	result, err := d.ProcessMessage(context.Background(), "m5", "turn on the kitchen lights", nil)
	if err != nil {
		t.Fatalf("ProcessMessage error: %v", err)
	}
	if result.CommandType != domain.CategoryHome {
		t.Errorf("command type = %s, want home", result.CommandType)
	}

	// "weather" in a home-classified message: the loose facade pass
	// tags it home too because "turn" wins in its switch ordering.
	result, err = d.ProcessMessage(context.Background(), "m6", "turn on the lights, what's the weather", nil)
	if err != nil {
		t.Fatalf("ProcessMessage error: %v", err)
	}
	if result.CommandType != domain.CategoryHome {
		t.Errorf("command type = %s, want home", result.CommandType)
	}
	if result.Result.Category != domain.CategoryHome {
		t.Errorf("interpreter category = %s, want home", result.Result.Category)
	}
}
