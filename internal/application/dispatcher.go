package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"miso-assistant/internal/domain"
)

// DispatchResult is the envelope handed back to the chat layer.
// CommandType is re-derived from the raw message by a second, looser
// keyword pass and can disagree with Result.Category; consumers prefer
// the interpreter's category when both are present.
type DispatchResult struct {
	ID               string
	IsSpecialCommand bool
	Response         string
	CommandType      domain.Category
	Result           *domain.CommandResult
}

// Dispatcher is the single entry point per user turn: command
// interpreter first, language model on fall-through.
type Dispatcher struct {
	interpreter  *Interpreter
	completer    Completer
	systemPrompt string
	logger       *slog.Logger
}

func NewDispatcher(interpreter *Interpreter, completer Completer, systemPrompt string, logger *slog.Logger) *Dispatcher {
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}
	return &Dispatcher{
		interpreter:  interpreter,
		completer:    completer,
		systemPrompt: systemPrompt,
		logger:       logger,
	}
}

const defaultSystemPrompt = "You are Miso, a friendly virtual assistant. " +
	"Answer concisely and helpfully. You can also control smart home " +
	"devices and report weather and news when asked."

// ProcessMessage runs one user turn. history is the transcript so far,
// excluding the current message; it is only consulted on the language
// model path.
func (d *Dispatcher) ProcessMessage(ctx context.Context, id, text string, history []domain.ChatMessage) (*DispatchResult, error) {
	result := d.interpreter.ProcessCommand(ctx, text)

	// A response-carrying result is a handled special command even on
	// failure (news errors are surfaced, not retried via the LLM).
	if result.Success || result.Response != "" {
		return &DispatchResult{
			ID:               id,
			IsSpecialCommand: true,
			Response:         result.Response,
			CommandType:      deriveCommandType(text, result.Category),
			Result:           result,
		}, nil
	}

	messages := make([]domain.ChatMessage, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, domain.ChatMessage{Role: domain.RoleUser, Content: text})

	reply, err := d.completer.Complete(ctx, messages, d.systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("completing message: %w", err)
	}

	return &DispatchResult{
		ID:               id,
		IsSpecialCommand: false,
		Response:         reply,
	}, nil
}

// deriveCommandType is a looser second classification pass over the raw
// message. It can disagree with the interpreter's category tag; both
// travel in the envelope and consumers prefer the interpreter's.
func deriveCommandType(text string, fallback domain.Category) domain.Category {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "light") || strings.Contains(lower, "turn") ||
		strings.Contains(lower, "thermostat"):
		return domain.CategoryHome
	case strings.Contains(lower, "weather") || strings.Contains(lower, "forecast"):
		return domain.CategoryWeather
	case strings.Contains(lower, "news") || strings.Contains(lower, "headlines"):
		return domain.CategoryNews
	default:
		return fallback
	}
}
