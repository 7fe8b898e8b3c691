package application

import (
	"context"
	"fmt"
	"log/slog"

	"miso-assistant/internal/domain"
)

const maxHistoryMessages = 40

// Assistant drives the chat loop: one turn is processed start-to-finish
// before the next is accepted, which also serializes all registry
// mutations without locking at this level.
type Assistant struct {
	source     ChatSource
	stt        SpeechToText
	dispatcher *Dispatcher
	notifier   Notifier
	logger     *slog.Logger

	history []domain.ChatMessage
}

func NewAssistant(
	source ChatSource,
	stt SpeechToText,
	dispatcher *Dispatcher,
	notifier Notifier,
	logger *slog.Logger,
) *Assistant {
	return &Assistant{
		source:     source,
		stt:        stt,
		dispatcher: dispatcher,
		notifier:   notifier,
		logger:     logger,
	}
}

func (a *Assistant) Run(ctx context.Context) error {
	a.logger.Info("starting chat source", "source", a.source.Name())
	if err := a.source.Start(ctx); err != nil {
		return fmt.Errorf("starting chat source: %w", err)
	}
	defer a.source.Stop()

	a.logger.Info("assistant ready")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := a.processOneTurn(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				a.logger.Error("processing turn", "error", err)
			}
		}
	}
}

func (a *Assistant) processOneTurn(ctx context.Context) error {
	incoming, err := a.source.Next(ctx)
	if err != nil {
		return fmt.Errorf("getting next turn: %w", err)
	}
	if incoming == nil {
		return nil
	}

	text := incoming.Text
	if text == "" && len(incoming.Audio) > 0 {
		a.logger.Info("received audio", "bytes", len(incoming.Audio))
		text, err = a.stt.Transcribe(ctx, incoming.Audio)
		if err != nil {
			// The sender is still waiting on Respond; don't leave the
			// turn hanging.
			if incoming.Respond != nil {
				incoming.Respond(&DispatchResult{
					ID:       incoming.ID,
					Response: "Sorry, I couldn't understand that audio. Please try again.",
				})
			}
			return fmt.Errorf("transcribing: %w", err)
		}
		a.logger.Info("transcribed", "text", text)
	}
	if text == "" {
		return nil
	}

	result, err := a.dispatcher.ProcessMessage(ctx, incoming.ID, text, a.history)
	if err != nil {
		// The language model path failed; apologize in the transcript
		// and tell the operator.
		a.logger.Error("dispatch failed", "error", err)
		apology := "Sorry, I'm having trouble responding right now. Please try again."
		a.remember(text, apology)
		if incoming.Respond != nil {
			incoming.Respond(&DispatchResult{ID: incoming.ID, Response: apology})
		}
		if notifyErr := a.notifier.Notify(ctx, fmt.Sprintf("Assistant error: %s", err)); notifyErr != nil {
			a.logger.Error("notifying error", "error", notifyErr)
		}
		return err
	}

	a.logger.Info("turn processed",
		"special", result.IsSpecialCommand,
		"command_type", result.CommandType,
	)

	a.remember(text, result.Response)

	if incoming.Respond != nil {
		incoming.Respond(result)
	}
	return nil
}

func (a *Assistant) remember(userText, reply string) {
	a.history = append(a.history,
		domain.ChatMessage{Role: domain.RoleUser, Content: userText},
		domain.ChatMessage{Role: domain.RoleAssistant, Content: reply},
	)
	if len(a.history) > maxHistoryMessages {
		a.history = a.history[len(a.history)-maxHistoryMessages:]
	}
}
