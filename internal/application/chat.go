package application

import "context"

// Incoming is one user turn from a chat source. Either Text or Audio is
// set. Respond delivers the dispatch result back to whoever sent the
// turn; sources that cannot carry a response leave it nil.
type Incoming struct {
	ID      string
	Text    string
	Audio   []byte
	Respond func(*DispatchResult)
}

// ChatSource produces user turns. Next blocks until a turn arrives or
// the context is cancelled.
type ChatSource interface {
	Start(ctx context.Context) error
	Stop() error
	Next(ctx context.Context) (*Incoming, error)
	Name() string
}

type AudioFormat struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

func DefaultAudioFormat() AudioFormat {
	return AudioFormat{
		SampleRate: 16000,
		Channels:   1,
		BitDepth:   16,
	}
}
