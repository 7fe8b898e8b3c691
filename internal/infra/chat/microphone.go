//go:build portaudio
// +build portaudio

package chat

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/gordonklaus/portaudio"

	"miso-assistant/internal/application"
)

// MicrophoneSource captures voice turns from the default input device.
// Recording stops after a second of silence or ten seconds of audio;
// the captured WAV is handed to the assistant for transcription.
type MicrophoneSource struct {
	stream *portaudio.Stream
	format application.AudioFormat
	logger *slog.Logger
}

func NewMicrophoneSource(format application.AudioFormat, logger *slog.Logger) *MicrophoneSource {
	return &MicrophoneSource{
		format: format,
		logger: logger,
	}
}

func (m *MicrophoneSource) Name() string {
	return "microphone"
}

func (m *MicrophoneSource) Start(_ context.Context) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}

	outputChannels := 0
	framesPerBuffer := 1024

	buffer := make([]int16, framesPerBuffer)

	stream, err := portaudio.OpenDefaultStream(
		m.format.Channels,
		outputChannels,
		float64(m.format.SampleRate),
		framesPerBuffer,
		buffer,
	)
	if err != nil {
		return fmt.Errorf("opening stream: %w", err)
	}

	m.stream = stream

	if err := m.stream.Start(); err != nil {
		return fmt.Errorf("starting stream: %w", err)
	}

	m.logger.Info("microphone started", "sampleRate", m.format.SampleRate)
	return nil
}

func (m *MicrophoneSource) Stop() error {
	if m.stream != nil {
		m.stream.Stop()
		m.stream.Close()
	}
	portaudio.Terminate()
	return nil
}

func (m *MicrophoneSource) Next(ctx context.Context) (*application.Incoming, error) {
	m.logger.Info("listening for a voice turn")

	samples := make([]int16, 0, m.format.SampleRate*5)
	silenceThreshold := int16(500)
	silenceDuration := 0
	maxSilenceFrames := m.format.SampleRate

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		buffer := make([]int16, 1024)
		if err := m.stream.Read(); err != nil {
			return nil, fmt.Errorf("reading from stream: %w", err)
		}

		samples = append(samples, buffer...)

		isSilent := true
		for _, sample := range buffer {
			if sample > silenceThreshold || sample < -silenceThreshold {
				isSilent = false
				break
			}
		}

		if isSilent {
			silenceDuration += len(buffer)
		} else {
			silenceDuration = 0
		}

		if silenceDuration > maxSilenceFrames && len(samples) > m.format.SampleRate {
			break
		}

		if len(samples) > m.format.SampleRate*10 {
			break
		}
	}

	wav, err := samplesToWav(samples, m.format)
	if err != nil {
		return nil, err
	}

	return &application.Incoming{ID: uuid.NewString(), Audio: wav}, nil
}

func samplesToWav(samples []int16, format application.AudioFormat) ([]byte, error) {
	var buf bytes.Buffer

	bytesPerSample := format.BitDepth / 8
	blockAlign := format.Channels * bytesPerSample
	dataSize := len(samples) * bytesPerSample
	fileSize := 36 + dataSize

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, int32(fileSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, int32(16))
	binary.Write(&buf, binary.LittleEndian, int16(1))
	binary.Write(&buf, binary.LittleEndian, int16(format.Channels))
	binary.Write(&buf, binary.LittleEndian, int32(format.SampleRate))
	binary.Write(&buf, binary.LittleEndian, int32(format.SampleRate*blockAlign))
	binary.Write(&buf, binary.LittleEndian, int16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, int16(format.BitDepth))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, int32(dataSize))
	for _, sample := range samples {
		binary.Write(&buf, binary.LittleEndian, sample)
	}

	return buf.Bytes(), nil
}
