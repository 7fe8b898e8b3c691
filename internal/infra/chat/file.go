package chat

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"miso-assistant/internal/application"
)

// FileSource replays chat scripts dropped into a directory: each .txt
// file is a sequence of user messages, one per line. Useful for demos
// and manual testing without a browser.
type FileSource struct {
	dir       string
	processed map[string]bool
	pending   []string
	mu        sync.Mutex
}

func NewFileSource(dir string) *FileSource {
	return &FileSource{
		dir:       dir,
		processed: make(map[string]bool),
	}
}

func (f *FileSource) Name() string {
	return "file"
}

func (f *FileSource) Start(_ context.Context) error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("creating script dir: %w", err)
	}
	return nil
}

func (f *FileSource) Stop() error {
	return nil
}

func (f *FileSource) Next(ctx context.Context) (*application.Incoming, error) {
	if text := f.nextPending(); text != "" {
		return &application.Incoming{ID: uuid.NewString(), Text: text}, nil
	}

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			if err := f.loadNewScript(); err != nil {
				return nil, err
			}
			if text := f.nextPending(); text != "" {
				return &application.Incoming{ID: uuid.NewString(), Text: text}, nil
			}
		}
	}
}

func (f *FileSource) nextPending() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	for len(f.pending) > 0 {
		text := strings.TrimSpace(f.pending[0])
		f.pending = f.pending[1:]
		if text != "" && !strings.HasPrefix(text, "#") {
			return text
		}
	}
	return ""
}

func (f *FileSource) loadNewScript() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return fmt.Errorf("reading dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".txt" {
			continue
		}

		path := filepath.Join(f.dir, entry.Name())
		if f.processed[path] {
			continue
		}

		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening script %s: %w", path, err)
		}

		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			f.pending = append(f.pending, scanner.Text())
		}
		scanErr := scanner.Err()
		file.Close()
		if scanErr != nil {
			return fmt.Errorf("reading script %s: %w", path, scanErr)
		}

		f.processed[path] = true
		os.Rename(path, path+".processed")
		return nil
	}

	return nil
}
