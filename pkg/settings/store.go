package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Store persists Settings between runs.
type Store interface {
	// Load returns saved settings, or ErrNotFound when none exist
	Load(ctx context.Context) (Settings, error)

	// Save replaces the saved settings
	Save(ctx context.Context, s Settings) error
}

// LoadOrDefault reads from st, falling back to Defaults when nothing is saved.
func LoadOrDefault(ctx context.Context, st Store) (Settings, error) {
	s, err := st.Load(ctx)
	if errors.Is(err, ErrNotFound) {
		return Defaults(), nil
	}
	if err != nil {
		return Defaults(), err
	}
	return s.Normalize(), nil
}

// JSONStore implements Store using a JSON file.
type JSONStore struct {
	path string
	mu   sync.Mutex
}

// document is the JSON structure for the settings file.
type document struct {
	Version   int      `json:"version"`
	UpdatedAt string   `json:"updated_at"`
	Settings  Settings `json:"settings"`
}

const currentVersion = 1

// NewJSONStore creates a store at path. The file is created on first save.
func NewJSONStore(path string) (*JSONStore, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return &JSONStore{path: path}, nil
}

// NewDefaultStore creates a store at ~/.peekguard/settings.json.
func NewDefaultStore() (*JSONStore, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return NewJSONStore(filepath.Join(homeDir, ".peekguard", "settings.json"))
}

// Path returns the backing file path.
func (s *JSONStore) Path() string { return s.path }

// Load implements Store
func (s *JSONStore) Load(_ context.Context) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Settings{}, ErrNotFound
	}
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read file: %w", err)
	}

	return decodeDocument(data)
}

// Save implements Store
func (s *JSONStore) Save(_ context.Context, st Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := encodeDocument(st)
	if err != nil {
		return err
	}

	// Write to temp file first, then rename (atomic write)
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func encodeDocument(st Settings) ([]byte, error) {
	data, err := json.MarshalIndent(document{
		Version:   currentVersion,
		UpdatedAt: time.Now().Format(time.RFC3339),
		Settings:  st.Normalize(),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return data, nil
}

func decodeDocument(data []byte) (Settings, error) {
	doc := document{Settings: Defaults()}
	if err := json.Unmarshal(data, &doc); err != nil {
		return Settings{}, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if doc.Version > currentVersion {
		return Settings{}, fmt.Errorf("settings: unsupported version %d", doc.Version)
	}
	return doc.Settings.Normalize(), nil
}
