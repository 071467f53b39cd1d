// Package memory implements the per-database free-form notes store (spec
// §3 MemoryEntry, §4.6.1 prompt assembly), adapted from the reference
// project's thread-keyed MemoryService: rekeyed from thread id to
// database name, and flattened from the source's long/medium/short tiers
// to a single flat list of entries.
package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is a MemoryEntry: a single free-form note for one database.
type Entry struct {
	ID           string `json:"id"`
	DatabaseName string `json:"database_name"`
	Content      string `json:"content"`
	CreatedAt    string `json:"created_at"`
}

type fileFormat struct {
	Databases map[string][]Entry `json:"databases"`
}

// Store is a JSON-file-backed memory store, one file shared across every
// database the process touches, scoped per entry by DatabaseName.
type Store struct {
	path string
	data fileFormat
	mu   sync.Mutex
}

// Open loads (or initializes) the memory store at path. A missing file is
// not an error — it is treated as an empty store, matching the reference
// implementation's load().
func Open(path string) (*Store, error) {
	s := &Store{path: path, data: fileFormat{Databases: make(map[string][]Entry)}}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("memory: read: %w", err)
	}
	if len(raw) == 0 {
		return nil
	}
	var loaded fileFormat
	if err := json.Unmarshal(raw, &loaded); err != nil {
		return fmt.Errorf("memory: parse: %w", err)
	}
	if loaded.Databases == nil {
		loaded.Databases = make(map[string][]Entry)
	}
	s.data = loaded
	return nil
}

func (s *Store) save() error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("memory: mkdir: %w", err)
		}
	}
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("memory: marshal: %w", err)
	}
	return os.WriteFile(s.path, raw, 0o644)
}

// Add appends a new note for databaseName and persists it immediately.
func (s *Store) Add(databaseName, content string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := Entry{
		ID:           uuid.NewString(),
		DatabaseName: databaseName,
		Content:      content,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339Nano),
	}
	s.data.Databases[databaseName] = append(s.data.Databases[databaseName], entry)
	if err := s.save(); err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns a copy of every note for databaseName, in insertion order.
func (s *Store) List(databaseName string) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.data.Databases[databaseName]
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// FormatForPrompt renders the notes for databaseName as the verbatim
// memory section injected into the system prompt (spec §4.6.1 step 3/4).
// Returns "" when there are no notes, so the caller can skip the section
// marker entirely.
func (s *Store) FormatForPrompt(databaseName string) string {
	entries := s.List(databaseName)
	if len(entries) == 0 {
		return ""
	}
	out := ""
	for _, e := range entries {
		out += "- " + e.Content + "\n"
	}
	return out
}

// Clear removes every note for databaseName.
func (s *Store) Clear(databaseName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data.Databases, databaseName)
	return s.save()
}
