package result

import (
	"encoding/json"
	"fmt"
	"os"
)

// Store maps result keys to tables and carries one metadata record for
// the whole computation. Table order is preserved so save/load
// round-trips byte-for-byte.
type Store struct {
	Meta   Metadata
	order  []string
	tables map[string]Table
}

// NewStore creates an empty store stamped with the given metadata.
func NewStore(meta Metadata) *Store {
	return &Store{Meta: meta, tables: make(map[string]Table)}
}

// Add inserts a table. Duplicate keys are a caller bug.
func (s *Store) Add(t Table) error {
	if _, exists := s.tables[t.Key]; exists {
		return fmt.Errorf("duplicate result key %q", t.Key)
	}
	s.order = append(s.order, t.Key)
	s.tables[t.Key] = t
	return nil
}

// Get returns the table stored under key.
func (s *Store) Get(key string) (Table, bool) {
	t, ok := s.tables[key]
	return t, ok
}

// Keys returns all table keys in insertion order.
func (s *Store) Keys() []string {
	return append([]string(nil), s.order...)
}

// Len returns the number of tables.
func (s *Store) Len() int { return len(s.order) }

// Merge appends every table of other into s. Key collisions are an
// error; metadata must agree on model output mode and method, and the
// models-used list becomes the union.
func (s *Store) Merge(other *Store) error {
	if other == nil {
		return nil
	}
	if s.Meta.ModelOutput != other.Meta.ModelOutput {
		return fmt.Errorf("cannot merge stores with model outputs %q and %q", s.Meta.ModelOutput, other.Meta.ModelOutput)
	}
	if s.Meta.Method != other.Meta.Method {
		return fmt.Errorf("cannot merge stores for methods %q and %q", s.Meta.Method, other.Meta.Method)
	}
	for _, key := range other.order {
		if err := s.Add(other.tables[key]); err != nil {
			return err
		}
	}
	seen := make(map[string]struct{}, len(s.Meta.ModelsUsed))
	for _, m := range s.Meta.ModelsUsed {
		seen[m.String()] = struct{}{}
	}
	for _, m := range other.Meta.ModelsUsed {
		if _, ok := seen[m.String()]; !ok {
			s.Meta.ModelsUsed = append(s.Meta.ModelsUsed, m)
		}
	}
	return nil
}

// storeFile is the persisted layout.
type storeFile struct {
	Meta   Metadata `json:"metadata"`
	Tables []Table  `json:"tables"`
}

// MarshalJSON preserves table insertion order.
func (s *Store) MarshalJSON() ([]byte, error) {
	file := storeFile{Meta: s.Meta, Tables: make([]Table, 0, len(s.order))}
	for _, key := range s.order {
		file.Tables = append(file.Tables, s.tables[key])
	}
	return json.Marshal(file)
}

// UnmarshalJSON restores a store saved with MarshalJSON.
func (s *Store) UnmarshalJSON(data []byte) error {
	var file storeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return err
	}
	s.Meta = file.Meta
	s.order = nil
	s.tables = make(map[string]Table, len(file.Tables))
	for _, t := range file.Tables {
		if err := s.Add(t); err != nil {
			return err
		}
	}
	return nil
}

// Save writes the store to a JSON file.
func (s *Store) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result store: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write result store: %w", err)
	}
	return nil
}

// Load reads a store saved with Save.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read result store: %w", err)
	}
	var s Store
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode result store: %w", err)
	}
	return &s, nil
}
