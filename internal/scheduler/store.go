package scheduler

import (
	"sort"
	"time"

	"github.com/nuoa-io/nuoactl/internal/storage/dirstore"
)

// Store persists schedule entries as directories with meta.json.
type Store struct {
	ds *dirstore.DirStore
}

// NewStore creates a Store rooted at baseDir.
func NewStore(baseDir string) *Store {
	return &Store{ds: dirstore.New(baseDir, "schedule")}
}

// Create persists a new schedule entry to disk.
func (s *Store) Create(entry *Entry) error {
	s.ds.Lock()
	defer s.ds.Unlock()

	if entry.ID == "" {
		entry.ID = GenerateEntryID()
	}
	entry.CreatedAt = time.Now()

	if err := s.ds.EnsureDir(entry.ID); err != nil {
		return err
	}
	return s.ds.WriteMeta(entry.ID, entry)
}

// Get reads a schedule entry by ID.
func (s *Store) Get(id string) (*Entry, error) {
	s.ds.RLock()
	defer s.ds.RUnlock()

	var entry Entry
	if err := s.ds.ReadMeta(id, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns all entries sorted by creation time.
func (s *Store) List() ([]Entry, error) {
	s.ds.RLock()
	defer s.ds.RUnlock()

	ids, err := s.ds.ListDirs()
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, id := range ids {
		var entry Entry
		if err := s.ds.ReadMeta(id, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.Before(entries[j].CreatedAt) })
	return entries, nil
}

// MarkRun records the last run time of an entry.
func (s *Store) MarkRun(id string, at time.Time) error {
	s.ds.Lock()
	defer s.ds.Unlock()

	var entry Entry
	if err := s.ds.ReadMeta(id, &entry); err != nil {
		return err
	}
	entry.LastRunAt = &at
	return s.ds.WriteMeta(id, &entry)
}

// Remove deletes a schedule entry.
func (s *Store) Remove(id string) error {
	s.ds.Lock()
	defer s.ds.Unlock()
	return s.ds.RemoveDir(id)
}
