package reminder

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// storeAPI sorts conversation keys so the file diffs cleanly between saves.
var storeAPI = sonic.Config{SortMapKeys: true}.Froze()

// Store keeps every conversation's ordered item list and persists it to a
// single JSON document. Positions within a list are what users see as
// indices, so insertion order is preserved.
type Store struct {
	fs   afero.Fs
	path string
	loc  *time.Location
	now  func() time.Time
	// armed reports items still owned by a live trigger. Those are not
	// pruned as outdated, since the trigger removes them once it has fired.
	armed func(itemID string) bool

	mu    sync.RWMutex
	lists map[string][]Item
}

// NewStore creates a Store backed by path on fs. A nil fs means the OS
// filesystem. The file is created on the first Save.
func NewStore(fs afero.Fs, path string, loc *time.Location) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Store{
		fs:    fs,
		path:  path,
		loc:   loc,
		now:   time.Now,
		lists: make(map[string][]Item),
	}
}

func (s *Store) Path() string { return s.path }

// Load replaces the in-memory state with the file contents. A missing file
// is an empty store. Items written without an id get one.
func (s *Store) Load() error {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read store file: %w", err)
	}

	lists := make(map[string][]Item)
	if len(data) > 0 {
		if err := storeAPI.Unmarshal(data, &lists); err != nil {
			return fmt.Errorf("unmarshal store: %w", err)
		}
	}
	for key, items := range lists {
		for i := range items {
			if items[i].ID == "" {
				items[i].ID = newItemID()
			}
		}
		lists[key] = items
	}

	s.mu.Lock()
	s.lists = lists
	s.mu.Unlock()
	return nil
}

// Save prunes the store and writes it atomically (tmp + rename). Pruning
// drops items without a datetime, unarmed one-shots whose time has passed
// and conversations left empty.
func (s *Store) Save() error {
	s.mu.Lock()
	s.pruneLocked(s.now().In(s.loc))
	data, err := storeAPI.MarshalIndent(s.lists, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write tmp store: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("rename store: %w", err)
	}
	return nil
}

func (s *Store) pruneLocked(now time.Time) {
	for key, items := range s.lists {
		kept := items[:0]
		for _, it := range items {
			if it.DateTime == "" {
				continue
			}
			if IsOutdated(it, now, s.loc) && (s.armed == nil || !s.armed(it.ID)) {
				continue
			}
			kept = append(kept, it)
		}
		if len(kept) == 0 {
			delete(s.lists, key)
			continue
		}
		s.lists[key] = kept
	}
}

// Append adds it to the end of key's list and returns its position.
func (s *Store) Append(key string, it Item) int {
	if it.ID == "" {
		it.ID = newItemID()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[key] = append(s.lists[key], it)
	return len(s.lists[key]) - 1
}

// List returns a copy of key's items in stored order.
func (s *Store) List(key string) []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Item(nil), s.lists[key]...)
}

// Find looks an item up by id.
func (s *Store) Find(key, id string) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.lists[key] {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// RemoveAt deletes the item at position i of key's list.
func (s *Store) RemoveAt(key string, i int) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.lists[key]
	if i < 0 || i >= len(items) {
		return Item{}, fmt.Errorf("%w: %d (have %d)", ErrInvalidIndex, i+1, len(items))
	}
	it := items[i]
	s.setLocked(key, append(items[:i:i], items[i+1:]...))
	return it, nil
}

// RemoveByID deletes the item with the given id, if still present.
func (s *Store) RemoveByID(key, id string) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.lists[key]
	for i, it := range items {
		if it.ID == id {
			s.setLocked(key, append(items[:i:i], items[i+1:]...))
			return it, true
		}
	}
	return Item{}, false
}

// RemoveMatching deletes every item of key's list for which match is true
// and returns them in stored order.
func (s *Store) RemoveMatching(key string, match func(Item) bool) []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed, kept []Item
	for _, it := range s.lists[key] {
		if match(it) {
			removed = append(removed, it)
		} else {
			kept = append(kept, it)
		}
	}
	if len(removed) > 0 {
		s.setLocked(key, kept)
	}
	return removed
}

// Replace overwrites the item sharing it's id. It reports whether one was found.
func (s *Store) Replace(key string, it Item) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.lists[key] {
		if s.lists[key][i].ID == it.ID {
			s.lists[key][i] = it
			return true
		}
	}
	return false
}

// Keys returns all conversation keys, sorted.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.lists))
	for k := range s.lists {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a deep copy of every list.
func (s *Store) Snapshot() map[string][]Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]Item, len(s.lists))
	for k, items := range s.lists {
		out[k] = append([]Item(nil), items...)
	}
	return out
}

func (s *Store) setLocked(key string, items []Item) {
	if len(items) == 0 {
		delete(s.lists, key)
		return
	}
	s.lists[key] = items
}

func newItemID() string {
	return uuid.NewString()
}
