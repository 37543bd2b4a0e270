package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const indexFile = "index.json"

var (
	// ErrInvalidName is returned for generation names that cannot be used as
	// a directory name.
	ErrInvalidName = errors.New("invalid generation name")
	// ErrNotFound is returned when opening a generation that was never
	// written.
	ErrNotFound = errors.New("generation not found")
)

// Entry is one stored response, keyed by method and request URI.
type Entry struct {
	Method string      `json:"method"`
	Key    string      `json:"key"`
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	File   string      `json:"file"`
	Size   int64       `json:"size"`

	// Body is only set on entries handed to PutAll.
	Body []byte `json:"-"`
}

type bucketIndex struct {
	Generation  string    `json:"generation"`
	InstalledAt time.Time `json:"installedAt"`
	Entries     []*Entry  `json:"entries"`
	Version     int       `json:"version"`
}

// Storage keeps one directory per cache generation under a root directory.
type Storage struct {
	mu  sync.Mutex
	dir string
}

// NewStorage creates a storage rooted at dir. The directory is created on
// first write.
func NewStorage(dir string) *Storage {
	return &Storage{dir: dir}
}

// Dir returns the storage root.
func (s *Storage) Dir() string {
	return s.dir
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.HasPrefix(name, ".") ||
		strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Keys lists the generations present on disk in name order.
func (s *Storage) Keys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		// Hidden directories are in-progress writes.
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.dir, e.Name(), indexFile)); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Has reports whether the named generation has been written.
func (s *Storage) Has(name string) bool {
	if validName(name) != nil {
		return false
	}
	_, err := os.Stat(filepath.Join(s.dir, name, indexFile))
	return err == nil
}

// Open returns a handle on the named generation. A generation that has not
// been written yet yields an empty bucket that PutAll can fill.
func (s *Storage) Open(name string) (*Bucket, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	b := &Bucket{
		storage: s,
		name:    name,
		entries: make(map[string]*Entry),
	}
	if err := b.load(); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return b, nil
}

// Delete removes the named generation from disk.
func (s *Storage) Delete(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.RemoveAll(filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("failed to delete generation %s: %w", name, err)
	}
	return nil
}

// Bucket is a single named generation.
type Bucket struct {
	storage *Storage
	name    string

	mu          sync.RWMutex
	entries     map[string]*Entry
	order       []*Entry
	installedAt time.Time
}

func entryKey(method, key string) string {
	return method + " " + key
}

// Name returns the generation name.
func (b *Bucket) Name() string {
	return b.name
}

func (b *Bucket) path() string {
	return filepath.Join(b.storage.dir, b.name)
}

func (b *Bucket) load() error {
	data, err := os.ReadFile(filepath.Join(b.path(), indexFile))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read cache index: %w", err)
	}

	var idx bucketIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return fmt.Errorf("failed to parse cache index: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = make(map[string]*Entry, len(idx.Entries))
	b.order = idx.Entries
	for _, e := range idx.Entries {
		b.entries[entryKey(e.Method, e.Key)] = e
	}
	b.installedAt = idx.InstalledAt
	return nil
}

// Match looks up a stored response for req. Only the method and the request
// URI take part in the match.
func (b *Bucket) Match(req *http.Request) (*Entry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.entries[entryKey(req.Method, req.URL.RequestURI())]
	return e, ok
}

// Body reads the stored body of e.
func (b *Bucket) Body(e *Entry) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(b.path(), e.File))
	if err != nil {
		return nil, fmt.Errorf("failed to read cached body for %s: %w", e.Key, err)
	}
	return data, nil
}

// PutAll replaces the bucket's contents with entries. The new contents are
// written to a hidden directory and renamed into place, so a failed write
// leaves the previous contents intact.
func (b *Bucket) PutAll(entries []*Entry) error {
	s := b.storage
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	tmp, err := os.MkdirTemp(s.dir, "."+b.name+"-")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	idx := bucketIndex{
		Generation:  b.name,
		InstalledAt: time.Now(),
		Version:     1,
	}
	for _, e := range entries {
		stored := &Entry{
			Method: e.Method,
			Key:    e.Key,
			Status: e.Status,
			Header: e.Header.Clone(),
			File:   uuid.NewString() + ".body",
			Size:   int64(len(e.Body)),
		}
		if stored.Method == "" {
			stored.Method = http.MethodGet
		}
		if err := os.WriteFile(filepath.Join(tmp, stored.File), e.Body, 0644); err != nil {
			return fmt.Errorf("failed to write cached body for %s: %w", e.Key, err)
		}
		idx.Entries = append(idx.Entries, stored)
	}

	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache index: %w", err)
	}
	if err := os.WriteFile(filepath.Join(tmp, indexFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write cache index: %w", err)
	}

	target := b.path()
	var old string
	if _, err := os.Stat(target); err == nil {
		old = filepath.Join(s.dir, "."+b.name+"-old-"+uuid.NewString())
		if err := os.Rename(target, old); err != nil {
			return fmt.Errorf("failed to move previous generation aside: %w", err)
		}
	}
	if err := os.Rename(tmp, target); err != nil {
		if old != "" {
			_ = os.Rename(old, target)
		}
		return fmt.Errorf("failed to move generation into place: %w", err)
	}
	if old != "" {
		_ = os.RemoveAll(old)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = make(map[string]*Entry, len(idx.Entries))
	b.order = idx.Entries
	for _, e := range idx.Entries {
		b.entries[entryKey(e.Method, e.Key)] = e
	}
	b.installedAt = idx.InstalledAt
	return nil
}

// Entries returns the stored entries in manifest order.
func (b *Bucket) Entries() []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Entry, len(b.order))
	for i, e := range b.order {
		out[i] = *e
	}
	return out
}

// Len is the number of stored entries.
func (b *Bucket) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.order)
}

// Size is the total body size of the stored entries.
func (b *Bucket) Size() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var total int64
	for _, e := range b.order {
		total += e.Size
	}
	return total
}

// InstalledAt is when the bucket was last written.
func (b *Bucket) InstalledAt() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.installedAt
}
