// Package imagestore holds images that only live in memory, addressed from message
// content through "temp:<id>" references and released by reference counting.
package imagestore

import (
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RefPrefix is the scheme of a temporary image reference.
const RefPrefix = "temp:"

// tempRefPattern matches every temp:<id> occurrence in message content.
var tempRefPattern = regexp.MustCompile(`temp:([A-Za-z0-9_-]+)`)

// Source records where an image came from.
type Source string

const (
	SourcePaste      Source = "paste"
	SourceDrop       Source = "drop"
	SourceScreenshot Source = "screenshot"
	SourceFile       Source = "file"
)

// Record is a temporary image and its reference count.
type Record struct {
	ID        string
	DataURI   string
	Source    Source
	FileName  string
	RefCount  int
	CreatedAt time.Time
}

// Store is a reference-counted in-memory image store. It is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	records map[string]*Record
	logger  *slog.Logger
}

// New creates an empty store.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		records: make(map[string]*Record),
		logger:  logger.With("component", "image_store"),
	}
}

// Ref returns the content reference for an image id.
func Ref(id string) string {
	return RefPrefix + id
}

// ParseRef returns the id of a temp:<id> reference.
func ParseRef(ref string) (string, bool) {
	m := tempRefPattern.FindStringSubmatch(ref)
	if m == nil || m[0] != ref {
		return "", false
	}
	return m[1], true
}

// RefsInContent returns the ids of every temp reference in content, in order of
// appearance. Repeated references are repeated in the result.
func RefsInContent(content string) []string {
	matches := tempRefPattern.FindAllStringSubmatch(content, -1)
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m[1])
	}
	return ids
}

// AddTempImage stores an image with a zero reference count and returns its id.
func (s *Store) AddTempImage(dataURI string, source Source, fileName string) string {
	id := uuid.NewString()

	s.mu.Lock()
	s.records[id] = &Record{
		ID:        id,
		DataURI:   dataURI,
		Source:    source,
		FileName:  fileName,
		CreatedAt: time.Now(),
	}
	s.mu.Unlock()

	s.logger.Debug("temp image added", "id", id, "source", source, "file_name", fileName)
	return id
}

// GetTempImageData returns a copy of the record for id, or nil if it was never
// added or has been evicted.
func (s *Store) GetTempImageData(id string) *Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil
	}
	cp := *rec
	return &cp
}

// UpdateRefsFromContent applies +1 or -1 to every image referenced by content.
// Records whose count drops to zero are evicted.
func (s *Store) UpdateRefsFromContent(content string, increment bool) {
	ids := RefsInContent(content)
	if len(ids) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if increment {
			s.incrementLocked(id)
		} else {
			s.decrementLocked(id)
		}
	}
}

// RemoveRef decrements a single record and evicts it at zero.
func (s *Store) RemoveRef(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decrementLocked(id)
}

// Len returns the number of live records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Clear evicts every record.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]*Record)
}

func (s *Store) incrementLocked(id string) {
	rec, ok := s.records[id]
	if !ok {
		s.logger.Warn("reference to unknown temp image", "id", id)
		return
	}
	rec.RefCount++
}

func (s *Store) decrementLocked(id string) {
	rec, ok := s.records[id]
	if !ok {
		return
	}
	rec.RefCount--
	if rec.RefCount <= 0 {
		delete(s.records, id)
		s.logger.Debug("temp image evicted", "id", id)
	}
}
