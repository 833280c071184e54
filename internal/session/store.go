// Package session persists conversations as one JSON record per session in
// a history directory.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/moby/sys/atomicwriter"
	"go.uber.org/zap"
)

const (
	recordExt = ".json"

	untitled        = "Untitled Chat"
	unknownProvider = "unknown"
)

// Store handles persistence of sessions.
// It assumes a single writer process.
type Store struct {
	dir    string
	logger *zap.Logger
	record *validator
}

// NewStore creates the history directory if needed and returns a store over it.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	record, err := newValidator(recordSchemaLoader)
	if err != nil {
		return nil, err
	}
	return &Store{
		dir:    dir,
		logger: logger.Named("session"),
		record: record,
	}, nil
}

// Dir returns the history directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the record file for id.
func (s *Store) Path(id string) string {
	return filepath.Join(s.dir, id+recordExt)
}

// Save writes sess to its record, replacing any previous version. Sessions
// without an accepted turn are skipped and saved is false. The title is
// derived here the first time a default-titled session is persisted.
func (s *Store) Save(sess *Session) (saved bool, err error) {
	if sess.TurnCount() < 1 {
		return false, nil
	}
	if err := checkID(sess.ID); err != nil {
		return false, err
	}

	sess.ensureTitle()
	sess.UpdatedAt = time.Now()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = sess.Timestamp()
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return false, fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := atomicwriter.WriteFile(s.Path(sess.ID), data, 0644); err != nil {
		return false, fmt.Errorf("failed to write session file: %w", err)
	}

	s.logger.Debug("session saved",
		zap.String("id", sess.ID),
		zap.String("title", sess.Title),
		zap.Int("messages", len(sess.Messages)),
	)
	return true, nil
}

// Load reads the record for id. Provider and model are returned as stored;
// checking them against the catalog is the caller's job.
func (s *Store) Load(id string) (*Session, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	if err := s.record.validate(data); err != nil {
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if sess.ID != id {
		return nil, fmt.Errorf("%w: record id %q does not match %q", ErrMalformed, sess.ID, id)
	}
	s.logger.Debug("session loaded", zap.String("id", id), zap.Int("messages", len(sess.Messages)))
	return &sess, nil
}

// List returns every session Load would accept, newest first. Other files
// are skipped; an empty or missing directory yields an empty list.
func (s *Store) List() []Meta {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("failed to read history directory", zap.Error(err))
		return []Meta{}
	}

	metas := make([]Meta, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), recordExt) {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), recordExt)
		meta, err := s.readMeta(id)
		if err != nil {
			s.logger.Debug("skipping session file", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		metas = append(metas, meta)
	}

	sort.SliceStable(metas, func(i, j int) bool {
		if !metas[i].Timestamp.Equal(metas[j].Timestamp) {
			return metas[i].Timestamp.After(metas[j].Timestamp)
		}
		return metas[i].ID > metas[j].ID
	})
	return metas
}

func (s *Store) readMeta(id string) (Meta, error) {
	if err := checkID(id); err != nil {
		return Meta{}, err
	}
	data, err := os.ReadFile(s.Path(id))
	if err != nil {
		return Meta{}, err
	}
	if err := s.record.validate(data); err != nil {
		return Meta{}, err
	}

	var rec struct {
		ID        string    `json:"id"`
		Title     string    `json:"title"`
		Provider  string    `json:"provider"`
		CreatedAt time.Time `json:"created_at"`
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return Meta{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if rec.ID != id {
		return Meta{}, fmt.Errorf("%w: record id %q does not match %q", ErrMalformed, rec.ID, id)
	}

	meta := Meta{
		ID:        rec.ID,
		Title:     rec.Title,
		Provider:  rec.Provider,
		Timestamp: timestampOf(rec.ID, rec.CreatedAt),
	}
	if meta.Title == "" {
		meta.Title = untitled
	}
	if meta.Provider == "" {
		meta.Provider = unknownProvider
	}
	return meta, nil
}

// checkID keeps ids from escaping the history directory.
func checkID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: invalid id %q", ErrNotFound, id)
	}
	return nil
}
