package store

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mcptap/mcptap/pkg/capture"
)

const (
	sessionFilePrefix = "session_"
	sessionFileSuffix = ".json"
)

// FileStore keeps each session as one JSON file in a directory.
// Writes go through a temp file and rename so a crash mid-save never
// leaves a truncated artifact behind.
type FileStore struct {
	dir string
	log *slog.Logger
}

// NewFileStore creates the directory if needed and returns a store.
func NewFileStore(dir string, log *slog.Logger) (*FileStore, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	return &FileStore{dir: dir, log: log}, nil
}

// Dir returns the directory sessions are stored in.
func (s *FileStore) Dir() string {
	return s.dir
}

// Save writes the session atomically and returns its path.
func (s *FileStore) Save(export *capture.SessionExport) (string, error) {
	if export == nil || export.ID == "" {
		return "", fmt.Errorf("session export missing id")
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}

	path := s.sessionPath(export.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return "", fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("write session file: %w", err)
	}

	s.log.Info("saved session", "id", export.ID, "path", path, "calls", len(export.Calls))
	return path, nil
}

// Load reads a session by ID or by file path. A ref containing a path
// separator or ending in .json is treated as a path.
func (s *FileStore) Load(ref string) (*capture.SessionExport, error) {
	path := ref
	if !strings.ContainsRune(ref, os.PathSeparator) && !strings.HasSuffix(ref, sessionFileSuffix) {
		path = s.sessionPath(ref)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var export capture.SessionExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupted, path, err)
	}
	return &export, nil
}

// List scans the directory and returns summaries, newest first.
// Unparseable files are skipped with a warning.
func (s *FileStore) List() ([]Summary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session directory: %w", err)
	}

	var summaries []Summary
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, sessionFilePrefix) || !strings.HasSuffix(name, sessionFileSuffix) {
			continue
		}

		path := filepath.Join(s.dir, name)
		export, err := s.Load(path)
		if err != nil {
			s.log.Warn("skipping unreadable session file", "path", path, "error", err)
			continue
		}

		summaries = append(summaries, Summary{
			ID:        export.ID,
			Mode:      export.Mode,
			StartTime: export.StartTime,
			CallCount: len(export.Calls),
			Servers:   export.Servers,
			Path:      path,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].StartTime.After(summaries[j].StartTime)
	})
	return summaries, nil
}

// Latest loads the most recently started session.
func (s *FileStore) Latest() (*capture.SessionExport, error) {
	summaries, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, ErrNotFound
	}
	return s.Load(summaries[0].Path)
}

// sessionPath returns the file path for a session ID.
func (s *FileStore) sessionPath(id string) string {
	return filepath.Join(s.dir, sessionFilePrefix+id+sessionFileSuffix)
}
