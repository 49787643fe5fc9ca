// Package store persists session artifacts as JSON files.
package store

import (
	"errors"
	"time"

	"github.com/mcptap/mcptap/pkg/capture"
)

// Store errors.
var (
	// ErrNotFound means no saved session matches the reference.
	ErrNotFound = errors.New("session not found")
	// ErrCorrupted means the session file exists but does not parse.
	ErrCorrupted = errors.New("session file corrupted")
)

// Summary is the listing view of a saved session.
type Summary struct {
	ID        string       `json:"id"`
	Mode      capture.Mode `json:"mode"`
	StartTime time.Time    `json:"startTime"`
	CallCount int          `json:"callCount"`
	Servers   []string     `json:"servers,omitempty"`
	Path      string       `json:"path"`
}

// Store saves and loads session artifacts.
type Store interface {
	// Save writes the session and returns the path it was written to.
	Save(export *capture.SessionExport) (string, error)
	// Load reads a session by ID or by file path.
	Load(ref string) (*capture.SessionExport, error)
	// List returns summaries of all saved sessions, newest first.
	List() ([]Summary, error)
	// Latest loads the most recently started saved session.
	Latest() (*capture.SessionExport, error)
}
