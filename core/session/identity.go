// Package session provides the stable conversation identity that ties turns
// submitted by this client to one backend conversation.
package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Identity is an opaque conversation identity. The backend treats it as a
// key for conversation state and attaches no other meaning to it.
type Identity struct {
	ID string
}

// New mints a fresh identity.
func New() Identity {
	return Identity{ID: uuid.NewString()}
}

func (i Identity) IsZero() bool {
	return i.ID == ""
}

// LoadOrCreate restores the identity stored at path, or mints and stores a
// fresh one when none is stored yet. The second return reports whether an
// existing identity was restored.
func LoadOrCreate(path string) (Identity, bool, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return Identity{ID: id}, true, nil
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return Identity{}, false, fmt.Errorf("failed to read session file %s: %w", path, err)
	}

	identity := New()
	if err := identity.Save(path); err != nil {
		return Identity{}, false, err
	}
	return identity, false, nil
}

// Save stores the identity at path, creating parent directories as needed.
func (i Identity) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(i.ID+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write session file %s: %w", path, err)
	}
	return nil
}
