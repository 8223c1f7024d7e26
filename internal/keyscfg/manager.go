package keyscfg

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	readOnlyMode = os.FileMode(0444)
	writableMode = os.FileMode(0644)
)

// Manager owns all disk access to the keys.cfg file. The file is kept
// read-only between writes so the game client cannot clobber it on exit;
// every operation that needs access clears the protection and restores it
// before returning, including on error paths.
type Manager struct {
	path string
	log  *slog.Logger
}

func NewManager(path string, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{path: path, log: log}
}

func (m *Manager) Path() string { return m.path }

// IsReadOnly reports whether the file currently has its write permission
// cleared. A missing file counts as writable.
func (m *Manager) IsReadOnly() (bool, error) {
	info, err := os.Stat(m.path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", m.path, err)
	}
	return info.Mode().Perm()&0200 == 0, nil
}

// SetReadOnly clears write permission on the file.
func (m *Manager) SetReadOnly() error {
	if err := os.Chmod(m.path, readOnlyMode); err != nil {
		return fmt.Errorf("protect %s: %w", m.path, err)
	}
	return nil
}

// SetWritable restores write permission on the file.
func (m *Manager) SetWritable() error {
	if err := os.Chmod(m.path, writableMode); err != nil {
		return fmt.Errorf("unprotect %s: %w", m.path, err)
	}
	return nil
}

// withWritable runs fn with the file writable, then restores the
// read-only state the file had on entry. The restore happens even when
// fn fails.
func (m *Manager) withWritable(fn func() error) error {
	wasReadOnly, err := m.IsReadOnly()
	if err != nil {
		return err
	}
	if wasReadOnly {
		if err := m.SetWritable(); err != nil {
			return err
		}
		defer func() {
			if err := m.SetReadOnly(); err != nil {
				m.log.Warn("failed to restore read-only protection", "path", m.path, "error", err)
			}
		}()
	}
	return fn()
}

// Read parses the current file. A missing file yields an empty result
// with HasMarkers false.
func (m *Manager) Read() (ParsedFile, error) {
	var parsed ParsedFile
	err := m.withWritable(func() error {
		content, err := os.ReadFile(m.path)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", m.path, err)
		}
		parsed = Parse(content, m.log)
		return nil
	})
	return parsed, err
}

// Write renders doc and replaces the file atomically: the content goes
// to a temp file in the same directory first, then renames over the
// target, so a crash mid-write can never leave a truncated keys.cfg.
// When doc carries no user section the existing file's section is
// preserved. The file is left read-only on success.
func (m *Manager) Write(doc Document) error {
	if doc.UserSection == nil {
		existing, err := m.Read()
		if err != nil {
			return err
		}
		if existing.HasMarkers || len(existing.UserSection) > 0 {
			doc.UserSection = existing.UserSection
			if doc.UserSection == nil {
				doc.UserSection = []string{}
			}
		}
	}

	content, err := Render(doc)
	if err != nil {
		return fmt.Errorf("render binds file: %w", err)
	}

	err = m.withWritable(func() error {
		dir := filepath.Dir(m.path)
		tmp, err := os.CreateTemp(dir, ".keys-*.cfg")
		if err != nil {
			return fmt.Errorf("create temp file in %s: %w", dir, err)
		}
		tmpName := tmp.Name()
		defer os.Remove(tmpName)

		if _, err := tmp.Write(content); err != nil {
			tmp.Close()
			return fmt.Errorf("write %s: %w", tmpName, err)
		}
		if err := tmp.Close(); err != nil {
			return fmt.Errorf("close %s: %w", tmpName, err)
		}
		if err := os.Rename(tmpName, m.path); err != nil {
			return fmt.Errorf("replace %s: %w", m.path, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := m.SetReadOnly(); err != nil {
		return err
	}
	m.log.Info("binds file written",
		"path", m.path,
		"crafting", len(doc.Crafting),
		"static", len(doc.Static),
		"dynamic", len(doc.Dynamic))
	return nil
}
