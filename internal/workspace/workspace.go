package workspace

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/pomosite/internal/foundation/errors"
	"git.home.luguber.info/inful/pomosite/internal/logfields"
)

// Manager handles the scratch directory of one run.
type Manager struct {
	baseDir    string
	dir        string
	persistent bool // If true, use the fixed dir and keep it on Cleanup
	created    bool
}

// NewManager creates a manager for ephemeral directories under baseDir
// (os.TempDir when empty).
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir}
}

// NewPersistentManager creates a manager that always uses dir and never removes it.
func NewPersistentManager(dir string) *Manager {
	return &Manager{
		baseDir:    filepath.Dir(dir),
		dir:        dir,
		persistent: true,
	}
}

// Create creates the scratch directory.
func (m *Manager) Create() error {
	if m.persistent {
		if err := os.MkdirAll(m.dir, 0o750); err != nil {
			return fsError(err, "create persistent workspace", m.dir)
		}
		slog.Debug("Using persistent workspace", logfields.Path(m.dir))
		m.created = true
		return nil
	}

	if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
		return fsError(err, "create workspace base directory", m.baseDir)
	}
	dir, err := os.MkdirTemp(m.baseDir, "pomosite-"+time.Now().Format("20060102-150405")+"-*")
	if err != nil {
		return fsError(err, "create workspace", m.baseDir)
	}
	m.dir = dir
	m.created = true
	slog.Debug("Created workspace", logfields.Path(dir))
	return nil
}

// Path returns the scratch directory, empty before Create.
func (m *Manager) Path() string {
	if !m.created {
		return ""
	}
	return m.dir
}

// Persistent reports whether the directory outlives the run.
func (m *Manager) Persistent() bool {
	return m.persistent
}

// Cleanup removes an ephemeral directory. Persistent directories are kept.
func (m *Manager) Cleanup() error {
	if !m.created || m.persistent {
		return nil
	}
	if err := os.RemoveAll(m.dir); err != nil {
		return fsError(err, "remove workspace", m.dir)
	}
	slog.Debug("Cleaned up workspace", logfields.Path(m.dir))
	m.dir = ""
	m.created = false
	return nil
}

// LanguageDir returns an empty directory for the translated templates of languageTag.
// Output of a previous run in a persistent workspace is removed first.
func (m *Manager) LanguageDir(languageTag string) (string, error) {
	if !m.created {
		return "", errors.InternalError("workspace not created").Build()
	}
	if languageTag == "" || strings.ContainsAny(languageTag, `/\`) || languageTag == "." || languageTag == ".." {
		return "", errors.InternalError("invalid workspace language directory").
			WithContext("language_tag", languageTag).
			Build()
	}

	sub := filepath.Join(m.dir, languageTag)
	if err := os.RemoveAll(sub); err != nil {
		return "", fsError(err, "clear language directory", sub)
	}
	if err := os.MkdirAll(sub, 0o750); err != nil {
		return "", fsError(err, "create language directory", sub)
	}
	return sub, nil
}

func fsError(err error, msg, path string) error {
	return errors.WrapError(err, errors.CategoryFileSystem, msg).
		Fatal().
		WithContext("path", path).
		Build()
}
