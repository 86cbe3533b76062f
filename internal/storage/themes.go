package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"

	"github.com/dpshade/prompt-genie/internal/errors"
	"github.com/dpshade/prompt-genie/internal/models"
	"github.com/dpshade/prompt-genie/internal/validation"
)

// DefaultThemesFile is the file name of the template library
const DefaultThemesFile = "theme_prompts.json"

const backupTimeLayout = "20060102_150405"

// themesDocument is the on-disk shape of theme_prompts.json
type themesDocument struct {
	Themes []json.RawMessage `json:"themes"`
}

// heldEntry is a themes entry that Load could not turn into a valid template.
// It is written back unchanged at its original position.
type heldEntry struct {
	index int
	raw   json.RawMessage
}

// ThemeFile reads and durably writes the template library file
type ThemeFile struct {
	path   string
	logger zerolog.Logger
	held   []heldEntry

	now           func() time.Time
	rename        func(oldpath, newpath string) error
	renameRetries uint
	retryDelay    time.Duration
}

// NewThemeFile creates a ThemeFile for path
func NewThemeFile(path string, logger zerolog.Logger) *ThemeFile {
	return &ThemeFile{
		path:          path,
		logger:        logger.With().Str("file", path).Logger(),
		now:           time.Now,
		rename:        os.Rename,
		renameRetries: 3,
		retryDelay:    50 * time.Millisecond,
	}
}

// Path returns the library file path
func (f *ThemeFile) Path() string {
	return f.path
}

// Load reads the template library. A missing file or a missing "themes" key
// yields an empty library and a nil error. Unreadable or malformed files yield
// an empty library and a PersistenceError or ParseError respectively. Entries
// that cannot be decoded or fail validation are left out of the result with a
// warning; the next Save writes them back as they were.
func (f *ThemeFile) Load() ([]models.Template, error) {
	f.held = nil
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			f.logger.Warn().Msg("themes file not found, starting with an empty library")
			return []models.Template{}, nil
		}
		f.logger.Error().Err(err).Msg("failed to read themes file")
		return []models.Template{}, errors.PersistenceError("read "+f.path, err)
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		f.logger.Error().Err(err).Msg("themes file is not valid JSON")
		return []models.Template{}, errors.ParseError(f.path, err)
	}
	if err := validation.ValidateThemesDocument(doc); err != nil {
		f.logger.Error().Err(err).Msg("themes file does not match the library schema")
		return []models.Template{}, errors.ParseError(f.path, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return []models.Template{}, errors.ParseError(f.path, err)
	}
	themes, ok := raw["themes"]
	if !ok || string(themes) == "null" {
		f.logger.Warn().Msg("themes file has no \"themes\" array, starting with an empty library")
		return []models.Template{}, nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(themes, &entries); err != nil {
		return []models.Template{}, errors.ParseError(f.path, err)
	}

	templates := make([]models.Template, 0, len(entries))
	for i, entry := range entries {
		var t models.Template
		if err := json.Unmarshal(entry, &t); err != nil {
			f.logger.Warn().Int("index", i).Err(err).Msg("keeping malformed template entry on disk only")
			f.held = append(f.held, heldEntry{index: i, raw: entry})
			continue
		}
		t.Normalize()
		if appErr := validation.ValidateTemplate(t.Category, t.Name, t.Summary, t.Prompt); appErr != nil {
			f.logger.Warn().Int("index", i).Str("title", t.Name).Str("reason", appErr.Message).Msg("keeping invalid template entry on disk only")
			f.held = append(f.held, heldEntry{index: i, raw: entry})
			continue
		}
		templates = append(templates, t)
	}

	f.logger.Info().Int("count", len(templates)).Int("held", len(f.held)).Msg("loaded templates")
	return templates, nil
}

// Held returns the number of entries the last Load kept on disk only
func (f *ThemeFile) Held() int {
	return len(f.held)
}

// Save serializes templates and replaces the library file atomically.
//
// An existing file is first copied to a timestamped .bak sibling; a failed
// backup is logged and does not stop the save. The document is written to a
// temporary file in the same directory, synced, and renamed over the target.
// On failure the temporary file is removed, the target is left as it was and
// a PersistenceError is returned.
func (f *ThemeFile) Save(templates []models.Template) error {
	if templates == nil {
		templates = []models.Template{}
	}
	content, err := encodeThemes(templates, f.held)
	if err != nil {
		return errors.PersistenceError("encode templates", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.PersistenceError("create directory "+dir, err)
	}

	mode := os.FileMode(0644)
	if info, err := os.Stat(f.path); err == nil {
		mode = info.Mode().Perm()
		if backupPath, err := f.backup(); err != nil {
			f.logger.Warn().Err(err).Msg("failed to back up themes file, continuing with save")
		} else {
			f.logger.Debug().Str("backup", backupPath).Msg("backed up themes file")
		}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return errors.PersistenceError("create temporary file", err)
	}
	tmpPath := tmp.Name()

	cleanup := func(cause error, operation string) error {
		tmp.Close()
		if rmErr := os.Remove(tmpPath); rmErr != nil && !os.IsNotExist(rmErr) {
			f.logger.Warn().Err(rmErr).Str("tmp", tmpPath).Msg("failed to remove temporary file")
		}
		f.logger.Error().Err(cause).Str("operation", operation).Msg("save failed, library file left unchanged")
		return errors.PersistenceError(operation, cause)
	}

	if _, err := tmp.Write(content); err != nil {
		return cleanup(err, "write temporary file")
	}
	if err := tmp.Chmod(mode); err != nil {
		return cleanup(err, "set permissions")
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err, "sync temporary file")
	}
	if err := tmp.Close(); err != nil {
		return cleanup(err, "close temporary file")
	}

	// os.Rename replaces the target in one step on every supported platform;
	// on Windows a reader holding the file open can make it fail briefly.
	err = retry.Do(
		func() error { return f.rename(tmpPath, f.path) },
		retry.Attempts(f.renameRetries),
		retry.Delay(f.retryDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			f.logger.Debug().Uint("attempt", n+1).Err(err).Msg("retrying rename")
		}),
	)
	if err != nil {
		return cleanup(err, "replace "+f.path)
	}

	f.logger.Info().Int("count", len(templates)).Msg("saved templates")
	return nil
}

// encodeThemes renders the document with the held entries put back at
// their original indexes, or at the end when the library has shrunk
func encodeThemes(templates []models.Template, held []heldEntry) ([]byte, error) {
	entries := make([]json.RawMessage, 0, len(templates)+len(held))
	for _, t := range templates {
		encoded, err := t.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("template %q: %w", t.Name, err)
		}
		entries = append(entries, encoded)
	}
	for _, h := range held {
		at := min(h.index, len(entries))
		entries = append(entries[:at], append([]json.RawMessage{h.raw}, entries[at:]...)...)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(themesDocument{Themes: entries}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// backup copies the current library file to a new .bak sibling and returns its path
func (f *ThemeFile) backup() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", fmt.Errorf("failed to read themes file: %w", err)
	}

	backupPath := BackupPath(f.path, f.now())
	for n := 1; fileExists(backupPath); n++ {
		backupPath = numberedBackupPath(f.path, f.now(), n)
	}

	if err := os.WriteFile(backupPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	return backupPath, nil
}

// BackupPath returns <dir>/<stem>_<YYYYMMDD_HHMMSS><ext>.bak for path
func BackupPath(path string, ts time.Time) string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	return fmt.Sprintf("%s_%s%s.bak", stem, ts.Format(backupTimeLayout), ext)
}

func numberedBackupPath(path string, ts time.Time, n int) string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	return fmt.Sprintf("%s_%s_%d%s.bak", stem, ts.Format(backupTimeLayout), n, ext)
}

// ListBackups returns the backup files written for path, oldest first
func ListBackups(path string) ([]string, error) {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	matches, err := filepath.Glob(stem + "_*" + ext + ".bak")
	if err != nil {
		return nil, err
	}
	return matches, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
