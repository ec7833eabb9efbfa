// Package bank supplies raw exam documents and their parsed question
// sequences. Banks are flat text files in a configured directory; parsed
// results are cached behind a pluggable cache so repeated session creation
// does not re-parse the same document.
package bank

import (
	"io/fs"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Bank file extensions recognized by the catalog.
var bankExtensions = []string{".txt", ".md"}

// Loader reads exam documents from a filesystem. The fs.FS seam keeps tests
// on fstest.MapFS.
type Loader struct {
	fsys   fs.FS
	logger zerolog.Logger
}

// NewLoader creates a loader over the given filesystem root.
func NewLoader(fsys fs.FS, logger zerolog.Logger) *Loader {
	return &Loader{
		fsys:   fsys,
		logger: logger.With().Str("component", "bank_loader").Logger(),
	}
}

// Catalog lists the available exam identifiers: bank filenames without
// extension, sorted. Unreadable directories yield an empty catalog.
func (l *Loader) Catalog() []string {
	entries, err := fs.ReadDir(l.fsys, ".")
	if err != nil {
		l.logger.Warn().Err(err).Msg("bank directory unreadable")
		return nil
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		for _, ext := range bankExtensions {
			if strings.HasSuffix(name, ext) {
				ids = append(ids, strings.TrimSuffix(name, ext))
				break
			}
		}
	}
	sort.Strings(ids)
	return ids
}

// Read returns the raw document for an exam id, trying each recognized
// extension in order.
func (l *Loader) Read(examID string) (string, error) {
	var lastErr error
	for _, ext := range bankExtensions {
		data, err := fs.ReadFile(l.fsys, examID+ext)
		if err == nil {
			return string(data), nil
		}
		lastErr = err
	}
	return "", lastErr
}
