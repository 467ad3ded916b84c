package whitelist

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Wikid82/nginxguard/internal/state"
)

// Test hooks to allow overriding OS functions
var writeFileFunc = os.WriteFile

// ErrWriteWhitelist means the directive file could not be written; nginx must not be reloaded.
var ErrWriteWhitelist = errors.New("write whitelist")

// Render turns a source set into nginx allow directives, one per line, in order.
func Render(sources []string) []byte {
	var buf bytes.Buffer
	for _, s := range sources {
		fmt.Fprintf(&buf, "allow %s;\n", s)
	}
	return buf.Bytes()
}

// Writer overwrites the whitelist file and records the matching snapshot.
type Writer struct {
	path  string
	store *state.Store
	log   *logrus.Entry
}

func NewWriter(path string, store *state.Store, log *logrus.Entry) *Writer {
	return &Writer{path: path, store: store, log: log}
}

func (w *Writer) Path() string { return w.path }

// Write replaces the whitelist file with sources and then saves the snapshot.
// Only the whitelist write can fail the call; a snapshot failure is logged and
// reported through the returned flag.
func (w *Writer) Write(sources []string) (snapshotSaved bool, err error) {
	if err := validate(sources); err != nil {
		return false, fmt.Errorf("%w %s: %w", ErrWriteWhitelist, w.path, err)
	}
	if err := writeFileFunc(w.path, Render(sources), 0o644); err != nil {
		return false, fmt.Errorf("%w %s: %w", ErrWriteWhitelist, w.path, err)
	}
	w.log.WithFields(logrus.Fields{"path": w.path, "entries": len(sources)}).Info("whitelist written")

	if err := w.store.Save(sources); err != nil {
		w.log.WithError(err).WithField("state_file", w.store.Path()).
			Warn("state file write failed, this will cause frequent reloads on subsequent runs")
		return false, nil
	}
	return true, nil
}

// validate rejects entries that would escape their allow directive.
func validate(sources []string) error {
	for _, s := range sources {
		if strings.ContainsAny(s, "\r\n;") {
			return fmt.Errorf("%w: %q", state.ErrUnencodable, s)
		}
	}
	return nil
}
