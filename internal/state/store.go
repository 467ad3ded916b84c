package state

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Test hooks to allow overriding OS functions
var (
	readFileFunc  = os.ReadFile
	writeFileFunc = os.WriteFile
)

const snapshotHeader = "nginxguard-snapshot v1"

var (
	ErrNoSnapshot      = errors.New("no snapshot")
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
	ErrUnencodable     = errors.New("entry cannot be encoded")
)

// Store persists the source set of the last successful update.
//
// The file is line-delimited text: a version header, the entry count, then one entry per line.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

// Load reads the snapshot. A missing file yields ErrNoSnapshot.
func (s *Store) Load() ([]string, error) {
	data, err := readFileFunc(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %v", ErrNoSnapshot, err)
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return Decode(data)
}

// Save overwrites the snapshot with entries.
func (s *Store) Save(entries []string) error {
	data, err := Encode(entries)
	if err != nil {
		return err
	}
	if err := writeFileFunc(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Encode serializes entries in the snapshot format.
func Encode(entries []string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(snapshotHeader)
	buf.WriteByte('\n')
	buf.WriteString(strconv.Itoa(len(entries)))
	buf.WriteByte('\n')
	for _, e := range entries {
		if strings.ContainsAny(e, "\r\n") {
			return nil, fmt.Errorf("%w: %q", ErrUnencodable, e)
		}
		buf.WriteString(e)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// Decode parses the snapshot format, rejecting anything that does not round-trip exactly.
func Decode(data []byte) ([]string, error) {
	text := string(data)
	if !strings.HasSuffix(text, "\n") {
		return nil, fmt.Errorf("%w: missing trailing newline", ErrCorruptSnapshot)
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	if len(lines) < 2 || lines[0] != snapshotHeader {
		return nil, fmt.Errorf("%w: bad header", ErrCorruptSnapshot)
	}

	count, err := strconv.Atoi(lines[1])
	if err != nil || count < 0 {
		return nil, fmt.Errorf("%w: bad entry count %q", ErrCorruptSnapshot, lines[1])
	}
	entries := lines[2:]
	if len(entries) != count {
		return nil, fmt.Errorf("%w: want %d entries, have %d", ErrCorruptSnapshot, count, len(entries))
	}
	return entries, nil
}
