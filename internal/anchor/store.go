package anchor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cleared-dev/trustledger/internal/model"
)

// ArchivedDir is the sub-directory holding anchors already included in a block.
const ArchivedDir = "archived"

// ErrAlreadyArchived is returned when saving an anchor whose name is taken
// in the archive.
var ErrAlreadyArchived = errors.New("anchor already archived")

// Store keeps pending anchors in a directory and archived anchors in its
// archived/ sub-directory.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the pending directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) archiveDir() string {
	return filepath.Join(s.dir, ArchivedDir)
}

// Save writes a as pending under name. An existing pending anchor with the
// same name is replaced.
func (s *Store) Save(name string, a model.Anchor) error {
	if name != filepath.Base(name) || !strings.HasSuffix(name, FileSuffix) {
		return fmt.Errorf("invalid anchor name %q", name)
	}
	archived, err := s.IsArchived(name)
	if err != nil {
		return err
	}
	if archived {
		return fmt.Errorf("saving %s: %w", name, ErrAlreadyArchived)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating anchors dir: %w", err)
	}

	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, Marshal(a), 0o644); err != nil {
		return fmt.Errorf("writing anchor: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("writing anchor: %w", err)
	}
	return nil
}

// IsArchived reports whether an anchor named name was already archived.
func (s *Store) IsArchived(name string) (bool, error) {
	_, err := os.Stat(filepath.Join(s.archiveDir(), name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("checking archive: %w", err)
}

// Pending returns all pending anchors sorted by file name.
func (s *Store) Pending() ([]model.Anchor, error) {
	return readDir(s.dir)
}

// Archived returns all archived anchors sorted by file name.
func (s *Store) Archived() ([]model.Anchor, error) {
	return readDir(s.archiveDir())
}

// Archive moves the pending files of anchors into the archive. Anchors are
// located by content hash, so callers pass back what Pending returned.
func (s *Store) Archive(anchors []model.Anchor) error {
	if len(anchors) == 0 {
		return nil
	}

	names, err := listNames(s.dir)
	if err != nil {
		return err
	}
	byHash := make(map[string]string, len(names))
	for _, name := range names {
		a, err := readFile(filepath.Join(s.dir, name))
		if err != nil {
			return err
		}
		byHash[a.SHA256+"|"+a.CanonicalFile] = name
	}

	if err := os.MkdirAll(s.archiveDir(), 0o755); err != nil {
		return fmt.Errorf("creating archive dir: %w", err)
	}

	for _, a := range anchors {
		name, ok := byHash[a.SHA256+"|"+a.CanonicalFile]
		if !ok {
			return fmt.Errorf("archiving %s: not pending", a.CanonicalFile)
		}
		src := filepath.Join(s.dir, name)
		dst := filepath.Join(s.archiveDir(), name)
		if err := os.Rename(src, dst); err != nil {
			return fmt.Errorf("archiving %s: %w", name, err)
		}
	}
	return nil
}

func listNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), FileSuffix) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func readDir(dir string) ([]model.Anchor, error) {
	names, err := listNames(dir)
	if err != nil {
		return nil, err
	}
	anchors := make([]model.Anchor, 0, len(names))
	for _, name := range names {
		a, err := readFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		anchors = append(anchors, a)
	}
	return anchors, nil
}

func readFile(path string) (model.Anchor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Anchor{}, fmt.Errorf("reading anchor: %w", err)
	}
	a, err := Unmarshal(data)
	if err != nil {
		return model.Anchor{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return a, nil
}
