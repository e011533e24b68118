// Package baseline keeps named configuration snapshots on disk so later
// resolutions can be diffed against them by name.
package baseline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrBaselineNotFound is returned when a baseline doesn't exist.
var ErrBaselineNotFound = errors.New("baseline not found")

// EnvDir overrides the baseline directory.
const EnvDir = "CONFDEF_BASELINE_DIR"

// Store manages baseline persistence.
type Store struct {
	Dir string
}

// NewStore creates a store with the given directory.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// DefaultDir returns the default baseline directory (~/.confdef/baselines).
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".confdef", "baselines")
	}
	return filepath.Join(home, ".confdef", "baselines")
}

// ResolveDir returns the baseline directory from CONFDEF_BASELINE_DIR or the default.
func ResolveDir(environ []string) string {
	prefix := EnvDir + "="
	for _, env := range environ {
		if strings.HasPrefix(env, prefix) {
			if dir := strings.TrimPrefix(env, prefix); dir != "" {
				return dir
			}
		}
	}
	return DefaultDir()
}

// Save stores b under b.Name, replacing any baseline with the same name.
// The values must match the recorded version.
func (s *Store) Save(b Baseline) error {
	if b.Name == "" {
		return errors.New("baseline name is empty")
	}
	if err := b.Snapshot().Verify(); err != nil {
		return fmt.Errorf("baseline %s: %w", b.Name, err)
	}

	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path(b.Name), append(data, '\n'), 0644)
}

// Load retrieves a baseline by name and verifies its version.
func (s *Store) Load(name string) (Baseline, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return Baseline{}, fmt.Errorf("%w: %s", ErrBaselineNotFound, name)
		}
		return Baseline{}, err
	}

	var b Baseline
	if err := json.Unmarshal(data, &b); err != nil {
		return Baseline{}, fmt.Errorf("baseline %s: %w", name, err)
	}
	if err := b.Snapshot().Verify(); err != nil {
		return Baseline{}, fmt.Errorf("baseline %s: %w", name, err)
	}

	return b, nil
}

// List returns all stored baselines as summaries, sorted by name.
// Unreadable files are skipped.
func (s *Store) List() ([]Summary, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Summary{}, nil
		}
		return nil, err
	}

	summaries := []Summary{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.Dir, entry.Name()))
		if err != nil {
			continue
		}

		var b Baseline
		if err := json.Unmarshal(data, &b); err != nil {
			continue
		}

		summaries = append(summaries, Summary{
			Name:          b.Name,
			ConfigVersion: b.ConfigVersion,
			Entries:       len(b.Values),
			Timestamp:     b.Timestamp,
		})
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Name < summaries[j].Name })
	return summaries, nil
}

// Delete removes a baseline by name.
func (s *Store) Delete(name string) error {
	err := os.Remove(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrBaselineNotFound, name)
		}
		return err
	}
	return nil
}

// Exists checks if a baseline exists.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.path(name))
	return err == nil
}

// path returns the file path for a baseline name.
func (s *Store) path(name string) string {
	safeName := strings.ReplaceAll(name, "/", "_")
	safeName = strings.ReplaceAll(safeName, "\\", "_")
	return filepath.Join(s.Dir, safeName+".json")
}
