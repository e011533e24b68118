package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteToFile writes the snapshot to the specified path, creating parent directories if needed.
func (s Snapshot) WriteToFile(path string) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	jsonBytes, err := s.ToJSON()
	if err != nil {
		return err
	}

	return os.WriteFile(path, append(jsonBytes, '\n'), 0644)
}

// ReadFile reads a snapshot written by WriteToFile and verifies its version.
func ReadFile(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, err
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("invalid snapshot %s: %w", path, err)
	}
	if s.Values == nil {
		s.Values = map[string]string{}
	}
	if err := s.Verify(); err != nil {
		return Snapshot{}, fmt.Errorf("invalid snapshot %s: %w", path, err)
	}
	return s, nil
}
