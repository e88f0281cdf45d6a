package vectorindex

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/corvid-labs/corpora/core"
)

// readVersion loads the version record, or ErrNotInitialized when no index
// has been built.
func (m *Manager) readVersion() (*core.IndexVersion, error) {
	data, err := os.ReadFile(m.versionPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotInitialized
		}
		return nil, fmt.Errorf("read version record: %w", err)
	}
	var version core.IndexVersion
	if err := json.Unmarshal(data, &version); err != nil {
		return nil, fmt.Errorf("parse version record: %w", err)
	}
	return &version, nil
}

// writeVersion replaces the version record atomically, so a crash mid-write
// leaves either the old record or the new one, never a torn file.
func (m *Manager) writeVersion(version *core.IndexVersion) error {
	data, err := json.MarshalIndent(version, "", "  ")
	if err != nil {
		return fmt.Errorf("encode version record: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(m.versionPath), ".tmp-version-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), m.versionPath)
}
