package rawstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/corvid-labs/corpora/core"
)

// LogIngestion appends an ingestion record to the audit log, keyed by its
// ingestion ID. Writing the same record twice is a no-op; writing a different
// record under an existing ID fails with ErrConflict.
func (s *Store) LogIngestion(record *core.IngestionRecord) error {
	if record == nil || record.IngestionID == "" {
		return fmt.Errorf("%w: ingestion record without id", ErrStorage)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding ingestion record: %w", ErrStorage, err)
	}

	logPath := filepath.Join(s.logsPath, core.SanitizeName(record.IngestionID)+".json")
	if existing, err := os.ReadFile(logPath); err == nil {
		if bytes.Equal(existing, data) {
			return nil
		}
		return fmt.Errorf("%w: %s already logged with different content", ErrConflict, record.IngestionID)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("%w: probing ingestion log: %w", ErrStorage, err)
	}

	if err := s.writeFileAtomic(logPath, data); err != nil {
		return err
	}

	s.logger.Info("logged ingestion", "ingestion", record.IngestionID, "status", record.Status,
		"ingested", record.DocumentsIngested, "failed", record.DocumentsFailed)
	return nil
}

// IngestionHistory returns logged ingestion records, newest first. An empty
// sourceType returns records for every source.
func (s *Store) IngestionHistory(sourceType core.SourceType) ([]core.IngestionRecord, error) {
	if sourceType != "" {
		if err := core.ValidateSourceType(sourceType); err != nil {
			return nil, err
		}
	}

	entries, err := os.ReadDir(s.logsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: reading ingestion logs: %w", ErrStorage, err)
	}

	var records []core.IngestionRecord
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		var rec core.IngestionRecord
		if err := readJSON(filepath.Join(s.logsPath, entry.Name()), &rec); err != nil {
			s.logger.Warn("skipping unreadable ingestion log", "file", entry.Name(), "err", err)
			continue
		}
		if sourceType != "" && rec.SourceType != sourceType {
			continue
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})
	return records, nil
}
