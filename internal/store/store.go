package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/insightlabs/alphawatch/pkg/nof1"
	"github.com/sirupsen/logrus"
)

const (
	currentFile = "current.json"
	lastFile    = "last.json"
	historyDir  = "history"
)

// Store persists fetched snapshots on disk and owns the current/last
// rotation. The diff core never touches files; it only ever sees the two
// snapshots the monitor loads from here.
type Store struct {
	dir         string
	saveHistory bool
	logger      *logrus.Logger
}

func New(dir string, saveHistory bool, logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.New()
	}
	return &Store{dir: dir, saveHistory: saveHistory, logger: logger}
}

// SaveCurrent stamps the payload with the fetch time and writes it to
// current.json. The write goes through a temp file and rename so a crash
// mid-write can never leave a truncated snapshot behind.
func (s *Store) SaveCurrent(totals *nof1.AccountTotals, fetchedAt time.Time) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	totals.FetchTime = fetchedAt.Format(time.RFC3339)
	totals.Timestamp = float64(fetchedAt.Unix())

	data, err := json.MarshalIndent(totals, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	path := filepath.Join(s.dir, currentFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("publishing snapshot: %w", err)
	}

	if s.saveHistory {
		s.writeHistory(data, fetchedAt)
	}

	return nil
}

// LoadLast returns the previous cycle's snapshot, or nil when there is none
// yet. A missing or unreadable file is the first-observation baseline, not an
// error: the caller simply gets no previous snapshot to diff against.
func (s *Store) LoadLast() *nof1.AccountTotals {
	return s.load(lastFile)
}

// LoadCurrent returns the most recently saved snapshot, or nil when absent.
func (s *Store) LoadCurrent() *nof1.AccountTotals {
	return s.load(currentFile)
}

func (s *Store) load(name string) *nof1.AccountTotals {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.WithError(err).WithField("file", name).Warn("Failed to read snapshot file")
		}
		return nil
	}

	var totals nof1.AccountTotals
	if err := json.Unmarshal(data, &totals); err != nil {
		s.logger.WithError(err).WithField("file", name).Warn("Failed to decode snapshot file")
		return nil
	}
	return &totals
}

// Rotate promotes current.json to last.json for the next cycle's diff.
func (s *Store) Rotate() error {
	current := filepath.Join(s.dir, currentFile)
	if _, err := os.Stat(current); err != nil {
		return fmt.Errorf("no current snapshot to rotate: %w", err)
	}
	if err := os.Rename(current, filepath.Join(s.dir, lastFile)); err != nil {
		return fmt.Errorf("rotating snapshot: %w", err)
	}
	return nil
}

func (s *Store) writeHistory(data []byte, fetchedAt time.Time) {
	dir := filepath.Join(s.dir, historyDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.logger.WithError(err).Warn("Failed to create history dir")
		return
	}
	name := fmt.Sprintf("positions_%s.json", fetchedAt.UTC().Format("20060102_150405"))
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		s.logger.WithError(err).Warn("Failed to write history snapshot")
	}
}
