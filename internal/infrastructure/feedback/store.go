// Package feedback implements the durable learning store: an append-only
// JSONL log of feature vectors plus eventual user decisions, consumed in
// batch by offline retraining.
package feedback

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/verdictfx/verdict/internal/domain"
)

// SchemaVersion is stamped into every record so future feature additions
// do not break old rows.
const SchemaVersion = 1

// ErrAlreadyLabeled means the signal already carries a label; labeling it
// again is an idempotent no-op, reported so the caller can tell.
var ErrAlreadyLabeled = errors.New("signal already labeled")

// LearningRecord is one line of the store. Label stays null until the user
// responds; consumers must tolerate and skip unresolved entries.
type LearningRecord struct {
	SchemaVersion int                  `json:"schema_version"`
	SignalID      string               `json:"signal_id"`
	Features      domain.FeatureVector `json:"features"`
	Label         *int                 `json:"label"`
	Timestamp     time.Time            `json:"timestamp"`
	Instrument    string               `json:"instrument"`
	StrategyID    string               `json:"strategy_id"`
	Regime        domain.Regime        `json:"regime"`
}

// Store is the file-backed learning log. Appends are serialized by a mutex
// and use O_APPEND; labeling rewrites through a temp file and an atomic
// rename so readers never observe a torn file.
type Store struct {
	mu   sync.Mutex
	path string
	log  zerolog.Logger
}

func NewStore(path string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &Store{path: path, log: log.With().Str("component", "feedback_store").Logger()}, nil
}

// Append writes one unlabeled record for a freshly surfaced signal.
func (s *Store) Append(rec LearningRecord) error {
	rec.SchemaVersion = SchemaVersion
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal learning record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open learning store: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append learning record: %w", err)
	}
	return nil
}

// Label attaches the terminal user decision to a signal's record. The label
// is written exactly once: a second attempt returns ErrAlreadyLabeled and
// leaves the store untouched.
func (s *Store) Label(signalID string, label int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loadLocked()
	if err != nil {
		return err
	}

	found := false
	for i := range records {
		if records[i].SignalID != signalID {
			continue
		}
		found = true
		if records[i].Label != nil {
			return ErrAlreadyLabeled
		}
		v := label
		records[i].Label = &v
	}
	if !found {
		return fmt.Errorf("%w: %s", domain.ErrUnknownSignal, signalID)
	}
	return s.rewriteLocked(records)
}

// All returns every record, labeled or not.
func (s *Store) All() ([]LearningRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// Labeled returns only resolved records, the training input set.
func (s *Store) Labeled() ([]LearningRecord, error) {
	all, err := s.All()
	if err != nil {
		return nil, err
	}
	out := make([]LearningRecord, 0, len(all))
	for _, r := range all {
		if r.Label != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) loadLocked() ([]LearningRecord, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open learning store: %w", err)
	}
	defer f.Close()

	var records []LearningRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var rec LearningRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			s.log.Warn().Int("line", line).Err(err).Msg("skipping unreadable learning record")
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan learning store: %w", err)
	}
	return records, nil
}

func (s *Store) rewriteLocked(records []LearningRecord) error {
	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open temp store: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			f.Close()
			return fmt.Errorf("marshal learning record: %w", err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			f.Close()
			return fmt.Errorf("write temp store: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush temp store: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("swap learning store: %w", err)
	}
	return nil
}
