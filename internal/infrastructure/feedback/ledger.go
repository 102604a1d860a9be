package feedback

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/verdictfx/verdict/internal/domain"
)

// Ledger indexes emitted signals and their label status in SQL, backing
// idempotency lookups and operator queries that would be slow against the
// JSONL log. The driver is chosen by DSN: modernc sqlite for local single
// binary deployments, lib/pq for shared postgres.
type Ledger struct {
	db *sqlx.DB
}

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS signals (
	signal_id   TEXT PRIMARY KEY,
	instrument  TEXT NOT NULL,
	strategy_id TEXT NOT NULL,
	tier        TEXT NOT NULL,
	score       REAL NOT NULL,
	admitted    BOOLEAN NOT NULL,
	created_at  TIMESTAMP NOT NULL,
	label       INTEGER,
	labeled_at  TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_signals_strategy ON signals (strategy_id, instrument);
`

// OpenLedger connects and migrates the schema.
func OpenLedger(driver, dsn string) (*Ledger, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect ledger: %w", err)
	}
	if _, err := db.Exec(ledgerSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate ledger: %w", err)
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error { return l.db.Close() }

// Insert records a freshly emitted signal.
func (l *Ledger) Insert(ctx context.Context, res domain.EvaluationResult) error {
	_, err := l.db.ExecContext(ctx,
		l.db.Rebind(`INSERT INTO signals (signal_id, instrument, strategy_id, tier, score, admitted, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`),
		res.SignalID, res.Instrument, res.StrategyID, string(res.Tier), res.CompositeScore, res.Admitted, res.EvaluatedAt)
	if err != nil {
		return fmt.Errorf("insert signal: %w", err)
	}
	return nil
}

// SetLabel attaches a label once. Rows already labeled are left untouched
// and reported via ErrAlreadyLabeled.
func (l *Ledger) SetLabel(ctx context.Context, signalID string, label int) error {
	r, err := l.db.ExecContext(ctx,
		l.db.Rebind(`UPDATE signals SET label = ?, labeled_at = ? WHERE signal_id = ? AND label IS NULL`),
		label, time.Now().UTC(), signalID)
	if err != nil {
		return fmt.Errorf("label signal: %w", err)
	}
	n, err := r.RowsAffected()
	if err != nil {
		return fmt.Errorf("label signal: %w", err)
	}
	if n == 0 {
		var exists bool
		if err := l.db.GetContext(ctx, &exists,
			l.db.Rebind(`SELECT COUNT(1) > 0 FROM signals WHERE signal_id = ?`), signalID); err != nil {
			return fmt.Errorf("lookup signal: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: %s", domain.ErrUnknownSignal, signalID)
		}
		return ErrAlreadyLabeled
	}
	return nil
}

// IsLabeled reports whether the signal already carries a label.
func (l *Ledger) IsLabeled(ctx context.Context, signalID string) (bool, error) {
	var labeled bool
	err := l.db.GetContext(ctx, &labeled,
		l.db.Rebind(`SELECT label IS NOT NULL FROM signals WHERE signal_id = ?`), signalID)
	if err != nil {
		return false, fmt.Errorf("lookup signal: %w", err)
	}
	return labeled, nil
}
