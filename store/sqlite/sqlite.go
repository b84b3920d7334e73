/*
Package sqlite provides a SQLite-backed implementation of incentive.RecordStore.

PURPOSE:
  Persists incentive records and their remark logs. In production the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  incentive_records:  One row per lead; money stored as decimal strings
  incentive_remarks:  Append-only child table, ordered by (record_id, seq)

OPTIMISTIC CONCURRENCY:
  Every update runs as
      UPDATE incentive_records SET ... WHERE lead_id = ? AND version = ?
  inside a transaction. Zero rows affected means either the record is gone
  (ErrNotFound) or another writer got there first (ErrConflict); in both
  cases the transaction rolls back and nothing is written.

APPEND-ONLY REMARKS:
  Remark rows are never updated or deleted. An update only inserts remark
  rows with seq beyond the count already stored, in the same transaction as
  the record row, so status + amounts + remarks land together or not at all.

WAL MODE:
  SQLite is opened with WAL for better concurrency: multiple readers don't
  block, single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/incentives.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper migration
  tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - incentive/store.go:        Interface definition and contracts
  - incentive/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/leadflow/incentive-engine/incentive"
)

// Store implements incentive.RecordStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS incentive_records (
		lead_id TEXT PRIMARY KEY,
		id TEXT NOT NULL UNIQUE,
		currency TEXT NOT NULL,
		gross_income_received TEXT NOT NULL,
		intercity_deal INTEGER NOT NULL,
		intercity_amount TEXT,
		referral_amount TEXT NOT NULL,
		expenses TEXT NOT NULL,
		goodwill TEXT NOT NULL,
		share_amount TEXT,
		tax_deducted TEXT,
		final_payable TEXT,
		status TEXT NOT NULL,
		version INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Append-only audit trail; rows are never updated or deleted
	CREATE TABLE IF NOT EXISTS incentive_remarks (
		record_id TEXT NOT NULL REFERENCES incentive_records(id),
		seq INTEGER NOT NULL,
		remark_id TEXT NOT NULL,
		text TEXT NOT NULL,
		author_name TEXT NOT NULL,
		author_id TEXT,
		created_at TEXT NOT NULL,
		PRIMARY KEY (record_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_records_status
		ON incentive_records(status);
	CREATE INDEX IF NOT EXISTS idx_records_created_at
		ON incentive_records(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RECORD STORE IMPLEMENTATION
// =============================================================================

func (s *Store) Get(ctx context.Context, leadID incentive.LeadID) (*incentive.IncentiveRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT lead_id, id, currency, gross_income_received, intercity_deal,
		       intercity_amount, referral_amount, expenses, goodwill,
		       share_amount, tax_deducted, final_payable,
		       status, version, created_at, updated_at
		FROM incentive_records WHERE lead_id = ?`, string(leadID))

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, incentive.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load record: %w", err)
	}

	remarks, err := s.loadRemarks(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	rec.Remarks = remarks
	return rec, nil
}

func (s *Store) Create(ctx context.Context, rec *incentive.IncentiveRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM incentive_records WHERE lead_id = ?`, string(rec.LeadID),
	).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check for existing record: %w", err)
	}
	if exists > 0 {
		return incentive.ErrDuplicateRecord
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO incentive_records (
			lead_id, id, currency, gross_income_received, intercity_deal,
			intercity_amount, referral_amount, expenses, goodwill,
			share_amount, tax_deducted, final_payable,
			status, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(rec.LeadID), string(rec.ID), string(currencyOf(rec)),
		rec.GrossIncomeReceived.Value.String(), boolToInt(rec.IntercityDeal),
		moneyPtrString(rec.IntercityAmount),
		rec.ReferralAmount.Value.String(), rec.Expenses.Value.String(), rec.Goodwill.Value.String(),
		moneyPtrString(rec.ShareAmount), moneyPtrString(rec.TaxDeducted), moneyPtrString(rec.FinalPayable),
		string(rec.Status), rec.Version,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano), rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}

	if err := insertRemarks(ctx, tx, rec, 0); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Update(ctx context.Context, rec *incentive.IncentiveRecord, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE incentive_records SET
			share_amount = ?, tax_deducted = ?, final_payable = ?,
			status = ?, version = ?, updated_at = ?
		WHERE lead_id = ? AND version = ?`,
		moneyPtrString(rec.ShareAmount), moneyPtrString(rec.TaxDeducted), moneyPtrString(rec.FinalPayable),
		string(rec.Status), rec.Version, rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
		string(rec.LeadID), expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		// Distinguish a stale version from a missing record.
		var count int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM incentive_records WHERE lead_id = ?`, string(rec.LeadID),
		).Scan(&count); err != nil {
			return fmt.Errorf("failed to check record existence: %w", err)
		}
		if count == 0 {
			return incentive.ErrNotFound
		}
		return incentive.ErrConflict
	}

	var stored int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM incentive_remarks WHERE record_id = ?`, string(rec.ID),
	).Scan(&stored); err != nil {
		return fmt.Errorf("failed to count remarks: %w", err)
	}

	if err := insertRemarks(ctx, tx, rec, stored); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) List(ctx context.Context) ([]*incentive.IncentiveRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT lead_id, id, currency, gross_income_received, intercity_deal,
		       intercity_amount, referral_amount, expenses, goodwill,
		       share_amount, tax_deducted, final_payable,
		       status, version, created_at, updated_at
		FROM incentive_records ORDER BY created_at, lead_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []*incentive.IncentiveRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, rec := range records {
		remarks, err := s.loadRemarks(ctx, rec.ID)
		if err != nil {
			return nil, err
		}
		rec.Remarks = remarks
	}
	return records, nil
}

// Reset drops all records and remarks. Used by demo scenario loading.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM incentive_remarks`); err != nil {
		return fmt.Errorf("failed to clear remarks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM incentive_records`); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}
	return tx.Commit()
}

// =============================================================================
// ROW MAPPING
// =============================================================================

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (*incentive.IncentiveRecord, error) {
	var (
		leadID, id, currency, gross, status string
		intercityDeal                       int
		intercityAmt, share, tax, payable   sql.NullString
		referral, expenses, goodwill        string
		version                             int64
		createdAt, updatedAt                string
	)
	err := row.Scan(&leadID, &id, &currency, &gross, &intercityDeal,
		&intercityAmt, &referral, &expenses, &goodwill,
		&share, &tax, &payable,
		&status, &version, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	cur := incentive.Currency(currency)
	rec := &incentive.IncentiveRecord{
		LeadID:              incentive.LeadID(leadID),
		ID:                  incentive.RecordID(id),
		GrossIncomeReceived: moneyFromString(gross, cur),
		IntercityDeal:       intercityDeal != 0,
		IntercityAmount:     moneyFromNull(intercityAmt, cur),
		ReferralAmount:      moneyFromString(referral, cur),
		Expenses:            moneyFromString(expenses, cur),
		Goodwill:            moneyFromString(goodwill, cur),
		ShareAmount:         moneyFromNull(share, cur),
		TaxDeducted:         moneyFromNull(tax, cur),
		FinalPayable:        moneyFromNull(payable, cur),
		Status:              incentive.Status(status),
		Version:             version,
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("bad created_at %q: %w", createdAt, err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("bad updated_at %q: %w", updatedAt, err)
	}
	return rec, nil
}

func (s *Store) loadRemarks(ctx context.Context, recordID incentive.RecordID) ([]incentive.Remark, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT remark_id, text, author_name, author_id, created_at
		FROM incentive_remarks WHERE record_id = ? ORDER BY seq`, string(recordID))
	if err != nil {
		return nil, fmt.Errorf("failed to load remarks: %w", err)
	}
	defer rows.Close()

	var remarks []incentive.Remark
	for rows.Next() {
		var (
			rm        incentive.Remark
			authorID  sql.NullString
			createdAt string
		)
		if err := rows.Scan(&rm.ID, &rm.Text, &rm.AuthorName, &authorID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan remark: %w", err)
		}
		if authorID.Valid {
			aid := authorID.String
			rm.AuthorID = &aid
		}
		if rm.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("bad remark created_at %q: %w", createdAt, err)
		}
		remarks = append(remarks, rm)
	}
	return remarks, rows.Err()
}

// insertRemarks appends remark rows with seq >= from. Earlier rows are left
// untouched.
func insertRemarks(ctx context.Context, tx *sql.Tx, rec *incentive.IncentiveRecord, from int) error {
	for seq := from; seq < len(rec.Remarks); seq++ {
		rm := rec.Remarks[seq]
		var authorID any
		if rm.AuthorID != nil {
			authorID = *rm.AuthorID
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO incentive_remarks (record_id, seq, remark_id, text, author_name, author_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			string(rec.ID), seq, rm.ID, rm.Text, rm.AuthorName, authorID,
			rm.CreatedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("failed to insert remark %d: %w", seq, err)
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func currencyOf(rec *incentive.IncentiveRecord) incentive.Currency {
	if rec.GrossIncomeReceived.Currency != "" {
		return rec.GrossIncomeReceived.Currency
	}
	return incentive.CurrencyINR
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func moneyPtrString(m *incentive.Money) any {
	if m == nil {
		return nil
	}
	return m.Value.String()
}

func moneyFromString(s string, cur incentive.Currency) incentive.Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		d = decimal.Zero
	}
	return incentive.Money{Value: d, Currency: cur}
}

func moneyFromNull(ns sql.NullString, cur incentive.Currency) *incentive.Money {
	if !ns.Valid {
		return nil
	}
	m := moneyFromString(ns.String, cur)
	return &m
}
