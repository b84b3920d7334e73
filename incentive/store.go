/*
store.go - Persistence interface for incentive records

PURPOSE:
  The workflow reads and writes records through this interface. Two
  implementations exist: an in-memory store (incentive/store) for tests and
  development, and a SQLite store (store/sqlite) for running the server.

ATOMICITY CONTRACT:
  Update replaces the record as a whole - status, derived amounts, remarks,
  timestamps - in one shot. No observer may ever see a record with
  ShareAmount updated but TaxDeducted stale. Implementations back this with
  a SQL transaction or an equivalent all-or-nothing swap.

CONCURRENCY CONTRACT:
  Update is a compare-and-swap on the record's version: it fails with
  ErrConflict when the stored version differs from expectedVersion, and the
  store is left untouched. Remarks already persisted are never rewritten;
  Update only appends entries beyond the stored remark count.
*/
package incentive

import "context"

// RecordStore persists incentive records, one per lead.
type RecordStore interface {
	// Get returns the record for a lead, or ErrNotFound.
	Get(ctx context.Context, leadID LeadID) (*IncentiveRecord, error)

	// Create inserts a new record. Fails with ErrDuplicateRecord if the
	// lead already has one.
	Create(ctx context.Context, rec *IncentiveRecord) error

	// Update replaces the record atomically if the stored version equals
	// expectedVersion, otherwise fails with ErrConflict. rec.Version must
	// already be bumped past expectedVersion by the caller.
	Update(ctx context.Context, rec *IncentiveRecord, expectedVersion int64) error

	// List returns all records, ordered by creation time.
	List(ctx context.Context) ([]*IncentiveRecord, error)
}
