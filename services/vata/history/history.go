// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package history persists scan and analysis records in the local store.
//
// Records are JSON values under the "record/" key prefix, keyed by a uuid.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/AleutianAI/vata/services/vata/datatypes"
	"github.com/AleutianAI/vata/services/vata/provenance"
	"github.com/AleutianAI/vata/services/vata/scan"
	vstore "github.com/AleutianAI/vata/services/vata/storage/badger"
)

const keyPrefix = "record/"

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("history record not found")

// Kind says what produced a record.
type Kind string

const (
	KindScan       Kind = "scan"
	KindAnalyze    Kind = "analyze"
	KindProvenance Kind = "provenance"
)

// FileEntry is the per-file part of a record.
type FileEntry struct {
	Path     string             `json:"path"`
	Overall  int                `json:"overall"`
	Category datatypes.Category `json:"category"`
}

// Record is one stored run.
type Record struct {
	ID            string      `json:"id"`
	Kind          Kind        `json:"kind"`
	Target        string      `json:"target"`
	CreatedAt     time.Time   `json:"created_at"`
	Scanned       int         `json:"files_scanned"`
	Skipped       int         `json:"files_skipped"`
	Rejected      int         `json:"files_rejected"`
	HumanityIndex float64     `json:"humanity_index"`
	Files         []FileEntry `json:"files"`
}

// FromSummary builds a scan record for target.
func FromSummary(target string, sum scan.Summary) Record {
	rec := Record{
		Kind:          KindScan,
		Target:        target,
		Scanned:       sum.Scanned,
		Skipped:       sum.Skipped,
		Rejected:      sum.Rejected,
		HumanityIndex: sum.HumanityIndex,
		Files:         make([]FileEntry, 0, sum.Scanned),
	}
	for _, f := range sum.Files {
		if f.Report == nil {
			continue
		}
		rec.Files = append(rec.Files, FileEntry{Path: f.Path, Overall: f.Report.Overall, Category: f.Report.Category})
	}
	return rec
}

// FromProvenance builds a record of a branch walk. File paths carry the
// short commit id: "<commit>:<path>".
func FromProvenance(rep provenance.Report) Record {
	rec := Record{
		Kind:          KindProvenance,
		Target:        rep.Repo + "@" + rep.Branch,
		Scanned:       rep.Scanned,
		Skipped:       rep.Skipped,
		Rejected:      rep.Rejected,
		HumanityIndex: rep.HumanityIndex,
		Files:         make([]FileEntry, 0, rep.Scanned),
	}
	for _, e := range rep.Entries {
		if e.Report == nil {
			continue
		}
		rec.Files = append(rec.Files, FileEntry{Path: e.Commit + ":" + e.Path, Overall: e.Report.Overall, Category: e.Report.Category})
	}
	return rec
}

// FromReport builds an analyze record for a single input.
func FromReport(target string, report datatypes.AuthenticityReport) Record {
	rec := Record{
		Kind:          KindAnalyze,
		Target:        target,
		Scanned:       1,
		HumanityIndex: float64(report.Overall),
		Files:         []FileEntry{{Path: target, Overall: report.Overall, Category: report.Category}},
	}
	if report.Rejected() {
		rec.Rejected = 1
	}
	return rec
}

// Store reads and writes records.
//
// Thread Safety: Safe for concurrent use.
type Store struct {
	db  *vstore.DB
	now func() time.Time
}

// NewStore wraps an open database.
func NewStore(db *vstore.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Save stores rec, assigning an id and timestamp when unset.
func (s *Store) Save(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("encoding record %s: %w", rec.ID, err)
	}
	err = s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+rec.ID), data)
	})
	if err != nil {
		return Record{}, fmt.Errorf("saving record %s: %w", rec.ID, err)
	}
	return rec, nil
}

// Get returns the record with id.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	var rec Record
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	return rec, err
}

// List returns up to limit records, newest first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	records := []Record{}
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var rec Record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decoding %s: %w", it.Item().Key(), err)
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ID < records[j].ID
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Clear deletes every record and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int, error) {
	var keys [][]byte
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return 0, fmt.Errorf("deleting %s: %w", k, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("flushing deletes: %w", err)
	}
	return len(keys), nil
}
