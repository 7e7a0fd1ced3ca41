/*
 * SPDX-FileCopyrightText: © Metastore, Inc. and Contributors
 * SPDX-License-Identifier: Apache-2.0
 */

// Package store implements the primary aspect store on top of badger. It
// holds the current aspect keyspace plus, on installations migrated from the
// first metastore generation, a legacy keyspace that cleanup upgrades drop.
package store

import (
	"fmt"
	"sync/atomic"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
)

// Key prefixes partitioning the badger keyspace.
// Aspect keys look like a2|<urn>|<aspect>|<version>, with the version
// zero-padded so keys for one aspect sort by version.
const (
	aspectPrefix = "a2|"
	legacyPrefix = "a1|"

	keyFmt = "%s%s|%s|%020d"
)

// Store is the primary record store. The writable flag is advisory: it is
// flipped by upgrade steps to discourage concurrent writers during a restore
// window, but ingestion performed by the upgrade itself bypasses it, exactly
// as an operator-driven restore must keep writing while clients are told not
// to.
type Store struct {
	db       *badger.DB
	writable atomic.Bool
}

// Open opens (or creates) the store under dir.
func Open(dir string) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, errors.Wrapf(err, "while opening aspect store at %q", dir)
	}
	s := &Store{db: db}
	s.writable.Store(true)
	return s, nil
}

// Close releases the underlying badger instance.
func (s *Store) Close() error {
	return s.db.Close()
}

// SetWritable flips the advisory write-mode flag.
func (s *Store) SetWritable(w bool) {
	s.writable.Store(w)
}

// Writable reports the advisory write-mode flag.
func (s *Store) Writable() bool {
	return s.writable.Load()
}

func aspectKey(urn, aspect string, version int64) []byte {
	return []byte(fmt.Sprintf(keyFmt, aspectPrefix, urn, aspect, version))
}

func legacyKey(urn, aspect string, version int64) []byte {
	return []byte(fmt.Sprintf(keyFmt, legacyPrefix, urn, aspect, version))
}

// Ingest upserts one aspect row into the current keyspace. It does not
// consult the writable flag; see the Store doc comment.
func (s *Store) Ingest(row *AspectRow) error {
	if err := row.Validate(); err != nil {
		return err
	}
	data, err := row.marshal()
	if err != nil {
		return err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(aspectKey(row.Urn, row.Aspect, row.Version), data)
	})
	return errors.Wrapf(err, "while ingesting aspect %s/%s", row.Urn, row.Aspect)
}

// IngestLegacy writes a row into the legacy keyspace. Only migrated
// installations have such rows; tests and migration tooling use this.
func (s *Store) IngestLegacy(row *AspectRow) error {
	if err := row.Validate(); err != nil {
		return err
	}
	data, err := row.marshal()
	if err != nil {
		return err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(legacyKey(row.Urn, row.Aspect, row.Version), data)
	})
	return errors.Wrapf(err, "while ingesting legacy aspect %s/%s", row.Urn, row.Aspect)
}

// Get returns the stored row for (urn, aspect, version), or badger.ErrKeyNotFound.
func (s *Store) Get(urn, aspect string, version int64) (*AspectRow, error) {
	var row *AspectRow
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(aspectKey(urn, aspect, version))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			row, err = unmarshalRow(val)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// Count returns the number of rows in the current keyspace.
func (s *Store) Count() (int, error) {
	return s.countPrefix([]byte(aspectPrefix))
}

// HasLegacyTable reports whether any legacy rows remain.
func (s *Store) HasLegacyTable() (bool, error) {
	n, err := s.countPrefix([]byte(legacyPrefix))
	return n > 0, err
}

// DropLegacyTable removes the whole legacy keyspace and returns how many
// rows it held. Dropping an absent keyspace is a no-op, not an error.
func (s *Store) DropLegacyTable() (int, error) {
	n, err := s.countPrefix([]byte(legacyPrefix))
	if err != nil {
		return 0, err
	}
	if err := s.db.DropPrefix([]byte(legacyPrefix)); err != nil {
		return 0, errors.Wrap(err, "while dropping legacy aspect keyspace")
	}
	return n, nil
}

func (s *Store) countPrefix(prefix []byte) (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		itr := txn.NewIterator(opts)
		defer itr.Close()
		for itr.Rewind(); itr.Valid(); itr.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "while counting keys")
	}
	return count, nil
}
