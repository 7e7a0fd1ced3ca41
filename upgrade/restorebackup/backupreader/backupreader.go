/*
 * SPDX-FileCopyrightText: © Metastore, Inc. and Contributors
 * SPDX-License-Identifier: Apache-2.0
 */

// Package backupreader supplies the restore upgrade with a lazy, single-pass
// stream of previously persisted aspect rows. Readers are pluggable per
// backing location and selected by name; the record stream itself is the
// same segment format everywhere.
package backupreader

import (
	"sort"
	"sync"

	"github.com/metastore-io/metastore/store"
	"github.com/metastore-io/metastore/upgrade"
)

// Iterator is a lazy, finite, single-pass sequence of aspect rows. Next
// returns io.EOF once the sequence is exhausted and keeps returning it on
// every later call; no row is ever produced twice. Iterators are not
// restartable: obtain a fresh one for another traversal.
type Iterator interface {
	Next() (*store.AspectRow, error)
	Close() error
}

// BackupReader produces iterators over a backup location described by the
// run's launch arguments.
type BackupReader interface {
	// Name identifies the backing implementation for operator-facing
	// selection, e.g. on the command line.
	Name() string

	// CheckArgs verifies that the arguments the reader needs are present.
	// It performs no I/O, so it is safe to call before any step runs.
	CheckArgs(ctx *upgrade.Context) error

	// BackupIterator opens the backup sources and returns an iterator over
	// them. A missing argument or an unopenable source fails here, at
	// construction, never on first Next.
	BackupIterator(ctx *upgrade.Context) (Iterator, error)
}

var (
	readersMu sync.Mutex
	readers   = make(map[string]BackupReader)
)

// Register makes a reader selectable by name. Called from CLI wiring at
// startup; registering two readers under one name keeps the last.
func Register(r BackupReader) {
	readersMu.Lock()
	defer readersMu.Unlock()
	readers[r.Name()] = r
}

// Lookup returns the reader registered under name, if any.
func Lookup(name string) (BackupReader, bool) {
	readersMu.Lock()
	defer readersMu.Unlock()
	r, ok := readers[name]
	return r, ok
}

// Names returns the registered reader names in sorted order.
func Names() []string {
	readersMu.Lock()
	defer readersMu.Unlock()
	names := make([]string, 0, len(readers))
	for name := range readers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
