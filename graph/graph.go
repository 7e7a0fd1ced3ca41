/*
 * SPDX-FileCopyrightText: © Metastore, Inc. and Contributors
 * SPDX-License-Identifier: Apache-2.0
 */

// Package graph implements the edge index over badger. Edges are derived
// from aspect rows at ingestion time and queried by source urn. As with the
// aspect store, a legacy keyspace may remain from the first metastore
// generation until a cleanup upgrade drops it.
package graph

import (
	"fmt"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
)

// Edge keys look like e|<src>|<rel>|<dst> with an empty value; the key is
// the edge. Legacy relationship keys use the el| prefix.
const (
	edgePrefix   = "e|"
	legacyPrefix = "el|"
)

// Graph is the edge index.
type Graph struct {
	db *badger.DB
}

// Open opens (or creates) the edge index under dir.
func Open(dir string) (*Graph, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, errors.Wrapf(err, "while opening graph index at %q", dir)
	}
	return &Graph{db: db}, nil
}

// Close releases the underlying badger instance.
func (g *Graph) Close() error {
	return g.db.Close()
}

func edgeKey(prefix, src, rel, dst string) []byte {
	return []byte(fmt.Sprintf("%s%s|%s|%s", prefix, src, rel, dst))
}

// AddEdge records a directed, labeled edge. Adding an existing edge is a
// no-op upsert.
func (g *Graph) AddEdge(src, rel, dst string) error {
	if src == "" || rel == "" || dst == "" {
		return errors.Errorf("edge (%q, %q, %q) has an empty component", src, rel, dst)
	}
	err := g.db.Update(func(txn *badger.Txn) error {
		return txn.Set(edgeKey(edgePrefix, src, rel, dst), nil)
	})
	return errors.Wrapf(err, "while adding edge %s -%s-> %s", src, rel, dst)
}

// AddLegacyEdge records an edge in the legacy keyspace. Tests and migration
// tooling use this; nothing else writes legacy edges anymore.
func (g *Graph) AddLegacyEdge(src, rel, dst string) error {
	err := g.db.Update(func(txn *badger.Txn) error {
		return txn.Set(edgeKey(legacyPrefix, src, rel, dst), nil)
	})
	return errors.Wrapf(err, "while adding legacy edge %s -%s-> %s", src, rel, dst)
}

// Edges returns the (rel, dst) pairs for all edges out of src.
func (g *Graph) Edges(src string) ([][2]string, error) {
	var out [][2]string
	prefix := []byte(edgePrefix + src + "|")
	err := g.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		itr := txn.NewIterator(opts)
		defer itr.Close()
		for itr.Rewind(); itr.Valid(); itr.Next() {
			rest := strings.TrimPrefix(string(itr.Item().Key()), string(prefix))
			parts := strings.SplitN(rest, "|", 2)
			if len(parts) != 2 {
				continue
			}
			out = append(out, [2]string{parts[0], parts[1]})
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "while listing edges of %q", src)
	}
	return out, nil
}

// Count returns the number of edges in the current keyspace.
func (g *Graph) Count() (int, error) {
	return g.countPrefix([]byte(edgePrefix))
}

// Clear drops every current edge. Idempotent: clearing an empty index
// succeeds. flush is accepted for parity with the search index; badger's
// DropPrefix is synchronous, so there is nothing left to push.
func (g *Graph) Clear(flush bool) error {
	_ = flush
	if err := g.db.DropPrefix([]byte(edgePrefix)); err != nil {
		return errors.Wrap(err, "while clearing graph index")
	}
	return nil
}

// HasLegacyRelationships reports whether any legacy edges remain.
func (g *Graph) HasLegacyRelationships() (bool, error) {
	n, err := g.countPrefix([]byte(legacyPrefix))
	return n > 0, err
}

// DropLegacyRelationships removes the legacy edge keyspace and returns how
// many edges it held.
func (g *Graph) DropLegacyRelationships() (int, error) {
	n, err := g.countPrefix([]byte(legacyPrefix))
	if err != nil {
		return 0, err
	}
	if err := g.db.DropPrefix([]byte(legacyPrefix)); err != nil {
		return 0, errors.Wrap(err, "while dropping legacy relationships")
	}
	return n, nil
}

func (g *Graph) countPrefix(prefix []byte) (int, error) {
	count := 0
	err := g.db.View(func(txn *badger.Txn) error {
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
		return 0, errors.Wrap(err, "while counting edges")
	}
	return count, nil
}
