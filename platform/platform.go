/*
 * SPDX-FileCopyrightText: © Metastore, Inc. and Contributors
 * SPDX-License-Identifier: Apache-2.0
 */

// Package platform wires the three stores of a metastore deployment (primary
// aspect store, search index, graph index) and applies the downstream side
// effects of an ingested aspect row to all of them.
package platform

import (
	"encoding/json"
	"path/filepath"

	"github.com/metastore-io/metastore/graph"
	"github.com/metastore-io/metastore/search"
	"github.com/metastore-io/metastore/store"
)

// Platform bundles the stores one deployment runs on.
type Platform struct {
	Store  *store.Store
	Search *search.Index
	Graph  *graph.Graph

	// SearchRoot is the directory holding index directories, the live one
	// included. Legacy index cleanup globs under it.
	SearchRoot string
}

// Open opens all three stores. storeDir and graphDir are badger directories;
// searchRoot holds the bleve index directories.
func Open(storeDir, searchRoot, graphDir string) (*Platform, error) {
	s, err := store.Open(storeDir)
	if err != nil {
		return nil, err
	}
	idx, err := search.Open(filepath.Join(searchRoot, search.CurrentIndexName))
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	g, err := graph.Open(graphDir)
	if err != nil {
		_ = s.Close()
		_ = idx.Close()
		return nil, err
	}
	return &Platform{Store: s, Search: idx, Graph: g, SearchRoot: searchRoot}, nil
}

// Close closes every store, returning the first error encountered.
func (p *Platform) Close() error {
	var first error
	for _, c := range []func() error{p.Store.Close, p.Search.Close, p.Graph.Close} {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Ingest writes one aspect row to the primary store and regenerates its
// search and graph side effects, the same path a live write takes. Replay
// during restore calls this per record.
func (p *Platform) Ingest(row *store.AspectRow) error {
	if err := p.Store.Ingest(row); err != nil {
		return err
	}
	if err := p.Search.Index(row); err != nil {
		return err
	}
	for _, upstream := range upstreams(row) {
		if err := p.Graph.AddEdge(row.Urn, row.Aspect, upstream); err != nil {
			return err
		}
	}
	return nil
}

// upstreams extracts referenced urns from the row's metadata. Rows whose
// metadata is not an object, or carries no upstreams field, yield no edges.
func upstreams(row *store.AspectRow) []string {
	var meta struct {
		Upstreams []string `json:"upstreams"`
	}
	if err := json.Unmarshal([]byte(row.Metadata), &meta); err != nil {
		return nil
	}
	return meta.Upstreams
}
