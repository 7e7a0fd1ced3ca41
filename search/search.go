/*
 * SPDX-FileCopyrightText: © Metastore, Inc. and Contributors
 * SPDX-License-Identifier: Apache-2.0
 */

// Package search wraps the bleve index that serves full-text lookups over
// aspect rows. Indices live as directories under a common root; the current
// one is named by CurrentIndexName, while installations migrated from the
// first metastore generation may still carry legacy index directories next
// to it.
package search

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/blevesearch/bleve/v2"
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/metastore-io/metastore/store"
)

// CurrentIndexName is the directory name of the live aspect index under the
// search root.
const CurrentIndexName = "aspects_v2"

const clearBatchSize = 1000

// Index is the live search index.
type Index struct {
	path string
	idx  bleve.Index
}

// Open opens the index directory, creating it on first use.
func Open(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(path, bleve.NewIndexMapping())
	}
	if err != nil {
		return nil, errors.Wrapf(err, "while opening search index at %q", path)
	}
	return &Index{path: path, idx: idx}, nil
}

// Close releases the index.
func (x *Index) Close() error {
	return x.idx.Close()
}

func docID(row *store.AspectRow) string {
	return fmt.Sprintf("%s|%s|%d", row.Urn, row.Aspect, row.Version)
}

// Index adds or replaces the document for one aspect row.
func (x *Index) Index(row *store.AspectRow) error {
	doc := map[string]interface{}{
		"urn":      row.Urn,
		"aspect":   row.Aspect,
		"metadata": row.Metadata,
	}
	if err := x.idx.Index(docID(row), doc); err != nil {
		return errors.Wrapf(err, "while indexing aspect %s/%s", row.Urn, row.Aspect)
	}
	return nil
}

// Count returns the number of indexed documents.
func (x *Index) Count() (uint64, error) {
	return x.idx.DocCount()
}

// Clear removes every document. It is idempotent: clearing an already-empty
// index succeeds. With flush set, deletions are pushed through before Clear
// returns; without it, the final batch may still be merging in the
// background when control returns.
func (x *Index) Clear(flush bool) error {
	for {
		req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
		req.Size = clearBatchSize
		res, err := x.idx.Search(req)
		if err != nil {
			return errors.Wrap(err, "while listing documents to clear")
		}
		if len(res.Hits) == 0 {
			break
		}
		batch := x.idx.NewBatch()
		for _, hit := range res.Hits {
			batch.Delete(hit.ID)
		}
		if err := x.idx.Batch(batch); err != nil {
			return errors.Wrap(err, "while deleting documents")
		}
	}
	if flush {
		// Batches are applied synchronously, so a completed loop already
		// means an empty index. Verify rather than trust it.
		n, err := x.idx.DocCount()
		if err != nil {
			return errors.Wrap(err, "while verifying cleared index")
		}
		if n != 0 {
			return errors.Errorf("search index still reports %d documents after clear", n)
		}
	}
	glog.V(1).Infof("Cleared search index at %s", x.path)
	return nil
}

// DeleteIndicesMatching removes index directories under root whose names
// match the glob pattern, returning how many were deleted. The live index
// directory is never touched, whatever the pattern says.
func DeleteIndicesMatching(root, pattern string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(root, pattern))
	if err != nil {
		return 0, errors.Wrapf(err, "bad index pattern %q", pattern)
	}
	deleted := 0
	for _, match := range matches {
		if filepath.Base(match) == CurrentIndexName {
			continue
		}
		info, err := os.Stat(match)
		if err != nil || !info.IsDir() {
			continue
		}
		if err := os.RemoveAll(match); err != nil {
			return deleted, errors.Wrapf(err, "while deleting index %q", match)
		}
		deleted++
	}
	return deleted, nil
}
