/*
 * SPDX-FileCopyrightText: © Metastore, Inc. and Contributors
 * SPDX-License-Identifier: Apache-2.0
 */

package backupreader

import (
	"encoding/json"
	"io"
	"os"

	"github.com/golang/snappy"
	"github.com/pkg/errors"

	"github.com/metastore-io/metastore/store"
)

// SegmentExt is the extension of backup segment files. A segment is a
// snappy-framed stream of concatenated JSON aspect rows; a backup consists
// of one or more segments replayed in name order.
const SegmentExt = ".seg"

// segmentSource is one physical segment. Local sources arrive pre-opened so
// that open failures surface at iterator construction; remote sources carry
// an opener invoked when the iterator reaches them.
type segmentSource struct {
	name string
	rc   io.ReadCloser
	open func() (io.ReadCloser, error)
}

// segmentIterator concatenates segment sources in declared order without
// materializing them. One decoder is live at a time, so memory use is
// bounded by a single record regardless of backup size.
type segmentIterator struct {
	sources []*segmentSource
	cur     int
	dec     *json.Decoder
	done    bool
	records int64
}

func newSegmentIterator(sources []*segmentSource) *segmentIterator {
	return &segmentIterator{sources: sources}
}

// Next returns the next row, or io.EOF once every source is exhausted. A
// decode failure poisons the iterator: the sequence ends there rather than
// resynchronizing mid-stream.
func (it *segmentIterator) Next() (*store.AspectRow, error) {
	if it.done {
		return nil, io.EOF
	}
	for {
		if it.dec == nil {
			if it.cur >= len(it.sources) {
				it.done = true
				return nil, io.EOF
			}
			src := it.sources[it.cur]
			if src.rc == nil {
				rc, err := src.open()
				if err != nil {
					it.done = true
					return nil, errors.Wrapf(err, "while opening backup segment %q", src.name)
				}
				src.rc = rc
			}
			it.dec = json.NewDecoder(snappy.NewReader(src.rc))
		}

		var row store.AspectRow
		err := it.dec.Decode(&row)
		if err == io.EOF {
			src := it.sources[it.cur]
			_ = src.rc.Close()
			src.rc = nil
			it.cur++
			it.dec = nil
			continue
		}
		if err != nil {
			it.done = true
			return nil, errors.Wrapf(err, "while decoding record %d from segment %q",
				it.records+1, it.sources[it.cur].name)
		}
		it.records++
		return &row, nil
	}
}

// Close releases any open segment handles. The iterator is exhausted
// afterwards.
func (it *segmentIterator) Close() error {
	it.done = true
	var first error
	for _, src := range it.sources {
		if src.rc != nil {
			if err := src.rc.Close(); err != nil && first == nil {
				first = err
			}
			src.rc = nil
		}
	}
	return first
}

var _ Iterator = (*segmentIterator)(nil)

// WriteSegment writes rows to a segment file at path. The backup job and
// tests use this; the format must stay in lockstep with segmentIterator.
func WriteSegment(path string, rows []*store.AspectRow) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "while creating segment %q", path)
	}
	sw := snappy.NewBufferedWriter(f)
	enc := json.NewEncoder(sw)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			_ = sw.Close()
			_ = f.Close()
			return errors.Wrapf(err, "while encoding row %s/%s", row.Urn, row.Aspect)
		}
	}
	if err := sw.Close(); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "while flushing segment %q", path)
	}
	return errors.Wrapf(f.Close(), "while closing segment %q", path)
}
