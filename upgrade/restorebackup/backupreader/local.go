/*
 * SPDX-FileCopyrightText: © Metastore, Inc. and Contributors
 * SPDX-License-Identifier: Apache-2.0
 */

package backupreader

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/metastore-io/metastore/upgrade"
)

// BackupFilePathArg names the launch argument pointing at a local segment
// file, or a directory of them.
const BackupFilePathArg = "BACKUP_FILE_PATH"

// LocalSegmentReaderName selects the local reader on the command line.
const LocalSegmentReaderName = "LOCAL_SEGMENT"

// LocalSegmentReader reads backup segments from the local filesystem.
type LocalSegmentReader struct{}

// NewLocalSegmentReader returns a reader over local segment files.
func NewLocalSegmentReader() *LocalSegmentReader {
	return &LocalSegmentReader{}
}

func (*LocalSegmentReader) Name() string {
	return LocalSegmentReaderName
}

func (*LocalSegmentReader) CheckArgs(ctx *upgrade.Context) error {
	if path, ok := ctx.Arg(BackupFilePathArg); !ok || path == "" {
		return errors.Errorf("%s must be set to restore from local segment files", BackupFilePathArg)
	}
	return nil
}

// BackupIterator opens every segment up front, so an unreadable backup is a
// configuration error here rather than a mid-replay surprise.
func (r *LocalSegmentReader) BackupIterator(ctx *upgrade.Context) (Iterator, error) {
	if err := r.CheckArgs(ctx); err != nil {
		return nil, err
	}
	path, _ := ctx.Arg(BackupFilePathArg)

	paths, err := segmentPaths(path)
	if err != nil {
		return nil, err
	}

	sources := make([]*segmentSource, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			closeSources(sources)
			return nil, errors.Wrapf(err, "while opening backup segment %q", p)
		}
		sources = append(sources, &segmentSource{name: p, rc: f})
	}
	return newSegmentIterator(sources), nil
}

// segmentPaths resolves the path argument to the ordered list of segment
// files: the file itself, or every *.seg under a directory in name order.
func segmentPaths(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "while reading backup path %q", path)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	matches, err := filepath.Glob(filepath.Join(path, "*"+SegmentExt))
	if err != nil {
		return nil, errors.Wrapf(err, "while listing segments under %q", path)
	}
	if len(matches) == 0 {
		return nil, errors.Errorf("no %s segments found under %q", SegmentExt, path)
	}
	sort.Strings(matches)
	return matches, nil
}

func closeSources(sources []*segmentSource) {
	for _, src := range sources {
		if src.rc != nil {
			_ = src.rc.Close()
		}
	}
}

var _ BackupReader = (*LocalSegmentReader)(nil)
