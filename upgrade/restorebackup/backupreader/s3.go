/*
 * SPDX-FileCopyrightText: © Metastore, Inc. and Contributors
 * SPDX-License-Identifier: Apache-2.0
 */

package backupreader

import (
	"context"
	"io"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/pkg/errors"

	"github.com/metastore-io/metastore/upgrade"
	"github.com/metastore-io/metastore/x"
)

// Launch arguments naming the remote backup location.
const (
	BackupBucketArg = "BACKUP_S3_BUCKET"
	BackupPrefixArg = "BACKUP_S3_PREFIX"
)

// S3SegmentReaderName selects the minio/S3 reader on the command line.
const S3SegmentReaderName = "S3_SEGMENT"

// S3SegmentReader reads backup segments from a minio or S3 compatible
// object store. Credentials come from the environment (see x.NewMinioClient).
type S3SegmentReader struct {
	endpoint string
	secure   bool
}

// NewS3SegmentReader returns a reader against the given object store
// endpoint.
func NewS3SegmentReader(endpoint string, secure bool) *S3SegmentReader {
	return &S3SegmentReader{endpoint: endpoint, secure: secure}
}

func (*S3SegmentReader) Name() string {
	return S3SegmentReaderName
}

func (r *S3SegmentReader) CheckArgs(ctx *upgrade.Context) error {
	if r.endpoint == "" {
		return errors.Errorf("object store endpoint is not configured; set --s3_endpoint")
	}
	if bucket, ok := ctx.Arg(BackupBucketArg); !ok || bucket == "" {
		return errors.Errorf("%s must be set to restore from an object store", BackupBucketArg)
	}
	if !ctx.HasArg(BackupPrefixArg) {
		return errors.Errorf("%s must be set to restore from an object store", BackupPrefixArg)
	}
	return nil
}

// BackupIterator lists the segment objects up front, validating location and
// reachability at construction. Object bodies are streamed one at a time as
// the iterator reaches them.
func (r *S3SegmentReader) BackupIterator(ctx *upgrade.Context) (Iterator, error) {
	if err := r.CheckArgs(ctx); err != nil {
		return nil, err
	}
	bucket, _ := ctx.Arg(BackupBucketArg)
	prefix, _ := ctx.Arg(BackupPrefixArg)

	mc, err := x.NewMinioClient(r.endpoint, r.secure)
	if err != nil {
		return nil, err
	}

	var keys []string
	for obj := range mc.ListObjects(context.Background(), bucket,
		minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, errors.Wrapf(obj.Err, "while listing backup objects under %s/%s", bucket, prefix)
		}
		if strings.HasSuffix(obj.Key, SegmentExt) {
			keys = append(keys, obj.Key)
		}
	}
	if len(keys) == 0 {
		return nil, errors.Errorf("no %s segments found under %s/%s", SegmentExt, bucket, prefix)
	}
	sort.Strings(keys)

	sources := make([]*segmentSource, 0, len(keys))
	for _, key := range keys {
		key := key
		sources = append(sources, &segmentSource{
			name: bucket + "/" + key,
			open: func() (io.ReadCloser, error) {
				return mc.GetObject(context.Background(), bucket, key, minio.GetObjectOptions{})
			},
		})
	}
	return newSegmentIterator(sources), nil
}

var _ BackupReader = (*S3SegmentReader)(nil)
