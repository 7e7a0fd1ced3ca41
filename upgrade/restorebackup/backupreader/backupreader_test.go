/*
 * SPDX-FileCopyrightText: © Metastore, Inc. and Contributors
 * SPDX-License-Identifier: Apache-2.0
 */

package backupreader

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/metastore-io/metastore/store"
	"github.com/metastore-io/metastore/upgrade"
)

type stubUpgrade struct{}

func (stubUpgrade) ID() string                   { return "RestoreBackup" }
func (stubUpgrade) Steps() []upgrade.Step        { return nil }
func (stubUpgrade) CleanupSteps() []upgrade.Step { return nil }

func testContext(args map[string]string) *upgrade.Context {
	return upgrade.NewContext(stubUpgrade{}, args)
}

func row(urn string, version int64) *store.AspectRow {
	return &store.AspectRow{
		Urn:       urn,
		Aspect:    "datasetProperties",
		Version:   version,
		Metadata:  `{"name":"` + urn + `"}`,
		CreatedOn: 1700000000,
		CreatedBy: "urn:ms:corpuser:system",
	}
}

func drain(t *testing.T, itr Iterator) []*store.AspectRow {
	t.Helper()
	var rows []*store.AspectRow
	for {
		r, err := itr.Next()
		if err == io.EOF {
			return rows
		}
		require.NoError(t, err)
		rows = append(rows, r)
	}
}

func TestLocalSegmentSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backup-000"+SegmentExt)
	want := []*store.AspectRow{row("urn:ms:dataset:a", 0), row("urn:ms:dataset:b", 0), row("urn:ms:dataset:c", 2)}
	require.NoError(t, WriteSegment(path, want))

	itr, err := NewLocalSegmentReader().BackupIterator(
		testContext(map[string]string{BackupFilePathArg: path}))
	require.NoError(t, err)
	defer func() { require.NoError(t, itr.Close()) }()

	got := drain(t, itr)
	require.Equal(t, want, got)

	// Exhausted stays exhausted: no stale rows after EOF.
	_, err = itr.Next()
	require.Equal(t, io.EOF, err)
	_, err = itr.Next()
	require.Equal(t, io.EOF, err)
}

func TestLocalSegmentDirectoryConcatenation(t *testing.T) {
	dir := t.TempDir()
	first := []*store.AspectRow{row("urn:ms:dataset:a", 0), row("urn:ms:dataset:b", 0)}
	second := []*store.AspectRow{row("urn:ms:dataset:c", 0)}
	require.NoError(t, WriteSegment(filepath.Join(dir, "part-000"+SegmentExt), first))
	require.NoError(t, WriteSegment(filepath.Join(dir, "part-001"+SegmentExt), second))

	itr, err := NewLocalSegmentReader().BackupIterator(
		testContext(map[string]string{BackupFilePathArg: dir}))
	require.NoError(t, err)
	defer func() { _ = itr.Close() }()

	got := drain(t, itr)
	require.Len(t, got, 3)

	// Source-declared sequence: segments in name order, rows in file order,
	// each produced exactly once.
	var urns []string
	for _, r := range got {
		urns = append(urns, r.Urn)
	}
	require.Equal(t, []string{"urn:ms:dataset:a", "urn:ms:dataset:b", "urn:ms:dataset:c"}, urns)
}

func TestLocalSegmentMissingArgIsConfigError(t *testing.T) {
	r := NewLocalSegmentReader()
	ctx := testContext(nil)

	require.Error(t, r.CheckArgs(ctx))
	_, err := r.BackupIterator(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), BackupFilePathArg)
}

func TestLocalSegmentUnreadablePathFailsAtConstruction(t *testing.T) {
	_, err := NewLocalSegmentReader().BackupIterator(
		testContext(map[string]string{BackupFilePathArg: "/no/such/backup.seg"}))
	require.Error(t, err)
}

func TestLocalSegmentEmptyDirectoryFails(t *testing.T) {
	_, err := NewLocalSegmentReader().BackupIterator(
		testContext(map[string]string{BackupFilePathArg: t.TempDir()}))
	require.Error(t, err)
	require.Contains(t, err.Error(), "no "+SegmentExt)
}

func TestIteratorCloseEndsSequence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backup"+SegmentExt)
	require.NoError(t, WriteSegment(path, []*store.AspectRow{row("urn:ms:dataset:a", 0), row("urn:ms:dataset:b", 0)}))

	itr, err := NewLocalSegmentReader().BackupIterator(
		testContext(map[string]string{BackupFilePathArg: path}))
	require.NoError(t, err)

	_, err = itr.Next()
	require.NoError(t, err)
	require.NoError(t, itr.Close())

	_, err = itr.Next()
	require.Equal(t, io.EOF, err)
}

func TestCorruptSegmentPoisonsIterator(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corrupt"+SegmentExt)
	require.NoError(t, os.WriteFile(path, []byte("definitely not snappy"), 0o600))

	itr, err := NewLocalSegmentReader().BackupIterator(
		testContext(map[string]string{BackupFilePathArg: path}))
	require.NoError(t, err)
	defer func() { _ = itr.Close() }()

	_, err = itr.Next()
	require.Error(t, err)
	require.NotEqual(t, io.EOF, err)

	// The sequence ends at the failure; it does not resynchronize.
	_, err = itr.Next()
	require.Equal(t, io.EOF, err)
}

func TestReaderRegistry(t *testing.T) {
	Register(NewLocalSegmentReader())
	Register(NewS3SegmentReader("minio:9000", false))

	r, ok := Lookup(LocalSegmentReaderName)
	require.True(t, ok)
	require.Equal(t, LocalSegmentReaderName, r.Name())

	_, ok = Lookup("TAPE_DRIVE")
	require.False(t, ok)

	require.Contains(t, Names(), S3SegmentReaderName)
}

func TestS3ReaderCheckArgs(t *testing.T) {
	r := NewS3SegmentReader("minio:9000", false)

	require.Error(t, r.CheckArgs(testContext(nil)))
	require.Error(t, r.CheckArgs(testContext(map[string]string{BackupBucketArg: "backups"})))
	require.NoError(t, r.CheckArgs(testContext(map[string]string{
		BackupBucketArg: "backups",
		BackupPrefixArg: "metastore/2026-08-27",
	})))

	unconfigured := NewS3SegmentReader("", false)
	require.Error(t, unconfigured.CheckArgs(testContext(map[string]string{
		BackupBucketArg: "backups",
		BackupPrefixArg: "p",
	})))
}
