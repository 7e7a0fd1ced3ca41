/*
 * SPDX-FileCopyrightText: © Metastore, Inc. and Contributors
 * SPDX-License-Identifier: Apache-2.0
 */

package restorebackup

import (
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/metastore-io/metastore/platform"
	"github.com/metastore-io/metastore/store"
	"github.com/metastore-io/metastore/upgrade"
	"github.com/metastore-io/metastore/upgrade/restorebackup/backupreader"
)

func newPlatform(t *testing.T) *platform.Platform {
	t.Helper()
	base := t.TempDir()
	p, err := platform.Open(filepath.Join(base, "store"), filepath.Join(base, "search"),
		filepath.Join(base, "graph"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, p.Close()) })
	return p
}

func writeBackup(t *testing.T, rows []*store.AspectRow) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backup-000"+backupreader.SegmentExt)
	require.NoError(t, backupreader.WriteSegment(path, rows))
	return path
}

func backupRows() []*store.AspectRow {
	return []*store.AspectRow{
		{Urn: "urn:ms:dataset:rawlogs", Aspect: "datasetProperties", Metadata: `{"name":"rawlogs"}`},
		{Urn: "urn:ms:dataset:pageviews", Aspect: "datasetProperties", Metadata: `{"name":"pageviews"}`},
		{Urn: "urn:ms:dataset:pageviews", Aspect: "upstreamLineage",
			Metadata: `{"upstreams":["urn:ms:dataset:rawlogs"]}`},
	}
}

func resultsByID(results []*upgrade.StepResult) map[string]upgrade.Result {
	out := make(map[string]upgrade.Result, len(results))
	for _, sr := range results {
		out[sr.StepID] = sr.Result
	}
	return out
}

func TestRestoreBackupStepIDsAreUnique(t *testing.T) {
	u := New(newPlatform(t), backupreader.NewLocalSegmentReader())
	seen := make(map[string]bool)
	for _, s := range append(u.Steps(), u.CleanupSteps()...) {
		require.False(t, seen[s.ID()], "duplicate step id %s", s.ID())
		seen[s.ID()] = true
	}
}

func TestRestoreBackupHappyPath(t *testing.T) {
	p := newPlatform(t)

	// Stale derived state that the restore must wipe.
	require.NoError(t, p.Search.Index(&store.AspectRow{
		Urn: "urn:ms:dataset:stale", Aspect: "datasetProperties", Metadata: `{"name":"stale"}`,
	}))
	require.NoError(t, p.Graph.AddEdge("urn:ms:dataset:stale", "ownedBy", "urn:ms:corpuser:x"))

	path := writeBackup(t, backupRows())
	u := New(p, backupreader.NewLocalSegmentReader())
	res := upgrade.NewEngine().Execute(u,
		map[string]string{backupreader.BackupFilePathArg: path})

	require.Equal(t, upgrade.RunSucceeded, res.State)
	require.Len(t, res.StepResults, 6)
	byID := resultsByID(res.StepResults)
	require.Equal(t, upgrade.Succeeded, byID["DisableWritesStep"])
	require.Equal(t, upgrade.Succeeded, byID["ClearSearchIndexStep"])
	require.Equal(t, upgrade.Succeeded, byID["ClearGraphIndexStep"])
	require.Equal(t, upgrade.Skipped, byID["ClearLegacyAspectTableStep"])
	require.Equal(t, upgrade.Succeeded, byID["RestoreStorageStep"])
	require.Equal(t, upgrade.Succeeded, byID["EnableWritesStep"])

	// The safeguard had nothing to do: write mode was already back on.
	require.Len(t, res.CleanupResults, 1)
	require.Equal(t, upgrade.Skipped, res.CleanupResults[0].Result)

	// The store ends writable with exactly the replayed rows.
	require.True(t, p.Store.Writable())
	n, err := p.Store.Count()
	require.NoError(t, err)
	require.Equal(t, 3, n)

	// Derived state was regenerated from the backup, not merged with the
	// stale leftovers.
	docs, err := p.Search.Count()
	require.NoError(t, err)
	require.EqualValues(t, 3, docs)

	edges, err := p.Graph.Edges("urn:ms:dataset:pageviews")
	require.NoError(t, err)
	require.Equal(t, [][2]string{{"upstreamLineage", "urn:ms:dataset:rawlogs"}}, edges)

	staleEdges, err := p.Graph.Edges("urn:ms:dataset:stale")
	require.NoError(t, err)
	require.Empty(t, staleEdges)
}

func TestRestoreBackupCleanArgDropsLegacyTable(t *testing.T) {
	p := newPlatform(t)
	require.NoError(t, p.Store.IngestLegacy(&store.AspectRow{
		Urn: "urn:ms:dataset:old", Aspect: "ownership",
	}))

	path := writeBackup(t, backupRows())
	u := New(p, backupreader.NewLocalSegmentReader())
	res := upgrade.NewEngine().Execute(u, map[string]string{
		backupreader.BackupFilePathArg: path,
		CleanArg:                       "",
	})

	require.Equal(t, upgrade.RunSucceeded, res.State)
	require.Equal(t, upgrade.Succeeded, resultsByID(res.StepResults)["ClearLegacyAspectTableStep"])

	has, err := p.Store.HasLegacyTable()
	require.NoError(t, err)
	require.False(t, has)
}

func TestRestoreBackupMissingPathFailsBeforeAnySteps(t *testing.T) {
	p := newPlatform(t)
	u := New(p, backupreader.NewLocalSegmentReader())

	res := upgrade.NewEngine().Execute(u, nil)

	require.Equal(t, upgrade.RunFailed, res.State)
	require.Empty(t, res.StepResults)
	require.Empty(t, res.CleanupResults)

	// Nothing ran: write mode was never touched and the store is empty.
	require.True(t, p.Store.Writable())
	n, err := p.Store.Count()
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

// failingReader opens nothing: argument checks pass, the iterator does not.
type failingReader struct{}

func (failingReader) Name() string                     { return "FAILING" }
func (failingReader) CheckArgs(*upgrade.Context) error { return nil }
func (failingReader) BackupIterator(*upgrade.Context) (backupreader.Iterator, error) {
	return nil, errors.Errorf("backup location went away")
}

func TestRestoreBackupAbortedRunReenablesWrites(t *testing.T) {
	p := newPlatform(t)
	u := New(p, failingReader{})

	res := upgrade.NewEngine().Execute(u, nil)

	require.Equal(t, upgrade.RunFailed, res.State)

	// The replay step failed after writes were disabled; the trailing
	// EnableWritesStep never got a terminal result.
	byID := resultsByID(res.StepResults)
	require.Equal(t, upgrade.Failed, byID["RestoreStorageStep"])
	require.NotContains(t, byID, "EnableWritesStep")

	// The cleanup safeguard ran and put write mode back.
	require.Len(t, res.CleanupResults, 1)
	require.Equal(t, "EnableWritesSafeguardStep", res.CleanupResults[0].StepID)
	require.Equal(t, upgrade.Succeeded, res.CleanupResults[0].Result)
	require.True(t, p.Store.Writable())
}
