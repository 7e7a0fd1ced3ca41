/*
 * SPDX-FileCopyrightText: © Metastore, Inc. and Contributors
 * SPDX-License-Identifier: Apache-2.0
 */

package restorebackup

import (
	"github.com/metastore-io/metastore/graph"
	"github.com/metastore-io/metastore/search"
	"github.com/metastore-io/metastore/store"
	"github.com/metastore-io/metastore/upgrade"
)

// DisableWritesStep flips the advisory write-mode flag off, so external
// writers stand down before the indices are cleared.
type DisableWritesStep struct {
	upgrade.BaseStep
	store *store.Store
}

func (*DisableWritesStep) ID() string { return "DisableWritesStep" }

// Retries are pointless for the local flip, but deployments fronting the
// flag with a remote call inherit them.
func (*DisableWritesStep) RetryCount() int { return 2 }

func (s *DisableWritesStep) Execute(ctx *upgrade.Context) *upgrade.StepResult {
	s.store.SetWritable(false)
	ctx.Report().AddLine("Disabled write mode on the aspect store.")
	return upgrade.StepSucceeded(s.ID())
}

// ClearSearchIndexStep empties the search index before replay. Clearing an
// already-empty index succeeds, so a retried restore passes through here.
type ClearSearchIndexStep struct {
	upgrade.BaseStep
	index *search.Index
}

func (*ClearSearchIndexStep) ID() string { return "ClearSearchIndexStep" }

func (s *ClearSearchIndexStep) Execute(ctx *upgrade.Context) *upgrade.StepResult {
	if err := s.index.Clear(true); err != nil {
		ctx.Report().Addf("Failed to clear search index: %v.", err)
		return upgrade.StepFailed(s.ID())
	}
	ctx.Report().AddLine("Cleared search index.")
	return upgrade.StepSucceeded(s.ID())
}

// ClearGraphIndexStep empties the graph index before replay. Idempotent for
// the same reason as the search clear.
type ClearGraphIndexStep struct {
	upgrade.BaseStep
	graph *graph.Graph
}

func (*ClearGraphIndexStep) ID() string { return "ClearGraphIndexStep" }

func (s *ClearGraphIndexStep) Execute(ctx *upgrade.Context) *upgrade.StepResult {
	if err := s.graph.Clear(true); err != nil {
		ctx.Report().Addf("Failed to clear graph index: %v.", err)
		return upgrade.StepFailed(s.ID())
	}
	ctx.Report().AddLine("Cleared graph index.")
	return upgrade.StepSucceeded(s.ID())
}

// ClearLegacyAspectTableStep drops the legacy aspect keyspace. Destructive
// and optional: it only runs when the CLEAN argument is supplied, and its
// failure does not halt the restore.
type ClearLegacyAspectTableStep struct {
	upgrade.BaseStep
	store *store.Store
}

func (*ClearLegacyAspectTableStep) ID() string { return "ClearLegacyAspectTableStep" }

func (*ClearLegacyAspectTableStep) FatalOnFailure() bool { return false }

func (s *ClearLegacyAspectTableStep) Skip(ctx *upgrade.Context) bool {
	if ctx.HasArg(CleanArg) {
		return false
	}
	ctx.Report().AddLine("Legacy table cleanup has not been requested.")
	return true
}

func (s *ClearLegacyAspectTableStep) Execute(ctx *upgrade.Context) *upgrade.StepResult {
	ctx.Report().AddLine("Cleanup requested. Dropping the legacy aspect table.")
	n, err := s.store.DropLegacyTable()
	if err != nil {
		ctx.Report().Addf("Failed to drop legacy aspect table: %v.", err)
		return upgrade.StepFailed(s.ID())
	}
	ctx.Report().Addf("Dropped legacy aspect table (%d rows).", n)
	return upgrade.StepSucceeded(s.ID())
}

// EnableWritesStep turns write mode back on. It is the last main step, not
// cleanup: re-enabling before replay completes would let readers observe a
// partially restored store.
type EnableWritesStep struct {
	upgrade.BaseStep
	store *store.Store
}

func (*EnableWritesStep) ID() string { return "EnableWritesStep" }

func (*EnableWritesStep) RetryCount() int { return 2 }

func (s *EnableWritesStep) Execute(ctx *upgrade.Context) *upgrade.StepResult {
	s.store.SetWritable(true)
	ctx.Report().AddLine("Enabled write mode on the aspect store.")
	return upgrade.StepSucceeded(s.ID())
}

// EnableWritesSafeguardStep is the cleanup fallback: whatever happened to
// the main sequence, the store must not be left write-disabled indefinitely.
type EnableWritesSafeguardStep struct {
	upgrade.BaseStep
	store *store.Store
}

func (*EnableWritesSafeguardStep) ID() string { return "EnableWritesSafeguardStep" }

func (s *EnableWritesSafeguardStep) Skip(ctx *upgrade.Context) bool {
	if s.store.Writable() {
		ctx.Report().AddLine("Write mode already restored; safeguard not needed.")
		return true
	}
	return false
}

func (s *EnableWritesSafeguardStep) Execute(ctx *upgrade.Context) *upgrade.StepResult {
	s.store.SetWritable(true)
	ctx.Report().AddLine("Re-enabled write mode on the aspect store after an incomplete run.")
	return upgrade.StepSucceeded(s.ID())
}
