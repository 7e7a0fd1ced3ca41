/*
 * SPDX-FileCopyrightText: © Metastore, Inc. and Contributors
 * SPDX-License-Identifier: Apache-2.0
 */

package legacycleanup

import (
	"github.com/metastore-io/metastore/graph"
	"github.com/metastore-io/metastore/search"
	"github.com/metastore-io/metastore/store"
	upg "github.com/metastore-io/metastore/upgrade"
)

// legacyIndexPattern matches the index directories the first metastore
// generation created, one per document type.
const legacyIndexPattern = "*document*"

// QualificationStep checks whether any legacy representation exists at all
// and records the verdict for the deletion steps' skip predicates.
type QualificationStep struct {
	upg.BaseStep
	upgrade *LegacyCleanup
	store   *store.Store
	graph   *graph.Graph
}

func (*QualificationStep) ID() string { return "QualificationStep" }

func (s *QualificationStep) Execute(ctx *upg.Context) *upg.StepResult {
	hasTable, err := s.store.HasLegacyTable()
	if err != nil {
		ctx.Report().Addf("Failed to inspect legacy aspect table: %v.", err)
		return upg.StepFailed(s.ID())
	}
	hasRels, err := s.graph.HasLegacyRelationships()
	if err != nil {
		ctx.Report().Addf("Failed to inspect legacy graph relationships: %v.", err)
		return upg.StepFailed(s.ID())
	}
	s.upgrade.qualified = hasTable || hasRels
	if s.upgrade.qualified {
		ctx.Report().AddLine("Found legacy data. Proceeding with removal.")
	} else {
		ctx.Report().AddLine("No legacy data present. Nothing to remove.")
	}
	return upg.StepSucceeded(s.ID())
}

// DeleteLegacyAspectTableStep drops the legacy aspect keyspace.
type DeleteLegacyAspectTableStep struct {
	upg.BaseStep
	upgrade *LegacyCleanup
	store   *store.Store
}

func (*DeleteLegacyAspectTableStep) ID() string { return "DeleteLegacyAspectTableStep" }

func (*DeleteLegacyAspectTableStep) RetryCount() int { return 1 }

func (s *DeleteLegacyAspectTableStep) Skip(ctx *upg.Context) bool {
	if s.upgrade.qualified {
		return false
	}
	ctx.Report().AddLine("Skipping legacy aspect table removal: deployment did not qualify.")
	return true
}

func (s *DeleteLegacyAspectTableStep) Execute(ctx *upg.Context) *upg.StepResult {
	n, err := s.store.DropLegacyTable()
	if err != nil {
		ctx.Report().Addf("Failed to delete legacy aspect table: %v.", err)
		return upg.StepFailed(s.ID())
	}
	ctx.Report().Addf("Deleted legacy aspect table (%d rows).", n)
	return upg.StepSucceeded(s.ID())
}

// DeleteLegacyGraphRelationshipsStep drops the legacy edge keyspace.
type DeleteLegacyGraphRelationshipsStep struct {
	upg.BaseStep
	upgrade *LegacyCleanup
	graph   *graph.Graph
}

func (*DeleteLegacyGraphRelationshipsStep) ID() string { return "DeleteLegacyGraphRelationshipsStep" }

func (*DeleteLegacyGraphRelationshipsStep) RetryCount() int { return 1 }

func (s *DeleteLegacyGraphRelationshipsStep) Skip(ctx *upg.Context) bool {
	if s.upgrade.qualified {
		return false
	}
	ctx.Report().AddLine("Skipping legacy graph relationship removal: deployment did not qualify.")
	return true
}

func (s *DeleteLegacyGraphRelationshipsStep) Execute(ctx *upg.Context) *upg.StepResult {
	n, err := s.graph.DropLegacyRelationships()
	if err != nil {
		ctx.Report().Addf("Failed to delete legacy graph relationships: %v.", err)
		return upg.StepFailed(s.ID())
	}
	ctx.Report().Addf("Deleted %d legacy graph relationships.", n)
	return upg.StepSucceeded(s.ID())
}

// DeleteLegacySearchIndicesStep removes the legacy index directories under
// the search root, matching the derived name pattern.
type DeleteLegacySearchIndicesStep struct {
	upg.BaseStep
	upgrade *LegacyCleanup
	root    string
}

func (*DeleteLegacySearchIndicesStep) ID() string { return "DeleteLegacySearchIndicesStep" }

func (*DeleteLegacySearchIndicesStep) RetryCount() int { return 1 }

func (s *DeleteLegacySearchIndicesStep) Skip(ctx *upg.Context) bool {
	if s.upgrade.qualified {
		return false
	}
	ctx.Report().AddLine("Skipping legacy search index removal: deployment did not qualify.")
	return true
}

// pattern derives the directory glob, honoring the optional prefix argument.
func (s *DeleteLegacySearchIndicesStep) pattern(ctx *upg.Context) string {
	if prefix, ok := ctx.Arg(IndexPrefixArg); ok && prefix != "" {
		return prefix + "_" + legacyIndexPattern
	}
	return legacyIndexPattern
}

func (s *DeleteLegacySearchIndicesStep) Execute(ctx *upg.Context) *upg.StepResult {
	pattern := s.pattern(ctx)
	n, err := search.DeleteIndicesMatching(s.root, pattern)
	if err != nil {
		ctx.Report().Addf("Failed to delete legacy search indices matching %q: %v.", pattern, err)
		return upg.StepFailed(s.ID())
	}
	ctx.Report().Addf("Deleted %d legacy search indices matching %q.", n, pattern)
	return upg.StepSucceeded(s.ID())
}
