/*
 * SPDX-FileCopyrightText: © Metastore, Inc. and Contributors
 * SPDX-License-Identifier: Apache-2.0
 */

// Package legacycleanup implements the upgrade that removes the data left
// behind by the first metastore generation: the legacy aspect keyspace, the
// legacy graph relationships, and the legacy search index directories. A
// qualification step runs first; when no legacy representation exists, the
// deletion steps are skipped rather than failed, and the run still counts
// as a success. There are no cleanup steps; these actions are themselves
// the cleanup of a prior migration.
package legacycleanup

import (
	"github.com/metastore-io/metastore/platform"
	"github.com/metastore-io/metastore/upgrade"
)

// UpgradeID is the stable identifier of the legacy-cleanup upgrade.
const UpgradeID = "LegacyDataCleanup"

// IndexPrefixArg optionally namespaces the legacy search index pattern, for
// deployments that share a search root between environments.
const IndexPrefixArg = "INDEX_PREFIX"

// LegacyCleanup is the legacy-data removal upgrade. The qualification step
// records its verdict here; the deletion steps consult it in their skip
// predicates. Steps run strictly sequentially, so the plain field is safe.
type LegacyCleanup struct {
	steps     []upgrade.Step
	qualified bool
}

// New builds the upgrade over the given platform.
func New(p *platform.Platform) *LegacyCleanup {
	u := &LegacyCleanup{}
	u.steps = []upgrade.Step{
		&QualificationStep{upgrade: u, store: p.Store, graph: p.Graph},
		&DeleteLegacyAspectTableStep{upgrade: u, store: p.Store},
		&DeleteLegacyGraphRelationshipsStep{upgrade: u, graph: p.Graph},
		&DeleteLegacySearchIndicesStep{upgrade: u, root: p.SearchRoot},
	}
	return u
}

func (*LegacyCleanup) ID() string {
	return UpgradeID
}

func (u *LegacyCleanup) Steps() []upgrade.Step {
	return u.steps
}

func (*LegacyCleanup) CleanupSteps() []upgrade.Step {
	return nil
}

var _ upgrade.Upgrade = (*LegacyCleanup)(nil)
