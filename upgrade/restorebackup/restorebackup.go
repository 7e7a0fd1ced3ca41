/*
 * SPDX-FileCopyrightText: © Metastore, Inc. and Contributors
 * SPDX-License-Identifier: Apache-2.0
 */

// Package restorebackup implements the upgrade that rebuilds a metastore
// deployment from a backup: writes are disabled, the derived indices are
// cleared, every backed-up aspect row is replayed through the regular
// ingestion path, and writes are re-enabled. A cleanup safeguard re-enables
// writes even when the run aborts partway.
package restorebackup

import (
	"github.com/metastore-io/metastore/platform"
	"github.com/metastore-io/metastore/upgrade"
	"github.com/metastore-io/metastore/upgrade/restorebackup/backupreader"
)

// UpgradeID is the stable identifier of the restore upgrade.
const UpgradeID = "RestoreBackup"

// CleanArg is the opt-in launch argument for dropping the legacy aspect
// table during restore. Without it, the drop step is skipped.
const CleanArg = "CLEAN"

// RestoreBackup is the restore-from-backup upgrade.
type RestoreBackup struct {
	reader  backupreader.BackupReader
	steps   []upgrade.Step
	cleanup []upgrade.Step
}

// New builds the upgrade over the given platform and backup reader. The
// step order is fixed; see the package comment for why writes are re-enabled
// only after replay completes.
func New(p *platform.Platform, reader backupreader.BackupReader) *RestoreBackup {
	return &RestoreBackup{
		reader: reader,
		steps: []upgrade.Step{
			&DisableWritesStep{store: p.Store},
			&ClearSearchIndexStep{index: p.Search},
			&ClearGraphIndexStep{graph: p.Graph},
			&ClearLegacyAspectTableStep{store: p.Store},
			&RestoreStorageStep{platform: p, reader: reader},
			&EnableWritesStep{store: p.Store},
		},
		cleanup: []upgrade.Step{
			&EnableWritesSafeguardStep{store: p.Store},
		},
	}
}

func (*RestoreBackup) ID() string {
	return UpgradeID
}

func (u *RestoreBackup) Steps() []upgrade.Step {
	return u.steps
}

func (u *RestoreBackup) CleanupSteps() []upgrade.Step {
	return u.cleanup
}

// CheckArgs delegates to the backup reader, so a missing backup location
// fails the run before any store is touched.
func (u *RestoreBackup) CheckArgs(ctx *upgrade.Context) error {
	return u.reader.CheckArgs(ctx)
}

var (
	_ upgrade.Upgrade   = (*RestoreBackup)(nil)
	_ upgrade.Validator = (*RestoreBackup)(nil)
)
