/*
 * SPDX-FileCopyrightText: © Metastore, Inc. and Contributors
 * SPDX-License-Identifier: Apache-2.0
 */

package restorebackup

import (
	"io"

	"github.com/dustin/go-humanize"

	"github.com/metastore-io/metastore/platform"
	"github.com/metastore-io/metastore/upgrade"
	"github.com/metastore-io/metastore/upgrade/restorebackup/backupreader"
)

const progressEvery = 1000

// RestoreStorageStep replays every backed-up aspect row through the regular
// ingestion path, regenerating the search and graph side effects per record.
type RestoreStorageStep struct {
	upgrade.BaseStep
	platform *platform.Platform
	reader   backupreader.BackupReader
}

func (*RestoreStorageStep) ID() string { return "RestoreStorageStep" }

func (s *RestoreStorageStep) Execute(ctx *upgrade.Context) *upgrade.StepResult {
	rep := ctx.Report()
	itr, err := s.reader.BackupIterator(ctx)
	if err != nil {
		rep.Addf("Failed to open backup through reader %s: %v.", s.reader.Name(), err)
		return upgrade.StepFailed(s.ID())
	}
	defer func() { _ = itr.Close() }()

	rep.Addf("Replaying backup through reader %s.", s.reader.Name())
	var count int64
	for {
		row, err := itr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			rep.Addf("Failed reading backup after %s rows: %v.", humanize.Comma(count), err)
			return upgrade.StepFailed(s.ID())
		}
		if err := s.platform.Ingest(row); err != nil {
			rep.Addf("Failed to ingest aspect %s/%s: %v.", row.Urn, row.Aspect, err)
			return upgrade.StepFailed(s.ID())
		}
		count++
		if count%progressEvery == 0 {
			rep.Addf("Restored %s aspect rows so far.", humanize.Comma(count))
		}
	}
	rep.Addf("Restore complete. Replayed %s aspect rows.", humanize.Comma(count))
	return upgrade.StepSucceeded(s.ID())
}
