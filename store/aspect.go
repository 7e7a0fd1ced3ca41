/*
 * SPDX-FileCopyrightText: © Metastore, Inc. and Contributors
 * SPDX-License-Identifier: Apache-2.0
 */

package store

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// AspectRow is one versioned aspect of an entity, keyed by (urn, aspect,
// version). It is also the unit of record in backup files: the backup reader
// produces these and replay ingests them without interpreting Metadata.
type AspectRow struct {
	Urn            string `json:"urn"`
	Aspect         string `json:"aspect"`
	Version        int64  `json:"version"`
	Metadata       string `json:"metadata"`
	SystemMetadata string `json:"systemMetadata,omitempty"`
	CreatedOn      int64  `json:"createdOn"`
	CreatedBy      string `json:"createdBy"`
}

// Validate checks the fields that every row must carry to be keyable.
func (r *AspectRow) Validate() error {
	if r.Urn == "" {
		return errors.Errorf("aspect row has empty urn")
	}
	if r.Aspect == "" {
		return errors.Errorf("aspect row for %s has empty aspect name", r.Urn)
	}
	if r.Version < 0 {
		return errors.Errorf("aspect row %s/%s has negative version %d", r.Urn, r.Aspect, r.Version)
	}
	return nil
}

func (r *AspectRow) marshal() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, errors.Wrapf(err, "while marshaling aspect row %s/%s", r.Urn, r.Aspect)
	}
	return data, nil
}

func unmarshalRow(data []byte) (*AspectRow, error) {
	var row AspectRow
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, errors.Wrap(err, "while unmarshaling aspect row")
	}
	return &row, nil
}
