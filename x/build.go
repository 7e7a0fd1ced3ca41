/*
 * SPDX-FileCopyrightText: © Metastore, Inc. and Contributors
 * SPDX-License-Identifier: Apache-2.0
 */

package x

import "fmt"

// These variables are set using -ldflags.
var (
	metastoreVersion = "dev"
	lastCommitSHA    string
	lastCommitTime   string
)

// BuildDetails returns a description of the running build.
func BuildDetails() string {
	return fmt.Sprintf(`
Metastore version : %v
Commit SHA-1      : %v
Commit timestamp  : %v
`, metastoreVersion, lastCommitSHA, lastCommitTime)
}
