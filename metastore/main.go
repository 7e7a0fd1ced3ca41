/*
 * SPDX-FileCopyrightText: © Metastore, Inc. and Contributors
 * SPDX-License-Identifier: Apache-2.0
 */

package main

import "github.com/metastore-io/metastore/metastore/cmd"

func main() {
	cmd.Execute()
}
