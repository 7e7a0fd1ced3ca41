/*
 * SPDX-FileCopyrightText: © Metastore, Inc. and Contributors
 * SPDX-License-Identifier: Apache-2.0
 */

// Package upgradecmd wires the "metastore upgrade" sub-command: it opens the
// platform stores, builds the registered upgrades, and hands the selected
// one to the engine.
package upgradecmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/metastore-io/metastore/platform"
	"github.com/metastore-io/metastore/upgrade"
	"github.com/metastore-io/metastore/upgrade/legacycleanup"
	"github.com/metastore-io/metastore/upgrade/restorebackup"
	"github.com/metastore-io/metastore/upgrade/restorebackup/backupreader"
	"github.com/metastore-io/metastore/x"
)

// Upgrade is the sub-command invoked when running "metastore upgrade".
var Upgrade x.SubCommand

const (
	upgradeID    = "id"
	upgradeArgs  = "args"
	storeDir     = "store_dir"
	searchRoot   = "search_root"
	graphDir     = "graph_dir"
	backupReader = "backup_reader"
	s3Endpoint   = "s3_endpoint"
	s3Secure     = "s3_secure"
)

func init() {
	Upgrade.Cmd = &cobra.Command{
		Use:   "upgrade",
		Short: "Run a metastore maintenance upgrade",
		Long: "Executes one registered upgrade (e.g. RestoreBackup, LegacyDataCleanup) " +
			"against the local platform stores and prints the run report.",
		Run: func(cmd *cobra.Command, args []string) {
			run()
		},
	}
	Upgrade.EnvPrefix = "METASTORE_UPGRADE"

	flag := Upgrade.Cmd.Flags()
	flag.String(upgradeID, "", "Id of the upgrade to run. Empty lists the available upgrades.")
	flag.StringArrayP(upgradeArgs, "a", nil,
		"Upgrade argument as key=value, or a bare key for flag-style arguments. Repeatable.")
	flag.String(storeDir, "data/store", "Directory of the primary aspect store.")
	flag.String(searchRoot, "data/search", "Directory holding the search index directories.")
	flag.String(graphDir, "data/graph", "Directory of the graph index.")
	flag.String(backupReader, backupreader.LocalSegmentReaderName,
		"Backup reader used by RestoreBackup.")
	flag.String(s3Endpoint, "", "Object store endpoint for the S3 backup reader.")
	flag.Bool(s3Secure, true, "Use TLS when talking to the object store.")
}

func run() {
	conf := Upgrade.Conf

	p, err := platform.Open(conf.GetString(storeDir), conf.GetString(searchRoot),
		conf.GetString(graphDir))
	x.Checkf(err, "while opening platform stores")
	defer func() { x.Ignore(p.Close()) }()

	backupreader.Register(backupreader.NewLocalSegmentReader())
	backupreader.Register(backupreader.NewS3SegmentReader(
		conf.GetString(s3Endpoint), conf.GetBool(s3Secure)))

	readerName := conf.GetString(backupReader)
	reader, ok := backupreader.Lookup(readerName)
	if !ok {
		x.Fatalf("unknown backup reader %q; available: %s",
			readerName, strings.Join(backupreader.Names(), ", "))
	}

	registry := upgrade.NewRegistry()
	x.Check(registry.Register(restorebackup.New(p, reader)))
	x.Check(registry.Register(legacycleanup.New(p)))

	id := conf.GetString(upgradeID)
	if id == "" {
		fmt.Println("Available upgrades:")
		for _, known := range registry.IDs() {
			fmt.Println("  " + known)
		}
		os.Exit(2)
	}
	u, ok := registry.Get(id)
	if !ok {
		x.Fatalf("unknown upgrade %q; available: %s", id, strings.Join(registry.IDs(), ", "))
	}

	res := upgrade.NewEngine().Execute(u, parseArgs(conf.GetStringSlice(upgradeArgs)))
	printResult(res)
	if res.State != upgrade.RunSucceeded {
		os.Exit(1)
	}
}

// parseArgs turns repeated key=value flags into the argument map. A bare key
// becomes a present argument with an empty value, which is how flag-style
// arguments like CLEAN are expressed.
func parseArgs(pairs []string) map[string]string {
	args := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, _ := strings.Cut(pair, "=")
		if key == "" {
			continue
		}
		args[key] = value
	}
	return args
}

func printResult(res *upgrade.RunResult) {
	for _, line := range res.Report.Lines() {
		fmt.Println(line)
	}
	fmt.Println()
	for _, sr := range res.StepResults {
		fmt.Printf("%-45s %s\n", sr.StepID, sr.Result)
	}
	for _, sr := range res.CleanupResults {
		fmt.Printf("%-45s %s (cleanup)\n", sr.StepID, sr.Result)
	}
	fmt.Printf("\nUpgrade %s: %s\n", res.UpgradeID, res.State)
}
