/*
 * SPDX-FileCopyrightText: © Metastore, Inc. and Contributors
 * SPDX-License-Identifier: Apache-2.0
 */

package cmd

import (
	goflag "flag"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/metastore-io/metastore/metastore/cmd/upgradecmd"
	"github.com/metastore-io/metastore/metastore/cmd/version"
	"github.com/metastore-io/metastore/x"
)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "metastore",
	Short: "Metastore: metadata platform tooling",
	Long: `
Metastore stores versioned entity aspects in a primary record store and keeps
a search index and a graph index derived from them. This binary carries the
operator tooling, including the upgrade runner.
` + x.BuildDetails(),
	Args: cobra.NoArgs,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main() and only needs to happen once.
func Execute() {
	goflag.Parse()
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

var rootConf = viper.New()

func init() {
	RootCmd.PersistentFlags().String("config", "",
		"Configuration file. Takes precedence over default values, but is "+
			"overridden by values set with environment variables and flags.")
	x.Check(rootConf.BindPFlags(RootCmd.PersistentFlags()))

	// glog registers its flags on the standard flag set.
	flag.CommandLine.AddGoFlagSet(goflag.CommandLine)

	var subcommands = []*x.SubCommand{
		&upgradecmd.Upgrade, &version.Version,
	}
	for _, sc := range subcommands {
		RootCmd.AddCommand(sc.Cmd)
		sc.Conf = viper.New()
		x.Check(sc.Conf.BindPFlags(sc.Cmd.Flags()))
		x.Check(sc.Conf.BindPFlags(RootCmd.PersistentFlags()))
		sc.Conf.AutomaticEnv()
		sc.Conf.SetEnvPrefix(sc.EnvPrefix)
	}
	cobra.OnInitialize(func() {
		cfg := rootConf.GetString("config")
		if cfg == "" {
			return
		}
		for _, sc := range subcommands {
			sc.Conf.SetConfigFile(cfg)
			x.Checkf(sc.Conf.ReadInConfig(), "reading config")
		}
	})
}
