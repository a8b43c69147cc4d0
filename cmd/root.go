package cmd

import (
	"fmt"
	"os"

	"github.com/gostonefire/bucketmap/cmd/bench"
	"github.com/gostonefire/bucketmap/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (
	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "bucketmap",
		Short: "in-memory bucket hash map",
		Long: fmt.Sprintf(`bucketmap (v%s)

An in-memory hash map for fixed length keys and values with buckets of
eight slots, overflow chaining and incremental growth.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of bucketmap",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("bucketmap v%s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	RootCmd.AddCommand(bench.BenchCmd)
	RootCmd.AddCommand(versionCmd)

	key := "log-level"
	RootCmd.PersistentFlags().String(key, "warn", util.WrapString("Level at which logs will be output (debug, info, warn, error)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
