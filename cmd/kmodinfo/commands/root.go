// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"

	"github.com/automa-saga/logx"
	"github.com/hashgraph/kmodinfo/cmd/kmodinfo/commands/codecs"
	"github.com/hashgraph/kmodinfo/cmd/kmodinfo/commands/common"
	"github.com/hashgraph/kmodinfo/cmd/kmodinfo/commands/devices"
	"github.com/hashgraph/kmodinfo/cmd/kmodinfo/commands/info"
	"github.com/hashgraph/kmodinfo/cmd/kmodinfo/commands/list"
	"github.com/hashgraph/kmodinfo/cmd/kmodinfo/commands/loaded"
	"github.com/hashgraph/kmodinfo/cmd/kmodinfo/commands/releases"
	"github.com/hashgraph/kmodinfo/cmd/kmodinfo/commands/version"
	"github.com/hashgraph/kmodinfo/internal/config"
	"github.com/hashgraph/kmodinfo/internal/doctor"
	"github.com/joomcode/errorx"
	"github.com/spf13/cobra"
)

// examples:
// ./kmodinfo info nbd
// ./kmodinfo info e1000e --release 6.1.0-13-amd64 -o table
// ./kmodinfo loaded snd-hda-intel -o json
// ./kmodinfo devices --class net
// ./kmodinfo info nvidia --max-size 0

var (
	// Used for flags.
	flagConfig       string
	flagVersion      bool
	flagOutputFormat string
	flagMaxSize      int64

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:           "kmodinfo",
		Short:         "Inspect Linux kernel modules on disk and in the running kernel",
		Long:          "kmodinfo - Inspect Linux kernel module files, their metadata and signatures, and the modules loaded in the running kernel",
		SilenceUsage:  true,
		SilenceErrors: true,
		// runs after the config file is loaded by initConfig
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return common.ApplyOverrides(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagVersion {
				return version.PrintVersion(cmd)
			}

			return cmd.Help()
		},
	}
)

func init() {
	common.FlagConfig.SetVarP(rootCmd, &flagConfig, false)
	common.FlagOutput.SetVarP(rootCmd, &flagOutputFormat, false)
	common.FlagMaxSize.SetVarP(rootCmd, &flagMaxSize, false)

	// support '--version', '-v' to show version information
	rootCmd.PersistentFlags().BoolVarP(&flagVersion, "version", "v", false, "Show version")

	// disable command sorting to keep the order of commands as added
	cobra.EnableCommandSorting = false

	// add subcommands
	rootCmd.AddCommand(info.GetCmd())
	rootCmd.AddCommand(loaded.GetCmd())
	rootCmd.AddCommand(list.GetCmd())
	rootCmd.AddCommand(releases.GetCmd())
	rootCmd.AddCommand(devices.GetCmd())
	rootCmd.AddCommand(codecs.GetCmd())
	rootCmd.AddCommand(version.GetCmd())
}

// Execute executes the root command.
func Execute(ctx context.Context) error {
	if ctx == nil {
		return errorx.IllegalArgument.New("context is required")
	}

	cobra.OnInitialize(func() {
		initConfig(ctx)
	})

	// execute the root command
	_, err := rootCmd.ExecuteContextC(ctx)
	if err != nil {
		// keep typed errors intact so the diagnosis can classify them
		if errorx.Cast(err) != nil {
			return err
		}
		return errorx.IllegalState.Wrap(err, "failed to execute command")
	}

	return nil
}

func initConfig(ctx context.Context) {
	var err error
	err = config.Initialize(flagConfig)
	if err != nil {
		doctor.CheckErr(ctx, err)
	}

	logConfig := config.Get().Log
	err = logx.Initialize(logConfig)
	if err != nil {
		doctor.CheckErr(ctx, err)
	}
}
