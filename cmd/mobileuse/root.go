package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	envFiles []string
	noColor  bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "mobileuse",
		Short: "Carry out planner decisions on a mobile device with an LLM executor",
		Long: `mobileuse binds device tools to a chat model and lets it carry out one
planner decision at a time on an Android device reached through adb.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringSliceVar(&flags.envFiles, "env-file", nil, "dotenv files to load (default .env)")
	cmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(newRunCmd(flags))
	return cmd
}
