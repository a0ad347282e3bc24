package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDevCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "dev <file> <destination>",
		Short: "Develop mode",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if g.verbose {
				fmt.Fprintln(cmd.ErrOrStderr(), "Develop mode")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Hello World")
			return nil
		},
	}
}
