package main

import (
	"github.com/spf13/cobra"

	"github.com/ryotapoi/morg/internal/core"
)

func newMimdirCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mimdir <dir> <targetDir>",
		Short: "Move image directory",
		Long: `Move every image directly inside <dir> into <targetDir>/images and rewrite
the links of the documents in the parent of <dir> that point at them.

Example:
  morg mimdir ./img ./archive`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelocation(cmd, g, core.MoveImageDir, args)
		},
	}
}
