package main

import (
	"github.com/spf13/cobra"

	"github.com/ryotapoi/morg/internal/core"
)

func newCorgCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "corg <doc> <targetDir>",
		Short: "Copy org file",
		Long: `Copy <doc> and the images it links to into <targetDir>. Only the copy is
rewritten; the original document and images are left untouched.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelocation(cmd, g, core.CopyDocument, args)
		},
	}
}

func newMorgCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "morg <doc> <targetDir>",
		Short: "Move org file",
		Long: `Move <doc> and the images it links to into <targetDir>.

The document is copied and rewritten first. The source document, and the
images no other document next to it references, are removed only if the
copy completed without problems.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelocation(cmd, g, core.MoveDocument, args)
		},
	}
}
