package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/ryotapoi/morg/internal/core"
)

func newHistoryCmd(g *globalFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List runs recorded in the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.close()
			if e.journal == nil {
				return errors.New("no journal configured: pass --journal or set journal in " + core.ConfigFileName)
			}
			runs, err := e.journal.Recent(limit)
			if err != nil {
				return err
			}
			switch g.format {
			case "json":
				return printHistoryJSON(cmd.OutOrStdout(), runs)
			default:
				printHistoryText(cmd.OutOrStdout(), runs)
				return nil
			}
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")
	return cmd
}
