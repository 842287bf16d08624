package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"overseer/internal/git"
	"overseer/internal/orphan"
)

func init() {
	rootCmd.AddCommand(orphansCmd)
}

var orphansCmd = &cobra.Command{
	Use:   "orphans",
	Short: "List features whose work branches no longer exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		proj, err := projectPath()
		if err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		det := orphan.NewDetector(st, git.NewClient(), logger)
		orphans := det.Detect(cmd.Context(), proj)
		if len(orphans) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No orphaned features found.")
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Found %d orphaned feature(s):\n", len(orphans))
		for _, o := range orphans {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s  (%s)  missing branch: %s\n", o.Feature.ID, o.Feature.Status, o.MissingBranch)
		}
		return nil
	},
}
