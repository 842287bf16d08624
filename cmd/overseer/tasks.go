package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"overseer/internal/taskplan"
)

func init() {
	rootCmd.AddCommand(tasksCmd)
}

var tasksCmd = &cobra.Command{
	Use:   "tasks FILE",
	Short: "Parse a task plan from a spec or plan file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		content := string(data)

		plan := taskplan.ParseTasksFromSpec(content)
		out := cmd.OutOrStdout()

		if len(plan.Tasks) == 0 {
			if taskplan.DetectSpecFallback(content) {
				fmt.Fprintln(out, "No tasks parsed, but the file reads as a completed specification.")
				return nil
			}
			return fmt.Errorf("no tasks found in %s", args[0])
		}

		source := "document scan"
		if plan.FromFencedBlock {
			source = "tasks block"
		}
		fmt.Fprintf(out, "%d task(s) from %s:\n", len(plan.Tasks), source)

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "  ID\tDONE\tPHASE\tFILE\tDESCRIPTION")
		for _, t := range plan.Tasks {
			done := " "
			if t.Completed {
				done = "x"
			}
			fmt.Fprintf(w, "  %s\t[%s]\t%s\t%s\t%s\n", t.ID, done, t.Phase, t.FilePath, t.Description)
		}
		w.Flush()
		return nil
	},
}
